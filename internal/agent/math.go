// ABOUTME: Rule-based math assistant agent with calculator and equation solver tools
// ABOUTME: Extracts arithmetic expressions and simple linear equations from messages

package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	MathAssistantID = "math-assistant"

	toolCalculator     = "calculator"
	toolEquationSolver = "equation_solver"
)

var (
	exprPattern    = regexp.MustCompile(`^[0-9+\-*/.() ]+$`)
	exprExtract    = regexp.MustCompile(`[0-9+\-*/.() ]+`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	mathOpPattern  = regexp.MustCompile(`[+\-*/=]`)
	letterPattern  = regexp.MustCompile(`[a-zA-Z]`)
	linearEquation = regexp.MustCompile(`^([+-]?\d*)([a-zA-Z])([+-]\d+)?=([+-]?\d+)$`)
)

// MathAssistant answers arithmetic and simple algebra questions without any
// external model. Responses are deterministic.
type MathAssistant struct {
	tools []Tool
}

var _ Agent = (*MathAssistant)(nil)

// NewMathAssistant creates the math assistant agent
func NewMathAssistant() *MathAssistant {
	return &MathAssistant{
		tools: []Tool{
			{
				ID:          toolCalculator,
				Name:        "Calculator",
				Description: "Performs basic mathematical operations (addition, subtraction, multiplication, division)",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"expression": map[string]any{
							"type":        "string",
							"description": `Mathematical expression to evaluate (e.g., "2 + 3 * 4")`,
						},
					},
					"required": []string{"expression"},
				},
			},
			{
				ID:          toolEquationSolver,
				Name:        "Equation Solver",
				Description: "Solves mathematical equations and provides step-by-step solutions",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"equation": map[string]any{
							"type":        "string",
							"description": `Mathematical equation to solve (e.g., "2x + 5 = 13")`,
						},
						"variable": map[string]any{
							"type":        "string",
							"description": "Variable to solve for (default: x)",
							"default":     "x",
						},
					},
					"required": []string{"equation"},
				},
			},
		},
	}
}

func (a *MathAssistant) ID() string   { return MathAssistantID }
func (a *MathAssistant) Name() string { return "Math Assistant" }
func (a *MathAssistant) Description() string {
	return "A helpful assistant that can perform mathematical calculations and solve problems"
}
func (a *MathAssistant) Tools() []Tool { return a.tools }

// Invoke produces a deterministic response to the user message
func (a *MathAssistant) Invoke(ctx context.Context, message string) (*Result, error) {
	lower := strings.ToLower(message)
	hasDigits := digitPattern.MatchString(message)
	hasOps := mathOpPattern.MatchString(message)

	// Try expressions embedded in questions like "What is 2+2?" first
	for _, raw := range exprExtract.FindAllString(message, -1) {
		expr := strings.TrimSpace(raw)
		if len(expr) < 3 || !exprPattern.MatchString(expr) {
			continue
		}
		output, err := a.calculate(expr)
		if err != nil {
			continue
		}
		return &Result{
			Content: fmt.Sprintf("The answer to %s is %s.", expr, output["result"]),
			ToolUses: []ToolUse{{
				ToolID: toolCalculator,
				Name:   "Calculator",
				Input:  map[string]any{"expression": expr},
				Output: output,
			}},
		}, nil
	}

	// A bare expression message
	trimmed := strings.TrimSpace(message)
	if exprPattern.MatchString(trimmed) && hasDigits {
		output, err := a.calculate(trimmed)
		if err != nil {
			return &Result{
				Content: fmt.Sprintf("I tried to calculate %q but encountered an error: %s. Could you check the expression and try again?", trimmed, err),
			}, nil
		}
		return &Result{
			Content: fmt.Sprintf("The answer to %s is %s.", trimmed, output["result"]),
			ToolUses: []ToolUse{{
				ToolID: toolCalculator,
				Name:   "Calculator",
				Input:  map[string]any{"expression": trimmed},
				Output: output,
			}},
		}, nil
	}

	// Equations
	if strings.Contains(message, "=") && hasDigits {
		variable := "x"
		if m := letterPattern.FindString(message); m != "" {
			variable = m
		}
		output, err := a.solveEquation(message, variable)
		if err != nil {
			return &Result{
				Content: fmt.Sprintf("I see you have an equation there! Unfortunately, I encountered an issue: %s. Could you try rephrasing it? For example, \"2x + 5 = 13\" works well.", err),
			}, nil
		}
		return &Result{
			Content: fmt.Sprintf("Let me solve that equation for you! The solution is %s = %s.", variable, output["solution"]),
			ToolUses: []ToolUse{{
				ToolID: toolEquationSolver,
				Name:   "Equation Solver",
				Input:  map[string]any{"equation": message, "variable": variable},
				Output: output,
			}},
		}, nil
	}

	// Calculation intent without a usable expression
	if strings.Contains(lower, "calculate") ||
		(strings.Contains(lower, "what is") && hasDigits) ||
		strings.Contains(lower, "solve") ||
		(strings.Contains(lower, "find the") && hasOps) {
		if m := exprExtract.FindString(message); strings.TrimSpace(m) != "" {
			expr := strings.TrimSpace(m)
			if output, err := a.calculate(expr); err == nil {
				return &Result{
					Content: fmt.Sprintf("I can help you with that calculation! %s equals %s.", expr, output["result"]),
					ToolUses: []ToolUse{{
						ToolID: toolCalculator,
						Name:   "Calculator",
						Input:  map[string]any{"expression": expr},
						Output: output,
					}},
				}, nil
			}
		}
		return &Result{
			Content: "I'd be happy to help with calculations! You can give me expressions like '2+2' or '5*6-3', or ask me to solve equations like '2x + 5 = 13'. What would you like me to calculate?",
		}, nil
	}

	if strings.Contains(lower, "math") || strings.Contains(lower, "equation") || strings.Contains(lower, "formula") {
		return &Result{
			Content: "I'm here to help with all your mathematical needs! I can perform calculations, solve equations, and explain mathematical concepts. Just send me an expression like '2+2' or an equation like '2x + 5 = 13', and I'll solve it for you. What can I help you calculate today?",
		}, nil
	}

	return &Result{
		Content: "Hello! I'm your Math Assistant. I can help you with calculations and solve equations. You can send me math expressions like '2+2' or equations like '2x + 5 = 13', and I'll solve them for you. What mathematical problem can I help you with today?",
	}, nil
}

// StreamInvoke delivers the full response as a single delta
func (a *MathAssistant) StreamInvoke(ctx context.Context, message string, fn func(delta string) error) (*Result, error) {
	res, err := a.Invoke(ctx, message)
	return streamWhole(res, err, fn)
}

// ExecuteTool runs the calculator or equation solver directly
func (a *MathAssistant) ExecuteTool(ctx context.Context, toolID string, input map[string]any) (map[string]any, error) {
	switch toolID {
	case toolCalculator:
		expr, _ := input["expression"].(string)
		return a.calculate(expr)
	case toolEquationSolver:
		equation, _ := input["equation"].(string)
		variable, _ := input["variable"].(string)
		if variable == "" {
			variable = "x"
		}
		return a.solveEquation(equation, variable)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}
}

func (a *MathAssistant) calculate(expression string) (map[string]any, error) {
	if !exprPattern.MatchString(expression) {
		return nil, fmt.Errorf("invalid characters in expression")
	}
	v, err := evalExpression(expression)
	if err != nil {
		return nil, err
	}
	result := formatNumber(v)
	return map[string]any{
		"result":      result,
		"expression":  expression,
		"explanation": fmt.Sprintf("The result of %s is %s", expression, result),
	}, nil
}

// solveEquation handles simple linear equations of the form ax + b = c
func (a *MathAssistant) solveEquation(equation, variable string) (map[string]any, error) {
	clean := strings.ReplaceAll(equation, " ", "")
	m := linearEquation.FindStringSubmatch(clean)
	if m == nil {
		return nil, fmt.Errorf(`currently only simple linear equations are supported (e.g., "2x + 5 = 13")`)
	}
	coeff, varName, constant, rhs := m[1], m[2], m[3], m[4]

	if !strings.EqualFold(varName, variable) {
		return nil, fmt.Errorf("equation contains variable %s, but solving for %s", varName, variable)
	}

	av := 1.0
	if coeff != "" && coeff != "+" && coeff != "-" {
		av, _ = strconv.ParseFloat(coeff, 64)
	} else if coeff == "-" {
		av = -1
	}
	bv := 0.0
	if constant != "" {
		bv, _ = strconv.ParseFloat(constant, 64)
	}
	cv, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed right-hand side %q", rhs)
	}
	if av == 0 {
		return nil, fmt.Errorf("coefficient of %s is zero", variable)
	}

	solution := (cv - bv) / av
	return map[string]any{
		"solution": formatNumber(solution),
		"equation": equation,
		"variable": variable,
		"steps": []string{
			fmt.Sprintf("Original equation: %s", equation),
			fmt.Sprintf("Rearrange to: %s%s = %s - %s", formatNumber(av), variable, formatNumber(cv), formatNumber(bv)),
			fmt.Sprintf("Simplify: %s%s = %s", formatNumber(av), variable, formatNumber(cv-bv)),
			fmt.Sprintf("Divide by %s: %s = %s", formatNumber(av), variable, formatNumber(solution)),
		},
	}, nil
}
