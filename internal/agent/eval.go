// ABOUTME: Arithmetic expression evaluator for the calculator tool
// ABOUTME: Recursive descent over + - * / with parentheses and unary signs

package agent

import (
	"fmt"
	"strconv"
	"strings"
)

// evalExpression evaluates a basic arithmetic expression. Operands are
// decimal numbers; operators are + - * / with the usual precedence and
// parentheses for grouping.
func evalExpression(expr string) (float64, error) {
	p := &exprParser{input: expr}
	v, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

// formatNumber renders a result without a trailing fractional part when the
// value is integral, so 352.0 prints as "352".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() (byte, bool) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

// parseSum handles + and -
func (p *exprParser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

// parseProduct handles * and /
func (p *exprParser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		}
	}
}

// parseUnary handles leading + and - signs
func (p *exprParser) parseUnary() (float64, error) {
	op, ok := p.peek()
	if ok && (op == '+' || op == '-') {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == '-' {
			return -v, nil
		}
		return v, nil
	}
	return p.parseAtom()
}

// parseAtom handles numbers and parenthesized groups
func (p *exprParser) parseAtom() (float64, error) {
	ch, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	if ch == '(' {
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		ch, ok := p.peek()
		if !ok || ch != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	token := p.input[start:p.pos]
	if token == "" {
		return 0, fmt.Errorf("unexpected character %q at position %d", ch, p.pos)
	}
	if strings.Count(token, ".") > 1 {
		return 0, fmt.Errorf("malformed number %q", token)
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed number %q", token)
	}
	return v, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
