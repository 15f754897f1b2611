// ABOUTME: Tests for the math assistant agent
// ABOUTME: Covers expression extraction, equation solving, and tool execution

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMathAssistant_Calculate(t *testing.T) {
	a := NewMathAssistant()
	ctx := context.Background()

	res, err := a.Invoke(ctx, "Calculate 15 * 23 + 7")
	require.NoError(t, err)

	assert.Contains(t, res.Content, "352")
	require.Len(t, res.ToolUses, 1)
	tu := res.ToolUses[0]
	assert.Equal(t, "Calculator", tu.Name)
	assert.Equal(t, toolCalculator, tu.ToolID)
	assert.Equal(t, "15 * 23 + 7", tu.Input["expression"])
	assert.Equal(t, "352", tu.Output["result"])
	assert.Empty(t, tu.Err)
}

func TestMathAssistant_BareExpression(t *testing.T) {
	a := NewMathAssistant()

	res, err := a.Invoke(context.Background(), "2+2")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "4")
	require.Len(t, res.ToolUses, 1)
	assert.Equal(t, "Calculator", res.ToolUses[0].Name)
}

func TestMathAssistant_EmbeddedQuestion(t *testing.T) {
	a := NewMathAssistant()

	res, err := a.Invoke(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "The answer to 2+2 is 4.")
}

func TestMathAssistant_Equation(t *testing.T) {
	a := NewMathAssistant()

	res, err := a.Invoke(context.Background(), "2x+5=13")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "x = 4")
	require.Len(t, res.ToolUses, 1)
	tu := res.ToolUses[0]
	assert.Equal(t, "Equation Solver", tu.Name)
	assert.Equal(t, "4", tu.Output["solution"])
}

func TestMathAssistant_UnsupportedEquation(t *testing.T) {
	a := NewMathAssistant()

	res, err := a.Invoke(context.Background(), "x^2=9")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "encountered an issue")
	assert.Empty(t, res.ToolUses)
}

func TestMathAssistant_Greeting(t *testing.T) {
	a := NewMathAssistant()

	res, err := a.Invoke(context.Background(), "Hello there")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "Math Assistant")
	assert.Empty(t, res.ToolUses)
}

func TestMathAssistant_MathKeyword(t *testing.T) {
	a := NewMathAssistant()

	res, err := a.Invoke(context.Background(), "Can you do math?")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "mathematical needs")
}

func TestMathAssistant_StreamInvokeMatchesInvoke(t *testing.T) {
	a := NewMathAssistant()
	ctx := context.Background()

	want, err := a.Invoke(ctx, "Calculate 15 * 23 + 7")
	require.NoError(t, err)

	var streamed string
	got, err := a.StreamInvoke(ctx, "Calculate 15 * 23 + 7", func(delta string) error {
		streamed += delta
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want.Content, got.Content)
	assert.Equal(t, got.Content, streamed, "content should equal concatenated deltas")
}

func TestMathAssistant_ExecuteTool(t *testing.T) {
	a := NewMathAssistant()
	ctx := context.Background()

	out, err := a.ExecuteTool(ctx, toolCalculator, map[string]any{"expression": "6 * 7"})
	require.NoError(t, err)
	assert.Equal(t, "42", out["result"])

	out, err = a.ExecuteTool(ctx, toolEquationSolver, map[string]any{"equation": "3y-6=9", "variable": "y"})
	require.NoError(t, err)
	assert.Equal(t, "5", out["solution"])

	_, err = a.ExecuteTool(ctx, toolCalculator, map[string]any{"expression": "rm -rf"})
	assert.Error(t, err)

	_, err = a.ExecuteTool(ctx, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}
