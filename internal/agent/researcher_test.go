// ABOUTME: Tests for the web researcher agent
// ABOUTME: Covers URL detection, search intent, and mock tool output

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebResearcher_Search(t *testing.T) {
	a := NewWebResearcher()

	res, err := a.Invoke(context.Background(), "Search for golang concurrency patterns")
	require.NoError(t, err)

	assert.Contains(t, res.Content, "golang concurrency patterns")
	require.Len(t, res.ToolUses, 1)
	tu := res.ToolUses[0]
	assert.Equal(t, "Web Search", tu.Name)
	assert.Equal(t, "golang concurrency patterns", tu.Input["query"])
	assert.Empty(t, tu.Err)

	results, ok := tu.Output["results"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, results, 3)
}

func TestWebResearcher_URLFetch(t *testing.T) {
	a := NewWebResearcher()

	res, err := a.Invoke(context.Background(), "Summarize https://example.com/article for me")
	require.NoError(t, err)

	assert.Contains(t, res.Content, "fetched the content")
	require.Len(t, res.ToolUses, 1)
	tu := res.ToolUses[0]
	assert.Equal(t, "URL Fetcher", tu.Name)
	assert.Equal(t, "https://example.com/article", tu.Input["url"])
	assert.Equal(t, 200, tu.Output["status_code"])
}

func TestWebResearcher_URLTakesPriorityOverSearch(t *testing.T) {
	a := NewWebResearcher()

	res, err := a.Invoke(context.Background(), "Search https://example.com for news")
	require.NoError(t, err)
	require.Len(t, res.ToolUses, 1)
	assert.Equal(t, "URL Fetcher", res.ToolUses[0].Name)
}

func TestWebResearcher_GeneralWebQuery(t *testing.T) {
	a := NewWebResearcher()

	res, err := a.Invoke(context.Background(), "Tell me about the internet")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "research information on the web")
	assert.Empty(t, res.ToolUses)
}

func TestWebResearcher_Greeting(t *testing.T) {
	a := NewWebResearcher()

	res, err := a.Invoke(context.Background(), "Hello!")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "Web Researcher")
	assert.Empty(t, res.ToolUses)
}

func TestWebResearcher_ExecuteTool(t *testing.T) {
	a := NewWebResearcher()
	ctx := context.Background()

	out, err := a.ExecuteTool(ctx, toolWebSearch, map[string]any{"query": "go testing", "max_results": 2.0})
	require.NoError(t, err)
	results, ok := out["results"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, results, 2)

	out, err = a.ExecuteTool(ctx, toolURLFetcher, map[string]any{"url": "https://go.dev", "extract_text": false})
	require.NoError(t, err)
	assert.Equal(t, "text/html", out["content_type"])

	_, err = a.ExecuteTool(ctx, toolURLFetcher, map[string]any{"url": "not a url"})
	assert.Error(t, err)

	_, err = a.ExecuteTool(ctx, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}
