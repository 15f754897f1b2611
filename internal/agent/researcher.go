// ABOUTME: Rule-based web researcher agent with mock search and URL fetch tools
// ABOUTME: Detects URLs and search intent in messages; tool output is simulated

package agent

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	WebResearcherID = "web-researcher"

	toolWebSearch  = "web_search"
	toolURLFetcher = "url_fetcher"
)

var (
	urlPattern         = regexp.MustCompile(`(?i)https?://[^\s]+`)
	searchQueryPrefix  = regexp.MustCompile(`(?i)^(search for|find|look up|research|what is|who is|how to|latest|news about)\s*`)
	searchIntentWords  = []string{"search", "find", "look up", "research", "what is", "who is", "how to", "latest", "news about"}
	generalWebKeywords = []string{"web", "internet", "online", "website"}
)

// WebResearcher simulates web search and URL fetching. All tool output is
// mock data; no network requests are made.
type WebResearcher struct {
	tools []Tool
}

var _ Agent = (*WebResearcher)(nil)

// NewWebResearcher creates the web researcher agent
func NewWebResearcher() *WebResearcher {
	return &WebResearcher{
		tools: []Tool{
			{
				ID:          toolWebSearch,
				Name:        "Web Search",
				Description: "Searches the web for information using a search query",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "Search query to find relevant information",
						},
						"max_results": map[string]any{
							"type":        "number",
							"description": "Maximum number of search results to return (default: 5)",
							"default":     5,
						},
					},
					"required": []string{"query"},
				},
			},
			{
				ID:          toolURLFetcher,
				Name:        "URL Fetcher",
				Description: "Fetches and extracts content from a given URL",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"url": map[string]any{
							"type":        "string",
							"description": "URL to fetch content from",
						},
						"extract_text": map[string]any{
							"type":        "boolean",
							"description": "Whether to extract only text content (default: true)",
							"default":     true,
						},
					},
					"required": []string{"url"},
				},
			},
		},
	}
}

func (a *WebResearcher) ID() string   { return WebResearcherID }
func (a *WebResearcher) Name() string { return "Web Researcher" }
func (a *WebResearcher) Description() string {
	return "An assistant that can search the web and fetch information from URLs"
}
func (a *WebResearcher) Tools() []Tool { return a.tools }

// Invoke produces a deterministic response to the user message
func (a *WebResearcher) Invoke(ctx context.Context, message string) (*Result, error) {
	lower := strings.ToLower(message)

	// URLs in the message take priority
	if u := urlPattern.FindString(message); u != "" {
		output, err := a.fetchURL(u, true)
		if err != nil {
			return &Result{
				Content: fmt.Sprintf("I tried to fetch information from %s, but encountered an issue: %s. Could you check if the URL is accessible?", u, err),
			}, nil
		}
		preview := "Content successfully retrieved."
		if content, ok := output["content"].(string); ok && content != "" {
			if len(content) > 500 {
				content = content[:500]
			}
			preview = content + "..."
		}
		return &Result{
			Content: fmt.Sprintf("I've fetched the content from the URL you provided. Here's what I found: %s", preview),
			ToolUses: []ToolUse{{
				ToolID: toolURLFetcher,
				Name:   "URL Fetcher",
				Input:  map[string]any{"url": u, "extract_text": true},
				Output: output,
			}},
		}, nil
	}

	// Search intent
	for _, kw := range searchIntentWords {
		if !strings.Contains(lower, kw) {
			continue
		}
		query := strings.TrimSpace(searchQueryPrefix.ReplaceAllString(message, ""))
		if query == "" {
			query = message
		}
		output := a.searchWeb(query, 5)
		return &Result{
			Content: fmt.Sprintf("I found some information about %q. Here are the search results I discovered for you.", query),
			ToolUses: []ToolUse{{
				ToolID: toolWebSearch,
				Name:   "Web Search",
				Input:  map[string]any{"query": query, "max_results": 5},
				Output: output,
			}},
		}, nil
	}

	for _, kw := range generalWebKeywords {
		if strings.Contains(lower, kw) {
			return &Result{
				Content: "I'm here to help you research information on the web! I can search for topics, fetch content from specific URLs, and find the latest information online. What would you like me to research for you?",
			}, nil
		}
	}

	return &Result{
		Content: "Hello! I'm your Web Researcher. I can search the web for information, fetch content from URLs, and help you find answers to your questions online. Just tell me what you'd like to research, or paste a URL you'd like me to analyze!",
	}, nil
}

// StreamInvoke delivers the full response as a single delta
func (a *WebResearcher) StreamInvoke(ctx context.Context, message string, fn func(delta string) error) (*Result, error) {
	res, err := a.Invoke(ctx, message)
	return streamWhole(res, err, fn)
}

// ExecuteTool runs the web search or URL fetcher directly
func (a *WebResearcher) ExecuteTool(ctx context.Context, toolID string, input map[string]any) (map[string]any, error) {
	switch toolID {
	case toolWebSearch:
		query, _ := input["query"].(string)
		maxResults := 5
		if n, ok := input["max_results"].(float64); ok && n > 0 {
			maxResults = int(n)
		}
		return a.searchWeb(query, maxResults), nil
	case toolURLFetcher:
		u, _ := input["url"].(string)
		extractText := true
		if b, ok := input["extract_text"].(bool); ok {
			extractText = b
		}
		return a.fetchURL(u, extractText)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}
}

func (a *WebResearcher) searchWeb(query string, maxResults int) map[string]any {
	escaped := url.QueryEscape(query)
	results := []map[string]any{
		{
			"title":   fmt.Sprintf("Search results for: %s", query),
			"url":     fmt.Sprintf("https://example.com/search?q=%s", escaped),
			"snippet": fmt.Sprintf("This is a simulated search result for %q. In a real implementation, this would use actual search APIs.", query),
			"source":  "Example.com",
		},
		{
			"title":   fmt.Sprintf("%s - Wikipedia", query),
			"url":     fmt.Sprintf("https://en.wikipedia.org/wiki/%s", escaped),
			"snippet": fmt.Sprintf("Wikipedia article about %s. This is a mock result for demonstration purposes.", query),
			"source":  "Wikipedia",
		},
		{
			"title":   fmt.Sprintf("Learn about %s", query),
			"url":     fmt.Sprintf("https://learning.example.com/%s", escaped),
			"snippet": fmt.Sprintf("Educational content about %s. This is another simulated search result.", query),
			"source":  "Learning.example.com",
		},
	}
	if maxResults < len(results) {
		results = results[:maxResults]
	}
	return map[string]any{
		"query":         query,
		"results":       results,
		"total_results": len(results),
		"search_time":   "0.23 seconds",
		"note":          "This is a simulated search result. In production, integrate with real search APIs.",
	}
}

func (a *WebResearcher) fetchURL(rawURL string, extractText bool) (map[string]any, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL %q", rawURL)
	}

	content := fmt.Sprintf("This is simulated text content extracted from %s. In a real implementation, this would fetch and parse the actual webpage content.", rawURL)
	contentType := "text/plain"
	if !extractText {
		content = fmt.Sprintf("<html><head><title>Simulated Content</title></head><body><p>This is simulated HTML content from %s</p></body></html>", rawURL)
		contentType = "text/html"
	}

	return map[string]any{
		"url":          rawURL,
		"title":        fmt.Sprintf("Content from %s", parsed.Host),
		"content":      content,
		"content_type": contentType,
		"status_code":  200,
		"fetch_time":   time.Now().UTC().Format(time.RFC3339),
		"note":         "This is simulated content. In production, implement actual web scraping.",
	}, nil
}
