// Package tavily implements the web-search client used to gather evidence
// for market research. Search failures are soft by contract: the client
// returns an empty result list and logs a warning rather than surfacing an
// error, because a run without evidence is still a valid (degraded) run.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// Client is the Tavily Search API client.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a search client. A missing API key is logged once as a
// warning; the client then returns empty results for the whole run instead
// of failing.
func NewClient(baseURL, apiKey string, maxResults int, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxResults < 1 {
		maxResults = 5
	}
	logger = logger.With(slog.String("component", "search"))
	if apiKey == "" {
		logger.Warn("search api key not set, evidence gathering disabled")
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// searchRequest is the Tavily search payload.
type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// searchResponse mirrors the upstream result envelope. Snippet text arrives
// as "snippet" or "content" depending on provider version.
type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
		Content string `json:"content"`
		Date    string `json:"date"`
	} `json:"results"`
}

// Search runs a single web search and returns normalized evidence items.
// On any upstream failure it returns an empty list; it never returns an
// error to the caller.
func (c *Client) Search(ctx context.Context, query string, maxResults int) []domain.EvidenceItem {
	if c.apiKey == "" {
		return nil
	}
	if maxResults < 1 {
		maxResults = c.maxResults
	}

	items, err := c.doSearch(ctx, query, maxResults)
	if err != nil {
		c.logger.WarnContext(ctx, "web search failed",
			slog.String("query", truncate(query, 80)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	c.logger.InfoContext(ctx, "web search completed",
		slog.String("query", truncate(query, 80)),
		slog.Int("results", len(items)),
	)
	return items
}

// SearchTopics merges several topics into one combined query to conserve
// provider quota. Fewer, larger searches win over precise per-topic
// retrieval here; callers must tolerate results that mix topics.
func (c *Client) SearchTopics(ctx context.Context, topics []string, maxResults int) []domain.EvidenceItem {
	switch len(topics) {
	case 0:
		return nil
	case 1:
		return c.Search(ctx, topics[0], maxResults)
	}
	return c.Search(ctx, strings.Join(topics, " OR "), maxResults)
}

func (c *Client) doSearch(ctx context.Context, query string, maxResults int) ([]domain.EvidenceItem, error) {
	payload, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tavily: unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	items := make([]domain.EvidenceItem, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		snippet := r.Snippet
		if snippet == "" {
			snippet = r.Content
		}
		items = append(items, domain.EvidenceItem{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     snippet,
			PublishedAt: r.Date,
		})
	}
	return items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
