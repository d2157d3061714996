package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://en.wikipedia.org/w/api.php"
	defaultNamespaces = "0|4"
)

// Page is one resolved page from a batched extracts query.
type Page struct {
	PageID  int64  `json:"pageid"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Client provides access to the MediaWiki action API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	namespaces string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom API endpoint (for testing or other wikis).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithNamespaces sets the content namespace filter, pipe-separated.
func WithNamespaces(ns string) Option {
	return func(c *Client) {
		c.namespaces = ns
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new MediaWiki API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		namespaces: defaultNamespaces,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// randomResponse mirrors the list=random query result.
type randomResponse struct {
	Query struct {
		Random []struct {
			ID    int64  `json:"id"`
			NS    int    `json:"ns"`
			Title string `json:"title"`
		} `json:"random"`
	} `json:"query"`
}

// RandomTitles returns up to count uniformly-random titles from the
// configured content namespaces.
func (c *Client) RandomTitles(ctx context.Context, count int) ([]string, error) {
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"random"},
		"rnnamespace": {c.namespaces},
		"rnlimit":     {fmt.Sprintf("%d", count)},
	}

	var result randomResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, fmt.Errorf("fetch random titles: %w", err)
	}

	titles := make([]string, 0, len(result.Query.Random))
	for _, r := range result.Query.Random {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

// Search runs an opensearch query and returns the matching titles in
// relevance order. An empty slice means no matches.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"action":    {"opensearch"},
		"format":    {"json"},
		"search":    {query},
		"namespace": {c.namespaces},
		"limit":     {fmt.Sprintf("%d", limit)},
	}

	// The opensearch result is a 4-tuple: [query, titles, descriptions, urls].
	var result []json.RawMessage
	if err := c.get(ctx, params, &result); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("search %q: malformed response with %d elements", query, len(result))
	}

	var titles []string
	if err := json.Unmarshal(result[1], &titles); err != nil {
		return nil, fmt.Errorf("search %q: decode titles: %w", query, err)
	}
	return titles, nil
}

// extractsResponse mirrors the prop=extracts query result.
type extractsResponse struct {
	Query struct {
		Pages map[string]Page `json:"pages"`
	} `json:"query"`
}

// Extracts fetches the plain-text bodies of the given titles in one
// batched request, following redirects. The returned page order follows
// the API's page map, not the input order; duplicate or redirecting
// titles collapse into a single page.
func (c *Client) Extracts(ctx context.Context, titles []string) ([]Page, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"prop":        {"extracts"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {strings.Join(titles, "|")},
	}

	var result extractsResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, fmt.Errorf("fetch extracts: %w", err)
	}

	pages := make([]Page, 0, len(result.Query.Pages))
	for _, p := range result.Query.Pages {
		pages = append(pages, p)
	}
	return pages, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
