package excerpt

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const defaultViewBase = "https://en.wikipedia.org/wiki/"

// WikiPageScraper fetches a wiki page's rendered HTML view and extracts
// its readable text. It backs the empty-extract fallback in Fetcher.
type WikiPageScraper struct {
	httpClient *http.Client
	viewBase   string
}

// ScraperOption configures a WikiPageScraper.
type ScraperOption func(*WikiPageScraper)

// WithViewBase sets the base URL pages are served under (for testing or
// other wikis). Titles are appended URL-escaped.
func WithViewBase(base string) ScraperOption {
	return func(s *WikiPageScraper) {
		s.viewBase = base
	}
}

// WithScrapeTimeout sets the HTTP client timeout.
func WithScrapeTimeout(d time.Duration) ScraperOption {
	return func(s *WikiPageScraper) {
		s.httpClient.Timeout = d
	}
}

// NewWikiPageScraper creates a scraper for rendered wiki pages.
func NewWikiPageScraper(opts ...ScraperOption) *WikiPageScraper {
	s := &WikiPageScraper{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		viewBase:   defaultViewBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches the page for a title and returns its readable text.
func (s *WikiPageScraper) Scrape(ctx context.Context, title string) (string, error) {
	pageURL := s.viewBase + url.PathEscape(strings.ReplaceAll(title, " ", "_"))

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %s", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; mediawiki-based-adv/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	return strings.TrimSpace(article.TextContent), nil
}
