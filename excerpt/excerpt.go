package excerpt

import (
	"context"
	"log/slog"
	"strings"

	"github.com/clavin/mediawiki-based-adv/wiki"
)

// Set is one article's body reduced to an ordered sequence of
// sentences. A Set may be empty when the article has no extractable
// text; callers filter empty sets before sampling.
type Set struct {
	Title     string
	Sentences []string
}

// Empty reports whether the set has no sentences.
func (s Set) Empty() bool {
	return len(s.Sentences) == 0
}

// ExtractSource fetches plain-text page bodies. Satisfied by *wiki.Client.
type ExtractSource interface {
	Extracts(ctx context.Context, titles []string) ([]wiki.Page, error)
}

// PageScraper extracts readable text from a page's HTML view, used as a
// fallback when the API extract is empty.
type PageScraper interface {
	Scrape(ctx context.Context, title string) (string, error)
}

// Segmenter splits an article body into sentences.
type Segmenter func(body string) []string

// SplitLines is the default Segmenter: one sentence per non-blank line.
func SplitLines(body string) []string {
	var sentences []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			sentences = append(sentences, line)
		}
	}
	return sentences
}

// Fetcher retrieves article excerpts in batches and segments them into
// sentence sets.
type Fetcher struct {
	source  ExtractSource
	scraper PageScraper
	segment Segmenter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithScraper sets a fallback scraper for pages whose extract is empty.
func WithScraper(s PageScraper) Option {
	return func(f *Fetcher) {
		f.scraper = s
	}
}

// WithSegmenter replaces the sentence segmenter.
func WithSegmenter(seg Segmenter) Option {
	return func(f *Fetcher) {
		f.segment = seg
	}
}

// NewFetcher creates a Fetcher over the given extract source.
func NewFetcher(source ExtractSource, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:  source,
		segment: SplitLines,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the given titles in one batched request and returns a
// sentence set per resolved page. Set order follows the API's page
// ordering, not the input title order: redirecting or duplicate titles
// collapse, so callers must not assume positional correspondence.
func (f *Fetcher) Fetch(ctx context.Context, titles []string) ([]Set, error) {
	pages, err := f.source.Extracts(ctx, titles)
	if err != nil {
		return nil, err
	}

	sets := make([]Set, 0, len(pages))
	for _, page := range pages {
		sentences := f.segment(page.Extract)
		if len(sentences) == 0 && f.scraper != nil {
			body, err := f.scraper.Scrape(ctx, page.Title)
			if err != nil {
				slog.Warn("fallback scrape failed", "title", page.Title, "error", err)
			} else {
				sentences = f.segment(body)
			}
		}
		sets = append(sets, Set{Title: page.Title, Sentences: sentences})
	}
	return sets, nil
}
