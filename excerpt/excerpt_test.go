package excerpt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/clavin/mediawiki-based-adv/wiki"
)

type fakeSource struct {
	pages []wiki.Page
	err   error
	got   []string
}

func (f *fakeSource) Extracts(ctx context.Context, titles []string) ([]wiki.Page, error) {
	f.got = titles
	return f.pages, f.err
}

type fakeScraper struct {
	bodies map[string]string
	calls  int
}

func (f *fakeScraper) Scrape(ctx context.Context, title string) (string, error) {
	f.calls++
	body, ok := f.bodies[title]
	if !ok {
		return "", errors.New("page not scrapable")
	}
	return body, nil
}

func TestFetchSegmentsExtracts(t *testing.T) {
	source := &fakeSource{pages: []wiki.Page{
		{Title: "Cat", Extract: "Cats are small.\nThey purr.\n\n"},
		{Title: "Dog", Extract: "Dogs bark."},
	}}
	f := NewFetcher(source)

	sets, err := f.Fetch(context.Background(), []string{"Cat", "Dog"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(sets))
	}
	if !reflect.DeepEqual(sets[0].Sentences, []string{"Cats are small.", "They purr."}) {
		t.Errorf("Cat sentences = %v", sets[0].Sentences)
	}
	if !reflect.DeepEqual(source.got, []string{"Cat", "Dog"}) {
		t.Errorf("source received titles %v", source.got)
	}
}

func TestFetchKeepsEmptySets(t *testing.T) {
	source := &fakeSource{pages: []wiki.Page{
		{Title: "Blank", Extract: "   \n  \n"},
	}}
	f := NewFetcher(source)

	sets, err := f.Fetch(context.Background(), []string{"Blank"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(sets) != 1 || !sets[0].Empty() {
		t.Errorf("sets = %v, want one empty set", sets)
	}
}

func TestFetchScraperFallback(t *testing.T) {
	source := &fakeSource{pages: []wiki.Page{
		{Title: "Stub", Extract: ""},
		{Title: "Cat", Extract: "Cats purr."},
	}}
	scraper := &fakeScraper{bodies: map[string]string{
		"Stub": "Scraped first line.\nScraped second line.",
	}}
	f := NewFetcher(source, WithScraper(scraper))

	sets, err := f.Fetch(context.Background(), []string{"Stub", "Cat"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if !reflect.DeepEqual(sets[0].Sentences, []string{"Scraped first line.", "Scraped second line."}) {
		t.Errorf("Stub sentences = %v", sets[0].Sentences)
	}
	if scraper.calls != 1 {
		t.Errorf("scraper called %d times, want 1 (only for the empty extract)", scraper.calls)
	}
}

func TestFetchScraperFailureLeavesSetEmpty(t *testing.T) {
	source := &fakeSource{pages: []wiki.Page{
		{Title: "Gone", Extract: ""},
	}}
	f := NewFetcher(source, WithScraper(&fakeScraper{}))

	sets, err := f.Fetch(context.Background(), []string{"Gone"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !sets[0].Empty() {
		t.Errorf("set = %v, want empty after scrape failure", sets[0])
	}
}

func TestFetchPropagatesSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("api down")}
	f := NewFetcher(source)

	if _, err := f.Fetch(context.Background(), []string{"Cat"}); err == nil {
		t.Fatal("expected error from source")
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("First sentence.\n\n  Second sentence.  \nThird.")
	want := []string{"First sentence.", "Second sentence.", "Third."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines = %v, want %v", got, want)
	}

	if got := SplitLines(""); got != nil {
		t.Errorf("SplitLines(\"\") = %v, want nil", got)
	}
}

func TestWikiPageScraper(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Stub article</title></head><body>
	<article><h1>Stub</h1>
	<p>This is the first paragraph of the stub article, which is long enough for readability to keep.</p>
	<p>This is the second paragraph, also padded out with enough text to count as real content.</p>
	</article></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Stub_article" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer server.Close()

	scraper := NewWikiPageScraper(WithViewBase(server.URL + "/"))

	text, err := scraper.Scrape(context.Background(), "Stub article")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if text == "" {
		t.Error("scraped text is empty")
	}
}

func TestWikiPageScraperNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	scraper := NewWikiPageScraper(WithViewBase(server.URL + "/"))

	if _, err := scraper.Scrape(context.Background(), "Missing"); err == nil {
		t.Fatal("expected error for 404 page")
	}
}
