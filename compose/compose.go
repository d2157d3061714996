package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/clavin/mediawiki-based-adv/excerpt"
)

const (
	// MinSentences and MaxSentences bound the per-response sentence
	// target, drawn uniformly inclusive.
	MinSentences = 2
	MaxSentences = 6

	// topUpFactor caps the excerpt top-up loop at topUpFactor * target
	// iterations, so a content source that keeps returning empty
	// articles cannot spin forever.
	topUpFactor = 4
)

// ErrExhausted is returned when the content source could not supply
// enough non-empty excerpts within the top-up budget. A response is
// never silently under-filled.
var ErrExhausted = errors.New("content source exhausted")

// terminalPunctuation are the characters a sentence may already end
// with; anything else gains a trailing period.
const terminalPunctuation = ".!?:;,"

// WordRanker orders a message's words, rarest first.
type WordRanker interface {
	Rank(ctx context.Context, message string) ([]string, error)
}

// TitleSource resolves words to article titles and draws random ones.
// Satisfied by *wiki.Client.
type TitleSource interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	RandomTitles(ctx context.Context, count int) ([]string, error)
}

// ExcerptFetcher retrieves sentence sets for a batch of titles.
type ExcerptFetcher interface {
	Fetch(ctx context.Context, titles []string) ([]excerpt.Set, error)
}

// Engine assembles conversational responses by sampling sentences from
// articles chosen to match the input's rarest words, padded with random
// articles as needed.
type Engine struct {
	ranker   WordRanker
	titles   TitleSource
	excerpts ExcerptFetcher
	rng      *rand.Rand

	minSentences int
	maxSentences int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source (for deterministic tests).
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithSentenceRange overrides the sentence target bounds.
func WithSentenceRange(min, max int) Option {
	return func(e *Engine) {
		e.minSentences = min
		e.maxSentences = max
	}
}

// NewEngine creates a response engine.
func NewEngine(ranker WordRanker, titles TitleSource, excerpts ExcerptFetcher, opts ...Option) *Engine {
	e := &Engine{
		ranker:       ranker,
		titles:       titles,
		excerpts:     excerpts,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		minSentences: MinSentences,
		maxSentences: MaxSentences,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Respond builds a reply to the given message. An empty message is
// valid and produces a fully random response.
func (e *Engine) Respond(ctx context.Context, message string) (string, error) {
	target := e.minSentences + e.rng.Intn(e.maxSentences-e.minSentences+1)

	words, err := e.ranker.Rank(ctx, message)
	if err != nil {
		return "", fmt.Errorf("rank message: %w", err)
	}
	slog.Info("composing response", "target", target, "ranked_words", len(words))

	titles := e.resolveRelevantTitles(ctx, words, target)
	if shortfall := target - len(titles); shortfall > 0 {
		titles = append(titles, e.drawRandomTitles(ctx, shortfall)...)
	}

	sets, err := e.collectExcerpts(ctx, titles, target)
	if err != nil {
		return "", err
	}

	return e.sample(sets, target), nil
}

// resolveRelevantTitles turns ranked words into article titles, rarest
// word first, stopping at the target count. A failed or empty search
// simply contributes no title.
func (e *Engine) resolveRelevantTitles(ctx context.Context, words []string, target int) []string {
	var titles []string
	for _, word := range words {
		if len(titles) >= target {
			break
		}
		results, err := e.titles.Search(ctx, word, 1)
		if err != nil {
			slog.Warn("title search failed, skipping word", "word", word, "error", err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		titles = append(titles, results[0])
	}
	slog.Info("resolved relevant titles", "count", len(titles))
	return titles
}

// drawRandomTitles fetches filler titles, swallowing failures: an empty
// draw just leaves the shortfall for the top-up loop.
func (e *Engine) drawRandomTitles(ctx context.Context, count int) []string {
	titles, err := e.titles.RandomTitles(ctx, count)
	if err != nil {
		slog.Warn("random title draw failed", "count", count, "error", err)
		return nil
	}
	return titles
}

// collectExcerpts fetches excerpt batches, keeping non-empty sets and
// topping up with random titles until the target is met or the
// iteration budget runs out.
func (e *Engine) collectExcerpts(ctx context.Context, titles []string, target int) ([]excerpt.Set, error) {
	var kept []excerpt.Set
	pending := titles
	maxIterations := topUpFactor * target

	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(pending) > 0 {
			sets, err := e.excerpts.Fetch(ctx, pending)
			if err != nil {
				slog.Warn("excerpt fetch failed", "titles", len(pending), "error", err)
			}
			for _, set := range sets {
				if !set.Empty() {
					kept = append(kept, set)
				}
			}
		}

		if len(kept) >= target {
			return kept, nil
		}
		if iteration >= maxIterations {
			return nil, fmt.Errorf("%w: %d of %d excerpts after %d rounds", ErrExhausted, len(kept), target, iteration)
		}

		pending = e.drawRandomTitles(ctx, target-len(kept))
	}
}

// sample draws one sentence from each of the first target sets, fixes
// up terminal punctuation, and joins them into the final response.
func (e *Engine) sample(sets []excerpt.Set, target int) string {
	sentences := make([]string, 0, target)
	for _, set := range sets[:target] {
		sentence := set.Sentences[e.rng.Intn(len(set.Sentences))]
		sentences = append(sentences, ensureTerminal(sentence))
	}
	return strings.Join(sentences, " ")
}

// ensureTerminal appends a period to a sentence that does not already
// end in terminal punctuation.
func ensureTerminal(sentence string) string {
	if sentence == "" {
		return sentence
	}
	if strings.ContainsRune(terminalPunctuation, rune(sentence[len(sentence)-1])) {
		return sentence
	}
	return sentence + "."
}
