package ranker

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/clavin/mediawiki-based-adv/freq"
)

// commonnessThreshold is the per-million frequency at or above which a
// word is too common to carry topic information.
const commonnessThreshold = 1000

var wordRe = regexp.MustCompile(`[\p{L}']+`)

// FrequencyLookup resolves a word to its frequency record. A nil record
// with a nil error means the word has no data.
type FrequencyLookup interface {
	Lookup(ctx context.Context, word string) (*freq.Record, error)
}

// candidate pairs a word with its resolved frequency while ranking.
type candidate struct {
	word       string
	perMillion float64
}

// Ranker orders the words of a message by ascending corpus frequency,
// so the rarest, most topic-bearing words come first.
type Ranker struct {
	lookup FrequencyLookup
}

// New creates a Ranker over the given frequency lookup.
func New(lookup FrequencyLookup) *Ranker {
	return &Ranker{lookup: lookup}
}

// Rank returns the message's qualifying words, rarest first. Words with
// no frequency data, failed lookups, and words at or above the
// commonness threshold are dropped. An empty result is a valid outcome
// meaning the caller should fall back to random content. The only
// error Rank returns is a failed session bootstrap, which no amount of
// degradation can work around.
func (r *Ranker) Rank(ctx context.Context, message string) ([]string, error) {
	words := tokenize(message)

	candidates := make([]candidate, 0, len(words))
	for _, word := range words {
		rec, err := r.lookup.Lookup(ctx, word)
		if errors.Is(err, freq.ErrBootstrap) {
			return nil, err
		}
		if err != nil {
			// A word whose lookup failed is indistinguishable from a
			// word with no data: the response degrades toward
			// randomness instead of aborting.
			slog.Warn("frequency lookup failed, dropping word", "word", word, "error", err)
			continue
		}
		if rec == nil {
			continue
		}
		if rec.PerMillion >= commonnessThreshold {
			continue
		}
		candidates = append(candidates, candidate{word: word, perMillion: rec.PerMillion})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].perMillion < candidates[j].perMillion
	})

	ranked := make([]string, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.word
	}
	return ranked, nil
}

// tokenize splits a message into lowercased words, de-duplicated while
// preserving first occurrence.
func tokenize(message string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, match := range wordRe.FindAllString(message, -1) {
		word := strings.ToLower(match)
		if seen[word] {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}
	return words
}
