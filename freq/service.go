package freq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts     = 4
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 2500 * time.Millisecond
	backoffMultiplier      = 1.5
)

// ErrBootstrap marks a failed session bootstrap. Unlike retry
// exhaustion, it means no lookup can succeed until the bootstrap page
// is fixed, so callers propagate it instead of degrading.
var ErrBootstrap = errors.New("session bootstrap failed")

// LookupClient is the transport the service drives. Satisfied by *Client.
type LookupClient interface {
	Bootstrap(ctx context.Context) (*Credential, error)
	Frequency(ctx context.Context, word string, cred *Credential) (*Record, error)
}

// Service resolves words to frequency records with a process-lifetime
// cache and a retrying transport. The cache stores "known absent" as a
// first-class value, so a word with no data never hits the network twice.
type Service struct {
	client LookupClient

	mu    sync.Mutex
	cache map[string]*Record // nil value means known-absent
	cred  *Credential

	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxAttempts sets the retry budget for a single lookup.
func WithMaxAttempts(n int) ServiceOption {
	return func(s *Service) {
		s.maxAttempts = n
	}
}

// WithBackoffIntervals sets the initial and maximum retry intervals
// (for testing; the growth factor stays 1.5).
func WithBackoffIntervals(initial, max time.Duration) ServiceOption {
	return func(s *Service) {
		s.initialInterval = initial
		s.maxInterval = max
	}
}

// NewService creates a frequency service around the given transport.
func NewService(client LookupClient, opts ...ServiceOption) *Service {
	s := &Service{
		client:          client,
		cache:           make(map[string]*Record),
		maxAttempts:     defaultMaxAttempts,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup resolves a word to its frequency record. A nil record with a
// nil error means the word has no data. The word is lowercased before
// any cache or network access.
func (s *Service) Lookup(ctx context.Context, word string) (*Record, error) {
	key := strings.ToLower(word)

	s.mu.Lock()
	if rec, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return rec, nil
	}
	cred := s.cred
	s.mu.Unlock()

	if cred == nil {
		fresh, err := s.client.Bootstrap(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
		}
		s.setCredential(fresh)
		cred = fresh
	}

	rec, err := s.fetchWithRetry(ctx, key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = rec
	s.mu.Unlock()

	return rec, nil
}

// fetchWithRetry runs the frequency lookup under the backoff policy.
// A not-found result is a success (nil record) and consumes no retry.
// An unauthorized result refreshes the credential once per occurrence
// and then counts as a retryable failure.
func (s *Service) fetchWithRetry(ctx context.Context, key string) (*Record, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialInterval
	b.Multiplier = backoffMultiplier
	b.MaxInterval = s.maxInterval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxAttempts-1)), ctx)

	var rec *Record
	op := func() error {
		r, err := s.client.Frequency(ctx, key, s.credential())
		switch {
		case err == nil:
			rec = r
			return nil
		case errors.Is(err, ErrNotFound):
			rec = nil
			return nil
		case errors.Is(err, ErrUnauthorized):
			slog.Info("frequency credential rejected, refreshing", "word", key)
			fresh, berr := s.client.Bootstrap(ctx)
			if berr != nil {
				return backoff.Permanent(fmt.Errorf("%w: %w", ErrBootstrap, berr))
			}
			s.setCredential(fresh)
			return err
		default:
			slog.Warn("frequency lookup failed, will retry", "word", key, "error", err)
			return err
		}
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("frequency lookup for %q: %w", key, err)
	}
	return rec, nil
}

func (s *Service) credential() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

func (s *Service) setCredential(cred *Credential) {
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
}
