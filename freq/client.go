package freq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const defaultBaseURL = "https://wordsapiv1.p.rapidapi.com"

// Sentinel results from the frequency service.
var (
	// ErrNotFound means the service has no frequency data for the word.
	ErrNotFound = errors.New("no frequency data")
	// ErrUnauthorized means the session credential was rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// Record is a word's corpus-relative frequency data.
type Record struct {
	Zipf       float64 `json:"zipf"`
	PerMillion float64 `json:"perMillion"`
	Diversity  float64 `json:"diversity"`
}

// Credential holds the time-limited session parameters required by the
// frequency service. It is opaque to everything but the transport.
type Credential struct {
	When      string
	Encrypted string
}

// Bootstrap-page parameter extraction.
var (
	whenRe      = regexp.MustCompile(`"when"\s*:\s*"([^"]+)"`)
	encryptedRe = regexp.MustCompile(`"encrypted"\s*:\s*"([^"]+)"`)
)

// Client is the HTTP transport for the frequency service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a frequency service transport.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bootstrap fetches the bootstrap page and extracts a fresh session
// credential from it. Extraction failure is not retryable: the page
// layout has changed and no amount of retrying will fix that.
func (c *Client) Bootstrap(ctx context.Context) (*Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("create bootstrap request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bootstrap page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bootstrap page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bootstrap page: %w", err)
	}

	whenMatch := whenRe.FindSubmatch(body)
	encMatch := encryptedRe.FindSubmatch(body)
	if whenMatch == nil || encMatch == nil {
		return nil, fmt.Errorf("bootstrap page missing session parameters")
	}

	return &Credential{
		When:      string(whenMatch[1]),
		Encrypted: string(encMatch[1]),
	}, nil
}

// frequencyResponse mirrors the word lookup result.
type frequencyResponse struct {
	Word      string `json:"word"`
	Frequency Record `json:"frequency"`
}

// Frequency looks up the frequency record for a word using the given
// credential. Returns ErrNotFound when the service has no data for the
// word and ErrUnauthorized when the credential was rejected.
func (c *Client) Frequency(ctx context.Context, word string, cred *Credential) (*Record, error) {
	u := fmt.Sprintf("%s/words/%s/frequency?when=%s&encrypted=%s",
		c.baseURL, url.PathEscape(word), url.QueryEscape(cred.When), url.QueryEscape(cred.Encrypted))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create frequency request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch frequency for %q: %w", word, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("frequency lookup for %q returned status %d", word, resp.StatusCode)
	}

	var result frequencyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode frequency response for %q: %w", word, err)
	}

	return &result.Frequency, nil
}
