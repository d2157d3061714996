package freq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const bootstrapPage = `<html><script>
var session = {"when": "2024-01-01T00:00:00Z", "encrypted": "a1b2c3d4"};
</script></html>`

func TestBootstrapExtractsCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bootstrapPage))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	cred, err := client.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if cred.When != "2024-01-01T00:00:00Z" {
		t.Errorf("When = %q", cred.When)
	}
	if cred.Encrypted != "a1b2c3d4" {
		t.Errorf("Encrypted = %q", cred.Encrypted)
	}
}

func TestBootstrapMissingParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>nothing to see here</html>`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	if _, err := client.Bootstrap(context.Background()); err == nil {
		t.Fatal("expected error for page without session parameters")
	}
}

func TestFrequency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/words/cat/frequency" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("when") != "now" || q.Get("encrypted") != "secret" {
			t.Errorf("credential params missing: %v", q)
		}
		w.Write([]byte(`{"word":"cat","frequency":{"zipf":4.31,"perMillion":20.5,"diversity":0.17}}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	cred := &Credential{When: "now", Encrypted: "secret"}

	rec, err := client.Frequency(context.Background(), "cat", cred)
	if err != nil {
		t.Fatalf("Frequency failed: %v", err)
	}
	if rec.Zipf != 4.31 || rec.PerMillion != 20.5 || rec.Diversity != 0.17 {
		t.Errorf("rec = %+v", rec)
	}
}

func TestFrequencyNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.Frequency(context.Background(), "xyzzy", &Credential{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFrequencyUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient(WithBaseURL(server.URL))
		_, err := client.Frequency(context.Background(), "cat", &Credential{})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("status %d: err = %v, want ErrUnauthorized", status, err)
		}
		server.Close()
	}
}

func TestFrequencyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.Frequency(context.Background(), "cat", &Credential{})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) {
		t.Errorf("transient failure mapped to a sentinel: %v", err)
	}
}
