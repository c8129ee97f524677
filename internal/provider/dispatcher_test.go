package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newCaller(t *testing.T, name, url string) Caller {
	t.Helper()
	c, err := NewClient(testConfig(name, url), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient(%s): %v", name, err)
	}
	t.Cleanup(func() { closeCaller(c) })
	return c
}

func TestDispatcherFallbackToSecondary(t *testing.T) {
	t.Parallel()

	// Primary is unreachable: server started then closed, so the dial fails.
	primary := httptest.NewServer(http.NotFoundHandler())
	primaryURL := primary.URL
	primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(okResponse("from secondary"))
	}))
	defer secondary.Close()

	d, err := NewDispatcher([]Caller{
		newCaller(t, "primary", primaryURL),
		newCaller(t, "secondary", secondary.URL),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	res, err := d.Execute(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Content != "from secondary" {
		t.Fatalf("unexpected content: %q", res.Content)
	}
	if res.Provider != "secondary" {
		t.Fatalf("result should carry the answering provider, got %q", res.Provider)
	}
}

func TestDispatcherFallbackOnBadResponse(t *testing.T) {
	t.Parallel()

	// Primary answers 200 with an empty choice list: a parse-level failure.
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(wireChatResponse{Model: "gpt-4o-mini"})
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(okResponse("rescued"))
	}))
	defer secondary.Close()

	d, err := NewDispatcher([]Caller{
		newCaller(t, "primary", primary.URL),
		newCaller(t, "secondary", secondary.URL),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	res, err := d.Execute(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Content != "rescued" {
		t.Fatalf("unexpected content: %q", res.Content)
	}
}

func TestDispatcherFallbackOnFailedCheck(t *testing.T) {
	t.Parallel()

	// Both providers answer cleanly at the HTTP level; the check rejects the
	// primary's content, which must count as that provider's failure.
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(okResponse("garbage"))
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(okResponse("clean"))
	}))
	defer secondary.Close()

	d, err := NewDispatcher([]Caller{
		newCaller(t, "primary", primary.URL),
		newCaller(t, "secondary", secondary.URL),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	reject := func(res *Result) error {
		if res.Content == "garbage" {
			return errors.New("unusable content")
		}
		return nil
	}

	res, err := d.Execute(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}, reject)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Content != "clean" || res.Provider != "secondary" {
		t.Fatalf("expected the secondary's result, got %+v", res)
	}

	// When every provider's content fails the check, the chain is exhausted.
	_, err = d.Execute(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}, func(*Result) error { return errors.New("unusable content") })
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("got %v, want all-providers-failed", err)
	}
}

func TestDispatcherAllFail(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request"}}`))
	}))
	defer failing.Close()

	d, err := NewDispatcher([]Caller{
		newCaller(t, "primary", failing.URL),
		newCaller(t, "secondary", failing.URL),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	_, err = d.Execute(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("got %v, want all-providers-failed", err)
	}

	var afe *AllFailedError
	if !errors.As(err, &afe) || afe.Attempts != 2 {
		t.Fatalf("unexpected error detail: %#v", err)
	}
}

func TestDispatcherRequiresProviders(t *testing.T) {
	t.Parallel()

	if _, err := NewDispatcher(nil, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for empty provider list")
	}
}
