package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"stride-core/internal/usage"
)

type stubUsageReader struct {
	sums []usage.Summary
	err  error
}

func (s *stubUsageReader) Summary(_ context.Context, _ string) ([]usage.Summary, error) {
	return s.sums, s.err
}

func getUsage(h *UsageHandler, userID string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/v1/usage/{userID}", h.Summary)

	req := httptest.NewRequest(http.MethodGet, "/v1/usage/"+userID, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestUsageHandlerSummary(t *testing.T) {
	h := NewUsageHandler(&stubUsageReader{sums: []usage.Summary{
		{Endpoint: "workout_plan", Provider: "openai", Model: "gpt-4o-mini", RequestCount: 3, TotalTokens: 4200, CostUSD: 0.0123},
	}})

	rr := getUsage(h, "user-42")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		UserID string          `json:"user_id"`
		Usage  []usage.Summary `json:"usage"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID != "user-42" || len(resp.Usage) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage[0].RequestCount != 3 || resp.Usage[0].CostUSD != 0.0123 {
		t.Fatalf("unexpected summary row: %+v", resp.Usage[0])
	}
}

func TestUsageHandlerEmptyIsArray(t *testing.T) {
	h := NewUsageHandler(&stubUsageReader{})

	rr := getUsage(h, "nobody")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Usage []usage.Summary `json:"usage"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Usage == nil {
		t.Fatalf("usage should serialize as an empty array, got null")
	}
}

func TestUsageHandlerStoreError(t *testing.T) {
	h := NewUsageHandler(&stubUsageReader{err: errors.New("db closed")})

	rr := getUsage(h, "user-42")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}
