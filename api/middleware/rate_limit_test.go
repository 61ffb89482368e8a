package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	counts map[string]int64
	limit  int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMutationRateLimitBlocksAfterLimit(t *testing.T) {
	store := &fakeLimiter{}
	handler := MutationRateLimit(NewMutationRateLimitPolicy(time.Minute, 2), store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit got %d", resp.Code)
	}
}

func TestMutationRateLimitIgnoresReads(t *testing.T) {
	store := &fakeLimiter{}
	handler := MutationRateLimit(NewMutationRateLimitPolicy(time.Minute, 1), store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("read %d: expected 200 got %d", i+1, resp.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("expected no counters for reads, got %v", store.counts)
	}
}

func TestMutationRateLimitScopesPerUser(t *testing.T) {
	store := &fakeLimiter{}
	handler := MutationRateLimit(NewMutationRateLimitPolicy(time.Minute, 1), store, nil)(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	first = first.WithContext(WithUserID(first.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, first)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for first user got %d", resp.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	second = second.WithContext(WithUserID(second.Context(), "user-2"))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, second)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for second user got %d", resp.Code)
	}
}

func TestMutationRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := MutationRateLimit(NewMutationRateLimitPolicy(0, 0), nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with disabled policy got %d", resp.Code)
	}
}
