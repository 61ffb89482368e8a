package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/schoolmart/schoolmart-cart/pkg/config"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.GatewayConfig{
		BaseURL:        server.URL,
		RequestTimeout: 2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}
	return client
}

func TestFetchCartItemsDecodesEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/cart/items" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("missing bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"items":[{"itemId":"a","quantity":2,"product":{"name":"Pen","price":"500"}}]}}`))
	})

	items, err := client.FetchCartItems(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ItemID != "a" || items[0].Product == nil || items[0].Product.Name != "Pen" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestAddToCartSendsPayload(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/cart/items" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode failed: %v", err)
		}
		if payload["productId"] != "p-1" || payload["quantity"] != float64(3) {
			t.Errorf("unexpected payload %+v", payload)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":null}`))
	})

	if err := client.AddToCart(context.Background(), "tok", "p-1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateCartItemSendsAbsoluteQuantity(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/cart/items/item-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode failed: %v", err)
		}
		if payload["quantity"] != float64(7) {
			t.Errorf("expected absolute quantity 7, got %+v", payload)
		}
		w.Write([]byte(`{"data":null}`))
	})

	if err := client.UpdateCartItem(context.Background(), "tok", "item-1", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestErrorMappingFromEnvelopeCode(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"STOCK_LIMIT_EXCEEDED","message":"only 2 left"}}`))
	})

	err := client.AddToCart(context.Background(), "tok", "p-1", 5)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStockLimit) {
		t.Fatalf("expected stock limit error, got %v", err)
	}
	if typed := pkgerrors.As(err); typed.Message() != "only 2 left" {
		t.Fatalf("expected gateway message preserved, got %q", typed.Message())
	}
}

func TestErrorMappingFromStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   pkgerrors.Code
	}{
		{status: http.StatusUnauthorized, want: pkgerrors.CodeUnauthorized},
		{status: http.StatusForbidden, want: pkgerrors.CodeUnauthorized},
		{status: http.StatusNotFound, want: pkgerrors.CodeNotFound},
		{status: http.StatusConflict, want: pkgerrors.CodeStockLimit},
		{status: http.StatusInternalServerError, want: pkgerrors.CodeDependency},
		{status: http.StatusBadGateway, want: pkgerrors.CodeDependency},
	}

	for _, tt := range tests {
		status := tt.status
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		err := client.RemoveFromCart(context.Background(), "tok", "item-1")
		if !pkgerrors.IsCode(err, tt.want) {
			t.Fatalf("status %d: expected code %s, got %v", tt.status, tt.want, err)
		}
	}
}

func TestTransportFailureIsDependencyError(t *testing.T) {
	t.Parallel()

	client, err := NewClient(config.GatewayConfig{
		BaseURL:        "http://127.0.0.1:1",
		RequestTimeout: 200 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}

	if err := client.AddToCart(context.Background(), "tok", "p", 1); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.GatewayConfig{}, nil); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
