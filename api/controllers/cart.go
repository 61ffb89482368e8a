package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schoolmart/schoolmart-cart/api/middleware"
	"github.com/schoolmart/schoolmart-cart/api/responses"
	"github.com/schoolmart/schoolmart-cart/api/validators"
	"github.com/schoolmart/schoolmart-cart/internal/cart"
	"github.com/schoolmart/schoolmart-cart/internal/session"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
)

// GetCart returns the session's current optimistic cart state.
func GetCart(registry *session.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := sessionEngine(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, totals := engine.State()
		responses.WriteSuccess(w, newCartStateResponse(items, totals))
	}
}

// LoadCart replaces the session's cart with the authoritative copy.
func LoadCart(registry *session.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := sessionEngine(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.LoadCart(r.Context(), middleware.AccessTokenFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, totals := engine.State()
		responses.WriteSuccess(w, newCartStateResponse(items, totals))
	}
}

// AddCartItem applies an optimistic add and confirms it upstream.
func AddCartItem(registry *session.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := sessionEngine(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.AccessTokenFromContext(r.Context())
		if err := engine.AddItem(r.Context(), token, payload.toDetails(), payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, totals := engine.State()
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartStateResponse(items, totals))
	}
}

// UpdateCartItem shifts an item's quantity by the requested delta.
func UpdateCartItem(registry *session.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := sessionEngine(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID := chi.URLParam(r, "id")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.AccessTokenFromContext(r.Context())
		if err := engine.UpdateQuantity(r.Context(), token, itemID, payload.Delta); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, totals := engine.State()
		responses.WriteSuccess(w, newCartStateResponse(items, totals))
	}
}

// RemoveCartItem removes an item from the session's cart.
func RemoveCartItem(registry *session.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := sessionEngine(registry, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID := chi.URLParam(r, "id")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		token := middleware.AccessTokenFromContext(r.Context())
		if err := engine.RemoveItem(r.Context(), token, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, totals := engine.State()
		responses.WriteSuccess(w, newCartStateResponse(items, totals))
	}
}

// ClearCart drops the session's local cart state and releases its engine.
// The authoritative copy is untouched; a later load rebuilds the session.
func ClearCart(registry *session.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}

		registry.Destroy(sessionID)
		responses.WriteSuccess(w, newCartStateResponse(nil, cart.Totals{}))
	}
}

func sessionEngine(registry *session.Registry, r *http.Request) (*cart.Engine, error) {
	if registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing")
	}
	engine, err := registry.Engine(sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve session cart")
	}
	return engine, nil
}

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Name      string `json:"name,omitempty"`
	Price     string `json:"price,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Category  string `json:"category,omitempty"`
	Required  bool   `json:"required,omitempty"`
	InStock   *bool  `json:"inStock,omitempty"`
}

func (p addCartItemRequest) toDetails() cart.ProductDetails {
	inStock := true
	if p.InStock != nil {
		inStock = *p.InStock
	}
	return cart.ProductDetails{
		ProductID: p.ProductID,
		Name:      p.Name,
		UnitPrice: cart.ParsePrice(p.Price),
		ImageRef:  p.ImageURL,
		Category:  p.Category,
		Required:  p.Required,
		InStock:   inStock,
	}
}

type updateCartItemRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type cartStateResponse struct {
	Items  []cart.LineItem `json:"items"`
	Totals cartTotals      `json:"totals"`
}

type cartTotals struct {
	ItemCount int    `json:"itemCount"`
	Subtotal  string `json:"subtotal"`
}

func newCartStateResponse(items []cart.LineItem, totals cart.Totals) cartStateResponse {
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartStateResponse{
		Items: items,
		Totals: cartTotals{
			ItemCount: totals.ItemCount,
			Subtotal:  totals.Subtotal.StringFixed(2),
		},
	}
}
