// Package storecart exposes the authoritative cart API served by cartstore.
// Session services consume it through the gateway client, so the response
// shape here is the nested-product payload generation.
package storecart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolmart/schoolmart-cart/api/middleware"
	"github.com/schoolmart/schoolmart-cart/api/responses"
	"github.com/schoolmart/schoolmart-cart/api/validators"
	"github.com/schoolmart/schoolmart-cart/internal/cartstore"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
)

// ListItems returns the caller's cart entries.
func ListItems(svc cartstore.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListItems(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemsResponse(rows))
	}
}

// AddItem inserts or merges a cart entry for the caller.
func AddItem(svc cartstore.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newItemResponse(record))
	}
}

// UpdateItem sets the absolute quantity of a cart entry.
func UpdateItem(svc cartstore.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateQuantity(r.Context(), userID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(record))
	}
}

// RemoveItem deletes a cart entry.
func RemoveItem(svc cartstore.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

// ClearCart removes every entry the caller owns.
func ClearCart(svc cartstore.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearCart(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return itemID, nil
}

type addItemRequest struct {
	ProductID   string   `json:"productId" validate:"required"`
	Quantity    int      `json:"quantity" validate:"required,min=1"`
	Name        string   `json:"name,omitempty"`
	Price       string   `json:"price,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Category    string   `json:"category,omitempty"`
	RequiredFor []string `json:"requiredFor,omitempty"`
	StockLimit  int      `json:"stockLimit,omitempty" validate:"min=0"`
}

func (p addItemRequest) toInput() (cartstore.AddItemInput, error) {
	price := decimal.Zero
	if p.Price != "" {
		parsed, err := decimal.NewFromString(p.Price)
		if err != nil {
			return cartstore.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		price = parsed
	}
	return cartstore.AddItemInput{
		ProductID:   p.ProductID,
		Quantity:    p.Quantity,
		Name:        p.Name,
		Price:       price,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		RequiredFor: p.RequiredFor,
		StockLimit:  p.StockLimit,
	}, nil
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type itemsResponse struct {
	Items []itemResponse `json:"items"`
}

type itemResponse struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Quantity int             `json:"quantity"`
	Product  productResponse `json:"product"`
}

type productResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
	Category string `json:"category,omitempty"`
	Required bool   `json:"required"`
	InStock  bool   `json:"inStock"`
}

func newItemsResponse(rows []cartstore.StoredCartItem) itemsResponse {
	items := make([]itemResponse, 0, len(rows))
	for i := range rows {
		items = append(items, newItemResponse(&rows[i]))
	}
	return itemsResponse{Items: items}
}

func newItemResponse(record *cartstore.StoredCartItem) itemResponse {
	return itemResponse{
		ItemID:   record.ID,
		Quantity: record.Quantity,
		Product: productResponse{
			ID:       record.ProductID,
			Name:     record.Name,
			Price:    record.Price.StringFixed(2),
			ImageURL: record.ImageURL,
			Category: record.Category,
			Required: record.Required(),
			InStock:  record.InStock,
		},
	}
}
