package cart

import (
	"bytes"
	"context"
	"encoding/json"
)

// Gateway is the authoritative persistence boundary for cart state. All four
// calls require a bearer token; the engine enforces that precondition for the
// writes before any local mutation happens.
type Gateway interface {
	FetchCartItems(ctx context.Context, token string) ([]RawItem, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, token, itemID string, quantity int) error
	RemoveFromCart(ctx context.Context, token, itemID string) error
}

// RawItem is a cart entry as the gateway serves it. Two payload generations
// are in play upstream: a flat shape with display fields on the entry itself,
// and a newer shape nesting them under a product sub-object. Both use a mix
// of synonymous field names, and numeric fields sometimes arrive as strings.
type RawItem struct {
	ItemID      string      `json:"itemId,omitempty"`
	ID          string      `json:"id,omitempty"`
	ProductID   string      `json:"productId,omitempty"`
	ProductName string      `json:"productName,omitempty"`
	Name        string      `json:"name,omitempty"`
	Price       FlexNumber  `json:"price,omitempty"`
	Rating      FlexNumber  `json:"rating,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Image       string      `json:"image,omitempty"`
	Quantity    *int        `json:"quantity,omitempty"`
	Category    string      `json:"category,omitempty"`
	Required    *bool       `json:"required,omitempty"`
	InStock     *bool       `json:"inStock,omitempty"`
	Product     *RawProduct `json:"product,omitempty"`
}

// RawProduct carries the nested product fields of the newer payload shape.
type RawProduct struct {
	ID          string     `json:"id,omitempty"`
	ProductName string     `json:"productName,omitempty"`
	Name        string     `json:"name,omitempty"`
	Price       FlexNumber `json:"price,omitempty"`
	Rating      FlexNumber `json:"rating,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Image       string     `json:"image,omitempty"`
	Category    string     `json:"category,omitempty"`
	Required    *bool      `json:"required,omitempty"`
	InStock     *bool      `json:"inStock,omitempty"`
}

// FlexNumber accepts a JSON number or a JSON string and preserves the textual
// form; interpretation happens in one place, ParsePrice.
type FlexNumber string

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*f = FlexNumber(n.String())
	return nil
}

func (f FlexNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

func (f FlexNumber) String() string {
	return string(f)
}
