package cart

import "github.com/shopspring/decimal"

// LineItem is one product's presence in a cart. ItemID identifies the cart
// entry itself; ProductID identifies the underlying product. The two are
// never assumed equal even though a product appears at most once per cart.
type LineItem struct {
	ItemID    string          `json:"itemId"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef"`
	Category  string          `json:"category"`
	Required  bool            `json:"required"`
	InStock   bool            `json:"inStock"`
}

// Snapshot is the full ordered line-item list at a point in time, used as a
// rollback point. Order is insertion order.
type Snapshot []LineItem

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Totals is derived from the line-item list and never stored; it is recomputed
// wholesale after every mutation so it cannot drift from the items.
type Totals struct {
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Equal reports whether two totals match.
func (t Totals) Equal(other Totals) bool {
	return t.ItemCount == other.ItemCount && t.Subtotal.Equal(other.Subtotal)
}
