package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
	"github.com/schoolmart/schoolmart-cart/pkg/metrics"
)

const (
	opAdd    = "add"
	opUpdate = "update_quantity"
	opRemove = "remove"
	opLoad   = "load"
)

// ProductDetails carries the display fields known to the storefront when a
// product is added. They are captured at add-time and not re-fetched.
type ProductDetails struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	ImageRef  string
	Category  string
	Required  bool
	InStock   bool
}

// Engine applies each mutation to the local store immediately, confirms it
// against the gateway, and restores the pre-mutation snapshot when the remote
// call fails. Mutations are not queued or serialized against each other: a
// concurrent mutation snapshots whatever local state exists at that moment
// and only ever rolls back to its own snapshot.
type Engine struct {
	store      *Store
	gateway    Gateway
	normalizer *Normalizer
	notifier   Notifier
	logg       *logger.Logger
	metrics    *metrics.CartMetrics
}

// EngineParams collects the engine's collaborators.
type EngineParams struct {
	Store      *Store
	Gateway    Gateway
	Normalizer *Normalizer
	Notifier   Notifier
	Logger     *logger.Logger
	Metrics    *metrics.CartMetrics
}

// NewEngine builds a mutation engine backed by the provided stack.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if params.Store == nil {
		params.Store = NewStore()
	}
	if params.Normalizer == nil {
		params.Normalizer = NewNormalizer("", "")
	}
	if params.Notifier == nil {
		params.Notifier = NopNotifier{}
	}
	return &Engine{
		store:      params.Store,
		gateway:    params.Gateway,
		normalizer: params.Normalizer,
		notifier:   params.Notifier,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Store exposes the engine's backing store.
func (e *Engine) Store() *Store {
	return e.store
}

// State returns the current items and totals as a consistent pair.
func (e *Engine) State() ([]LineItem, Totals) {
	return e.store.Get()
}

// LoadCart fetches the authoritative cart, normalizes it, and replaces the
// local state wholesale. Without a token it simply yields an empty cart; the
// read path has no auth precondition.
func (e *Engine) LoadCart(ctx context.Context, token string) error {
	if token == "" {
		e.store.Clear()
		return nil
	}

	start := time.Now()
	raw, err := e.gateway.FetchCartItems(ctx, token)
	e.metrics.ObserveGateway(opLoad, time.Since(start))
	if err != nil {
		err = e.typed(err, "fetch cart")
		e.fail(ctx, opLoad, err)
		return err
	}

	e.store.Load(e.normalizer.Normalize(raw))
	e.metrics.IncCommit(opLoad)
	return nil
}

// AddItem adds quantity units of the product. If the product is already in
// the cart the local quantity is bumped, but the remote call issued is still
// an add; the gateway owns the merge.
func (e *Engine) AddItem(ctx context.Context, token string, product ProductDetails, quantity int) error {
	if quantity < 1 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		e.notifier.Notify(ctx, noticeFor(err))
		return err
	}
	if product.ProductID == "" {
		err := pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		e.notifier.Notify(ctx, noticeFor(err))
		return err
	}
	if err := e.requireToken(ctx, token); err != nil {
		return err
	}

	snap := e.store.Snapshot()

	if existing, ok := e.store.FindProduct(product.ProductID); ok {
		e.store.update(func(items []LineItem) []LineItem {
			for i := range items {
				if items[i].ItemID == existing.ItemID {
					items[i].Quantity += quantity
				}
			}
			return items
		})
	} else {
		item := LineItem{
			ItemID:    uuid.NewString(),
			ProductID: product.ProductID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Quantity:  quantity,
			ImageRef:  product.ImageRef,
			Category:  product.Category,
			Required:  product.Required,
			InStock:   product.InStock,
		}
		e.store.update(func(items []LineItem) []LineItem {
			return append(items, item)
		})
	}

	return e.confirm(ctx, opAdd, snap, func(ctx context.Context) error {
		return e.gateway.AddToCart(ctx, token, product.ProductID, quantity)
	})
}

// UpdateQuantity adjusts an item's quantity by delta and confirms the
// absolute new quantity remotely. An unknown itemID is a no-op; a delta that
// would take the quantity below 1 aborts the operation entirely, this path
// never removes.
func (e *Engine) UpdateQuantity(ctx context.Context, token, itemID string, delta int) error {
	if err := e.requireToken(ctx, token); err != nil {
		return err
	}

	item, ok := e.store.Find(itemID)
	if !ok {
		return nil
	}
	if item.Quantity+delta < 1 {
		return nil
	}
	newQuantity := ChangeQuantity(item, delta)

	snap := e.store.Snapshot()
	e.store.update(func(items []LineItem) []LineItem {
		for i := range items {
			if items[i].ItemID == itemID {
				items[i].Quantity = newQuantity
			}
		}
		return items
	})

	return e.confirm(ctx, opUpdate, snap, func(ctx context.Context) error {
		return e.gateway.UpdateCartItem(ctx, token, itemID, newQuantity)
	})
}

// RemoveItem deletes the item locally and remotely. An item absent from the
// local store is a no-op: no remote call, no state change, no error.
func (e *Engine) RemoveItem(ctx context.Context, token, itemID string) error {
	if err := e.requireToken(ctx, token); err != nil {
		return err
	}

	if _, ok := e.store.Find(itemID); !ok {
		return nil
	}

	snap := e.store.Snapshot()
	e.store.update(func(items []LineItem) []LineItem {
		filtered := items[:0]
		for _, item := range items {
			if item.ItemID != itemID {
				filtered = append(filtered, item)
			}
		}
		return filtered
	})

	return e.confirm(ctx, opRemove, snap, func(ctx context.Context) error {
		return e.gateway.RemoveFromCart(ctx, token, itemID)
	})
}

// Clear resets the local state. Used on logout; the gateway keeps its copy.
func (e *Engine) Clear() {
	e.store.Clear()
}

// confirm runs the remote call for an already-applied mutation. On success
// nothing further happens, the local state is already correct. On failure the
// pre-mutation snapshot is restored and exactly one notice is emitted.
func (e *Engine) confirm(ctx context.Context, operation string, snap Snapshot, call func(ctx context.Context) error) error {
	start := time.Now()
	err := call(ctx)
	e.metrics.ObserveGateway(operation, time.Since(start))
	if err == nil {
		e.metrics.IncCommit(operation)
		return nil
	}

	typed := e.typed(err, operation)
	e.store.Restore(snap)
	e.fail(ctx, operation, typed)
	return typed
}

func (e *Engine) requireToken(ctx context.Context, token string) error {
	if token != "" {
		return nil
	}
	err := pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to modify your cart")
	e.notifier.Notify(ctx, noticeFor(err))
	return err
}

func (e *Engine) typed(err error, operation string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" failed")
}

func (e *Engine) fail(ctx context.Context, operation string, err error) {
	code := pkgerrors.CodeOf(err)
	e.metrics.IncRollback(operation, string(code))
	if e.logg != nil {
		ctx = e.logg.WithFields(ctx, map[string]any{
			"operation": operation,
			"code":      string(code),
		})
		e.logg.Error(ctx, "cart mutation rolled back", err)
	}
	e.notifier.Notify(ctx, noticeFor(err))
}
