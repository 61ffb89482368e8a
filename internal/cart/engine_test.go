package cart

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
)

type stubGateway struct {
	fetchItems []RawItem
	fetchErr   error
	addErr     error
	updateErr  error
	removeErr  error

	addCalls    []addCall
	updateCalls []updateCall
	removeCalls []string
	fetchCalls  int
}

type addCall struct {
	productID string
	quantity  int
}

type updateCall struct {
	itemID   string
	quantity int
}

func (g *stubGateway) FetchCartItems(ctx context.Context, token string) ([]RawItem, error) {
	g.fetchCalls++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return g.fetchItems, nil
}

func (g *stubGateway) AddToCart(ctx context.Context, token, productID string, quantity int) error {
	g.addCalls = append(g.addCalls, addCall{productID: productID, quantity: quantity})
	return g.addErr
}

func (g *stubGateway) UpdateCartItem(ctx context.Context, token, itemID string, quantity int) error {
	g.updateCalls = append(g.updateCalls, updateCall{itemID: itemID, quantity: quantity})
	return g.updateErr
}

func (g *stubGateway) RemoveFromCart(ctx context.Context, token, itemID string) error {
	g.removeCalls = append(g.removeCalls, itemID)
	return g.removeErr
}

type countingNotifier struct {
	notices []Notice
}

func (n *countingNotifier) Notify(ctx context.Context, notice Notice) {
	n.notices = append(n.notices, notice)
}

func newTestEngine(t *testing.T, gw *stubGateway) (*Engine, *countingNotifier) {
	t.Helper()
	notifier := &countingNotifier{}
	engine, err := NewEngine(EngineParams{Gateway: gw, Notifier: notifier})
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	return engine, notifier
}

func seedCart(t *testing.T, e *Engine, items ...LineItem) {
	t.Helper()
	e.Store().Load(items)
}

func assertTotalsConsistent(t *testing.T, e *Engine) {
	t.Helper()
	items, totals := e.State()
	if recomputed := ComputeTotals(items); !recomputed.Equal(totals) {
		t.Fatalf("totals drifted: reported %+v recomputed %+v", totals, recomputed)
	}
}

func TestUpdateQuantityDecrementSuccess(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, notifier := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "a", ProductID: "p-a", UnitPrice: decimal.NewFromInt(1000), Quantity: 2})

	if err := engine.UpdateQuantity(context.Background(), "tok", "a", -1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, totals := engine.State()
	if items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", items[0].Quantity)
	}
	if totals.ItemCount != 1 || !totals.Subtotal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if len(gw.updateCalls) != 1 || gw.updateCalls[0] != (updateCall{itemID: "a", quantity: 1}) {
		t.Fatalf("expected one absolute-quantity update call, got %+v", gw.updateCalls)
	}
	if len(notifier.notices) != 0 {
		t.Fatalf("success must not notify, got %+v", notifier.notices)
	}
}

func TestUpdateQuantityBelowOneAbortsEntirely(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, notifier := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "a", ProductID: "p-a", UnitPrice: decimal.NewFromInt(1000), Quantity: 2})

	if err := engine.UpdateQuantity(context.Background(), "tok", "a", -5); err != nil {
		t.Fatalf("abort must not error: %v", err)
	}

	items, totals := engine.State()
	if items[0].Quantity != 2 {
		t.Fatalf("quantity must stay 2, got %d", items[0].Quantity)
	}
	if totals.ItemCount != 2 || !totals.Subtotal.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if len(gw.updateCalls) != 0 {
		t.Fatalf("no remote call expected, got %+v", gw.updateCalls)
	}
	if len(notifier.notices) != 0 {
		t.Fatalf("no notice expected, got %+v", notifier.notices)
	}
}

func TestUpdateQuantityUnknownItemIsNoOp(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, _ := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "a", ProductID: "p-a", UnitPrice: decimal.NewFromInt(10), Quantity: 1})
	before := engine.Store().Snapshot()

	if err := engine.UpdateQuantity(context.Background(), "tok", "ghost", 1); err != nil {
		t.Fatalf("unknown item must be a no-op: %v", err)
	}
	if len(gw.updateCalls) != 0 {
		t.Fatalf("no remote call expected, got %+v", gw.updateCalls)
	}
	if after := engine.Store().Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed: before %+v after %+v", before, after)
	}
}

func TestAddItemStockLimitRollsBackNewItem(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{addErr: pkgerrors.New(pkgerrors.CodeStockLimit, "only 2 left")}
	engine, notifier := newTestEngine(t, gw)
	before := engine.Store().Snapshot()

	err := engine.AddItem(context.Background(), "tok", ProductDetails{
		ProductID: "x",
		Name:      "Glue Stick",
		UnitPrice: decimal.NewFromInt(150),
		InStock:   true,
	}, 3)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStockLimit) {
		t.Fatalf("expected stock limit error, got %v", err)
	}

	after := engine.Store().Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rollback must restore pre-call state exactly: before %+v after %+v", before, after)
	}
	if len(notifier.notices) != 1 {
		t.Fatalf("expected exactly one notice, got %d", len(notifier.notices))
	}
	if notifier.notices[0].Code != pkgerrors.CodeStockLimit {
		t.Fatalf("unexpected notice %+v", notifier.notices[0])
	}
	assertTotalsConsistent(t, engine)
}

func TestAddItemMergesExistingProductLocallyButStillCallsAdd(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, _ := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "item-1", ProductID: "p-1", Name: "Ruler", UnitPrice: decimal.NewFromInt(200), Quantity: 1})

	err := engine.AddItem(context.Background(), "tok", ProductDetails{ProductID: "p-1", Name: "Ruler", UnitPrice: decimal.NewFromInt(200)}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, _ := engine.State()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3 on one line, got %+v", items)
	}
	if len(gw.addCalls) != 1 || gw.addCalls[0] != (addCall{productID: "p-1", quantity: 2}) {
		t.Fatalf("remote call must remain an add with the delta, got %+v", gw.addCalls)
	}
}

func TestAddItemAppendsNewProduct(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, _ := newTestEngine(t, gw)

	err := engine.AddItem(context.Background(), "tok", ProductDetails{
		ProductID: "p-9",
		Name:      "Backpack",
		UnitPrice: decimal.RequireFromString("39.99"),
		Category:  "Bags",
		InStock:   true,
	}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, totals := engine.State()
	if len(items) != 1 {
		t.Fatalf("expected one item, got %+v", items)
	}
	if items[0].ItemID == "" {
		t.Fatal("new items need a locally assigned item id")
	}
	if items[0].ItemID == items[0].ProductID {
		t.Fatal("item id must not be assumed equal to product id")
	}
	if totals.ItemCount != 1 || !totals.Subtotal.Equal(decimal.RequireFromString("39.99")) {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestRemoveItemAbsentIsNoOp(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, notifier := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "a", ProductID: "p-a", UnitPrice: decimal.NewFromInt(10), Quantity: 1})

	if err := engine.RemoveItem(context.Background(), "tok", "z"); err != nil {
		t.Fatalf("absent item must be a silent no-op: %v", err)
	}
	if len(gw.removeCalls) != 0 {
		t.Fatalf("no remote call expected, got %+v", gw.removeCalls)
	}
	if len(notifier.notices) != 0 {
		t.Fatalf("no notice expected, got %+v", notifier.notices)
	}
	items, _ := engine.State()
	if len(items) != 1 {
		t.Fatalf("state must be unchanged, got %+v", items)
	}
}

func TestRemoveItemFailureRollsBack(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{removeErr: pkgerrors.New(pkgerrors.CodeNotFound, "item not found")}
	engine, notifier := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "a", ProductID: "p-a", UnitPrice: decimal.NewFromInt(10), Quantity: 1})
	before := engine.Store().Snapshot()

	err := engine.RemoveItem(context.Background(), "tok", "a")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if after := engine.Store().Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("rollback must restore state exactly")
	}
	if len(notifier.notices) != 1 || notifier.notices[0].Code != pkgerrors.CodeNotFound {
		t.Fatalf("expected one not-found notice, got %+v", notifier.notices)
	}
	assertTotalsConsistent(t, engine)
}

func TestUpdateQuantityTransportFailureRollsBackExactly(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{updateErr: errors.New("connection reset")}
	engine, notifier := newTestEngine(t, gw)
	seedCart(t, engine,
		LineItem{ItemID: "a", ProductID: "p-a", UnitPrice: decimal.NewFromInt(1000), Quantity: 2},
		LineItem{ItemID: "b", ProductID: "p-b", UnitPrice: decimal.NewFromInt(50), Quantity: 5},
	)
	before := engine.Store().Snapshot()

	err := engine.UpdateQuantity(context.Background(), "tok", "a", 3)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("untyped gateway errors must surface as dependency failures, got %v", err)
	}
	if after := engine.Store().Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("rollback must be deep-equal to the pre-state\nbefore %+v\nafter  %+v", before, after)
	}
	if len(notifier.notices) != 1 {
		t.Fatalf("expected exactly one notice, got %d", len(notifier.notices))
	}
	assertTotalsConsistent(t, engine)
}

func TestMutationsRequireToken(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, notifier := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "a", ProductID: "p-a", UnitPrice: decimal.NewFromInt(10), Quantity: 1})
	before := engine.Store().Snapshot()

	ctx := context.Background()
	if err := engine.AddItem(ctx, "", ProductDetails{ProductID: "p"}, 1); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("add without token must fail unauthorized, got %v", err)
	}
	if err := engine.UpdateQuantity(ctx, "", "a", 1); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("update without token must fail unauthorized, got %v", err)
	}
	if err := engine.RemoveItem(ctx, "", "a"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("remove without token must fail unauthorized, got %v", err)
	}

	if after := engine.Store().Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatal("precondition failures must not touch local state")
	}
	if len(gw.addCalls)+len(gw.updateCalls)+len(gw.removeCalls) != 0 {
		t.Fatal("precondition failures must not reach the gateway")
	}
	for _, notice := range notifier.notices {
		if !notice.RedirectToLogin {
			t.Fatalf("auth notices must request a login redirect: %+v", notice)
		}
	}
	if len(notifier.notices) != 3 {
		t.Fatalf("expected one notice per failed mutation, got %d", len(notifier.notices))
	}
}

func TestLoadCartWithoutTokenYieldsEmptyCart(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{fetchItems: []RawItem{{ItemID: "a"}}}
	engine, notifier := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "stale", Quantity: 1})

	if err := engine.LoadCart(context.Background(), ""); err != nil {
		t.Fatalf("missing token on load is not an error: %v", err)
	}
	items, _ := engine.State()
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
	if gw.fetchCalls != 0 {
		t.Fatal("no fetch expected without a token")
	}
	if len(notifier.notices) != 0 {
		t.Fatalf("no notice expected, got %+v", notifier.notices)
	}
}

func TestLoadCartReplacesStateWholesale(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{fetchItems: []RawItem{
		{ItemID: "entry-1", Quantity: intPtr(4), Product: &RawProduct{Name: "Pen", Price: "500"}},
	}}
	engine, _ := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "stale", UnitPrice: decimal.NewFromInt(1), Quantity: 9})

	if err := engine.LoadCart(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, totals := engine.State()
	if len(items) != 1 || items[0].Name != "Pen" {
		t.Fatalf("expected normalized fetched cart, got %+v", items)
	}
	if totals.ItemCount != 4 || !totals.Subtotal.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestLoadCartFetchFailureKeepsLocalState(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{fetchErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "token rejected")}
	engine, notifier := newTestEngine(t, gw)
	seedCart(t, engine, LineItem{ItemID: "a", UnitPrice: decimal.NewFromInt(10), Quantity: 1})
	before := engine.Store().Snapshot()

	err := engine.LoadCart(context.Background(), "tok")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if after := engine.Store().Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatal("failed load must leave local state untouched")
	}
	if len(notifier.notices) != 1 || !notifier.notices[0].RedirectToLogin {
		t.Fatalf("expected one redirect notice, got %+v", notifier.notices)
	}
}

func TestQuantityInvariantAcrossMutations(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, _ := newTestEngine(t, gw)
	ctx := context.Background()

	ops := []func() error{
		func() error {
			return engine.AddItem(ctx, "tok", ProductDetails{ProductID: "p-1", Name: "Pen", UnitPrice: decimal.NewFromInt(5)}, 2)
		},
		func() error {
			return engine.AddItem(ctx, "tok", ProductDetails{ProductID: "p-2", Name: "Pad", UnitPrice: decimal.NewFromInt(9)}, 1)
		},
		func() error {
			items, _ := engine.State()
			return engine.UpdateQuantity(ctx, "tok", items[0].ItemID, -10)
		},
		func() error {
			items, _ := engine.State()
			return engine.UpdateQuantity(ctx, "tok", items[1].ItemID, 4)
		},
		func() error {
			items, _ := engine.State()
			return engine.RemoveItem(ctx, "tok", items[0].ItemID)
		},
	}

	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}
		items, _ := engine.State()
		for _, item := range items {
			if item.Quantity < 1 {
				t.Fatalf("op %d: quantity invariant violated: %+v", i, item)
			}
		}
		assertTotalsConsistent(t, engine)
	}
}

func TestNewEngineRequiresGateway(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(EngineParams{}); err == nil {
		t.Fatal("expected error when gateway missing")
	}
}
