package pos

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pos-backend/internal/db"
	"pos-backend/internal/model"
	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.OpenLocal("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingNotifier) Dispatch(itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, itemID)
}

type fixture struct {
	svc      *Service
	store    store.Store
	notifier *recordingNotifier
	drink    model.Item
	snack    model.Item
	category model.Category
}

func newFixture(t *testing.T, s store.Store) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: s, notifier: &recordingNotifier{}}
	f.svc = NewService(s, WithClock(func() time.Time { return testNow }), WithLowStockNotifier(f.notifier))

	var err error
	f.category, err = repo.New(s, repo.Categories).Create(ctx, model.Category{Name: "Minuman"})
	require.NoError(t, err)

	items := repo.New(s, repo.Items)
	f.drink, err = items.Create(ctx, model.Item{
		Code: "MNM-0001", Name: "Teh Botol", CategoryID: f.category.ID, Unit: "btl",
		SellPrice: 5000, SellPriceLv2: 4800, Stock: 10, MinStock: 3, IsActive: true,
	})
	require.NoError(t, err)
	f.snack, err = items.Create(ctx, model.Item{
		Code: "ITM-0007", Name: "Keripik", Unit: "pcs",
		SellPrice: 12000, DiscountPct: 10, Stock: 4, MinStock: 1, IsActive: true,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) stock(t *testing.T, id string) float64 {
	t.Helper()
	item, err := repo.New(f.store, repo.Items).Get(context.Background(), id)
	require.NoError(t, err)
	return item.Stock
}

func TestCheckout_WritesSaleLinesAndMoves(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))
	ctx := context.Background()

	receipt, err := f.svc.Checkout(ctx, CheckoutRequest{
		Lines: []CartLine{
			{ItemID: f.drink.ID, Qty: 2},
			{ItemID: f.snack.ID, Qty: 1},
		},
		PriceLevel: 2,
		Tax:        800,
		PaidAmount: 50000,
		CashierID:  "cashier-1",
	})
	require.NoError(t, err)

	sale := receipt.Sale
	assert.Equal(t, "INV-20250310-0001", sale.InvoiceNo)
	assert.Equal(t, "2025-03-10", sale.Date)
	assert.Equal(t, "cash", sale.PaymentMethod)
	// 2 x 4800 at level 2, plus 12000 less the item's 10% discount.
	assert.Equal(t, 20400.0, sale.Subtotal)
	assert.Equal(t, 21200.0, sale.GrandTotal)
	assert.Equal(t, 28800.0, sale.ChangeAmount)
	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, 9600.0, receipt.Lines[0].Subtotal)
	assert.Equal(t, 10.0, receipt.Lines[1].DiscountPct)

	assert.Equal(t, 8.0, f.stock(t, f.drink.ID))
	assert.Equal(t, 3.0, f.stock(t, f.snack.ID))

	moves, err := repo.New(f.store, repo.StockMoves).List(ctx, store.SelectOptions{Where: store.Where{"reference_id": sale.ID}})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	for _, m := range moves {
		assert.Equal(t, model.MoveSale, m.Type)
		assert.Equal(t, "Penjualan INV-20250310-0001", m.Notes)
		assert.Less(t, m.Qty, 0.0)
	}
	assert.Empty(t, receipt.LowStock)
	assert.Empty(t, f.notifier.ids)
}

func TestCheckout_NumbersFollowSameDayCount(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))
	ctx := context.Background()
	req := CheckoutRequest{Lines: []CartLine{{ItemID: f.drink.ID, Qty: 1}}, PaidAmount: 5000}

	first, err := f.svc.Checkout(ctx, req)
	require.NoError(t, err)
	second, err := f.svc.Checkout(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "INV-20250310-0001", first.Sale.InvoiceNo)
	assert.Equal(t, "INV-20250310-0002", second.Sale.InvoiceNo)
}

func TestCheckout_LowStockNotifies(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))

	receipt, err := f.svc.Checkout(context.Background(), CheckoutRequest{
		Lines:      []CartLine{{ItemID: f.drink.ID, Qty: 7}},
		PaidAmount: 35000,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{f.drink.ID}, receipt.LowStock)
	assert.Equal(t, []string{f.drink.ID}, f.notifier.ids)
}

func TestCheckout_Rejections(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))
	ctx := context.Background()

	inactive, err := repo.New(f.store, repo.Items).Create(ctx, model.Item{Code: "MNM-0002", Name: "Kopi", SellPrice: 3000, Stock: 5})
	require.NoError(t, err)
	require.False(t, inactive.IsActive)

	testCases := []struct {
		name     string
		req      CheckoutRequest
		expected error
	}{
		{name: "empty cart", req: CheckoutRequest{}, expected: ErrEmptyCart},
		{name: "bad level", req: CheckoutRequest{Lines: []CartLine{{ItemID: f.drink.ID, Qty: 1}}, PriceLevel: 4}, expected: ErrInvalidPriceLevel},
		{name: "zero qty", req: CheckoutRequest{Lines: []CartLine{{ItemID: f.drink.ID, Qty: 0}}}, expected: ErrInvalidQuantity},
		{name: "unknown item", req: CheckoutRequest{Lines: []CartLine{{ItemID: "missing", Qty: 1}}}, expected: ErrItemNotFound},
		{name: "inactive item", req: CheckoutRequest{Lines: []CartLine{{ItemID: inactive.ID, Qty: 1}}, PaidAmount: 3000}, expected: ErrItemInactive},
		{name: "too many", req: CheckoutRequest{Lines: []CartLine{{ItemID: f.snack.ID, Qty: 5}}, PaidAmount: 100000}, expected: ErrInsufficientStock},
		{
			name:     "split lines exceed stock",
			req:      CheckoutRequest{Lines: []CartLine{{ItemID: f.snack.ID, Qty: 3}, {ItemID: f.snack.ID, Qty: 2}}, PaidAmount: 100000},
			expected: ErrInsufficientStock,
		},
		{name: "underpaid", req: CheckoutRequest{Lines: []CartLine{{ItemID: f.drink.ID, Qty: 2}}, PaidAmount: 9999}, expected: ErrInsufficientPayment},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Checkout(ctx, tc.req)
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	sales, err := repo.New(f.store, repo.Sales).Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, sales)
	assert.Equal(t, 10.0, f.stock(t, f.drink.ID))
}

func TestCheckout_RepeatedItemSeesRemainingStock(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))

	_, err := f.svc.Checkout(context.Background(), CheckoutRequest{
		Lines:      []CartLine{{ItemID: f.snack.ID, Qty: 1}, {ItemID: f.snack.ID, Qty: 2}},
		PaidAmount: 100000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, f.stock(t, f.snack.ID))
}

func TestMoveStock_AppliesToStoredValue(t *testing.T) {
	for name, s := range map[string]store.Store{
		"local":  store.NewLocalStore(openTestDB(t)),
		"remote": store.NewRemoteStore(openTestDB(t)),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, s)
			ctx := context.Background()

			// Both writers start from the same read of the item.
			stale := f.drink
			_, err := f.svc.moveStock(ctx, stale, -2, model.MoveSale, "sale-1", "Penjualan INV-1")
			require.NoError(t, err)
			updated, err := f.svc.moveStock(ctx, stale, -3, model.MoveSale, "sale-2", "Penjualan INV-2")
			require.NoError(t, err)

			assert.Equal(t, 5.0, updated.Stock)
			assert.Equal(t, 5.0, f.stock(t, f.drink.ID))
		})
	}
}

func TestPurchase_DraftThenPost(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))
	ctx := context.Background()

	doc, err := f.svc.CreatePurchase(ctx, PurchaseRequest{
		SupplierID: "sup-1",
		Lines: []PurchaseLine{
			{ItemID: f.drink.ID, Qty: 24, Price: 3500},
			{ItemID: f.snack.ID, Qty: 6, Price: 9000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "PO-20250310-0001", doc.Purchase.InvoiceNo)
	assert.Equal(t, model.PurchaseDraft, doc.Purchase.Status)
	assert.Equal(t, 138000.0, doc.Purchase.Total)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, 10.0, f.stock(t, f.drink.ID))

	posted, err := f.svc.PostPurchase(ctx, doc.Purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchasePosted, posted.Status)
	assert.Equal(t, 34.0, f.stock(t, f.drink.ID))
	assert.Equal(t, 10.0, f.stock(t, f.snack.ID))

	moves, err := repo.New(f.store, repo.StockMoves).List(ctx, store.SelectOptions{Where: store.Where{"type": model.MovePurchase}})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "Pembelian PO-20250310-0001", moves[0].Notes)

	_, err = f.svc.PostPurchase(ctx, doc.Purchase.ID)
	assert.ErrorIs(t, err, ErrAlreadyPosted)
	assert.Equal(t, 34.0, f.stock(t, f.drink.ID))
}

func TestPurchase_PostImmediately(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))

	doc, err := f.svc.CreatePurchase(context.Background(), PurchaseRequest{
		Lines: []PurchaseLine{{ItemID: f.snack.ID, Qty: 2, Price: 9000}},
		Post:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PurchasePosted, doc.Purchase.Status)
	assert.Equal(t, 6.0, f.stock(t, f.snack.ID))
}

func TestPurchase_Errors(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))
	ctx := context.Background()

	_, err := f.svc.CreatePurchase(ctx, PurchaseRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.CreatePurchase(ctx, PurchaseRequest{Lines: []PurchaseLine{{ItemID: f.drink.ID, Qty: -1}}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.PostPurchase(ctx, "missing")
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestReturn_RestocksAtSoldPrice(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))
	ctx := context.Background()

	receipt, err := f.svc.Checkout(ctx, CheckoutRequest{
		Lines:      []CartLine{{ItemID: f.snack.ID, Qty: 3}},
		PaidAmount: 50000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, f.stock(t, f.snack.ID))

	doc, err := f.svc.CreateReturn(ctx, ReturnRequest{
		SaleID: receipt.Sale.ID,
		Lines:  []ReturnLine{{ItemID: f.snack.ID, Qty: 2}},
		Notes:  "kemasan rusak",
	})
	require.NoError(t, err)
	assert.Equal(t, "RET-20250310-0001", doc.Return.ReturnNo)
	assert.Equal(t, 21600.0, doc.Return.Total)
	assert.Equal(t, 3.0, f.stock(t, f.snack.ID))

	moves, err := repo.New(f.store, repo.StockMoves).List(ctx, store.SelectOptions{Where: store.Where{"reference_id": doc.Return.ID}})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, model.MoveReturn, moves[0].Type)
	assert.Equal(t, 2.0, moves[0].Qty)

	_, err = f.svc.CreateReturn(ctx, ReturnRequest{
		SaleID: receipt.Sale.ID,
		Lines:  []ReturnLine{{ItemID: f.snack.ID, Qty: 2}},
	})
	assert.ErrorIs(t, err, ErrReturnExceedsSale)

	_, err = f.svc.CreateReturn(ctx, ReturnRequest{
		SaleID: receipt.Sale.ID,
		Lines:  []ReturnLine{{ItemID: f.drink.ID, Qty: 1}},
	})
	assert.ErrorIs(t, err, ErrReturnExceedsSale)

	_, err = f.svc.CreateReturn(ctx, ReturnRequest{SaleID: "missing", Lines: []ReturnLine{{ItemID: f.snack.ID, Qty: 1}}})
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestItemsWithCategories_BothModes(t *testing.T) {
	gormDB := openTestDB(t)
	backends := map[string]store.Store{
		"local":  store.NewLocalStore(gormDB),
		"remote": store.NewRemoteStore(gormDB),
	}
	f := newFixture(t, backends["local"])
	_, err := repo.New(f.store, repo.Items).Create(context.Background(), model.Item{Code: "MNM-0003", Name: "Arsip", Stock: 1})
	require.NoError(t, err)

	for name, s := range backends {
		t.Run(name, func(t *testing.T) {
			views, err := NewService(s).ItemsWithCategories(context.Background())
			require.NoError(t, err)

			byCode := make(map[string]ItemView, len(views))
			for _, v := range views {
				byCode[v.Code] = v
			}
			require.Contains(t, byCode, "MNM-0001")
			assert.Equal(t, "Minuman", byCode["MNM-0001"].CategoryName)
			assert.Equal(t, 5000.0, byCode["MNM-0001"].SellPrice)
			require.Contains(t, byCode, "ITM-0007")
			assert.Empty(t, byCode["ITM-0007"].CategoryName)
			assert.NotContains(t, byCode, "MNM-0003")
		})
	}
}

func TestNextItemCode(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))
	ctx := context.Background()

	_, err := repo.New(f.store, repo.Items).Create(ctx, model.Item{Code: "MNM-0004", Name: "Susu Kotak", CategoryID: f.category.ID})
	require.NoError(t, err)

	code, err := f.svc.NextItemCode(ctx, f.category.ID)
	require.NoError(t, err)
	assert.Equal(t, "MNM-0005", code)

	code, err = f.svc.NextItemCode(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "ITM-0008", code)

	code, err = f.svc.NextItemCode(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "ITM-0008", code)
}

func TestLowStockItems(t *testing.T) {
	f := newFixture(t, store.NewLocalStore(openTestDB(t)))
	ctx := context.Background()

	_, err := repo.New(f.store, repo.Items).Update(ctx, f.snack.ID, store.Row{"stock": 1})
	require.NoError(t, err)

	items, err := f.svc.LowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, f.snack.ID, items[0].ID)
}
