// Package pos implements the cashier workflows on top of the storage adapter.
// Multi-step writes run one after another without a transaction: a failing
// step stops the sequence and earlier steps stay committed.
package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-backend/internal/model"
	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidPriceLevel   = errors.New("price level must be 1, 2 or 3")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientPayment = errors.New("paid amount is less than the total")
	ErrItemInactive        = errors.New("item is not active")
	ErrItemNotFound        = errors.New("item not found")
	ErrAlreadyPosted       = errors.New("purchase is already posted")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrSaleNotFound        = errors.New("sale not found")
	ErrReturnExceedsSale   = errors.New("return quantity exceeds the quantity sold")
)

// LowStockNotifier is told about items whose stock fell to their minimum.
type LowStockNotifier interface {
	Dispatch(itemID string)
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for document dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLowStockNotifier sets the receiver of low-stock events.
func WithLowStockNotifier(n LowStockNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// Service runs checkout, purchase and return workflows.
type Service struct {
	store         store.Store
	items         *repo.Repository[model.Item]
	categories    *repo.Repository[model.Category]
	sales         *repo.Repository[model.Sale]
	saleItems     *repo.Repository[model.SaleItem]
	purchases     *repo.Repository[model.Purchase]
	purchaseItems *repo.Repository[model.PurchaseItem]
	returns       *repo.Repository[model.Return]
	returnItems   *repo.Repository[model.ReturnItem]
	moves         *repo.Repository[model.StockMove]
	notifier      LowStockNotifier
	now           func() time.Time
}

// NewService creates a Service over s.
func NewService(s store.Store, opts ...Option) *Service {
	svc := &Service{
		store:         s,
		items:         repo.New(s, repo.Items),
		categories:    repo.New(s, repo.Categories),
		sales:         repo.New(s, repo.Sales),
		saleItems:     repo.New(s, repo.SaleItems),
		purchases:     repo.New(s, repo.Purchases),
		purchaseItems: repo.New(s, repo.PurchaseItems),
		returns:       repo.New(s, repo.Returns),
		returnItems:   repo.New(s, repo.ReturnItems),
		moves:         repo.New(s, repo.StockMoves),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) loadItem(ctx context.Context, id string) (model.Item, error) {
	item, err := s.items.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, err
}

// moveStock adds delta to the stored stock in one statement and records the
// movement.
func (s *Service) moveStock(ctx context.Context, item model.Item, delta float64, moveType, refID, notes string) (model.Item, error) {
	updated, err := s.items.Update(ctx, item.ID, store.Row{
		"stock":      store.Increment{By: delta},
		"updated_at": s.now().UTC(),
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("update stock of %s: %w", item.Code, err)
	}
	if _, err := s.moves.Create(ctx, model.StockMove{
		ItemID:      item.ID,
		Qty:         delta,
		Type:        moveType,
		ReferenceID: refID,
		Notes:       notes,
	}); err != nil {
		return updated, fmt.Errorf("record stock move of %s: %w", item.Code, err)
	}
	return updated, nil
}
