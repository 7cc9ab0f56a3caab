package pos

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"pos-backend/internal/model"
	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

// PurchaseLine is one item received from a supplier.
type PurchaseLine struct {
	ItemID string  `json:"item_id"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
}

// PurchaseRequest is a goods receipt. With Post set, stock is booked at once.
type PurchaseRequest struct {
	SupplierID string         `json:"supplier_id"`
	Lines      []PurchaseLine `json:"lines"`
	Notes      string         `json:"notes"`
	CreatedBy  string         `json:"created_by"`
	Post       bool           `json:"post"`
}

// PurchaseDoc is a purchase with its lines.
type PurchaseDoc struct {
	Purchase model.Purchase       `json:"purchase"`
	Lines    []model.PurchaseItem `json:"lines"`
}

// CreatePurchase stores a draft purchase and posts it when requested.
func (s *Service) CreatePurchase(ctx context.Context, req PurchaseRequest) (PurchaseDoc, error) {
	if len(req.Lines) == 0 {
		return PurchaseDoc{}, ErrEmptyCart
	}
	var total float64
	for _, l := range req.Lines {
		if l.Qty <= 0 {
			return PurchaseDoc{}, fmt.Errorf("%w: item %s", ErrInvalidQuantity, l.ItemID)
		}
		if _, err := s.loadItem(ctx, l.ItemID); err != nil {
			return PurchaseDoc{}, err
		}
		total += roundMoney(l.Qty * l.Price)
	}

	now := s.now()
	invoiceNo, err := s.nextDocumentNo(ctx, "purchases", PrefixPurchase, now)
	if err != nil {
		return PurchaseDoc{}, err
	}

	purchase, err := s.purchases.Create(ctx, model.Purchase{
		InvoiceNo:  invoiceNo,
		Date:       now.Format("2006-01-02"),
		SupplierID: req.SupplierID,
		Total:      roundMoney(total),
		Status:     model.PurchaseDraft,
		Notes:      req.Notes,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		return PurchaseDoc{}, fmt.Errorf("create purchase: %w", err)
	}

	doc := PurchaseDoc{Purchase: purchase}
	for _, l := range req.Lines {
		line, err := s.purchaseItems.Create(ctx, model.PurchaseItem{
			PurchaseID: purchase.ID,
			ItemID:     l.ItemID,
			Qty:        l.Qty,
			Price:      l.Price,
			Subtotal:   roundMoney(l.Qty * l.Price),
		})
		if err != nil {
			return doc, fmt.Errorf("purchase %s: add line: %w", invoiceNo, err)
		}
		doc.Lines = append(doc.Lines, line)
	}

	if req.Post {
		posted, err := s.PostPurchase(ctx, purchase.ID)
		if err != nil {
			return doc, err
		}
		doc.Purchase = posted
	}
	return doc, nil
}

// PostPurchase books the stock of a draft purchase and marks it posted.
func (s *Service) PostPurchase(ctx context.Context, id string) (model.Purchase, error) {
	purchase, err := s.purchases.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Purchase{}, ErrPurchaseNotFound
	}
	if err != nil {
		return model.Purchase{}, err
	}
	if purchase.Status == model.PurchasePosted {
		return purchase, ErrAlreadyPosted
	}

	lines, err := s.purchaseItems.List(ctx, store.SelectOptions{Where: store.Where{"purchase_id": id}})
	if err != nil {
		return purchase, fmt.Errorf("load purchase lines: %w", err)
	}
	for _, l := range lines {
		item, err := s.loadItem(ctx, l.ItemID)
		if errors.Is(err, ErrItemNotFound) {
			log.Warn().Str("purchase", purchase.InvoiceNo).Str("item_id", l.ItemID).Msg("item no longer exists, skipping line")
			continue
		}
		if err != nil {
			return purchase, err
		}
		if _, err := s.moveStock(ctx, item, l.Qty, model.MovePurchase, purchase.ID, "Pembelian "+purchase.InvoiceNo); err != nil {
			return purchase, fmt.Errorf("purchase %s: %w", purchase.InvoiceNo, err)
		}
	}

	posted, err := s.purchases.Update(ctx, id, store.Row{"status": model.PurchasePosted})
	if err != nil {
		return purchase, fmt.Errorf("mark purchase %s posted: %w", purchase.InvoiceNo, err)
	}
	log.Info().Str("purchase", purchase.InvoiceNo).Int("lines", len(lines)).Msg("purchase posted")
	return posted, nil
}
