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

// ReturnLine is a quantity of a sold item brought back.
type ReturnLine struct {
	ItemID string  `json:"item_id"`
	Qty    float64 `json:"qty"`
}

// ReturnRequest returns goods of one sale.
type ReturnRequest struct {
	SaleID    string       `json:"sale_id"`
	Lines     []ReturnLine `json:"lines"`
	Notes     string       `json:"notes"`
	CreatedBy string       `json:"created_by"`
}

// ReturnDoc is a return with its lines.
type ReturnDoc struct {
	Return model.Return       `json:"return"`
	Lines  []model.ReturnItem `json:"lines"`
}

// CreateReturn puts returned goods back into stock at the price they were
// sold for. Returned quantities are capped by what the sale contained minus
// earlier returns.
func (s *Service) CreateReturn(ctx context.Context, req ReturnRequest) (ReturnDoc, error) {
	if len(req.Lines) == 0 {
		return ReturnDoc{}, ErrEmptyCart
	}
	sale, err := s.sales.Get(ctx, req.SaleID)
	if errors.Is(err, repo.ErrNotFound) {
		return ReturnDoc{}, ErrSaleNotFound
	}
	if err != nil {
		return ReturnDoc{}, err
	}

	returnable, err := s.returnableQty(ctx, sale.ID)
	if err != nil {
		return ReturnDoc{}, err
	}
	var total float64
	for _, l := range req.Lines {
		if l.Qty <= 0 {
			return ReturnDoc{}, fmt.Errorf("%w: item %s", ErrInvalidQuantity, l.ItemID)
		}
		q := returnable[l.ItemID]
		if l.Qty > q.qty {
			return ReturnDoc{}, fmt.Errorf("%w: item %s, %v returnable", ErrReturnExceedsSale, l.ItemID, q.qty)
		}
		q.qty -= l.Qty
		returnable[l.ItemID] = q
		total += roundMoney(l.Qty * q.price)
	}

	now := s.now()
	returnNo, err := s.nextDocumentNo(ctx, "returns", PrefixReturn, now)
	if err != nil {
		return ReturnDoc{}, err
	}

	ret, err := s.returns.Create(ctx, model.Return{
		ReturnNo:  returnNo,
		Date:      now.Format("2006-01-02"),
		SaleID:    sale.ID,
		Total:     roundMoney(total),
		Notes:     req.Notes,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return ReturnDoc{}, fmt.Errorf("create return: %w", err)
	}

	doc := ReturnDoc{Return: ret}
	for _, l := range req.Lines {
		price := returnable[l.ItemID].price
		line, err := s.returnItems.Create(ctx, model.ReturnItem{
			ReturnID: ret.ID,
			ItemID:   l.ItemID,
			Qty:      l.Qty,
			Price:    price,
			Subtotal: roundMoney(l.Qty * price),
		})
		if err != nil {
			return doc, fmt.Errorf("return %s: add line: %w", returnNo, err)
		}
		doc.Lines = append(doc.Lines, line)

		item, err := s.loadItem(ctx, l.ItemID)
		if err != nil {
			return doc, fmt.Errorf("return %s: %w", returnNo, err)
		}
		if _, err := s.moveStock(ctx, item, l.Qty, model.MoveReturn, ret.ID, "Retur "+returnNo); err != nil {
			return doc, fmt.Errorf("return %s: %w", returnNo, err)
		}
	}

	log.Info().Str("return", returnNo).Str("invoice", sale.InvoiceNo).Msg("return recorded")
	return doc, nil
}

type returnableLine struct {
	qty   float64
	price float64
}

// returnableQty is, per item, the quantity sold on saleID minus what earlier
// returns already took back, with the effective unit price.
func (s *Service) returnableQty(ctx context.Context, saleID string) (map[string]returnableLine, error) {
	sold, err := s.saleItems.List(ctx, store.SelectOptions{Where: store.Where{"sale_id": saleID}})
	if err != nil {
		return nil, fmt.Errorf("load sale lines: %w", err)
	}
	out := make(map[string]returnableLine, len(sold))
	for _, si := range sold {
		l := out[si.ItemID]
		l.qty += si.Qty
		if si.Qty > 0 {
			l.price = roundMoney(si.Subtotal / si.Qty)
		}
		out[si.ItemID] = l
	}

	earlier, err := s.returns.List(ctx, store.SelectOptions{Where: store.Where{"sale_id": saleID}})
	if err != nil {
		return nil, fmt.Errorf("load earlier returns: %w", err)
	}
	for _, r := range earlier {
		lines, err := s.returnItems.List(ctx, store.SelectOptions{Where: store.Where{"return_id": r.ID}})
		if err != nil {
			return nil, fmt.Errorf("load return lines: %w", err)
		}
		for _, ri := range lines {
			l := out[ri.ItemID]
			l.qty -= ri.Qty
			out[ri.ItemID] = l
		}
	}
	return out, nil
}
