package pos

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"pos-backend/internal/model"
)

// CartLine is one item in the cart. A zero DiscountPct uses the item's own
// discount.
type CartLine struct {
	ItemID      string  `json:"item_id"`
	Qty         float64 `json:"qty"`
	DiscountPct float64 `json:"discount_pct"`
}

// CheckoutRequest is a cart ready to be paid.
type CheckoutRequest struct {
	Lines         []CartLine `json:"lines"`
	PriceLevel    int        `json:"price_level"`
	Discount      float64    `json:"discount"`
	Tax           float64    `json:"tax"`
	PaymentMethod string     `json:"payment_method"`
	PaidAmount    float64    `json:"paid_amount"`
	CustomerName  string     `json:"customer_name"`
	CashierID     string     `json:"cashier_id"`
	Notes         string     `json:"notes"`
}

// Receipt is a completed sale with its lines.
type Receipt struct {
	Sale  model.Sale       `json:"sale"`
	Lines []model.SaleItem `json:"lines"`
	// LowStock lists the items that reached their minimum stock.
	LowStock []string `json:"low_stock,omitempty"`
}

type pricedLine struct {
	item        model.Item
	qty         float64
	price       float64
	discountPct float64
	subtotal    float64
}

// Checkout validates the cart, then writes the sale, its lines, the stock
// decrements and the stock moves in that order.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (Receipt, error) {
	if len(req.Lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	level := req.PriceLevel
	if level == 0 {
		level = 1
	}
	if level < 1 || level > 3 {
		return Receipt{}, ErrInvalidPriceLevel
	}

	lines, subtotal, err := s.priceCart(ctx, req.Lines, level)
	if err != nil {
		return Receipt{}, err
	}

	grandTotal := roundMoney(subtotal - req.Discount + req.Tax)
	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}
	if req.PaidAmount < grandTotal {
		return Receipt{}, fmt.Errorf("%w: paid %.2f of %.2f", ErrInsufficientPayment, req.PaidAmount, grandTotal)
	}

	now := s.now()
	invoiceNo, err := s.nextDocumentNo(ctx, "sales", PrefixInvoice, now)
	if err != nil {
		return Receipt{}, err
	}

	sale, err := s.sales.Create(ctx, model.Sale{
		InvoiceNo:     invoiceNo,
		Date:          now.Format("2006-01-02"),
		CustomerName:  req.CustomerName,
		PriceLevel:    level,
		Subtotal:      subtotal,
		Discount:      req.Discount,
		Tax:           req.Tax,
		GrandTotal:    grandTotal,
		PaymentMethod: method,
		PaidAmount:    req.PaidAmount,
		ChangeAmount:  roundMoney(req.PaidAmount - grandTotal),
		CashierID:     req.CashierID,
		Notes:         req.Notes,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("create sale: %w", err)
	}

	receipt := Receipt{Sale: sale}
	for _, l := range lines {
		saleItem, err := s.saleItems.Create(ctx, model.SaleItem{
			SaleID:      sale.ID,
			ItemID:      l.item.ID,
			Qty:         l.qty,
			Price:       l.price,
			DiscountPct: l.discountPct,
			Subtotal:    l.subtotal,
		})
		if err != nil {
			return receipt, fmt.Errorf("sale %s: add line %s: %w", invoiceNo, l.item.Code, err)
		}
		receipt.Lines = append(receipt.Lines, saleItem)

		updated, err := s.moveStock(ctx, l.item, -l.qty, model.MoveSale, sale.ID, "Penjualan "+invoiceNo)
		if err != nil {
			return receipt, fmt.Errorf("sale %s: %w", invoiceNo, err)
		}
		if updated.Stock <= updated.MinStock {
			receipt.LowStock = append(receipt.LowStock, updated.ID)
			if s.notifier != nil {
				s.notifier.Dispatch(updated.ID)
			}
		}
	}

	log.Info().Str("invoice", invoiceNo).Int("lines", len(lines)).Float64("total", grandTotal).Msg("checkout completed")
	return receipt, nil
}

// priceCart loads every item, checks it can be sold and prices the line.
// Lines for the same item are checked against its stock together.
func (s *Service) priceCart(ctx context.Context, cart []CartLine, level int) ([]pricedLine, float64, error) {
	requested := make(map[string]float64, len(cart))
	lines := make([]pricedLine, 0, len(cart))
	var subtotal float64

	for _, c := range cart {
		if c.Qty <= 0 {
			return nil, 0, fmt.Errorf("%w: item %s", ErrInvalidQuantity, c.ItemID)
		}
		item, err := s.loadItem(ctx, c.ItemID)
		if err != nil {
			return nil, 0, err
		}
		if !item.IsActive {
			return nil, 0, fmt.Errorf("%w: %s", ErrItemInactive, item.Name)
		}
		requested[item.ID] += c.Qty
		if requested[item.ID] > item.Stock {
			return nil, 0, fmt.Errorf("%w: %s has %v left", ErrInsufficientStock, item.Name, item.Stock)
		}

		discount := c.DiscountPct
		if discount == 0 {
			discount = item.DiscountPct
		}
		price := item.PriceFor(level)
		lineTotal := roundMoney(price * c.Qty * (1 - discount/100))
		subtotal += lineTotal
		lines = append(lines, pricedLine{item: item, qty: c.Qty, price: price, discountPct: discount, subtotal: lineTotal})
	}

	// Later lines of an item must see the stock left by earlier ones.
	remaining := make(map[string]float64, len(requested))
	for i := range lines {
		id := lines[i].item.ID
		if _, ok := remaining[id]; !ok {
			remaining[id] = lines[i].item.Stock
		}
		lines[i].item.Stock = remaining[id]
		remaining[id] -= lines[i].qty
	}
	return lines, roundMoney(subtotal), nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
