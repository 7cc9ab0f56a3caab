package model

import "time"

// Sale is a completed checkout.
type Sale struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	InvoiceNo     string    `gorm:"uniqueIndex;size:32;not null" json:"invoice_no"`
	Date          string    `gorm:"index;size:10;not null" json:"date"`
	CustomerName  string    `gorm:"size:256" json:"customer_name"`
	PriceLevel    int       `gorm:"not null;default:1" json:"price_level"`
	Subtotal      float64   `gorm:"not null;default:0" json:"subtotal"`
	Discount      float64   `gorm:"not null;default:0" json:"discount"`
	Tax           float64   `gorm:"not null;default:0" json:"tax"`
	GrandTotal    float64   `gorm:"not null;default:0" json:"grand_total"`
	PaymentMethod string    `gorm:"size:32;not null;default:cash" json:"payment_method"`
	PaidAmount    float64   `gorm:"not null;default:0" json:"paid_amount"`
	ChangeAmount  float64   `gorm:"not null;default:0" json:"change_amount"`
	CashierID     string    `gorm:"index;size:36" json:"cashier_id"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	SaleID      string    `gorm:"index;size:36;not null" json:"sale_id"`
	ItemID      string    `gorm:"index;size:36;not null" json:"item_id"`
	Qty         float64   `gorm:"not null" json:"qty"`
	Price       float64   `gorm:"not null" json:"price"`
	DiscountPct float64   `gorm:"not null;default:0" json:"discount_pct"`
	Subtotal    float64   `gorm:"not null" json:"subtotal"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
