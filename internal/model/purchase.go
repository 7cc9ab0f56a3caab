package model

import "time"

// Purchase statuses.
const (
	PurchaseDraft  = "draft"
	PurchasePosted = "posted"
)

// Purchase is a goods receipt from a supplier. Stock only moves once posted.
type Purchase struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	InvoiceNo  string    `gorm:"uniqueIndex;size:32;not null" json:"invoice_no"`
	Date       string    `gorm:"index;size:10;not null" json:"date"`
	SupplierID string    `gorm:"index;size:36" json:"supplier_id"`
	Total      float64   `gorm:"not null;default:0" json:"total"`
	Status     string    `gorm:"size:16;not null;default:draft" json:"status"`
	Notes      string    `json:"notes"`
	CreatedBy  string    `gorm:"size:36" json:"created_by"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// PurchaseItem is one line of a purchase.
type PurchaseItem struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	PurchaseID string    `gorm:"index;size:36;not null" json:"purchase_id"`
	ItemID     string    `gorm:"index;size:36;not null" json:"item_id"`
	Qty        float64   `gorm:"not null" json:"qty"`
	Price      float64   `gorm:"not null" json:"price"`
	Subtotal   float64   `gorm:"not null" json:"subtotal"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
