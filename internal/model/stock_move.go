package model

import "time"

// Stock move types. Qty is negative for sales and positive otherwise.
const (
	MoveSale       = "sale"
	MovePurchase   = "purchase"
	MoveReturn     = "return"
	MoveAdjustment = "adjustment"
)

// StockMove is the audit trail of every stock change.
type StockMove struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ItemID      string    `gorm:"index;size:36;not null" json:"item_id"`
	Qty         float64   `gorm:"not null" json:"qty"`
	Type        string    `gorm:"size:16;not null" json:"type"`
	ReferenceID string    `gorm:"index;size:36" json:"reference_id"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
