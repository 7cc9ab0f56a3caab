package model

import "time"

// Return records goods brought back against a sale.
type Return struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ReturnNo  string    `gorm:"uniqueIndex;size:32;not null" json:"return_no"`
	Date      string    `gorm:"index;size:10;not null" json:"date"`
	SaleID    string    `gorm:"index;size:36" json:"sale_id"`
	Total     float64   `gorm:"not null;default:0" json:"total"`
	Notes     string    `json:"notes"`
	CreatedBy string    `gorm:"size:36" json:"created_by"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ReturnItem is one line of a return.
type ReturnItem struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ReturnID  string    `gorm:"index;size:36;not null" json:"return_id"`
	ItemID    string    `gorm:"index;size:36;not null" json:"item_id"`
	Qty       float64   `gorm:"not null" json:"qty"`
	Price     float64   `gorm:"not null" json:"price"`
	Subtotal  float64   `gorm:"not null" json:"subtotal"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
