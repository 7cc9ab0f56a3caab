package model

import "time"

// Category groups items and drives their code prefix.
type Category struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Supplier is a vendor that purchases are made from.
type Supplier struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Phone     string    `gorm:"size:64" json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Item is a sellable product with three price levels.
type Item struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Code         string    `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Barcode      string    `gorm:"index;size:64" json:"barcode"`
	Name         string    `gorm:"size:256;not null" json:"name"`
	CategoryID   string    `gorm:"index;size:36" json:"category_id"`
	Unit         string    `gorm:"size:16;not null;default:pcs" json:"unit"`
	BuyPrice     float64   `gorm:"not null;default:0" json:"buy_price"`
	SellPrice    float64   `gorm:"not null;default:0" json:"sell_price"`
	SellPriceLv2 float64   `gorm:"column:sell_price_lv2;not null;default:0" json:"sell_price_lv2"`
	SellPriceLv3 float64   `gorm:"column:sell_price_lv3;not null;default:0" json:"sell_price_lv3"`
	DiscountPct  float64   `gorm:"not null;default:0" json:"discount_pct"`
	Stock        float64   `gorm:"not null;default:0" json:"stock"`
	MinStock     float64   `gorm:"not null;default:0" json:"min_stock"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// PriceFor returns the unit price at level 1, 2 or 3. Unset higher levels
// fall back to the base price.
func (i Item) PriceFor(level int) float64 {
	switch level {
	case 2:
		if i.SellPriceLv2 > 0 {
			return i.SellPriceLv2
		}
	case 3:
		if i.SellPriceLv3 > 0 {
			return i.SellPriceLv3
		}
	}
	return i.SellPrice
}
