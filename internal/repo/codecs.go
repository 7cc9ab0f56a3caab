package repo

import (
	"pos-backend/internal/model"
	"pos-backend/internal/store"
)

// withID adds the id column when the entity already has one.
func withID(row store.Row, id string) store.Row {
	if id != "" {
		row["id"] = id
	}
	return row
}

var Users = NewCodec("users",
	func(u model.User) store.Row {
		return withID(store.Row{"email": u.Email, "password_hash": u.PasswordHash}, u.ID)
	},
	func(r store.Row) model.User {
		return model.User{
			ID:           r.String("id"),
			Email:        r.String("email"),
			PasswordHash: r.String("password_hash"),
			CreatedAt:    r.Time("created_at"),
		}
	},
)

var Profiles = NewCodec("profiles",
	func(p model.Profile) store.Row {
		return withID(store.Row{"username": p.Username, "full_name": p.FullName}, p.ID)
	},
	func(r store.Row) model.Profile {
		return model.Profile{
			ID:        r.String("id"),
			Username:  r.String("username"),
			FullName:  r.String("full_name"),
			CreatedAt: r.Time("created_at"),
			UpdatedAt: r.Time("updated_at"),
		}
	},
)

var UserRoles = NewCodec("user_roles",
	func(u model.UserRole) store.Row {
		return withID(store.Row{"user_id": u.UserID, "role": u.Role}, u.ID)
	},
	func(r store.Row) model.UserRole {
		return model.UserRole{
			ID:        r.String("id"),
			UserID:    r.String("user_id"),
			Role:      r.String("role"),
			CreatedAt: r.Time("created_at"),
		}
	},
)

var Categories = NewCodec("categories",
	func(c model.Category) store.Row {
		return withID(store.Row{"name": c.Name, "description": c.Description}, c.ID)
	},
	func(r store.Row) model.Category {
		return model.Category{
			ID:          r.String("id"),
			Name:        r.String("name"),
			Description: r.String("description"),
			CreatedAt:   r.Time("created_at"),
		}
	},
)

var Suppliers = NewCodec("suppliers",
	func(s model.Supplier) store.Row {
		return withID(store.Row{"name": s.Name, "phone": s.Phone, "address": s.Address}, s.ID)
	},
	func(r store.Row) model.Supplier {
		return model.Supplier{
			ID:        r.String("id"),
			Name:      r.String("name"),
			Phone:     r.String("phone"),
			Address:   r.String("address"),
			CreatedAt: r.Time("created_at"),
		}
	},
)

var Items = NewCodec("items",
	func(i model.Item) store.Row {
		return withID(store.Row{
			"code":           i.Code,
			"barcode":        i.Barcode,
			"name":           i.Name,
			"category_id":    i.CategoryID,
			"unit":           i.Unit,
			"buy_price":      i.BuyPrice,
			"sell_price":     i.SellPrice,
			"sell_price_lv2": i.SellPriceLv2,
			"sell_price_lv3": i.SellPriceLv3,
			"discount_pct":   i.DiscountPct,
			"stock":          i.Stock,
			"min_stock":      i.MinStock,
			"is_active":      i.IsActive,
		}, i.ID)
	},
	func(r store.Row) model.Item {
		return model.Item{
			ID:           r.String("id"),
			Code:         r.String("code"),
			Barcode:      r.String("barcode"),
			Name:         r.String("name"),
			CategoryID:   r.String("category_id"),
			Unit:         r.String("unit"),
			BuyPrice:     r.Float("buy_price"),
			SellPrice:    r.Float("sell_price"),
			SellPriceLv2: r.Float("sell_price_lv2"),
			SellPriceLv3: r.Float("sell_price_lv3"),
			DiscountPct:  r.Float("discount_pct"),
			Stock:        r.Float("stock"),
			MinStock:     r.Float("min_stock"),
			IsActive:     r.Bool("is_active"),
			CreatedAt:    r.Time("created_at"),
			UpdatedAt:    r.Time("updated_at"),
		}
	},
)

var Sales = NewCodec("sales",
	func(s model.Sale) store.Row {
		return withID(store.Row{
			"invoice_no":     s.InvoiceNo,
			"date":           s.Date,
			"customer_name":  s.CustomerName,
			"price_level":    s.PriceLevel,
			"subtotal":       s.Subtotal,
			"discount":       s.Discount,
			"tax":            s.Tax,
			"grand_total":    s.GrandTotal,
			"payment_method": s.PaymentMethod,
			"paid_amount":    s.PaidAmount,
			"change_amount":  s.ChangeAmount,
			"cashier_id":     s.CashierID,
			"notes":          s.Notes,
		}, s.ID)
	},
	func(r store.Row) model.Sale {
		return model.Sale{
			ID:            r.String("id"),
			InvoiceNo:     r.String("invoice_no"),
			Date:          r.String("date"),
			CustomerName:  r.String("customer_name"),
			PriceLevel:    int(r.Int("price_level")),
			Subtotal:      r.Float("subtotal"),
			Discount:      r.Float("discount"),
			Tax:           r.Float("tax"),
			GrandTotal:    r.Float("grand_total"),
			PaymentMethod: r.String("payment_method"),
			PaidAmount:    r.Float("paid_amount"),
			ChangeAmount:  r.Float("change_amount"),
			CashierID:     r.String("cashier_id"),
			Notes:         r.String("notes"),
			CreatedAt:     r.Time("created_at"),
		}
	},
)

var SaleItems = NewCodec("sale_items",
	func(s model.SaleItem) store.Row {
		return withID(store.Row{
			"sale_id":      s.SaleID,
			"item_id":      s.ItemID,
			"qty":          s.Qty,
			"price":        s.Price,
			"discount_pct": s.DiscountPct,
			"subtotal":     s.Subtotal,
		}, s.ID)
	},
	func(r store.Row) model.SaleItem {
		return model.SaleItem{
			ID:          r.String("id"),
			SaleID:      r.String("sale_id"),
			ItemID:      r.String("item_id"),
			Qty:         r.Float("qty"),
			Price:       r.Float("price"),
			DiscountPct: r.Float("discount_pct"),
			Subtotal:    r.Float("subtotal"),
			CreatedAt:   r.Time("created_at"),
		}
	},
)

var Purchases = NewCodec("purchases",
	func(p model.Purchase) store.Row {
		return withID(store.Row{
			"invoice_no":  p.InvoiceNo,
			"date":        p.Date,
			"supplier_id": p.SupplierID,
			"total":       p.Total,
			"status":      p.Status,
			"notes":       p.Notes,
			"created_by":  p.CreatedBy,
		}, p.ID)
	},
	func(r store.Row) model.Purchase {
		return model.Purchase{
			ID:         r.String("id"),
			InvoiceNo:  r.String("invoice_no"),
			Date:       r.String("date"),
			SupplierID: r.String("supplier_id"),
			Total:      r.Float("total"),
			Status:     r.String("status"),
			Notes:      r.String("notes"),
			CreatedBy:  r.String("created_by"),
			CreatedAt:  r.Time("created_at"),
		}
	},
)

var PurchaseItems = NewCodec("purchase_items",
	func(p model.PurchaseItem) store.Row {
		return withID(store.Row{
			"purchase_id": p.PurchaseID,
			"item_id":     p.ItemID,
			"qty":         p.Qty,
			"price":       p.Price,
			"subtotal":    p.Subtotal,
		}, p.ID)
	},
	func(r store.Row) model.PurchaseItem {
		return model.PurchaseItem{
			ID:         r.String("id"),
			PurchaseID: r.String("purchase_id"),
			ItemID:     r.String("item_id"),
			Qty:        r.Float("qty"),
			Price:      r.Float("price"),
			Subtotal:   r.Float("subtotal"),
			CreatedAt:  r.Time("created_at"),
		}
	},
)

var Returns = NewCodec("returns",
	func(rt model.Return) store.Row {
		return withID(store.Row{
			"return_no":  rt.ReturnNo,
			"date":       rt.Date,
			"sale_id":    rt.SaleID,
			"total":      rt.Total,
			"notes":      rt.Notes,
			"created_by": rt.CreatedBy,
		}, rt.ID)
	},
	func(r store.Row) model.Return {
		return model.Return{
			ID:        r.String("id"),
			ReturnNo:  r.String("return_no"),
			Date:      r.String("date"),
			SaleID:    r.String("sale_id"),
			Total:     r.Float("total"),
			Notes:     r.String("notes"),
			CreatedBy: r.String("created_by"),
			CreatedAt: r.Time("created_at"),
		}
	},
)

var ReturnItems = NewCodec("return_items",
	func(ri model.ReturnItem) store.Row {
		return withID(store.Row{
			"return_id": ri.ReturnID,
			"item_id":   ri.ItemID,
			"qty":       ri.Qty,
			"price":     ri.Price,
			"subtotal":  ri.Subtotal,
		}, ri.ID)
	},
	func(r store.Row) model.ReturnItem {
		return model.ReturnItem{
			ID:        r.String("id"),
			ReturnID:  r.String("return_id"),
			ItemID:    r.String("item_id"),
			Qty:       r.Float("qty"),
			Price:     r.Float("price"),
			Subtotal:  r.Float("subtotal"),
			CreatedAt: r.Time("created_at"),
		}
	},
)

var StockMoves = NewCodec("stock_moves",
	func(m model.StockMove) store.Row {
		return withID(store.Row{
			"item_id":      m.ItemID,
			"qty":          m.Qty,
			"type":         m.Type,
			"reference_id": m.ReferenceID,
			"notes":        m.Notes,
		}, m.ID)
	},
	func(r store.Row) model.StockMove {
		return model.StockMove{
			ID:          r.String("id"),
			ItemID:      r.String("item_id"),
			Qty:         r.Float("qty"),
			Type:        r.String("type"),
			ReferenceID: r.String("reference_id"),
			Notes:       r.String("notes"),
			CreatedAt:   r.Time("created_at"),
		}
	},
)

var PushSubscriptions = NewCodec("push_subscriptions",
	func(p model.PushSubscription) store.Row {
		return withID(store.Row{
			"endpoint": p.Endpoint,
			"p256dh":   p.P256DH,
			"auth":     p.Auth,
			"user_id":  p.UserID,
		}, p.ID)
	},
	func(r store.Row) model.PushSubscription {
		return model.PushSubscription{
			ID:        r.String("id"),
			Endpoint:  r.String("endpoint"),
			P256DH:    r.String("p256dh"),
			Auth:      r.String("auth"),
			UserID:    r.String("user_id"),
			CreatedAt: r.Time("created_at"),
		}
	},
)
