// Package model declares the relational schema of the POS database.
package model

// All lists every model migrated into a fresh local database.
func All() []any {
	return []any{
		&User{}, &Profile{}, &UserRole{},
		&Category{}, &Supplier{}, &Item{},
		&Sale{}, &SaleItem{},
		&Purchase{}, &PurchaseItem{},
		&Return{}, &ReturnItem{},
		&StockMove{},
		&AppLicense{},
		&PushSubscription{},
	}
}
