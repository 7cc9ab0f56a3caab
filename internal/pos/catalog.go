package pos

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/itemcode"
	"pos-backend/internal/model"
	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

// ItemView is an item with the name of its category.
type ItemView struct {
	model.Item
	CategoryName string `json:"category_name"`
}

const itemsWithCategoriesSQL = `SELECT i.*, c.name AS category_name
FROM items i
LEFT JOIN categories c ON c.id = i.category_id
WHERE i.is_active = ?
ORDER BY i.name`

// ItemsWithCategories lists active items with their category names. The
// local backend joins in SQL; the remote backend only offers table reads, so
// the join happens here.
func (s *Service) ItemsWithCategories(ctx context.Context) ([]ItemView, error) {
	if s.store.Mode() == store.ModeLocal {
		rows, err := s.store.Query(ctx, itemsWithCategoriesSQL, true)
		if err != nil {
			return nil, err
		}
		out := make([]ItemView, len(rows))
		for i, row := range rows {
			out[i] = ItemView{Item: repo.Items.Decode(row), CategoryName: row.String("category_name")}
		}
		return out, nil
	}

	items, err := s.items.List(ctx, store.SelectOptions{Where: store.Where{"is_active": true}, OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx, store.SelectOptions{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	out := make([]ItemView, len(items))
	for i, item := range items {
		out[i] = ItemView{Item: item, CategoryName: names[item.CategoryID]}
	}
	return out, nil
}

// NextItemCode proposes the code for a new item in categoryID, following
// the highest code already using the category's prefix.
func (s *Service) NextItemCode(ctx context.Context, categoryID string) (string, error) {
	prefix := itemcode.DefaultPrefix
	if categoryID != "" {
		category, err := s.categories.Get(ctx, categoryID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return "", fmt.Errorf("load category: %w", err)
		}
		if err == nil {
			prefix = itemcode.Prefix(category.Name)
		}
	}

	items, err := s.items.List(ctx, store.SelectOptions{})
	if err != nil {
		return "", fmt.Errorf("load item codes: %w", err)
	}
	codes := make([]string, len(items))
	for i, item := range items {
		codes[i] = item.Code
	}
	return itemcode.Next(prefix, codes), nil
}

// LowStockItems lists active items at or below their minimum stock.
func (s *Service) LowStockItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.items.List(ctx, store.SelectOptions{Where: store.Where{"is_active": true}, OrderBy: "stock"})
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0)
	for _, item := range items {
		if item.Stock <= item.MinStock {
			out = append(out, item)
		}
	}
	return out, nil
}
