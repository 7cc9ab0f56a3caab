package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// idColumn is the primary key every table handled by the adapter carries.
const idColumn = "id"

// gormBackend implements the table operations both backends share.
type gormBackend struct {
	db *gorm.DB
}

func (b *gormBackend) Select(ctx context.Context, table string, opts SelectOptions) ([]Row, error) {
	if err := checkTable(table, opts.Where); err != nil {
		return nil, &Error{Op: "select", Table: table, Err: err}
	}
	if opts.OrderBy != "" && !validIdentifier(opts.OrderBy) {
		return nil, &Error{Op: "select", Table: table, Err: fmt.Errorf("%w: order by %q", ErrInvalidIdentifier, opts.OrderBy)}
	}

	tx := b.db.WithContext(ctx).Table(table)
	if len(opts.Where) > 0 {
		tx = tx.Where(map[string]any(opts.Where))
	}
	if opts.OrderBy != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: opts.OrderBy}, Desc: opts.Descending})
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}

	var found []map[string]any
	if err := tx.Find(&found).Error; err != nil {
		return nil, &Error{Op: "select", Table: table, Err: err}
	}
	return toRows(found), nil
}

func (b *gormBackend) SelectOne(ctx context.Context, table string, where Where) (Row, error) {
	rows, err := b.Select(ctx, table, SelectOptions{Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (b *gormBackend) Insert(ctx context.Context, table string, data Row) (Row, error) {
	if err := checkTable(table, data); err != nil {
		return nil, &Error{Op: "insert", Table: table, Err: err}
	}

	values := make(map[string]any, len(data)+1)
	for k, v := range data {
		values[k] = v
	}
	if id, ok := values[idColumn]; !ok || id == nil || id == "" {
		values[idColumn] = uuid.NewString()
	}

	if err := b.db.WithContext(ctx).Table(table).Create(values).Error; err != nil {
		return nil, &Error{Op: "insert", Table: table, Err: err}
	}

	row, err := b.SelectOne(ctx, table, Where{idColumn: values[idColumn]})
	if err != nil {
		return nil, err
	}
	if row == nil {
		// Nothing to read back, e.g. a view or a policy hiding the row.
		return Row(values), nil
	}
	return row, nil
}

func (b *gormBackend) Update(ctx context.Context, table string, data Row, where Where) ([]Row, error) {
	if err := checkTable(table, data, where); err != nil {
		return nil, &Error{Op: "update", Table: table, Err: err}
	}
	if len(where) == 0 {
		return nil, &Error{Op: "update", Table: table, Err: ErrMissingWhere}
	}
	if len(data) == 0 {
		return b.Select(ctx, table, SelectOptions{Where: where})
	}

	// The ids are collected first so the rows can be found again even when
	// the update rewrites a column used in where.
	var ids []string
	if err := b.db.WithContext(ctx).Table(table).Where(map[string]any(where)).Pluck(idColumn, &ids).Error; err != nil {
		return nil, &Error{Op: "update", Table: table, Err: err}
	}

	if err := b.db.WithContext(ctx).Table(table).Where(map[string]any(where)).Updates(assignments(data)).Error; err != nil {
		return nil, &Error{Op: "update", Table: table, Err: err}
	}

	if len(ids) == 0 {
		return []Row{}, nil
	}
	var found []map[string]any
	if err := b.db.WithContext(ctx).Table(table).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, &Error{Op: "update", Table: table, Err: err}
	}
	return toRows(found), nil
}

func (b *gormBackend) Delete(ctx context.Context, table string, where Where) error {
	if err := checkTable(table, where); err != nil {
		return &Error{Op: "delete", Table: table, Err: err}
	}
	if len(where) == 0 {
		return &Error{Op: "delete", Table: table, Err: ErrMissingWhere}
	}
	if err := b.db.WithContext(ctx).Table(table).Where(map[string]any(where)).Delete(map[string]any{}).Error; err != nil {
		return &Error{Op: "delete", Table: table, Err: err}
	}
	return nil
}

func assignments(data Row) map[string]any {
	values := make(map[string]any, len(data))
	for col, v := range data {
		if inc, ok := v.(Increment); ok {
			values[col] = gorm.Expr("? + ?", clause.Column{Name: col}, inc.By)
			continue
		}
		values[col] = v
	}
	return values
}

func toRows(found []map[string]any) []Row {
	rows := make([]Row, len(found))
	for i, m := range found {
		rows[i] = Row(m)
	}
	return rows
}
