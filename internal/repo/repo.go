// Package repo layers typed entities over the storage adapter.
package repo

import (
	"context"
	"errors"

	"pos-backend/internal/store"
)

// ErrNotFound is returned when a lookup by id or filter matches nothing.
var ErrNotFound = errors.New("record not found")

// Codec maps an entity to and from a storage row.
type Codec[T any] interface {
	Table() string
	Encode(v T) store.Row
	Decode(r store.Row) T
}

type funcCodec[T any] struct {
	table  string
	encode func(T) store.Row
	decode func(store.Row) T
}

func (c funcCodec[T]) Table() string        { return c.table }
func (c funcCodec[T]) Encode(v T) store.Row { return c.encode(v) }
func (c funcCodec[T]) Decode(r store.Row) T { return c.decode(r) }

// NewCodec builds a Codec from a table name and a pair of mapping functions.
func NewCodec[T any](table string, encode func(T) store.Row, decode func(store.Row) T) Codec[T] {
	return funcCodec[T]{table: table, encode: encode, decode: decode}
}

// Repository is a typed view of one table.
type Repository[T any] struct {
	store store.Store
	codec Codec[T]
}

// New creates a Repository for codec's table.
func New[T any](s store.Store, codec Codec[T]) *Repository[T] {
	return &Repository[T]{store: s, codec: codec}
}

// Table returns the table the repository reads and writes.
func (r *Repository[T]) Table() string {
	return r.codec.Table()
}

// List returns every entity matching opts.
func (r *Repository[T]) List(ctx context.Context, opts store.SelectOptions) ([]T, error) {
	rows, err := r.store.Select(ctx, r.codec.Table(), opts)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(rows), nil
}

// FindOne returns the first entity matching where, or ErrNotFound.
func (r *Repository[T]) FindOne(ctx context.Context, where store.Where) (T, error) {
	var zero T
	row, err := r.store.SelectOne(ctx, r.codec.Table(), where)
	if err != nil {
		return zero, err
	}
	if row == nil {
		return zero, ErrNotFound
	}
	return r.codec.Decode(row), nil
}

// Get returns the entity with the given id, or ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	return r.FindOne(ctx, store.Where{"id": id})
}

// Count returns how many rows match where.
func (r *Repository[T]) Count(ctx context.Context, where store.Where) (int, error) {
	rows, err := r.store.Select(ctx, r.codec.Table(), store.SelectOptions{Where: where})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Create inserts v and returns it as stored, including generated columns.
func (r *Repository[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	row, err := r.store.Insert(ctx, r.codec.Table(), r.codec.Encode(v))
	if err != nil {
		return zero, err
	}
	return r.codec.Decode(row), nil
}

// Update writes the given columns of the entity with id and returns it.
func (r *Repository[T]) Update(ctx context.Context, id string, fields store.Row) (T, error) {
	var zero T
	rows, err := r.store.Update(ctx, r.codec.Table(), fields, store.Where{"id": id})
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrNotFound
	}
	return r.codec.Decode(rows[0]), nil
}

// UpdateWhere writes the given columns of every entity matching where.
func (r *Repository[T]) UpdateWhere(ctx context.Context, fields store.Row, where store.Where) ([]T, error) {
	rows, err := r.store.Update(ctx, r.codec.Table(), fields, where)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(rows), nil
}

// Delete removes the entity with id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, r.codec.Table(), store.Where{"id": id})
}

// DeleteWhere removes every entity matching where.
func (r *Repository[T]) DeleteWhere(ctx context.Context, where store.Where) error {
	return r.store.Delete(ctx, r.codec.Table(), where)
}

func (r *Repository[T]) decodeAll(rows []store.Row) []T {
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = r.codec.Decode(row)
	}
	return out
}
