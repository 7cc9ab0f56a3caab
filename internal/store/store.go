// Package store is the storage adapter: one CRUD plus raw-query contract with
// an embedded SQLite implementation and a hosted PostgreSQL implementation.
// Callers never learn which backend answered.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Mode names the backend a Store routes to.
type Mode string

const (
	// ModeLocal is the embedded store owned by the host process.
	ModeLocal Mode = "local"
	// ModeRemote is the hosted relational backend.
	ModeRemote Mode = "remote"
)

// Row is one entity row: column name to scalar value.
type Row map[string]any

// Where is an exact-match conjunction: every pair must hold.
type Where map[string]any

// SelectOptions narrows a Select. The zero value returns every row in
// backend-default order.
type SelectOptions struct {
	Where      Where
	OrderBy    string
	Descending bool
	Limit      int
}

// Increment is an Update value that adds By to the column's current value
// within the UPDATE statement, so concurrent writers do not overwrite each other.
type Increment struct {
	By float64
}

// RunResult is the outcome of a raw write statement.
type RunResult struct {
	RowsAffected int64 `json:"changes"`
}

// Store defines the storage operations shared by both backends.
type Store interface {
	Mode() Mode
	Select(ctx context.Context, table string, opts SelectOptions) ([]Row, error)
	// SelectOne returns (nil, nil) when nothing matches.
	SelectOne(ctx context.Context, table string, where Where) (Row, error)
	// Insert assigns a generated id when data has none and returns the stored row.
	Insert(ctx context.Context, table string, data Row) (Row, error)
	// Update returns the matched rows as they are after the write.
	Update(ctx context.Context, table string, data Row, where Where) ([]Row, error)
	Delete(ctx context.Context, table string, where Where) error
	Query(ctx context.Context, sql string, params ...any) ([]Row, error)
	Run(ctx context.Context, sql string, params ...any) (RunResult, error)
}

var (
	// ErrRawSQLUnsupported is returned by Query and Run in remote mode.
	ErrRawSQLUnsupported = errors.New("raw sql is not supported in remote mode")
	// ErrInvalidIdentifier rejects table or column names that are not plain identifiers.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrMissingWhere guards Update and Delete against touching a whole table.
	ErrMissingWhere = errors.New("where clause is required")
	// ErrUnknownMode is returned by New for anything but local or remote.
	ErrUnknownMode = errors.New("unknown storage mode")
)

// Error wraps a backend failure with the operation that hit it. The backend
// message is kept verbatim.
type Error struct {
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds the Store for mode on top of an opened gorm handle.
func New(mode Mode, db *gorm.DB) (Store, error) {
	switch mode {
	case ModeLocal:
		return NewLocalStore(db), nil
	case ModeRemote:
		return NewRemoteStore(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
