package store

import (
	"context"

	"gorm.io/gorm"
)

// LocalStore serves the embedded SQLite database. It is the only backend that
// accepts raw SQL.
type LocalStore struct {
	gormBackend
}

// NewLocalStore creates a LocalStore over an opened SQLite handle.
func NewLocalStore(db *gorm.DB) *LocalStore {
	return &LocalStore{gormBackend{db: db}}
}

// Mode reports ModeLocal.
func (s *LocalStore) Mode() Mode {
	return ModeLocal
}

// Query executes a read statement with positional parameters.
func (s *LocalStore) Query(ctx context.Context, sql string, params ...any) ([]Row, error) {
	var found []map[string]any
	if err := s.db.WithContext(ctx).Raw(sql, params...).Scan(&found).Error; err != nil {
		return nil, &Error{Op: "query", Err: err}
	}
	return toRows(found), nil
}

// Run executes a write statement with positional parameters.
func (s *LocalStore) Run(ctx context.Context, sql string, params ...any) (RunResult, error) {
	res := s.db.WithContext(ctx).Exec(sql, params...)
	if res.Error != nil {
		return RunResult{}, &Error{Op: "run", Err: res.Error}
	}
	return RunResult{RowsAffected: res.RowsAffected}, nil
}
