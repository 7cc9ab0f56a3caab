package store

import (
	"context"

	"gorm.io/gorm"
)

// RemoteStore serves the hosted PostgreSQL backend through the table
// operations only. Raw SQL is refused before anything reaches the server.
type RemoteStore struct {
	gormBackend
}

// NewRemoteStore creates a RemoteStore over an opened PostgreSQL handle.
func NewRemoteStore(db *gorm.DB) *RemoteStore {
	return &RemoteStore{gormBackend{db: db}}
}

// Mode reports ModeRemote.
func (s *RemoteStore) Mode() Mode {
	return ModeRemote
}

// Query always fails with ErrRawSQLUnsupported.
func (s *RemoteStore) Query(_ context.Context, _ string, _ ...any) ([]Row, error) {
	return nil, &Error{Op: "query", Err: ErrRawSQLUnsupported}
}

// Run always fails with ErrRawSQLUnsupported.
func (s *RemoteStore) Run(_ context.Context, _ string, _ ...any) (RunResult, error) {
	return RunResult{}, &Error{Op: "run", Err: ErrRawSQLUnsupported}
}
