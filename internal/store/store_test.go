package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const itemsDDL = `CREATE TABLE items (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	stock REAL NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// newSQLiteDB opens a private in-memory database with an items table.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Exec(itemsDDL).Error)
	return db
}

// A helper function to create a mock postgres connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{SkipDefaultTransaction: true, Logger: logger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

func seedItems(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, r := range []Row{
		{"id": "i1", "code": "MNM-0001", "name": "Teh Botol", "stock": 10},
		{"id": "i2", "code": "MNM-0002", "name": "Aqua", "stock": 5},
		{"id": "i3", "code": "ROK-0001", "name": "Rokok", "stock": 0, "is_active": false},
	} {
		_, err := s.Insert(ctx, "items", r)
		require.NoError(t, err)
	}
}

func TestNew(t *testing.T) {
	db := newSQLiteDB(t)

	local, err := New(ModeLocal, db)
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, local.Mode())

	remote, err := New(ModeRemote, db)
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, remote.Mode())

	_, err = New("cloud", db)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestLocalStore_InsertAssignsID(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))

	row, err := s.Insert(context.Background(), "items", Row{"code": "MNM-0001", "name": "Teh Botol"})
	require.NoError(t, err)

	id := row.String("id")
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr, "generated id should be a uuid")
	assert.Equal(t, "Teh Botol", row.String("name"))
	// Backend defaults are part of the returned row.
	assert.True(t, row.Bool("is_active"))
	assert.Equal(t, 0.0, row.Float("stock"))
	assert.True(t, row.Has("created_at"))
}

func TestLocalStore_InsertKeepsSuppliedID(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))

	row, err := s.Insert(context.Background(), "items", Row{"id": "fixed", "code": "X", "name": "Y"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", row.String("id"))

	_, err = s.Insert(context.Background(), "items", Row{"id": "fixed", "code": "X", "name": "Y"})
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "insert", storeErr.Op)
	assert.Contains(t, err.Error(), "UNIQUE")
}

func TestLocalStore_Select(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))
	seedItems(t, s)
	ctx := context.Background()

	testCases := []struct {
		name     string
		opts     SelectOptions
		expected []string
	}{
		{name: "where", opts: SelectOptions{Where: Where{"is_active": true}, OrderBy: "code"}, expected: []string{"i1", "i2"}},
		{name: "multiple conditions", opts: SelectOptions{Where: Where{"is_active": true, "code": "MNM-0002"}}, expected: []string{"i2"}},
		{name: "order descending", opts: SelectOptions{OrderBy: "stock", Descending: true}, expected: []string{"i1", "i2", "i3"}},
		{name: "limit", opts: SelectOptions{OrderBy: "code", Limit: 2}, expected: []string{"i1", "i2"}},
		{name: "no match", opts: SelectOptions{Where: Where{"code": "nope"}}, expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := s.Select(ctx, "items", tc.opts)
			require.NoError(t, err)
			ids := make([]string, 0, len(rows))
			for _, r := range rows {
				ids = append(ids, r.String("id"))
			}
			if tc.opts.OrderBy == "" {
				assert.ElementsMatch(t, tc.expected, ids)
			} else {
				assert.Equal(t, tc.expected, ids)
			}
		})
	}
}

func TestLocalStore_SelectOne(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))
	seedItems(t, s)
	ctx := context.Background()

	row, err := s.SelectOne(ctx, "items", Where{"code": "ROK-0001"})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "i3", row.String("id"))
	assert.False(t, row.Bool("is_active"))

	row, err = s.SelectOne(ctx, "items", Where{"code": "missing"})
	assert.NoError(t, err)
	assert.Nil(t, row)
}

func TestLocalStore_Update(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))
	seedItems(t, s)
	ctx := context.Background()

	rows, err := s.Update(ctx, "items", Row{"stock": 7}, Where{"id": "i2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7.0, rows[0].Float("stock"))

	// Rows are returned even when the update rewrites the filtered column.
	rows, err = s.Update(ctx, "items", Row{"is_active": false}, Where{"is_active": true})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, r := range rows {
		assert.False(t, r.Bool("is_active"))
	}

	rows, err = s.Update(ctx, "items", Row{"stock": 1}, Where{"id": "missing"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLocalStore_UpdateIncrement(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))
	seedItems(t, s)
	ctx := context.Background()

	rows, err := s.Update(ctx, "items", Row{"stock": Increment{By: -3}}, Where{"id": "i1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7.0, rows[0].Float("stock"))

	// Each write applies to the stored value, not to a value read earlier.
	for i := 0; i < 2; i++ {
		_, err = s.Update(ctx, "items", Row{"stock": Increment{By: 2.5}}, Where{"id": "i1"})
		require.NoError(t, err)
	}
	row, err := s.SelectOne(ctx, "items", Where{"id": "i1"})
	require.NoError(t, err)
	assert.Equal(t, 12.0, row.Float("stock"))
}

func TestLocalStore_Delete(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))
	seedItems(t, s)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "items", Where{"id": "i1"}))

	row, err := s.SelectOne(ctx, "items", Where{"id": "i1"})
	require.NoError(t, err)
	assert.Nil(t, row)

	rows, err := s.Select(ctx, "items", SelectOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestStore_Guards(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))
	ctx := context.Background()

	_, err := s.Update(ctx, "items", Row{"stock": 1}, nil)
	assert.ErrorIs(t, err, ErrMissingWhere)

	err = s.Delete(ctx, "items", Where{})
	assert.ErrorIs(t, err, ErrMissingWhere)

	_, err = s.Select(ctx, "items; DROP TABLE items", SelectOptions{})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = s.Select(ctx, "items", SelectOptions{Where: Where{"name = '' OR 1=1 --": "x"}})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = s.Select(ctx, "items", SelectOptions{OrderBy: "stock desc"})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = s.Insert(ctx, "items", Row{"bad column": 1})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestLocalStore_QueryAndRun(t *testing.T) {
	s := NewLocalStore(newSQLiteDB(t))
	seedItems(t, s)
	ctx := context.Background()

	res, err := s.Run(ctx, "UPDATE items SET stock = stock + ? WHERE is_active = ?", 3, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)

	rows, err := s.Query(ctx, "SELECT code, stock FROM items WHERE stock > ? ORDER BY code", 4)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MNM-0001", rows[0].String("code"))
	assert.Equal(t, 13.0, rows[0].Float("stock"))
	assert.Equal(t, 8.0, rows[1].Float("stock"))

	_, err = s.Query(ctx, "SELECT * FROM nowhere")
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "query", storeErr.Op)
	assert.Contains(t, err.Error(), "no such table")
}

func TestRemoteStore_TableOperations(t *testing.T) {
	// The table operations are dialect neutral, so the remote store is
	// exercised against the embedded engine here.
	s := NewRemoteStore(newSQLiteDB(t))
	seedItems(t, s)
	ctx := context.Background()

	rows, err := s.Update(ctx, "items", Row{"name": "Aqua 600ml"}, Where{"code": "MNM-0002"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Aqua 600ml", rows[0].String("name"))

	require.NoError(t, s.Delete(ctx, "items", Where{"is_active": false}))
	rows, err = s.Select(ctx, "items", SelectOptions{OrderBy: "code"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRemoteStore_RawSQLUnsupported(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewRemoteStore(gormDB)
	ctx := context.Background()

	_, err := s.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrRawSQLUnsupported)

	_, err = s.Run(ctx, "DELETE FROM items")
	assert.ErrorIs(t, err, ErrRawSQLUnsupported)

	// Nothing may reach the server.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_BackendErrors(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewRemoteStore(gormDB)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "items" WHERE "items"."code" = $1 LIMIT $2`)).
		WillReturnError(errors.New("permission denied for table items"))

	_, err := s.SelectOne(ctx, "items", Where{"code": "MNM-0001"})
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "select", storeErr.Op)
	assert.Equal(t, "items", storeErr.Table)
	assert.Contains(t, err.Error(), "permission denied for table items")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "items"`)).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "items_code_key"`))

	_, err = s.Insert(ctx, "items", Row{"code": "MNM-0001", "name": "Teh"})
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "insert", storeErr.Op)
	assert.Contains(t, err.Error(), "duplicate key value")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstrument(t *testing.T) {
	gormDB, _ := newMockDB(t)
	reg := prometheus.NewRegistry()
	s := Instrument(NewRemoteStore(gormDB), reg)
	ctx := context.Background()

	assert.Equal(t, ModeRemote, s.Mode())
	_, err := s.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrRawSQLUnsupported)
	_, err = s.Run(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrRawSQLUnsupported)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "pos_store_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, l := range m.GetLabel() {
				key += l.GetName() + "=" + l.GetValue() + ","
			}
			counts[key] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, counts["mode=remote,op=query,outcome=unsupported,"])
	assert.Equal(t, 1.0, counts["mode=remote,op=run,outcome=unsupported,"])
}

func TestRow_Accessors(t *testing.T) {
	r := Row{
		"text":      "abc",
		"bytes":     []byte("12.5"),
		"int":       int64(3),
		"float":     2.75,
		"sqlite_t":  int64(1),
		"sqlite_f":  int64(0),
		"pg_bool":   true,
		"str_bool":  "true",
		"date":      "2025-03-01",
		"timestamp": "2025-03-01 10:11:12",
		"null":      nil,
	}

	assert.Equal(t, "abc", r.String("text"))
	assert.Equal(t, "", r.String("null"))
	assert.Equal(t, "", r.String("missing"))
	assert.Equal(t, 12.5, r.Float("bytes"))
	assert.Equal(t, int64(3), r.Int("int"))
	assert.Equal(t, int64(2), r.Int("float"))
	assert.True(t, r.Bool("sqlite_t"))
	assert.False(t, r.Bool("sqlite_f"))
	assert.True(t, r.Bool("pg_bool"))
	assert.True(t, r.Bool("str_bool"))
	assert.False(t, r.Bool("missing"))
	assert.Equal(t, 2025, r.Time("date").Year())
	assert.Equal(t, 11, r.Time("timestamp").Minute())
	assert.True(t, r.Time("null").IsZero())
	assert.True(t, r.Has("null"))
	assert.False(t, r.Has("missing"))
}
