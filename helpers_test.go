package main

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyColumn(t *testing.T) {
	tests := map[string]columnKind{
		"":              kindUnknown,
		"VARCHAR":       kindText,
		"varchar(255)":  kindText,
		"DATETIME":      kindText,
		"JSON":          kindText,
		"INT":           kindInteger,
		"UNSIGNED INT":  kindInteger,
		"BIGINT":        kindInteger,
		"INTEGER":       kindInteger,
		"INT8":          kindInteger,
		"YEAR":          kindInteger,
		"DECIMAL":       kindFloat,
		"NUMERIC(10,2)": kindFloat,
		"FLOAT8":        kindFloat,
		"REAL":          kindFloat,
		"BOOL":          kindBool,
		"BOOLEAN":       kindBool,
	}

	for dbType, want := range tests {
		assert.Equal(t, want, classifyColumn(dbType), dbType)
	}
}

func TestDecodeColumn(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  any
		kind columnKind
		want any
	}{
		{"nil", nil, kindText, nil},
		{"text bytes", []byte("hello"), kindText, "hello"},
		{"unknown bytes", []byte("hello"), kindUnknown, "hello"},
		{"string", "hello", kindText, "hello"},
		{"time", ts, kindText, "2024-03-01T12:30:00Z"},
		{"native int", int64(42), kindInteger, int64(42)},
		{"native int unknown kind", int64(42), kindUnknown, int64(42)},
		{"int bytes", []byte("42"), kindInteger, int64(42)},
		{"negative int bytes", []byte("-7"), kindInteger, int64(-7)},
		{"decimal bytes", []byte("12.50"), kindFloat, 12.5},
		{"native float", 3.25, kindFloat, 3.25},
		{"float32", float32(0.5), kindFloat, 0.5},
		{"bool", true, kindBool, true},
		{"bool bytes", []byte("true"), kindBool, true},
		{"bool string", "f", kindBool, false},
		{"unparseable int keeps text", []byte("abc"), kindInteger, "abc"},
		{"unparseable float string keeps text", "n/a", kindFloat, "n/a"},
		{"unparseable bool keeps text", []byte("maybe"), kindBool, "maybe"},
		{"positive infinity", math.Inf(1), kindFloat, nil},
		{"negative infinity", math.Inf(-1), kindUnknown, nil},
		{"nan", math.NaN(), kindFloat, nil},
		{"nan bytes", []byte("NaN"), kindFloat, nil},
		{"big unsigned falls through", uint64(1 << 63), kindInteger, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeColumn(tt.raw, tt.kind))
		})
	}
}

func TestScanRows(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT, price REAL, note TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO items (name, price, note) VALUES ('pen', 1.5, NULL), ('cup', 4, 'blue')`)
	require.NoError(t, err)

	rows, err := db.Query(`SELECT id, name, price, note FROM items ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	columns, results, err := scanRows(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "price", "note"}, columns)
	require.Len(t, results, 2)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "pen", "price": 1.5, "note": nil}, results[0])
	assert.Equal(t, map[string]any{"id": int64(2), "name": "cup", "price": 4.0, "note": "blue"}, results[1])
}

func TestScanRowsEmpty(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE items (id INTEGER)`)
	require.NoError(t, err)

	rows, err := db.Query(`SELECT id FROM items`)
	require.NoError(t, err)
	defer rows.Close()

	columns, results, err := scanRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, columns)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestScanRowsMismatchedAffinity(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "affinity.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, total REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders (id, user_id, total) VALUES (7, 'abc', 'n/a')`)
	require.NoError(t, err)

	rows, err := db.Query(`SELECT id, user_id, total FROM orders`)
	require.NoError(t, err)
	defer rows.Close()

	_, results, err := scanRows(rows)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]any{"id": int64(7), "user_id": "abc", "total": "n/a"}, results[0])
}

func TestScanRowsNonFiniteFloat(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "inf.db"))
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT 1e999 AS big, -1e999 AS small, 1 AS one`)
	require.NoError(t, err)
	defer rows.Close()

	_, results, err := scanRows(rows)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]any{"big": nil, "small": nil, "one": int64(1)}, results[0])
}
