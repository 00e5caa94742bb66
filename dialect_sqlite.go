package main

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string                      { return "sqlite" }
func (sqliteDialect) DriverName() string                { return "sqlite" }
func (sqliteDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }
func (sqliteDialect) LastInsertIDQuery() string         { return "SELECT last_insert_rowid()" }

func (sqliteDialect) TableExists(ctx context.Context, q querier, table string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = ?`, table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (sqliteDialect) ListTables(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (sqliteDialect) ListColumns(ctx context.Context, q querier, table string) ([]ColumnSchema, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make([]ColumnSchema, 0)
	for rows.Next() {
		var col ColumnSchema
		var notNull, pk int
		var colDefault sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &notNull, &colDefault, &pk); err != nil {
			return nil, err
		}
		col.Nullable = notNull == 0 && pk == 0
		if colDefault.Valid {
			col.Default = &colDefault.String
		}
		if pk > 0 {
			col.Key = "PRI"
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (sqliteDialect) ListIndexes(ctx context.Context, q querier, table string) ([]IndexSchema, error) {
	type indexHead struct {
		name   string
		unique bool
	}

	rows, err := q.QueryContext(ctx, `
		SELECT name, "unique" FROM pragma_index_list(?)
		ORDER BY seq`, table)
	if err != nil {
		return nil, err
	}

	var heads []indexHead
	for rows.Next() {
		var h indexHead
		var unique int
		if err := rows.Scan(&h.name, &unique); err != nil {
			rows.Close()
			return nil, err
		}
		h.unique = unique != 0
		heads = append(heads, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// The list cursor must be released before the per-index queries when q
	// is a single acquired connection.
	rows.Close()

	indexes := make([]IndexSchema, 0)
	for _, h := range heads {
		cols, err := q.QueryContext(ctx, `
			SELECT name FROM pragma_index_info(?)
			ORDER BY seqno`, h.name)
		if err != nil {
			return nil, err
		}
		for cols.Next() {
			var column sql.NullString
			if err := cols.Scan(&column); err != nil {
				cols.Close()
				return nil, err
			}
			indexes = append(indexes, IndexSchema{
				Name:   h.name,
				Column: column.String,
				Unique: h.unique,
				Type:   "BTREE",
			})
		}
		err = cols.Err()
		cols.Close()
		if err != nil {
			return nil, err
		}
	}
	return indexes, nil
}
