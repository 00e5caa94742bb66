package main

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

type postgresDialect struct{}

func (postgresDialect) Name() string                      { return "postgres" }
func (postgresDialect) DriverName() string                { return "postgres" }
func (postgresDialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

// lastval fails when no sequence was used in the session; the caller
// treats that as id 0.
func (postgresDialect) LastInsertIDQuery() string { return "SELECT lastval()" }

func (postgresDialect) TableExists(ctx context.Context, q querier, table string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1`, table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (postgresDialect) ListTables(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (postgresDialect) ListColumns(ctx context.Context, q querier, table string) ([]ColumnSchema, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			COALESCE((
				SELECT CASE tc.constraint_type WHEN 'PRIMARY KEY' THEN 'PRI' ELSE 'UNI' END
				FROM information_schema.key_column_usage k
				JOIN information_schema.table_constraints tc
					ON tc.constraint_name = k.constraint_name
					AND tc.table_schema = k.table_schema
				WHERE k.table_schema = c.table_schema
					AND k.table_name = c.table_name
					AND k.column_name = c.column_name
					AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
				ORDER BY tc.constraint_type
				LIMIT 1
			), '') AS column_key,
			CASE WHEN c.is_identity = 'YES' THEN 'identity' ELSE '' END AS extra,
			COALESCE(col_description(
				(quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass,
				c.ordinal_position::int
			), '') AS column_comment
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make([]ColumnSchema, 0)
	for rows.Next() {
		var col ColumnSchema
		var isNullable string
		var colDefault sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &isNullable, &colDefault, &col.Key, &col.Extra, &col.Comment); err != nil {
			return nil, err
		}
		col.Nullable = isNullable == "YES"
		if colDefault.Valid {
			col.Default = &colDefault.String
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (postgresDialect) ListIndexes(ctx context.Context, q querier, table string) ([]IndexSchema, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT i.relname, a.attname, ix.indisunique, am.amname
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_index ix ON ix.indrelid = t.oid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = current_schema() AND t.relname = $1
		ORDER BY i.relname, a.attnum`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := make([]IndexSchema, 0)
	for rows.Next() {
		var idx IndexSchema
		if err := rows.Scan(&idx.Name, &idx.Column, &idx.Unique, &idx.Type); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}
