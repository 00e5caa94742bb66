package main

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string                      { return "mysql" }
func (mysqlDialect) DriverName() string                { return "mysql" }
func (mysqlDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }
func (mysqlDialect) LastInsertIDQuery() string         { return "SELECT LAST_INSERT_ID()" }

func (mysqlDialect) TableExists(ctx context.Context, q querier, table string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`, table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (mysqlDialect) ListTables(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (mysqlDialect) ListColumns(ctx context.Context, q querier, table string) ([]ColumnSchema, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT,
			COLUMN_KEY, EXTRA, COLUMN_COMMENT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, table)
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

// ListIndexes uses SHOW INDEX, which cannot take the table as a bound
// parameter, so the name is checked against the identifier rule first.
func (mysqlDialect) ListIndexes(ctx context.Context, q querier, table string) ([]IndexSchema, error) {
	if !validIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	rows, err := q.QueryContext(ctx, fmt.Sprintf("SHOW INDEX FROM `%s`", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	_, results, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	indexes := make([]IndexSchema, 0, len(results))
	for _, row := range results {
		indexes = append(indexes, IndexSchema{
			Name:   stringValue(row["Key_name"]),
			Column: stringValue(row["Column_name"]),
			Unique: stringValue(row["Non_unique"]) == "0",
			Type:   stringValue(row["Index_type"]),
		})
	}
	return indexes, nil
}
