package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
)

// querier is satisfied by both *sql.DB and an acquired *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dialect holds the engine-specific parts: driver, placeholder style, the
// last-insert-id lookup and the catalog queries used by schema introspection.
type dialect interface {
	Name() string
	DriverName() string
	Placeholder() sq.PlaceholderFormat
	LastInsertIDQuery() string
	TableExists(ctx context.Context, q querier, table string) (bool, error)
	ListTables(ctx context.Context, q querier) ([]string, error)
	ListColumns(ctx context.Context, q querier, table string) ([]ColumnSchema, error)
	ListIndexes(ctx context.Context, q querier, table string) ([]IndexSchema, error)
}

// resolveTarget picks the dialect for a connection string and converts it to
// the DSN its driver expects.
func resolveTarget(connString string) (dialect, string, error) {
	switch {
	case strings.HasPrefix(connString, "mysql://"):
		dsn, err := mysqlURLToDSN(connString)
		if err != nil {
			return nil, "", err
		}
		return mysqlDialect{}, dsn, nil
	case strings.HasPrefix(connString, "postgres://"), strings.HasPrefix(connString, "postgresql://"):
		return postgresDialect{}, connString, nil
	case strings.HasPrefix(connString, "sqlite://"):
		return sqliteDialect{}, strings.TrimPrefix(connString, "sqlite://"), nil
	case strings.HasPrefix(connString, "file:"):
		return sqliteDialect{}, connString, nil
	default:
		if _, err := mysql.ParseDSN(connString); err != nil {
			return nil, "", fmt.Errorf("unsupported connection string: %w", err)
		}
		return mysqlDialect{}, connString, nil
	}
}

func mysqlURLToDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Hostname() + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for key := range q {
			cfg.Params[key] = q.Get(key)
		}
	}
	return cfg.FormatDSN(), nil
}

// redactConnString hides the password of a connection string for logging.
func redactConnString(connString string) string {
	if strings.Contains(connString, "://") {
		if u, err := url.Parse(connString); err == nil {
			return u.Redacted()
		}
		return "<unparseable>"
	}
	if cfg, err := mysql.ParseDSN(connString); err == nil {
		if cfg.Passwd != "" {
			cfg.Passwd = "xxxxx"
		}
		return cfg.FormatDSN()
	}
	return connString
}

// stringValue renders a decoded catalog value as text.
func stringValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
