package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
)

const (
	maxPoolConns    = 5
	connMaxLifetime = time.Hour
)

// store is an open connection pool plus everything needed to build and run
// statements against it.
type store struct {
	db             *sql.DB
	dialect        dialect
	builder        sq.StatementBuilderType
	acquireTimeout time.Duration
	logger         *slog.Logger
}

// openStore opens a pool for connString and verifies it with a ping.
func openStore(ctx context.Context, connString string, acquireTimeout time.Duration, logger *slog.Logger) (*store, error) {
	d, dsn, err := resolveTarget(connString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxPoolConns)
	db.SetMaxIdleConns(maxPoolConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}

	return &store{
		db:             db,
		dialect:        d,
		builder:        sq.StatementBuilder.PlaceholderFormat(d.Placeholder()),
		acquireTimeout: acquireTimeout,
		logger:         componentLogger(logger, "store").With("dialect", d.Name()),
	}, nil
}

// acquire takes one connection from the pool, waiting at most the acquire
// timeout. The caller must Close the returned connection.
func (s *store) acquire(ctx context.Context) (*sql.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, acquireFailed(err)
	}
	return conn, nil
}

// exec runs a built statement on an acquired connection.
func (s *store) exec(ctx context.Context, op string, stmt sq.Sqlizer) (sql.Result, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, invalidParams("Failed to build %s statement: %v", op, err)
	}

	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, s.failed(op, err)
	}
	return result, nil
}

// failed logs a driver error and converts it to the protocol error.
func (s *store) failed(op string, err error) error {
	attrs := []any{"op", op, "error", err}
	if n := driverErrorNumber(err); n != 0 {
		attrs = append(attrs, "mysql_errno", n)
	}
	s.logger.Warn("statement failed", attrs...)
	return executionFailed(op, err)
}

func (s *store) Close() error {
	return s.db.Close()
}

// driverErrorNumber returns the server error number of a MySQL error, or 0.
func driverErrorNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}
