package main

import (
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
)

func TestQueryGuardAllowsSelects(t *testing.T) {
	guard := NewQueryGuard(false)

	allowed := []string{
		"SELECT * FROM users",
		"  select id, name from users where id = 1  ",
		"\n\tSELECT COUNT(*) FROM orders",
		"SELECT * FROM settings",
	}

	for _, query := range allowed {
		t.Run(query, func(t *testing.T) {
			assert.NoError(t, guard.Check(query))
		})
	}
}

func TestQueryGuardRejectsNonSelect(t *testing.T) {
	guard := NewQueryGuard(false)

	for _, query := range []string{
		"SHOW TABLES",
		"DESCRIBE users",
		"WITH x AS (SELECT 1) SELECT * FROM x",
		"",
	} {
		t.Run(query, func(t *testing.T) {
			rpcErr := requireRPCCode(t, guard.Check(query), jsonrpc2.CodeInvalidParams)
			assert.Equal(t, "Only SELECT queries are allowed. Use --allow-dangerous-queries flag to execute other query types.", rpcErr.Message)
		})
	}
}

func TestQueryGuardForbiddenKeywords(t *testing.T) {
	guard := NewQueryGuard(false)

	tests := []struct {
		query   string
		keyword string
	}{
		{"SELECT * FROM t; DROP TABLE t", "DROP"},
		{"SELECT 1; delete from users", "DELETE"},
		{"SELECT * FROM users WHERE note = 'please update me'", "UPDATE"},
		{"SELECT created_at FROM orders", "CREATE"},
		{"SELECT * FROM t; INSERT INTO t VALUES (1); DROP TABLE t", "INSERT"},
		{"select 1; truncate t", "TRUNCATE"},
		{"SELECT 1; ALTER TABLE t ADD c INT", "ALTER"},
		{"SELECT 1; GRANT ALL ON *.* TO x", "GRANT"},
		{"SELECT 1; REVOKE ALL ON *.* FROM x", "REVOKE"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rpcErr := requireRPCCode(t, guard.Check(tt.query), jsonrpc2.CodeInvalidParams)
			assert.Equal(t,
				"Query contains forbidden keyword: "+tt.keyword+". Use --allow-dangerous-queries flag to allow such queries.",
				rpcErr.Message)
		})
	}
}

func TestQueryGuardDangerousModeSkipsChecks(t *testing.T) {
	guard := NewQueryGuard(true)

	for _, query := range []string{
		"DROP TABLE users",
		"UPDATE users SET a = 1",
		"",
	} {
		assert.NoError(t, guard.Check(query), query)
	}
}
