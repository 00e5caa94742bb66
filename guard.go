package main

import "strings"

// forbiddenKeywords are checked in order; the first one found is reported.
var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE",
	"ALTER", "TRUNCATE", "GRANT", "REVOKE",
}

// QueryGuard decides whether free-form SQL may run.
//
// The keyword check is a plain substring match, so identifiers such as
// created_at or last_update are rejected in safe mode as well.
type QueryGuard struct {
	allowDangerous bool
}

func NewQueryGuard(allowDangerous bool) QueryGuard {
	return QueryGuard{allowDangerous: allowDangerous}
}

func (g QueryGuard) Check(query string) error {
	if g.allowDangerous {
		return nil
	}

	normalized := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(normalized, "SELECT") {
		return invalidParams("Only SELECT queries are allowed. Use --allow-dangerous-queries flag to execute other query types.")
	}

	for _, keyword := range forbiddenKeywords {
		if strings.Contains(normalized, keyword) {
			return invalidParams("Query contains forbidden keyword: %s. Use --allow-dangerous-queries flag to allow such queries.", keyword)
		}
	}
	return nil
}
