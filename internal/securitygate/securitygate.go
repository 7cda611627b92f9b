// Package securitygate enforces the read-only contract on caller-supplied
// SQL. A query passes through up to three stages: a SELECT prefix check,
// a word-boundary deny-list scan, and an optional structural check that
// parses the query with PostgreSQL's own parser. The gate is a pure
// predicate: no side effects, same input always yields the same verdict.
package securitygate

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/jvjones/postgres-readonly-mcp/internal/mcperr"
)

// DefaultDenyKeywords is the default deny-list, scanned in order. The first
// match is the one reported. Engine-specific entries (xp_cmdshell,
// OPENROWSET, ...) are kept for clients that proxy to other engines; they
// are harmless against PostgreSQL and the list is configurable anyway.
var DefaultDenyKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "TRUNCATE",
	"EXEC", "EXECUTE", "MERGE", "GRANT", "REVOKE", "DENY", "BACKUP",
	"RESTORE", "xp_cmdshell", "OPENROWSET", "OPENDATASOURCE", "sp_executesql",
}

// Config configures a Gate.
type Config struct {
	// DenyKeywords overrides DefaultDenyKeywords when non-nil.
	DenyKeywords []string
	// StructuralCheck additionally parses the query and requires a single
	// SELECT statement. Queries the parser cannot handle are allowed
	// through so the database can report a proper syntax error.
	StructuralCheck bool
}

type denyEntry struct {
	keyword string
	pattern *regexp.Regexp
}

// Gate decides whether a caller-supplied SQL string may be executed.
type Gate struct {
	deny            []denyEntry
	structuralCheck bool
}

// NewGate compiles the deny-list into word-boundary matchers.
// Returns an error if a configured keyword produces an invalid pattern.
func NewGate(config Config) (*Gate, error) {
	keywords := config.DenyKeywords
	if keywords == nil {
		keywords = DefaultDenyKeywords
	}
	deny := make([]denyEntry, len(keywords))
	for i, kw := range keywords {
		// \b works here because SQL identifier characters are exactly
		// Go's regexp word characters: updated_at never matches UPDATE.
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("securitygate: invalid deny keyword %q: %w", kw, err)
		}
		deny[i] = denyEntry{keyword: kw, pattern: re}
	}
	return &Gate{deny: deny, structuralCheck: config.StructuralCheck}, nil
}

// Authorize returns nil if the query may run, a VALIDATION error for
// empty input, or a SECURITY error naming the single blocked term.
// Violation precedence: non-SELECT prefix first, then deny-list entries
// in declared order.
func (g *Gate) Authorize(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return mcperr.NewValidation("Query cannot be empty", "query", query)
	}

	upper := strings.ToUpper(trimmed)
	if !hasSelectPrefix(upper) {
		return mcperr.NewSecurity(
			"Only SELECT queries are allowed. This server is read-only.",
			query, "non-SELECT statement",
		)
	}

	for _, entry := range g.deny {
		if entry.pattern.MatchString(trimmed) {
			return mcperr.NewSecurity(
				fmt.Sprintf("Query contains forbidden keyword '%s'. This server is read-only.", entry.keyword),
				query, entry.keyword,
			)
		}
	}

	if g.structuralCheck {
		if err := checkStructure(trimmed); err != nil {
			return mcperr.NewSecurity(err.Error(), query, "non-SELECT statement")
		}
	}
	return nil
}

// hasSelectPrefix reports whether the uppercased, trimmed query starts with
// the token SELECT. "SELECTED" does not count: the token must end at a
// non-identifier character or end of input.
func hasSelectPrefix(upper string) bool {
	if !strings.HasPrefix(upper, "SELECT") {
		return false
	}
	if len(upper) == len("SELECT") {
		return true
	}
	return !isIdentChar(upper[len("SELECT")])
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// checkStructure parses the query with the PostgreSQL parser and requires
// exactly one statement, which must be a SELECT. Parse failures return nil:
// the keyword scan already passed, and the driver reports syntax errors
// with far better diagnostics than the gate could.
func checkStructure(sql string) error {
	result, err := pg_query.Parse(sql)
	if err != nil || len(result.Stmts) == 0 {
		return nil
	}
	if len(result.Stmts) > 1 {
		return fmt.Errorf("multi-statement queries are not allowed: found %d statements", len(result.Stmts))
	}
	node := result.Stmts[0].Stmt
	if node == nil {
		return nil
	}
	if _, ok := node.Node.(*pg_query.Node_SelectStmt); !ok {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	return nil
}
