package romcp

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jvjones/postgres-readonly-mcp/internal/mcperr"
)

// runWithRetry executes op through the retry policy. Each attempt gets a
// fresh timeout-bounded context, so a statement timeout on one attempt does
// not poison the next. The error returned is the raw driver error; callers
// classify it with classifyDriverError after retries are exhausted.
func (p *ReadOnlyMcp) runWithRetry(ctx context.Context, operation string, d time.Duration, op func(ctx context.Context) error) error {
	return p.retrier.Do(ctx, operation, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return op(attemptCtx)
	})
}

// classifyDriverError maps a driver-level failure into the error taxonomy
// once the retry policy has given up on it. Typed errors pass through
// untouched so gate and validation verdicts keep their kind.
func (p *ReadOnlyMcp) classifyDriverError(err error, operation, query string, d time.Duration) error {
	var typed *mcperr.Error
	if errors.As(err, &typed) {
		return typed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return mcperr.NewTimeout(
			"Database operation exceeded the configured timeout.",
			operation, int(d.Seconds()),
		)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "57014" {
			// statement_timeout cancel surfaces as a server-side error
			return mcperr.NewTimeout(
				"Query was cancelled by the server after exceeding the statement timeout.",
				operation, int(d.Seconds()),
			)
		}
		if isConnectionState(pgErr.Code) {
			return p.connectionError(err)
		}
		return mcperr.NewQuery(
			"Database error: "+pgErr.Message,
			query,
			map[string]string{"error_code": pgErr.Code},
		)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || isConnectFailure(err) {
		return p.connectionError(err)
	}

	return mcperr.NewQuery("Database error: "+err.Error(), query, nil)
}

// connectionError builds a CONNECTION error annotated with operator
// guidance from the hint matcher.
func (p *ReadOnlyMcp) connectionError(err error) error {
	return mcperr.NewConnection(
		p.hints.Annotate("Database connection failed: "+err.Error()),
		p.server, p.database, "pgx",
	)
}

// isConnectionState reports whether a SQLSTATE belongs to the connection
// or authentication classes rather than to statement execution.
func isConnectionState(code string) bool {
	if strings.HasPrefix(code, "08") || strings.HasPrefix(code, "28") {
		return true
	}
	switch code {
	case "53300", "57P03", "3D000":
		return true
	}
	return false
}

// isConnectFailure catches pgconn dial errors that are not net.Error
// values, e.g. "failed to connect to `host=...`".
func isConnectFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "failed to connect") ||
		strings.Contains(msg, "closed pool")
}
