package romcp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jvjones/postgres-readonly-mcp/internal/errhint"
	"github.com/jvjones/postgres-readonly-mcp/internal/redact"
	"github.com/jvjones/postgres-readonly-mcp/internal/retry"
	"github.com/jvjones/postgres-readonly-mcp/internal/securitygate"
	"github.com/jvjones/postgres-readonly-mcp/internal/timeout"
)

// ReadOnlyMcp is the core engine behind the read_data, list_tables,
// list_views, describe_table, and get_table_relationships tools.
// All exported methods are safe for concurrent use from multiple goroutines:
// the gate and error taxonomy are stateless, the retry policy is read-only
// after construction, and each call owns its own pooled connection.
type ReadOnlyMcp struct {
	config     Config
	server     string // reported in tool output and connection errors
	database   string
	pool       *pgxpool.Pool
	semaphore  chan struct{}
	gate       *securitygate.Gate
	retrier    *retry.Retrier
	hints      *errhint.Matcher
	redactor   *redact.Redactor
	timeoutMgr *timeout.Manager
	logger     zerolog.Logger
}

// New creates a ReadOnlyMcp instance. connString is the PostgreSQL
// connection string (must include credentials); server and database name
// it for diagnostics. Panics on invalid config, which the CLI's Validate
// pass should have rejected. Returns error only for runtime failures
// (e.g. pool creation).
func New(ctx context.Context, connString, server, database string, config Config, logger zerolog.Logger) (*ReadOnlyMcp, error) {
	if connString == "" {
		panic("romcp: connString must be non-empty")
	}
	if config.Pool.MaxConns <= 0 {
		panic("romcp: pool.max_conns must be > 0")
	}
	if config.Query.TimeoutSeconds <= 0 {
		panic("romcp: query.timeout_seconds must be > 0")
	}
	if config.Query.CatalogTimeoutSeconds <= 0 {
		panic("romcp: query.catalog_timeout_seconds must be > 0")
	}
	if config.Query.DefaultMaxRows <= 0 || config.Query.DefaultMaxRows > hardMaxRows {
		panic(fmt.Sprintf("romcp: query.default_max_rows must be in [1,%d]", hardMaxRows))
	}
	if config.Retry.MaxRetries < 0 || config.Retry.MaxRetries > 10 {
		panic("romcp: retry.max_retries must be in [0,10]")
	}
	if config.Retry.BaseDelaySeconds < 0 || config.Retry.BaseDelaySeconds > 60 {
		panic("romcp: retry.base_delay_seconds must be in [0.0,60.0]")
	}

	// --- Configure pgxpool ---

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(config.Pool.MaxConns)
	poolConfig.MinConns = int32(config.Pool.MinConns)
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	if config.Pool.MaxConnLifetime != "" {
		d, err := time.ParseDuration(config.Pool.MaxConnLifetime)
		if err != nil {
			panic(fmt.Sprintf("romcp: invalid pool.max_conn_lifetime %q: %v", config.Pool.MaxConnLifetime, err))
		}
		poolConfig.MaxConnLifetime = d
	}
	if config.Pool.MaxConnIdleTime != "" {
		d, err := time.ParseDuration(config.Pool.MaxConnIdleTime)
		if err != nil {
			panic(fmt.Sprintf("romcp: invalid pool.max_conn_idle_time %q: %v", config.Pool.MaxConnIdleTime, err))
		}
		poolConfig.MaxConnIdleTime = d
	}

	// Belt and braces: the gate already blocks non-SELECT queries, but the
	// session-level setting makes the database itself refuse writes.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "SET default_transaction_read_only = on"); err != nil {
			return fmt.Errorf("failed to SET default_transaction_read_only: %w", err)
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// --- Initialize internal components ---

	gate, err := securitygate.NewGate(securitygate.Config{
		DenyKeywords:    config.Security.DenyKeywords,
		StructuralCheck: config.Security.StructuralCheck,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	hintRules := make([]errhint.Rule, len(config.ErrorHints))
	for i, r := range config.ErrorHints {
		hintRules[i] = errhint.Rule{Pattern: r.Pattern, Message: r.Message}
	}
	hints, err := errhint.NewMatcher(hintRules)
	if err != nil {
		pool.Close()
		return nil, err
	}

	redactRules := make([]redact.Rule, len(config.Redaction))
	for i, r := range config.Redaction {
		redactRules[i] = redact.Rule{Pattern: r.Pattern, Replacement: r.Replacement}
	}
	redactor, err := redact.NewRedactor(redactRules)
	if err != nil {
		pool.Close()
		return nil, err
	}

	timeoutRules := make([]timeout.Rule, len(config.Query.TimeoutRules))
	for i, r := range config.Query.TimeoutRules {
		timeoutRules[i] = timeout.Rule{
			Pattern: r.Pattern,
			Timeout: time.Duration(r.TimeoutSeconds) * time.Second,
		}
	}
	tmgr, err := timeout.NewManager(timeout.Config{
		DefaultTimeout: time.Duration(config.Query.TimeoutSeconds) * time.Second,
		Rules:          timeoutRules,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	retrier := retry.NewRetrier(retry.Policy{
		MaxRetries: config.Retry.MaxRetries,
		BaseDelay:  time.Duration(config.Retry.BaseDelaySeconds * float64(time.Second)),
	}, logger)

	return &ReadOnlyMcp{
		config:     config,
		server:     server,
		database:   database,
		pool:       pool,
		semaphore:  make(chan struct{}, config.Pool.MaxConns),
		gate:       gate,
		retrier:    retrier,
		hints:      hints,
		redactor:   redactor,
		timeoutMgr: tmgr,
		logger:     logger,
	}, nil
}

// Close closes the connection pool. Accepts context for API
// forward-compatibility; pgxpool.Pool.Close() does not take one.
func (p *ReadOnlyMcp) Close(ctx context.Context) {
	p.pool.Close()
}

// acquireSlot takes a query slot, respecting context cancellation so a full
// pool never deadlocks waiting callers. Callers must release with
// releaseSlot when the returned error is nil.
func (p *ReadOnlyMcp) acquireSlot(ctx context.Context, tool string) error {
	select {
	case p.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: all %d connection slots are in use, context cancelled while waiting: %w", tool, cap(p.semaphore), ctx.Err())
	}
}

func (p *ReadOnlyMcp) releaseSlot() {
	<-p.semaphore
}
