// Package retry makes transient database failures invisible to callers by
// retrying an operation with bounded exponential backoff. Failures are
// classified against a static table of SQLSTATE codes; anything not in the
// table propagates immediately and unchanged.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// transientSQLStates are driver-level codes known a priori to represent
// retryable conditions. Never mutated at runtime.
var transientSQLStates = map[string]struct{}{
	"08000": {}, // connection_exception
	"08001": {}, // sqlclient_unable_to_establish_sqlconnection
	"08003": {}, // connection_does_not_exist
	"08006": {}, // connection_failure
	"08S01": {}, // communication link failure (ODBC-style, seen via proxies)
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"53300": {}, // too_many_connections
	"55P03": {}, // lock_not_available
	"57014": {}, // query_canceled (statement_timeout)
	"57P03": {}, // cannot_connect_now
}

// IsTransient reports whether err is likely to succeed if retried.
// PgErrors are matched by SQLSTATE; driver and network timeouts are
// transient by policy.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := transientSQLStates[pgErr.Code]
		return ok
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// Policy bounds the retry loop. Loaded once at process start and read-only
// for the lifetime of the process; safe to share across concurrent calls.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt,
	// valid range [0,10]. 0 means exactly one attempt.
	MaxRetries int
	// BaseDelay scales the backoff schedule: the n-th retry (1-indexed)
	// waits BaseDelay * 2^n, so the first retry already waits 2x base.
	BaseDelay time.Duration
}

// Retrier runs operations under a Policy.
type Retrier struct {
	policy Policy
	logger zerolog.Logger

	// sleep is swapped out in tests to record the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier. Panics on out-of-range policy values, which
// config validation should have rejected long before this point.
func NewRetrier(policy Policy, logger zerolog.Logger) *Retrier {
	if policy.MaxRetries < 0 || policy.MaxRetries > 10 {
		panic("retry: max_retries must be in [0,10]")
	}
	if policy.BaseDelay < 0 || policy.BaseDelay > 60*time.Second {
		panic("retry: base_delay must be in [0s,60s]")
	}
	return &Retrier{policy: policy, logger: logger, sleep: sleepCtx}
}

// Do runs op, retrying transient failures up to MaxRetries times with
// exponential backoff. The error returned after exhaustion (or on the first
// permanent failure) is the original driver error, unchanged, so callers
// see the real failure, never a wrapper. The backoff sleep blocks only the
// calling goroutine and respects context cancellation.
func (r *Retrier) Do(ctx context.Context, operation string, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == r.policy.MaxRetries {
			return err
		}
		delay := r.policy.BaseDelay << uint(attempt+1)
		r.logger.Warn().
			Str("operation", operation).
			Int("attempt", attempt+1).
			Int("max_retries", r.policy.MaxRetries).
			Dur("backoff", delay).
			Err(err).
			Msg("transient database error, retrying")
		if serr := r.sleep(ctx, delay); serr != nil {
			// Context cancelled while backing off: surface the driver
			// error that put us here, not the cancellation.
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
