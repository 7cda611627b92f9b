// Package mcperr defines the typed error taxonomy and the canonical JSON
// error envelope returned by every tool. Every failure path in the server
// terminates in exactly one of these errors; the response formatter turns
// them into the fixed {error, message, details} shape that MCP clients parse.
package mcperr

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind classifies a failure. The string value is the machine-readable code
// emitted in the envelope's "error" field.
type Kind string

const (
	KindConnection Kind = "CONNECTION_ERROR"
	KindQuery      Kind = "QUERY_ERROR"
	KindSecurity   Kind = "SECURITY_ERROR"
	KindValidation Kind = "VALIDATION_ERROR"
	KindTimeout    Kind = "TIMEOUT_ERROR"
	KindInternal   Kind = "INTERNAL_ERROR"
)

const (
	maxQueryDetailLen = 200
	maxValueDetailLen = 100
)

// Error is the base failure type: a kind, a human-readable message, and
// an open string-to-string details map. Immutable after construction.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewConnection reports a failure to establish or hold a database connection.
func NewConnection(message, server, database, driver string) *Error {
	return &Error{
		Kind:    KindConnection,
		Message: message,
		Details: map[string]string{
			"server":   server,
			"database": database,
			"driver":   driver,
		},
	}
}

// NewQuery reports a query that the database rejected or failed to execute.
// The query text is truncated in details to keep envelopes bounded.
func NewQuery(message, query string, details map[string]string) *Error {
	d := make(map[string]string, len(details)+1)
	for k, v := range details {
		d[k] = v
	}
	if query != "" {
		d["query"] = truncate(query, maxQueryDetailLen)
	}
	return &Error{Kind: KindQuery, Message: message, Details: d}
}

// NewSecurity reports a query blocked by the read-only security gate.
func NewSecurity(message, query, blockedKeyword string) *Error {
	d := map[string]string{}
	if query != "" {
		d["query"] = truncate(query, maxQueryDetailLen)
	}
	if blockedKeyword != "" {
		d["blocked_keyword"] = blockedKeyword
	}
	return &Error{Kind: KindSecurity, Message: message, Details: d}
}

// NewValidation reports malformed caller input (empty query, out-of-range
// parameter). Distinct from SECURITY: nothing was checked and rejected,
// there was nothing valid to check.
func NewValidation(message, parameter, value string) *Error {
	d := map[string]string{}
	if parameter != "" {
		d["parameter"] = parameter
	}
	if value != "" {
		d["value"] = truncate(value, maxValueDetailLen)
	}
	return &Error{Kind: KindValidation, Message: message, Details: d}
}

// NewTimeout reports a database operation exceeding its configured timeout.
func NewTimeout(message, operation string, timeoutSeconds int) *Error {
	d := map[string]string{}
	if operation != "" {
		d["operation"] = operation
	}
	d["timeout_seconds"] = strconv.Itoa(timeoutSeconds)
	return &Error{Kind: KindTimeout, Message: message, Details: d}
}

// envelope is the wire shape of an error response.
type envelope struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

// FormatResponse converts any error into the canonical JSON error envelope.
// Typed errors map directly; anything else becomes INTERNAL_ERROR so the
// caller is guaranteed a well-formed envelope for every failure.
func FormatResponse(err error) string {
	var env envelope
	if e, ok := err.(*Error); ok {
		env = envelope{
			Error:   string(e.Kind),
			Message: e.Message,
			Details: e.Details,
		}
	} else {
		env = envelope{
			Error:   string(KindInternal),
			Message: fmt.Sprintf("Unexpected error: %v", err),
			Details: map[string]string{"type": fmt.Sprintf("%T", err)},
		}
	}
	if env.Details == nil {
		env.Details = map[string]string{}
	}
	b, merr := json.MarshalIndent(env, "", "  ")
	if merr != nil {
		// Unreachable for string-only maps, but the contract is a JSON
		// string no matter what.
		return `{"error":"INTERNAL_ERROR","message":"failed to encode error response","details":{}}`
	}
	return string(b)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
