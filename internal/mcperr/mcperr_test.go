package mcperr

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// decode parses an envelope back out of FormatResponse output.
func decode(t *testing.T, s string) (kind, message string, details map[string]string) {
	t.Helper()
	var env struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		t.Fatalf("FormatResponse output is not valid JSON: %v\n%s", err, s)
	}
	return env.Error, env.Message, env.Details
}

func TestFormatResponse_ConnectionError(t *testing.T) {
	t.Parallel()
	err := NewConnection("Database connection failed: connection refused", "db1:5432", "appdb", "pgx")
	kind, message, details := decode(t, FormatResponse(err))
	if kind != "CONNECTION_ERROR" {
		t.Fatalf("expected CONNECTION_ERROR, got %s", kind)
	}
	if !strings.Contains(message, "connection refused") {
		t.Fatalf("unexpected message: %s", message)
	}
	if details["server"] != "db1:5432" || details["database"] != "appdb" || details["driver"] != "pgx" {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestFormatResponse_SecurityError(t *testing.T) {
	t.Parallel()
	err := NewSecurity("Query contains forbidden keyword 'DROP'. This server is read-only.", "SELECT 1; DROP TABLE t", "DROP")
	kind, _, details := decode(t, FormatResponse(err))
	if kind != "SECURITY_ERROR" {
		t.Fatalf("expected SECURITY_ERROR, got %s", kind)
	}
	if details["blocked_keyword"] != "DROP" {
		t.Fatalf("expected blocked_keyword DROP, got %q", details["blocked_keyword"])
	}
	if details["query"] != "SELECT 1; DROP TABLE t" {
		t.Fatalf("expected full query in details, got %q", details["query"])
	}
}

func TestFormatResponse_UntypedErrorBecomesInternal(t *testing.T) {
	t.Parallel()
	kind, message, details := decode(t, FormatResponse(errors.New("something broke")))
	if kind != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %s", kind)
	}
	if message != "Unexpected error: something broke" {
		t.Fatalf("unexpected message: %s", message)
	}
	if details["type"] != "*errors.errorString" {
		t.Fatalf("expected concrete type in details, got %q", details["type"])
	}
}

func TestFormatResponse_DetailsNeverNull(t *testing.T) {
	t.Parallel()
	err := &Error{Kind: KindQuery, Message: "boom"}
	out := FormatResponse(err)
	if strings.Contains(out, `"details": null`) || strings.Contains(out, `"details":null`) {
		t.Fatalf("details must be an object, got: %s", out)
	}
	_, _, details := decode(t, out)
	if details == nil || len(details) != 0 {
		t.Fatalf("expected empty details map, got %v", details)
	}
}

func TestNewQuery_TruncatesQueryDetail(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 500)
	err := NewQuery("Database error", "SELECT '"+long+"'", nil)
	if got := len(err.Details["query"]); got != 200 {
		t.Fatalf("expected query detail truncated to 200 bytes, got %d", got)
	}
}

func TestNewValidation_TruncatesValueDetail(t *testing.T) {
	t.Parallel()
	err := NewValidation("bad value", "query", strings.Repeat("y", 300))
	if got := len(err.Details["value"]); got != 100 {
		t.Fatalf("expected value detail truncated to 100 bytes, got %d", got)
	}
}

func TestNewValidation_EmptyValueOmitted(t *testing.T) {
	t.Parallel()
	err := NewValidation("Query cannot be empty", "query", "")
	if _, ok := err.Details["value"]; ok {
		t.Fatalf("empty value must not appear in details: %v", err.Details)
	}
	if err.Details["parameter"] != "query" {
		t.Fatalf("expected parameter detail, got %v", err.Details)
	}
}

func TestNewTimeout_Details(t *testing.T) {
	t.Parallel()
	err := NewTimeout("Database operation exceeded the configured timeout.", "read_data", 30)
	if err.Details["operation"] != "read_data" || err.Details["timeout_seconds"] != "30" {
		t.Fatalf("unexpected details: %v", err.Details)
	}
	if err.Kind != KindTimeout {
		t.Fatalf("expected TIMEOUT kind, got %s", err.Kind)
	}
}

func TestError_ErrorStringIncludesKind(t *testing.T) {
	t.Parallel()
	err := NewSecurity("blocked", "SELECT 1", "DROP")
	if !strings.HasPrefix(err.Error(), "SECURITY_ERROR: ") {
		t.Fatalf("unexpected Error() output: %s", err.Error())
	}
}

func TestNewQuery_DoesNotMutateCallerDetails(t *testing.T) {
	t.Parallel()
	caller := map[string]string{"error_code": "42601"}
	_ = NewQuery("syntax error", "SELECT bogus", caller)
	if _, ok := caller["query"]; ok {
		t.Fatalf("caller map was mutated: %v", caller)
	}
}
