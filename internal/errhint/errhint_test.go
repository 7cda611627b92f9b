package errhint

import (
	"strings"
	"testing"
)

func defaultMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := NewMatcher(nil)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	return m
}

func TestHint_ConnectionRefused(t *testing.T) {
	t.Parallel()
	hint := defaultMatcher(t).Hint("dial tcp 127.0.0.1:5432: connect: connection refused")
	if !strings.Contains(hint, "hostname and port") {
		t.Fatalf("unexpected hint: %q", hint)
	}
}

func TestHint_PasswordAuthFailed(t *testing.T) {
	t.Parallel()
	hint := defaultMatcher(t).Hint(`FATAL: password authentication failed for user "app"`)
	if !strings.Contains(hint, "pg_hba.conf") {
		t.Fatalf("unexpected hint: %q", hint)
	}
}

func TestHint_DatabaseDoesNotExist(t *testing.T) {
	t.Parallel()
	hint := defaultMatcher(t).Hint(`FATAL: database "appdb" does not exist`)
	if !strings.Contains(hint, "database name") {
		t.Fatalf("unexpected hint: %q", hint)
	}
}

func TestHint_NoMatch(t *testing.T) {
	t.Parallel()
	if hint := defaultMatcher(t).Hint("some entirely unrelated failure"); hint != "" {
		t.Fatalf("expected no hint, got %q", hint)
	}
}

func TestHint_ExtraRulesWinOverDefaults(t *testing.T) {
	t.Parallel()
	m, err := NewMatcher([]Rule{
		{Pattern: `(?i)connection refused`, Message: "Ask the DBA team in #db-support."},
	})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	hint := m.Hint("connect: connection refused")
	if hint != "Ask the DBA team in #db-support." {
		t.Fatalf("extra rule should take precedence, got %q", hint)
	}
}

func TestAnnotate_AppendsHint(t *testing.T) {
	t.Parallel()
	out := defaultMatcher(t).Annotate("connect: connection refused")
	if !strings.Contains(out, "\nHint: ") {
		t.Fatalf("expected annotated message, got %q", out)
	}
	if !strings.HasPrefix(out, "connect: connection refused") {
		t.Fatalf("original message must be preserved, got %q", out)
	}
}

func TestAnnotate_NoMatchReturnsUnchanged(t *testing.T) {
	t.Parallel()
	msg := "unrelated failure"
	if out := defaultMatcher(t).Annotate(msg); out != msg {
		t.Fatalf("expected message unchanged, got %q", out)
	}
}

func TestNewMatcher_InvalidPattern(t *testing.T) {
	t.Parallel()
	if _, err := NewMatcher([]Rule{{Pattern: `([`, Message: "x"}}); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}
