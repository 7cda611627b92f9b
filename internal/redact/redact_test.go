package redact

import (
	"testing"
)

func emailRedactor(t *testing.T) *Redactor {
	t.Helper()
	r, err := NewRedactor([]Rule{
		{Pattern: `[\w.+-]+@[\w-]+\.[\w.]+`, Replacement: "[EMAIL]"},
	})
	if err != nil {
		t.Fatalf("NewRedactor: %v", err)
	}
	return r
}

func TestRows_RedactsStringValues(t *testing.T) {
	t.Parallel()
	rows := []map[string]interface{}{
		{"id": 1, "email": "alice@example.com"},
	}
	out := emailRedactor(t).Rows(rows)
	if out[0]["email"] != "[EMAIL]" {
		t.Fatalf("expected redacted email, got %v", out[0]["email"])
	}
	if out[0]["id"] != 1 {
		t.Fatalf("non-string values must pass through, got %v", out[0]["id"])
	}
}

func TestRows_RecursesIntoNestedValues(t *testing.T) {
	t.Parallel()
	rows := []map[string]interface{}{
		{
			"profile": map[string]interface{}{"contact": "bob@example.com"},
			"aliases": []interface{}{"carol@example.com", 42},
		},
	}
	out := emailRedactor(t).Rows(rows)
	profile := out[0]["profile"].(map[string]interface{})
	if profile["contact"] != "[EMAIL]" {
		t.Fatalf("nested map not redacted: %v", profile)
	}
	aliases := out[0]["aliases"].([]interface{})
	if aliases[0] != "[EMAIL]" || aliases[1] != 42 {
		t.Fatalf("nested slice not redacted correctly: %v", aliases)
	}
}

func TestRows_NoRulesReturnsInputUnchanged(t *testing.T) {
	t.Parallel()
	r, err := NewRedactor(nil)
	if err != nil {
		t.Fatalf("NewRedactor: %v", err)
	}
	if r.HasRules() {
		t.Fatal("expected no rules")
	}
	rows := []map[string]interface{}{{"email": "alice@example.com"}}
	out := r.Rows(rows)
	if out[0]["email"] != "alice@example.com" {
		t.Fatalf("expected untouched value, got %v", out[0]["email"])
	}
}

func TestRows_MultipleRulesApplyInOrder(t *testing.T) {
	t.Parallel()
	r, err := NewRedactor([]Rule{
		{Pattern: `\d{3}-\d{2}-\d{4}`, Replacement: "[SSN]"},
		{Pattern: `secret`, Replacement: "[REDACTED]"},
	})
	if err != nil {
		t.Fatalf("NewRedactor: %v", err)
	}
	rows := []map[string]interface{}{{"note": "ssn 123-45-6789 is secret"}}
	out := r.Rows(rows)
	if out[0]["note"] != "ssn [SSN] is [REDACTED]" {
		t.Fatalf("unexpected result: %v", out[0]["note"])
	}
}

func TestNewRedactor_InvalidPattern(t *testing.T) {
	t.Parallel()
	if _, err := NewRedactor([]Rule{{Pattern: `([`, Replacement: "x"}}); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}
