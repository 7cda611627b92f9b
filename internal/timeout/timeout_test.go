package timeout

import (
	"testing"
	"time"
)

func TestResolve_DefaultWhenNoRules(t *testing.T) {
	t.Parallel()
	m, err := NewManager(Config{DefaultTimeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	d, rule := m.Resolve("SELECT * FROM users")
	if d != 30*time.Second || rule != "" {
		t.Fatalf("expected default timeout, got %v (rule %q)", d, rule)
	}
}

func TestResolve_FirstMatchingRuleWins(t *testing.T) {
	t.Parallel()
	m, err := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules: []Rule{
			{Pattern: `(?i)count\(\*\)`, Timeout: 120 * time.Second},
			{Pattern: `(?i)count`, Timeout: 60 * time.Second},
		},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	d, rule := m.Resolve("SELECT COUNT(*) FROM big_table")
	if d != 120*time.Second {
		t.Fatalf("expected first rule's timeout, got %v", d)
	}
	if rule != `(?i)count\(\*\)` {
		t.Fatalf("expected matched pattern reported, got %q", rule)
	}
}

func TestResolve_NonMatchingRuleFallsThrough(t *testing.T) {
	t.Parallel()
	m, err := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules:          []Rule{{Pattern: `(?i)join`, Timeout: 90 * time.Second}},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if d, _ := m.Resolve("SELECT 1"); d != 30*time.Second {
		t.Fatalf("expected default, got %v", d)
	}
}

func TestNewManager_InvalidPattern(t *testing.T) {
	t.Parallel()
	_, err := NewManager(Config{
		DefaultTimeout: time.Second,
		Rules:          []Rule{{Pattern: `([`, Timeout: time.Second}},
	})
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
}
