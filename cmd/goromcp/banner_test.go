package main

import (
	"bytes"
	"strings"
	"testing"

	romcp "github.com/jvjones/postgres-readonly-mcp"
)

func TestPrintBannerWithColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	printBanner(&buf, true)
	output := buf.String()

	// Should contain ANSI escape codes
	if !strings.Contains(output, "\033[") {
		t.Fatal("expected ANSI escape codes in colored banner output")
	}

	// Should contain reset codes
	if !strings.Contains(output, "\033[0m") {
		t.Fatal("expected ANSI reset code in colored banner output")
	}

	// Should contain ASCII art fragments
	if !strings.Contains(output, `___`) {
		t.Fatal("expected ASCII art underscores in banner output")
	}
	if !strings.Contains(output, `|`) {
		t.Fatal("expected ASCII art pipes in banner output")
	}
}

func TestPrintBannerWithoutColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	printBanner(&buf, false)
	output := buf.String()

	// Should NOT contain ANSI escape codes
	if strings.Contains(output, "\033[") {
		t.Fatal("expected no ANSI escape codes in plain banner output")
	}

	// Should still contain ASCII art fragments
	if !strings.Contains(output, `___`) {
		t.Fatal("expected ASCII art underscores in plain banner output")
	}
	if !strings.Contains(output, `|`) {
		t.Fatal("expected ASCII art pipes in plain banner output")
	}
}

func TestBuildConnString(t *testing.T) {
	t.Parallel()
	conn := romcp.ConnectionConfig{
		Host: "db.internal", Port: 5433, DBName: "appdb",
		SSLMode: "require", ConnectTimeoutSeconds: 15,
	}
	got := buildConnString(conn, "svc", "s3cret")
	want := "host=db.internal port=5433 dbname=appdb user=svc password=s3cret sslmode=require connect_timeout=15"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildConnString_OmitsEmptyParts(t *testing.T) {
	t.Parallel()
	conn := romcp.ConnectionConfig{Host: "localhost", Port: 5432, DBName: "postgres"}
	got := buildConnString(conn, "", "")
	if strings.Contains(got, "user=") || strings.Contains(got, "password=") || strings.Contains(got, "sslmode=") {
		t.Fatalf("empty parts must be omitted: %q", got)
	}
}

func TestSetupLogger_Levels(t *testing.T) {
	t.Parallel()
	logger := setupLogger(romcp.LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
	if logger.GetLevel().String() != "debug" {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}
	logger = setupLogger(romcp.LoggingConfig{Level: "error", Format: "json", Output: "stderr"})
	if logger.GetLevel().String() != "error" {
		t.Fatalf("expected error level, got %s", logger.GetLevel())
	}
}
