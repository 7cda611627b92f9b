// Package meta holds build metadata.
package meta

// Version is the goromcp release version, overridable at build time via
// -ldflags "-X github.com/jvjones/postgres-readonly-mcp/internal/meta.Version=...".
var Version = "dev"
