package romcp

import (
	"fmt"
	"regexp"
)

// Config is the base configuration used by library mode via New().
type Config struct {
	Pool       PoolConfig      `json:"pool"`
	Query      QueryConfig     `json:"query"`
	Retry      RetryConfig     `json:"retry"`
	Security   SecurityConfig  `json:"security"`
	Redaction  []RedactionRule `json:"redaction"`
	ErrorHints []ErrorHintRule `json:"error_hints"`
}

// ServerConfig embeds Config and adds server-only fields for CLI mode.
type ServerConfig struct {
	Config
	Connection ConnectionConfig `json:"connection"`
	Server     ServerSettings   `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
}

// ConnectionConfig holds database connection parameters used by CLI mode.
type ConnectionConfig struct {
	Host                  string `json:"host"`
	Port                  int    `json:"port"`
	DBName                string `json:"dbname"`
	User                  string `json:"user"`
	SSLMode               string `json:"sslmode"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxConns        int    `json:"max_conns"`
	MinConns        int    `json:"min_conns"`
	MaxConnLifetime string `json:"max_conn_lifetime"`
	MaxConnIdleTime string `json:"max_conn_idle_time"`
}

// QueryConfig holds query execution settings.
type QueryConfig struct {
	// TimeoutSeconds bounds every read_data statement, range [1,3600].
	TimeoutSeconds int `json:"timeout_seconds"`
	// CatalogTimeoutSeconds bounds the schema-introspection tools.
	CatalogTimeoutSeconds int `json:"catalog_timeout_seconds"`
	// DefaultMaxRows is the row cap when the caller does not pass max_rows.
	DefaultMaxRows int           `json:"default_max_rows"`
	TimeoutRules   []TimeoutRule `json:"timeout_rules"`
}

// RetryConfig bounds the transient-error retry loop. Loaded once at process
// start, never mutated afterwards, shared read-only by every call.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt,
	// range [0,10].
	MaxRetries int `json:"max_retries"`
	// BaseDelaySeconds scales the exponential backoff, range [0.0,60.0].
	BaseDelaySeconds float64 `json:"base_delay_seconds"`
}

// SecurityConfig controls the read-only security gate.
type SecurityConfig struct {
	// DenyKeywords overrides the built-in deny-list when non-empty.
	DenyKeywords []string `json:"deny_keywords"`
	// StructuralCheck additionally requires queries to parse as a single
	// SELECT statement.
	StructuralCheck bool `json:"structural_check"`
}

// TimeoutRule maps a SQL pattern to a specific timeout duration.
type TimeoutRule struct {
	Pattern        string `json:"pattern"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// RedactionRule defines a regex-based result field redaction rule.
type RedactionRule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`
}

// ErrorHintRule maps an error message pattern to a guidance message.
type ErrorHintRule struct {
	Pattern string `json:"pattern"`
	Message string `json:"message"`
}

// ServerSettings holds transport settings for CLI mode.
type ServerSettings struct {
	Transport          string `json:"transport"` // stdio, http
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
}

// LoggingConfig holds logging settings for CLI mode.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stderr, stdout, or file path
}

// hardMaxRows is the ceiling on read_data's max_rows parameter.
const hardMaxRows = 1000

// Validate returns the list of configuration violations, empty if valid.
// Used by the CLI before constructing the engine so operators see every
// problem at once instead of one per run.
func (c *ServerConfig) Validate() []string {
	var errs []string

	if c.Connection.Host == "" {
		errs = append(errs, "connection.host cannot be empty")
	}
	if c.Connection.Port <= 0 || c.Connection.Port > 65535 {
		errs = append(errs, fmt.Sprintf("connection.port must be in [1,65535] (got %d)", c.Connection.Port))
	}
	if c.Connection.DBName == "" {
		errs = append(errs, "connection.dbname cannot be empty")
	}
	if c.Connection.ConnectTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("connection.connect_timeout_seconds must be positive (got %d)", c.Connection.ConnectTimeoutSeconds))
	} else if c.Connection.ConnectTimeoutSeconds > 300 {
		errs = append(errs, fmt.Sprintf("connection.connect_timeout_seconds too large (got %d, max 300)", c.Connection.ConnectTimeoutSeconds))
	}

	if c.Pool.MaxConns <= 0 {
		errs = append(errs, fmt.Sprintf("pool.max_conns must be positive (got %d)", c.Pool.MaxConns))
	}

	if c.Query.TimeoutSeconds < 1 || c.Query.TimeoutSeconds > 3600 {
		errs = append(errs, fmt.Sprintf("query.timeout_seconds must be in [1,3600] (got %d)", c.Query.TimeoutSeconds))
	}
	if c.Query.CatalogTimeoutSeconds < 1 || c.Query.CatalogTimeoutSeconds > 3600 {
		errs = append(errs, fmt.Sprintf("query.catalog_timeout_seconds must be in [1,3600] (got %d)", c.Query.CatalogTimeoutSeconds))
	}
	if c.Query.DefaultMaxRows < 1 || c.Query.DefaultMaxRows > hardMaxRows {
		errs = append(errs, fmt.Sprintf("query.default_max_rows must be in [1,%d] (got %d)", hardMaxRows, c.Query.DefaultMaxRows))
	}

	if c.Retry.MaxRetries < 0 || c.Retry.MaxRetries > 10 {
		errs = append(errs, fmt.Sprintf("retry.max_retries must be in [0,10] (got %d)", c.Retry.MaxRetries))
	}
	if c.Retry.BaseDelaySeconds < 0 || c.Retry.BaseDelaySeconds > 60 {
		errs = append(errs, fmt.Sprintf("retry.base_delay_seconds must be in [0.0,60.0] (got %g)", c.Retry.BaseDelaySeconds))
	}

	switch c.Server.Transport {
	case "stdio":
	case "http":
		if c.Server.Port <= 0 {
			errs = append(errs, fmt.Sprintf("server.port must be positive for http transport (got %d)", c.Server.Port))
		}
		if c.Server.HealthCheckEnabled && c.Server.HealthCheckPath == "" {
			errs = append(errs, "server.health_check_path must be set when server.health_check_enabled is true")
		}
	default:
		errs = append(errs, fmt.Sprintf("server.transport must be 'stdio' or 'http' (got %q)", c.Server.Transport))
	}

	for i, rule := range c.Query.TimeoutRules {
		if rule.TimeoutSeconds <= 0 {
			errs = append(errs, fmt.Sprintf("query.timeout_rules[%d] timeout_seconds must be positive", i))
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			errs = append(errs, fmt.Sprintf("query.timeout_rules[%d] regex does not compile: %v", i, err))
		}
	}
	for i, rule := range c.Redaction {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			errs = append(errs, fmt.Sprintf("redaction[%d] regex does not compile: %v", i, err))
		}
	}
	for i, rule := range c.ErrorHints {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			errs = append(errs, fmt.Sprintf("error_hints[%d] regex does not compile: %v", i, err))
		}
	}

	return errs
}
