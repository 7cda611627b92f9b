// Package configload loads the server configuration from defaults, a TOML
// file, environment variables, and CLI flags, in ascending precedence.
package configload

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	romcp "github.com/jvjones/postgres-readonly-mcp"
)

// EnvPrefix is the prefix for configuration environment variables.
// Nested keys use a double underscore: ROMCP_CONNECTION__HOST maps to
// connection.host, keeping the single underscore free for key names like
// timeout_seconds.
const EnvPrefix = "ROMCP_"

// defaultFileNames are probed in order when no --config flag is given.
var defaultFileNames = []string{"romcp.toml", ".romcp.toml"}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"connection.host":                    "localhost",
		"connection.port":                    5432,
		"connection.dbname":                  "postgres",
		"connection.user":                    "",
		"connection.sslmode":                 "prefer",
		"connection.connect_timeout_seconds": 30,

		"pool.max_conns": 5,
		"pool.min_conns": 0,

		"query.timeout_seconds":         30,
		"query.catalog_timeout_seconds": 10,
		"query.default_max_rows":        100,

		"retry.max_retries":        3,
		"retry.base_delay_seconds": 1.0,

		"security.structural_check": true,

		"server.transport":            "stdio",
		"server.port":                 8080,
		"server.health_check_enabled": true,
		"server.health_check_path":    "/health",

		"logging.level":  "info",
		"logging.format": "json",
		"logging.output": "stderr",
	}
}

// findConfigFile returns the config file to use. An explicit path wins;
// otherwise the default names are probed in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range defaultFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the server configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// An explicit cfgFile that does not exist is an error; missing default
// files are not.
func Load(cfgFile string, flags *pflag.FlagSet) (*romcp.ServerConfig, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	fileUsed := findConfigFile(cfgFile)
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), toml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", fileUsed, err)
		}
	}

	// ROMCP_QUERY__TIMEOUT_SECONDS -> query.timeout_seconds
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// --connect-timeout style flags map to dotted keys via
			// explicit renames; the rest are kebab-to-dotted.
			key := flagKey(f.Name)
			if key == "" {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg romcp.ServerConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, fileUsed, nil
}

// flagKey maps a CLI flag name to its config key. Flags without a mapping
// (e.g. --config itself) are skipped.
func flagKey(name string) string {
	switch name {
	case "host":
		return "connection.host"
	case "port":
		return "connection.port"
	case "dbname":
		return "connection.dbname"
	case "user":
		return "connection.user"
	case "sslmode":
		return "connection.sslmode"
	case "transport":
		return "server.transport"
	case "http-port":
		return "server.port"
	case "max-retries":
		return "retry.max_retries"
	case "query-timeout":
		return "query.timeout_seconds"
	case "max-rows":
		return "query.default_max_rows"
	case "log-level":
		return "logging.level"
	case "log-format":
		return "logging.format"
	default:
		return ""
	}
}
