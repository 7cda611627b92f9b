package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	romcp "github.com/jvjones/postgres-readonly-mcp"
	"github.com/jvjones/postgres-readonly-mcp/internal/configload"
	"github.com/jvjones/postgres-readonly-mcp/internal/meta"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			useColor := isTTY(os.Stderr.Fd())
			return doctor(os.Stderr, useColor, cmd)
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig, fileUsed, err := configload.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if errs := serverConfig.Validate(); len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintf(os.Stderr, "  ✗ %s\n", e)
				}
				return fmt.Errorf("configuration is invalid (%d problems)", len(errs))
			}
			if fileUsed != "" {
				fmt.Printf("Configuration is valid (%s)\n", fileUsed)
			} else {
				fmt.Println("Configuration is valid (defaults only)")
			}
			return nil
		},
	}
}

func doctor(w io.Writer, useColor bool, cmd *cobra.Command) error {
	printBanner(w, useColor)
	fmt.Fprintf(w, "goromcp %s\n\n", meta.Version)

	serverConfig, fileUsed, err := configload.Load(cfgFile, cmd.Flags())
	if err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Config loads: %v", err))
		return nil
	}
	if fileUsed != "" {
		printCheck(w, useColor, true, fmt.Sprintf("Config file readable (%s)", fileUsed))
	} else {
		printCheck(w, useColor, true, "No config file found, using defaults")
	}

	errs := serverConfig.Validate()
	if len(errs) > 0 {
		for _, e := range errs {
			printCheck(w, useColor, false, e)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Fix the issues above and run 'goromcp doctor' again.")
		return nil
	}
	printCheck(w, useColor, true, "Configuration is valid")
	printCheck(w, useColor, true, fmt.Sprintf("Target database: %s@%s:%d/%s",
		serverConfig.Connection.User, serverConfig.Connection.Host,
		serverConfig.Connection.Port, serverConfig.Connection.DBName))

	doctorCheckDatabase(w, useColor, serverConfig)

	fmt.Fprintln(w)
	printAgentSnippets(w, useColor, serverConfig)
	return nil
}

// doctorCheckDatabase attempts a live connection when credentials are
// available from the environment. Without them the check is skipped rather
// than prompting, so doctor stays non-interactive.
func doctorCheckDatabase(w io.Writer, useColor bool, serverConfig *romcp.ServerConfig) {
	connString := os.Getenv("ROMCP_PG_CONNSTRING")
	if connString == "" {
		password := os.Getenv("ROMCP_PG_PASSWORD")
		if password == "" || serverConfig.Connection.User == "" {
			fmt.Fprintln(w, "  - Database connectivity skipped (set ROMCP_PG_CONNSTRING or connection.user + ROMCP_PG_PASSWORD)")
			return
		}
		connString = buildConnString(serverConfig.Connection, serverConfig.Connection.User, password)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	serverName := fmt.Sprintf("%s:%d", serverConfig.Connection.Host, serverConfig.Connection.Port)
	roMcp, err := romcp.New(ctx, connString, serverName, serverConfig.Connection.DBName, serverConfig.Config, zerolog.Nop())
	if err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Database reachable: %v", err))
		return
	}
	defer roMcp.Close(ctx)

	health, err := roMcp.CheckHealth(ctx)
	if err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Database reachable: %v", err))
		return
	}
	version := health.Version
	if i := strings.Index(version, " on "); i > 0 {
		version = version[:i]
	}
	printCheck(w, useColor, true, fmt.Sprintf("Database reachable (%s)", version))
}

// printCheck prints a colored ✓ or ✗ check line.
func printCheck(w io.Writer, useColor bool, pass bool, msg string) {
	if pass {
		if useColor {
			fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", msg)
		} else {
			fmt.Fprintf(w, "  ✓ %s\n", msg)
		}
	} else {
		if useColor {
			fmt.Fprintf(w, "  \033[31m✗\033[0m %s\n", msg)
		} else {
			fmt.Fprintf(w, "  ✗ %s\n", msg)
		}
	}
}

// printAgentSnippets prints MCP connection config snippets for AI agents.
func printAgentSnippets(w io.Writer, useColor bool, config *romcp.ServerConfig) {
	heading := func(title string) {
		if useColor {
			fmt.Fprintf(w, "\033[1;36m%s\033[0m\n", title)
		} else {
			fmt.Fprintln(w, title)
		}
	}
	subheading := func(title string) {
		if useColor {
			fmt.Fprintf(w, "  \033[1m%s\033[0m\n", title)
		} else {
			fmt.Fprintf(w, "  %s\n", title)
		}
	}

	heading("Agent Connection Snippets")
	fmt.Fprintln(w)

	if config.Server.Transport == "stdio" {
		subheading("Claude Code")
		fmt.Fprintf(w, "  Run this command to add the server:\n\n")
		fmt.Fprintf(w, "    claude mcp add postgres-readonly -- goromcp serve\n\n")
		fmt.Fprintf(w, "  Or add to .mcp.json (project scope):\n\n")
		fmt.Fprint(w, `  {
    "mcpServers": {
      "postgres-readonly": {
        "command": "goromcp",
        "args": ["serve"]
      }
    }
  }
`)
		return
	}

	url := fmt.Sprintf("http://localhost:%d/mcp", config.Server.Port)

	subheading("Claude Code")
	fmt.Fprintf(w, "  Run this command to add the server:\n\n")
	fmt.Fprintf(w, "    claude mcp add --transport http postgres-readonly %s\n\n", url)
	fmt.Fprintf(w, "  Or add to .mcp.json (project scope):\n\n")
	fmt.Fprintf(w, `  {
    "mcpServers": {
      "postgres-readonly": {
        "type": "http",
        "url": "%s"
      }
    }
  }
`, url)
	fmt.Fprintln(w)

	subheading("Cursor (.cursor/mcp.json)")
	fmt.Fprintf(w, `  {
    "mcpServers": {
      "postgres-readonly": {
        "url": "%s"
      }
    }
  }
`, url)
}
