package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jvjones/postgres-readonly-mcp/internal/meta"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "goromcp",
		Short:         "Read-only PostgreSQL MCP server",
		Long:          "goromcp exposes a PostgreSQL database to AI agents over the Model Context Protocol, restricted to SELECT queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: romcp.toml in the working directory)")
	root.PersistentFlags().String("host", "localhost", "database host")
	root.PersistentFlags().Int("port", 5432, "database port")
	root.PersistentFlags().String("dbname", "postgres", "database name")
	root.PersistentFlags().String("user", "", "database user")
	root.PersistentFlags().String("sslmode", "prefer", "sslmode (disable, prefer, require, verify-full)")
	root.PersistentFlags().String("transport", "stdio", "MCP transport (stdio or http)")
	root.PersistentFlags().Int("http-port", 8080, "listen port for http transport")
	root.PersistentFlags().Int("max-retries", 3, "retries for transient database errors")
	root.PersistentFlags().Int("query-timeout", 30, "query timeout in seconds")
	root.PersistentFlags().Int("max-rows", 100, "default row cap for read_data")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "json", "log format (json or text)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the goromcp version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("goromcp", meta.Version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
