package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	romcp "github.com/jvjones/postgres-readonly-mcp"
	"github.com/jvjones/postgres-readonly-mcp/internal/configload"
	"github.com/jvjones/postgres-readonly-mcp/internal/meta"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command) error {
	ctx := context.Background()

	serverConfig, fileUsed, err := configload.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if errs := serverConfig.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(errs, "\n  "))
	}

	logger := setupLogger(serverConfig.Logging)
	if fileUsed != "" {
		logger.Info().Str("config_file", fileUsed).Msg("loaded config file")
	}

	// ROMCP_PG_CONNSTRING short-circuits the connection settings entirely;
	// otherwise credentials are prompted so they never live in the config
	// file or process table.
	connString := os.Getenv("ROMCP_PG_CONNSTRING")
	if connString == "" {
		user := serverConfig.Connection.User
		if user == "" {
			user = promptInput("Username: ")
		}
		password := os.Getenv("ROMCP_PG_PASSWORD")
		if password == "" {
			password = promptPassword("Password: ")
		}
		connString = buildConnString(serverConfig.Connection, user, password)
	}

	serverName := fmt.Sprintf("%s:%d", serverConfig.Connection.Host, serverConfig.Connection.Port)
	roMcp, err := romcp.New(ctx, connString, serverName, serverConfig.Connection.DBName, serverConfig.Config, logger)
	if err != nil {
		return fmt.Errorf("failed to create server engine: %w", err)
	}
	defer roMcp.Close(ctx)

	logger.Info().Msg("testing database connection")
	if err := roMcp.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("database connection test failed")
		return fmt.Errorf("database connection test failed: %w", err)
	}
	logger.Info().Msg("database connection test successful")

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		logger.Info().
			Str("client_name", req.Params.ClientInfo.Name).
			Str("client_version", req.Params.ClientInfo.Version).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("goromcp", meta.Version,
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)
	romcp.RegisterMCPTools(mcpServer, roMcp)

	if serverConfig.Server.Transport == "stdio" {
		logger.Info().Msg("starting goromcp server on stdio")
		return server.ServeStdio(mcpServer)
	}
	return serveHTTP(ctx, mcpServer, roMcp, serverConfig, logger)
}

// serveHTTP runs the streamable HTTP transport with an optional health
// check endpoint that reports actual database connectivity.
func serveHTTP(ctx context.Context, mcpServer *server.MCPServer, roMcp *romcp.ReadOnlyMcp, serverConfig *romcp.ServerConfig, logger zerolog.Logger) error {
	addr := fmt.Sprintf(":%d", serverConfig.Server.Port)
	mux := http.NewServeMux()

	if serverConfig.Server.HealthCheckEnabled {
		mux.HandleFunc(serverConfig.Server.HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			if _, err := roMcp.CheckHealth(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"healthy"}`))
		})
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)

	// Start() does not register the MCP handler when a custom *http.Server
	// is provided, so wire it by hand.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", serverConfig.Server.Port).Msg("starting goromcp server")
	return streamableServer.Start(addr)
}

func buildConnString(conn romcp.ConnectionConfig, username, password string) string {
	parts := []string{}
	if conn.Host != "" {
		parts = append(parts, fmt.Sprintf("host=%s", conn.Host))
	}
	if conn.Port > 0 {
		parts = append(parts, fmt.Sprintf("port=%d", conn.Port))
	}
	if conn.DBName != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", conn.DBName))
	}
	if username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", username))
	}
	if password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", password))
	}
	if conn.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", conn.SSLMode))
	}
	if conn.ConnectTimeoutSeconds > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", conn.ConnectTimeoutSeconds))
	}
	return strings.Join(parts, " ")
}

func setupLogger(config romcp.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if config.Output == "stdout" {
		output = os.Stdout
	} else if config.Output != "" && config.Output != "stderr" {
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func promptInput(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	var input string
	fmt.Scanln(&input)
	return input
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return ""
	}
	return string(password)
}
