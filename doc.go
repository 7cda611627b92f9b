// Package romcp provides read-only PostgreSQL access for AI agents through
// the Model Context Protocol (MCP).
//
// It exposes five tools: ReadData, ListTables, ListViews, DescribeTable,
// and GetTableRelationships. Every query passes a security gate that only
// admits SELECT statements, rejects queries containing write or DDL
// keywords, and can optionally verify the statement's structure with
// PostgreSQL's actual C parser via pg_query. On top of the gate, each
// pooled session runs with default_transaction_read_only enabled, so the
// database itself refuses writes even if a hostile query slips through.
//
// Transient failures (connection drops, serialization conflicts, pool
// exhaustion) are retried with exponential backoff before surfacing.
// Failures of any kind reach the client as a structured JSON error with a
// stable kind, a human-readable message, and diagnostic details; a tool
// call never raises a protocol-level error.
//
// # Library Usage
//
//	p, err := romcp.New(ctx, connString, "db.internal:5432", "appdb", romcp.Config{
//		Pool: romcp.PoolConfig{MaxConns: 5},
//		Query: romcp.QueryConfig{
//			TimeoutSeconds:        30,
//			CatalogTimeoutSeconds: 10,
//			DefaultMaxRows:        100,
//		},
//		Retry: romcp.RetryConfig{MaxRetries: 3, BaseDelaySeconds: 1.0},
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close(ctx)
//
//	// Use directly
//	output, err := p.ReadData(ctx, romcp.ReadDataInput{Query: "SELECT * FROM users LIMIT 10"})
//
//	// Or register as MCP tools
//	romcp.RegisterMCPTools(mcpServer, p)
package romcp
