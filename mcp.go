package romcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jvjones/postgres-readonly-mcp/internal/mcperr"
)

// RegisterMCPTools registers read_data, list_tables, list_views,
// describe_table, and get_table_relationships as MCP tools on the given
// MCP server.
func RegisterMCPTools(mcpServer *server.MCPServer, roMcp *ReadOnlyMcp) {
	// ReadData tool
	readDataTool := mcp.NewTool("read_data",
		mcp.WithDescription("Execute a read-only SELECT query against the PostgreSQL database. Returns results as JSON."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The SELECT query to execute"),
		),
		mcp.WithNumber("max_rows",
			mcp.Description("Maximum number of rows to return (default 100, capped at 1000)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(readDataTool, roMcp.invoke("read_data", func(ctx context.Context, req mcp.CallToolRequest) (interface{}, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, mcperr.NewValidation("query parameter is required", "query", "")
		}
		maxRows := req.GetInt("max_rows", 0)
		return roMcp.ReadData(ctx, ReadDataInput{Query: query, MaxRows: maxRows})
	}))

	// ListTables tool
	listTablesTool := mcp.NewTool("list_tables",
		mcp.WithDescription("List all base tables in the database accessible to the current user, as schema-qualified names."),
		mcp.WithString("schema_filter",
			mcp.Description("Only list tables in this schema"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(listTablesTool, roMcp.invoke("list_tables", func(ctx context.Context, req mcp.CallToolRequest) (interface{}, error) {
		return roMcp.ListTables(ctx, ListTablesInput{SchemaFilter: req.GetString("schema_filter", "")})
	}))

	// ListViews tool
	listViewsTool := mcp.NewTool("list_views",
		mcp.WithDescription("List all views in the database accessible to the current user, as schema-qualified names."),
		mcp.WithString("schema_filter",
			mcp.Description("Only list views in this schema"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(listViewsTool, roMcp.invoke("list_views", func(ctx context.Context, req mcp.CallToolRequest) (interface{}, error) {
		return roMcp.ListViews(ctx, ListViewsInput{SchemaFilter: req.GetString("schema_filter", "")})
	}))

	// DescribeTable tool
	describeTableTool := mcp.NewTool("describe_table",
		mcp.WithDescription("Describe the columns of a table or view: names, types, nullability, lengths, and defaults."),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("The table name, optionally schema-qualified (defaults to the public schema)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(describeTableTool, roMcp.invoke("describe_table", func(ctx context.Context, req mcp.CallToolRequest) (interface{}, error) {
		tableName, err := req.RequireString("table_name")
		if err != nil {
			return nil, mcperr.NewValidation("table_name parameter is required", "table_name", "")
		}
		return roMcp.DescribeTable(ctx, DescribeTableInput{TableName: tableName})
	}))

	// GetTableRelationships tool
	relationshipsTool := mcp.NewTool("get_table_relationships",
		mcp.WithDescription("List the foreign key relationships a table participates in, both outgoing and incoming."),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("The table name, optionally schema-qualified (defaults to the public schema)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(relationshipsTool, roMcp.invoke("get_table_relationships", func(ctx context.Context, req mcp.CallToolRequest) (interface{}, error) {
		tableName, err := req.RequireString("table_name")
		if err != nil {
			return nil, mcperr.NewValidation("table_name parameter is required", "table_name", "")
		}
		return roMcp.GetTableRelationships(ctx, TableRelationshipsInput{TableName: tableName})
	}))
}

// toolFunc is a tool body that returns either a JSON-marshalable output or
// an error for the taxonomy to format.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (interface{}, error)

// invoke wraps a tool body so every outcome, success, failure, or panic,
// reaches the client as a JSON text result. Handlers never return a
// protocol-level error; database and validation failures are data the
// model is expected to read and react to.
func (p *ReadOnlyMcp) invoke(tool string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, retErr error) {
		reqLen := requestLength(req)

		defer func() {
			if r := recover(); r != nil {
				p.logger.Error().
					Str("tool", tool).
					Interface("panic", r).
					Msg("tool handler panicked")
				result = mcp.NewToolResultText(mcperr.FormatResponse(fmt.Errorf("panic in %s: %v", tool, r)))
				retErr = nil
			}
		}()

		output, err := fn(ctx, req)
		if err != nil {
			result = mcp.NewToolResultText(mcperr.FormatResponse(err))
		} else {
			jsonBytes, merr := json.Marshal(output)
			if merr != nil {
				result = mcp.NewToolResultText(mcperr.FormatResponse(merr))
			} else {
				result = mcp.NewToolResultText(string(jsonBytes))
			}
		}

		p.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", resultLength(result)).
			Bool("error", err != nil).
			Msg("tool call")
		return result, nil
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
