package romcp

import (
	"context"
	"fmt"
	"time"
)

// catalogEntryCap bounds the number of names returned by the listing tools
// so a database with tens of thousands of tables does not flood the client.
const catalogEntryCap = 500

const listTablesSQL = `
SELECT table_schema, table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema NOT IN ('pg_catalog', 'information_schema')
`

// ListTables returns all base tables visible to the current user as
// "schema.name" strings, optionally filtered to a single schema.
func (p *ReadOnlyMcp) ListTables(ctx context.Context, input ListTablesInput) (*ListTablesOutput, error) {
	names, err := p.listCatalogNames(ctx, "list_tables", listTablesSQL, input.SchemaFilter)
	if err != nil {
		return nil, err
	}

	output := &ListTablesOutput{
		Database:   p.database,
		Server:     p.server,
		TableCount: len(names),
		Tables:     capEntries(names),
	}
	if len(names) > catalogEntryCap {
		output.Note = fmt.Sprintf("Showing first %d of %d tables. Use schema_filter to narrow results.", catalogEntryCap, len(names))
	}
	return output, nil
}

// listCatalogNames runs a two-column (schema, name) catalog query, with an
// optional parameterized schema filter, through the retry policy.
func (p *ReadOnlyMcp) listCatalogNames(ctx context.Context, tool, baseSQL, schemaFilter string) ([]string, error) {
	startTime := time.Now()

	if err := p.acquireSlot(ctx, tool); err != nil {
		return nil, err
	}
	defer p.releaseSlot()

	sql := baseSQL
	var args []interface{}
	if schemaFilter != "" {
		sql += " AND table_schema = $1"
		args = append(args, schemaFilter)
	}
	sql += " ORDER BY table_schema, table_name"

	catalogTimeout := time.Duration(p.config.Query.CatalogTimeoutSeconds) * time.Second

	var names []string
	err := p.runWithRetry(ctx, tool, catalogTimeout, func(attemptCtx context.Context) error {
		conn, err := p.pool.Acquire(attemptCtx)
		if err != nil {
			return err
		}
		defer conn.Release()

		rows, err := conn.Query(attemptCtx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		names = names[:0]
		for rows.Next() {
			var schema, name string
			if err := rows.Scan(&schema, &name); err != nil {
				return err
			}
			names = append(names, schema+"."+name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, p.classifyDriverError(err, tool, sql, catalogTimeout)
	}

	p.logger.Info().
		Str("tool", tool).
		Dur("duration", time.Since(startTime)).
		Int("count", len(names)).
		Msg("catalog listing executed")

	return names, nil
}

func capEntries(names []string) []string {
	if names == nil {
		return []string{}
	}
	if len(names) > catalogEntryCap {
		return names[:catalogEntryCap]
	}
	return names
}
