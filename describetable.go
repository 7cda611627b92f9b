package romcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jvjones/postgres-readonly-mcp/internal/mcperr"
)

const describeTableSQL = `
SELECT
    column_name,
    data_type,
    is_nullable,
    COALESCE(character_maximum_length, 0),
    COALESCE(numeric_precision, 0),
    COALESCE(numeric_scale, 0),
    COALESCE(column_default, '')
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position
`

// DescribeTable returns column metadata for a table or view. The name may
// be schema-qualified ("analytics.events"); bare names resolve in public.
func (p *ReadOnlyMcp) DescribeTable(ctx context.Context, input DescribeTableInput) (*DescribeTableOutput, error) {
	startTime := time.Now()

	schema, table, err := splitTableName(input.TableName)
	if err != nil {
		return nil, err
	}

	if err := p.acquireSlot(ctx, "describe_table"); err != nil {
		return nil, err
	}
	defer p.releaseSlot()

	catalogTimeout := time.Duration(p.config.Query.CatalogTimeoutSeconds) * time.Second

	var columns []ColumnInfo
	err = p.runWithRetry(ctx, "describe_table", catalogTimeout, func(attemptCtx context.Context) error {
		conn, err := p.pool.Acquire(attemptCtx)
		if err != nil {
			return err
		}
		defer conn.Release()

		rows, err := conn.Query(attemptCtx, describeTableSQL, schema, table)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns = columns[:0]
		for rows.Next() {
			var (
				col      ColumnInfo
				nullable string
			)
			if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.MaxLength, &col.Precision, &col.Scale, &col.Default); err != nil {
				return err
			}
			col.Nullable = nullable == "YES"
			columns = append(columns, col)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, p.classifyDriverError(err, "describe_table", describeTableSQL, catalogTimeout)
	}

	if len(columns) == 0 {
		return nil, mcperr.NewValidation(
			fmt.Sprintf("Table '%s.%s' not found or not accessible to the current user", schema, table),
			"table_name", input.TableName,
		)
	}

	p.logger.Info().
		Str("tool", "describe_table").
		Str("table", schema+"."+table).
		Dur("duration", time.Since(startTime)).
		Int("column_count", len(columns)).
		Msg("table described")

	return &DescribeTableOutput{
		Table:       schema + "." + table,
		ColumnCount: len(columns),
		Columns:     columns,
	}, nil
}

// splitTableName splits an optionally schema-qualified name. Names are
// passed as query parameters afterwards, so no quoting or escaping is
// applied here; only the shape is validated.
func splitTableName(name string) (schema, table string, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", mcperr.NewValidation("table_name cannot be empty", "table_name", name)
	}
	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		return "public", parts[0], nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", mcperr.NewValidation("table_name has an empty schema or table part", "table_name", name)
		}
		return parts[0], parts[1], nil
	default:
		return "", "", mcperr.NewValidation("table_name must be 'table' or 'schema.table'", "table_name", name)
	}
}
