package romcp

import (
	"context"
	"time"
)

// Outgoing: foreign keys declared on the table itself.
const outgoingRelationshipsSQL = `
SELECT
    tc.constraint_name,
    kcu.column_name,
    ccu.table_schema || '.' || ccu.table_name,
    ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
    ON tc.constraint_name = kcu.constraint_name
   AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
    ON tc.constraint_name = ccu.constraint_name
   AND tc.table_schema = ccu.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_schema = $1
  AND tc.table_name = $2
ORDER BY tc.constraint_name
`

// Incoming: foreign keys on other tables that reference this one.
const incomingRelationshipsSQL = `
SELECT
    tc.constraint_name,
    tc.table_schema || '.' || tc.table_name,
    kcu.column_name,
    ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
    ON tc.constraint_name = kcu.constraint_name
   AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
    ON tc.constraint_name = ccu.constraint_name
   AND tc.table_schema = ccu.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND ccu.table_schema = $1
  AND ccu.table_name = $2
ORDER BY tc.constraint_name
`

// GetTableRelationships returns the foreign key relationships a table
// participates in, in both directions. A table with no foreign keys yields
// empty slices rather than an error so the caller can tell "isolated table"
// from "table not found" via describe_table.
func (p *ReadOnlyMcp) GetTableRelationships(ctx context.Context, input TableRelationshipsInput) (*TableRelationshipsOutput, error) {
	startTime := time.Now()

	schema, table, err := splitTableName(input.TableName)
	if err != nil {
		return nil, err
	}

	if err := p.acquireSlot(ctx, "get_table_relationships"); err != nil {
		return nil, err
	}
	defer p.releaseSlot()

	catalogTimeout := time.Duration(p.config.Query.CatalogTimeoutSeconds) * time.Second

	outgoing := make([]OutgoingRelationship, 0)
	incoming := make([]IncomingRelationship, 0)
	err = p.runWithRetry(ctx, "get_table_relationships", catalogTimeout, func(attemptCtx context.Context) error {
		conn, err := p.pool.Acquire(attemptCtx)
		if err != nil {
			return err
		}
		defer conn.Release()

		outgoing = outgoing[:0]
		rows, err := conn.Query(attemptCtx, outgoingRelationshipsSQL, schema, table)
		if err != nil {
			return err
		}
		for rows.Next() {
			var rel OutgoingRelationship
			if err := rows.Scan(&rel.Constraint, &rel.Column, &rel.ReferencesTable, &rel.ReferencesColumn); err != nil {
				rows.Close()
				return err
			}
			outgoing = append(outgoing, rel)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		incoming = incoming[:0]
		rows, err = conn.Query(attemptCtx, incomingRelationshipsSQL, schema, table)
		if err != nil {
			return err
		}
		for rows.Next() {
			var rel IncomingRelationship
			if err := rows.Scan(&rel.Constraint, &rel.FromTable, &rel.FromColumn, &rel.ToColumn); err != nil {
				rows.Close()
				return err
			}
			incoming = append(incoming, rel)
		}
		rows.Close()
		return rows.Err()
	})
	if err != nil {
		return nil, p.classifyDriverError(err, "get_table_relationships", outgoingRelationshipsSQL, catalogTimeout)
	}

	p.logger.Info().
		Str("tool", "get_table_relationships").
		Str("table", schema+"."+table).
		Dur("duration", time.Since(startTime)).
		Int("outgoing", len(outgoing)).
		Int("incoming", len(incoming)).
		Msg("relationships listed")

	return &TableRelationshipsOutput{
		Table:         schema + "." + table,
		Outgoing:      outgoing,
		Incoming:      incoming,
		OutgoingCount: len(outgoing),
		IncomingCount: len(incoming),
	}, nil
}
