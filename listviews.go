package romcp

import (
	"context"
	"fmt"
)

const listViewsSQL = `
SELECT table_schema, table_name
FROM information_schema.views
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
`

// ListViews returns all views visible to the current user as "schema.name"
// strings, optionally filtered to a single schema.
func (p *ReadOnlyMcp) ListViews(ctx context.Context, input ListViewsInput) (*ListViewsOutput, error) {
	names, err := p.listCatalogNames(ctx, "list_views", listViewsSQL, input.SchemaFilter)
	if err != nil {
		return nil, err
	}

	output := &ListViewsOutput{
		Database:  p.database,
		Server:    p.server,
		ViewCount: len(names),
		Views:     capEntries(names),
	}
	if len(names) > catalogEntryCap {
		output.Note = fmt.Sprintf("Showing first %d of %d views. Use schema_filter to narrow results.", catalogEntryCap, len(names))
	}
	return output, nil
}
