package romcp

// ReadDataInput is the input for the read_data tool.
type ReadDataInput struct {
	Query   string `json:"query"`
	MaxRows int    `json:"max_rows"`
}

// ReadDataOutput is the output of the read_data tool.
type ReadDataOutput struct {
	Columns  []string                 `json:"columns"`
	RowCount int                      `json:"row_count"`
	MaxRows  int                      `json:"max_rows"`
	Data     []map[string]interface{} `json:"data"`
	Note     string                   `json:"note,omitempty"`
}

// ListTablesInput is the input for the list_tables tool.
type ListTablesInput struct {
	SchemaFilter string `json:"schema_filter"`
}

// ListTablesOutput is the output of the list_tables tool. Tables are
// "schema.name" strings, capped at catalogEntryCap entries.
type ListTablesOutput struct {
	Database   string   `json:"database"`
	Server     string   `json:"server"`
	TableCount int      `json:"table_count"`
	Tables     []string `json:"tables"`
	Note       string   `json:"note,omitempty"`
}

// ListViewsInput is the input for the list_views tool.
type ListViewsInput struct {
	SchemaFilter string `json:"schema_filter"`
}

// ListViewsOutput is the output of the list_views tool.
type ListViewsOutput struct {
	Database  string   `json:"database"`
	Server    string   `json:"server"`
	ViewCount int      `json:"view_count"`
	Views     []string `json:"views"`
	Note      string   `json:"note,omitempty"`
}

// DescribeTableInput is the input for the describe_table tool. TableName
// may include the schema ("public.orders"); bare names default to public.
type DescribeTableInput struct {
	TableName string `json:"table_name"`
}

// ColumnInfo describes a single column.
type ColumnInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Nullable  bool   `json:"nullable"`
	MaxLength int    `json:"max_length,omitempty"`
	Precision int    `json:"precision,omitempty"`
	Scale     int    `json:"scale,omitempty"`
	Default   string `json:"default,omitempty"`
}

// DescribeTableOutput is the output of the describe_table tool.
type DescribeTableOutput struct {
	Table       string       `json:"table"`
	ColumnCount int          `json:"column_count"`
	Columns     []ColumnInfo `json:"columns"`
}

// TableRelationshipsInput is the input for the get_table_relationships tool.
type TableRelationshipsInput struct {
	TableName string `json:"table_name"`
}

// OutgoingRelationship is a foreign key from the table to another table.
type OutgoingRelationship struct {
	Constraint       string `json:"constraint"`
	Column           string `json:"column"`
	ReferencesTable  string `json:"references_table"`
	ReferencesColumn string `json:"references_column"`
}

// IncomingRelationship is a foreign key from another table to this one.
type IncomingRelationship struct {
	Constraint string `json:"constraint"`
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToColumn   string `json:"to_column"`
}

// TableRelationshipsOutput is the output of the get_table_relationships tool.
type TableRelationshipsOutput struct {
	Table         string                 `json:"table"`
	Outgoing      []OutgoingRelationship `json:"outgoing_relationships"`
	Incoming      []IncomingRelationship `json:"incoming_relationships"`
	OutgoingCount int                    `json:"outgoing_count"`
	IncomingCount int                    `json:"incoming_count"`
}

// HealthOutput is the result of a health check.
type HealthOutput struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Server   string `json:"server"`
}
