package schema

import "context"

// Introspecter is the schema metadata surface the core needs from the
// execution engine. Resolution reads it synchronously during a single
// statement-build pass; the core never caches results across builds.
type Introspecter interface {
	// Columns returns the column names of a table, in declaration order.
	Columns(ctx context.Context, table string) ([]string, error)

	// PrimaryKey describes the primary key of a table.
	PrimaryKey(ctx context.Context, table string) (PrimaryKeyInfo, error)

	// ForeignKeys returns the foreign keys declared on a table.
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
}

// PrimaryKeyInfo describes a table's primary key.
type PrimaryKeyInfo struct {
	// Columns are the primary key columns, in key order.
	// For rowid tables without an explicit primary key this is the rowid.
	Columns []string

	// RowIDColumn is the column aliasing the rowid, or "" when none does.
	RowIDColumn string

	// TableHasRowID is false for WITHOUT ROWID tables.
	TableHasRowID bool
}

// FastColumn returns the single primary key column when one exists.
func (pk PrimaryKeyInfo) FastColumn() (string, bool) {
	if len(pk.Columns) == 1 {
		return pk.Columns[0], true
	}
	return "", false
}

// ForeignKey is one declared foreign key: the destination table plus the
// ordered origin-to-destination column mapping.
type ForeignKey struct {
	DestinationTable string
	Mapping          []ColumnPair
}

// ColumnPair maps an origin column to a destination column.
type ColumnPair struct {
	Origin      string
	Destination string
}
