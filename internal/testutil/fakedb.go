package testutil

import (
	"context"
	"fmt"

	"github.com/roach88/relq/internal/schema"
)

// FakeDB is an in-memory schema.Introspecter for tests that must not touch
// a real database.
//
// Unlike store.Store it answers from declared fixtures, so statement
// generation stays deterministic and byte-stable across runs.
//
// Thread-safety: FakeDB is immutable after construction and safe for
// concurrent use.
type FakeDB struct {
	tables map[string]FakeTable
}

// FakeTable declares one table's metadata.
type FakeTable struct {
	Columns     []string
	PrimaryKey  schema.PrimaryKeyInfo
	ForeignKeys []schema.ForeignKey
}

// NewFakeDB creates an introspecter over the given tables, keyed by name.
func NewFakeDB(tables map[string]FakeTable) *FakeDB {
	return &FakeDB{tables: tables}
}

// Columns implements schema.Introspecter.
func (db *FakeDB) Columns(_ context.Context, table string) ([]string, error) {
	t, err := db.table(table)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}

// PrimaryKey implements schema.Introspecter.
func (db *FakeDB) PrimaryKey(_ context.Context, table string) (schema.PrimaryKeyInfo, error) {
	t, err := db.table(table)
	if err != nil {
		return schema.PrimaryKeyInfo{}, err
	}
	if len(t.PrimaryKey.Columns) == 0 {
		return schema.PrimaryKeyInfo{Columns: []string{"rowid"}, TableHasRowID: true}, nil
	}
	return t.PrimaryKey, nil
}

// ForeignKeys implements schema.Introspecter.
func (db *FakeDB) ForeignKeys(_ context.Context, table string) ([]schema.ForeignKey, error) {
	t, err := db.table(table)
	if err != nil {
		return nil, err
	}
	return t.ForeignKeys, nil
}

func (db *FakeDB) table(name string) (FakeTable, error) {
	t, ok := db.tables[name]
	if !ok {
		return FakeTable{}, fmt.Errorf("no such table: %q", name)
	}
	return t, nil
}

// IntegerPrimaryKey is shorthand for a rowid-aliasing single-column key.
func IntegerPrimaryKey(column string) schema.PrimaryKeyInfo {
	return schema.PrimaryKeyInfo{
		Columns:       []string{column},
		RowIDColumn:   column,
		TableHasRowID: true,
	}
}

// SimpleForeignKey declares a single-column foreign key.
func SimpleForeignKey(destinationTable, originColumn, destinationColumn string) schema.ForeignKey {
	return schema.ForeignKey{
		DestinationTable: destinationTable,
		Mapping: []schema.ColumnPair{
			{Origin: originColumn, Destination: destinationColumn},
		},
	}
}
