// Package store opens SQLite databases and exposes their schema metadata
// to the query builder.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/relq/internal/schema"
)

// Store wraps a SQLite database. It implements schema.Introspecter, so a
// relation can resolve its promises directly against a live database.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Use ":memory:" for a throwaway in-memory database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Query executes a query and returns the resulting rows.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// Exec executes a statement that returns no rows, such as DDL.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// tableColumn is one row of pragma_table_xinfo.
type tableColumn struct {
	name   string
	pkRank int
	typ    string
	hidden int
}

func (s *Store) tableColumns(ctx context.Context, table string) ([]tableColumn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, pk, type, hidden FROM pragma_table_xinfo(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect table %q: %w", table, err)
	}
	defer rows.Close()

	var columns []tableColumn
	for rows.Next() {
		var c tableColumn
		if err := rows.Scan(&c.name, &c.pkRank, &c.typ, &c.hidden); err != nil {
			return nil, fmt.Errorf("failed to scan column info for %q: %w", table, err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no such table: %q", table)
	}
	return columns, nil
}

// Columns returns the visible column names of a table, in declaration order.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	columns, err := s.tableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		// hidden = 1 marks hidden virtual-table columns
		if c.hidden == 1 {
			continue
		}
		names = append(names, c.name)
	}
	return names, nil
}

// PrimaryKey describes a table's primary key. Tables without an explicit
// primary key report the implicit rowid; WITHOUT ROWID tables report
// TableHasRowID = false.
func (s *Store) PrimaryKey(ctx context.Context, table string) (schema.PrimaryKeyInfo, error) {
	columns, err := s.tableColumns(ctx, table)
	if err != nil {
		return schema.PrimaryKeyInfo{}, err
	}

	hasRowID, err := s.tableHasRowID(ctx, table)
	if err != nil {
		return schema.PrimaryKeyInfo{}, err
	}

	var pkColumns []tableColumn
	for _, c := range columns {
		if c.pkRank > 0 {
			pkColumns = append(pkColumns, c)
		}
	}
	// pragma order is cid order; key order follows the pk rank
	for i := 1; i < len(pkColumns); i++ {
		for j := i; j > 0 && pkColumns[j].pkRank < pkColumns[j-1].pkRank; j-- {
			pkColumns[j], pkColumns[j-1] = pkColumns[j-1], pkColumns[j]
		}
	}

	info := schema.PrimaryKeyInfo{TableHasRowID: hasRowID}
	if len(pkColumns) == 0 {
		info.Columns = []string{"rowid"}
		return info, nil
	}
	for _, c := range pkColumns {
		info.Columns = append(info.Columns, c.name)
	}
	// A single INTEGER primary key aliases the rowid.
	if hasRowID && len(pkColumns) == 1 && strings.EqualFold(pkColumns[0].typ, "INTEGER") {
		info.RowIDColumn = pkColumns[0].name
	}
	return info, nil
}

// ForeignKeys returns the foreign keys declared on a table. Shorthand
// references without explicit destination columns resolve to the
// destination's primary key.
func (s *Store) ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys of %q: %w", table, err)
	}
	defer rows.Close()

	var keys []schema.ForeignKey
	lastID := -1
	for rows.Next() {
		var (
			id          int
			destination string
			origin      string
			to          sql.NullString
		)
		if err := rows.Scan(&id, &destination, &origin, &to); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key of %q: %w", table, err)
		}
		if id != lastID {
			keys = append(keys, schema.ForeignKey{DestinationTable: destination})
			lastID = id
		}
		fk := &keys[len(keys)-1]
		fk.Mapping = append(fk.Mapping, schema.ColumnPair{
			Origin:      origin,
			Destination: to.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range keys {
		if err := s.fillImplicitDestinations(ctx, &keys[i]); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// fillImplicitDestinations pairs destination-less mappings with the
// destination table's primary key columns, positionally.
func (s *Store) fillImplicitDestinations(ctx context.Context, fk *schema.ForeignKey) error {
	missing := false
	for _, pair := range fk.Mapping {
		if pair.Destination == "" {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	pk, err := s.PrimaryKey(ctx, fk.DestinationTable)
	if err != nil {
		return err
	}
	if len(pk.Columns) != len(fk.Mapping) {
		return fmt.Errorf("foreign key to %q references %d columns but its primary key has %d",
			fk.DestinationTable, len(fk.Mapping), len(pk.Columns))
	}
	for i := range fk.Mapping {
		if fk.Mapping[i].Destination == "" {
			fk.Mapping[i].Destination = pk.Columns[i]
		}
	}
	return nil
}

// tableHasRowID reports whether the table is a rowid table, by inspecting
// its creation SQL for the WITHOUT ROWID suffix.
func (s *Store) tableHasRowID(ctx context.Context, table string) (bool, error) {
	var creationSQL sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&creationSQL)
	if err == sql.ErrNoRows {
		// sqlite_* system tables and views are not in sqlite_master as
		// ordinary tables; treat them as rowid tables.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read table definition of %q: %w", table, err)
	}
	return !strings.Contains(strings.ToUpper(creationSQL.String), "WITHOUT ROWID"), nil
}
