package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/store"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	DB string
}

// SchemaResult is the schema command's success payload.
type SchemaResult struct {
	Table        string              `json:"table"`
	Columns      []string            `json:"columns"`
	PrimaryKey   []string            `json:"primary_key"`
	RowIDColumn  string              `json:"rowid_column,omitempty"`
	WithoutRowID bool                `json:"without_rowid,omitempty"`
	ForeignKeys  []schema.ForeignKey `json:"foreign_keys,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "schema <table>",
		Short:         "Dump a table's columns, primary key and foreign keys",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database file")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runSchema(opts *SchemaOptions, table string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db, err := store.Open(opts.DB)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	columns, err := db.Columns(ctx, table)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitFailure, "introspecting table", err)
	}
	pk, err := db.PrimaryKey(ctx, table)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitFailure, "introspecting primary key", err)
	}
	fks, err := db.ForeignKeys(ctx, table)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitFailure, "introspecting foreign keys", err)
	}

	result := SchemaResult{
		Table:        table,
		Columns:      columns,
		PrimaryKey:   pk.Columns,
		RowIDColumn:  pk.RowIDColumn,
		WithoutRowID: !pk.TableHasRowID,
		ForeignKeys:  fks,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "table %s\n", table)
	fmt.Fprintf(w, "  columns: %s\n", strings.Join(columns, ", "))
	fmt.Fprintf(w, "  primary key: %s\n", strings.Join(pk.Columns, ", "))
	if pk.RowIDColumn != "" {
		fmt.Fprintf(w, "  rowid column: %s\n", pk.RowIDColumn)
	}
	if !pk.TableHasRowID {
		fmt.Fprintln(w, "  without rowid")
	}
	for _, fk := range fks {
		pairs := make([]string, len(fk.Mapping))
		for i, pair := range fk.Mapping {
			pairs[i] = fmt.Sprintf("%s -> %s", pair.Origin, pair.Destination)
		}
		fmt.Fprintf(w, "  foreign key -> %s (%s)\n", fk.DestinationTable, strings.Join(pairs, ", "))
	}
	return nil
}
