package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/sqlgen"
	"github.com/roach88/relq/internal/sqlval"
	"github.com/roach88/relq/internal/store"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	DB string
}

// ExplainResult is the explain command's success payload.
type ExplainResult struct {
	BuildToken string   `json:"build_token"`
	SQL        string   `json:"sql"`
	Args       []any    `json:"args"`
	Prefetches []string `json:"prefetches,omitempty"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <request.cue>",
		Short: "Build a request into SQL and print it",
		Long: `Load a CUE request file, resolve it against the database schema, and
print the generated SQL with its arguments. Prefetched associations are
listed by key; their statements depend on fetched rows and are not shown.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database file")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runExplain(opts *ExplainOptions, requestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	req, err := LoadRequest(requestPath)
	if err != nil {
		formatter.Error(ErrCodeRequestLoad, err.Error(), nil)
		return err
	}
	formatter.VerboseLog("loaded request for table %q from %s", req.Table, requestPath)

	db, err := store.Open(opts.DB)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer db.Close()

	rel, err := BuildRelation(req)
	if err != nil {
		formatter.Error(ErrCodeRequestInvalid, err.Error(), nil)
		return WrapExitError(ExitFailure, "building relation", err)
	}

	stmt, plans, err := sqlgen.Generate(cmd.Context(), db, rel)
	if err != nil {
		formatter.Error(ErrCodeGeneration, err.Error(), nil)
		return WrapExitError(ExitFailure, "generating statement", err)
	}

	result := ExplainResult{
		BuildToken: uuid.Must(uuid.NewV7()).String(),
		SQL:        stmt.SQL,
		Args:       sqlval.Bindable(stmt.Args),
	}
	for _, plan := range plans {
		result.Prefetches = append(result.Prefetches, plan.Key)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, result.SQL)
	for i, arg := range stmt.Args {
		fmt.Fprintf(w, "  arg %d: %s\n", i+1, sqlval.String(arg))
	}
	for _, key := range result.Prefetches {
		fmt.Fprintf(w, "  prefetch: %s\n", key)
	}
	return nil
}
