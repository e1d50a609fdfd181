package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/sqlgen"
	"github.com/roach88/relq/internal/sqlval"
	"github.com/roach88/relq/internal/store"
)

// CountOptions holds flags for the count command.
type CountOptions struct {
	*RootOptions
	DB      string
	Execute bool
}

// CountResult is the count command's success payload.
type CountResult struct {
	BuildToken string `json:"build_token"`
	SQL        string `json:"sql"`
	Args       []any  `json:"args"`
	Count      *int64 `json:"count,omitempty"`
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "count <request.cue>",
		Short: "Print the statement counting a request's rows",
		Long: `Load a CUE request file and print the SQL chosen by the count analysis:
an in-place COUNT rewrite when one SELECT can express it, or a COUNT(*)
wrapper around the unordered query when it cannot.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database file")
	cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "run the statement and print the count")

	return cmd
}

func runCount(opts *CountOptions, requestPath string, cmd *cobra.Command) error {
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

	stmt, err := sqlgen.GenerateCount(cmd.Context(), db, rel)
	if err != nil {
		formatter.Error(ErrCodeGeneration, err.Error(), nil)
		return WrapExitError(ExitFailure, "generating count statement", err)
	}

	result := CountResult{
		BuildToken: uuid.Must(uuid.NewV7()).String(),
		SQL:        stmt.SQL,
		Args:       sqlval.Bindable(stmt.Args),
	}

	if opts.Execute {
		var count int64
		row := db.DB().QueryRowContext(cmd.Context(), stmt.SQL, sqlval.Bindable(stmt.Args)...)
		if err := row.Scan(&count); err != nil {
			formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitFailure, "executing count statement", err)
		}
		result.Count = &count
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, result.SQL)
	for i, arg := range stmt.Args {
		fmt.Fprintf(w, "  arg %d: %s\n", i+1, sqlval.String(arg))
	}
	if result.Count != nil {
		fmt.Fprintf(w, "  count: %d\n", *result.Count)
	}
	return nil
}
