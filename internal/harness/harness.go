// Package harness runs declarative statement-generation scenarios and
// compares their output against golden snapshots.
package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relq/internal/cli"
	"github.com/roach88/relq/internal/sqlgen"
	"github.com/roach88/relq/internal/sqlval"
	"github.com/roach88/relq/internal/store"
)

// Scenario defines one statement-generation test case: a schema, a request
// file, and what to verify.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario pins down.
	Description string `yaml:"description"`

	// Schema is the DDL applied to a fresh in-memory database.
	Schema string `yaml:"schema"`

	// Request is the path to the CUE request file, relative to the
	// scenario file location.
	Request string `yaml:"request"`

	// Execute runs the generated statements against the database to prove
	// they are well-formed SQL, in addition to the snapshot comparison.
	Execute bool `yaml:"execute,omitempty"`

	// Count additionally snapshots the statement chosen by the count
	// analysis.
	Count bool `yaml:"count,omitempty"`
}

// LoadScenario reads a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if scenario.Name == "" {
		return nil, fmt.Errorf("scenario %s has no name", path)
	}
	return &scenario, nil
}

// Snapshot captures everything a scenario generates, serialized as
// canonical JSON for byte-stable golden comparison.
type Snapshot struct {
	ScenarioName string
	SQL          string
	Args         []sqlval.Value
	Prefetches   []string
	CountSQL     string
	CountArgs    []sqlval.Value
}

func (s *Snapshot) toCanonicalMap() map[string]any {
	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"sql":           s.SQL,
		"args":          s.Args,
	}
	if len(s.Prefetches) > 0 {
		result["prefetches"] = s.Prefetches
	}
	if s.CountSQL != "" {
		result["count_sql"] = s.CountSQL
		result["count_args"] = s.CountArgs
	}
	return result
}

// Run executes a scenario: applies the schema to an in-memory database,
// loads the request, generates the statements, and optionally executes
// them. Paths in the scenario resolve relative to baseDir.
func Run(ctx context.Context, scenario *Scenario, baseDir string) (*Snapshot, error) {
	db, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	defer db.Close()

	if scenario.Schema != "" {
		if _, err := db.Exec(ctx, scenario.Schema); err != nil {
			return nil, fmt.Errorf("applying scenario schema: %w", err)
		}
	}

	req, err := cli.LoadRequest(filepath.Join(baseDir, scenario.Request))
	if err != nil {
		return nil, fmt.Errorf("loading request: %w", err)
	}
	rel, err := cli.BuildRelation(req)
	if err != nil {
		return nil, fmt.Errorf("building relation: %w", err)
	}

	stmt, plans, err := sqlgen.Generate(ctx, db, rel)
	if err != nil {
		return nil, fmt.Errorf("generating statement: %w", err)
	}

	snapshot := &Snapshot{
		ScenarioName: scenario.Name,
		SQL:          stmt.SQL,
		Args:         stmt.Args,
	}
	for _, plan := range plans {
		snapshot.Prefetches = append(snapshot.Prefetches, plan.Key)
	}

	if scenario.Count {
		countStmt, err := sqlgen.GenerateCount(ctx, db, rel)
		if err != nil {
			return nil, fmt.Errorf("generating count statement: %w", err)
		}
		snapshot.CountSQL = countStmt.SQL
		snapshot.CountArgs = countStmt.Args
	}

	if scenario.Execute {
		if err := execute(ctx, db, stmt); err != nil {
			return nil, fmt.Errorf("executing statement: %w", err)
		}
		if scenario.Count {
			if err := execute(ctx, db, sqlgen.Statement{SQL: snapshot.CountSQL, Args: snapshot.CountArgs}); err != nil {
				return nil, fmt.Errorf("executing count statement: %w", err)
			}
		}
	}

	return snapshot, nil
}

// execute runs a statement and drains it, proving the SQL is accepted by
// SQLite. Result contents are the snapshot's job, not ours.
func execute(ctx context.Context, db *store.Store, stmt sqlgen.Statement) error {
	rows, err := db.Query(ctx, stmt.SQL, sqlval.Bindable(stmt.Args)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}
