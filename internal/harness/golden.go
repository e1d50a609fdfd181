package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/relq/internal/sqlval"
)

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files hold the canonical JSON of the snapshot, so a byte-level
// diff pinpoints exactly which clause or argument moved.
func RunWithGolden(t *testing.T, scenario *Scenario, baseDir string) error {
	t.Helper()

	snapshot, err := Run(context.Background(), scenario, baseDir)
	if err != nil {
		return err
	}

	data, err := sqlval.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t)
	g.Assert(t, scenario.Name, data)
	return nil
}
