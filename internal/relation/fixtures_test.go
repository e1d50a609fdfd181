package relation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/sqlexpr"
	"github.com/roach88/relq/internal/sqlval"
	"github.com/roach88/relq/internal/testutil"
)

// libraryDB is the fixture most tests join against: books belong to
// authors.
func libraryDB() *testutil.FakeDB {
	return testutil.NewFakeDB(map[string]testutil.FakeTable{
		"author": {
			Columns:    []string{"id", "name"},
			PrimaryKey: testutil.IntegerPrimaryKey("id"),
		},
		"book": {
			Columns:    []string{"id", "authorId", "title"},
			PrimaryKey: testutil.IntegerPrimaryKey("id"),
			ForeignKeys: []schema.ForeignKey{
				testutil.SimpleForeignKey("author", "authorId", "id"),
			},
		},
	})
}

// travelDB backs indirect association tests: a country reaches its
// citizens through passports.
func travelDB() *testutil.FakeDB {
	return testutil.NewFakeDB(map[string]testutil.FakeTable{
		"country": {
			Columns:    []string{"id", "name"},
			PrimaryKey: testutil.IntegerPrimaryKey("id"),
		},
		"passport": {
			Columns:    []string{"id", "countryId", "citizenId"},
			PrimaryKey: testutil.IntegerPrimaryKey("id"),
			ForeignKeys: []schema.ForeignKey{
				testutil.SimpleForeignKey("country", "countryId", "id"),
				testutil.SimpleForeignKey("citizen", "citizenId", "id"),
			},
		},
		"citizen": {
			Columns:    []string{"id", "name"},
			PrimaryKey: testutil.IntegerPrimaryKey("id"),
		},
	})
}

// renderExpr renders an expression against a fresh context and returns the
// SQL and collected bind arguments.
func renderExpr(t *testing.T, e sqlexpr.Expr) (string, []sqlval.Value) {
	t.Helper()
	gc := sqlexpr.NewGenContext()
	sql, err := sqlexpr.SQL(e, gc)
	require.NoError(t, err)
	return sql, gc.Args()
}

// citizensThroughPassports is the canonical two-step chain: country has
// many passports, each passport belongs to one citizen.
func citizensThroughPassports() Association {
	return BelongsTo("passport", "citizen", "", nil, nil).
		Through(HasMany("country", "passport", "", nil, nil))
}

func childKeys(r Relation) []string {
	keys := make([]string, len(r.Children))
	for i, entry := range r.Children {
		keys[i] = entry.Key
	}
	return keys
}

func childByKey(t *testing.T, r Relation, key string) Child {
	t.Helper()
	i := childIndex(r.Children, key)
	require.GreaterOrEqual(t, i, 0, "no child under key %q (have %v)", key, childKeys(r))
	return r.Children[i].Child
}
