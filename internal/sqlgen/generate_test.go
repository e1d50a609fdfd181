package sqlgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/relation"
	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/sqlexpr"
	"github.com/roach88/relq/internal/sqlval"
	"github.com/roach88/relq/internal/testutil"
)

func libraryDB() *testutil.FakeDB {
	return testutil.NewFakeDB(map[string]testutil.FakeTable{
		"author": {
			Columns:    []string{"id", "name", "country"},
			PrimaryKey: testutil.IntegerPrimaryKey("id"),
		},
		"book": {
			Columns:    []string{"id", "authorId", "translatorId", "title"},
			PrimaryKey: testutil.IntegerPrimaryKey("id"),
			ForeignKeys: []schema.ForeignKey{
				testutil.SimpleForeignKey("author", "authorId", "id"),
			},
		},
	})
}

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

func TestGenerate_SingleTable(t *testing.T) {
	stmt, prefetches, err := Generate(context.Background(), libraryDB(), relation.All("author"))
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "author"`, stmt.SQL)
	assert.Empty(t, stmt.Args)
	assert.Empty(t, prefetches)
}

func TestGenerate_FilterBindsArguments(t *testing.T) {
	rel := relation.All("author").
		Filter(sqlexpr.Eq(sqlexpr.Col("name"), sqlexpr.Value("Melville"))).
		Filter(sqlexpr.Compare(sqlexpr.OpGreater, sqlexpr.Col("id"), sqlexpr.Value(10)))

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "author" WHERE (("name" = ?) AND ("id" > ?))`, stmt.SQL)
	assert.Equal(t, []sqlval.Value{sqlval.Text("Melville"), sqlval.Integer(10)}, stmt.Args)
}

func TestGenerate_RequiredJoin(t *testing.T) {
	rel, err := relation.All("book").
		AppendingChild(relation.BelongsTo("book", "author", "", nil, nil), relation.OneRequired)
	require.NoError(t, err)

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "book".*, "author".* FROM "book" JOIN "author" ON ("author"."id" = "book"."authorId")`,
		stmt.SQL)
	assert.Empty(t, stmt.Args)
}

func TestGenerate_OptionalJoinForcesNestedLeft(t *testing.T) {
	// citizen is a required hop below an optional passport join. Rendering
	// it as an inner join would filter out countries without passports, so
	// everything below a LEFT JOIN renders LEFT.
	inner, err := relation.All("passport").
		AppendingChild(relation.BelongsTo("passport", "citizen", "", nil, nil), relation.OneRequired)
	require.NoError(t, err)

	child, err := relation.NewChild(relation.OneOptional, relation.ForeignKeyCondition{
		Request: schema.ForeignKeyRequest{Origin: "passport", Destination: "country"},
	}, inner)
	require.NoError(t, err)

	rel := relation.All("country")
	rel.Children = []relation.ChildEntry{{Key: "passport", Child: child}}

	stmt, _, err := Generate(context.Background(), travelDB(), rel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "country".*, "passport".*, "citizen".* FROM "country"`+
			` LEFT JOIN "passport" ON ("passport"."countryId" = "country"."id")`+
			` LEFT JOIN "citizen" ON ("citizen"."id" = "passport"."citizenId")`,
		stmt.SQL)
}

func TestGenerate_SelfJoinDisambiguatesQualifiers(t *testing.T) {
	rel, err := relation.All("book").
		AppendingChild(relation.BelongsTo("book", "author", "", nil, nil), relation.OneRequired)
	require.NoError(t, err)
	rel, err = rel.
		AppendingChild(relation.BelongsTo("book", "author", "translator", []string{"translatorId"}, nil), relation.OneRequired)
	require.NoError(t, err)

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "book".*, "author".*, "author1".* FROM "book"`+
			` JOIN "author" ON ("author"."id" = "book"."authorId")`+
			` JOIN "author" "author1" ON ("author1"."id" = "book"."translatorId")`,
		stmt.SQL)
}

func TestGenerate_UserAliasNamesTheQualifier(t *testing.T) {
	alias := sqlexpr.NewTableAlias("b")
	aliased, err := relation.All("book").Aliased(alias)
	require.NoError(t, err)
	rel, err := aliased.
		AppendingChild(relation.BelongsTo("book", "author", "", nil, nil), relation.OneRequired)
	require.NoError(t, err)

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "b".*, "author".* FROM "book" "b" JOIN "author" ON ("author"."id" = "b"."authorId")`,
		stmt.SQL)
}

func TestGenerate_ChildFilterLandsInTheONClause(t *testing.T) {
	assoc, err := relation.BelongsTo("book", "author", "", nil, nil).
		MapDestinationRelation(func(rel relation.Relation) (relation.Relation, error) {
			return rel.Filter(sqlexpr.Eq(sqlexpr.Col("country"), sqlexpr.Value("FR"))), nil
		})
	require.NoError(t, err)
	rel, err := relation.All("book").AppendingChild(assoc, relation.OneRequired)
	require.NoError(t, err)

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "book".*, "author".* FROM "book"`+
			` JOIN "author" ON (("author"."id" = "book"."authorId") AND ("author"."country" = ?))`,
		stmt.SQL)
	assert.Equal(t, []sqlval.Value{sqlval.Text("FR")}, stmt.Args)
}

func TestGenerate_ChildOrderingAppendsAfterParent(t *testing.T) {
	assoc, err := relation.BelongsTo("book", "author", "", nil, nil).
		MapDestinationRelation(func(rel relation.Relation) (relation.Relation, error) {
			return rel.Order(sqlexpr.Desc(sqlexpr.Col("name"))), nil
		})
	require.NoError(t, err)
	rel, err := relation.All("book").
		Order(sqlexpr.Asc(sqlexpr.Col("title"))).
		AppendingChild(assoc, relation.OneRequired)
	require.NoError(t, err)

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "book".*, "author".* FROM "book"`+
			` JOIN "author" ON ("author"."id" = "book"."authorId")`+
			` ORDER BY "book"."title", "author"."name" DESC`,
		stmt.SQL)
}

func TestGenerate_QueryModifiers(t *testing.T) {
	offset := 5
	rel := relation.All("author").
		WithDistinct().
		Group(sqlexpr.Col("country")).
		Having(sqlexpr.Compare(sqlexpr.OpGreater, sqlexpr.Fn("COUNT", sqlexpr.Col("id")), sqlexpr.Value(1))).
		Order(sqlexpr.Asc(sqlexpr.Col("country"))).
		Limited(10, &offset)

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT DISTINCT * FROM "author" GROUP BY "country" HAVING (COUNT("id") > ?)`+
			` ORDER BY "country" LIMIT 10 OFFSET 5`,
		stmt.SQL)
	assert.Equal(t, []sqlval.Value{sqlval.Integer(1)}, stmt.Args)
}

func TestGenerate_CTEArgumentsComeFirst(t *testing.T) {
	rel := relation.All("author").
		With(relation.CTE{Name: "recent", SQL: "SELECT ? AS x", Args: []sqlval.Value{sqlval.Integer(1)}}).
		Filter(sqlexpr.Eq(sqlexpr.Col("id"), sqlexpr.Value(2)))

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t,
		`WITH "recent" AS (SELECT ? AS x) SELECT * FROM "author" WHERE ("id" = ?)`,
		stmt.SQL)
	assert.Equal(t, []sqlval.Value{sqlval.Integer(1), sqlval.Integer(2)}, stmt.Args)
}

func TestGenerate_FastPrimaryKeyResolvesAgainstTheSchema(t *testing.T) {
	alias := sqlexpr.NewTableAlias("")
	rel, err := relation.All("author").Aliased(alias)
	require.NoError(t, err)
	rel = rel.Filter(sqlexpr.Eq(sqlexpr.FastPrimaryKey{Alias: alias}, sqlexpr.Value(7)))

	stmt, _, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "author" WHERE ("id" = ?)`, stmt.SQL)
	assert.Equal(t, []sqlval.Value{sqlval.Integer(7)}, stmt.Args)
}

func TestGenerate_EmptySelectionIsAnError(t *testing.T) {
	_, _, err := Generate(context.Background(), libraryDB(), relation.All("author").SelectNothing())
	assert.ErrorContains(t, err, "selects nothing")
}

func TestGenerate_PrefetchesStayOutOfTheSQL(t *testing.T) {
	rel, err := relation.All("author").
		AppendingChild(relation.HasMany("author", "book", "", nil, nil), relation.AllPrefetched)
	require.NoError(t, err)

	stmt, prefetches, err := Generate(context.Background(), libraryDB(), rel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "author"`, stmt.SQL)
	require.Len(t, prefetches, 1)
	assert.Equal(t, "books", prefetches[0].Key)
}

func TestGenerateCount(t *testing.T) {
	offset := 5
	joined, err := relation.All("book").
		AppendingChild(relation.BelongsTo("book", "author", "", nil, nil), relation.OneRequired)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		rel      relation.Relation
		wantSQL  string
		wantArgs []sqlval.Value
	}{
		{
			name:    "plain table rewrites in place",
			rel:     relation.All("author"),
			wantSQL: `SELECT COUNT(*) FROM "author"`,
		},
		{
			name: "filter survives the rewrite",
			rel: relation.All("author").
				Filter(sqlexpr.Eq(sqlexpr.Col("name"), sqlexpr.Value("X"))),
			wantSQL:  `SELECT COUNT(*) FROM "author" WHERE ("name" = ?)`,
			wantArgs: []sqlval.Value{sqlval.Text("X")},
		},
		{
			name:    "ordering is dropped",
			rel:     relation.All("author").Order(sqlexpr.Asc(sqlexpr.Col("name"))),
			wantSQL: `SELECT COUNT(*) FROM "author"`,
		},
		{
			name: "distinct single column counts distinct",
			rel: relation.All("author").
				Select(sqlexpr.ExprSelection{X: sqlexpr.Col("name")}).
				WithDistinct(),
			wantSQL: `SELECT COUNT(DISTINCT "name") FROM "author"`,
		},
		{
			name:    "distinct star wraps",
			rel:     relation.All("author").WithDistinct(),
			wantSQL: `SELECT COUNT(*) FROM (SELECT DISTINCT * FROM "author")`,
		},
		{
			name:    "limit wraps",
			rel:     relation.All("author").Limited(10, &offset),
			wantSQL: `SELECT COUNT(*) FROM (SELECT * FROM "author" LIMIT 10 OFFSET 5)`,
		},
		{
			name: "joined child wraps",
			rel:  joined,
			wantSQL: `SELECT COUNT(*) FROM (SELECT "book".*, "author".* FROM "book"` +
				` JOIN "author" ON ("author"."id" = "book"."authorId"))`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stmt, err := GenerateCount(context.Background(), libraryDB(), tc.rel)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, stmt.SQL)
			if tc.wantArgs == nil {
				assert.Empty(t, stmt.Args)
			} else {
				assert.Equal(t, tc.wantArgs, stmt.Args)
			}
		})
	}
}
