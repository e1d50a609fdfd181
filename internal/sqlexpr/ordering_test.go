package sqlexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderingSQL(t *testing.T, o Ordering) string {
	t.Helper()
	sql, err := o.SQL(NewGenContext())
	require.NoError(t, err)
	return sql
}

func TestOrdering_Rendering(t *testing.T) {
	o := NewOrdering(Asc(Col("name")), Desc(Col("score")))
	assert.Equal(t, `"name", "score" DESC`, orderingSQL(t, o))
}

func TestOrdering_ReversedFlipsEveryTerm(t *testing.T) {
	o := NewOrdering(Asc(Col("name")), Desc(Col("score")))
	assert.Equal(t, `"name" DESC, "score"`, orderingSQL(t, o.Reversed()))

	// Reversing twice restores the original rendering.
	assert.Equal(t, orderingSQL(t, o), orderingSQL(t, o.Reversed().Reversed()))
}

func TestOrdering_AppendingKeepsSegmentDirections(t *testing.T) {
	first := NewOrdering(Asc(Col("a"))).Reversed()
	second := NewOrdering(Asc(Col("b")))

	combined := first.Appending(second)
	assert.Equal(t, `"a" DESC, "b"`, orderingSQL(t, combined))

	// Reversal distributes over both segments.
	assert.Equal(t, `"a", "b" DESC`, orderingSQL(t, combined.Reversed()))
}

func TestOrdering_IsEmpty(t *testing.T) {
	assert.True(t, Ordering{}.IsEmpty())
	assert.True(t, NewOrdering().IsEmpty())
	assert.False(t, NewOrdering(Asc(Col("a"))).IsEmpty())
	assert.Equal(t, "", orderingSQL(t, Ordering{}))
}

func TestOrdering_Qualified(t *testing.T) {
	alias := NewTableAlias("")
	require.NoError(t, alias.BindTable("player"))

	o := NewOrdering(Desc(Col("score"))).Qualified(alias)

	gc := NewGenContext()
	gc.SetQualifier(alias, "p")
	sql, err := o.SQL(gc)
	require.NoError(t, err)
	assert.Equal(t, `"p"."score" DESC`, sql)
}
