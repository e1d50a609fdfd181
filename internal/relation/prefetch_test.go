package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefetchPlans_NoneWithoutPrefetchedChildren(t *testing.T) {
	rel, err := All("book").AppendingChild(BelongsTo("book", "author", "", nil, nil), OneRequired)
	require.NoError(t, err)
	assert.Empty(t, rel.PrefetchPlans())
}

func TestPrefetchPlans_DirectPrefetch(t *testing.T) {
	rel, err := All("author").AppendingChild(HasMany("author", "book", "", nil, nil), AllPrefetched)
	require.NoError(t, err)

	plans := rel.PrefetchPlans()
	require.Len(t, plans, 1)
	assert.Equal(t, "books", plans[0].Key)
	require.Len(t, plans[0].Steps, 1)

	step := plans[0].Steps[0]
	assert.Equal(t, "books", step.Key.Name(ToMany))
	assert.Equal(t, ToMany, step.Cardinality)
	assert.Equal(t, "book", step.Relation.Source.Table)
	cond, ok := step.Condition.(ForeignKeyCondition)
	require.True(t, ok)
	assert.False(t, cond.OriginIsLeft)
}

func TestPrefetchPlans_IndirectPrefetchChainsThroughTheBridge(t *testing.T) {
	rel, err := All("country").AppendingChild(citizensThroughPassports(), AllPrefetched)
	require.NoError(t, err)

	plans := rel.PrefetchPlans()
	require.Len(t, plans, 1)
	assert.Equal(t, "citizens", plans[0].Key)
	require.Len(t, plans[0].Steps, 2)

	// The bridge step reaches the pivot table; only the leaf is to-many.
	pivot := plans[0].Steps[0]
	assert.Equal(t, "passport", pivot.Relation.Source.Table)
	assert.Equal(t, ToOne, pivot.Cardinality)

	leaf := plans[0].Steps[1]
	assert.Equal(t, "citizen", leaf.Relation.Source.Table)
	assert.Equal(t, ToMany, leaf.Cardinality)
}

func TestPrefetchPlans_UnderJoinedChildPrefixTheKey(t *testing.T) {
	author, err := All("author").AppendingChild(HasMany("author", "book", "", nil, nil), AllPrefetched)
	require.NoError(t, err)

	joined, err := NewChild(OneRequired, NoCondition{}, author)
	require.NoError(t, err)
	rel := All("library")
	rel.Children = []ChildEntry{{Key: "author", Child: joined}}

	plans := rel.PrefetchPlans()
	require.Len(t, plans, 1)
	assert.Equal(t, "author.books", plans[0].Key)
	require.Len(t, plans[0].Steps, 2)
	assert.Equal(t, "author", plans[0].Steps[0].Relation.Source.Table)
	assert.Equal(t, ToOne, plans[0].Steps[0].Cardinality)
	assert.Equal(t, "book", plans[0].Steps[1].Relation.Source.Table)
}

func TestPrefetchPlans_DeclarationOrder(t *testing.T) {
	rel, err := All("author").AppendingChild(HasMany("author", "book", "", nil, nil), AllPrefetched)
	require.NoError(t, err)
	rel, err = rel.AppendingChild(HasMany("author", "award", "", nil, nil), AllPrefetched)
	require.NoError(t, err)

	plans := rel.PrefetchPlans()
	require.Len(t, plans, 2)
	assert.Equal(t, "books", plans[0].Key)
	assert.Equal(t, "awards", plans[1].Key)
}
