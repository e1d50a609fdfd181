package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/sqlexpr"
)

func TestKindMerged(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Kind
		want     Kind
		wantCode MergeErrorCode
	}{
		{name: "equal optional", a: OneOptional, b: OneOptional, want: OneOptional},
		{name: "equal required", a: OneRequired, b: OneRequired, want: OneRequired},
		{name: "equal prefetched", a: AllPrefetched, b: AllPrefetched, want: AllPrefetched},
		{name: "equal bridge", a: AllNotPrefetched, b: AllNotPrefetched, want: AllNotPrefetched},
		{name: "required dominates optional", a: OneOptional, b: OneRequired, want: OneRequired},
		{name: "required dominates optional reversed", a: OneRequired, b: OneOptional, want: OneRequired},
		{name: "join against prefetch", a: OneRequired, b: AllPrefetched, wantCode: ErrCodeKindMismatch},
		{name: "prefetch against join", a: AllPrefetched, b: OneOptional, wantCode: ErrCodeKindMismatch},
		{name: "bridge against join", a: AllNotPrefetched, b: OneRequired, wantCode: ErrCodeKindMismatch},
		{name: "direct against indirect prefetch", a: AllPrefetched, b: AllNotPrefetched, wantCode: ErrCodePrefetchBridgeMerge},
		{name: "indirect against direct prefetch", a: AllNotPrefetched, b: AllPrefetched, wantCode: ErrCodePrefetchBridgeMerge},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.a.Merged(tc.b)
			if tc.wantCode != "" {
				var me *MergeError
				require.ErrorAs(t, err, &me)
				assert.Equal(t, tc.wantCode, me.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKindCardinality(t *testing.T) {
	assert.Equal(t, ToOne, OneOptional.Cardinality())
	assert.Equal(t, ToOne, OneRequired.Cardinality())
	assert.Equal(t, ToMany, AllPrefetched.Cardinality())
	assert.Equal(t, ToMany, AllNotPrefetched.Cardinality())
}

func TestKindImpactsParentCount(t *testing.T) {
	assert.True(t, OneOptional.ImpactsParentCount())
	assert.True(t, OneRequired.ImpactsParentCount())
	assert.False(t, AllPrefetched.ImpactsParentCount())
	assert.False(t, AllNotPrefetched.ImpactsParentCount())
}

func TestNewChild_RejectsModifiersOnJoinedChildren(t *testing.T) {
	testCases := []struct {
		name string
		rel  Relation
	}{
		{name: "distinct", rel: All("book").WithDistinct()},
		{name: "group", rel: All("book").Group()},
		{name: "limit", rel: All("book").Limited(10, nil)},
		{name: "cte", rel: All("book").With(CTE{Name: "recent", SQL: "SELECT 1"})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChild(OneRequired, NoCondition{}, tc.rel)
			var me *MergeError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, ErrCodeChildModifiers, me.Code)

			// Prefetched children run as their own statement and may carry
			// anything.
			_, err = NewChild(AllPrefetched, NoCondition{}, tc.rel)
			assert.NoError(t, err)
		})
	}
}

func TestChildMerged_ConditionMismatch(t *testing.T) {
	toAuthor := ForeignKeyCondition{
		Request:      schema.ForeignKeyRequest{Origin: "book", Destination: "author"},
		OriginIsLeft: true,
	}
	reversed := ForeignKeyCondition{
		Request:      schema.ForeignKeyRequest{Origin: "book", Destination: "author"},
		OriginIsLeft: false,
	}

	a, err := NewChild(OneRequired, toAuthor, All("author"))
	require.NoError(t, err)
	b, err := NewChild(OneOptional, reversed, All("author"))
	require.NoError(t, err)

	_, err = a.Merged(b)
	var me *MergeError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ErrCodeConditionMismatch, me.Code)
}

func TestChildMerged_KindAndRelation(t *testing.T) {
	cond := ForeignKeyCondition{
		Request:      schema.ForeignKeyRequest{Origin: "book", Destination: "author"},
		OriginIsLeft: true,
	}

	a, err := NewChild(OneOptional, cond, All("author").Filter(sqlexpr.Eq(sqlexpr.Col("name"), sqlexpr.Value("X"))))
	require.NoError(t, err)
	b, err := NewChild(OneRequired, cond, All("author"))
	require.NoError(t, err)

	merged, err := a.Merged(b)
	require.NoError(t, err)
	assert.Equal(t, OneRequired, merged.Kind)
	assert.Equal(t, "author", merged.Relation.Source.Table)
}
