package relation

import (
	"context"

	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/sqlexpr"
)

// pivotKeyPrefix hides the synthetic join keys of reversed pivot chains
// from user-declared child keys.
const pivotKeyPrefix = "via_"

// DestinationRelation builds the relation that fetches destination rows
// matching a set of already-fetched origin rows. This is the second query
// of a prefetch.
//
// A direct association filters the destination by the origin row values.
// An indirect one walks the chain backwards: the destination becomes the
// base, each intermediate pivot joins in as a required to-one child that
// selects nothing, and the original pivot carries the row filter. To-many
// children of intermediates are dropped so the reversal cannot multiply
// rows.
func (a Association) DestinationRelation(rows []Row) (Relation, error) {
	pivot := a.Pivot()
	rowFilter := schema.NewPromise(func(ctx context.Context, db schema.Introspecter) (sqlexpr.Expr, error) {
		return FilteringExpr(ctx, db, pivot.Condition, rows)
	})

	if len(a.steps) == 1 {
		return a.Destination().Relation.FilterPromised(rowFilter), nil
	}

	// Nest intermediates from the original pivot outwards. The relation of
	// steps[i] joins as a child of steps[i+1] under steps[i+1]'s condition,
	// reversed because parent and child swap roles.
	current := pivot.Relation.SelectNothing().DroppingToManyChildren().FilterPromised(rowFilter)
	for i := 1; i < len(a.steps)-1; i++ {
		step := a.steps[i]
		child, err := NewChild(OneRequired, ReversedCondition(step.Condition), current)
		if err != nil {
			return Relation{}, err
		}
		key := pivotKeyPrefix + a.steps[i-1].Key.Name(ToOne)
		current, err = step.Relation.SelectNothing().DroppingToManyChildren().appendingChildKeyed(key, child)
		if err != nil {
			return Relation{}, err
		}
	}

	dest := a.Destination()
	child, err := NewChild(OneRequired, ReversedCondition(dest.Condition), current)
	if err != nil {
		return Relation{}, err
	}
	key := pivotKeyPrefix + a.steps[len(a.steps)-2].Key.Name(ToOne)
	return dest.Relation.appendingChildKeyed(key, child)
}
