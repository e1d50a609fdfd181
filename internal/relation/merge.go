package relation

import (
	"context"

	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/sqlexpr"
)

// Merged unifies two relation trees into one, used when the same base
// request is extended twice.
//
// Failure is symmetric: merging r with other fails exactly when merging
// other with r fails. The winning side for override fields is not: the
// other relation's selection, ordering, grouping and limit win whenever
// they are non-empty (last-applied-wins).
//
//   - sources must read the same table; aliases unify
//   - filters AND-compose: both sides' predicates apply
//   - children merge key by key, recursively; children only one side has
//     are appended afterward in stable order
//   - selection and ordering: the other side wins unless empty
//   - DISTINCT is OR-combined
//   - GROUP BY and LIMIT: the other side wins when present
//   - HAVING: AND-composes when both sides specify one
func (r Relation) Merged(other Relation) (Relation, error) {
	source, err := r.Source.Merged(other.Source)
	if err != nil {
		return Relation{}, err
	}

	merged := Relation{Source: source}

	merged.SelectionPromise = mergeSelectionPromises(r.SelectionPromise, other.SelectionPromise)
	merged = merged.FilterPromised(r.FilterPromise).FilterPromised(other.FilterPromise)

	if other.Ordering.IsEmpty() {
		merged.Ordering = r.Ordering
	} else {
		merged.Ordering = other.Ordering
	}

	children := make([]ChildEntry, 0, len(r.Children)+len(other.Children))
	for _, entry := range r.Children {
		if i := childIndex(other.Children, entry.Key); i >= 0 {
			child, err := entry.Child.Merged(other.Children[i].Child)
			if err != nil {
				if me, ok := err.(*MergeError); ok && me.Key == "" {
					me.Key = entry.Key
				}
				return Relation{}, err
			}
			children = append(children, ChildEntry{Key: entry.Key, Child: child})
			continue
		}
		children = append(children, entry)
	}
	for _, entry := range other.Children {
		if childIndex(r.Children, entry.Key) < 0 {
			children = append(children, entry)
		}
	}
	merged.Children = children

	merged.Distinct = r.Distinct || other.Distinct

	if !other.GroupPromise.IsZero() {
		merged.GroupPromise = other.GroupPromise
	} else {
		merged.GroupPromise = r.GroupPromise
	}

	merged.HavingPromise = mergeHavingPromises(r.HavingPromise, other.HavingPromise)

	if other.Limit != nil {
		merged.Limit = other.Limit
	} else {
		merged.Limit = r.Limit
	}

	for _, cte := range r.CTEs {
		merged = merged.With(cte)
	}
	for _, cte := range other.CTEs {
		merged = merged.With(cte)
	}

	return merged, nil
}

// mergeSelectionPromises prefers the other side's selection unless it
// resolves empty. Emptiness is only known at resolution time, so the check
// is deferred.
func mergeSelectionPromises(base, other schema.Promise[[]sqlexpr.Selection]) schema.Promise[[]sqlexpr.Selection] {
	return schema.NewPromise(func(ctx context.Context, db schema.Introspecter) ([]sqlexpr.Selection, error) {
		selection, err := other.Resolve(ctx, db)
		if err != nil {
			return nil, err
		}
		if len(selection) > 0 {
			return selection, nil
		}
		return base.Resolve(ctx, db)
	})
}

func mergeHavingPromises(base, other schema.Promise[sqlexpr.Expr]) schema.Promise[sqlexpr.Expr] {
	switch {
	case base.IsZero():
		return other
	case other.IsZero():
		return base
	}
	return schema.NewPromise(func(ctx context.Context, db schema.Introspecter) (sqlexpr.Expr, error) {
		left, err := base.Resolve(ctx, db)
		if err != nil {
			return nil, err
		}
		right, err := other.Resolve(ctx, db)
		if err != nil {
			return nil, err
		}
		switch {
		case left == nil:
			return right, nil
		case right == nil:
			return left, nil
		default:
			return sqlexpr.And(left, right), nil
		}
	})
}
