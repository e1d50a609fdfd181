package relation

import (
	"context"

	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/sqlexpr"
	"github.com/roach88/relq/internal/sqlval"
)

// Relation is an abstract SELECT-shaped tree: selection, source, filter,
// ordering and keyed children, prior to final SQL rendering.
//
// Relations are immutable values. Every transformation returns a new value;
// schema-dependent fields are stored as promises and resolved in a single
// pass at statement-build time.
type Relation struct {
	Source Source

	// SelectionPromise resolves to the result columns. An empty resolved
	// selection means "inherit" during merges; All starts with *.
	SelectionPromise schema.Promise[[]sqlexpr.Selection]

	// FilterPromise resolves to the WHERE expression, nil for none.
	// Filters compose with AND, lazily.
	FilterPromise schema.Promise[sqlexpr.Expr]

	Ordering sqlexpr.Ordering

	// Children preserves insertion order: decoding order matters.
	Children []ChildEntry

	// Query-level modifiers, meaningful on the root of a query.
	Distinct      bool
	GroupPromise  schema.Promise[[]sqlexpr.Expr]
	HavingPromise schema.Promise[sqlexpr.Expr]
	Limit         *Limit
	CTEs          []CTE
}

// Limit caps the number of fetched rows.
type Limit struct {
	Count  int
	Offset *int
}

// CTE is a named common table expression prepended as a WITH clause.
// The body is opaque SQL, never parsed.
type CTE struct {
	Name string
	SQL  string
	Args []sqlval.Value
}

// All creates a relation selecting * from an unqualified table, with no
// filter, ordering or children.
func All(table string) Relation {
	return Relation{
		Source:           Source{Table: table},
		SelectionPromise: schema.Fixed([]sqlexpr.Selection{sqlexpr.AllColumns{}}),
	}
}

// Select replaces the selection.
func (r Relation) Select(selection ...sqlexpr.Selection) Relation {
	r.SelectionPromise = schema.Fixed(selection)
	return r
}

// SelectPromised replaces the selection with a deferred one.
func (r Relation) SelectPromised(p schema.Promise[[]sqlexpr.Selection]) Relation {
	r.SelectionPromise = p
	return r
}

// SelectNothing empties the selection. Intermediate pivots of indirect
// associations select nothing: they are not user-visible.
func (r Relation) SelectNothing() Relation {
	return r.Select()
}

// Annotated appends to the selection without replacing it.
func (r Relation) Annotated(selection ...sqlexpr.Selection) Relation {
	previous := r.SelectionPromise
	r.SelectionPromise = schema.Map(previous, func(resolved []sqlexpr.Selection) ([]sqlexpr.Selection, error) {
		combined := make([]sqlexpr.Selection, 0, len(resolved)+len(selection))
		combined = append(combined, resolved...)
		combined = append(combined, selection...)
		return combined, nil
	})
	return r
}

// Filter AND-composes a predicate with any existing filter.
func (r Relation) Filter(predicate sqlexpr.Expr) Relation {
	return r.FilterPromised(schema.Fixed(predicate))
}

// FilterPromised AND-composes a deferred predicate with any existing
// filter, without resolving either side eagerly.
func (r Relation) FilterPromised(p schema.Promise[sqlexpr.Expr]) Relation {
	if r.FilterPromise.IsZero() {
		r.FilterPromise = p
		return r
	}
	previous := r.FilterPromise
	r.FilterPromise = schema.NewPromise(func(ctx context.Context, db schema.Introspecter) (sqlexpr.Expr, error) {
		existing, err := previous.Resolve(ctx, db)
		if err != nil {
			return nil, err
		}
		added, err := p.Resolve(ctx, db)
		if err != nil {
			return nil, err
		}
		switch {
		case existing == nil:
			return added, nil
		case added == nil:
			return existing, nil
		default:
			return sqlexpr.And(existing, added), nil
		}
	})
	return r
}

// Order replaces the ordering with the given terms.
func (r Relation) Order(terms ...sqlexpr.OrderingTerm) Relation {
	r.Ordering = sqlexpr.NewOrdering(terms...)
	return r
}

// OrderBy replaces the ordering.
func (r Relation) OrderBy(ordering sqlexpr.Ordering) Relation {
	r.Ordering = ordering
	return r
}

// Reversed flips the direction of every ordering term, lazily.
func (r Relation) Reversed() Relation {
	r.Ordering = r.Ordering.Reversed()
	return r
}

// Unordered clears the ordering, recursing into joined children only.
//
// A joined child's ordering is meaningless once flattened into one SELECT,
// so it is cleared too. Prefetched children run as separate statements and
// their ordering is observable; it stays.
func (r Relation) Unordered() Relation {
	r.Ordering = sqlexpr.Ordering{}
	children := make([]ChildEntry, len(r.Children))
	copy(children, r.Children)
	for i, entry := range children {
		if entry.Child.Kind.IsSingular() {
			entry.Child.Relation = entry.Child.Relation.Unordered()
			children[i] = entry
		}
	}
	r.Children = children
	return r
}

// WithDistinct marks the relation DISTINCT.
func (r Relation) WithDistinct() Relation {
	r.Distinct = true
	return r
}

// Group replaces the GROUP BY expressions.
func (r Relation) Group(exprs ...sqlexpr.Expr) Relation {
	r.GroupPromise = schema.Fixed(exprs)
	return r
}

// Having AND-composes a HAVING predicate with any existing one.
func (r Relation) Having(predicate sqlexpr.Expr) Relation {
	if r.HavingPromise.IsZero() {
		r.HavingPromise = schema.Fixed(predicate)
		return r
	}
	previous := r.HavingPromise
	r.HavingPromise = schema.Map(previous, func(existing sqlexpr.Expr) (sqlexpr.Expr, error) {
		if existing == nil {
			return predicate, nil
		}
		return sqlexpr.And(existing, predicate), nil
	})
	return r
}

// Limited caps the fetched rows.
func (r Relation) Limited(count int, offset *int) Relation {
	r.Limit = &Limit{Count: count, Offset: offset}
	return r
}

// With prepends a common table expression. A CTE with the same name
// replaces the previous one.
func (r Relation) With(cte CTE) Relation {
	ctes := make([]CTE, 0, len(r.CTEs)+1)
	replaced := false
	for _, existing := range r.CTEs {
		if existing.Name == cte.Name {
			ctes = append(ctes, cte)
			replaced = true
			continue
		}
		ctes = append(ctes, existing)
	}
	if !replaced {
		ctes = append(ctes, cte)
	}
	r.CTEs = ctes
	return r
}

// Aliased binds the relation's source to the given alias, unifying with
// any existing alias.
func (r Relation) Aliased(alias *sqlexpr.TableAlias) (Relation, error) {
	if err := alias.BindTable(r.Source.Table); err != nil {
		return Relation{}, &MergeError{Code: ErrCodeAliasConflict, Message: err.Error()}
	}
	if r.Source.Alias != nil {
		if err := r.Source.Alias.BecomeProxyOf(alias); err != nil {
			return Relation{}, &MergeError{Code: ErrCodeAliasConflict, Message: err.Error()}
		}
	}
	r.Source = Source{Table: r.Source.Table, Alias: alias}
	return r, nil
}

// DroppingToManyChildren removes plural children. Only to-one children
// survive association reversal: plural children of an intermediate pivot
// have no meaning once the pivot is not the fetch target.
func (r Relation) DroppingToManyChildren() Relation {
	var children []ChildEntry
	for _, entry := range r.Children {
		if entry.Child.Kind.IsSingular() {
			children = append(children, entry)
		}
	}
	r.Children = children
	return r
}

// hasQueryModifiers reports whether the relation carries query-level
// modifiers that a flattened joined child cannot express.
func (r Relation) hasQueryModifiers() bool {
	return r.Distinct ||
		!r.GroupPromise.IsZero() ||
		!r.HavingPromise.IsZero() ||
		r.Limit != nil ||
		len(r.CTEs) > 0
}

// appendingChildKeyed appends a child under a key, merging on collision.
func (r Relation) appendingChildKeyed(key string, child Child) (Relation, error) {
	children := make([]ChildEntry, len(r.Children))
	copy(children, r.Children)

	if i := childIndex(children, key); i >= 0 {
		merged, err := children[i].Child.Merged(child)
		if err != nil {
			return Relation{}, &MergeError{
				Code:    ErrCodeKeyAmbiguous,
				Message: "two associations resolve to the same key; disambiguate with an explicit key: " + err.Error(),
				Key:     key,
			}
		}
		children[i] = ChildEntry{Key: key, Child: merged}
	} else {
		children = append(children, ChildEntry{Key: key, Child: child})
	}

	r.Children = children
	return r, nil
}
