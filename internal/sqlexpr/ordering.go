package sqlexpr

import "strings"

// OrderingTerm is one ORDER BY element: an expression plus a direction.
type OrderingTerm struct {
	X    Expr
	Desc bool
}

// Asc orders ascending on an expression.
func Asc(e Expr) OrderingTerm {
	return OrderingTerm{X: e}
}

// Desc orders descending on an expression.
func Desc(e Expr) OrderingTerm {
	return OrderingTerm{X: e, Desc: true}
}

// Ordering is an immutable sequence of ORDER BY terms.
//
// Reversal is lazy: instead of rewriting terms it flips a per-segment flag
// that is applied at render time, so composed orderings reverse without
// re-resolving their terms.
type Ordering struct {
	segments []orderingSegment
}

type orderingSegment struct {
	terms    []OrderingTerm
	reversed bool
}

// NewOrdering builds an ordering from terms.
func NewOrdering(terms ...OrderingTerm) Ordering {
	if len(terms) == 0 {
		return Ordering{}
	}
	return Ordering{segments: []orderingSegment{{terms: terms}}}
}

// IsEmpty reports whether the ordering has no terms.
func (o Ordering) IsEmpty() bool {
	for _, segment := range o.segments {
		if len(segment.terms) > 0 {
			return false
		}
	}
	return true
}

// Reversed flips the direction of every term, nested segments included,
// while preserving term order.
func (o Ordering) Reversed() Ordering {
	segments := make([]orderingSegment, len(o.segments))
	for i, segment := range o.segments {
		segments[i] = orderingSegment{terms: segment.terms, reversed: !segment.reversed}
	}
	return Ordering{segments: segments}
}

// Appending concatenates another ordering after this one.
func (o Ordering) Appending(other Ordering) Ordering {
	if other.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return other
	}
	segments := make([]orderingSegment, 0, len(o.segments)+len(other.segments))
	segments = append(segments, o.segments...)
	segments = append(segments, other.segments...)
	return Ordering{segments: segments}
}

// Qualified rewrites every term's expression under the alias.
func (o Ordering) Qualified(alias *TableAlias) Ordering {
	segments := make([]orderingSegment, len(o.segments))
	for i, segment := range o.segments {
		terms := make([]OrderingTerm, len(segment.terms))
		for j, term := range segment.terms {
			terms[j] = OrderingTerm{X: Qualified(term.X, alias), Desc: term.Desc}
		}
		segments[i] = orderingSegment{terms: terms, reversed: segment.reversed}
	}
	return Ordering{segments: segments}
}

// SQL renders the ORDER BY term list (without the ORDER BY keyword).
func (o Ordering) SQL(gc *GenContext) (string, error) {
	var parts []string
	for _, segment := range o.segments {
		for _, term := range segment.terms {
			part, err := SQL(term.X, gc)
			if err != nil {
				return "", err
			}
			if term.Desc != segment.reversed {
				part += " DESC"
			}
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", "), nil
}
