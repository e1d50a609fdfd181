package relation

import "fmt"

// Kind describes how a child relation relates to its parent.
type Kind int

const (
	// OneOptional is a to-one child flattened as a LEFT JOIN.
	OneOptional Kind = iota

	// OneRequired is a to-one child flattened as an inner JOIN.
	OneRequired

	// AllPrefetched is a to-many child fetched by a separate statement.
	AllPrefetched

	// AllNotPrefetched is an internal bridge: an intermediate pivot of an
	// indirect prefetch. It is never fetched itself but preserves the true
	// cardinality for key resolution.
	AllNotPrefetched
)

// String implements fmt.Stringer for diagnostics.
func (k Kind) String() string {
	switch k {
	case OneOptional:
		return "oneOptional"
	case OneRequired:
		return "oneRequired"
	case AllPrefetched:
		return "allPrefetched"
	case AllNotPrefetched:
		return "allNotPrefetched"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsSingular reports whether the child is flattened into the parent SELECT.
func (k Kind) IsSingular() bool {
	return k == OneOptional || k == OneRequired
}

// Cardinality is the decoding cardinality a kind implies.
func (k Kind) Cardinality() Cardinality {
	if k.IsSingular() {
		return ToOne
	}
	return ToMany
}

// ImpactsParentCount reports whether the child can change the parent's row
// count. Only joined children can multiply or filter rows; prefetched
// children run as separate statements.
func (k Kind) ImpactsParentCount() bool {
	return k.IsSingular()
}

// Merged reconciles the kinds of two children appended under the same key.
//
//   - a required join dominates an optional one
//   - equal kinds merge to themselves
//   - joined and prefetched kinds are genuinely different association
//     semantics and never reconcile
//   - direct and indirect prefetch paths overlapping is not implemented
func (k Kind) Merged(other Kind) (Kind, error) {
	switch {
	case k == other:
		return k, nil
	case k.IsSingular() && other.IsSingular():
		return OneRequired, nil
	case k.IsSingular() != other.IsSingular():
		return 0, &MergeError{
			Code:    ErrCodeKindMismatch,
			Message: fmt.Sprintf("cannot merge a %s child with a %s child", k, other),
		}
	default:
		return 0, &MergeError{
			Code:    ErrCodePrefetchBridgeMerge,
			Message: "merging a direct prefetch with an indirect prefetch of the same key is not implemented",
		}
	}
}

// Child is one keyed child of a relation: a join or prefetch target.
type Child struct {
	Kind      Kind
	Condition Condition
	Relation  Relation
}

// NewChild validates and builds a child.
//
// Joined children cannot carry DISTINCT, GROUP BY, LIMIT or CTEs: SQL has
// no simple expression of a joined, limited sub-relation. The violation is
// caught here, at construction.
func NewChild(kind Kind, condition Condition, rel Relation) (Child, error) {
	if kind.IsSingular() && rel.hasQueryModifiers() {
		return Child{}, &MergeError{
			Code:    ErrCodeChildModifiers,
			Message: fmt.Sprintf("a %s child cannot carry DISTINCT, GROUP BY, HAVING, LIMIT or CTEs", kind),
		}
	}
	return Child{Kind: kind, Condition: condition, Relation: rel}, nil
}

// Merged unifies two children appended under the same key. Join kinds and
// conditions must be compatible, and the relations must merge recursively.
func (c Child) Merged(other Child) (Child, error) {
	kind, err := c.Kind.Merged(other.Kind)
	if err != nil {
		return Child{}, err
	}
	condition, err := MergeConditions(c.Condition, other.Condition)
	if err != nil {
		return Child{}, err
	}
	rel, err := c.Relation.Merged(other.Relation)
	if err != nil {
		return Child{}, err
	}
	return Child{Kind: kind, Condition: condition, Relation: rel}, nil
}

// ChildEntry is one key-to-child binding. Children live in an
// insertion-ordered list because decoding order matters.
type ChildEntry struct {
	Key   string
	Child Child
}

func childIndex(children []ChildEntry, key string) int {
	for i, entry := range children {
		if entry.Key == key {
			return i
		}
	}
	return -1
}
