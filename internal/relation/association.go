package relation

import (
	"github.com/jinzhu/inflection"
	"github.com/roach88/relq/internal/schema"
)

// Cardinality is the decoding cardinality of an association step.
type Cardinality int

const (
	ToOne Cardinality = iota
	ToMany
)

// KeyNaming selects how an association key spells itself against the
// cardinality of the context consuming it.
type KeyNaming int

const (
	// KeyInflected singularizes in to-one contexts and pluralizes in
	// to-many contexts.
	KeyInflected KeyNaming = iota

	// KeyFixedSingular keeps the base in to-one contexts and pluralizes it
	// in to-many contexts.
	KeyFixedSingular

	// KeyFixedPlural singularizes the base in to-one contexts and keeps it
	// in to-many contexts.
	KeyFixedPlural

	// KeyFixed always uses the base verbatim.
	KeyFixed
)

// KeySpec is an association's decoding key: a base name plus a naming
// policy. The concrete spelling resolves only when the key is consumed, at
// child-append time - the same hasMany association decodes under a singular
// key when joined and a plural key when prefetched.
type KeySpec struct {
	Naming KeyNaming
	Base   string
}

// InflectedKey names a key by inflecting the base.
func InflectedKey(base string) KeySpec {
	return KeySpec{Naming: KeyInflected, Base: base}
}

// FixedSingularKey treats the base as an explicit singular spelling.
func FixedSingularKey(base string) KeySpec {
	return KeySpec{Naming: KeyFixedSingular, Base: base}
}

// FixedPluralKey treats the base as an explicit plural spelling.
func FixedPluralKey(base string) KeySpec {
	return KeySpec{Naming: KeyFixedPlural, Base: base}
}

// FixedKey pins the key verbatim, regardless of context.
func FixedKey(base string) KeySpec {
	return KeySpec{Naming: KeyFixed, Base: base}
}

// Name resolves the key spelling for a consuming context's cardinality.
func (k KeySpec) Name(cardinality Cardinality) string {
	switch k.Naming {
	case KeyInflected:
		if cardinality == ToOne {
			return inflection.Singular(k.Base)
		}
		return inflection.Plural(k.Base)
	case KeyFixedSingular:
		if cardinality == ToOne {
			return k.Base
		}
		return inflection.Plural(k.Base)
	case KeyFixedPlural:
		if cardinality == ToOne {
			return inflection.Singular(k.Base)
		}
		return k.Base
	default:
		return k.Base
	}
}

// Step is one hop of an association chain.
type Step struct {
	Key         KeySpec
	Condition   Condition
	Relation    Relation
	Cardinality Cardinality
}

// Association is a non-empty ordered list of steps from pivot to
// destination, modeling a declared navigational path between two relations,
// possibly indirect through pivot tables.
type Association struct {
	steps []Step
}

// NewAssociation builds a chain from steps. An empty chain is a programmer
// error.
func NewAssociation(steps ...Step) Association {
	if len(steps) == 0 {
		panic("an association requires at least one step")
	}
	return Association{steps: steps}
}

// Steps returns the chain, pivot first.
func (a Association) Steps() []Step {
	return a.steps
}

// Pivot is the first step.
func (a Association) Pivot() Step {
	return a.steps[0]
}

// Destination is the last step.
func (a Association) Destination() Step {
	return a.steps[len(a.steps)-1]
}

// Through composes an indirect association: other's steps are prepended,
// so other's pivot becomes the chain's pivot. This models "has many X
// through Y", where Y is the new first hop.
func (a Association) Through(other Association) Association {
	steps := make([]Step, 0, len(other.steps)+len(a.steps))
	steps = append(steps, other.steps...)
	steps = append(steps, a.steps...)
	return Association{steps: steps}
}

// ForDestinationKey rewrites the final step's key - the leaf-most join's
// name - leaving earlier steps untouched.
func (a Association) ForDestinationKey(key KeySpec) Association {
	steps := make([]Step, len(a.steps))
	copy(steps, a.steps)
	steps[len(steps)-1].Key = key
	return Association{steps: steps}
}

// MapDestinationRelation transforms the final step's relation.
func (a Association) MapDestinationRelation(transform func(Relation) (Relation, error)) (Association, error) {
	steps := make([]Step, len(a.steps))
	copy(steps, a.steps)
	rel, err := transform(steps[len(steps)-1].Relation)
	if err != nil {
		return Association{}, err
	}
	steps[len(steps)-1].Relation = rel
	return Association{steps: steps}, nil
}

// BelongsTo declares a to-one association where the parent table holds the
// foreign key. An empty key defaults to the destination table name.
func BelongsTo(parentTable, table, key string, originColumns, destinationColumns []string) Association {
	if key == "" {
		key = table
	}
	return NewAssociation(Step{
		Key: InflectedKey(key),
		Condition: ForeignKeyCondition{
			Request: schema.ForeignKeyRequest{
				Origin:             parentTable,
				Destination:        table,
				OriginColumns:      originColumns,
				DestinationColumns: destinationColumns,
			},
			OriginIsLeft: true,
		},
		Relation:    All(table),
		Cardinality: ToOne,
	})
}

// HasMany declares a to-many association where the destination table holds
// the foreign key. An empty key defaults to the destination table name.
func HasMany(parentTable, table, key string, originColumns, destinationColumns []string) Association {
	if key == "" {
		key = table
	}
	return NewAssociation(Step{
		Key: InflectedKey(key),
		Condition: ForeignKeyCondition{
			Request: schema.ForeignKeyRequest{
				Origin:             table,
				Destination:        parentTable,
				OriginColumns:      originColumns,
				DestinationColumns: destinationColumns,
			},
			OriginIsLeft: false,
		},
		Relation:    All(table),
		Cardinality: ToMany,
	})
}

// HasOne declares a to-one association where the destination table holds
// the foreign key.
func HasOne(parentTable, table, key string, originColumns, destinationColumns []string) Association {
	a := HasMany(parentTable, table, key, originColumns, destinationColumns)
	a.steps[0].Cardinality = ToOne
	return a
}

// AppendingChild extends the relation with a child derived from an
// association.
//
// The child key resolves singular for joined kinds and plural for
// prefetches; AllNotPrefetched uses the association's own cardinality, as
// it is only a bridging device that must preserve the true cardinality for
// later key resolution.
//
// Indirect chains recurse: the last step peels off as the direct child of a
// reduced association ending at the last pivot. Intermediate pivots select
// nothing, and intermediate pivots of prefetches are bridged with
// AllNotPrefetched - only the leaf of an indirect prefetch is fetched.
func (r Relation) AppendingChild(a Association, kind Kind) (Relation, error) {
	cardinality := kind.Cardinality()
	if kind == AllNotPrefetched {
		cardinality = a.Destination().Cardinality
	}
	key := a.Destination().Key.Name(cardinality)

	child, err := NewChild(kind, a.Destination().Condition, a.Destination().Relation)
	if err != nil {
		return Relation{}, err
	}

	if len(a.steps) == 1 {
		return r.appendingChildKeyed(key, child)
	}

	reduced := NewAssociation(a.steps[:len(a.steps)-1]...)
	reduced, err = reduced.MapDestinationRelation(func(rel Relation) (Relation, error) {
		return rel.SelectNothing().appendingChildKeyed(key, child)
	})
	if err != nil {
		return Relation{}, err
	}

	pivotKind := kind
	if !kind.IsSingular() {
		pivotKind = AllNotPrefetched
	}
	return r.AppendingChild(reduced, pivotKind)
}
