package relation

import (
	"context"
	"fmt"

	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/sqlexpr"
	"github.com/roach88/relq/internal/sqlval"
)

// Condition is a sealed interface over the ways a child joins its parent.
//
// Condition types:
//   - NoCondition: the identity condition (cross join)
//   - ForeignKeyCondition: column pairing resolved against the schema
//   - ExprCondition: an opaque closure producing the join expression
type Condition interface {
	conditionNode() // Marker method - seals interface to this package
}

// NoCondition is the identity condition.
type NoCondition struct{}

func (NoCondition) conditionNode() {}

// ForeignKeyCondition joins through a foreign key, resolved lazily against
// the schema. OriginIsLeft records which side of the join holds the foreign
// key: true when the parent (left) relation is the FK origin.
type ForeignKeyCondition struct {
	Request      schema.ForeignKeyRequest
	OriginIsLeft bool
}

func (ForeignKeyCondition) conditionNode() {}

// ExprCondition joins through an opaque expression built from the two
// aliases. Closure conditions never merge with anything.
type ExprCondition func(left, right *sqlexpr.TableAlias) sqlexpr.Expr

func (ExprCondition) conditionNode() {}

// ReversedCondition swaps the origin/destination orientation, used when an
// association chain is walked backward.
func ReversedCondition(c Condition) Condition {
	switch cond := c.(type) {
	case ForeignKeyCondition:
		return ForeignKeyCondition{Request: cond.Request, OriginIsLeft: !cond.OriginIsLeft}
	case ExprCondition:
		return ExprCondition(func(left, right *sqlexpr.TableAlias) sqlexpr.Expr {
			return cond(right, left)
		})
	default:
		return c
	}
}

// MergeConditions unifies the conditions of two children under one key.
// Only structurally equal foreign-key conditions (and identity conditions)
// merge; anything else is a structural incompatibility.
func MergeConditions(a, b Condition) (Condition, error) {
	if _, ok := a.(NoCondition); ok {
		if _, ok := b.(NoCondition); ok {
			return a, nil
		}
	}
	fkA, okA := a.(ForeignKeyCondition)
	fkB, okB := b.(ForeignKeyCondition)
	if okA && okB && fkA.Request.Equal(fkB.Request) && fkA.OriginIsLeft == fkB.OriginIsLeft {
		return a, nil
	}
	return nil, &MergeError{
		Code:    ErrCodeConditionMismatch,
		Message: "children join through different conditions",
	}
}

// JoinExpr resolves the condition into the ON expression joining the right
// (child) alias to the left (parent) alias. The child's columns land on the
// left of each equality, matching how the join reads.
func JoinExpr(ctx context.Context, db schema.Introspecter, c Condition, left, right *sqlexpr.TableAlias) (sqlexpr.Expr, error) {
	switch cond := c.(type) {
	case NoCondition:
		return nil, nil

	case ExprCondition:
		return cond(left, right), nil

	case ForeignKeyCondition:
		pairs, err := cond.Request.Resolve(ctx, db)
		if err != nil {
			return nil, err
		}
		equalities := make([]sqlexpr.Expr, len(pairs))
		for i, pair := range pairs {
			childColumn, parentColumn := pair.Origin, pair.Destination
			if cond.OriginIsLeft {
				childColumn, parentColumn = pair.Destination, pair.Origin
			}
			equalities[i] = sqlexpr.Eq(
				sqlexpr.QualifiedColumn{Name: childColumn, Alias: right},
				sqlexpr.QualifiedColumn{Name: parentColumn, Alias: left},
			)
		}
		return sqlexpr.And(equalities...), nil

	default:
		return nil, fmt.Errorf("unsupported condition type: %T", c)
	}
}

// Row holds the key column values of one concrete origin row.
type Row map[string]sqlval.Value

// FilteringExpr resolves the condition into a filter over the child (pivot)
// relation's own columns, matching concrete origin rows.
//
// At least one origin row is required: with zero rows there is nothing to
// bind the filter to, which is a caller error rather than an empty result.
func FilteringExpr(ctx context.Context, db schema.Introspecter, c Condition, rows []Row) (sqlexpr.Expr, error) {
	cond, ok := c.(ForeignKeyCondition)
	if !ok {
		return nil, fmt.Errorf("association condition %T cannot filter by origin rows", c)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("filtering by origin rows requires at least one row")
	}

	pairs, err := cond.Request.Resolve(ctx, db)
	if err != nil {
		return nil, err
	}

	// Column orientation: the pivot is the joined side. When the parent is
	// the FK origin, the pivot holds the destination columns and the origin
	// rows supply the origin values, and vice versa.
	pivotColumns := make([]string, len(pairs))
	rowColumns := make([]string, len(pairs))
	for i, pair := range pairs {
		if cond.OriginIsLeft {
			pivotColumns[i], rowColumns[i] = pair.Destination, pair.Origin
		} else {
			pivotColumns[i], rowColumns[i] = pair.Origin, pair.Destination
		}
	}

	rowValue := func(row Row, column string) (sqlval.Value, error) {
		value, ok := row[column]
		if !ok {
			return nil, fmt.Errorf("origin row lacks key column %q", column)
		}
		return value, nil
	}

	if len(pairs) == 1 {
		values := make([]sqlexpr.Expr, len(rows))
		for i, row := range rows {
			value, err := rowValue(row, rowColumns[0])
			if err != nil {
				return nil, err
			}
			values[i] = sqlexpr.Literal{Value: value}
		}
		return sqlexpr.InCollection(sqlexpr.Col(pivotColumns[0]), values, false), nil
	}

	// Composite keys match row by row.
	alternatives := make([]sqlexpr.Expr, len(rows))
	for i, row := range rows {
		equalities := make([]sqlexpr.Expr, len(pairs))
		for j := range pairs {
			value, err := rowValue(row, rowColumns[j])
			if err != nil {
				return nil, err
			}
			equalities[j] = sqlexpr.Eq(sqlexpr.Col(pivotColumns[j]), sqlexpr.Literal{Value: value})
		}
		alternatives[i] = sqlexpr.And(equalities...)
	}
	return sqlexpr.Or(alternatives...), nil
}
