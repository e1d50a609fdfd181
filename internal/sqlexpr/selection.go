package sqlexpr

import (
	"fmt"

	"github.com/roach88/relq/internal/sqlval"
)

// Selection is a sealed interface over result-column descriptors.
//
// Selection types:
//   - AllColumns: the bare * wildcard
//   - QualifiedAllColumns: alias.* under a table alias
//   - ExprSelection: a single expression column
//   - AliasedExpr: expression AS name
//   - LiteralSelection: an opaque SQL fragment
type Selection interface {
	selectionNode() // Marker method - seals interface to this package
}

// AllColumns selects every column of the source table.
type AllColumns struct{}

func (AllColumns) selectionNode() {}

// QualifiedAllColumns selects every column of an aliased table.
type QualifiedAllColumns struct {
	Alias *TableAlias
}

func (QualifiedAllColumns) selectionNode() {}

// ExprSelection selects a single expression.
type ExprSelection struct {
	X Expr
}

func (ExprSelection) selectionNode() {}

// AliasedExpr selects an expression under a result-column name.
type AliasedExpr struct {
	X    Expr
	Name string
}

func (AliasedExpr) selectionNode() {}

// LiteralSelection is an opaque SQL fragment in the SELECT list.
// Its column count is not self-describing.
type LiteralSelection struct {
	SQL  string
	Args []sqlval.Value
}

func (LiteralSelection) selectionNode() {}

// SelectionSQL renders a result-column descriptor.
func SelectionSQL(s Selection, gc *GenContext) (string, error) {
	switch sel := s.(type) {
	case AllColumns:
		return "*", nil
	case QualifiedAllColumns:
		qualifier, ok := gc.Qualifier(sel.Alias)
		if !ok {
			return "*", nil
		}
		return QuoteIdentifier(qualifier) + ".*", nil
	case ExprSelection:
		return SQL(sel.X, gc)
	case AliasedExpr:
		inner, err := SQL(sel.X, gc)
		if err != nil {
			return "", err
		}
		return inner + " AS " + QuoteIdentifier(sel.Name), nil
	case LiteralSelection:
		gc.AppendArgs(sel.Args)
		return sel.SQL, nil
	default:
		return "", fmt.Errorf("unsupported selection type: %T", s)
	}
}

// QualifiedSelection rewrites a selection under a table alias.
// The bare * becomes alias.*; expressions qualify recursively.
func QualifiedSelection(s Selection, alias *TableAlias) Selection {
	switch sel := s.(type) {
	case AllColumns:
		return QualifiedAllColumns{Alias: alias}
	case QualifiedAllColumns, LiteralSelection:
		return s
	case ExprSelection:
		return ExprSelection{X: Qualified(sel.X, alias)}
	case AliasedExpr:
		return AliasedExpr{X: Qualified(sel.X, alias), Name: sel.Name}
	default:
		return s
	}
}

// SelectionColumnCount resolves the number of result columns a selection
// contributes. Star selections need a schema round-trip; opaque fragments
// are not self-describing and report an error.
func SelectionColumnCount(s Selection, tableColumns func(table string) (int, error)) (int, error) {
	switch sel := s.(type) {
	case AllColumns:
		return 0, fmt.Errorf("unqualified * has no table to resolve its column count against")
	case QualifiedAllColumns:
		table := sel.Alias.TableName()
		if table == "" {
			return 0, fmt.Errorf("cannot count columns of an alias not bound to a table")
		}
		return tableColumns(table)
	case ExprSelection, AliasedExpr:
		return 1, nil
	case LiteralSelection:
		return 0, fmt.Errorf("opaque SQL selection %q is not self-describing", sel.SQL)
	default:
		return 0, fmt.Errorf("unsupported selection type: %T", s)
	}
}

// CountingExpr analyzes a resolved selection list for the native count
// rewrite. It returns the counting expression and true when the rewrite is
// safe, or false when the caller must fall back to a trivial
// SELECT COUNT(*) FROM (...) wrap:
//
//   - one star selection: COUNT(*), unless DISTINCT is set (DISTINCT over
//     all columns has no single-expression equivalent)
//   - one expression under DISTINCT: COUNT(DISTINCT expr)
//   - one expression without DISTINCT: COUNT(*)
//   - an opaque SQL selection cannot be counted at all
//   - several columns: COUNT(*) without DISTINCT, trivial count with it
func CountingExpr(selection []Selection, distinct bool) (Expr, bool) {
	if len(selection) == 1 {
		switch sel := selection[0].(type) {
		case AllColumns, QualifiedAllColumns:
			if distinct {
				return nil, false
			}
			return Count{Argument: AllColumns{}}, true
		case ExprSelection:
			if distinct {
				return CountDistinct{X: sel.X}, true
			}
			return Count{Argument: AllColumns{}}, true
		case AliasedExpr:
			if distinct {
				return CountDistinct{X: sel.X}, true
			}
			return Count{Argument: AllColumns{}}, true
		default:
			return nil, false
		}
	}
	if distinct {
		return nil, false
	}
	return Count{Argument: AllColumns{}}, true
}
