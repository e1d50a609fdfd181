package sqlexpr

import "github.com/roach88/relq/internal/sqlval"

// Negated produces the logical negation of an expression.
//
// Operator nodes override the default NOT (...) wrapper with their own
// negation: equality flips its comparator, BETWEEN/IN/LIKE flip their
// negation flag, boolean literals flip their value, and a double NOT
// unwraps. The result is always a new tree.
func Negated(e Expr) Expr {
	switch expr := e.(type) {
	case Literal:
		if expr.Bool {
			return Literal{Value: sqlval.MustOf(expr.Value != sqlval.Integer(1)), Bool: true}
		}

	case Unary:
		if expr.Op.SQL == OpNot.SQL {
			return expr.X
		}

	case Binary:
		if expr.Op.NegatedSQL != "" {
			return Binary{
				Op: BinaryOp{SQL: expr.Op.NegatedSQL, NegatedSQL: expr.Op.SQL},
				L:  expr.L,
				R:  expr.R,
			}
		}

	case Equality:
		return Equality{Op: expr.Op.negated(), L: expr.L, R: expr.R}

	case In:
		return In{X: expr.X, Elements: expr.Elements, Negated: !expr.Negated}

	case Between:
		return Between{X: expr.X, Lo: expr.Lo, Hi: expr.Hi, Negated: !expr.Negated}

	case Collate:
		return Collate{X: Negated(expr.X), Collation: expr.Collation}
	}

	return Unary{Op: OpNot, X: e}
}
