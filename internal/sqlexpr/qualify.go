package sqlexpr

// Qualified rewrites every unqualified column reference reachable in the
// subtree to go through the given alias.
//
// Already-qualified columns refuse re-qualification so the originally
// intended table sticks: qualifying under alias A and then alias B equals
// qualifying once under A. Opaque SQL fragments and literals pass through
// untouched.
func Qualified(e Expr, alias *TableAlias) Expr {
	switch expr := e.(type) {
	case Column:
		return QualifiedColumn{Name: string(expr), Alias: alias}

	case QualifiedColumn, Literal, LiteralSQL, FastPrimaryKey:
		return e

	case Unary:
		return Unary{Op: expr.Op, X: Qualified(expr.X, alias)}

	case Binary:
		return Binary{Op: expr.Op, L: Qualified(expr.L, alias), R: Qualified(expr.R, alias)}

	case Associative:
		operands := make([]Expr, len(expr.Operands))
		for i, operand := range expr.Operands {
			operands[i] = Qualified(operand, alias)
		}
		return Associative{Op: expr.Op, Operands: operands}

	case Equality:
		return Equality{Op: expr.Op, L: Qualified(expr.L, alias), R: Qualified(expr.R, alias)}

	case In:
		elements := make([]Expr, len(expr.Elements))
		for i, element := range expr.Elements {
			elements[i] = Qualified(element, alias)
		}
		return In{X: Qualified(expr.X, alias), Elements: elements, Negated: expr.Negated}

	case Between:
		return Between{
			X:       Qualified(expr.X, alias),
			Lo:      Qualified(expr.Lo, alias),
			Hi:      Qualified(expr.Hi, alias),
			Negated: expr.Negated,
		}

	case Function:
		args := make([]Expr, len(expr.Args))
		for i, arg := range expr.Args {
			args[i] = Qualified(arg, alias)
		}
		return Function{Name: expr.Name, Args: args}

	case Count:
		return Count{Argument: QualifiedSelection(expr.Argument, alias)}

	case CountDistinct:
		return CountDistinct{X: Qualified(expr.X, alias)}

	case Collate:
		return Collate{X: Qualified(expr.X, alias), Collation: expr.Collation}

	default:
		return e
	}
}
