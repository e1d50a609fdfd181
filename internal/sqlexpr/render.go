package sqlexpr

import (
	"fmt"
	"strings"

	"github.com/roach88/relq/internal/sqlval"
)

// QuoteIdentifier double-quotes a SQL identifier, escaping embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQL renders an expression against a generation context.
//
// Compound infix nodes (binary, associative, equality) wrap themselves in
// parentheses so the surrounding context never has to reason about operator
// precedence. Columns, literals, unary and function applications bind
// tighter and render bare. Bind arguments append to the context's sink in
// render order; NULL renders inline since binding it defeats IS rewriting.
func SQL(e Expr, gc *GenContext) (string, error) {
	switch expr := e.(type) {
	case Column:
		return QuoteIdentifier(string(expr)), nil

	case QualifiedColumn:
		qualifier, ok := gc.Qualifier(expr.Alias)
		if !ok {
			return QuoteIdentifier(expr.Name), nil
		}
		return QuoteIdentifier(qualifier) + "." + QuoteIdentifier(expr.Name), nil

	case Literal:
		if sqlval.IsNull(expr.Value) {
			return "NULL", nil
		}
		return gc.AppendArg(expr.Value), nil

	case Unary:
		operand, err := SQL(expr.X, gc)
		if err != nil {
			return "", err
		}
		if expr.Op.Spaced {
			return expr.Op.SQL + " " + operand, nil
		}
		return expr.Op.SQL + operand, nil

	case Binary:
		left, err := SQL(expr.L, gc)
		if err != nil {
			return "", err
		}
		right, err := SQL(expr.R, gc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, expr.Op.SQL, right), nil

	case Associative:
		parts := make([]string, len(expr.Operands))
		for i, operand := range expr.Operands {
			part, err := SQL(operand, gc)
			if err != nil {
				return "", err
			}
			parts[i] = part
		}
		return "(" + strings.Join(parts, " "+expr.Op.SQL+" ") + ")", nil

	case Equality:
		left, err := SQL(expr.L, gc)
		if err != nil {
			return "", err
		}
		right, err := SQL(expr.R, gc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, expr.Op, right), nil

	case In:
		subject, err := SQL(expr.X, gc)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(expr.Elements))
		for i, element := range expr.Elements {
			part, err := SQL(element, gc)
			if err != nil {
				return "", err
			}
			parts[i] = part
		}
		keyword := "IN"
		if expr.Negated {
			keyword = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", subject, keyword, strings.Join(parts, ", ")), nil

	case Between:
		subject, err := SQL(expr.X, gc)
		if err != nil {
			return "", err
		}
		lo, err := SQL(expr.Lo, gc)
		if err != nil {
			return "", err
		}
		hi, err := SQL(expr.Hi, gc)
		if err != nil {
			return "", err
		}
		keyword := "BETWEEN"
		if expr.Negated {
			keyword = "NOT BETWEEN"
		}
		return fmt.Sprintf("%s %s %s AND %s", subject, keyword, lo, hi), nil

	case Function:
		parts := make([]string, len(expr.Args))
		for i, arg := range expr.Args {
			part, err := SQL(arg, gc)
			if err != nil {
				return "", err
			}
			parts[i] = part
		}
		return expr.Name + "(" + strings.Join(parts, ", ") + ")", nil

	case Count:
		switch argument := expr.Argument.(type) {
		case AllColumns, QualifiedAllColumns:
			return "COUNT(*)", nil
		case ExprSelection:
			inner, err := SQL(argument.X, gc)
			if err != nil {
				return "", err
			}
			return "COUNT(" + inner + ")", nil
		case AliasedExpr:
			inner, err := SQL(argument.X, gc)
			if err != nil {
				return "", err
			}
			return "COUNT(" + inner + ")", nil
		default:
			return "", fmt.Errorf("selection %T cannot be counted", expr.Argument)
		}

	case CountDistinct:
		inner, err := SQL(expr.X, gc)
		if err != nil {
			return "", err
		}
		return "COUNT(DISTINCT " + inner + ")", nil

	case Collate:
		inner, err := SQL(expr.X, gc)
		if err != nil {
			return "", err
		}
		return inner + " COLLATE " + expr.Collation, nil

	case LiteralSQL:
		gc.AppendArgs(expr.Args)
		return expr.SQL, nil

	case FastPrimaryKey:
		table := expr.Alias.TableName()
		if table == "" {
			return "", fmt.Errorf("fast primary key requested on an alias not bound to a table")
		}
		column, err := gc.fastPrimaryKeyColumn(table)
		if err != nil {
			return "", err
		}
		return SQL(QualifiedColumn{Name: column, Alias: expr.Alias}, gc)

	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}
