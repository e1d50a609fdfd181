package sqlexpr

import (
	"github.com/roach88/relq/internal/sqlval"
)

// Expr is a sealed interface over SQL expression nodes.
//
// Only types in this package implement it. The marker method pattern
// enables exhaustive type switches in the rendering, qualification and
// negation passes.
//
// Expressions are immutable value trees: qualification and negation always
// produce new trees, never mutate in place.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Column references an unqualified column in the source table.
type Column string

func (Column) exprNode() {}

// QualifiedColumn references a column through a table alias.
// It refuses re-qualification: the originally intended table sticks.
type QualifiedColumn struct {
	Name  string
	Alias *TableAlias
}

func (QualifiedColumn) exprNode() {}

// Literal is a constant bound as a statement argument (NULL renders inline).
//
// Bool records that the literal was built from a Go bool. SQLite stores
// booleans as integers, but comparisons against boolean literals degenerate
// to the tested expression itself (see Eq), so the origin must be kept.
type Literal struct {
	Value sqlval.Value
	Bool  bool
}

func (Literal) exprNode() {}

// Unary is a prefix operator application.
type Unary struct {
	Op UnaryOp
	X  Expr
}

func (Unary) exprNode() {}

// Binary is an infix operator application without associativity guarantees.
type Binary struct {
	Op   BinaryOp
	L, R Expr
}

func (Binary) exprNode() {}

// Associative is an operator applied to a flat operand list.
// Always has at least two operands: constructors collapse shorter lists.
type Associative struct {
	Op       AssociativeOp
	Operands []Expr
}

func (Associative) exprNode() {}

// Equality is one of =, <>, IS, IS NOT.
type Equality struct {
	Op   EqualityOp
	L, R Expr
}

func (Equality) exprNode() {}

// In is collection containment. Constructors collapse empty collections to
// a constant and singletons to plain equality, so an In node always carries
// at least two elements.
type In struct {
	X        Expr
	Elements []Expr
	Negated  bool
}

func (In) exprNode() {}

// Between is a range test.
type Between struct {
	X, Lo, Hi Expr
	Negated   bool
}

func (Between) exprNode() {}

// Function is a SQL function call.
type Function struct {
	Name string
	Args []Expr
}

func (Function) exprNode() {}

// Count renders COUNT(*) for star selections and COUNT(expr) otherwise.
type Count struct {
	Argument Selection
}

func (Count) exprNode() {}

// CountDistinct renders COUNT(DISTINCT expr).
type CountDistinct struct {
	X Expr
}

func (CountDistinct) exprNode() {}

// Collate attaches an explicit collation to an expression.
type Collate struct {
	X         Expr
	Collation string
}

func (Collate) exprNode() {}

// LiteralSQL is an opaque SQL fragment with positional arguments.
// The text is never parsed; placeholders must match len(Args).
type LiteralSQL struct {
	SQL  string
	Args []sqlval.Value
}

func (LiteralSQL) exprNode() {}

// FastPrimaryKey references the single-column primary key (or rowid) of the
// aliased table. The concrete column name is resolved during generation,
// once schema metadata is available.
type FastPrimaryKey struct {
	Alias *TableAlias
}

func (FastPrimaryKey) exprNode() {}

// Col builds an unqualified column reference.
func Col(name string) Column {
	return Column(name)
}

// Value builds a literal from a Go native value.
// Panics on unsupported types - literals are built at call sites that
// control the type, so this is a programmer error.
func Value(v any) Expr {
	_, isBool := v.(bool)
	return Literal{Value: sqlval.MustOf(v), Bool: isBool}
}

func isNullLiteral(e Expr) bool {
	lit, ok := e.(Literal)
	return ok && sqlval.IsNull(lit.Value)
}

func boolLiteral(e Expr) (bool, bool) {
	lit, ok := e.(Literal)
	if !ok || !lit.Bool {
		return false, false
	}
	return lit.Value == sqlval.Integer(1), true
}

// hoistCollation strips a Collate wrapper off either comparison operand so
// the collation can be re-applied to the whole comparison, the placement
// SQLite gives meaning to.
func hoistCollation(l, r Expr) (Expr, Expr, string) {
	if c, ok := l.(Collate); ok {
		return c.X, r, c.Collation
	}
	if c, ok := r.(Collate); ok {
		return l, c.X, c.Collation
	}
	return l, r, ""
}

func withCollation(e Expr, collation string) Expr {
	if collation == "" {
		return e
	}
	return Collate{X: e, Collation: collation}
}

// Eq builds an equality test with NULL and boolean special cases:
//
//   - a NULL operand switches to IS, matching SQL NULL semantics
//   - comparing against a boolean literal degenerates to the tested
//     expression itself (or its negation): SQLite evaluates truthiness
//     natively, which reads better and stays index-friendly
func Eq(l, r Expr) Expr {
	l, r, collation := hoistCollation(l, r)
	if b, ok := boolLiteral(r); ok {
		return withCollation(testExpr(l, b), collation)
	}
	if b, ok := boolLiteral(l); ok {
		return withCollation(testExpr(r, b), collation)
	}
	if isNullLiteral(r) {
		return withCollation(Equality{Op: EqIs, L: l, R: r}, collation)
	}
	if isNullLiteral(l) {
		return withCollation(Equality{Op: EqIs, L: r, R: l}, collation)
	}
	return withCollation(Equality{Op: EqEqual, L: l, R: r}, collation)
}

// NotEq is the negation of Eq, with the same special cases.
func NotEq(l, r Expr) Expr {
	return Negated(Eq(l, r))
}

func testExpr(e Expr, truth bool) Expr {
	if truth {
		return e
	}
	return Negated(e)
}

// Join applies an associative operator to a sequence of operands.
//
// Strictly associative operators splice nested same-operator subtrees into
// one flat list. An empty sequence collapses to the operator's neutral
// element; a singleton collapses to its only operand.
func Join(op AssociativeOp, operands ...Expr) Expr {
	var flat []Expr
	for _, operand := range operands {
		if nested, ok := operand.(Associative); ok && op.Strict && nested.Op.SQL == op.SQL {
			flat = append(flat, nested.Operands...)
			continue
		}
		flat = append(flat, operand)
	}
	switch len(flat) {
	case 0:
		return Literal{Value: op.Neutral, Bool: op.SQL == OpAnd.SQL || op.SQL == OpOr.SQL}
	case 1:
		return flat[0]
	default:
		return Associative{Op: op, Operands: flat}
	}
}

// And joins predicates with AND. An empty list is true.
func And(operands ...Expr) Expr {
	return Join(OpAnd, operands...)
}

// Or joins predicates with OR. An empty list is false.
func Or(operands ...Expr) Expr {
	return Join(OpOr, operands...)
}

// Concat joins expressions with the || string concatenation operator.
func Concat(operands ...Expr) Expr {
	return Join(OpConcat, operands...)
}

// Not negates an expression, preferring operator-specific negation over
// wrapping in NOT.
func Not(e Expr) Expr {
	return Negated(e)
}

// Compare builds a binary comparison, hoisting collations like Eq.
func Compare(op BinaryOp, l, r Expr) Expr {
	l, r, collation := hoistCollation(l, r)
	return withCollation(Binary{Op: op, L: l, R: r}, collation)
}

// InCollection builds a containment test against a literal collection.
//
// Degenerate collections are folded at construction: an empty collection is
// constant false (true when negated), a singleton is plain equality. Both
// rewrites produce more optimizer-friendly SQL with identical semantics -
// equality already applies the IS NULL substitution.
func InCollection(x Expr, elements []Expr, negated bool) Expr {
	x, _, collation := hoistCollation(x, nil)
	switch len(elements) {
	case 0:
		return Literal{Value: sqlval.MustOf(negated), Bool: true}
	case 1:
		if negated {
			return withCollation(NotEq(x, elements[0]), collation)
		}
		return withCollation(Eq(x, elements[0]), collation)
	default:
		return withCollation(In{X: x, Elements: elements, Negated: negated}, collation)
	}
}

// BetweenRange builds a range test.
func BetweenRange(x, lo, hi Expr) Expr {
	x, _, collation := hoistCollation(x, nil)
	return withCollation(Between{X: x, Lo: lo, Hi: hi}, collation)
}

// Fn builds a SQL function call.
func Fn(name string, args ...Expr) Expr {
	return Function{Name: name, Args: args}
}
