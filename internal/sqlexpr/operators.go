package sqlexpr

import "github.com/roach88/relq/internal/sqlval"

// UnaryOp is a prefix SQL operator.
type UnaryOp struct {
	SQL string
	// Spaced separates operator and operand with a space (NOT x vs -x).
	Spaced bool
}

var (
	OpNot      = UnaryOp{SQL: "NOT", Spaced: true}
	OpNegative = UnaryOp{SQL: "-"}
)

// BinaryOp is an infix SQL operator without associativity guarantees.
// Operators with a NegatedSQL form negate by swapping the operator
// instead of wrapping in NOT, producing more idiomatic SQL.
type BinaryOp struct {
	SQL        string
	NegatedSQL string
}

var (
	OpLess           = BinaryOp{SQL: "<"}
	OpLessOrEqual    = BinaryOp{SQL: "<="}
	OpGreater        = BinaryOp{SQL: ">"}
	OpGreaterOrEqual = BinaryOp{SQL: ">="}
	OpSubtract       = BinaryOp{SQL: "-"}
	OpDivide         = BinaryOp{SQL: "/"}
	OpLike           = BinaryOp{SQL: "LIKE", NegatedSQL: "NOT LIKE"}
)

// AssociativeOp is an infix SQL operator applied to a flat operand list.
//
// Strict marks operators that are exactly associative, so nested same-op
// subtrees may be spliced into a single flat list. Addition and
// multiplication are deliberately non-strict: floating-point arithmetic is
// not exactly associative, and regrouping would change results.
type AssociativeOp struct {
	SQL     string
	Neutral sqlval.Value
	Strict  bool
}

var (
	OpAnd      = AssociativeOp{SQL: "AND", Neutral: sqlval.Integer(1), Strict: true}
	OpOr       = AssociativeOp{SQL: "OR", Neutral: sqlval.Integer(0), Strict: true}
	OpConcat   = AssociativeOp{SQL: "||", Neutral: sqlval.Text(""), Strict: true}
	OpAdd      = AssociativeOp{SQL: "+", Neutral: sqlval.Integer(0)}
	OpMultiply = AssociativeOp{SQL: "*", Neutral: sqlval.Integer(1)}
)

// EqualityOp is one of the four SQL equality comparators.
type EqualityOp string

const (
	EqEqual    EqualityOp = "="
	EqNotEqual EqualityOp = "<>"
	EqIs       EqualityOp = "IS"
	EqIsNot    EqualityOp = "IS NOT"
)

// negated returns the logical complement of the comparator.
func (op EqualityOp) negated() EqualityOp {
	switch op {
	case EqEqual:
		return EqNotEqual
	case EqNotEqual:
		return EqEqual
	case EqIs:
		return EqIsNot
	default:
		return EqIs
	}
}
