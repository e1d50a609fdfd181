package sqlexpr

import (
	"fmt"

	"github.com/roach88/relq/internal/sqlval"
)

// GenContext is the generation context for one statement build.
//
// It owns the alias-to-qualifier naming table and the ordered argument sink.
// A context is built fresh per statement and never shared across builds:
// argument order must match the order placeholders appear in the final text,
// and qualifier names depend on which aliases the statement touches.
type GenContext struct {
	args       []sqlval.Value
	qualifiers map[*TableAlias]string
	fastPK     func(table string) (string, error)
}

// NewGenContext creates an empty generation context.
func NewGenContext() *GenContext {
	return &GenContext{
		qualifiers: make(map[*TableAlias]string),
	}
}

// AppendArg records a bind argument and returns its placeholder.
func (gc *GenContext) AppendArg(v sqlval.Value) string {
	gc.args = append(gc.args, v)
	return "?"
}

// AppendArgs records a run of bind arguments (opaque SQL fragments carry
// their own placeholders).
func (gc *GenContext) AppendArgs(vs []sqlval.Value) {
	gc.args = append(gc.args, vs...)
}

// Args returns the bind arguments collected so far, in placeholder order.
func (gc *GenContext) Args() []sqlval.Value {
	return gc.args
}

// SetQualifier names the alias in the generated SQL. Keyed on the alias
// root, so proxies share the qualifier of their representative.
func (gc *GenContext) SetQualifier(a *TableAlias, name string) {
	gc.qualifiers[a.Root()] = name
}

// Qualifier returns the name assigned to the alias, if any. Statements
// that read a single table register no qualifiers and render columns
// unqualified.
func (gc *GenContext) Qualifier(a *TableAlias) (string, bool) {
	name, ok := gc.qualifiers[a.Root()]
	return name, ok
}

// SetFastPrimaryKeyResolver installs the schema lookup used to render
// FastPrimaryKey expressions.
func (gc *GenContext) SetFastPrimaryKeyResolver(fn func(table string) (string, error)) {
	gc.fastPK = fn
}

func (gc *GenContext) fastPrimaryKeyColumn(table string) (string, error) {
	if gc.fastPK == nil {
		return "", fmt.Errorf("no schema available to resolve the primary key of %q", table)
	}
	return gc.fastPK(table)
}
