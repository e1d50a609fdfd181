package sqlexpr

import "fmt"

// TableAlias is a named or anonymous proxy standing in for a concrete table
// in a FROM or JOIN clause.
//
// Aliases have reference identity: two relations refer to the same FROM-clause
// entry exactly when their aliases resolve to the same root. When a merge
// discovers that two aliases reference the same source, one "becomes a proxy
// of" the other: a parent pointer is recorded and every later resolution walks
// to the root (a small union-find scoped to one statement build).
//
// Once a root is bound to a table name the binding is stable - rebinding to a
// different table is an error.
type TableAlias struct {
	userName string
	table    string
	parent   *TableAlias
}

// NewTableAlias creates an alias. userName may be empty for anonymous
// aliases; named aliases keep their name through proxy unification.
func NewTableAlias(userName string) *TableAlias {
	return &TableAlias{userName: userName}
}

// Root walks parent pointers to the representative alias.
func (a *TableAlias) Root() *TableAlias {
	root := a
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// UserName returns the user-provided name of the root alias, or "".
func (a *TableAlias) UserName() string {
	return a.Root().userName
}

// TableName returns the table the root alias is bound to, or "".
func (a *TableAlias) TableName() string {
	return a.Root().table
}

// BindTable binds the root alias to a table name.
// The binding is stable: binding to a different table is an error.
func (a *TableAlias) BindTable(table string) error {
	root := a.Root()
	if root.table != "" && root.table != table {
		return fmt.Errorf("table alias %q is bound to table %q, cannot rebind to %q",
			root.userName, root.table, table)
	}
	root.table = table
	return nil
}

// BecomeProxyOf unifies a with other: after the call both resolve to the
// same root. Conflicting table bindings or conflicting user names are
// structural errors - the two aliases cannot reference the same source.
func (a *TableAlias) BecomeProxyOf(other *TableAlias) error {
	ra, rb := a.Root(), other.Root()
	if ra == rb {
		return nil
	}
	if ra.table != "" && rb.table != "" && ra.table != rb.table {
		return fmt.Errorf("cannot unify aliases bound to different tables %q and %q", ra.table, rb.table)
	}
	if ra.userName != "" && rb.userName != "" && ra.userName != rb.userName {
		return fmt.Errorf("cannot unify aliases named %q and %q", ra.userName, rb.userName)
	}
	if rb.table == "" {
		rb.table = ra.table
	}
	if rb.userName == "" {
		rb.userName = ra.userName
	}
	ra.parent = rb
	return nil
}
