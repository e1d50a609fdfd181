// Package sqlgen assembles relation trees into executable SQL statements.
package sqlgen

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/relq/internal/relation"
	"github.com/roach88/relq/internal/schema"
	"github.com/roach88/relq/internal/sqlexpr"
	"github.com/roach88/relq/internal/sqlval"
)

// Statement is a ready-to-execute SQL string with its ordered arguments.
type Statement struct {
	SQL  string
	Args []sqlval.Value
}

// joinNode is a to-one child flattened into the parent statement.
type joinNode struct {
	alias     *sqlexpr.TableAlias
	table     string
	left      bool
	on        sqlexpr.Expr
	selection []sqlexpr.Selection
	ordering  sqlexpr.Ordering
}

// Generate resolves the relation's promises against the schema and renders
// it as a single SELECT, together with the plans for its deferred child
// fetches. Joined children flatten into JOIN clauses; prefetched children
// never appear in the returned SQL.
func Generate(ctx context.Context, db schema.Introspecter, rel relation.Relation) (Statement, []relation.PrefetchPlan, error) {
	stmt, err := generateSelect(ctx, db, rel)
	if err != nil {
		return Statement{}, nil, err
	}
	return stmt, rel.PrefetchPlans(), nil
}

// GenerateCount renders the statement counting the relation's rows.
//
// When a single SELECT cannot express the count (GROUP BY, LIMIT, CTEs,
// or joined children that filter or duplicate parent rows), the unordered
// relation wraps in SELECT COUNT(*) FROM (...). Otherwise the selection
// rewrites to a COUNT expression in place.
func GenerateCount(ctx context.Context, db schema.Introspecter, rel relation.Relation) (Statement, error) {
	if !rel.NeedsTrivialCount() {
		selection, err := rel.SelectionPromise.Resolve(ctx, db)
		if err != nil {
			return Statement{}, err
		}
		if expr, ok := sqlexpr.CountingExpr(selection, rel.Distinct); ok {
			counted := rel.Unordered().Select(sqlexpr.ExprSelection{X: expr})
			counted.Distinct = false
			return generateSelect(ctx, db, counted)
		}
	}

	inner, err := generateSelect(ctx, db, rel.Unordered())
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  "SELECT COUNT(*) FROM (" + inner.SQL + ")",
		Args: inner.Args,
	}, nil
}

func generateSelect(ctx context.Context, db schema.Introspecter, rel relation.Relation) (Statement, error) {
	source := rel.Source
	rootAlias, err := source.EnsureAlias()
	if err != nil {
		return Statement{}, err
	}

	joins, err := flattenJoins(ctx, db, rel, rootAlias, false)
	if err != nil {
		return Statement{}, err
	}

	gc := sqlexpr.NewGenContext()
	gc.SetFastPrimaryKeyResolver(func(table string) (string, error) {
		pk, err := db.PrimaryKey(ctx, table)
		if err != nil {
			return "", err
		}
		column, ok := pk.FastColumn()
		if !ok {
			return "", fmt.Errorf("table %q has no single-column primary key", table)
		}
		return column, nil
	})

	// Single-table statements render columns unqualified. Anything with a
	// join gets a qualifier per alias, named after the user alias or the
	// table, with numeric suffixes breaking ties.
	rootName := ""
	joinNames := make([]string, len(joins))
	if len(joins) > 0 {
		taken := make(map[string]bool)
		assign := func(alias *sqlexpr.TableAlias) string {
			preferred := alias.UserName()
			if preferred == "" {
				preferred = alias.TableName()
			}
			name := preferred
			for i := 1; taken[strings.ToLower(name)]; i++ {
				name = preferred + strconv.Itoa(i)
			}
			taken[strings.ToLower(name)] = true
			gc.SetQualifier(alias, name)
			return name
		}
		rootName = assign(rootAlias)
		for i, join := range joins {
			joinNames[i] = assign(join.alias)
		}
	}

	rootSelection, err := rel.SelectionPromise.Resolve(ctx, db)
	if err != nil {
		return Statement{}, err
	}
	filter, err := rel.FilterPromise.Resolve(ctx, db)
	if err != nil {
		return Statement{}, err
	}
	group, err := rel.GroupPromise.Resolve(ctx, db)
	if err != nil {
		return Statement{}, err
	}
	having, err := rel.HavingPromise.Resolve(ctx, db)
	if err != nil {
		return Statement{}, err
	}

	// Clauses render in final statement order so that arguments land in
	// placeholder order in one pass.
	var sb strings.Builder

	if len(rel.CTEs) > 0 {
		sb.WriteString("WITH ")
		for i, cte := range rel.CTEs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(sqlexpr.QuoteIdentifier(cte.Name))
			sb.WriteString(" AS (")
			sb.WriteString(cte.SQL)
			sb.WriteString(")")
			gc.AppendArgs(cte.Args)
		}
		sb.WriteString(" ")
	}

	sb.WriteString("SELECT ")
	if rel.Distinct {
		sb.WriteString("DISTINCT ")
	}

	var selectionParts []string
	for _, s := range rootSelection {
		part, err := sqlexpr.SelectionSQL(sqlexpr.QualifiedSelection(s, rootAlias), gc)
		if err != nil {
			return Statement{}, err
		}
		selectionParts = append(selectionParts, part)
	}
	for _, join := range joins {
		for _, s := range join.selection {
			part, err := sqlexpr.SelectionSQL(s, gc)
			if err != nil {
				return Statement{}, err
			}
			selectionParts = append(selectionParts, part)
		}
	}
	if len(selectionParts) == 0 {
		return Statement{}, fmt.Errorf("relation on table %q selects nothing", rel.Source.Table)
	}
	sb.WriteString(strings.Join(selectionParts, ", "))

	sb.WriteString(" FROM ")
	sb.WriteString(tableReference(rel.Source.Table, rootName))

	for i, join := range joins {
		if join.left {
			sb.WriteString(" LEFT JOIN ")
		} else {
			sb.WriteString(" JOIN ")
		}
		sb.WriteString(tableReference(join.table, joinNames[i]))
		if join.on != nil {
			onSQL, err := sqlexpr.SQL(join.on, gc)
			if err != nil {
				return Statement{}, err
			}
			sb.WriteString(" ON ")
			sb.WriteString(onSQL)
		}
	}

	if filter != nil {
		whereSQL, err := sqlexpr.SQL(sqlexpr.Qualified(filter, rootAlias), gc)
		if err != nil {
			return Statement{}, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(whereSQL)
	}

	if len(group) > 0 {
		parts := make([]string, len(group))
		for i, g := range group {
			part, err := sqlexpr.SQL(sqlexpr.Qualified(g, rootAlias), gc)
			if err != nil {
				return Statement{}, err
			}
			parts[i] = part
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if having != nil {
		havingSQL, err := sqlexpr.SQL(sqlexpr.Qualified(having, rootAlias), gc)
		if err != nil {
			return Statement{}, err
		}
		sb.WriteString(" HAVING ")
		sb.WriteString(havingSQL)
	}

	ordering := rel.Ordering.Qualified(rootAlias)
	for _, join := range joins {
		ordering = ordering.Appending(join.ordering)
	}
	if !ordering.IsEmpty() {
		orderSQL, err := ordering.SQL(gc)
		if err != nil {
			return Statement{}, err
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orderSQL)
	}

	if rel.Limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(rel.Limit.Count))
		if rel.Limit.Offset != nil {
			sb.WriteString(" OFFSET ")
			sb.WriteString(strconv.Itoa(*rel.Limit.Offset))
		}
	}

	return Statement{SQL: sb.String(), Args: gc.Args()}, nil
}

// flattenJoins collects the to-one children of a relation, depth first,
// resolving their join conditions against the parent alias. Descendants of
// an optional join render LEFT as well: an inner join below a LEFT JOIN
// would silently reintroduce the requirement.
func flattenJoins(ctx context.Context, db schema.Introspecter, rel relation.Relation, parentAlias *sqlexpr.TableAlias, forceLeft bool) ([]joinNode, error) {
	var joins []joinNode
	for _, entry := range rel.Children {
		child := entry.Child
		if !child.Kind.IsSingular() {
			continue
		}

		source := child.Relation.Source
		childAlias, err := source.EnsureAlias()
		if err != nil {
			return nil, err
		}

		on, err := relation.JoinExpr(ctx, db, child.Condition, parentAlias, childAlias)
		if err != nil {
			return nil, err
		}
		childFilter, err := child.Relation.FilterPromise.Resolve(ctx, db)
		if err != nil {
			return nil, err
		}
		if childFilter != nil {
			qualified := sqlexpr.Qualified(childFilter, childAlias)
			if on == nil {
				on = qualified
			} else {
				on = sqlexpr.And(on, qualified)
			}
		}

		selection, err := child.Relation.SelectionPromise.Resolve(ctx, db)
		if err != nil {
			return nil, err
		}
		qualifiedSelection := make([]sqlexpr.Selection, len(selection))
		for i, s := range selection {
			qualifiedSelection[i] = sqlexpr.QualifiedSelection(s, childAlias)
		}

		left := forceLeft || child.Kind == relation.OneOptional
		joins = append(joins, joinNode{
			alias:     childAlias,
			table:     source.Table,
			left:      left,
			on:        on,
			selection: qualifiedSelection,
			ordering:  child.Relation.Ordering.Qualified(childAlias),
		})

		nested, err := flattenJoins(ctx, db, child.Relation, childAlias, left)
		if err != nil {
			return nil, err
		}
		joins = append(joins, nested...)
	}
	return joins, nil
}

func tableReference(table, qualifier string) string {
	ref := sqlexpr.QuoteIdentifier(table)
	if qualifier != "" && qualifier != table {
		ref += " " + sqlexpr.QuoteIdentifier(qualifier)
	}
	return ref
}
