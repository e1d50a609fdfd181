package cli

import (
	"fmt"

	"github.com/roach88/relq/internal/relation"
	"github.com/roach88/relq/internal/sqlexpr"
)

// BuildRelation turns a validated request into a relation tree.
func BuildRelation(req *Request) (relation.Relation, error) {
	rel := relation.All(req.Table)

	if len(req.Select) > 0 {
		selection := make([]sqlexpr.Selection, len(req.Select))
		for i, column := range req.Select {
			selection[i] = sqlexpr.ExprSelection{X: sqlexpr.Col(column)}
		}
		rel = rel.Select(selection...)
	}

	if len(req.Filters) > 0 {
		predicate, err := buildFilters(req.Filters)
		if err != nil {
			return relation.Relation{}, err
		}
		rel = rel.Filter(predicate)
	}

	for _, join := range req.Joins {
		assoc, kind, err := buildAssociation(req.Table, join)
		if err != nil {
			return relation.Relation{}, err
		}
		rel, err = rel.AppendingChild(assoc, kind)
		if err != nil {
			return relation.Relation{}, err
		}
	}

	if len(req.Order) > 0 {
		terms := make([]sqlexpr.OrderingTerm, len(req.Order))
		for i, term := range req.Order {
			if term.Desc {
				terms[i] = sqlexpr.Desc(sqlexpr.Col(term.Column))
			} else {
				terms[i] = sqlexpr.Asc(sqlexpr.Col(term.Column))
			}
		}
		rel = rel.Order(terms...)
	}

	if req.Distinct {
		rel = rel.WithDistinct()
	}
	if req.Limit != nil {
		rel = rel.Limited(*req.Limit, req.Offset)
	}

	return rel, nil
}

// buildFilters AND-composes a filter list, the implicit grouping of the
// request's top-level filters.
func buildFilters(filters []Filter) (sqlexpr.Expr, error) {
	predicates := make([]sqlexpr.Expr, len(filters))
	for i, f := range filters {
		predicate, err := buildFilter(f)
		if err != nil {
			return nil, err
		}
		predicates[i] = predicate
	}
	return sqlexpr.And(predicates...), nil
}

func buildFilter(f Filter) (sqlexpr.Expr, error) {
	if len(f.All) > 0 {
		return buildFilters(f.All)
	}
	if len(f.Any) > 0 {
		predicates := make([]sqlexpr.Expr, len(f.Any))
		for i, nested := range f.Any {
			predicate, err := buildFilter(nested)
			if err != nil {
				return nil, err
			}
			predicates[i] = predicate
		}
		return sqlexpr.Or(predicates...), nil
	}

	if f.Column == "" {
		return nil, fmt.Errorf("filter requires a column or an all/any group")
	}
	column := sqlexpr.Col(f.Column)

	switch f.Op {
	case "eq":
		return sqlexpr.Eq(column, sqlexpr.Value(f.Value)), nil
	case "ne":
		return sqlexpr.NotEq(column, sqlexpr.Value(f.Value)), nil
	case "lt":
		return sqlexpr.Compare(sqlexpr.OpLess, column, sqlexpr.Value(f.Value)), nil
	case "le":
		return sqlexpr.Compare(sqlexpr.OpLessOrEqual, column, sqlexpr.Value(f.Value)), nil
	case "gt":
		return sqlexpr.Compare(sqlexpr.OpGreater, column, sqlexpr.Value(f.Value)), nil
	case "ge":
		return sqlexpr.Compare(sqlexpr.OpGreaterOrEqual, column, sqlexpr.Value(f.Value)), nil
	case "like":
		return sqlexpr.Compare(sqlexpr.OpLike, column, sqlexpr.Value(f.Value)), nil
	case "in":
		list, ok := f.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("filter op %q on %q requires a list value", f.Op, f.Column)
		}
		elements := make([]sqlexpr.Expr, len(list))
		for i, v := range list {
			elements[i] = sqlexpr.Value(v)
		}
		return sqlexpr.InCollection(column, elements, false), nil
	case "between":
		list, ok := f.Value.([]any)
		if !ok || len(list) != 2 {
			return nil, fmt.Errorf("filter op %q on %q requires a two-element list", f.Op, f.Column)
		}
		return sqlexpr.BetweenRange(column, sqlexpr.Value(list[0]), sqlexpr.Value(list[1])), nil
	case "isNull":
		return sqlexpr.Eq(column, sqlexpr.Value(nil)), nil
	case "isNotNull":
		return sqlexpr.NotEq(column, sqlexpr.Value(nil)), nil
	default:
		return nil, fmt.Errorf("unknown filter op %q", f.Op)
	}
}

func buildAssociation(parentTable string, join JoinSpec) (relation.Association, relation.Kind, error) {
	var assoc relation.Association
	switch join.Association {
	case "belongsTo":
		assoc = relation.BelongsTo(parentTable, join.Table, join.Key, join.OriginColumns, join.DestinationColumns)
	case "hasOne":
		assoc = relation.HasOne(parentTable, join.Table, join.Key, join.OriginColumns, join.DestinationColumns)
	case "hasMany":
		assoc = relation.HasMany(parentTable, join.Table, join.Key, join.OriginColumns, join.DestinationColumns)
	default:
		return relation.Association{}, 0, fmt.Errorf("unknown association %q", join.Association)
	}

	if len(join.Filters) > 0 || len(join.Joins) > 0 {
		var err error
		assoc, err = assoc.MapDestinationRelation(func(rel relation.Relation) (relation.Relation, error) {
			if len(join.Filters) > 0 {
				predicate, err := buildFilters(join.Filters)
				if err != nil {
					return relation.Relation{}, err
				}
				rel = rel.Filter(predicate)
			}
			for _, nested := range join.Joins {
				nestedAssoc, nestedKind, err := buildAssociation(join.Table, nested)
				if err != nil {
					return relation.Relation{}, err
				}
				rel, err = rel.AppendingChild(nestedAssoc, nestedKind)
				if err != nil {
					return relation.Relation{}, err
				}
			}
			return rel, nil
		})
		if err != nil {
			return relation.Association{}, 0, err
		}
	}

	var kind relation.Kind
	switch join.Kind {
	case "required":
		kind = relation.OneRequired
	case "optional":
		kind = relation.OneOptional
	case "prefetch":
		kind = relation.AllPrefetched
	default:
		return relation.Association{}, 0, fmt.Errorf("unknown join kind %q", join.Kind)
	}

	return assoc, kind, nil
}
