package listquery

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Statement is one parameterized SQL statement
type Statement struct {
	SQL  string
	Args []any
}

// Statements holds the page fetch and the matching count
type Statements struct {
	Fetch Statement
	Count Statement
}

// Compile renders p with "?" placeholders
func Compile(p *Plan) (Statements, error) {
	return CompileWith(p, sq.Question)
}

// CompileWith renders p using the given placeholder format. The count shares
// the fetch's WHERE but drops joins, ordering and pagination.
func CompileWith(p *Plan, format sq.PlaceholderFormat) (Statements, error) {
	var where sq.Sqlizer
	if p.Where != nil {
		w, err := lower(p.Where)
		if err != nil {
			return Statements{}, err
		}
		where = w
	}

	fetch := sq.Select().PlaceholderFormat(format).From(p.Table)
	for _, c := range p.Columns {
		fetch = fetch.Column(column(c))
	}
	for _, j := range p.Joins {
		fetch = fetch.Column(column(j.Marker))
		for _, c := range j.Columns {
			fetch = fetch.Column(column(c))
		}
		fetch = fetch.LeftJoin(fmt.Sprintf("%s AS %s ON %s", j.Table, j.Relation, j.On))
	}
	if where != nil {
		fetch = fetch.Where(where)
	}
	for _, k := range p.OrderBy {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		fetch = fetch.OrderBy(k.Column + " " + dir)
	}
	fetch = fetch.Limit(p.Limit).Offset(p.Offset)

	count := sq.Select("COUNT(*)").PlaceholderFormat(format).From(p.Table)
	if where != nil {
		count = count.Where(where)
	}

	var out Statements
	var err error
	if out.Fetch.SQL, out.Fetch.Args, err = fetch.ToSql(); err != nil {
		return Statements{}, fmt.Errorf("listquery: compile fetch for %s: %w", p.Table, err)
	}
	if out.Count.SQL, out.Count.Args, err = count.ToSql(); err != nil {
		return Statements{}, fmt.Errorf("listquery: compile count for %s: %w", p.Table, err)
	}
	return out, nil
}

func column(p Projection) string {
	return p.Expr + " AS " + quoteIdent(p.Alias)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func lower(p Predicate) (sq.Sqlizer, error) {
	switch n := p.(type) {
	case Compare:
		return lowerCompare(n)
	case And:
		parts, err := lowerAll(n.Terms)
		if err != nil {
			return nil, err
		}
		return sq.And(parts), nil
	case Or:
		parts, err := lowerAll(n.Terms)
		if err != nil {
			return nil, err
		}
		return sq.Or(parts), nil
	case Not:
		inner, err := lower(n.Term)
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil
	default:
		return nil, fmt.Errorf("listquery: unknown predicate %T", p)
	}
}

func lowerAll(terms []Predicate) ([]sq.Sqlizer, error) {
	parts := make([]sq.Sqlizer, 0, len(terms))
	for _, t := range terms {
		s, err := lower(t)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return parts, nil
}

// lowerCompare maps operators onto squirrel expressions. Eq and NotEq render
// nil as IS [NOT] NULL and slices as [NOT] IN; an empty IN list becomes
// (1=0) and an empty NOT IN list (1=1).
func lowerCompare(c Compare) (sq.Sqlizer, error) {
	switch c.Op {
	case OpEq, OpIn:
		return sq.Eq{c.Column: c.Value}, nil
	case OpNe, OpNin:
		return sq.NotEq{c.Column: c.Value}, nil
	case OpGt:
		return sq.Gt{c.Column: c.Value}, nil
	case OpGte:
		return sq.GtOrEq{c.Column: c.Value}, nil
	case OpLt:
		return sq.Lt{c.Column: c.Value}, nil
	case OpLte:
		return sq.LtOrEq{c.Column: c.Value}, nil
	case OpLike:
		return sq.Like{c.Column: c.Value}, nil
	case OpILike:
		return sq.ILike{c.Column: c.Value}, nil
	default:
		return nil, fmt.Errorf("listquery: unknown operator %q", c.Op)
	}
}

type notExpr struct {
	inner sq.Sqlizer
}

func (n notExpr) ToSql() (string, []any, error) {
	sql, args, err := n.inner.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", args, nil
}
