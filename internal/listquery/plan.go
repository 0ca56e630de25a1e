package listquery

import (
	"cmp"
	"math"
	"reflect"
	"slices"
)

const markerPrefix = "_"

// relationSep joins a relation name and field name in column aliases
const relationSep = "__"

// Plan lowers d against the schema. Anything the schema does not allow is
// dropped: the builder trusts its input to have been validated and never
// fails on it.
func (s *Schema) Plan(d Descriptor) *Plan {
	page, limit := s.window(d.Page, d.Limit)
	return &Plan{
		Table:    s.table,
		Columns:  s.projections(d.Select),
		Joins:    s.joins(d.Include),
		Where:    s.where(d.Filter, d.Logical),
		OrderBy:  s.orderBy(d.Sort),
		Limit:    uint64(limit),
		Offset:   offset(page, limit),
		Page:     page,
		PageSize: limit,
	}
}

// CursorPlan lowers q into a keyset page ordered by primary key. One extra
// row is fetched to learn whether another page follows. The primary key is
// always projected since the next cursor is read from it.
func (s *Schema) CursorPlan(q CursorQuery) *Plan {
	_, limit := s.window(1, q.Limit)
	pkColumn := s.qualify(s.pk)

	cols := s.projections(q.Select)
	if !slices.ContainsFunc(cols, func(p Projection) bool { return p.Alias == s.pk.Name }) {
		cols = append([]Projection{s.project(s.pk)}, cols...)
	}

	terms := []Predicate{}
	if where := s.where(q.Filter, q.Logical); where != nil {
		terms = append(terms, where)
	}
	desc := q.Order == Desc
	if q.Cursor != "" {
		op := OpGt
		if desc {
			op = OpLt
		}
		terms = append(terms, Compare{Column: pkColumn, Op: op, Value: q.Cursor})
	}

	return &Plan{
		Table:    s.table,
		Columns:  cols,
		Joins:    s.joins(q.Include),
		Where:    conjunction(terms),
		OrderBy:  []SortKey{{Column: pkColumn, Desc: desc}},
		Limit:    uint64(limit + 1),
		Page:     1,
		PageSize: limit,
	}
}

func (s *Schema) window(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return page, limit
}

// offset saturates at MaxInt64 so a page past any real table reads no rows
// instead of wrapping back to the start
func offset(page, limit int) uint64 {
	skip := int64(page - 1)
	if skip > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return uint64(skip * int64(limit))
}

func (s *Schema) qualify(f Field) string {
	return s.table + "." + f.Column
}

func (s *Schema) project(f Field) Projection {
	return Projection{Expr: s.qualify(f), Alias: f.Name, Field: f}
}

// projections keeps declared field order. An empty selection means every
// field; otherwise fields outside the selectable whitelist are always kept.
func (s *Schema) projections(selection []string) []Projection {
	var wanted map[string]bool
	if s.SelectEnabled() && len(selection) > 0 {
		wanted = make(map[string]bool, len(selection))
		for _, name := range selection {
			wanted[name] = true
		}
	}

	cols := make([]Projection, 0, len(s.fields))
	for _, f := range s.fields {
		if wanted != nil && s.IsSelectable(f.Name) && !wanted[f.Name] {
			continue
		}
		cols = append(cols, s.project(f))
	}
	return cols
}

func (s *Schema) joins(include map[string][]string) []Join {
	if len(include) == 0 {
		return nil
	}
	var joins []Join
	for _, r := range s.relations {
		requested, ok := include[r.Name]
		if !ok {
			continue
		}
		var cols []Projection
		for _, f := range r.Fields {
			if !slices.Contains(requested, f.Name) {
				continue
			}
			cols = append(cols, Projection{
				Expr:  r.Name + "." + f.Column,
				Alias: r.Name + relationSep + f.Name,
				Field: f,
			})
		}
		if len(cols) == 0 {
			continue
		}
		joins = append(joins, Join{
			Relation: r.Name,
			Table:    r.Table,
			On:       r.Name + "." + r.ForeignKey + " = " + s.table + "." + r.LocalKey,
			Marker: Projection{
				Expr:  r.Name + "." + r.ForeignKey,
				Alias: markerPrefix + r.Name,
				Field: Field{Name: r.ForeignKey, Column: r.ForeignKey},
			},
			Columns: cols,
		})
	}
	return joins
}

func (s *Schema) where(filter map[string]OperatorSet, logical *Condition) Predicate {
	terms := s.fieldPredicates(filter)
	if s.logical && logical != nil {
		if p := s.lowerCondition(logical); p != nil {
			terms = append(terms, p)
		}
	}
	return conjunction(terms)
}

// fieldPredicates emits predicates in declared field order, then in
// Operators order, so equal filters always produce identical SQL.
func (s *Schema) fieldPredicates(filter map[string]OperatorSet) []Predicate {
	if len(filter) == 0 {
		return nil
	}
	var terms []Predicate
	for _, f := range s.fields {
		ops, ok := filter[f.Name]
		if !ok || !s.IsFilterable(f.Name) {
			continue
		}
		for _, op := range Operators {
			value, ok := ops[op]
			if !ok {
				continue
			}
			if p, ok := s.compare(f, op, value); ok {
				terms = append(terms, p)
			}
		}
	}
	return terms
}

func (s *Schema) compare(f Field, op Operator, value any) (Predicate, bool) {
	column := s.qualify(f)
	switch op {
	case OpIn, OpNin:
		list, ok := asList(value)
		if !ok {
			return nil, false
		}
		return Compare{Column: column, Op: op, Value: list}, true
	case OpLike, OpILike:
		pattern, ok := value.(string)
		if !ok {
			return nil, false
		}
		return Compare{Column: column, Op: op, Value: pattern}, true
	case OpEq, OpNe:
		if _, isList := asList(value); isList {
			return nil, false
		}
		return Compare{Column: column, Op: op, Value: value}, true
	default:
		if _, isList := asList(value); isList || value == nil {
			return nil, false
		}
		return Compare{Column: column, Op: op, Value: value}, true
	}
}

func (s *Schema) lowerCondition(c *Condition) Predicate {
	terms := s.fieldPredicates(c.Fields)

	var all []Predicate
	for _, child := range c.And {
		if p := s.lowerCondition(child); p != nil {
			all = append(all, p)
		}
	}
	if p := conjunction(all); p != nil {
		terms = append(terms, p)
	}

	var alternatives []Predicate
	for _, child := range c.Or {
		if p := s.lowerCondition(child); p != nil {
			alternatives = append(alternatives, p)
		}
	}
	if p := disjunction(alternatives); p != nil {
		terms = append(terms, p)
	}

	if c.Not != nil {
		if p := s.lowerCondition(c.Not); p != nil {
			terms = append(terms, Not{Term: p})
		}
	}
	return conjunction(terms)
}

// orderBy resolves entries by ascending Index. Entries sharing an index keep
// their relative order; callers should not rely on it.
func (s *Schema) orderBy(terms []SortTerm) []SortKey {
	if len(terms) == 0 {
		return nil
	}
	sorted := slices.Clone(terms)
	slices.SortStableFunc(sorted, func(a, b SortTerm) int {
		return cmp.Compare(a.Index, b.Index)
	})

	seen := make(map[string]bool, len(sorted))
	keys := make([]SortKey, 0, len(sorted))
	for _, t := range sorted {
		if seen[t.Field] || !s.IsSortable(t.Field) {
			continue
		}
		seen[t.Field] = true
		keys = append(keys, SortKey{Column: s.qualify(s.byName[t.Field]), Desc: t.Order == Desc})
	}
	return keys
}

// asList converts any slice except raw bytes into []any
func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
