package listquery

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/pkg/querystring"
	"github.com/Payphone-Digital/content-api/pkg/validation"
)

// maxPage keeps page*limit well inside a bigint offset
const maxPage = math.MaxInt32

// maxConditionDepth bounds and/or/not nesting in logical filters
const maxConditionDepth = 8

var validate = validator.New()

// ParseQuery validates a decoded query string against s. Every problem is
// reported; the returned error is an *errors.ValidationError.
func ParseQuery(tree *querystring.Node, s *Schema) (Descriptor, error) {
	p := &parser{schema: s}
	d := Descriptor{Page: 1, Limit: s.DefaultLimit()}

	for _, key := range tree.Keys() {
		node, _ := tree.Get(key)
		switch key {
		case "page":
			d.Page = p.integer("page", node, fmt.Sprintf("min=1,max=%d", maxPage), d.Page)
		case "sort":
			d.Sort = p.sorting(node)
		default:
			if !p.common(key, node, &d) {
				p.fail(key, fmt.Sprintf("%s is not a recognized query parameter", key), node.Interface())
			}
		}
	}

	if err := p.result(tree); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// ParseCursorQuery is ParseQuery for keyset pagination: page and sort give
// way to cursor and order.
func ParseCursorQuery(tree *querystring.Node, s *Schema) (CursorQuery, error) {
	p := &parser{schema: s}
	q := CursorQuery{Descriptor: Descriptor{Limit: s.DefaultLimit()}, Order: Asc}

	for _, key := range tree.Keys() {
		node, _ := tree.Get(key)
		switch key {
		case "cursor":
			if raw, ok := p.leaf("cursor", node); ok && raw != "" {
				if v, ok := p.coerce("cursor", s.PrimaryKey(), raw, false); ok {
					q.Cursor = fmt.Sprint(v)
				}
			}
		case "order":
			if raw, ok := p.leaf("order", node); ok && p.check("order", raw, "oneof=asc desc", raw) {
				q.Order = Order(raw)
			}
		default:
			if !p.common(key, node, &q.Descriptor) {
				p.fail(key, fmt.Sprintf("%s is not a recognized query parameter", key), node.Interface())
			}
		}
	}

	if err := p.result(tree); err != nil {
		return CursorQuery{}, err
	}
	return q, nil
}

type parser struct {
	schema *Schema
	errs   *multierror.Error
}

func (p *parser) common(key string, node *querystring.Node, d *Descriptor) bool {
	switch key {
	case "limit":
		d.Limit = p.integer("limit", node, fmt.Sprintf("min=1,max=%d", p.schema.MaxLimit()), d.Limit)
	case "select":
		d.Select = p.selection(node)
	case "filter":
		d.Filter, d.Logical = p.filtering(node)
	case "include":
		d.Include = p.inclusion(node)
	default:
		return false
	}
	return true
}

func (p *parser) result(tree *querystring.Node) error {
	if p.errs.ErrorOrNil() == nil {
		return nil
	}
	issues := make([]*apperrors.FieldError, 0, len(p.errs.Errors))
	for _, err := range p.errs.Errors {
		var fe *apperrors.FieldError
		if errors.As(err, &fe) {
			issues = append(issues, fe)
		}
	}
	return apperrors.NewValidationError("query", tree.Interface(), issues)
}

func (p *parser) fail(path, message string, value any) {
	p.errs = multierror.Append(p.errs, &apperrors.FieldError{Path: path, Message: message, Value: value})
}

// check runs a validator tag against value and records any failure under path
func (p *parser) check(path string, value any, tag string, raw any) bool {
	err := validate.Var(value, tag)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			p.fail(path, validation.DefaultMessage(path, fe.Tag(), fe.Param()), raw)
		}
		return false
	}
	p.fail(path, err.Error(), raw)
	return false
}

// member checks name against an allow list
func (p *parser) member(path, name string, allowed []string, what string) bool {
	if len(allowed) == 0 {
		p.fail(path, fmt.Sprintf("%s is not %s", path, what), name)
		return false
	}
	return p.check(path, name, "oneof="+strings.Join(allowed, " "), name)
}

func (p *parser) leaf(path string, node *querystring.Node) (string, bool) {
	if node.Kind != querystring.KindString {
		p.fail(path, fmt.Sprintf("%s must be a single value", path), node.Interface())
		return "", false
	}
	return node.Value, true
}

func (p *parser) integer(path string, node *querystring.Node, tag string, fallback int) int {
	raw, ok := p.leaf(path, node)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.fail(path, fmt.Sprintf("%s must be an integer", path), raw)
		return fallback
	}
	if !p.check(path, n, tag, raw) {
		return fallback
	}
	return n
}

// list accepts repeated keys, bracket lists and comma separated values
func (p *parser) list(path string, node *querystring.Node) ([]string, bool) {
	values, ok := node.Strings()
	if !ok {
		p.fail(path, fmt.Sprintf("%s must be a list of values", path), node.Interface())
		return nil, false
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, true
}

func (p *parser) selection(node *querystring.Node) []string {
	names, ok := p.list("select", node)
	if !ok {
		return nil
	}
	if !p.schema.SelectEnabled() {
		p.fail("select", "select is not supported here", node.Interface())
		return nil
	}
	valid := true
	for i, name := range names {
		valid = p.member(fmt.Sprintf("select[%d]", i), name, p.schema.Selectable(), "selectable") && valid
	}
	if !p.check("select", names, "unique", names) || !valid {
		return nil
	}
	return names
}

func (p *parser) sorting(node *querystring.Node) []SortTerm {
	if node.Kind != querystring.KindObject {
		p.fail("sort", "sort must map fields to {order, index}", node.Interface())
		return nil
	}
	var terms []SortTerm
	for _, field := range node.Keys() {
		child, _ := node.Get(field)
		path := "sort." + field
		if !p.member(path, field, p.schema.Sortable(), "sortable") {
			continue
		}
		term := SortTerm{Field: field, Order: Asc}
		switch child.Kind {
		case querystring.KindString:
			if p.check(path, child.Value, "oneof=asc desc", child.Value) {
				term.Order = Order(child.Value)
			}
		case querystring.KindObject:
			for _, key := range child.Keys() {
				v, _ := child.Get(key)
				switch key {
				case "order":
					if raw, ok := p.leaf(path+".order", v); ok && p.check(path+".order", raw, "oneof=asc desc", raw) {
						term.Order = Order(raw)
					}
				case "index":
					term.Index = p.integer(path+".index", v, "gte=0", 0)
				default:
					p.fail(path+"."+key, fmt.Sprintf("%s.%s is not a sort option", path, key), v.Interface())
				}
			}
		default:
			p.fail(path, fmt.Sprintf("%s must be asc, desc or {order, index}", path), child.Interface())
		}
		terms = append(terms, term)
	}
	return terms
}

func (p *parser) filtering(node *querystring.Node) (map[string]OperatorSet, *Condition) {
	if node.Kind != querystring.KindObject {
		p.fail("filter", "filter must map fields to operators", node.Interface())
		return nil, nil
	}
	filter := make(map[string]OperatorSet)
	var logical *Condition
	for _, key := range node.Keys() {
		child, _ := node.Get(key)
		if p.schema.LogicalFilter() && isLogicalKey(key) {
			if logical == nil {
				logical = &Condition{}
			}
			p.logicalKey(logical, "filter", key, child, 1)
			continue
		}
		if ops := p.operators("filter."+key, key, child); ops != nil {
			filter[key] = ops
		}
	}
	if len(filter) == 0 {
		filter = nil
	}
	return filter, logical
}

func isLogicalKey(key string) bool {
	return key == "and" || key == "or" || key == "not"
}

func (p *parser) condition(path string, node *querystring.Node, depth int) *Condition {
	if node.Kind != querystring.KindObject || node.Len() == 0 {
		p.fail(path, fmt.Sprintf("%s must be a non-empty condition", path), node.Interface())
		return nil
	}
	c := &Condition{}
	for _, key := range node.Keys() {
		child, _ := node.Get(key)
		if isLogicalKey(key) {
			p.logicalKey(c, path, key, child, depth+1)
			continue
		}
		if ops := p.operators(path+"."+key, key, child); ops != nil {
			if c.Fields == nil {
				c.Fields = make(map[string]OperatorSet)
			}
			c.Fields[key] = ops
		}
	}
	return c
}

func (p *parser) logicalKey(c *Condition, path, key string, node *querystring.Node, depth int) {
	path = path + "." + key
	if depth > maxConditionDepth {
		p.fail(path, fmt.Sprintf("%s nests deeper than %d levels", path, maxConditionDepth), nil)
		return
	}
	if key == "not" {
		c.Not = p.condition(path, node, depth)
		return
	}

	elems, ok := node.Elements()
	if !ok || len(elems) == 0 {
		p.fail(path, fmt.Sprintf("%s must be a non-empty list of conditions", path), node.Interface())
		return
	}
	for i, elem := range elems {
		child := p.condition(fmt.Sprintf("%s[%d]", path, i), elem, depth)
		if child == nil {
			continue
		}
		if key == "and" {
			c.And = append(c.And, child)
		} else {
			c.Or = append(c.Or, child)
		}
	}
}

// operators validates one field's operator bag. A bare value is shorthand for eq.
func (p *parser) operators(path, name string, node *querystring.Node) OperatorSet {
	if !p.member(path, name, p.schema.Filterable(), "filterable") {
		return nil
	}
	f, _ := p.schema.Field(name)

	if node.Kind == querystring.KindString {
		if v, ok := p.coerce(path, f, node.Value, true); ok {
			return OperatorSet{OpEq: v}
		}
		return nil
	}
	if node.Kind != querystring.KindObject {
		p.fail(path, fmt.Sprintf("%s must be a value or an operator map", path), node.Interface())
		return nil
	}

	ops := make(OperatorSet, node.Len())
	for _, key := range node.Keys() {
		child, _ := node.Get(key)
		opPath := path + "." + key
		op := Operator(key)
		if !op.Valid() {
			names := make([]string, len(Operators))
			for i, o := range Operators {
				names[i] = string(o)
			}
			p.member(opPath, key, names, "an operator")
			continue
		}

		switch op {
		case OpIn, OpNin:
			raws, ok := p.list(opPath, child)
			if !ok {
				continue
			}
			values := make([]any, 0, len(raws))
			valid := true
			for i, raw := range raws {
				v, ok := p.coerce(fmt.Sprintf("%s[%d]", opPath, i), f, raw, false)
				valid = valid && ok
				values = append(values, v)
			}
			if valid {
				ops[op] = values
			}
		case OpLike, OpILike:
			if f.Type != TypeString {
				p.fail(opPath, fmt.Sprintf("%s is only supported on text fields", opPath), child.Interface())
				continue
			}
			if raw, ok := p.leaf(opPath, child); ok {
				ops[op] = raw
			}
		default:
			raw, ok := p.leaf(opPath, child)
			if !ok {
				continue
			}
			if v, ok := p.coerce(opPath, f, raw, op == OpEq || op == OpNe); ok {
				ops[op] = v
			}
		}
	}
	if len(ops) == 0 {
		return nil
	}
	return ops
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateOnly}

// coerce converts raw to the field's type. The literal null becomes nil
// for non-text fields when nullable is set.
func (p *parser) coerce(path string, f Field, raw string, nullable bool) (any, bool) {
	if nullable && raw == "null" && f.Type != TypeString {
		return nil, true
	}
	switch f.Type {
	case TypeString:
		return raw, true
	case TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			p.fail(path, fmt.Sprintf("%s must be an integer", path), raw)
			return nil, false
		}
		return n, true
	case TypeDecimal:
		if !p.check(path, raw, "numeric", raw) {
			return nil, false
		}
		return raw, true
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			p.fail(path, validation.DefaultMessage(path, "boolean", ""), raw)
			return nil, false
		}
		return b, true
	case TypeTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
		p.fail(path, fmt.Sprintf("%s must be an RFC 3339 timestamp or a YYYY-MM-DD date", path), raw)
		return nil, false
	case TypeUUID:
		id := strings.ToLower(raw)
		if !p.check(path, id, "uuid", raw) {
			return nil, false
		}
		return id, true
	default:
		p.fail(path, fmt.Sprintf("%s cannot be compared", path), raw)
		return nil, false
	}
}

func (p *parser) inclusion(node *querystring.Node) map[string][]string {
	if node.Kind != querystring.KindObject {
		p.fail("include", "include must map relations to field lists", node.Interface())
		return nil
	}
	include := make(map[string][]string, node.Len())
	for _, name := range node.Keys() {
		child, _ := node.Get(name)
		path := "include." + name
		if !p.member(path, name, p.schema.RelationNames(), "an includable relation") {
			continue
		}
		rel, _ := p.schema.Relation(name)
		fields, ok := p.list(path, child)
		if !ok {
			continue
		}
		valid := true
		for i, field := range fields {
			valid = p.member(fmt.Sprintf("%s[%d]", path, i), field, rel.FieldNames(), "a field of "+name) && valid
		}
		if p.check(path, fields, "unique", fields) && valid {
			include[name] = fields
		}
	}
	if len(include) == 0 {
		return nil
	}
	return include
}
