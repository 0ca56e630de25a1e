package listquery

import (
	"fmt"
	"regexp"
	"slices"
)

// FieldType is the declared type of a column; filter values are coerced to it
// and fetched values are normalized by it.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeDecimal
	TypeBool
	TypeTime
	TypeUUID
	TypeJSON
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTime:
		return "time"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field maps an API field name to its column
type Field struct {
	Name   string
	Column string
	Type   FieldType
}

// Relation describes a to-one relation reachable through a LEFT JOIN.
// The join predicate is <Name>.<ForeignKey> = <base table>.<LocalKey>.
type Relation struct {
	Name       string
	Table      string
	LocalKey   string
	ForeignKey string
	Fields     []Field
}

// Field looks up a relation field by API name
func (r Relation) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the relation's field names in declared order
func (r Relation) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Config declares what one list endpoint exposes.
//
// Fields lists every column of the base table in output order. Fields not
// named in Selectable are always returned. A nil Selectable disables select.
type Config struct {
	Table        string
	PrimaryKey   string
	Fields       []Field
	Selectable   []string
	Sortable     []string
	Filterable   []string
	Relations    []Relation
	DefaultLimit int
	MaxLimit     int
	// Logical enables and/or/not groups inside filter
	Logical bool
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Schema is a validated, immutable Config
type Schema struct {
	table        string
	pk           Field
	fields       []Field
	byName       map[string]Field
	selectable   []string
	sortable     []string
	filterable   []string
	relations    []Relation
	defaultLimit int
	maxLimit     int
	logical      bool
}

// NewSchema validates cfg. Every table, column and relation name ends up in
// SQL text, so all of them must be plain identifiers.
func NewSchema(cfg Config) (*Schema, error) {
	if !identRe.MatchString(cfg.Table) {
		return nil, fmt.Errorf("listquery: invalid table name %q", cfg.Table)
	}
	if len(cfg.Fields) == 0 {
		return nil, fmt.Errorf("listquery: %s declares no fields", cfg.Table)
	}

	s := &Schema{
		table:        cfg.Table,
		fields:       slices.Clone(cfg.Fields),
		byName:       make(map[string]Field, len(cfg.Fields)),
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		logical:      cfg.Logical,
	}
	if s.maxLimit <= 0 {
		s.maxLimit = MaxLimit
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = min(DefaultLimit, s.maxLimit)
	}
	if s.defaultLimit > s.maxLimit {
		return nil, fmt.Errorf("listquery: %s default limit %d exceeds max limit %d", cfg.Table, s.defaultLimit, s.maxLimit)
	}

	for _, f := range cfg.Fields {
		if !identRe.MatchString(f.Name) || !identRe.MatchString(f.Column) {
			return nil, fmt.Errorf("listquery: %s has invalid field %q (column %q)", cfg.Table, f.Name, f.Column)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("listquery: %s declares field %q twice", cfg.Table, f.Name)
		}
		s.byName[f.Name] = f
	}

	pk := cfg.PrimaryKey
	if pk == "" {
		pk = "id"
	}
	pkField, ok := s.byName[pk]
	if !ok {
		return nil, fmt.Errorf("listquery: %s primary key %q is not a declared field", cfg.Table, pk)
	}
	s.pk = pkField

	var err error
	if s.selectable, err = s.whitelist("selectable", cfg.Selectable); err != nil {
		return nil, err
	}
	if cfg.Selectable == nil {
		s.selectable = nil
	}
	if s.sortable, err = s.whitelist("sortable", cfg.Sortable); err != nil {
		return nil, err
	}
	if s.filterable, err = s.whitelist("filterable", cfg.Filterable); err != nil {
		return nil, err
	}
	for _, name := range s.filterable {
		if s.byName[name].Type == TypeJSON {
			return nil, fmt.Errorf("listquery: %s json field %q cannot be filterable", cfg.Table, name)
		}
	}

	seen := make(map[string]bool, len(cfg.Relations))
	for _, r := range cfg.Relations {
		if err := validateRelation(r); err != nil {
			return nil, fmt.Errorf("listquery: %s: %w", cfg.Table, err)
		}
		if seen[r.Name] || r.Name == cfg.Table {
			return nil, fmt.Errorf("listquery: %s relation %q clashes with another name", cfg.Table, r.Name)
		}
		if _, clash := s.byName[r.Name]; clash {
			return nil, fmt.Errorf("listquery: %s relation %q shadows a field", cfg.Table, r.Name)
		}
		if !s.hasColumn(r.LocalKey) {
			return nil, fmt.Errorf("listquery: %s relation %q joins on undeclared column %q", cfg.Table, r.Name, r.LocalKey)
		}
		seen[r.Name] = true
		r.Fields = slices.Clone(r.Fields)
		s.relations = append(s.relations, r)
	}
	return s, nil
}

func validateRelation(r Relation) error {
	for _, ident := range []string{r.Name, r.Table, r.LocalKey, r.ForeignKey} {
		if !identRe.MatchString(ident) {
			return fmt.Errorf("relation %q: invalid identifier %q", r.Name, ident)
		}
	}
	names := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		if !identRe.MatchString(f.Name) || !identRe.MatchString(f.Column) {
			return fmt.Errorf("relation %q: invalid field %q (column %q)", r.Name, f.Name, f.Column)
		}
		if names[f.Name] {
			return fmt.Errorf("relation %q declares field %q twice", r.Name, f.Name)
		}
		names[f.Name] = true
	}
	return nil
}

func (s *Schema) whitelist(kind string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := s.byName[name]; !ok {
			return nil, fmt.Errorf("listquery: %s %s field %q is not declared", s.table, kind, name)
		}
		if slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

func (s *Schema) hasColumn(column string) bool {
	for _, f := range s.fields {
		if f.Column == column {
			return true
		}
	}
	return false
}

func (s *Schema) Table() string        { return s.table }
func (s *Schema) PrimaryKey() Field    { return s.pk }
func (s *Schema) Fields() []Field      { return s.fields }
func (s *Schema) DefaultLimit() int    { return s.defaultLimit }
func (s *Schema) MaxLimit() int        { return s.maxLimit }
func (s *Schema) LogicalFilter() bool  { return s.logical }
func (s *Schema) SelectEnabled() bool  { return s.selectable != nil }
func (s *Schema) Selectable() []string { return s.selectable }
func (s *Schema) Sortable() []string   { return s.sortable }
func (s *Schema) Filterable() []string { return s.filterable }

// Field looks up a base field by API name
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

func (s *Schema) IsSelectable(name string) bool { return slices.Contains(s.selectable, name) }
func (s *Schema) IsSortable(name string) bool   { return slices.Contains(s.sortable, name) }
func (s *Schema) IsFilterable(name string) bool { return slices.Contains(s.filterable, name) }

// Relation looks up a declared relation
func (s *Schema) Relation(name string) (Relation, bool) {
	for _, r := range s.relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// RelationNames returns relation names in declared order
func (s *Schema) RelationNames() []string {
	names := make([]string, len(s.relations))
	for i, r := range s.relations {
		names[i] = r.Name
	}
	return names
}
