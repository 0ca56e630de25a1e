package listquery

// Predicate is a node of a WHERE tree. The set of implementations is closed.
type Predicate interface {
	predicate()
}

// Compare is a single column comparison. Value is nil for IS NULL checks
// and a []any for In and Nin.
type Compare struct {
	Column string
	Op     Operator
	Value  any
}

type And struct {
	Terms []Predicate
}

type Or struct {
	Terms []Predicate
}

type Not struct {
	Term Predicate
}

func (Compare) predicate() {}
func (And) predicate()     {}
func (Or) predicate()      {}
func (Not) predicate()     {}

// Projection is one selected column. Alias is the key the value comes back
// under; Field is used to normalize it.
type Projection struct {
	Expr  string
	Alias string
	Field Field
}

// Join is a LEFT JOIN of an included relation. Marker projects the joined
// key so a missing related row can be told apart from one with NULL columns.
type Join struct {
	Relation string
	Table    string
	On       string
	Marker   Projection
	Columns  []Projection
}

type SortKey struct {
	Column string
	Desc   bool
}

// Plan is the lowered form of a Descriptor, ready to compile
type Plan struct {
	Table   string
	Columns []Projection
	Joins   []Join
	Where   Predicate
	OrderBy []SortKey
	Limit   uint64
	Offset  uint64

	// Page and PageSize echo the normalized pagination for the envelope
	Page     int
	PageSize int
}

// conjunction folds terms into one predicate, nil when there are none
func conjunction(terms []Predicate) Predicate {
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	default:
		return And{Terms: terms}
	}
}

func disjunction(terms []Predicate) Predicate {
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	default:
		return Or{Terms: terms}
	}
}
