package listquery

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Operator is a filter comparison
type Operator string

const (
	OpEq    Operator = "eq"
	OpNe    Operator = "ne"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpIn    Operator = "in"
	OpNin   Operator = "nin"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
)

// Operators in the order their predicates are emitted for one field
var Operators = []Operator{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin, OpLike, OpILike}

func (o Operator) Valid() bool {
	for _, op := range Operators {
		if op == o {
			return true
		}
	}
	return false
}

// OperatorSet is the operator bag of one filtered field
type OperatorSet map[Operator]any

type SortTerm struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
	Index int    `json:"index"`
}

// Condition is one node of a logical filter. Its field predicates are
// AND-ed together with the lowered And, Or and Not children.
type Condition struct {
	Fields map[string]OperatorSet `json:"fields,omitempty"`
	And    []*Condition           `json:"and,omitempty"`
	Or     []*Condition           `json:"or,omitempty"`
	Not    *Condition             `json:"not,omitempty"`
}

// Descriptor is a validated list request
type Descriptor struct {
	Page    int                    `json:"page"`
	Limit   int                    `json:"limit"`
	Select  []string               `json:"select,omitempty"`
	Sort    []SortTerm             `json:"sort,omitempty"`
	Filter  map[string]OperatorSet `json:"filter,omitempty"`
	Logical *Condition             `json:"logical,omitempty"`
	Include map[string][]string    `json:"include,omitempty"`
}

// CursorQuery pages by primary key instead of offset. Page and Sort of the
// embedded descriptor are ignored.
type CursorQuery struct {
	Descriptor
	Cursor string `json:"cursor,omitempty"`
	Order  Order  `json:"order"`
}

// Fingerprint is a stable digest of the descriptor. encoding/json sorts map
// keys, so equal descriptors always hash equally.
func Fingerprint(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
