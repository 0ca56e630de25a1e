package listquery

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Row is one result record keyed by API field name. An included relation
// appears as a nested Row, or nil when nothing matched the join.
type Row map[string]any

// shapeRows builds output rows from the plan's projections. Drivers may omit
// NULL columns from scanned maps, so a missing key reads as nil.
func shapeRows(p *Plan, raw []map[string]any) []Row {
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		row := make(Row, len(p.Columns)+len(p.Joins))
		for _, c := range p.Columns {
			row[c.Alias] = normalize(r[c.Alias], c.Field.Type)
		}
		for _, j := range p.Joins {
			if r[j.Marker.Alias] == nil {
				row[j.Relation] = nil
				continue
			}
			nested := make(Row, len(j.Columns))
			for _, c := range j.Columns {
				nested[c.Field.Name] = normalize(r[c.Alias], c.Field.Type)
			}
			row[j.Relation] = nested
		}
		rows = append(rows, row)
	}
	return rows
}

// normalize evens out what different drivers hand back for the same type
func normalize(v any, t FieldType) any {
	if v == nil {
		return nil
	}
	switch t {
	case TypeUUID:
		switch x := v.(type) {
		case [16]byte:
			return uuid.UUID(x).String()
		case uuid.UUID:
			return x.String()
		case []byte:
			if len(x) == 16 {
				return uuid.UUID(x).String()
			}
			return string(x)
		}
	case TypeBool:
		switch x := v.(type) {
		case int64:
			return x != 0
		case int32:
			return x != 0
		case int:
			return x != 0
		case []byte:
			if b, err := strconv.ParseBool(string(x)); err == nil {
				return b
			}
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b
			}
		}
	case TypeInt:
		switch x := v.(type) {
		case int32:
			return int64(x)
		case int:
			return int64(x)
		case []byte:
			if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
				return n
			}
		}
	case TypeDecimal:
		switch x := v.(type) {
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		case int64:
			return strconv.FormatInt(x, 10)
		}
	case TypeJSON:
		switch x := v.(type) {
		case []byte:
			if json.Valid(x) {
				return json.RawMessage(append([]byte(nil), x...))
			}
			return string(x)
		case string:
			if json.Valid([]byte(x)) {
				return json.RawMessage(x)
			}
		}
	case TypeTime:
		if x, ok := v.(time.Time); ok {
			return x.UTC()
		}
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
