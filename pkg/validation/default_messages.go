package validation

import (
	"fmt"
	"strings"
)

// DefaultMessage renders the generic message for a failed validator tag.
// param is the tag parameter ("1" for min=1) and may be empty.
func DefaultMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "numeric", "number":
		return fmt.Sprintf("%s must be a number", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "len":
		return fmt.Sprintf("%s must have length %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "alphanum":
		return fmt.Sprintf("%s may only contain letters and digits", field)
	case "boolean":
		return fmt.Sprintf("%s must be true or false", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date/time in format %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.Join(strings.Fields(param), ", "))
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "json":
		return fmt.Sprintf("%s must be valid JSON", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
