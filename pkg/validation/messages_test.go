package validation

import "testing"

func TestDefaultMessage(t *testing.T) {
	tests := []struct {
		field, tag, param string
		want              string
	}{
		{"page", "min", "1", "page must be at least 1"},
		{"limit", "max", "100", "limit must be at most 100"},
		{"sort.title.order", "oneof", "asc desc", "sort.title.order must be one of [asc, desc]"},
		{"select", "unique", "", "select must not contain duplicates"},
		{"cursor", "uuid", "", "cursor must be a valid UUID"},
		{"x", "whatever", "", "x is invalid"},
	}
	for _, tt := range tests {
		if got := DefaultMessage(tt.field, tt.tag, tt.param); got != tt.want {
			t.Errorf("DefaultMessage(%q, %q, %q) = %q, want %q", tt.field, tt.tag, tt.param, got, tt.want)
		}
	}
}

func TestCustomMessage(t *testing.T) {
	if got := CustomMessage("SKU")["required"]; got != "sku is required" {
		t.Errorf("CustomMessage(SKU)[required] = %q", got)
	}
	if CustomMessage("Unknown") != nil {
		t.Error("expected no overrides for unknown field")
	}
}
