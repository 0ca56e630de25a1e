package validation

// CustomMessage returns the field-specific overrides for request body fields
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"Name": {
			"required": "name is required",
		},
		"Title": {
			"required": "title is required",
			"max":      "title must be at most 255 characters",
		},
		"BlogID": {
			"required": "blogId is required",
			"uuid":     "blogId must be a valid UUID",
		},
		"SKU": {
			"required": "sku is required",
			"max":      "sku must be at most 100 characters",
		},
		"Price": {
			"required": "price is required",
			"numeric":  "price must be a decimal number",
		},
	}
	return customValidationMessages[field]
}
