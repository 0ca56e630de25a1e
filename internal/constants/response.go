package constants

import (
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
)

// Standard Response Field Keys
const (
	ResponseFieldData    = "data"
	ResponseFieldMeta    = "meta"
	ResponseFieldMessage = "message"
	ResponseFieldDetails = "details"
	ResponseFieldType    = "type"
	ResponseFieldOn      = "on"
	ResponseFieldFound   = "found"
	ResponseFieldErrors  = "errors"
)

const ResponseTypeValidation = "validation"

// Response Format Functions
func BuildErrorResponse(message string, details any) map[string]any {
	response := map[string]any{
		ResponseFieldMessage: message,
	}

	if details != nil {
		response[ResponseFieldDetails] = details
	}

	return response
}

func BuildSuccessResponse(message string) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
	}
}

func BuildDataResponse(message string, data any) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
		ResponseFieldData:    data,
	}
}

// BuildValidationErrorResponse renders the field level diagnostics of a
// rejected request
func BuildValidationErrorResponse(err *apperrors.ValidationError) map[string]any {
	issues := err.Issues
	if issues == nil {
		issues = []*apperrors.FieldError{}
	}
	return map[string]any{
		ResponseFieldType:    ResponseTypeValidation,
		ResponseFieldOn:      err.On,
		ResponseFieldMessage: err.Message(),
		ResponseFieldFound:   err.Found,
		ResponseFieldErrors:  issues,
	}
}

// ErrorDetails exposes the underlying cause of err outside production
func ErrorDetails(err error, env string) any {
	if err == nil || env == EnvProduction {
		return nil
	}
	return err.Error()
}
