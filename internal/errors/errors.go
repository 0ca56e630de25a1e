package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code, so wrapped copies match the predefined errors
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// WithMessage returns a copy of domainErr carrying a more specific message
func WithMessage(domainErr *DomainError, message string) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: message,
		Err:     domainErr.Err,
	}
}

// Error codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidation         = "VALIDATION"
	CodeInvariant          = "INVARIANT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeNotImplemented     = "NOT_IMPLEMENTED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// Predefined domain errors
var (
	// Request errors
	ErrInvalidInput = NewDomainError(CodeInvalidInput, "invalid input")
	ErrValidation   = NewDomainError(CodeValidation, "validation failed")
	ErrInvariant    = NewDomainError(CodeInvariant, "invariant violated")

	// Authentication errors
	ErrUnauthorized = NewDomainError(CodeUnauthorized, "unauthorized")
	ErrInvalidToken = NewDomainError(CodeInvalidToken, "invalid or expired token")
	ErrForbidden    = NewDomainError(CodeForbidden, "forbidden")

	// Resource errors
	ErrNotFound        = NewDomainError(CodeNotFound, "resource not found")
	ErrBlogNotFound    = NewDomainError(CodeNotFound, "Blog not found")
	ErrPostNotFound    = NewDomainError(CodeNotFound, "Post not found")
	ErrProductNotFound = NewDomainError(CodeNotFound, "Product not found")
	ErrCronJobNotFound = NewDomainError(CodeNotFound, "cron job not found")
	ErrConflict        = NewDomainError(CodeConflict, "resource already exists")
	ErrDuplicateSKU    = NewDomainError(CodeConflict, "Product with this SKU already exists")

	// System errors
	ErrNotImplemented     = NewDomainError(CodeNotImplemented, "not implemented")
	ErrInternal           = NewDomainError(CodeInternal, "internal server error")
	ErrServiceUnavailable = NewDomainError(CodeServiceUnavailable, "service unavailable")
)

// FieldError is a single field-level diagnostic
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e *FieldError) Error() string {
	return e.Message
}

// ValidationError reports every rejected field of a request part ("query", "body" or "params")
type ValidationError struct {
	On     string
	Found  any
	Issues []*FieldError
}

// NewValidationError builds a validation error for the given request part
func NewValidationError(on string, found any, issues []*FieldError) *ValidationError {
	return &ValidationError{
		On:     on,
		Found:  found,
		Issues: issues,
	}
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("invalid %s", e.On)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Error())
	}
	return fmt.Sprintf("invalid %s: %s", e.On, strings.Join(parts, "; "))
}

// Message returns the first diagnostic, used as the summary line of the response
func (e *ValidationError) Message() string {
	if len(e.Issues) == 0 {
		return ErrValidation.Message
	}
	return e.Issues[0].Error()
}

// Unwrap ties validation failures to ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// GetValidationError extracts the validation error from an error
func GetValidationError(err error) *ValidationError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	case CodeInvalidInput, CodeValidation, CodeInvariant:
		return http.StatusBadRequest

	case CodeUnauthorized, CodeInvalidToken:
		return http.StatusUnauthorized

	case CodeForbidden:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	case CodeConflict:
		return http.StatusConflict

	case CodeNotImplemented:
		return http.StatusNotImplemented

	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if validationErr := GetValidationError(err); validationErr != nil {
		return validationErr.Message()
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
