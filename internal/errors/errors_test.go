package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found", ErrPostNotFound, http.StatusNotFound},
		{"conflict", ErrDuplicateSKU, http.StatusConflict},
		{"not implemented", ErrNotImplemented, http.StatusNotImplemented},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("outer: %w", WrapError(ErrNotFound, errors.New("gone"))), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"validation error", NewValidationError("query", nil, nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.err))
		})
	}
}

func TestDomainErrorIsMatchesCode(t *testing.T) {
	wrapped := WrapError(ErrConflict, errors.New("duplicate key"))
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.True(t, errors.Is(wrapped, ErrDuplicateSKU))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("query", map[string]any{"page": "0"}, []*FieldError{
		{Path: "page", Message: "page must be at least 1", Value: "0"},
		{Path: "sort.secret", Message: "sort.secret is not sortable"},
	})

	assert.Equal(t, "page must be at least 1", err.Message())
	assert.Equal(t, "invalid query: page must be at least 1; sort.secret is not sortable", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Same(t, err, GetValidationError(fmt.Errorf("wrap: %w", err)))
	assert.Equal(t, "page must be at least 1", GetErrorMessage(err))
}
