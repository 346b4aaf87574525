package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Wrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")
	assert.Contains(t, err.Error(), "connection refused")

	// AppError survives fmt.Errorf wrapping
	wrapped := fmt.Errorf("handler: %w", err)
	appErr, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeInternal, appErr.Code)
}

func TestAppError_Factories(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"validation", NewValidation("bad input"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("stock_batches", "abc"), CodeNotFound, http.StatusNotFound},
		{"no stock", NewNoStockAvailable(), CodeNoStockAvailable, http.StatusUnprocessableEntity},
		{"exceeds batch", NewQuantityExceedsBatch("b1", 100, 80), CodeQuantityExceedsBatch, http.StatusUnprocessableEntity},
		{"invalid transition", NewInvalidTransition("DailySummary", "approved", "rejected"), CodeInvalidTransition, http.StatusUnprocessableEntity},
		{"concurrent", NewConcurrentModification("stock_batches", "abc"), CodeConcurrentModification, http.StatusConflict},
		{"unauthorized", NewUnauthorized("token expired"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("nope"), CodeForbidden, http.StatusForbidden},
		{"duplicate", NewDuplicate("auth_users", "email", "a@b.c"), CodeDuplicate, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.Equal(t, tt.wantStatus, GetHTTPStatus(tt.err))
		})
	}
}

func TestAppError_Details(t *testing.T) {
	err := NewValidation("quantity must be positive").WithDetail("field", "quantityKg")
	assert.Equal(t, "quantityKg", err.Details["field"])

	exceeds := NewQuantityExceedsBatch("b1", 100, 80)
	assert.Equal(t, float64(100), exceeds.Details["requested_kg"])
	assert.Equal(t, float64(80), exceeds.Details["remaining_kg"])
}

func TestAppError_Predicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("x", 1)))
	assert.False(t, IsNotFound(NewValidation("x")))

	assert.True(t, IsConcurrentModification(NewConcurrentModification("x", 1)))
	assert.False(t, IsConcurrentModification(errors.New("plain")))

	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}
