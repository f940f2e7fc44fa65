package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeOutOfStock, http.StatusUnprocessableEntity},
		{CodeInvalidReservation, http.StatusUnprocessableEntity},
		{CodeInvalidTransactionState, http.StatusUnprocessableEntity},
		{CodeValidation, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.code.HTTPStatus(), string(tt.code))
	}
}

func TestSentinelMatching(t *testing.T) {
	err := NotFound("resource res-1 not found")

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrOutOfStock))

	// Matching survives wrapping with fmt.Errorf.
	wrapped := fmt.Errorf("borrow: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrNotFound))

	var domainErr *Error
	require.True(t, stderrors.As(wrapped, &domainErr))
	assert.Equal(t, CodeNotFound, domainErr.Code)
	assert.Equal(t, "resource res-1 not found", domainErr.Message)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, CodeInternal, "export report")

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "export report")
}

func TestWithDetails(t *testing.T) {
	base := Validation("validation failed")
	detailed := base.WithDetails(map[string]string{"title": "title is required"})

	assert.Equal(t, CodeValidation, detailed.Code)
	assert.Equal(t, map[string]string{"title": "title is required"}, detailed.Details)
	// The original error is untouched.
	assert.Nil(t, base.Details)
}

func TestWithCause(t *testing.T) {
	cause := stderrors.New("badger: key not found")
	err := NotFound("resource not found").WithCause(cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, ErrNotFound))
}

func TestFormattedConstructors(t *testing.T) {
	err := InvalidTransactionStatef("transaction %s is already returned", "txn-1")
	assert.Equal(t, "transaction txn-1 is already returned", err.Message)
	assert.Equal(t, CodeInvalidTransactionState, err.Code)

	err = Validationf("loan period must be between 1 and %d days", 30)
	assert.Equal(t, "loan period must be between 1 and 30 days", err.Message)
}
