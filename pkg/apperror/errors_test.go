package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"corebank/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestFromDomain_KnownErrors(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrMalformedAmount, "BANK_VAL_AMOUNT", http.StatusBadRequest},
		{domain.ErrInsufficientFunds, "BANK_INSUFFICIENT_FUNDS", http.StatusConflict},
		{domain.ErrRetriesExhausted, "BANK_TAN_EXHAUSTED", http.StatusForbidden},
		{domain.ErrAccountNotFound, "BANK_UNKNOWN_ACCOUNT", http.StatusNotFound},
		{domain.ErrNotAuthorized, "BANK_AUTH_DENIED", http.StatusForbidden},
	}
	for _, c := range cases {
		got := FromDomain(c.err)
		assert.Equal(t, c.code, got.Code)
		assert.Equal(t, c.status, got.HTTPStatus)
	}
}

func TestFromDomain_WrappedError(t *testing.T) {
	err := fmt.Errorf("creating transaction: %w", domain.ErrUnknownCreditor)

	got := FromDomain(err)
	assert.Equal(t, "BANK_UNKNOWN_CREDITOR", got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
}

func TestFromDomain_UnknownError(t *testing.T) {
	got := FromDomain(errors.New("disk on fire"))
	assert.Equal(t, "BANK_500", got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap("BANK_500", "Internal server error", http.StatusInternalServerError, cause)

	assert.Contains(t, e.Error(), "BANK_500")
	assert.Contains(t, e.Error(), "boom")
	assert.ErrorIs(t, e, cause)
}
