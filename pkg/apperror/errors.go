package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"corebank/internal/core/domain"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// InternalError wraps an unexpected failure as BANK_500.
func InternalError(err error) *AppError {
	return Wrap("BANK_500", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a caller-input error.
func Validation(message string) *AppError {
	return New("BANK_VAL", message, http.StatusBadRequest)
}

// domainMapping pins each enumerable business outcome to a stable code and
// HTTP status, grouped by the error taxonomy: validation, authorization,
// conflict, not-found, exhaustion.
var domainMapping = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrMalformedAmount, "BANK_VAL_AMOUNT", http.StatusBadRequest},
	{domain.ErrAmountOverflow, "BANK_VAL_OVERFLOW", http.StatusBadRequest},
	{domain.ErrCurrencyMismatch, "BANK_VAL_CURRENCY", http.StatusBadRequest},
	{domain.ErrMalformedPayto, "BANK_VAL_PAYTO", http.StatusBadRequest},

	{domain.ErrInvalidCredentials, "BANK_AUTH_CRED", http.StatusUnauthorized},
	{domain.ErrNotAuthorized, "BANK_AUTH_DENIED", http.StatusForbidden},

	{domain.ErrInsufficientFunds, "BANK_INSUFFICIENT_FUNDS", http.StatusConflict},
	{domain.ErrIdempotencyConflict, "BANK_UID_REUSE", http.StatusConflict},
	{domain.ErrReservePubReuse, "BANK_RESERVE_PUB_REUSE", http.StatusConflict},
	{domain.ErrAlreadySelected, "BANK_WITHDRAWAL_SELECTED", http.StatusConflict},
	{domain.ErrAlreadyConfirmed, "BANK_OP_CONFIRMED", http.StatusConflict},
	{domain.ErrAlreadyAborted, "BANK_OP_ABORTED", http.StatusConflict},
	{domain.ErrConversionMismatch, "BANK_CONVERSION_MISMATCH", http.StatusConflict},
	{domain.ErrBelowMinimum, "BANK_BELOW_MINIMUM", http.StatusConflict},
	{domain.ErrLoginTaken, "BANK_LOGIN_TAKEN", http.StatusConflict},

	{domain.ErrAccountNotFound, "BANK_UNKNOWN_ACCOUNT", http.StatusNotFound},
	{domain.ErrUnknownDebtor, "BANK_UNKNOWN_DEBTOR", http.StatusNotFound},
	{domain.ErrUnknownCreditor, "BANK_UNKNOWN_CREDITOR", http.StatusNotFound},
	{domain.ErrOperationNotFound, "BANK_UNKNOWN_OPERATION", http.StatusNotFound},
	{domain.ErrChallengeNotFound, "BANK_UNKNOWN_CHALLENGE", http.StatusNotFound},
	{domain.ErrAccountIsNotExchange, "BANK_NOT_EXCHANGE", http.StatusConflict},

	{domain.ErrWrongCode, "BANK_TAN_WRONG_CODE", http.StatusForbidden},
	{domain.ErrChallengeExpired, "BANK_TAN_EXPIRED", http.StatusForbidden},
	{domain.ErrRetriesExhausted, "BANK_TAN_EXHAUSTED", http.StatusForbidden},
	{domain.ErrChallengeConsumed, "BANK_TAN_CONSUMED", http.StatusConflict},
}

// FromDomain translates a business error into its AppError. Unknown errors
// become internal errors, preserving the wrapped cause for the log.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range domainMapping {
		if errors.Is(err, m.err) {
			return Wrap(m.code, m.err.Error(), m.status, err)
		}
	}
	return InternalError(err)
}
