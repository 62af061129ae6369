package domain

import "errors"

// Enumerable business outcomes. Services return these (possibly wrapped with
// context via fmt.Errorf %w) and adapters match with errors.Is; expected
// conditions never surface as panics or untyped failures.
var (
	// Validation.
	ErrMalformedAmount  = errors.New("malformed amount")
	ErrAmountOverflow   = errors.New("amount overflow")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrMalformedPayto   = errors.New("malformed payto URI")

	// Authorization.
	ErrNotAuthorized      = errors.New("operation not permitted for this account")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Conflict.
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrIdempotencyConflict = errors.New("request uid reused with different parameters")
	ErrReservePubReuse     = errors.New("reserve public key already used")
	ErrAlreadySelected     = errors.New("withdrawal already selected with different details")
	ErrAlreadyConfirmed    = errors.New("operation already confirmed")
	ErrAlreadyAborted      = errors.New("operation already aborted")
	ErrConversionMismatch  = errors.New("credit amount does not match conversion quote")
	ErrBelowMinimum        = errors.New("amount below configured minimum")
	ErrLoginTaken          = errors.New("login already registered")

	// Not found.
	ErrAccountNotFound   = errors.New("account not found")
	ErrUnknownDebtor     = errors.New("debtor account not found")
	ErrUnknownCreditor   = errors.New("creditor account not found")
	ErrOperationNotFound = errors.New("operation not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrAccountIsNotExchange = errors.New("selected account is not an exchange")

	// TAN exhaustion.
	ErrWrongCode         = errors.New("wrong confirmation code")
	ErrChallengeExpired  = errors.New("challenge expired")
	ErrRetriesExhausted  = errors.New("challenge retries exhausted")
	ErrChallengeConsumed = errors.New("challenge already confirmed")
)
