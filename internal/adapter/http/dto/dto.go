// Package dto holds request and response bodies for the HTTP API.
// Amounts travel as "CURRENCY:INTEGER[.FRACTION]" strings and are parsed
// in the handlers; no floating point touches the wire.
package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Login      string  `json:"login" binding:"required,min=1,max=64"`
	Password   string  `json:"password" binding:"required,min=8,max=128"`
	Name       string  `json:"name" binding:"required,min=1,max=100"`
	IsPublic   bool    `json:"is_public"`
	IsExchange bool    `json:"is_exchange"`
	TanChannel *string `json:"tan_channel,omitempty"`
}

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateTransactionRequest is the request body for a wire transfer.
type CreateTransactionRequest struct {
	CreditorPayto string  `json:"creditor_payto" binding:"required"`
	Subject       string  `json:"subject" binding:"required,max=200"`
	Amount        string  `json:"amount" binding:"required"`
	RequestUID    *string `json:"request_uid,omitempty"`
}

// DebtThresholdRequest is the request body for the debt limit update.
type DebtThresholdRequest struct {
	DebtThreshold string `json:"debt_threshold" binding:"required"`
}

// MinCashoutRequest is the request body for the cashout floor update.
// A null min_cashout restores the conversion-level default.
type MinCashoutRequest struct {
	MinCashout *string `json:"min_cashout"`
}

// CreateWithdrawalRequest is the request body for opening a withdrawal.
type CreateWithdrawalRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// SelectWithdrawalRequest is the request body binding an exchange and
// reserve key to a withdrawal.
type SelectWithdrawalRequest struct {
	ExchangePayto string `json:"selected_exchange" binding:"required"`
	ReservePub    string `json:"reserve_pub" binding:"required"`
}

// CreateCashoutRequest is the request body for opening a cashout.
type CreateCashoutRequest struct {
	AmountDebit    string  `json:"amount_debit" binding:"required"`
	AmountCredit   string  `json:"amount_credit" binding:"required"`
	Subject        string  `json:"subject" binding:"required,max=200"`
	CashoutAddress string  `json:"cashout_address"`
	RequestUID     *string `json:"request_uid,omitempty"`
}

// ConfirmCashoutRequest carries the TAN code for cashout confirmation.
type ConfirmCashoutRequest struct {
	Code string `json:"code" binding:"required"`
}

// CashoutCreatedResponse points the client at the challenge to confirm.
type CashoutCreatedResponse struct {
	CashoutID   string `json:"cashout_id"`
	ChallengeID int64  `json:"challenge_id"`
	Status      string `json:"status"`
}

// QuoteRequest is the query form of a conversion quote.
type QuoteRequest struct {
	AmountDebit string `form:"amount_debit" binding:"required"`
}

// QuoteResponse is one conversion quote result.
type QuoteResponse struct {
	AmountDebit  string `json:"amount_debit"`
	AmountCredit string `json:"amount_credit"`
}
