package domain

import "time"

// Account is a bank customer account. Exactly two account classes exist:
// normal and exchange; one currency per bank instance.
type Account struct {
	ID            int64     `json:"-"`
	Login         string    `json:"login"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"`
	PaytoURI      string    `json:"payto_uri"`
	Balance       Amount    `json:"balance"`
	HasDebt       bool      `json:"has_debt"`
	DebtThreshold Amount    `json:"debt_threshold"`
	IsExchange    bool      `json:"is_exchange"`
	IsPublic      bool      `json:"is_public"`
	IsAdmin       bool      `json:"-"`
	MinCashout    *Amount   `json:"min_cashout,omitempty"`
	TanChannel    *string   `json:"tan_channel,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SignedBalance returns the balance as a sign-aware value.
func (a *Account) SignedBalance() Balance {
	return Balance{Amount: a.Balance, HasDebt: a.HasDebt}
}

// AuthContext is the immutable request-scoped identity resolved by the API
// layer and passed into each operation.
type AuthContext struct {
	Login   string
	IsAdmin bool
}

// MayAccess reports whether the caller may operate on the given account.
func (c AuthContext) MayAccess(login string) bool {
	return c.IsAdmin || c.Login == login
}
