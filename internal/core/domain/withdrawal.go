package domain

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus is the lifecycle state of a Taler reserve withdrawal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusSelected  WithdrawalStatus = "selected"
	WithdrawalStatusAborted   WithdrawalStatus = "aborted"
	WithdrawalStatusConfirmed WithdrawalStatus = "confirmed"
)

// WithdrawalOperation moves regional currency from a wallet-holding account
// into a Taler exchange reserve. Transitions are the only mutation path;
// aborted and confirmed are terminal.
type WithdrawalOperation struct {
	UUID                  uuid.UUID        `json:"withdrawal_id"`
	WalletAccountID       int64            `json:"-"`
	Amount                Amount           `json:"amount"`
	Status                WithdrawalStatus `json:"status"`
	ReservePub            *string          `json:"selected_reserve_pub,omitempty"`
	SelectedExchangePayto *string          `json:"selected_exchange_account,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
}

// IsTerminal reports whether no further transition is possible.
func (w *WithdrawalOperation) IsTerminal() bool {
	return w.Status == WithdrawalStatusAborted || w.Status == WithdrawalStatusConfirmed
}

// SelectionMatches reports whether the stored selection equals the supplied
// exchange/reserve pair, making a repeated selection call idempotent.
func (w *WithdrawalOperation) SelectionMatches(exchangePayto, reservePub string) bool {
	return w.SelectedExchangePayto != nil && *w.SelectedExchangePayto == exchangePayto &&
		w.ReservePub != nil && *w.ReservePub == reservePub
}
