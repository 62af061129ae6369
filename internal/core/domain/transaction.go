package domain

import "time"

// Direction tells which side of a transfer a ledger row records.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Transaction is an immutable ledger row. Every accepted transfer creates
// exactly two: a debit row for the debtor and a credit row for the creditor,
// sharing subject, amount and timestamp. RowID is assigned by the store and
// is strictly increasing in commit order across the ledger.
type Transaction struct {
	RowID             int64     `json:"row_id"`
	AccountID         int64     `json:"-"`
	CounterpartyPayto string    `json:"counterparty_payto"`
	CounterpartyName  string    `json:"counterparty_name,omitempty"`
	Subject           string    `json:"subject"`
	Amount            Amount    `json:"amount"`
	Direction         Direction `json:"direction"`
	RequestUID        *string   `json:"request_uid,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
