package domain

import (
	"time"

	"github.com/google/uuid"
)

// CashoutStatus is the lifecycle state of a fiat cashout.
type CashoutStatus string

const (
	CashoutStatusPending   CashoutStatus = "pending"
	CashoutStatusConfirmed CashoutStatus = "confirmed"
	CashoutStatusAborted   CashoutStatus = "aborted"
)

// CashoutOperation converts regional currency into fiat. The conversion
// parameters in force at creation time are frozen into the operation; the
// TAN challenge referenced by ChallengeID gates confirmation.
type CashoutOperation struct {
	UUID           uuid.UUID     `json:"cashout_id"`
	AccountID      int64         `json:"-"`
	AmountDebit    Amount        `json:"amount_debit"`
	AmountCredit   Amount        `json:"amount_credit"`
	Subject        string        `json:"subject"`
	CashoutAddress string        `json:"cashout_address"`
	RatioApplied   Decimal       `json:"ratio_applied"`
	FeeApplied     Amount        `json:"fee_applied"`
	RoundingUsed   RoundingMode  `json:"rounding_used"`
	ChallengeID    int64         `json:"-"`
	// LocalTransactionID is set exactly once, when the regional-side debit
	// row has been posted.
	LocalTransactionID *int64        `json:"local_transaction_id,omitempty"`
	Status             CashoutStatus `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
}

// IsTerminal reports whether no further transition is possible.
func (c *CashoutOperation) IsTerminal() bool {
	return c.Status == CashoutStatusConfirmed || c.Status == CashoutStatusAborted
}
