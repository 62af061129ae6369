package domain

import "time"

// TanOp is the operation kind a TAN challenge guards. A challenge issued for
// one kind can never confirm another.
type TanOp string

const (
	TanOpCashout TanOp = "cashout"
)

// TanChannel is an out-of-band code delivery channel.
type TanChannel string

const (
	TanChannelLog      TanChannel = "log"
	TanChannelTelegram TanChannel = "telegram"
)

// TanChallenge is a one-time confirmation code guarding exactly one pending
// sensitive operation. Consumed or exhausted challenges are never reused.
type TanChallenge struct {
	ID           int64       `json:"id"`
	Login        string      `json:"-"`
	Op           TanOp       `json:"op"`
	Code         string      `json:"-"`
	BodyJSON     []byte      `json:"-"`
	RetryCounter int         `json:"retry_counter"`
	CreatedAt    time.Time   `json:"created_at"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Channel      *TanChannel `json:"channel,omitempty"`
	ConfirmedAt  *time.Time  `json:"confirmed_at,omitempty"`
}

// Expired reports whether the challenge validity window is over. Evaluated
// at confirm time against the supplied clock, never by a background sweeper.
func (c *TanChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Exhausted reports whether retries are used up, making the challenge
// permanently unusable.
func (c *TanChallenge) Exhausted() bool {
	return c.RetryCounter <= 0
}

// Consumed reports whether the challenge was already confirmed.
func (c *TanChallenge) Consumed() bool {
	return c.ConfirmedAt != nil
}
