package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// IdempotencyRecord caches the outcome of a mutating call keyed by the
// caller-supplied request uid, so replays return the prior result without
// re-executing side effects.
type IdempotencyRecord struct {
	Key          string    `json:"key"`
	ParamsHash   string    `json:"params_hash"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a request uid to the debtor account.
func BuildIdempotencyKey(accountID int64, requestUID string) string {
	return strconv.FormatInt(accountID, 10) + ":" + requestUID
}

// HashParams produces the canonical digest compared on replay: same uid with
// a different digest is a client error, not a cached hit.
func HashParams(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
