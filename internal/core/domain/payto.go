package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

// Payto identifies a transaction counterparty by IBAN, per RFC 8905.
type Payto struct {
	Iban         string
	ReceiverName string
}

// ParsePayto parses an iban payto URI: payto://iban/<IBAN>?receiver-name=N.
func ParsePayto(s string) (Payto, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Payto{}, fmt.Errorf("%w: %q", ErrMalformedPayto, s)
	}
	if u.Scheme != "payto" || u.Host != "iban" {
		return Payto{}, fmt.Errorf("%w: %q", ErrMalformedPayto, s)
	}
	iban := strings.TrimPrefix(u.Path, "/")
	// Some producers include a BIC segment: payto://iban/BIC/IBAN.
	if i := strings.LastIndex(iban, "/"); i >= 0 {
		iban = iban[i+1:]
	}
	if iban == "" || !validIban(iban) {
		return Payto{}, fmt.Errorf("%w: bad IBAN in %q", ErrMalformedPayto, s)
	}
	return Payto{
		Iban:         strings.ToUpper(iban),
		ReceiverName: u.Query().Get("receiver-name"),
	}, nil
}

// URI renders the payto URI for this counterparty.
func (p Payto) URI() string {
	uri := "payto://iban/" + p.Iban
	if p.ReceiverName != "" {
		uri += "?receiver-name=" + url.QueryEscape(p.ReceiverName)
	}
	return uri
}

// NewIban generates a random IBAN with a valid mod-97 checksum, used when an
// account is registered without a caller-supplied IBAN.
func NewIban(countryCode string) string {
	bban := make([]byte, 16)
	for i := range bban {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		bban[i] = byte('0' + n.Int64())
	}
	check := 98 - ibanMod97(string(bban)+countryCode+"00")
	return fmt.Sprintf("%s%02d%s", countryCode, check, bban)
}

func validIban(iban string) bool {
	if len(iban) < 5 || len(iban) > 34 {
		return false
	}
	for _, c := range iban {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return ibanMod97(iban[4:]+iban[:4]) == 1
}

// ibanMod97 computes the ISO 7064 mod-97 remainder with letters expanded
// to their two-digit values.
func ibanMod97(s string) int {
	rem := 0
	for _, c := range strings.ToUpper(s) {
		switch {
		case c >= '0' && c <= '9':
			rem = (rem*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			v := int(c-'A') + 10
			rem = (rem*100 + v) % 97
		default:
			return -1
		}
	}
	return rem
}
