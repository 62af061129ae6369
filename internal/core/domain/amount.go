package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// FractionBase is the number of sub-units in one currency unit.
	FractionBase = 100_000_000
	// FractionDigits is the number of decimal digits FractionBase supports.
	FractionDigits = 8
	// MaxAmountValue is the largest representable integer part. Anything
	// beyond it is an overflow and must abort the enclosing operation.
	MaxAmountValue = uint64(1) << 52
)

// Amount is an exact fixed-point money value: an unsigned integer part plus
// a sub-unit fraction. No floating point is ever involved on the ledger path.
type Amount struct {
	Currency string `json:"currency"`
	Value    uint64 `json:"value"`
	Frac     uint32 `json:"frac"`
}

// NewAmount builds a normalized amount.
func NewAmount(currency string, value uint64, frac uint32) (Amount, error) {
	a := Amount{Currency: currency, Value: value, Frac: frac}
	return a.Normalize()
}

// Normalize carries fraction overflow into the integer part and enforces
// the representable range.
func (a Amount) Normalize() (Amount, error) {
	a.Value += uint64(a.Frac) / FractionBase
	a.Frac = a.Frac % FractionBase
	if a.Value > MaxAmountValue {
		return Amount{}, fmt.Errorf("%w: %s value %d", ErrAmountOverflow, a.Currency, a.Value)
	}
	return a, nil
}

// Add returns a+b. Overflow past MaxAmountValue is an error, never a wrap.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	sum := Amount{
		Currency: a.Currency,
		Value:    a.Value + b.Value,
		Frac:     a.Frac + b.Frac,
	}
	if sum.Value < a.Value {
		return Amount{}, fmt.Errorf("%w: %s", ErrAmountOverflow, a.Currency)
	}
	return sum.Normalize()
}

// Sub returns a-b and true, or an unusable value and false when a < b.
// Currencies must match; comparing mixed currencies is a programming error
// guarded at parse time.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if a.Cmp(b) < 0 {
		return Amount{}, false
	}
	diff := Amount{Currency: a.Currency, Value: a.Value - b.Value}
	if a.Frac >= b.Frac {
		diff.Frac = a.Frac - b.Frac
	} else {
		diff.Value--
		diff.Frac = a.Frac + FractionBase - b.Frac
	}
	return diff, true
}

// Cmp returns -1, 0 or 1 as a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	case a.Frac < b.Frac:
		return -1
	case a.Frac > b.Frac:
		return 1
	}
	return 0
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.Value == 0 && a.Frac == 0
}

// String renders the wire format "CURRENCY:INTEGER[.FRACTION]" with trailing
// fraction zeros trimmed.
func (a Amount) String() string {
	var sb strings.Builder
	sb.WriteString(a.Currency)
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatUint(a.Value, 10))
	if a.Frac != 0 {
		frac := strings.TrimRight(fmt.Sprintf("%08d", a.Frac), "0")
		sb.WriteByte('.')
		sb.WriteString(frac)
	}
	return sb.String()
}

// ParseAmount parses the wire format "CURRENCY:INTEGER[.FRACTION]".
// Rejected inputs: missing or non-alphabetic currency, empty integer or
// fraction parts, non-numeric digits, more than FractionDigits fraction
// digits, integer parts past MaxAmountValue.
func ParseAmount(s string) (Amount, error) {
	currency, rest, found := strings.Cut(s, ":")
	if !found || currency == "" || rest == "" {
		return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	if len(currency) > 11 || !isAlpha(currency) {
		return Amount{}, fmt.Errorf("%w: bad currency in %q", ErrMalformedAmount, s)
	}

	intPart, fracPart, hasFrac := strings.Cut(rest, ".")
	if intPart == "" || (hasFrac && fracPart == "") {
		return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}

	value, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	if value > MaxAmountValue {
		return Amount{}, fmt.Errorf("%w: %q", ErrAmountOverflow, s)
	}

	var frac uint32
	if hasFrac {
		if len(fracPart) > FractionDigits {
			return Amount{}, fmt.Errorf("%w: fraction too precise in %q", ErrMalformedAmount, s)
		}
		f, err := strconv.ParseUint(fracPart, 10, 32)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		// Scale to the full sub-unit base: "5" means 0.5, not 5e-8.
		for i := len(fracPart); i < FractionDigits; i++ {
			f *= 10
		}
		frac = uint32(f)
	}

	return Amount{Currency: currency, Value: value, Frac: frac}, nil
}

// ParseAmountAs parses s and additionally enforces the instance currency.
func ParseAmountAs(s, currency string) (Amount, error) {
	a, err := ParseAmount(s)
	if err != nil {
		return Amount{}, err
	}
	if a.Currency != currency {
		return Amount{}, fmt.Errorf("%w: got %s, want %s", ErrCurrencyMismatch, a.Currency, currency)
	}
	return a, nil
}

// ZeroAmount returns the zero value in the given currency.
func ZeroAmount(currency string) Amount {
	return Amount{Currency: currency}
}

func isAlpha(s string) bool {
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
