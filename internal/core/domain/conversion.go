package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RoundingMode selects how conversion results are rounded to the sub-unit
// base. The rules are bit-for-bit reproducible for auditability.
type RoundingMode string

const (
	// RoundNearest rounds half away from zero.
	RoundNearest RoundingMode = "nearest"
	// RoundZero truncates toward zero.
	RoundZero RoundingMode = "zero"
	// RoundUp rounds any remainder away from zero.
	RoundUp RoundingMode = "up"
)

// ParseRoundingMode validates a configured rounding mode string.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(s) {
	case RoundNearest, RoundZero, RoundUp:
		return RoundingMode(s), nil
	}
	return "", fmt.Errorf("unknown rounding mode %q", s)
}

// Decimal is an exact unsigned scalar in units of 1e-8, used for conversion
// ratios. It is not money and carries no currency.
type Decimal struct {
	Units uint64 `json:"units"`
}

// ParseDecimal parses "1.25"-style ratio strings into 1e-8 fixed point.
func ParseDecimal(s string) (Decimal, error) {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || (hasFrac && fracPart == "") {
		return Decimal{}, fmt.Errorf("malformed decimal %q", s)
	}
	value, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return Decimal{}, fmt.Errorf("malformed decimal %q", s)
	}
	var frac uint64
	if hasFrac {
		if len(fracPart) > FractionDigits {
			return Decimal{}, fmt.Errorf("decimal %q exceeds %d digits", s, FractionDigits)
		}
		frac, err = strconv.ParseUint(fracPart, 10, 64)
		if err != nil {
			return Decimal{}, fmt.Errorf("malformed decimal %q", s)
		}
		for i := len(fracPart); i < FractionDigits; i++ {
			frac *= 10
		}
	}
	if value > (1<<63)/FractionBase {
		return Decimal{}, fmt.Errorf("decimal %q out of range", s)
	}
	return Decimal{Units: value*FractionBase + frac}, nil
}

func (d Decimal) String() string {
	whole := d.Units / FractionBase
	frac := d.Units % FractionBase
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	return strconv.FormatUint(whole, 10) + "." + strings.TrimRight(fmt.Sprintf("%08d", frac), "0")
}

// ConversionRate is an immutable rate snapshot applied to one direction of
// conversion (cashin or cashout). Operations freeze the snapshot they were
// quoted under; later configuration changes never touch open operations.
type ConversionRate struct {
	// Ratio multiplies the debit amount.
	Ratio Decimal `json:"ratio"`
	// Fee is subtracted after the ratio, in the credit currency.
	Fee Amount `json:"fee"`
	// MinAmount is the smallest accepted debit; below it the quote is
	// rejected outright.
	MinAmount Amount `json:"min_amount"`
	// TinyAmount clips results: credits below it collapse to zero.
	TinyAmount Amount `json:"tiny_amount"`
	// Rounding is applied when scaling to the sub-unit base.
	Rounding RoundingMode `json:"rounding"`
}
