package service

import (
	"fmt"
	"math/big"

	"corebank/internal/core/domain"
)

// ConversionServiceImpl implements ports.ConversionService. The rate
// snapshots are fixed at construction; operations that need stability
// across configuration reloads freeze a copy of the snapshot they were
// quoted under.
type ConversionServiceImpl struct {
	cashin  domain.ConversionRate
	cashout domain.ConversionRate
}

// NewConversionService creates a new ConversionServiceImpl.
func NewConversionService(cashin, cashout domain.ConversionRate) *ConversionServiceImpl {
	return &ConversionServiceImpl{cashin: cashin, cashout: cashout}
}

// CashinQuote converts a fiat debit into regional credit.
func (s *ConversionServiceImpl) CashinQuote(debit domain.Amount) (domain.Amount, error) {
	return apply(s.cashin, debit)
}

// CashoutQuote converts a regional debit into fiat credit.
func (s *ConversionServiceImpl) CashoutQuote(debit domain.Amount) (domain.Amount, error) {
	return apply(s.cashout, debit)
}

// CashoutRate returns the current cashout rate snapshot.
func (s *ConversionServiceImpl) CashoutRate() domain.ConversionRate {
	return s.cashout
}

var fractionBase = big.NewInt(domain.FractionBase)

// apply computes credit = round(debit * ratio) - fee in exact fixed-point
// arithmetic. The intermediate product exceeds 64 bits for large amounts,
// so it runs on big.Int. Results below the tiny threshold collapse to
// zero; debits below the minimum are rejected.
func apply(rate domain.ConversionRate, debit domain.Amount) (domain.Amount, error) {
	if debit.Currency != rate.MinAmount.Currency {
		return domain.Amount{}, fmt.Errorf("quote for %s: %w", debit.Currency, domain.ErrCurrencyMismatch)
	}
	if !rate.MinAmount.IsZero() && debit.Cmp(rate.MinAmount) < 0 {
		return domain.Amount{}, domain.ErrBelowMinimum
	}

	// debit and ratio in 1e-8 units
	debitUnits := new(big.Int).Mul(big.NewInt(int64(debit.Value)), fractionBase)
	debitUnits.Add(debitUnits, big.NewInt(int64(debit.Frac)))
	product := new(big.Int).Mul(debitUnits, new(big.Int).SetUint64(rate.Ratio.Units))

	// scale back down, applying the configured rounding to the remainder
	quo, rem := new(big.Int).QuoRem(product, fractionBase, new(big.Int))
	switch rate.Rounding {
	case domain.RoundNearest:
		if rem.Lsh(rem, 1).Cmp(fractionBase) >= 0 {
			quo.Add(quo, big.NewInt(1))
		}
	case domain.RoundUp:
		if rem.Sign() > 0 {
			quo.Add(quo, big.NewInt(1))
		}
	}

	feeUnits := new(big.Int).Mul(big.NewInt(int64(rate.Fee.Value)), fractionBase)
	feeUnits.Add(feeUnits, big.NewInt(int64(rate.Fee.Frac)))
	quo.Sub(quo, feeUnits)

	creditCurrency := rate.Fee.Currency
	if quo.Sign() <= 0 {
		return domain.ZeroAmount(creditCurrency), nil
	}
	if !quo.IsUint64() {
		return domain.Amount{}, domain.ErrAmountOverflow
	}
	units := quo.Uint64()
	credit, err := domain.NewAmount(creditCurrency, units/domain.FractionBase, uint32(units%domain.FractionBase))
	if err != nil {
		return domain.Amount{}, err
	}
	if !rate.TinyAmount.IsZero() && credit.Cmp(rate.TinyAmount) < 0 {
		return domain.ZeroAmount(creditCurrency), nil
	}
	return credit, nil
}
