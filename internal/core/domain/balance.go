package domain

// Balance is a conceptually signed account balance stored as an unsigned
// magnitude plus a sign flag. HasDebt true means the account owes the bank.
// The zero magnitude is always stored with HasDebt false.
type Balance struct {
	Amount  Amount `json:"amount"`
	HasDebt bool   `json:"has_debt"`
}

// Debit applies a debit of amt and enforces threshold as the maximum allowed
// debt magnitude. Returns ErrInsufficientFunds when the prospective debt
// would exceed the threshold; ErrAmountOverflow only on representational
// overflow, which callers treat as fatal.
func (b Balance) Debit(amt, threshold Amount) (Balance, error) {
	if b.HasDebt {
		debt, err := b.Amount.Add(amt)
		if err != nil {
			return Balance{}, err
		}
		if debt.Cmp(threshold) > 0 {
			return Balance{}, ErrInsufficientFunds
		}
		return Balance{Amount: debt, HasDebt: true}, nil
	}

	if rest, ok := b.Amount.Sub(amt); ok {
		return Balance{Amount: rest, HasDebt: false}, nil
	}

	// Credit flips into debt equal to the deficit.
	deficit, ok := amt.Sub(b.Amount)
	if !ok {
		// Unreachable: amt > balance was just established.
		return Balance{}, ErrAmountOverflow
	}
	if deficit.Cmp(threshold) > 0 {
		return Balance{}, ErrInsufficientFunds
	}
	return Balance{Amount: deficit, HasDebt: true}, nil
}

// Credit applies a credit of amt. A credit can only grow the balance or
// shrink existing debt; it is never rejected for business reasons.
func (b Balance) Credit(amt Amount) (Balance, error) {
	if !b.HasDebt {
		sum, err := b.Amount.Add(amt)
		if err != nil {
			return Balance{}, err
		}
		return Balance{Amount: sum, HasDebt: false}, nil
	}

	if rest, ok := b.Amount.Sub(amt); ok {
		return Balance{Amount: rest, HasDebt: !rest.IsZero()}, nil
	}

	surplus, ok := amt.Sub(b.Amount)
	if !ok {
		return Balance{}, ErrAmountOverflow
	}
	return Balance{Amount: surplus, HasDebt: false}, nil
}
