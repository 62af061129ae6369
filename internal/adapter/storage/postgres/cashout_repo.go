package postgres

import (
	"context"
	"errors"
	"fmt"

	"corebank/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CashoutRepo implements ports.CashoutRepository. The conversion parameters
// frozen at creation are stored with the operation and never re-read from
// configuration.
type CashoutRepo struct {
	pool         Pool
	currency     string
	fiatCurrency string
}

// NewCashoutRepo creates a new CashoutRepo.
func NewCashoutRepo(pool Pool, currency, fiatCurrency string) *CashoutRepo {
	return &CashoutRepo{pool: pool, currency: currency, fiatCurrency: fiatCurrency}
}

// Create inserts a pending cashout operation.
func (r *CashoutRepo) Create(ctx context.Context, op *domain.CashoutOperation) error {
	query := `INSERT INTO cashout_operations
			(uuid, account_id, amount_debit_value, amount_debit_frac,
			amount_credit_value, amount_credit_frac, subject, cashout_address,
			ratio_units, fee_value, fee_frac, rounding, challenge_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		op.UUID, op.AccountID,
		int64(op.AmountDebit.Value), int32(op.AmountDebit.Frac),
		int64(op.AmountCredit.Value), int32(op.AmountCredit.Frac),
		op.Subject, op.CashoutAddress,
		int64(op.RatioApplied.Units), int64(op.FeeApplied.Value), int32(op.FeeApplied.Frac),
		string(op.RoundingUsed), op.ChallengeID, string(op.Status), op.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cashout: %w", err)
	}
	return nil
}

// GetByUUID fetches a cashout operation. Returns nil, nil when absent.
func (r *CashoutRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.CashoutOperation, error) {
	query := `SELECT uuid, account_id, amount_debit_value, amount_debit_frac,
			amount_credit_value, amount_credit_frac, subject, cashout_address,
			ratio_units, fee_value, fee_frac, rounding, challenge_id,
			local_transaction_id, status, created_at
		FROM cashout_operations WHERE uuid = $1`

	op := &domain.CashoutOperation{}
	var debitValue, creditValue, feeValue, ratioUnits int64
	var debitFrac, creditFrac, feeFrac int32
	var rounding, status string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&op.UUID, &op.AccountID, &debitValue, &debitFrac,
		&creditValue, &creditFrac, &op.Subject, &op.CashoutAddress,
		&ratioUnits, &feeValue, &feeFrac, &rounding, &op.ChallengeID,
		&op.LocalTransactionID, &status, &op.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cashout: %w", err)
	}

	op.AmountDebit = domain.Amount{Currency: r.currency, Value: uint64(debitValue), Frac: uint32(debitFrac)}
	op.AmountCredit = domain.Amount{Currency: r.fiatCurrency, Value: uint64(creditValue), Frac: uint32(creditFrac)}
	op.RatioApplied = domain.Decimal{Units: uint64(ratioUnits)}
	op.FeeApplied = domain.Amount{Currency: r.fiatCurrency, Value: uint64(feeValue), Frac: uint32(feeFrac)}
	op.RoundingUsed = domain.RoundingMode(rounding)
	op.Status = domain.CashoutStatus(status)
	return op, nil
}

// Confirm records the posted ledger row and flips the status, inside the
// same transaction that posted it. Only a pending operation can confirm.
func (r *CashoutRepo) Confirm(ctx context.Context, tx pgx.Tx, id uuid.UUID, localTransactionID int64) error {
	query := `UPDATE cashout_operations
		SET status = $2, local_transaction_id = $3
		WHERE uuid = $1 AND status = $4`

	tag, err := tx.Exec(ctx, query, id,
		string(domain.CashoutStatusConfirmed), localTransactionID,
		string(domain.CashoutStatusPending),
	)
	if err != nil {
		return fmt.Errorf("confirm cashout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOperationNotFound
	}
	return nil
}

// Delete removes an aborted operation.
func (r *CashoutRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cashout_operations WHERE uuid = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cashout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOperationNotFound
	}
	return nil
}
