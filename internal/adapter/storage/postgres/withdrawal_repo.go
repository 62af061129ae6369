package postgres

import (
	"context"
	"errors"
	"fmt"

	"corebank/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// WithdrawalRepo implements ports.WithdrawalRepository. The unique index on
// reserve_pub enforces the one-reserve-per-withdrawal rule at the store.
type WithdrawalRepo struct {
	pool     Pool
	currency string
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool, currency string) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool, currency: currency}
}

// Create inserts a pending withdrawal operation.
func (r *WithdrawalRepo) Create(ctx context.Context, op *domain.WithdrawalOperation) error {
	query := `INSERT INTO withdrawal_operations
			(uuid, wallet_account_id, amount_value, amount_frac, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		op.UUID, op.WalletAccountID,
		int64(op.Amount.Value), int32(op.Amount.Frac),
		string(op.Status), op.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	return nil
}

// GetByUUID fetches a withdrawal operation. Returns nil, nil when absent.
func (r *WithdrawalRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalOperation, error) {
	query := `SELECT uuid, wallet_account_id, amount_value, amount_frac,
			status, reserve_pub, exchange_payto, created_at
		FROM withdrawal_operations WHERE uuid = $1`

	op := &domain.WithdrawalOperation{}
	var value int64
	var frac int32
	var status string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&op.UUID, &op.WalletAccountID, &value, &frac,
		&status, &op.ReservePub, &op.SelectedExchangePayto, &op.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}

	op.Amount = domain.Amount{Currency: r.currency, Value: uint64(value), Frac: uint32(frac)}
	op.Status = domain.WithdrawalStatus(status)
	return op, nil
}

// SetSelection stores the exchange/reserve selection. A unique violation on
// reserve_pub maps to domain.ErrReservePubReuse.
func (r *WithdrawalRepo) SetSelection(ctx context.Context, id uuid.UUID, exchangePayto, reservePub string, status domain.WithdrawalStatus) error {
	query := `UPDATE withdrawal_operations
		SET exchange_payto = $2, reserve_pub = $3, status = $4
		WHERE uuid = $1`

	tag, err := r.pool.Exec(ctx, query, id, exchangePayto, reservePub, string(status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrReservePubReuse
		}
		return fmt.Errorf("set withdrawal selection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOperationNotFound
	}
	return nil
}

// UpdateStatus flips the operation status outside a transfer transaction.
func (r *WithdrawalRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WithdrawalStatus) error {
	return r.updateStatus(ctx, r.pool, id, status)
}

// UpdateStatusTx flips the status inside the transfer transaction so that a
// failed transfer rolls the transition back with it.
func (r *WithdrawalRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus) error {
	return r.updateStatus(ctx, tx, id, status)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *WithdrawalRepo) updateStatus(ctx context.Context, db execer, id uuid.UUID, status domain.WithdrawalStatus) error {
	query := `UPDATE withdrawal_operations SET status = $2 WHERE uuid = $1`

	tag, err := db.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update withdrawal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOperationNotFound
	}
	return nil
}
