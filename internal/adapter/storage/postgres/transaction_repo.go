package postgres

import (
	"context"
	"errors"
	"fmt"

	"corebank/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. Ledger rows are
// append-only; row_id is a bigserial, so ids follow commit order.
type TransactionRepo struct {
	pool     Pool
	currency string
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool, currency string) *TransactionRepo {
	return &TransactionRepo{pool: pool, currency: currency}
}

const transactionColumns = `row_id, account_id, counterparty_payto, counterparty_name,
	subject, amount_value, amount_frac, direction, request_uid, created_at`

// Create inserts one ledger row within a transaction, returning its rowId.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) (int64, error) {
	query := `INSERT INTO bank_transactions (account_id, counterparty_payto, counterparty_name,
			subject, amount_value, amount_frac, direction, request_uid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING row_id`

	err := tx.QueryRow(ctx, query,
		t.AccountID, t.CounterpartyPayto, t.CounterpartyName,
		t.Subject, int64(t.Amount.Value), int32(t.Amount.Frac),
		string(t.Direction), t.RequestUID, t.CreatedAt,
	).Scan(&t.RowID)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return t.RowID, nil
}

// GetByRowID fetches one ledger row scoped to an account.
func (r *TransactionRepo) GetByRowID(ctx context.Context, accountID, rowID int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM bank_transactions WHERE account_id = $1 AND row_id = $2`

	t, err := r.scanTransaction(r.pool.QueryRow(ctx, query, accountID, rowID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// History returns up to |delta| rows for the account, ascending from start
// when delta > 0 and descending from start when delta < 0.
func (r *TransactionRepo) History(ctx context.Context, accountID, delta, start int64) ([]domain.Transaction, error) {
	var query string
	limit := delta
	if delta >= 0 {
		query = `SELECT ` + transactionColumns + `
			FROM bank_transactions
			WHERE account_id = $1 AND row_id >= $2
			ORDER BY row_id ASC LIMIT $3`
	} else {
		limit = -delta
		query = `SELECT ` + transactionColumns + `
			FROM bank_transactions
			WHERE account_id = $1 AND row_id <= $2
			ORDER BY row_id DESC LIMIT $3`
	}

	rows, err := r.pool.Query(ctx, query, accountID, start, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var value int64
	var frac int32
	var direction string

	err := row.Scan(
		&t.RowID, &t.AccountID, &t.CounterpartyPayto, &t.CounterpartyName,
		&t.Subject, &value, &frac, &direction, &t.RequestUID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Amount = domain.Amount{Currency: r.currency, Value: uint64(value), Frac: uint32(frac)}
	t.Direction = domain.Direction(direction)
	return t, nil
}
