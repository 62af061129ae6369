package ports

import (
	"context"
	"time"

	"corebank/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx run inside transaction blocks under row locks.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByLogin(ctx context.Context, login string) (*domain.Account, error)
	GetByIban(ctx context.Context, iban string) (*domain.Account, error)
	ListPublic(ctx context.Context) ([]domain.Account, error)
	// GetByIDForUpdate locks the account row. MUST be called within a
	// transaction; lock acquisition order is the caller's responsibility.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance domain.Amount, hasDebt bool) error
	SetDebtThreshold(ctx context.Context, login string, threshold domain.Amount) error
	SetMinCashout(ctx context.Context, login string, min *domain.Amount) error
}

// TransactionRepository defines persistence for immutable ledger rows.
type TransactionRepository interface {
	// Create inserts one ledger row and returns its assigned rowId.
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) (int64, error)
	GetByRowID(ctx context.Context, accountID, rowID int64) (*domain.Transaction, error)
	// History returns up to |delta| rows for the account: rowId >= start
	// ascending when delta > 0, rowId <= start descending when delta < 0.
	History(ctx context.Context, accountID, delta, start int64) ([]domain.Transaction, error)
}

// IdempotencyRepository is the durable layer of the idempotency guard.
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
}

// WithdrawalRepository defines persistence for withdrawal operations.
type WithdrawalRepository interface {
	Create(ctx context.Context, op *domain.WithdrawalOperation) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalOperation, error)
	// SetSelection stores the exchange/reserve selection and moves the
	// operation to the given status. Returns domain.ErrReservePubReuse when
	// the reserve public key is already bound to another operation.
	SetSelection(ctx context.Context, id uuid.UUID, exchangePayto, reservePub string, status domain.WithdrawalStatus) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WithdrawalStatus) error
	// UpdateStatusTx is the in-transaction variant used when the status flip
	// must commit atomically with the ledger transfer.
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus) error
}

// CashoutRepository defines persistence for cashout operations.
type CashoutRepository interface {
	Create(ctx context.Context, op *domain.CashoutOperation) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*domain.CashoutOperation, error)
	// Confirm records the posted regional-side transaction and flips the
	// status, atomically with the enclosing transfer transaction.
	Confirm(ctx context.Context, tx pgx.Tx, id uuid.UUID, localTransactionID int64) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TanRepository defines persistence for TAN challenges.
type TanRepository interface {
	Create(ctx context.Context, c *domain.TanChallenge) (int64, error)
	// GetScoped looks a challenge up by (id, login, op); a mismatch on any
	// component reads as absent. The read never takes a row lock: the
	// wrong-code retry burn runs on the pool and must not wait on the
	// caller's transaction.
	GetScoped(ctx context.Context, id int64, login string, op domain.TanOp) (*domain.TanChallenge, error)
	// DecrementRetries atomically burns one retry and returns the remaining
	// count. It persists independently of any surrounding transaction.
	DecrementRetries(ctx context.Context, id int64) (int, error)
	// MarkConfirmed consumes the challenge within the caller's transaction.
	// It returns domain.ErrChallengeConsumed when the challenge is already
	// confirmed, which settles concurrent confirmations without row locks.
	MarkConfirmed(ctx context.Context, tx pgx.Tx, id int64, now time.Time) error
	Delete(ctx context.Context, id int64) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
