package ports

import (
	"context"
	"strconv"
	"time"

	"corebank/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Change notification ---

// ScopeGlobal is the event-bus scope covering every ledger row.
const ScopeGlobal = "global"

// ScopeAccount returns the per-account event-bus scope.
func ScopeAccount(accountID int64) string {
	return "account:" + strconv.FormatInt(accountID, 10)
}

// EventBus is the broadcast primitive behind long-polling: every published
// rowId reaches every subscriber current on a matching scope exactly once.
type EventBus interface {
	Publish(ctx context.Context, scope string, rowID int64) error
	// Subscribe registers a waiter. The returned cancel func must always be
	// called; it releases the registration.
	Subscribe(ctx context.Context, scope string) (<-chan int64, func(), error)
}

// --- Ledger ---

// TransferRequest describes one debt-aware balance transfer.
type TransferRequest struct {
	DebtorID   int64
	CreditorID int64
	Subject    string
	Amount     domain.Amount
	RequestUID *string
	Timestamp  time.Time
}

// TransferResult reports the two ledger rows of an accepted transfer.
type TransferResult struct {
	DebitRowID  int64
	CreditRowID int64
	Timestamp   time.Time
}

// CreateTransactionRequest is the API-facing transaction-creation operation.
type CreateTransactionRequest struct {
	DebtorLogin   string
	CreditorPayto string
	Subject       string
	Amount        domain.Amount
	RequestUID    *string
}

// LedgerService owns balances: transfers are the only way they move.
type LedgerService interface {
	// Transfer runs the debt-aware transfer as one atomic commit and
	// publishes change events after it.
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	// TransferTx composes the transfer into a caller-owned transaction.
	// The caller commits; events are returned for post-commit publication.
	TransferTx(ctx context.Context, tx pgx.Tx, req TransferRequest) (*TransferResult, error)
	// PublishTransfer emits the change events for a committed transfer.
	PublishTransfer(ctx context.Context, req TransferRequest, res *TransferResult)
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, login string, rowID int64) (*domain.Transaction, error)
}

// HistoryService serves the ordered, cursor-based, long-pollable event feed.
type HistoryService interface {
	// History returns up to |delta| rows. start == nil defaults to the
	// beginning for ascending reads and the newest row for descending ones.
	// With longPoll > 0 and nothing immediately available, the call suspends
	// until a matching event or the timeout, then re-evaluates once.
	History(ctx context.Context, login string, delta int64, start *int64, longPoll time.Duration) ([]domain.Transaction, error)
}

// --- TAN ---

// TanService issues and confirms one-time codes for sensitive operations.
type TanService interface {
	Issue(ctx context.Context, login string, op domain.TanOp, bodyJSON []byte, channel *domain.TanChannel) (*domain.TanChallenge, error)
	// Confirm validates the code inside the caller's transaction and marks
	// the challenge consumed there, so a failed enclosing operation rolls
	// the consumption back. Failed attempts burn a retry regardless.
	Confirm(ctx context.Context, tx pgx.Tx, id int64, login string, op domain.TanOp, code string, now time.Time) ([]byte, error)
}

// TanSender delivers a code out-of-band. Implementations must not block the
// issuing transaction on delivery failures.
type TanSender interface {
	Send(ctx context.Context, login string, channel domain.TanChannel, code string) error
}

// --- Withdrawal ---

// WithdrawalService drives the Taler reserve withdrawal lifecycle.
type WithdrawalService interface {
	Create(ctx context.Context, login string, amount domain.Amount) (*domain.WithdrawalOperation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.WithdrawalOperation, error)
	SetDetails(ctx context.Context, id uuid.UUID, exchangePayto, reservePub string) (*domain.WithdrawalOperation, error)
	Confirm(ctx context.Context, id uuid.UUID) (*domain.WithdrawalOperation, error)
	Abort(ctx context.Context, id uuid.UUID) error
}

// --- Cashout ---

// CashoutRequest is the cashout-creation operation.
type CashoutRequest struct {
	Login          string
	AmountDebit    domain.Amount
	AmountCredit   domain.Amount
	Subject        string
	CashoutAddress string
	RequestUID     *string
}

// CashoutService drives the fiat cashout lifecycle.
type CashoutService interface {
	Create(ctx context.Context, req CashoutRequest) (*domain.CashoutOperation, error)
	Get(ctx context.Context, login string, id uuid.UUID) (*domain.CashoutOperation, error)
	Confirm(ctx context.Context, login string, id uuid.UUID, code string, now time.Time) (*domain.CashoutOperation, error)
	Abort(ctx context.Context, login string, id uuid.UUID) error
}

// --- Conversion ---

// ConversionService applies immutable rate snapshots to quotes.
type ConversionService interface {
	// CashinQuote converts a fiat debit into regional credit.
	CashinQuote(debit domain.Amount) (domain.Amount, error)
	// CashoutQuote converts a regional debit into fiat credit.
	CashoutQuote(debit domain.Amount) (domain.Amount, error)
	CashoutRate() domain.ConversionRate
}

// --- Accounts & auth ---

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Login      string
	Password   string
	Name       string
	IsPublic   bool
	IsExchange bool
	TanChannel *domain.TanChannel
}

// AccountService manages accounts and authentication.
type AccountService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Account, error)
	Login(ctx context.Context, login, password string) (string, time.Time, error)
	Get(ctx context.Context, login string) (*domain.Account, error)
	ListPublic(ctx context.Context) ([]domain.Account, error)
	SetDebtThreshold(ctx context.Context, login string, threshold domain.Amount) error
	SetMinCashout(ctx context.Context, login string, min *domain.Amount) error
}

// TokenService handles bearer token operations.
type TokenService interface {
	Generate(login string, isAdmin bool) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed token claims.
type TokenClaims struct {
	Login   string
	IsAdmin bool
}

// HashService handles password hashing.
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// IdempotencyCache is the fast-path idempotency check in front of the
// durable guard.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
