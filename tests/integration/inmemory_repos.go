package integration

import (
	"context"
	"sync"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// The in-memory repositories back the full HTTP stack in tests. A single
// transactor mutex serializes transactions, standing in for the row locks
// the postgres adapter takes, and tx-scoped writes are queued on the memTx
// so a rollback really discards them.

// --- In-Memory Transactor ---

type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{release: t.mu.Unlock}, nil
}

// memTx queues tx-scoped mutations and applies them on Commit; Rollback
// drops them. Either way the transactor lock is released exactly once.
type memTx struct {
	pgx.Tx
	release func()
	pending []func()
	done    bool
}

func (t *memTx) enqueue(f func()) {
	t.pending = append(t.pending, f)
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	for _, f := range t.pending {
		f()
	}
	t.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.pending = nil
	t.release()
	return nil
}

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{byID: make(map[int64]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Login == account.Login {
			return domain.ErrLoginTaken
		}
	}
	r.nextID++
	account.ID = r.nextID
	cp := *account
	r.byID[account.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByLogin(ctx context.Context, login string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Login == login {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) GetByIban(ctx context.Context, iban string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		p, err := domain.ParsePayto(a.PaytoURI)
		if err == nil && p.Iban == iban {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) ListPublic(ctx context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Account
	for _, a := range r.byID {
		if a.IsPublic {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *inMemoryAccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance domain.Amount, hasDebt bool) error {
	tx.(*memTx).enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if a, ok := r.byID[id]; ok {
			a.Balance = balance
			a.HasDebt = hasDebt
		}
	})
	return nil
}

func (r *inMemoryAccountRepo) SetDebtThreshold(ctx context.Context, login string, threshold domain.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Login == login {
			a.DebtThreshold = threshold
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (r *inMemoryAccountRepo) SetMinCashout(ctx context.Context, login string, min *domain.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Login == login {
			a.MinCashout = min
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.Mutex
	nextRow int64
	rows    []domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) (int64, error) {
	r.mu.Lock()
	r.nextRow++
	txn.RowID = r.nextRow
	r.mu.Unlock()

	cp := *txn
	tx.(*memTx).enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.rows = append(r.rows, cp)
	})
	return txn.RowID, nil
}

func (r *inMemoryTransactionRepo) GetByRowID(ctx context.Context, accountID, rowID int64) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.AccountID == accountID && row.RowID == rowID {
			cp := row
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) History(ctx context.Context, accountID, delta, start int64) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	if delta > 0 {
		for _, row := range r.rows {
			if row.AccountID == accountID && row.RowID >= start {
				out = append(out, row)
				if int64(len(out)) == delta {
					break
				}
			}
		}
		return out, nil
	}
	for i := len(r.rows) - 1; i >= 0; i-- {
		row := r.rows[i]
		if row.AccountID == accountID && row.RowID <= start {
			out = append(out, row)
			if int64(len(out)) == -delta {
				break
			}
		}
	}
	return out, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.Mutex
	recs map[string]*domain.IdempotencyRecord
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{recs: make(map[string]*domain.IdempotencyRecord)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error {
	cp := *rec
	tx.(*memTx).enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.recs[cp.Key] = &cp
	})
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// --- In-Memory Withdrawal Repo ---

type inMemoryWithdrawalRepo struct {
	mu  sync.Mutex
	ops map[uuid.UUID]*domain.WithdrawalOperation
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{ops: make(map[uuid.UUID]*domain.WithdrawalOperation)}
}

func (r *inMemoryWithdrawalRepo) Create(ctx context.Context, op *domain.WithdrawalOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *op
	r.ops[op.UUID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalOperation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) SetSelection(ctx context.Context, id uuid.UUID, exchangePayto, reservePub string, status domain.WithdrawalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for otherID, other := range r.ops {
		if otherID != id && other.ReservePub != nil && *other.ReservePub == reservePub {
			return domain.ErrReservePubReuse
		}
	}
	op, ok := r.ops[id]
	if !ok {
		return domain.ErrOperationNotFound
	}
	op.SelectedExchangePayto = &exchangePayto
	op.ReservePub = &reservePub
	op.Status = status
	return nil
}

func (r *inMemoryWithdrawalRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WithdrawalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[id]
	if !ok {
		return domain.ErrOperationNotFound
	}
	op.Status = status
	return nil
}

func (r *inMemoryWithdrawalRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus) error {
	tx.(*memTx).enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if op, ok := r.ops[id]; ok {
			op.Status = status
		}
	})
	return nil
}

// --- In-Memory Cashout Repo ---

type inMemoryCashoutRepo struct {
	mu  sync.Mutex
	ops map[uuid.UUID]*domain.CashoutOperation
}

func newInMemoryCashoutRepo() *inMemoryCashoutRepo {
	return &inMemoryCashoutRepo{ops: make(map[uuid.UUID]*domain.CashoutOperation)}
}

func (r *inMemoryCashoutRepo) Create(ctx context.Context, op *domain.CashoutOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *op
	r.ops[op.UUID] = &cp
	return nil
}

func (r *inMemoryCashoutRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.CashoutOperation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (r *inMemoryCashoutRepo) Confirm(ctx context.Context, tx pgx.Tx, id uuid.UUID, localTransactionID int64) error {
	tx.(*memTx).enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if op, ok := r.ops[id]; ok && op.Status == domain.CashoutStatusPending {
			op.Status = domain.CashoutStatusConfirmed
			op.LocalTransactionID = &localTransactionID
		}
	})
	return nil
}

func (r *inMemoryCashoutRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ops, id)
	return nil
}

// --- In-Memory TAN Repo ---

type inMemoryTanRepo struct {
	mu         sync.Mutex
	nextID     int64
	challenges map[int64]*domain.TanChallenge
}

func newInMemoryTanRepo() *inMemoryTanRepo {
	return &inMemoryTanRepo{challenges: make(map[int64]*domain.TanChallenge)}
}

func (r *inMemoryTanRepo) Create(ctx context.Context, c *domain.TanChallenge) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *c
	cp.ID = r.nextID
	r.challenges[cp.ID] = &cp
	return cp.ID, nil
}

func (r *inMemoryTanRepo) getScoped(id int64, login string, op domain.TanOp) *domain.TanChallenge {
	c, ok := r.challenges[id]
	if !ok || c.Login != login || c.Op != op {
		return nil
	}
	cp := *c
	return &cp
}

func (r *inMemoryTanRepo) GetScoped(ctx context.Context, id int64, login string, op domain.TanOp) (*domain.TanChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getScoped(id, login, op), nil
}

func (r *inMemoryTanRepo) DecrementRetries(ctx context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok || c.RetryCounter <= 0 {
		return 0, nil
	}
	c.RetryCounter--
	return c.RetryCounter, nil
}

func (r *inMemoryTanRepo) MarkConfirmed(ctx context.Context, tx pgx.Tx, id int64, now time.Time) error {
	r.mu.Lock()
	if c, ok := r.challenges[id]; ok && c.ConfirmedAt != nil {
		r.mu.Unlock()
		return domain.ErrChallengeConsumed
	}
	r.mu.Unlock()

	tx.(*memTx).enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.challenges[id]; ok && c.ConfirmedAt == nil {
			t := now
			c.ConfirmedAt = &t
		}
	})
	return nil
}

func (r *inMemoryTanRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.challenges, id)
	return nil
}

// --- Recording TAN Sender ---

// recordingTanSender captures issued codes so tests can confirm operations
// the way a user reading their device would.
type recordingTanSender struct {
	mu    sync.Mutex
	codes []string
}

func (s *recordingTanSender) Send(ctx context.Context, login string, channel domain.TanChannel, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, code)
	return nil
}

func (s *recordingTanSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

// compile-time interface checks
var (
	_ ports.DBTransactor          = (*inMemoryTransactor)(nil)
	_ ports.AccountRepository     = (*inMemoryAccountRepo)(nil)
	_ ports.TransactionRepository = (*inMemoryTransactionRepo)(nil)
	_ ports.IdempotencyRepository = (*inMemoryIdempotencyRepo)(nil)
	_ ports.WithdrawalRepository  = (*inMemoryWithdrawalRepo)(nil)
	_ ports.CashoutRepository     = (*inMemoryCashoutRepo)(nil)
	_ ports.TanRepository         = (*inMemoryTanRepo)(nil)
	_ ports.TanSender             = (*recordingTanSender)(nil)
)
