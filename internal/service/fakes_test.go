package service

import (
	"context"
	"sync"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// fakeTx stands in for a database transaction. Mutations that must commit
// atomically with the enclosing operation are queued and applied on
// Commit; a rollback simply drops them.
type fakeTx struct {
	pgx.Tx
	mu      sync.Mutex
	pending []func()
	done    bool
}

func (t *fakeTx) enqueue(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, f)
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	for _, f := range t.pending {
		f()
	}
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.pending = nil
	return nil
}

type fakeTransactor struct{}

func (fakeTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	return &fakeTx{}, nil
}

// --- accounts ---

type fakeAccountRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: make(map[int64]*domain.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
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

func (r *fakeAccountRepo) GetByLogin(_ context.Context, login string) (*domain.Account, error) {
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

func (r *fakeAccountRepo) GetByIban(_ context.Context, iban string) (*domain.Account, error) {
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

func (r *fakeAccountRepo) ListPublic(_ context.Context) ([]domain.Account, error) {
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

func (r *fakeAccountRepo) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) UpdateBalance(_ context.Context, _ pgx.Tx, id int64, balance domain.Amount, hasDebt bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Balance = balance
	a.HasDebt = hasDebt
	return nil
}

func (r *fakeAccountRepo) SetDebtThreshold(_ context.Context, login string, threshold domain.Amount) error {
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

func (r *fakeAccountRepo) SetMinCashout(_ context.Context, login string, min *domain.Amount) error {
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

// --- transactions ---

type fakeTxRepo struct {
	mu      sync.Mutex
	nextRow int64
	rows    []domain.Transaction
}

func newFakeTxRepo() *fakeTxRepo { return &fakeTxRepo{} }

func (r *fakeTxRepo) Create(_ context.Context, _ pgx.Tx, txn *domain.Transaction) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextRow++
	txn.RowID = r.nextRow
	r.rows = append(r.rows, *txn)
	return txn.RowID, nil
}

func (r *fakeTxRepo) GetByRowID(_ context.Context, accountID, rowID int64) (*domain.Transaction, error) {
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

func (r *fakeTxRepo) History(_ context.Context, accountID, delta, start int64) ([]domain.Transaction, error) {
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

// --- idempotency ---

type fakeIdempRepo struct {
	mu   sync.Mutex
	recs map[string]*domain.IdempotencyRecord
}

func newFakeIdempRepo() *fakeIdempRepo {
	return &fakeIdempRepo{recs: make(map[string]*domain.IdempotencyRecord)}
}

func (r *fakeIdempRepo) Create(_ context.Context, _ pgx.Tx, rec *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.recs[rec.Key] = &cp
	return nil
}

func (r *fakeIdempRepo) Get(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

type fakeIdempCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeIdempCache() *fakeIdempCache {
	return &fakeIdempCache{data: make(map[string][]byte)}
}

func (c *fakeIdempCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *fakeIdempCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

// --- TAN ---

type fakeTanRepo struct {
	mu         sync.Mutex
	nextID     int64
	challenges map[int64]*domain.TanChallenge
}

func newFakeTanRepo() *fakeTanRepo {
	return &fakeTanRepo{challenges: make(map[int64]*domain.TanChallenge)}
}

func (r *fakeTanRepo) Create(_ context.Context, c *domain.TanChallenge) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *c
	cp.ID = r.nextID
	r.challenges[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeTanRepo) getScoped(id int64, login string, op domain.TanOp) *domain.TanChallenge {
	c, ok := r.challenges[id]
	if !ok || c.Login != login || c.Op != op {
		return nil
	}
	cp := *c
	return &cp
}

func (r *fakeTanRepo) GetScoped(_ context.Context, id int64, login string, op domain.TanOp) (*domain.TanChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getScoped(id, login, op), nil
}

func (r *fakeTanRepo) DecrementRetries(_ context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok || c.RetryCounter <= 0 {
		return 0, nil
	}
	c.RetryCounter--
	return c.RetryCounter, nil
}

// MarkConfirmed applies at commit time, matching the transactional
// consumption semantics of the real repository, and reports an already
// consumed challenge the way the conditional UPDATE does.
func (r *fakeTanRepo) MarkConfirmed(_ context.Context, tx pgx.Tx, id int64, now time.Time) error {
	r.mu.Lock()
	c, ok := r.challenges[id]
	if ok && c.ConfirmedAt != nil {
		r.mu.Unlock()
		return domain.ErrChallengeConsumed
	}
	r.mu.Unlock()

	ft := tx.(*fakeTx)
	ft.enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.challenges[id]; ok && c.ConfirmedAt == nil {
			t := now
			c.ConfirmedAt = &t
		}
	})
	return nil
}

func (r *fakeTanRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.challenges, id)
	return nil
}

type fakeTanSender struct {
	mu    sync.Mutex
	codes []string
}

func (s *fakeTanSender) Send(_ context.Context, _ string, _ domain.TanChannel, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, code)
	return nil
}

// --- withdrawals ---

type fakeWithdrawalRepo struct {
	mu  sync.Mutex
	ops map[uuid.UUID]*domain.WithdrawalOperation
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{ops: make(map[uuid.UUID]*domain.WithdrawalOperation)}
}

func (r *fakeWithdrawalRepo) Create(_ context.Context, op *domain.WithdrawalOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *op
	r.ops[op.UUID] = &cp
	return nil
}

func (r *fakeWithdrawalRepo) GetByUUID(_ context.Context, id uuid.UUID) (*domain.WithdrawalOperation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (r *fakeWithdrawalRepo) SetSelection(_ context.Context, id uuid.UUID, exchangePayto, reservePub string, status domain.WithdrawalStatus) error {
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

func (r *fakeWithdrawalRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.WithdrawalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[id]
	if !ok {
		return domain.ErrOperationNotFound
	}
	op.Status = status
	return nil
}

func (r *fakeWithdrawalRepo) UpdateStatusTx(_ context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus) error {
	tx.(*fakeTx).enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if op, ok := r.ops[id]; ok {
			op.Status = status
		}
	})
	return nil
}

// --- cashouts ---

type fakeCashoutRepo struct {
	mu  sync.Mutex
	ops map[uuid.UUID]*domain.CashoutOperation
}

func newFakeCashoutRepo() *fakeCashoutRepo {
	return &fakeCashoutRepo{ops: make(map[uuid.UUID]*domain.CashoutOperation)}
}

func (r *fakeCashoutRepo) Create(_ context.Context, op *domain.CashoutOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *op
	r.ops[op.UUID] = &cp
	return nil
}

func (r *fakeCashoutRepo) GetByUUID(_ context.Context, id uuid.UUID) (*domain.CashoutOperation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (r *fakeCashoutRepo) Confirm(_ context.Context, tx pgx.Tx, id uuid.UUID, localTransactionID int64) error {
	tx.(*fakeTx).enqueue(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if op, ok := r.ops[id]; ok && op.Status == domain.CashoutStatusPending {
			op.Status = domain.CashoutStatusConfirmed
			op.LocalTransactionID = &localTransactionID
		}
	})
	return nil
}

func (r *fakeCashoutRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ops, id)
	return nil
}

// --- event bus ---

type fakeBusSub struct {
	scope string
	ch    chan int64
}

type fakeBus struct {
	mu   sync.Mutex
	subs map[*fakeBusSub]struct{}
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[*fakeBusSub]struct{})}
}

func (b *fakeBus) Publish(_ context.Context, scope string, rowID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if sub.scope == scope {
			select {
			case sub.ch <- rowID:
			default:
			}
		}
	}
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, scope string) (<-chan int64, func(), error) {
	sub := &fakeBusSub{scope: scope, ch: make(chan int64, 16)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	cancel := func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
	}
	return sub.ch, cancel, nil
}

// compile-time interface checks
var (
	_ ports.AccountRepository     = (*fakeAccountRepo)(nil)
	_ ports.TransactionRepository = (*fakeTxRepo)(nil)
	_ ports.IdempotencyRepository = (*fakeIdempRepo)(nil)
	_ ports.IdempotencyCache      = (*fakeIdempCache)(nil)
	_ ports.TanRepository         = (*fakeTanRepo)(nil)
	_ ports.TanSender             = (*fakeTanSender)(nil)
	_ ports.WithdrawalRepository  = (*fakeWithdrawalRepo)(nil)
	_ ports.CashoutRepository     = (*fakeCashoutRepo)(nil)
	_ ports.EventBus              = (*fakeBus)(nil)
	_ ports.DBTransactor          = (fakeTransactor{})
)
