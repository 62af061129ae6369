package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// LedgerServiceImpl implements ports.LedgerService. Balances only ever
// move through the transfer path here; everything else (withdrawals,
// cashouts) composes into it.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	idempRepo   ports.IdempotencyRepository
	idempCache  ports.IdempotencyCache
	transactor  ports.DBTransactor
	bus         ports.EventBus
	currency    string
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	bus ports.EventBus,
	currency string,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		idempRepo:   idempRepo,
		idempCache:  idempCache,
		transactor:  transactor,
		bus:         bus,
		currency:    currency,
		log:         log,
	}
}

// TransferTx runs the debt-aware balance movement inside the caller's
// transaction. Both account rows are locked in ascending id order so
// concurrent transfers over the same pair cannot deadlock.
func (s *LedgerServiceImpl) TransferTx(ctx context.Context, tx pgx.Tx, req ports.TransferRequest) (*ports.TransferResult, error) {
	if req.DebtorID == req.CreditorID {
		return nil, apperror.Validation("debtor and creditor must differ")
	}
	if req.Amount.Currency != s.currency {
		return nil, fmt.Errorf("transfer in %s: %w", req.Amount.Currency, domain.ErrCurrencyMismatch)
	}
	if req.Amount.IsZero() {
		return nil, apperror.Validation("amount must be positive")
	}

	firstID, secondID := req.DebtorID, req.CreditorID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := s.accountRepo.GetByIDForUpdate(ctx, tx, firstID)
	if err != nil {
		return nil, fmt.Errorf("lock account %d: %w", firstID, err)
	}
	second, err := s.accountRepo.GetByIDForUpdate(ctx, tx, secondID)
	if err != nil {
		return nil, fmt.Errorf("lock account %d: %w", secondID, err)
	}
	if first == nil || second == nil {
		if first == nil && firstID == req.DebtorID || second == nil && secondID == req.DebtorID {
			return nil, domain.ErrUnknownDebtor
		}
		return nil, domain.ErrUnknownCreditor
	}
	debtor, creditor := first, second
	if debtor.ID != req.DebtorID {
		debtor, creditor = second, first
	}

	newDebtorBalance, err := debtor.SignedBalance().Debit(req.Amount, debtor.DebtThreshold)
	if err != nil {
		return nil, err
	}
	newCreditorBalance, err := creditor.SignedBalance().Credit(req.Amount)
	if err != nil {
		return nil, err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	debitRow := &domain.Transaction{
		AccountID:         debtor.ID,
		CounterpartyPayto: creditor.PaytoURI,
		CounterpartyName:  creditor.Name,
		Subject:           req.Subject,
		Amount:            req.Amount,
		Direction:         domain.DirectionDebit,
		RequestUID:        req.RequestUID,
		CreatedAt:         ts,
	}
	creditRow := &domain.Transaction{
		AccountID:         creditor.ID,
		CounterpartyPayto: debtor.PaytoURI,
		CounterpartyName:  debtor.Name,
		Subject:           req.Subject,
		Amount:            req.Amount,
		Direction:         domain.DirectionCredit,
		CreatedAt:         ts,
	}
	debitRowID, err := s.txRepo.Create(ctx, tx, debitRow)
	if err != nil {
		return nil, fmt.Errorf("create debit row: %w", err)
	}
	creditRowID, err := s.txRepo.Create(ctx, tx, creditRow)
	if err != nil {
		return nil, fmt.Errorf("create credit row: %w", err)
	}

	if err := s.accountRepo.UpdateBalance(ctx, tx, debtor.ID, newDebtorBalance.Amount, newDebtorBalance.HasDebt); err != nil {
		return nil, fmt.Errorf("update debtor balance: %w", err)
	}
	if err := s.accountRepo.UpdateBalance(ctx, tx, creditor.ID, newCreditorBalance.Amount, newCreditorBalance.HasDebt); err != nil {
		return nil, fmt.Errorf("update creditor balance: %w", err)
	}

	return &ports.TransferResult{DebitRowID: debitRowID, CreditRowID: creditRowID, Timestamp: ts}, nil
}

// Transfer runs TransferTx as its own atomic commit and publishes the
// change events afterwards.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	timer := prometheus.NewTimer(metrics.TransferDuration)
	defer timer.ObserveDuration()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	res, err := s.TransferTx(ctx, dbTx, req)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues(transferOutcome(err)).Inc()
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		metrics.TransfersTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	metrics.TransfersTotal.WithLabelValues("committed").Inc()

	s.PublishTransfer(ctx, req, res)
	return res, nil
}

// PublishTransfer emits the change events for a committed transfer. Event
// delivery is best-effort; waiters that miss one catch up on their next
// poll window.
func (s *LedgerServiceImpl) PublishTransfer(ctx context.Context, req ports.TransferRequest, res *ports.TransferResult) {
	events := []struct {
		scope string
		rowID int64
	}{
		{ports.ScopeAccount(req.DebtorID), res.DebitRowID},
		{ports.ScopeAccount(req.CreditorID), res.CreditRowID},
		{ports.ScopeGlobal, res.CreditRowID},
	}
	for _, e := range events {
		if err := s.bus.Publish(ctx, e.scope, e.rowID); err != nil {
			s.log.Warn().Err(err).Str("scope", e.scope).Int64("row_id", e.rowID).Msg("failed to publish transfer event")
		}
	}
}

// CreateTransaction is the API-facing wire transfer: it resolves the
// parties, runs the idempotency guard, and commits the transfer.
func (s *LedgerServiceImpl) CreateTransaction(ctx context.Context, req ports.CreateTransactionRequest) (*domain.Transaction, error) {
	if req.Subject == "" {
		return nil, apperror.Validation("subject must not be empty")
	}
	payto, err := domain.ParsePayto(req.CreditorPayto)
	if err != nil {
		return nil, err
	}

	debtor, err := s.accountRepo.GetByLogin(ctx, req.DebtorLogin)
	if err != nil {
		return nil, fmt.Errorf("get debtor: %w", err)
	}
	if debtor == nil {
		return nil, domain.ErrUnknownDebtor
	}
	creditor, err := s.accountRepo.GetByIban(ctx, payto.Iban)
	if err != nil {
		return nil, fmt.Errorf("get creditor: %w", err)
	}
	if creditor == nil {
		return nil, domain.ErrUnknownCreditor
	}

	var idempKey, paramsHash string
	if req.RequestUID != nil {
		idempKey = domain.BuildIdempotencyKey(debtor.ID, *req.RequestUID)
		paramsHash = domain.HashParams(req.CreditorPayto, req.Amount.String(), req.Subject)

		// Layer 1: Redis idempotency check
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return s.replayTransaction(cached, paramsHash)
		}

		// Layer 2: DB idempotency check
		rec, err := s.idempRepo.Get(ctx, idempKey)
		if err != nil {
			return nil, fmt.Errorf("db idempotency check: %w", err)
		}
		if rec != nil {
			recJSON, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("marshal idempotency record: %w", err)
			}
			return s.replayTransaction(recJSON, paramsHash)
		}
	}

	timer := prometheus.NewTimer(metrics.TransferDuration)
	defer timer.ObserveDuration()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	transferReq := ports.TransferRequest{
		DebtorID:   debtor.ID,
		CreditorID: creditor.ID,
		Subject:    req.Subject,
		Amount:     req.Amount,
		RequestUID: req.RequestUID,
	}
	res, err := s.TransferTx(ctx, dbTx, transferReq)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues(transferOutcome(err)).Inc()
		return nil, err
	}

	txn := &domain.Transaction{
		RowID:             res.DebitRowID,
		AccountID:         debtor.ID,
		CounterpartyPayto: creditor.PaytoURI,
		CounterpartyName:  creditor.Name,
		Subject:           req.Subject,
		Amount:            req.Amount,
		Direction:         domain.DirectionDebit,
		RequestUID:        req.RequestUID,
		CreatedAt:         res.Timestamp,
	}

	var recJSON []byte
	if req.RequestUID != nil {
		respJSON, err := json.Marshal(txn)
		if err != nil {
			return nil, fmt.Errorf("marshal response: %w", err)
		}
		rec := &domain.IdempotencyRecord{
			Key:          idempKey,
			ParamsHash:   paramsHash,
			ResponseJSON: respJSON,
			CreatedAt:    res.Timestamp,
		}
		if err := s.idempRepo.Create(ctx, dbTx, rec); err != nil {
			return nil, fmt.Errorf("save idempotency record: %w", err)
		}
		recJSON, err = json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal idempotency record: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		metrics.TransfersTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	metrics.TransfersTotal.WithLabelValues("committed").Inc()

	if recJSON != nil {
		if err := s.idempCache.Set(ctx, idempKey, recJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency record in redis")
		}
	}

	s.PublishTransfer(ctx, transferReq, res)

	s.log.Info().
		Int64("row_id", txn.RowID).
		Str("debtor", req.DebtorLogin).
		Str("amount", req.Amount.String()).
		Msg("transaction created")

	return txn, nil
}

// GetTransaction returns one ledger row from the account's own feed.
func (s *LedgerServiceImpl) GetTransaction(ctx context.Context, login string, rowID int64) (*domain.Transaction, error) {
	account, err := s.accountRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	txn, err := s.txRepo.GetByRowID(ctx, account.ID, rowID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if txn == nil {
		return nil, domain.ErrOperationNotFound
	}
	return txn, nil
}

// replayTransaction resolves a duplicate request: same parameters replay
// the recorded response, different parameters are rejected.
func (s *LedgerServiceImpl) replayTransaction(recJSON []byte, paramsHash string) (*domain.Transaction, error) {
	var rec domain.IdempotencyRecord
	if err := json.Unmarshal(recJSON, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal idempotency record: %w", err)
	}
	if rec.ParamsHash != paramsHash {
		return nil, domain.ErrIdempotencyConflict
	}
	var txn domain.Transaction
	if err := json.Unmarshal(rec.ResponseJSON, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal recorded response: %w", err)
	}
	return &txn, nil
}

func transferOutcome(err error) string {
	if err == nil {
		return "committed"
	}
	if errors.Is(err, domain.ErrInsufficientFunds) {
		return "insufficient_funds"
	}
	return "error"
}
