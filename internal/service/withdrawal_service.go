package service

import (
	"context"
	"fmt"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WithdrawalServiceImpl implements ports.WithdrawalService. The reserve
// funds only move at confirmation; create and select never touch the
// ledger.
type WithdrawalServiceImpl struct {
	withdrawalRepo ports.WithdrawalRepository
	accountRepo    ports.AccountRepository
	ledger         ports.LedgerService
	transactor     ports.DBTransactor
	currency       string
	instantConfirm bool
	log            zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	withdrawalRepo ports.WithdrawalRepository,
	accountRepo ports.AccountRepository,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	currency string,
	instantConfirm bool,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		withdrawalRepo: withdrawalRepo,
		accountRepo:    accountRepo,
		ledger:         ledger,
		transactor:     transactor,
		currency:       currency,
		instantConfirm: instantConfirm,
		log:            log,
	}
}

// Create opens a pending withdrawal for the wallet-holding account.
func (s *WithdrawalServiceImpl) Create(ctx context.Context, login string, amount domain.Amount) (*domain.WithdrawalOperation, error) {
	if amount.Currency != s.currency {
		return nil, domain.ErrCurrencyMismatch
	}
	if amount.IsZero() {
		return nil, apperror.Validation("amount must be positive")
	}
	account, err := s.accountRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}

	op := &domain.WithdrawalOperation{
		UUID:            uuid.New(),
		WalletAccountID: account.ID,
		Amount:          amount,
		Status:          domain.WithdrawalStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.withdrawalRepo.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	s.log.Info().
		Str("withdrawal_id", op.UUID.String()).
		Str("login", login).
		Str("amount", amount.String()).
		Msg("withdrawal created")
	return op, nil
}

// Get returns the operation status. Reading never mutates state.
func (s *WithdrawalServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.WithdrawalOperation, error) {
	op, err := s.withdrawalRepo.GetByUUID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	if op == nil {
		return nil, domain.ErrOperationNotFound
	}
	return op, nil
}

// SetDetails binds the exchange account and reserve public key to a
// pending withdrawal. Repeating the call with the same pair is a no-op;
// a different pair is rejected. Each reserve public key is accepted at
// most once across all withdrawals.
func (s *WithdrawalServiceImpl) SetDetails(ctx context.Context, id uuid.UUID, exchangePayto, reservePub string) (*domain.WithdrawalOperation, error) {
	op, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch op.Status {
	case domain.WithdrawalStatusAborted:
		return nil, domain.ErrAlreadyAborted
	case domain.WithdrawalStatusConfirmed:
		if op.SelectionMatches(exchangePayto, reservePub) {
			return op, nil
		}
		return nil, domain.ErrAlreadySelected
	case domain.WithdrawalStatusSelected:
		if op.SelectionMatches(exchangePayto, reservePub) {
			return op, nil
		}
		return nil, domain.ErrAlreadySelected
	}

	payto, err := domain.ParsePayto(exchangePayto)
	if err != nil {
		return nil, err
	}
	exchange, err := s.accountRepo.GetByIban(ctx, payto.Iban)
	if err != nil {
		return nil, fmt.Errorf("get exchange account: %w", err)
	}
	if exchange == nil {
		return nil, domain.ErrAccountNotFound
	}
	if !exchange.IsExchange {
		return nil, domain.ErrAccountIsNotExchange
	}

	if err := s.withdrawalRepo.SetSelection(ctx, id, exchangePayto, reservePub, domain.WithdrawalStatusSelected); err != nil {
		return nil, err
	}
	op.Status = domain.WithdrawalStatusSelected
	op.SelectedExchangePayto = &exchangePayto
	op.ReservePub = &reservePub

	s.log.Info().
		Str("withdrawal_id", id.String()).
		Str("exchange", exchangePayto).
		Msg("withdrawal details selected")

	if s.instantConfirm {
		return s.Confirm(ctx, id)
	}
	return op, nil
}

// Confirm posts the reserve transfer and finalizes the withdrawal. The
// transfer and the status flip commit atomically; confirming a confirmed
// operation is a no-op.
func (s *WithdrawalServiceImpl) Confirm(ctx context.Context, id uuid.UUID) (*domain.WithdrawalOperation, error) {
	op, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch op.Status {
	case domain.WithdrawalStatusConfirmed:
		return op, nil
	case domain.WithdrawalStatusAborted:
		return nil, domain.ErrAlreadyAborted
	case domain.WithdrawalStatusPending:
		return nil, apperror.New("BANK_WITHDRAWAL_NOT_SELECTED", "Withdrawal has no exchange selection yet", 409)
	}

	payto, err := domain.ParsePayto(*op.SelectedExchangePayto)
	if err != nil {
		return nil, fmt.Errorf("stored exchange payto: %w", err)
	}
	exchange, err := s.accountRepo.GetByIban(ctx, payto.Iban)
	if err != nil {
		return nil, fmt.Errorf("get exchange account: %w", err)
	}
	if exchange == nil {
		return nil, domain.ErrAccountNotFound
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	transferReq := ports.TransferRequest{
		DebtorID:   op.WalletAccountID,
		CreditorID: exchange.ID,
		Subject:    *op.ReservePub,
		Amount:     op.Amount,
	}
	res, err := s.ledger.TransferTx(ctx, dbTx, transferReq)
	if err != nil {
		return nil, err
	}
	if err := s.withdrawalRepo.UpdateStatusTx(ctx, dbTx, id, domain.WithdrawalStatusConfirmed); err != nil {
		return nil, fmt.Errorf("update withdrawal status: %w", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.ledger.PublishTransfer(ctx, transferReq, res)
	op.Status = domain.WithdrawalStatusConfirmed

	s.log.Info().
		Str("withdrawal_id", id.String()).
		Int64("row_id", res.DebitRowID).
		Msg("withdrawal confirmed")
	return op, nil
}

// Abort cancels a not-yet-confirmed withdrawal. Aborting twice is a
// no-op; aborting a confirmed operation is an error.
func (s *WithdrawalServiceImpl) Abort(ctx context.Context, id uuid.UUID) error {
	op, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	switch op.Status {
	case domain.WithdrawalStatusConfirmed:
		return domain.ErrAlreadyConfirmed
	case domain.WithdrawalStatusAborted:
		return nil
	}
	return s.withdrawalRepo.UpdateStatus(ctx, id, domain.WithdrawalStatusAborted)
}
