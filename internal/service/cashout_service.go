package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CashoutServiceImpl implements ports.CashoutService. Every cashout debits
// the customer and credits the settlement account in regional currency;
// the fiat leg happens outside the ledger.
type CashoutServiceImpl struct {
	cashoutRepo     ports.CashoutRepository
	accountRepo     ports.AccountRepository
	tanRepo         ports.TanRepository
	tanSvc          ports.TanService
	conversion      ports.ConversionService
	ledger          ports.LedgerService
	transactor      ports.DBTransactor
	settlementLogin string
	log             zerolog.Logger
}

// NewCashoutService creates a new CashoutServiceImpl.
func NewCashoutService(
	cashoutRepo ports.CashoutRepository,
	accountRepo ports.AccountRepository,
	tanRepo ports.TanRepository,
	tanSvc ports.TanService,
	conversion ports.ConversionService,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	settlementLogin string,
	log zerolog.Logger,
) *CashoutServiceImpl {
	return &CashoutServiceImpl{
		cashoutRepo:     cashoutRepo,
		accountRepo:     accountRepo,
		tanRepo:         tanRepo,
		tanSvc:          tanSvc,
		conversion:      conversion,
		ledger:          ledger,
		transactor:      transactor,
		settlementLogin: settlementLogin,
		log:             log,
	}
}

// cashoutNamespace derives deterministic operation ids from request uids,
// so a retried create lands on the same row instead of a second cashout.
var cashoutNamespace = uuid.MustParse("7f9c24e5-2b8a-4f10-9db0-6a3c5e1b7d42")

// Create validates the quote at current rates, freezes the conversion
// snapshot into the operation and issues its TAN challenge.
func (s *CashoutServiceImpl) Create(ctx context.Context, req ports.CashoutRequest) (*domain.CashoutOperation, error) {
	account, err := s.accountRepo.GetByLogin(ctx, req.Login)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	if account.MinCashout != nil && req.AmountDebit.Cmp(*account.MinCashout) < 0 {
		return nil, domain.ErrBelowMinimum
	}

	quote, err := s.conversion.CashoutQuote(req.AmountDebit)
	if err != nil {
		return nil, err
	}
	if quote.Currency != req.AmountCredit.Currency || quote.Cmp(req.AmountCredit) != 0 {
		return nil, domain.ErrConversionMismatch
	}

	opID := uuid.New()
	if req.RequestUID != nil {
		opID = uuid.NewSHA1(cashoutNamespace, []byte(req.Login+":"+*req.RequestUID))
		prior, err := s.cashoutRepo.GetByUUID(ctx, opID)
		if err != nil {
			return nil, fmt.Errorf("idempotency check: %w", err)
		}
		if prior != nil {
			if prior.AmountDebit.Cmp(req.AmountDebit) != 0 ||
				prior.AmountCredit.Cmp(req.AmountCredit) != 0 ||
				prior.Subject != req.Subject ||
				prior.CashoutAddress != req.CashoutAddress {
				return nil, domain.ErrIdempotencyConflict
			}
			return prior, nil
		}
	}

	rate := s.conversion.CashoutRate()
	op := &domain.CashoutOperation{
		UUID:           opID,
		AccountID:      account.ID,
		AmountDebit:    req.AmountDebit,
		AmountCredit:   req.AmountCredit,
		Subject:        req.Subject,
		CashoutAddress: req.CashoutAddress,
		RatioApplied:   rate.Ratio,
		FeeApplied:     rate.Fee,
		RoundingUsed:   rate.Rounding,
		Status:         domain.CashoutStatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	bodyJSON, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("marshal challenge body: %w", err)
	}
	var channel *domain.TanChannel
	if account.TanChannel != nil {
		ch := domain.TanChannel(*account.TanChannel)
		channel = &ch
	}
	challenge, err := s.tanSvc.Issue(ctx, req.Login, domain.TanOpCashout, bodyJSON, channel)
	if err != nil {
		return nil, fmt.Errorf("issue challenge: %w", err)
	}
	op.ChallengeID = challenge.ID

	if err := s.cashoutRepo.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("create cashout: %w", err)
	}

	s.log.Info().
		Str("cashout_id", op.UUID.String()).
		Str("login", req.Login).
		Str("debit", req.AmountDebit.String()).
		Str("credit", req.AmountCredit.String()).
		Int64("challenge_id", challenge.ID).
		Msg("cashout created")
	return op, nil
}

// Get returns one cashout operation owned by the login.
func (s *CashoutServiceImpl) Get(ctx context.Context, login string, id uuid.UUID) (*domain.CashoutOperation, error) {
	account, err := s.accountRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	op, err := s.cashoutRepo.GetByUUID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get cashout: %w", err)
	}
	if op == nil || op.AccountID != account.ID {
		return nil, domain.ErrOperationNotFound
	}
	return op, nil
}

// Confirm validates the TAN code, posts the regional-side debit and flips
// the operation to confirmed, all in one commit. A ledger rejection rolls
// the challenge consumption back and leaves the operation pending, so the
// customer may retry after funding the account or abort explicitly.
func (s *CashoutServiceImpl) Confirm(ctx context.Context, login string, id uuid.UUID, code string, now time.Time) (*domain.CashoutOperation, error) {
	op, err := s.Get(ctx, login, id)
	if err != nil {
		return nil, err
	}
	if op.Status == domain.CashoutStatusAborted {
		return nil, domain.ErrAlreadyAborted
	}

	settlement, err := s.accountRepo.GetByLogin(ctx, s.settlementLogin)
	if err != nil {
		return nil, fmt.Errorf("get settlement account: %w", err)
	}
	if settlement == nil {
		return nil, fmt.Errorf("settlement account %q missing: %w", s.settlementLogin, domain.ErrAccountNotFound)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// A consumed challenge rejects the second confirmation here, which is
	// what makes the confirmed state effectively idempotent-or-error.
	if _, err := s.tanSvc.Confirm(ctx, dbTx, op.ChallengeID, login, domain.TanOpCashout, code, now); err != nil {
		return nil, err
	}

	transferReq := ports.TransferRequest{
		DebtorID:   op.AccountID,
		CreditorID: settlement.ID,
		Subject:    op.Subject,
		Amount:     op.AmountDebit,
		Timestamp:  now,
	}
	res, err := s.ledger.TransferTx(ctx, dbTx, transferReq)
	if err != nil {
		return nil, err
	}
	if err := s.cashoutRepo.Confirm(ctx, dbTx, id, res.DebitRowID); err != nil {
		return nil, fmt.Errorf("confirm cashout: %w", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.ledger.PublishTransfer(ctx, transferReq, res)

	op.Status = domain.CashoutStatusConfirmed
	op.LocalTransactionID = &res.DebitRowID

	s.log.Info().
		Str("cashout_id", id.String()).
		Int64("row_id", res.DebitRowID).
		Msg("cashout confirmed")
	return op, nil
}

// Abort removes a pending cashout together with its challenge.
func (s *CashoutServiceImpl) Abort(ctx context.Context, login string, id uuid.UUID) error {
	op, err := s.Get(ctx, login, id)
	if err != nil {
		return err
	}
	if op.Status == domain.CashoutStatusConfirmed {
		return domain.ErrAlreadyConfirmed
	}

	if err := s.cashoutRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete cashout: %w", err)
	}
	if err := s.tanRepo.Delete(ctx, op.ChallengeID); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}

	s.log.Info().Str("cashout_id", id.String()).Msg("cashout aborted")
	return nil
}
