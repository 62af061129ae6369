package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/metrics"

	"github.com/rs/zerolog"
)

// HistoryServiceImpl implements ports.HistoryService.
type HistoryServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	bus         ports.EventBus
	log         zerolog.Logger
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	bus ports.EventBus,
	log zerolog.Logger,
) *HistoryServiceImpl {
	return &HistoryServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		bus:         bus,
		log:         log,
	}
}

// History reads the account's ledger feed. With a long-poll budget and an
// empty immediate result, the call subscribes to the account scope before
// re-querying, so an event committed in between cannot be missed, then
// parks until an event, the timeout or cancellation. Either wakeup gets
// exactly one re-evaluation; partial batches return as-is without waiting
// for more rows.
func (s *HistoryServiceImpl) History(ctx context.Context, login string, delta int64, start *int64, longPoll time.Duration) ([]domain.Transaction, error) {
	if delta == 0 {
		return nil, apperror.Validation("delta must not be zero")
	}
	account, err := s.accountRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}

	var cursor int64
	if start != nil {
		cursor = *start
	} else if delta < 0 {
		cursor = math.MaxInt64
	}

	rows, err := s.txRepo.History(ctx, account.ID, delta, cursor)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	if len(rows) > 0 || longPoll <= 0 {
		return rows, nil
	}

	metrics.LongPollWaiters.Inc()
	defer metrics.LongPollWaiters.Dec()

	events, cancel, err := s.bus.Subscribe(ctx, ports.ScopeAccount(account.ID))
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	defer cancel()

	// Close the subscribe/query race: rows committed while we were
	// subscribing are visible now.
	rows, err = s.txRepo.History(ctx, account.ID, delta, cursor)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	if len(rows) > 0 {
		return rows, nil
	}

	timer := time.NewTimer(longPoll)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	case _, ok := <-events:
		if !ok {
			return nil, fmt.Errorf("event subscription closed")
		}
	}

	rows, err = s.txRepo.History(ctx, account.ID, delta, cursor)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return rows, nil
}
