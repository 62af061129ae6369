package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// TanServiceImpl implements ports.TanService.
type TanServiceImpl struct {
	tanRepo        ports.TanRepository
	sender         ports.TanSender
	retryLimit     int
	validity       time.Duration
	defaultChannel domain.TanChannel
	log            zerolog.Logger
}

// NewTanService creates a new TanServiceImpl.
func NewTanService(
	tanRepo ports.TanRepository,
	sender ports.TanSender,
	retryLimit int,
	validity time.Duration,
	defaultChannel domain.TanChannel,
	log zerolog.Logger,
) *TanServiceImpl {
	return &TanServiceImpl{
		tanRepo:        tanRepo,
		sender:         sender,
		retryLimit:     retryLimit,
		validity:       validity,
		defaultChannel: defaultChannel,
		log:            log,
	}
}

// Issue creates a fresh challenge for the operation body and delivers its
// code out of band. Delivery failures are logged, never fatal: the code is
// persisted and the user can ask for the operation status.
func (s *TanServiceImpl) Issue(ctx context.Context, login string, op domain.TanOp, bodyJSON []byte, channel *domain.TanChannel) (*domain.TanChallenge, error) {
	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	resolved := s.defaultChannel
	if channel != nil {
		resolved = *channel
	}
	now := time.Now().UTC()
	challenge := &domain.TanChallenge{
		Login:        login,
		Op:           op,
		Code:         code,
		BodyJSON:     bodyJSON,
		RetryCounter: s.retryLimit,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.validity),
		Channel:      &resolved,
	}
	id, err := s.tanRepo.Create(ctx, challenge)
	if err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	challenge.ID = id

	if err := s.sender.Send(ctx, login, resolved, code); err != nil {
		s.log.Warn().Err(err).
			Str("login", login).
			Str("channel", string(resolved)).
			Int64("challenge_id", id).
			Msg("failed to deliver TAN code")
	}

	s.log.Info().
		Str("login", login).
		Str("op", string(op)).
		Int64("challenge_id", id).
		Msg("TAN challenge issued")
	return challenge, nil
}

// Confirm validates the code against the challenge scoped to (id, login,
// op). The read takes no row lock: consumption is a conditional UPDATE
// inside the caller's transaction, so a failed enclosing operation rolls it
// back and a concurrent confirm loses on the confirmed_at guard. Wrong-code
// attempts burn a retry on the pool, outside the transaction; a locked read
// here would leave that pool-side UPDATE waiting on our own transaction.
func (s *TanServiceImpl) Confirm(ctx context.Context, tx pgx.Tx, id int64, login string, op domain.TanOp, code string, now time.Time) ([]byte, error) {
	challenge, err := s.tanRepo.GetScoped(ctx, id, login, op)
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	if challenge == nil {
		return nil, domain.ErrChallengeNotFound
	}
	if challenge.Consumed() {
		metrics.TanConfirmationsTotal.WithLabelValues("consumed").Inc()
		return nil, domain.ErrChallengeConsumed
	}
	if challenge.Expired(now) {
		metrics.TanConfirmationsTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrChallengeExpired
	}
	if challenge.Exhausted() {
		metrics.TanConfirmationsTotal.WithLabelValues("exhausted").Inc()
		return nil, domain.ErrRetriesExhausted
	}

	if code != challenge.Code {
		remaining, err := s.tanRepo.DecrementRetries(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("decrement retries: %w", err)
		}
		if remaining <= 0 {
			metrics.TanConfirmationsTotal.WithLabelValues("exhausted").Inc()
			return nil, domain.ErrRetriesExhausted
		}
		metrics.TanConfirmationsTotal.WithLabelValues("wrong_code").Inc()
		return nil, domain.ErrWrongCode
	}

	if err := s.tanRepo.MarkConfirmed(ctx, tx, id, now); err != nil {
		if errors.Is(err, domain.ErrChallengeConsumed) {
			metrics.TanConfirmationsTotal.WithLabelValues("consumed").Inc()
			return nil, domain.ErrChallengeConsumed
		}
		return nil, fmt.Errorf("mark confirmed: %w", err)
	}
	metrics.TanConfirmationsTotal.WithLabelValues("confirmed").Inc()
	return challenge.BodyJSON, nil
}

var codeSpace = big.NewInt(100_000_000)

// generateCode draws an 8-digit zero-padded code from crypto/rand.
func generateCode() (string, error) {
	n, err := crand.Int(crand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}
