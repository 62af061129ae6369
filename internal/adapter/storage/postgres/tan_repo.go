package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corebank/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TanRepo implements ports.TanRepository.
type TanRepo struct {
	pool Pool
}

// NewTanRepo creates a new TanRepo.
func NewTanRepo(pool Pool) *TanRepo {
	return &TanRepo{pool: pool}
}

const tanColumns = `id, login, op, code, body_json, retry_counter,
	created_at, expires_at, channel, confirmed_at`

// Create inserts a fresh challenge and returns its id.
func (r *TanRepo) Create(ctx context.Context, c *domain.TanChallenge) (int64, error) {
	query := `INSERT INTO tan_challenges
			(login, op, code, body_json, retry_counter, created_at, expires_at, channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var channel *string
	if c.Channel != nil {
		s := string(*c.Channel)
		channel = &s
	}

	err := r.pool.QueryRow(ctx, query,
		c.Login, string(c.Op), c.Code, c.BodyJSON,
		c.RetryCounter, c.CreatedAt, c.ExpiresAt, channel,
	).Scan(&c.ID)
	if err != nil {
		return 0, fmt.Errorf("insert tan challenge: %w", err)
	}
	return c.ID, nil
}

// GetScoped looks up a challenge by (id, login, op); any mismatch reads as
// absent, which blocks cross-user and cross-operation replay. No row lock:
// the wrong-code burn updates this row on the pool while the caller's
// transaction is still open.
func (r *TanRepo) GetScoped(ctx context.Context, id int64, login string, op domain.TanOp) (*domain.TanChallenge, error) {
	query := `SELECT ` + tanColumns + `
		FROM tan_challenges WHERE id = $1 AND login = $2 AND op = $3`
	return r.scanChallenge(r.pool.QueryRow(ctx, query, id, login, string(op)))
}

// DecrementRetries atomically burns one retry and returns the remaining
// count. It runs on the pool on purpose: a wrong-code attempt must stay
// burned even when the surrounding confirmation transaction rolls back.
func (r *TanRepo) DecrementRetries(ctx context.Context, id int64) (int, error) {
	query := `UPDATE tan_challenges
		SET retry_counter = retry_counter - 1
		WHERE id = $1 AND retry_counter > 0
		RETURNING retry_counter`

	var remaining int
	err := r.pool.QueryRow(ctx, query, id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("decrement tan retries: %w", err)
	}
	return remaining, nil
}

// MarkConfirmed consumes the challenge within the caller's transaction.
func (r *TanRepo) MarkConfirmed(ctx context.Context, tx pgx.Tx, id int64, now time.Time) error {
	query := `UPDATE tan_challenges SET confirmed_at = $2
		WHERE id = $1 AND confirmed_at IS NULL`

	tag, err := tx.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("mark tan confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChallengeConsumed
	}
	return nil
}

// Delete removes a challenge together with its aborted operation.
func (r *TanRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tan_challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tan challenge: %w", err)
	}
	return nil
}

func (r *TanRepo) scanChallenge(row pgx.Row) (*domain.TanChallenge, error) {
	c := &domain.TanChallenge{}
	var op string
	var channel *string

	err := row.Scan(
		&c.ID, &c.Login, &op, &c.Code, &c.BodyJSON, &c.RetryCounter,
		&c.CreatedAt, &c.ExpiresAt, &channel, &c.ConfirmedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan tan challenge: %w", err)
	}

	c.Op = domain.TanOp(op)
	if channel != nil {
		ch := domain.TanChannel(*channel)
		c.Channel = &ch
	}
	return c, nil
}
