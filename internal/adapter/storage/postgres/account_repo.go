package postgres

import (
	"context"
	"errors"
	"fmt"

	"corebank/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// AccountRepo implements ports.AccountRepository. Amounts are stored as
// (value, frac) column pairs; the instance currency is attached on read.
type AccountRepo struct {
	pool     Pool
	currency string
}

// NewAccountRepo creates a new AccountRepo for the instance currency.
func NewAccountRepo(pool Pool, currency string) *AccountRepo {
	return &AccountRepo{pool: pool, currency: currency}
}

const accountColumns = `id, login, name, password_hash, payto_uri,
	balance_value, balance_frac, has_debt,
	debt_threshold_value, debt_threshold_frac,
	is_exchange, is_public, is_admin,
	min_cashout_value, min_cashout_frac, tan_channel, created_at`

// Create inserts a new account. Returns domain.ErrLoginTaken when the login
// is already registered.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (login, name, password_hash, payto_uri, iban,
			balance_value, balance_frac, has_debt,
			debt_threshold_value, debt_threshold_frac,
			is_exchange, is_public, is_admin,
			min_cashout_value, min_cashout_frac, tan_channel, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`

	payto, err := domain.ParsePayto(a.PaytoURI)
	if err != nil {
		return err
	}

	var minValue *int64
	var minFrac *int32
	if a.MinCashout != nil {
		v := int64(a.MinCashout.Value)
		f := int32(a.MinCashout.Frac)
		minValue, minFrac = &v, &f
	}

	err = r.pool.QueryRow(ctx, query,
		a.Login, a.Name, a.PasswordHash, a.PaytoURI, payto.Iban,
		int64(a.Balance.Value), int32(a.Balance.Frac), a.HasDebt,
		int64(a.DebtThreshold.Value), int32(a.DebtThreshold.Frac),
		a.IsExchange, a.IsPublic, a.IsAdmin,
		minValue, minFrac, a.TanChannel, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrLoginTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByLogin fetches an account by login. Returns nil, nil when absent.
func (r *AccountRepo) GetByLogin(ctx context.Context, login string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE login = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, login))
}

// GetByIban fetches an account by the IBAN inside its payto URI.
func (r *AccountRepo) GetByIban(ctx context.Context, iban string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, iban))
}

// ListPublic returns all accounts flagged public.
func (r *AccountRepo) ListPublic(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE is_public ORDER BY login`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list public accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := r.scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetByIDForUpdate fetches an account with a pessimistic row lock.
// MUST be called within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scanAccount(tx.QueryRow(ctx, query, id))
}

// UpdateBalance rewrites an account's balance within a transaction.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance domain.Amount, hasDebt bool) error {
	query := `UPDATE accounts SET balance_value = $1, balance_frac = $2, has_debt = $3 WHERE id = $4`

	tag, err := tx.Exec(ctx, query, int64(balance.Value), int32(balance.Frac), hasDebt, id)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update balance: account %d vanished", id)
	}
	return nil
}

// SetDebtThreshold updates the maximum allowed debt magnitude.
func (r *AccountRepo) SetDebtThreshold(ctx context.Context, login string, threshold domain.Amount) error {
	query := `UPDATE accounts SET debt_threshold_value = $1, debt_threshold_frac = $2 WHERE login = $3`

	tag, err := r.pool.Exec(ctx, query, int64(threshold.Value), int32(threshold.Frac), login)
	if err != nil {
		return fmt.Errorf("set debt threshold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// SetMinCashout updates or clears the per-account cashout minimum.
func (r *AccountRepo) SetMinCashout(ctx context.Context, login string, min *domain.Amount) error {
	query := `UPDATE accounts SET min_cashout_value = $1, min_cashout_frac = $2 WHERE login = $3`

	var minValue *int64
	var minFrac *int32
	if min != nil {
		v := int64(min.Value)
		f := int32(min.Frac)
		minValue, minFrac = &v, &f
	}

	tag, err := r.pool.Exec(ctx, query, minValue, minFrac, login)
	if err != nil {
		return fmt.Errorf("set min cashout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepo) scanAccount(row pgx.Row) (*domain.Account, error) {
	a, err := r.scanAccountRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *AccountRepo) scanAccountRow(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	var balValue, thrValue int64
	var balFrac, thrFrac int32
	var minValue *int64
	var minFrac *int32

	err := row.Scan(
		&a.ID, &a.Login, &a.Name, &a.PasswordHash, &a.PaytoURI,
		&balValue, &balFrac, &a.HasDebt,
		&thrValue, &thrFrac,
		&a.IsExchange, &a.IsPublic, &a.IsAdmin,
		&minValue, &minFrac, &a.TanChannel, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	a.Balance = domain.Amount{Currency: r.currency, Value: uint64(balValue), Frac: uint32(balFrac)}
	a.DebtThreshold = domain.Amount{Currency: r.currency, Value: uint64(thrValue), Frac: uint32(thrFrac)}
	if minValue != nil && minFrac != nil {
		m := domain.Amount{Currency: r.currency, Value: uint64(*minValue), Frac: uint32(*minFrac)}
		a.MinCashout = &m
	}
	return a, nil
}
