package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/rs/zerolog"
)

var loginPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	accountRepo          ports.AccountRepository
	hashSvc              ports.HashService
	tokenSvc             ports.TokenService
	currency             string
	ibanCountry          string
	defaultDebtThreshold domain.Amount
	log                  zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	accountRepo ports.AccountRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	currency string,
	ibanCountry string,
	defaultDebtThreshold domain.Amount,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo:          accountRepo,
		hashSvc:              hashSvc,
		tokenSvc:             tokenSvc,
		currency:             currency,
		ibanCountry:          ibanCountry,
		defaultDebtThreshold: defaultDebtThreshold,
		log:                  log,
	}
}

// Register creates a new account with a fresh internal IBAN and a zero
// balance. Logins are unique; a clash surfaces as domain.ErrLoginTaken.
func (s *AccountServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.Account, error) {
	if !loginPattern.MatchString(req.Login) {
		return nil, apperror.Validation("login must match [a-zA-Z0-9_-]{1,64}")
	}
	if len(req.Password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}
	if req.Name == "" {
		return nil, apperror.Validation("name must not be empty")
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	payto := domain.Payto{Iban: domain.NewIban(s.ibanCountry), ReceiverName: req.Name}
	var tanChannel *string
	if req.TanChannel != nil {
		ch := string(*req.TanChannel)
		tanChannel = &ch
	}
	account := &domain.Account{
		Login:         req.Login,
		Name:          req.Name,
		PasswordHash:  passwordHash,
		PaytoURI:      payto.URI(),
		Balance:       domain.ZeroAmount(s.currency),
		HasDebt:       false,
		DebtThreshold: s.defaultDebtThreshold,
		IsExchange:    req.IsExchange,
		IsPublic:      req.IsPublic,
		TanChannel:    tanChannel,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("login", account.Login).
		Bool("is_exchange", account.IsExchange).
		Msg("account registered")
	return account, nil
}

// Login verifies credentials and returns a bearer token. Unknown logins
// and wrong passwords are indistinguishable to the caller.
func (s *AccountServiceImpl) Login(ctx context.Context, login, password string) (string, time.Time, error) {
	account, err := s.accountRepo.GetByLogin(ctx, login)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	ok, err := s.hashSvc.Verify(password, account.PasswordHash)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenSvc.Generate(account.Login, account.IsAdmin)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}
	return token, expiresAt, nil
}

// Get returns one account by login.
func (s *AccountServiceImpl) Get(ctx context.Context, login string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// ListPublic returns the accounts that opted into the public directory.
func (s *AccountServiceImpl) ListPublic(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public accounts: %w", err)
	}
	return accounts, nil
}

// SetDebtThreshold adjusts how far an account balance may go negative.
func (s *AccountServiceImpl) SetDebtThreshold(ctx context.Context, login string, threshold domain.Amount) error {
	if threshold.Currency != s.currency {
		return domain.ErrCurrencyMismatch
	}
	return s.accountRepo.SetDebtThreshold(ctx, login, threshold)
}

// SetMinCashout overrides the per-account cashout floor; nil restores the
// instance default.
func (s *AccountServiceImpl) SetMinCashout(ctx context.Context, login string, min *domain.Amount) error {
	if min != nil && min.Currency != s.currency {
		return domain.ErrCurrencyMismatch
	}
	return s.accountRepo.SetMinCashout(ctx, login, min)
}
