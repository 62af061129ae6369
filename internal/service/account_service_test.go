package service

import (
	"context"
	"testing"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountWorld(t *testing.T) (*fakeAccountRepo, *AccountServiceImpl) {
	t.Helper()
	repo := newFakeAccountRepo()
	svc := NewAccountService(
		repo,
		NewArgon2HashService(),
		NewJWTTokenService("test-secret-test-secret-test1234", time.Hour, "corebank"),
		"KUDOS", "DE", amt(t, "KUDOS:0"),
		zerolog.Nop(),
	)
	return repo, svc
}

func TestRegister_CreatesAccountWithFreshIban(t *testing.T) {
	_, svc := newAccountWorld(t)

	account, err := svc.Register(context.Background(), ports.RegisterRequest{
		Login:    "alice",
		Password: "hunter2hunter2",
		Name:     "Alice Example",
	})
	require.NoError(t, err)

	assert.Equal(t, "KUDOS:0", account.Balance.String())
	assert.False(t, account.HasDebt)

	payto, err := domain.ParsePayto(account.PaytoURI)
	require.NoError(t, err)
	assert.Equal(t, "DE", payto.Iban[:2])
	assert.Equal(t, "Alice Example", payto.ReceiverName)
}

func TestRegister_Validation(t *testing.T) {
	_, svc := newAccountWorld(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Login: "bad login!", Password: "longenough", Name: "x"})
	assert.Error(t, err)

	_, err = svc.Register(ctx, ports.RegisterRequest{Login: "ok", Password: "short", Name: "x"})
	assert.Error(t, err)

	_, err = svc.Register(ctx, ports.RegisterRequest{Login: "ok", Password: "longenough", Name: ""})
	assert.Error(t, err)
}

func TestRegister_LoginTaken(t *testing.T) {
	_, svc := newAccountWorld(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Login: "alice", Password: "hunter2hunter2", Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, ports.RegisterRequest{Login: "alice", Password: "otherpassword", Name: "Mallory"})
	assert.ErrorIs(t, err, domain.ErrLoginTaken)
}

func TestLogin_TokenRoundTrip(t *testing.T) {
	_, svc := newAccountWorld(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Login: "alice", Password: "hunter2hunter2", Name: "Alice"})
	require.NoError(t, err)

	token, expiresAt, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	tokenSvc := NewJWTTokenService("test-secret-test-secret-test1234", time.Hour, "corebank")
	claims, err := tokenSvc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Login)
	assert.False(t, claims.IsAdmin)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	_, svc := newAccountWorld(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Login: "alice", Password: "hunter2hunter2", Name: "Alice"})
	require.NoError(t, err)

	_, _, errWrongPassword := svc.Login(ctx, "alice", "wrong-password")
	_, _, errUnknownLogin := svc.Login(ctx, "nobody", "whatever-pass")
	assert.ErrorIs(t, errWrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownLogin, domain.ErrInvalidCredentials)
}

func TestSetDebtThreshold_CurrencyChecked(t *testing.T) {
	repo, svc := newAccountWorld(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Login: "alice", Password: "hunter2hunter2", Name: "Alice"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetDebtThreshold(ctx, "alice", amt(t, "EUR:100")), domain.ErrCurrencyMismatch)

	require.NoError(t, svc.SetDebtThreshold(ctx, "alice", amt(t, "KUDOS:100")))
	stored, err := repo.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "KUDOS:100", stored.DebtThreshold.String())
}

func TestListPublic(t *testing.T) {
	_, svc := newAccountWorld(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Login: "alice", Password: "hunter2hunter2", Name: "Alice", IsPublic: true})
	require.NoError(t, err)
	_, err = svc.Register(ctx, ports.RegisterRequest{Login: "bob", Password: "hunter2hunter2", Name: "Bob"})
	require.NoError(t, err)

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "alice", public[0].Login)
}
