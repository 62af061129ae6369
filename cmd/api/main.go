package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corebank/config"
	httpHandler "corebank/internal/adapter/http/handler"
	pgStorage "corebank/internal/adapter/storage/postgres"
	redisStorage "corebank/internal/adapter/storage/redis"
	"corebank/internal/adapter/tansender"
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/internal/service"
	"corebank/pkg/logger"

	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("currency", cfg.Bank.Currency).
		Msg("Starting corebank")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool, cfg.Bank.Currency)
	txRepo := pgStorage.NewTransactionRepo(pool, cfg.Bank.Currency)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	withdrawalRepo := pgStorage.NewWithdrawalRepo(pool, cfg.Bank.Currency)
	cashoutRepo := pgStorage.NewCashoutRepo(pool, cfg.Bank.Currency, cfg.Bank.FiatCurrency)
	tanRepo := pgStorage.NewTanRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	eventBus := redisStorage.NewEventBus(rdb)

	// Conversion rate snapshots: cashin converts fiat into the regional
	// currency, cashout the other way around.
	cashinRate, err := cfg.Conversion.Cashin.Rate(cfg.Bank.FiatCurrency, cfg.Bank.Currency)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid cashin conversion config")
	}
	cashoutRate, err := cfg.Conversion.Cashout.Rate(cfg.Bank.Currency, cfg.Bank.FiatCurrency)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid cashout conversion config")
	}

	defaultDebtThreshold, err := domain.ParseAmountAs(cfg.Bank.DefaultDebtThreshold, cfg.Bank.Currency)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid default debt threshold")
	}

	tanSender, defaultChannel := buildTanSender(cfg.Tan, log)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	accountSvc := service.NewAccountService(
		accountRepo,
		hashSvc,
		tokenSvc,
		cfg.Bank.Currency,
		cfg.Bank.IbanCountry,
		defaultDebtThreshold,
		log,
	)
	ledgerSvc := service.NewLedgerService(
		accountRepo,
		txRepo,
		idempotencyRepo,
		idempotencyCache,
		transactor,
		eventBus,
		cfg.Bank.Currency,
		log,
	)
	historySvc := service.NewHistoryService(accountRepo, txRepo, eventBus, log)
	tanSvc := service.NewTanService(
		tanRepo,
		tanSender,
		cfg.Tan.RetryLimit,
		cfg.Tan.Validity,
		defaultChannel,
		log,
	)
	conversionSvc := service.NewConversionService(cashinRate, cashoutRate)
	withdrawalSvc := service.NewWithdrawalService(
		withdrawalRepo,
		accountRepo,
		ledgerSvc,
		transactor,
		cfg.Bank.Currency,
		cfg.Bank.InstantWithdrawalConfirm,
		log,
	)
	cashoutSvc := service.NewCashoutService(
		cashoutRepo,
		accountRepo,
		tanRepo,
		tanSvc,
		conversionSvc,
		ledgerSvc,
		transactor,
		cfg.Bank.AdminLogin,
		log,
	)

	if err := ensureAdminAccount(ctx, accountRepo, hashSvc, cfg.Bank, defaultDebtThreshold, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to provision admin account")
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		LedgerSvc:      ledgerSvc,
		HistorySvc:     historySvc,
		WithdrawalSvc:  withdrawalSvc,
		CashoutSvc:     cashoutSvc,
		ConversionSvc:  conversionSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// buildTanSender picks the code delivery backend. Without a telegram token
// every channel degrades to the log sender, which works for development but
// is useless as a second factor in production.
func buildTanSender(cfg config.TanConfig, log zerolog.Logger) (ports.TanSender, domain.TanChannel) {
	defaultChannel := domain.TanChannel(cfg.Channel)
	switch defaultChannel {
	case domain.TanChannelLog, domain.TanChannelTelegram:
	default:
		log.Fatal().Str("channel", cfg.Channel).Msg("Unknown TAN channel")
	}

	if cfg.TelegramToken == "" {
		if defaultChannel == domain.TanChannelTelegram {
			log.Warn().Msg("TAN channel is telegram but no token configured, codes go to the log")
		}
		return tansender.NewLogSender(log), domain.TanChannelLog
	}

	sender, err := tansender.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChats, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize telegram TAN sender")
	}
	return sender, defaultChannel
}

// ensureAdminAccount provisions the settlement account crediting cashouts.
// It goes through the repository directly because only startup may mint an
// admin account. A missing account without a configured password is only a
// warning so that deployments provisioning accounts out of band still start.
func ensureAdminAccount(ctx context.Context, repo ports.AccountRepository, hashSvc ports.HashService, cfg config.BankConfig, debtThreshold domain.Amount, log zerolog.Logger) error {
	existing, err := repo.GetByLogin(ctx, cfg.AdminLogin)
	if err != nil {
		return fmt.Errorf("lookup admin account: %w", err)
	}
	if existing != nil {
		return nil
	}
	if cfg.AdminPassword == "" {
		log.Warn().Str("login", cfg.AdminLogin).Msg("Admin account missing and no admin password configured, cashouts will fail")
		return nil
	}

	passwordHash, err := hashSvc.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	payto := domain.Payto{Iban: domain.NewIban(cfg.IbanCountry), ReceiverName: "Bank Administration"}
	account := &domain.Account{
		Login:         cfg.AdminLogin,
		Name:          "Bank Administration",
		PasswordHash:  passwordHash,
		PaytoURI:      payto.URI(),
		Balance:       domain.ZeroAmount(cfg.Currency),
		DebtThreshold: debtThreshold,
		IsAdmin:       true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.Create(ctx, account); err != nil && !errors.Is(err, domain.ErrLoginTaken) {
		return fmt.Errorf("create admin account: %w", err)
	}
	log.Info().Str("login", cfg.AdminLogin).Msg("Admin account provisioned")
	return nil
}
