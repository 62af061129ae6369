package handler

import (
	"corebank/internal/adapter/http/middleware"
	"corebank/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	LedgerSvc      ports.LedgerService
	HistorySvc     ports.HistoryService
	WithdrawalSvc  ports.WithdrawalService
	CashoutSvc     ports.CashoutService
	ConversionSvc  ports.ConversionService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Operational surface
	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	accountHandler := NewAccountHandler(deps.AccountSvc)
	txHandler := NewTransactionHandler(deps.LedgerSvc, deps.HistorySvc)
	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc)
	cashoutHandler := NewCashoutHandler(deps.CashoutSvc, deps.ConversionSvc)

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", accountHandler.Register)
		auth.POST("/login", accountHandler.Login)
	}
	v1.GET("/public-accounts", accountHandler.ListPublic)

	conversion := v1.Group("/conversion")
	{
		conversion.GET("/cashin-quote", cashoutHandler.CashinQuote)
		conversion.GET("/cashout-quote", cashoutHandler.CashoutQuote)
	}

	// The wallet side drives a withdrawal by its uuid; it has no bearer
	// token, the uuid is the capability.
	withdrawals := v1.Group("/withdrawals")
	{
		withdrawals.GET("/:id", withdrawalHandler.Get)
		withdrawals.POST("/:id/select", withdrawalHandler.Select)
		withdrawals.POST("/:id/confirm", withdrawalHandler.Confirm)
		withdrawals.POST("/:id/abort", withdrawalHandler.Abort)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	accounts := v1.Group("/accounts/:login", jwtAuth)
	{
		accounts.GET("", accountHandler.Get)
		accounts.PATCH("/debt-threshold", accountHandler.SetDebtThreshold)
		accounts.PATCH("/min-cashout", accountHandler.SetMinCashout)

		accounts.POST("/transactions", txHandler.Create)
		accounts.GET("/transactions", txHandler.History)
		accounts.GET("/transactions/:rowId", txHandler.Get)

		accounts.POST("/withdrawals", withdrawalHandler.Create)

		accounts.POST("/cashouts", cashoutHandler.Create)
		accounts.GET("/cashouts/:id", cashoutHandler.Get)
		accounts.POST("/cashouts/:id/confirm", cashoutHandler.Confirm)
		accounts.POST("/cashouts/:id/abort", cashoutHandler.Abort)
	}

	return r
}
