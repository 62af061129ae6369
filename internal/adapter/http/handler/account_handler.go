package handler

import (
	"net/http"

	"corebank/internal/adapter/http/dto"
	"corebank/internal/adapter/http/middleware"
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles registration, login and account administration.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Register handles POST /api/v1/auth/register.
func (h *AccountHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	var channel *domain.TanChannel
	if req.TanChannel != nil {
		ch := domain.TanChannel(*req.TanChannel)
		if ch != domain.TanChannelLog && ch != domain.TanChannelTelegram {
			response.Error(c, apperror.Validation("unknown tan channel"))
			return
		}
		channel = &ch
	}

	account, err := h.accountSvc.Register(c.Request.Context(), ports.RegisterRequest{
		Login:      req.Login,
		Password:   req.Password,
		Name:       req.Name,
		IsPublic:   req.IsPublic,
		IsExchange: req.IsExchange,
		TanChannel: channel,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

// Login handles POST /api/v1/auth/login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	token, expiry, err := h.accountSvc.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.LoginResponse{Token: token, Expiry: expiry.Unix()})
}

// Get handles GET /api/v1/accounts/:login.
func (h *AccountHandler) Get(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}

	account, err := h.accountSvc.Get(c.Request.Context(), login)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account)
}

// ListPublic handles GET /api/v1/public-accounts.
func (h *AccountHandler) ListPublic(c *gin.Context) {
	accounts, err := h.accountSvc.ListPublic(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, accounts)
}

// SetDebtThreshold handles PATCH /api/v1/accounts/:login/debt-threshold.
// Admin only: customers cannot raise their own debt limit.
func (h *AccountHandler) SetDebtThreshold(c *gin.Context) {
	auth, ok := middleware.Auth(c)
	if !ok || !auth.IsAdmin {
		response.Error(c, domain.ErrNotAuthorized)
		return
	}

	var req dto.DebtThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	threshold, err := domain.ParseAmount(req.DebtThreshold)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.accountSvc.SetDebtThreshold(c.Request.Context(), c.Param("login"), threshold); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetMinCashout handles PATCH /api/v1/accounts/:login/min-cashout.
func (h *AccountHandler) SetMinCashout(c *gin.Context) {
	auth, ok := middleware.Auth(c)
	if !ok || !auth.IsAdmin {
		response.Error(c, domain.ErrNotAuthorized)
		return
	}

	var req dto.MinCashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	var min *domain.Amount
	if req.MinCashout != nil {
		parsed, err := domain.ParseAmount(*req.MinCashout)
		if err != nil {
			response.Error(c, err)
			return
		}
		min = &parsed
	}

	if err := h.accountSvc.SetMinCashout(c.Request.Context(), c.Param("login"), min); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// authorizedLogin resolves the :login path parameter and enforces that the
// caller either owns the account or is the administrator.
func authorizedLogin(c *gin.Context) (domain.AuthContext, string, bool) {
	auth, ok := middleware.Auth(c)
	if !ok {
		response.Error(c, domain.ErrNotAuthorized)
		return domain.AuthContext{}, "", false
	}
	login := c.Param("login")
	if !auth.MayAccess(login) {
		response.Error(c, domain.ErrNotAuthorized)
		return domain.AuthContext{}, "", false
	}
	return auth, login, true
}

// HealthCheck handles GET /health, verifying every registered dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
