package handler

import (
	"net/http"

	"corebank/internal/adapter/http/dto"
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalHandler handles the Taler withdrawal lifecycle. The select,
// confirm and abort endpoints are keyed by the operation uuid alone since
// the wallet side holds no bearer token.
type WithdrawalHandler struct {
	withdrawalSvc ports.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalSvc ports.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc}
}

// Create handles POST /api/v1/accounts/:login/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}

	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	op, err := h.withdrawalSvc.Create(c.Request.Context(), login, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, op)
}

// Get handles GET /api/v1/withdrawals/:id.
func (h *WithdrawalHandler) Get(c *gin.Context) {
	id, ok := withdrawalID(c)
	if !ok {
		return
	}
	op, err := h.withdrawalSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, op)
}

// Select handles POST /api/v1/withdrawals/:id/select.
func (h *WithdrawalHandler) Select(c *gin.Context) {
	id, ok := withdrawalID(c)
	if !ok {
		return
	}
	var req dto.SelectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	op, err := h.withdrawalSvc.SetDetails(c.Request.Context(), id, req.ExchangePayto, req.ReservePub)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, op)
}

// Confirm handles POST /api/v1/withdrawals/:id/confirm.
func (h *WithdrawalHandler) Confirm(c *gin.Context) {
	id, ok := withdrawalID(c)
	if !ok {
		return
	}
	op, err := h.withdrawalSvc.Confirm(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, op)
}

// Abort handles POST /api/v1/withdrawals/:id/abort.
func (h *WithdrawalHandler) Abort(c *gin.Context) {
	id, ok := withdrawalID(c)
	if !ok {
		return
	}
	if err := h.withdrawalSvc.Abort(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func withdrawalID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a uuid"))
		return uuid.UUID{}, false
	}
	return id, true
}
