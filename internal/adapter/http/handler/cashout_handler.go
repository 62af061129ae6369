package handler

import (
	"net/http"
	"time"

	"corebank/internal/adapter/http/dto"
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CashoutHandler handles the fiat cashout lifecycle and conversion quotes.
type CashoutHandler struct {
	cashoutSvc    ports.CashoutService
	conversionSvc ports.ConversionService
}

// NewCashoutHandler creates a new CashoutHandler.
func NewCashoutHandler(cashoutSvc ports.CashoutService, conversionSvc ports.ConversionService) *CashoutHandler {
	return &CashoutHandler{cashoutSvc: cashoutSvc, conversionSvc: conversionSvc}
}

// Create handles POST /api/v1/accounts/:login/cashouts.
func (h *CashoutHandler) Create(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}

	var req dto.CreateCashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amountDebit, err := domain.ParseAmount(req.AmountDebit)
	if err != nil {
		response.Error(c, err)
		return
	}
	amountCredit, err := domain.ParseAmount(req.AmountCredit)
	if err != nil {
		response.Error(c, err)
		return
	}

	op, err := h.cashoutSvc.Create(c.Request.Context(), ports.CashoutRequest{
		Login:          login,
		AmountDebit:    amountDebit,
		AmountCredit:   amountCredit,
		Subject:        req.Subject,
		CashoutAddress: req.CashoutAddress,
		RequestUID:     req.RequestUID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CashoutCreatedResponse{
		CashoutID:   op.UUID.String(),
		ChallengeID: op.ChallengeID,
		Status:      string(op.Status),
	})
}

// Get handles GET /api/v1/accounts/:login/cashouts/:id.
func (h *CashoutHandler) Get(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}
	id, ok := cashoutID(c)
	if !ok {
		return
	}
	op, err := h.cashoutSvc.Get(c.Request.Context(), login, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, op)
}

// Confirm handles POST /api/v1/accounts/:login/cashouts/:id/confirm.
func (h *CashoutHandler) Confirm(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}
	id, ok := cashoutID(c)
	if !ok {
		return
	}
	var req dto.ConfirmCashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	op, err := h.cashoutSvc.Confirm(c.Request.Context(), login, id, req.Code, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, op)
}

// Abort handles POST /api/v1/accounts/:login/cashouts/:id/abort.
func (h *CashoutHandler) Abort(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}
	id, ok := cashoutID(c)
	if !ok {
		return
	}
	if err := h.cashoutSvc.Abort(c.Request.Context(), login, id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CashoutQuote handles GET /api/v1/conversion/cashout-quote.
func (h *CashoutHandler) CashoutQuote(c *gin.Context) {
	h.quote(c, h.conversionSvc.CashoutQuote)
}

// CashinQuote handles GET /api/v1/conversion/cashin-quote.
func (h *CashoutHandler) CashinQuote(c *gin.Context) {
	h.quote(c, h.conversionSvc.CashinQuote)
}

func (h *CashoutHandler) quote(c *gin.Context, f func(domain.Amount) (domain.Amount, error)) {
	var req dto.QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	debit, err := domain.ParseAmount(req.AmountDebit)
	if err != nil {
		response.Error(c, err)
		return
	}
	credit, err := f(debit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.QuoteResponse{
		AmountDebit:  debit.String(),
		AmountCredit: credit.String(),
	})
}

func cashoutID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a uuid"))
		return uuid.UUID{}, false
	}
	return id, true
}
