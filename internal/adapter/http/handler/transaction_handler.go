package handler

import (
	"strconv"
	"time"

	"corebank/internal/adapter/http/dto"
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxLongPoll caps client-requested poll windows so a misbehaving client
// cannot park a handler for minutes.
const maxLongPoll = 30 * time.Second

// TransactionHandler handles transfer creation and the history feed.
type TransactionHandler struct {
	ledgerSvc  ports.LedgerService
	historySvc ports.HistoryService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService, historySvc ports.HistoryService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc, historySvc: historySvc}
}

// Create handles POST /api/v1/accounts/:login/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	txn, err := h.ledgerSvc.CreateTransaction(c.Request.Context(), ports.CreateTransactionRequest{
		DebtorLogin:   login,
		CreditorPayto: req.CreditorPayto,
		Subject:       req.Subject,
		Amount:        amount,
		RequestUID:    req.RequestUID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, txn)
}

// Get handles GET /api/v1/accounts/:login/transactions/:rowId.
func (h *TransactionHandler) Get(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}
	rowID, err := strconv.ParseInt(c.Param("rowId"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("rowId must be an integer"))
		return
	}

	txn, err := h.ledgerSvc.GetTransaction(c.Request.Context(), login, rowID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txn)
}

// History handles GET /api/v1/accounts/:login/transactions.
// Query parameters: delta (signed, required), start (cursor, optional),
// long_poll_ms (0 = no wait). An empty result returns 204 so callers can
// tell "nothing yet" apart from a partial batch.
func (h *TransactionHandler) History(c *gin.Context) {
	_, login, ok := authorizedLogin(c)
	if !ok {
		return
	}

	delta, err := strconv.ParseInt(c.Query("delta"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("delta must be a signed integer"))
		return
	}

	var start *int64
	if s := c.Query("start"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("start must be an integer"))
			return
		}
		start = &v
	}

	var longPoll time.Duration
	if s := c.Query("long_poll_ms"); s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil || ms < 0 {
			response.Error(c, apperror.Validation("long_poll_ms must be a non-negative integer"))
			return
		}
		longPoll = time.Duration(ms) * time.Millisecond
		if longPoll > maxLongPoll {
			longPoll = maxLongPoll
		}
	}

	rows, err := h.historySvc.History(c.Request.Context(), login, delta, start, longPoll)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(rows) == 0 {
		response.NoContent(c)
		return
	}
	response.OK(c, gin.H{"transactions": rows})
}
