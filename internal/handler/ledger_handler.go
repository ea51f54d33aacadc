package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
	"github.com/noah-isme/academic-ledger/pkg/response"
)

// TransactionRequest carries positional contract arguments. Nested values
// such as course lists are passed as JSON strings.
type TransactionRequest struct {
	Args []string `json:"args"`
}

// FunctionInfo describes a contract transaction.
type FunctionInfo struct {
	Name     string   `json:"name"`
	Params   []string `json:"params"`
	ReadOnly bool     `json:"readOnly"`
}

// LedgerHandler exposes the contract transaction surface over HTTP.
type LedgerHandler struct {
	gateway transactionGateway
}

// NewLedgerHandler constructs LedgerHandler.
func NewLedgerHandler(gateway transactionGateway) *LedgerHandler {
	return &LedgerHandler{gateway: gateway}
}

// Functions godoc
// @Summary List contract transactions
// @Tags Ledger
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /transactions [get]
func (h *LedgerHandler) Functions(c *gin.Context) {
	fns := h.gateway.Functions()
	out := make([]FunctionInfo, 0, len(fns))
	for _, fn := range fns {
		params := fn.Params
		if params == nil {
			params = []string{}
		}
		out = append(out, FunctionInfo{Name: fn.Name, Params: params, ReadOnly: fn.ReadOnly})
	}
	response.JSON(c, http.StatusOK, out)
}

// Submit godoc
// @Summary Submit a ledger transaction
// @Tags Ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Transaction name"
// @Param payload body TransactionRequest true "Positional arguments"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transactions/{name} [post]
func (h *LedgerHandler) Submit(c *gin.Context) {
	var req TransactionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	if req.Args == nil {
		req.Args = []string{}
	}
	result, err := h.gateway.Submit(c.Request.Context(), callerIdentity(c), c.Param("name"), req.Args)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Payload, map[string]interface{}{
		"txId":     result.TxID,
		"attempts": result.Attempts,
	})
}

// Query godoc
// @Summary Evaluate a read-only ledger transaction
// @Tags Ledger
// @Produce json
// @Param name path string true "Transaction name"
// @Param args query []string false "Positional arguments" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /queries/{name} [get]
func (h *LedgerHandler) Query(c *gin.Context) {
	args := c.QueryArray("args")
	if args == nil {
		args = []string{}
	}
	result, err := h.gateway.Evaluate(c.Request.Context(), callerIdentity(c), c.Param("name"), args)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Payload, map[string]interface{}{"cached": result.Cached})
}
