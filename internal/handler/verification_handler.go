package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/academic-ledger/internal/models"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
	"github.com/noah-isme/academic-ledger/pkg/response"
)

// VerificationHandler serves the public certificate verification flow.
type VerificationHandler struct {
	gateway   transactionGateway
	validator *validator.Validate
	now       func() time.Time
}

// NewVerificationHandler constructs VerificationHandler.
func NewVerificationHandler(gateway transactionGateway, validate *validator.Validate) *VerificationHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &VerificationHandler{gateway: gateway, validator: validate, now: func() time.Time { return time.Now().UTC() }}
}

// Verify godoc
// @Summary Verify a certificate hash
// @Description Submits VerifyCertificate. A match increments the certificate's verification count.
// @Tags Verification
// @Accept json
// @Produce json
// @Param payload body models.VerificationRequest true "Certificate ID and hash"
// @Success 200 {object} response.Envelope
// @Router /verifications [post]
func (h *VerificationHandler) Verify(c *gin.Context) {
	var req models.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "certificateId and certificateHash are required"))
		return
	}

	caller := callerIdentity(c)
	req.RequestID = uuid.NewString()
	req.RequestedAt = h.now().Format(time.RFC3339)
	req.RequestedBy = "anonymous"
	if org, err := caller.OrganizationID(); err == nil {
		req.RequestedBy = org
	}
	req.Status = models.VerificationPending

	result, err := h.gateway.Submit(c.Request.Context(), caller, models.ActionVerifyCertificate, []string{req.CertificateID, req.CertificateHash})
	if err != nil {
		response.Error(c, err)
		return
	}
	var valid bool
	if err := json.Unmarshal(result.Payload, &valid); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unexpected verification result"))
		return
	}
	req.Status = models.VerificationInvalid
	if valid {
		req.Status = models.VerificationVerified
	}
	response.JSON(c, http.StatusOK, req, map[string]interface{}{"txId": result.TxID})
}

// Lookup godoc
// @Summary Resolve a verification code
// @Description Target of the certificate QR code. Returns the public certificate fields.
// @Tags Verification
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /verify/{code} [get]
func (h *VerificationHandler) Lookup(c *gin.Context) {
	result, err := h.gateway.Evaluate(c.Request.Context(), callerIdentity(c), models.ActionGetCertificateByCode, []string{c.Param("code")})
	if err != nil {
		response.Error(c, err)
		return
	}
	var cert models.Certificate
	if err := json.Unmarshal(result.Payload, &cert); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unexpected certificate payload"))
		return
	}
	response.JSON(c, http.StatusOK, cert.Public())
}
