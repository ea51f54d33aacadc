package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/internal/models"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
	"github.com/noah-isme/academic-ledger/pkg/response"
)

type documentRenderer interface {
	CertificatePDF(cert *models.Certificate, student *models.Student) ([]byte, error)
	TranscriptCSV(studentID string, records []models.AcademicRecord) ([]byte, error)
}

// DocumentHandler renders certificates and transcripts from ledger state.
type DocumentHandler struct {
	gateway transactionGateway
	export  documentRenderer
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(gateway transactionGateway, export documentRenderer) *DocumentHandler {
	return &DocumentHandler{gateway: gateway, export: export}
}

// Certificate godoc
// @Summary Download a certificate as PDF
// @Tags Documents
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /certificates/{id}/document [get]
func (h *DocumentHandler) Certificate(c *gin.Context) {
	ctx := c.Request.Context()
	caller := callerIdentity(c)

	var cert models.Certificate
	if err := h.evaluate(ctx, caller, models.ActionGetCertificate, c.Param("id"), &cert); err != nil {
		response.Error(c, err)
		return
	}
	var student *models.Student
	var found models.Student
	err := h.evaluate(ctx, caller, models.ActionGetStudent, cert.StudentID, &found)
	switch {
	case err == nil:
		student = &found
	case !errors.Is(err, appErrors.ErrNotFound):
		response.Error(c, err)
		return
	}

	pdf, err := h.export.CertificatePDF(&cert, student)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate"))
		return
	}
	response.Attachment(c, "application/pdf", cert.CertificateID+".pdf", pdf)
}

// Transcript godoc
// @Summary Download a student's transcript as CSV
// @Tags Documents
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *DocumentHandler) Transcript(c *gin.Context) {
	ctx := c.Request.Context()
	caller := callerIdentity(c)
	studentID := c.Param("id")

	var student models.Student
	if err := h.evaluate(ctx, caller, models.ActionGetStudent, studentID, &student); err != nil {
		response.Error(c, err)
		return
	}
	var records []models.AcademicRecord
	if err := h.evaluate(ctx, caller, models.ActionGetStudentRecords, studentID, &records); err != nil {
		response.Error(c, err)
		return
	}

	out, err := h.export.TranscriptCSV(studentID, records)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript"))
		return
	}
	response.Attachment(c, "text/csv", studentID+"-transcript.csv", out)
}

func (h *DocumentHandler) evaluate(ctx context.Context, caller ledger.Identity, name, arg string, dest interface{}) error {
	result, err := h.gateway.Evaluate(ctx, caller, name, []string{arg})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result.Payload, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unexpected "+name+" payload")
	}
	return nil
}
