package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/models"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

type certificateRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
	FindByCode(ctx context.Context, code string) (*models.Certificate, error)
	Create(ctx context.Context, cert *models.Certificate) error
	Update(ctx context.Context, cert *models.Certificate) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Certificate, error)
}

// IssueCertificateRequest holds the arguments of IssueCertificate.
type IssueCertificateRequest struct {
	CertificateID     string `json:"certificateId" validate:"required,max=64"`
	StudentID         string `json:"studentId" validate:"required"`
	CertificationType string `json:"certificationType" validate:"required"`
}

// RevokeCertificateRequest holds the arguments of RevokeCertificate.
type RevokeCertificateRequest struct {
	CertificateID string `json:"certificateId" validate:"required"`
	Reason        string `json:"reason" validate:"required"`
}

// CertificateService issues, verifies and revokes certificates.
type CertificateService struct {
	certs     certificateRepository
	students  studentLookup
	audit     auditLogger
	policy    *Policy
	baseURL   string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCertificateService constructs the certificate service. baseURL prefixes
// every verification URL.
func NewCertificateService(certs certificateRepository, students studentLookup, audit auditLogger, policy *Policy, baseURL string, validate *validator.Validate, logger *zap.Logger) *CertificateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{certs: certs, students: students, audit: audit, policy: policy, baseURL: baseURL, validator: validate, logger: logger}
}

// IssueCertificate creates a certificate whose hash binds it to the issuing
// transaction's timestamp.
func (s *CertificateService) IssueCertificate(ctx context.Context, req IssueCertificateRequest) (*models.Certificate, error) {
	inv, err := authorize(ctx, s.policy, models.ActionIssueCertificate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	certType := models.CertificationType(req.CertificationType)
	if !certType.Valid() {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "unknown certification type %q", req.CertificationType)
	}

	taken, err := s.certs.Exists(ctx, req.CertificateID)
	if err != nil {
		return nil, stateError(err, "failed to check certificate")
	}
	if taken {
		return nil, appErrors.Clonef(appErrors.ErrDuplicate, "certificate %s already exists", req.CertificateID)
	}
	known, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, stateError(err, "failed to check student")
	}
	if !known {
		return nil, appErrors.Clonef(appErrors.ErrNotFound, "student %s not found", req.StudentID)
	}

	issuedDate := inv.now()
	hash := CertificateHash(req.CertificateID, req.StudentID, issuedDate)
	code := VerificationCode(inv.txID, hash)
	cert := &models.Certificate{
		CertificateID:     req.CertificateID,
		StudentID:         req.StudentID,
		CertificationType: certType,
		IssuedDate:        issuedDate,
		CertificateHash:   hash,
		VerificationCode:  code,
		QRCode:            VerificationURL(s.baseURL, code),
		Status:            models.CertificateStatusIssued,
		IssuedBy:          inv.org,
		VerificationCount: 0,
		CreatedAt:         issuedDate,
	}
	if err := s.certs.Create(ctx, cert); err != nil {
		return nil, stateError(err, "failed to create certificate")
	}
	if err := s.audit.LogAudit(ctx, models.ActionIssueCertificate, models.AuditRecordCertificate, cert.CertificateID,
		fmt.Sprintf("%s certificate issued to student %s", certType, cert.StudentID)); err != nil {
		return nil, err
	}
	s.logger.Info("certificate issued", zap.String("certificateId", cert.CertificateID), zap.String("txId", inv.txID))
	return cert, nil
}

// VerifyCertificate reports whether suppliedHash matches the stored hash of
// a certificate that has not been revoked. A revoked certificate returns
// false even when the hash is correct. A mismatch, an unknown ID or a failed
// read also yields false with no writes. Only the true branch writes.
func (s *CertificateService) VerifyCertificate(ctx context.Context, certificateID, suppliedHash string) (bool, error) {
	inv, err := authorize(ctx, s.policy, models.ActionVerifyCertificate)
	if err != nil {
		return false, err
	}
	cert, err := s.certs.FindByID(ctx, certificateID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("certificate read failed during verification", zap.String("certificateId", certificateID), zap.Error(err))
		}
		return false, nil
	}
	if cert.Status == models.CertificateStatusRevoked || cert.CertificateHash != suppliedHash {
		return false, nil
	}

	cert.VerificationCount++
	cert.Status = models.CertificateStatusVerified
	cert.LastVerifiedAt = inv.now()
	if err := s.certs.Update(ctx, cert); err != nil {
		return false, stateError(err, "failed to record verification")
	}
	verifier := inv.org
	if verifier == "" {
		verifier = anonymousCaller
	}
	if err := s.audit.LogAudit(ctx, models.ActionVerifyCertificate, models.AuditRecordCertificate, cert.CertificateID,
		fmt.Sprintf("Verified by %s, verification #%d", verifier, cert.VerificationCount)); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeCertificate permanently invalidates a certificate.
func (s *CertificateService) RevokeCertificate(ctx context.Context, req RevokeCertificateRequest) (*models.Certificate, error) {
	inv, err := authorize(ctx, s.policy, models.ActionRevokeCertificate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid revocation payload")
	}
	cert, err := s.certs.FindByID(ctx, req.CertificateID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clonef(appErrors.ErrNotFound, "certificate %s not found", req.CertificateID)
		}
		return nil, stateError(err, "failed to load certificate")
	}
	if cert.Status == models.CertificateStatusRevoked {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "certificate %s is already revoked", req.CertificateID)
	}

	cert.Status = models.CertificateStatusRevoked
	cert.RevokedAt = inv.now()
	cert.RevocationReason = req.Reason
	if err := s.certs.Update(ctx, cert); err != nil {
		return nil, stateError(err, "failed to revoke certificate")
	}
	if err := s.audit.LogAudit(ctx, models.ActionRevokeCertificate, models.AuditRecordCertificate, cert.CertificateID,
		"Revoked: "+req.Reason); err != nil {
		return nil, err
	}
	return cert, nil
}

// GetCertificate returns one certificate.
func (s *CertificateService) GetCertificate(ctx context.Context, certificateID string) (*models.Certificate, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetCertificate); err != nil {
		return nil, err
	}
	cert, err := s.certs.FindByID(ctx, certificateID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clonef(appErrors.ErrNotFound, "certificate %s not found", certificateID)
		}
		return nil, stateError(err, "failed to load certificate")
	}
	return cert, nil
}

// GetCertificateByCode resolves a public verification code.
func (s *CertificateService) GetCertificateByCode(ctx context.Context, code string) (*models.Certificate, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetCertificateByCode); err != nil {
		return nil, err
	}
	cert, err := s.certs.FindByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no certificate for verification code")
		}
		return nil, stateError(err, "failed to resolve verification code")
	}
	return cert, nil
}

// GetStudentCertificates resolves the student's certificate index.
func (s *CertificateService) GetStudentCertificates(ctx context.Context, studentID string) ([]models.Certificate, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetStudentCertificates); err != nil {
		return nil, err
	}
	certs, err := s.certs.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, stateError(err, "failed to list certificates")
	}
	return certs, nil
}
