package service

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/repository"
	"github.com/noah-isme/academic-ledger/pkg/config"
)

// Handlers bundles every transaction handler over the world-state
// repositories. It holds no per-call state and is shared by all transports.
type Handlers struct {
	Policy       *Policy
	Students     *StudentService
	Records      *RecordService
	Certificates *CertificateService
	Audit        *AuditService
}

// NewHandlers wires the services to the ledger-backed repositories.
func NewHandlers(orgs config.OrganizationsConfig, verificationBaseURL string, validate *validator.Validate, logger *zap.Logger) *Handlers {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := NewPolicy(orgs)

	studentRepo := repository.NewStudentRepository(logger)
	recordRepo := repository.NewRecordRepository(logger)
	certRepo := repository.NewCertificateRepository()
	auditSvc := NewAuditService(repository.NewAuditRepository(), policy, logger)

	return &Handlers{
		Policy:       policy,
		Students:     NewStudentService(studentRepo, auditSvc, policy, validate, logger),
		Records:      NewRecordService(recordRepo, studentRepo, auditSvc, policy, validate, logger),
		Certificates: NewCertificateService(certRepo, studentRepo, auditSvc, policy, verificationBaseURL, validate, logger),
		Audit:        auditSvc,
	}
}
