// Package chaincode exposes the transaction handlers as a Fabric contract so
// the same state machine can run on endorsing peers.
package chaincode

import (
	"context"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/internal/models"
	"github.com/noah-isme/academic-ledger/internal/service"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

// AcademicRecordsContract is the academic-records chaincode. Every exported
// method below is a transaction.
type AcademicRecordsContract struct {
	contractapi.Contract
	handlers *service.Handlers
	logger   *zap.Logger
}

// New builds the contract around the shared handlers.
func New(name string, h *service.Handlers, logger *zap.Logger) *AcademicRecordsContract {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &AcademicRecordsContract{handlers: h, logger: logger}
	c.Name = name
	return c
}

// run executes fn against the stub of the current invocation.
func run[T any](c *AcademicRecordsContract, tctx contractapi.TransactionContextInterface, action string, fn func(ctx context.Context) (T, error)) (T, error) {
	tx := NewTransaction(tctx.GetStub(), tctx.GetClientIdentity())
	result, err := fn(ledger.WithTransaction(context.Background(), tx))
	if err != nil {
		var zero T
		c.logger.Debug("transaction rejected", zap.String("function", action), zap.String("tx_id", tx.TxID()), zap.Error(err))
		return zero, peerError(err)
	}
	return result, nil
}

// peerError prefixes the error kind so clients can branch on it after the
// message crosses the gateway.
func peerError(err error) error {
	appErr := appErrors.FromError(err)
	return fmt.Errorf("%s: %w", appErr.Code, err)
}

// CreateStudent registers an ACTIVE student. Issuer only.
func (c *AcademicRecordsContract) CreateStudent(ctx contractapi.TransactionContextInterface, studentID, name, email, department string) (*models.Student, error) {
	return run(c, ctx, models.ActionCreateStudent, func(rctx context.Context) (*models.Student, error) {
		return c.handlers.Students.CreateStudent(rctx, service.CreateStudentRequest{StudentID: studentID, Name: name, Email: email, Department: department})
	})
}

// GetStudent returns one student.
func (c *AcademicRecordsContract) GetStudent(ctx contractapi.TransactionContextInterface, studentID string) (*models.Student, error) {
	return run(c, ctx, models.ActionGetStudent, func(rctx context.Context) (*models.Student, error) {
		return c.handlers.Students.GetStudent(rctx, studentID)
	})
}

// GetAllStudents lists every student ordered by ID.
func (c *AcademicRecordsContract) GetAllStudents(ctx contractapi.TransactionContextInterface) ([]models.Student, error) {
	return run(c, ctx, models.ActionGetAllStudents, func(rctx context.Context) ([]models.Student, error) {
		return c.handlers.Students.GetAllStudents(rctx)
	})
}

// GetStudentsByDepartment resolves the department index.
func (c *AcademicRecordsContract) GetStudentsByDepartment(ctx contractapi.TransactionContextInterface, department string) ([]models.Student, error) {
	return run(c, ctx, models.ActionGetStudentsByDepartment, func(rctx context.Context) ([]models.Student, error) {
		return c.handlers.Students.GetStudentsByDepartment(rctx, department)
	})
}

// UpdateStudentStatus sets a student's enrollment status. Issuer only.
func (c *AcademicRecordsContract) UpdateStudentStatus(ctx contractapi.TransactionContextInterface, studentID, status string) (*models.Student, error) {
	return run(c, ctx, models.ActionUpdateStudentStatus, func(rctx context.Context) (*models.Student, error) {
		return c.handlers.Students.UpdateStudentStatus(rctx, service.UpdateStudentStatusRequest{StudentID: studentID, Status: status})
	})
}

// CreateAcademicRecord takes the course list as a JSON array string.
func (c *AcademicRecordsContract) CreateAcademicRecord(ctx contractapi.TransactionContextInterface, recordID, studentID string, semester, year int, coursesJSON string) (*models.AcademicRecord, error) {
	return run(c, ctx, models.ActionCreateAcademicRecord, func(rctx context.Context) (*models.AcademicRecord, error) {
		courses, err := service.ParseCourses(coursesJSON)
		if err != nil {
			return nil, err
		}
		return c.handlers.Records.CreateAcademicRecord(rctx, service.CreateAcademicRecordRequest{
			RecordID: recordID, StudentID: studentID, Semester: semester, Year: year, Courses: courses,
		})
	})
}

// ApproveAcademicRecord moves a SUBMITTED record to APPROVED. Issuer only.
func (c *AcademicRecordsContract) ApproveAcademicRecord(ctx contractapi.TransactionContextInterface, recordID string) (*models.AcademicRecord, error) {
	return run(c, ctx, models.ActionApproveAcademicRecord, func(rctx context.Context) (*models.AcademicRecord, error) {
		return c.handlers.Records.ApproveAcademicRecord(rctx, recordID)
	})
}

// VerifyAcademicRecord moves an APPROVED record to VERIFIED. Verifiers only.
func (c *AcademicRecordsContract) VerifyAcademicRecord(ctx contractapi.TransactionContextInterface, recordID string) (*models.AcademicRecord, error) {
	return run(c, ctx, models.ActionVerifyAcademicRecord, func(rctx context.Context) (*models.AcademicRecord, error) {
		return c.handlers.Records.VerifyAcademicRecord(rctx, recordID)
	})
}

// GetAcademicRecord returns one academic record.
func (c *AcademicRecordsContract) GetAcademicRecord(ctx contractapi.TransactionContextInterface, recordID string) (*models.AcademicRecord, error) {
	return run(c, ctx, models.ActionGetAcademicRecord, func(rctx context.Context) (*models.AcademicRecord, error) {
		return c.handlers.Records.GetAcademicRecord(rctx, recordID)
	})
}

// GetStudentRecords lists a student's records ordered by record ID.
func (c *AcademicRecordsContract) GetStudentRecords(ctx contractapi.TransactionContextInterface, studentID string) ([]models.AcademicRecord, error) {
	return run(c, ctx, models.ActionGetStudentRecords, func(rctx context.Context) ([]models.AcademicRecord, error) {
		return c.handlers.Records.GetStudentRecords(rctx, studentID)
	})
}

// IssueCertificate creates a certificate for an existing student. Issuer only.
func (c *AcademicRecordsContract) IssueCertificate(ctx contractapi.TransactionContextInterface, certificateID, studentID, certificationType string) (*models.Certificate, error) {
	return run(c, ctx, models.ActionIssueCertificate, func(rctx context.Context) (*models.Certificate, error) {
		return c.handlers.Certificates.IssueCertificate(rctx, service.IssueCertificateRequest{
			CertificateID: certificateID, StudentID: studentID, CertificationType: certificationType,
		})
	})
}

// VerifyCertificate returns true when the hash matches an unrevoked
// certificate. A revoked certificate never verifies, even with the correct
// hash. It must be submitted, not evaluated, for the verification counter
// to persist.
func (c *AcademicRecordsContract) VerifyCertificate(ctx contractapi.TransactionContextInterface, certificateID, certificateHash string) (bool, error) {
	return run(c, ctx, models.ActionVerifyCertificate, func(rctx context.Context) (bool, error) {
		return c.handlers.Certificates.VerifyCertificate(rctx, certificateID, certificateHash)
	})
}

// RevokeCertificate permanently invalidates a certificate. Issuer only.
func (c *AcademicRecordsContract) RevokeCertificate(ctx contractapi.TransactionContextInterface, certificateID, reason string) (*models.Certificate, error) {
	return run(c, ctx, models.ActionRevokeCertificate, func(rctx context.Context) (*models.Certificate, error) {
		return c.handlers.Certificates.RevokeCertificate(rctx, service.RevokeCertificateRequest{CertificateID: certificateID, Reason: reason})
	})
}

// GetCertificate returns one certificate.
func (c *AcademicRecordsContract) GetCertificate(ctx contractapi.TransactionContextInterface, certificateID string) (*models.Certificate, error) {
	return run(c, ctx, models.ActionGetCertificate, func(rctx context.Context) (*models.Certificate, error) {
		return c.handlers.Certificates.GetCertificate(rctx, certificateID)
	})
}

// GetCertificateByCode resolves a public verification code.
func (c *AcademicRecordsContract) GetCertificateByCode(ctx contractapi.TransactionContextInterface, verificationCode string) (*models.Certificate, error) {
	return run(c, ctx, models.ActionGetCertificateByCode, func(rctx context.Context) (*models.Certificate, error) {
		return c.handlers.Certificates.GetCertificateByCode(rctx, verificationCode)
	})
}

// GetStudentCertificates lists a student's certificates.
func (c *AcademicRecordsContract) GetStudentCertificates(ctx contractapi.TransactionContextInterface, studentID string) ([]models.Certificate, error) {
	return run(c, ctx, models.ActionGetStudentCertificates, func(rctx context.Context) ([]models.Certificate, error) {
		return c.handlers.Certificates.GetStudentCertificates(rctx, studentID)
	})
}

// GetAuditLog returns the audit trail of a record ordered by log ID.
func (c *AcademicRecordsContract) GetAuditLog(ctx contractapi.TransactionContextInterface, recordID string) ([]models.AuditLog, error) {
	return run(c, ctx, models.ActionGetAuditLog, func(rctx context.Context) ([]models.AuditLog, error) {
		return c.handlers.Audit.GetAuditLog(rctx, recordID)
	})
}
