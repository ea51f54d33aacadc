package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/models"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

type recordRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.AcademicRecord, error)
	Create(ctx context.Context, record *models.AcademicRecord) error
	Update(ctx context.Context, record *models.AcademicRecord) error
	ListByStudent(ctx context.Context, studentID string) ([]models.AcademicRecord, error)
}

type studentLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// CreateAcademicRecordRequest holds the arguments of CreateAcademicRecord.
type CreateAcademicRecordRequest struct {
	RecordID  string               `json:"recordId" validate:"required,max=64"`
	StudentID string               `json:"studentId" validate:"required"`
	Semester  int                  `json:"semester" validate:"gt=0"`
	Year      int                  `json:"year" validate:"gt=0"`
	Courses   []models.CourseGrade `json:"courses" validate:"dive"`
}

// ParseCourses decodes the coursesJSON transaction argument.
func ParseCourses(raw string) ([]models.CourseGrade, error) {
	var courses []models.CourseGrade
	if err := json.Unmarshal([]byte(raw), &courses); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "courses must be a JSON array of course grades")
	}
	if courses == nil {
		courses = []models.CourseGrade{}
	}
	return courses, nil
}

// RecordService implements the academic record state machine.
type RecordService struct {
	records   recordRepository
	students  studentLookup
	audit     auditLogger
	policy    *Policy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRecordService constructs the record service.
func NewRecordService(records recordRepository, students studentLookup, audit auditLogger, policy *Policy, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{records: records, students: students, audit: audit, policy: policy, validator: validate, logger: logger}
}

// CreateAcademicRecord submits a semester's results for a student.
func (s *RecordService) CreateAcademicRecord(ctx context.Context, req CreateAcademicRecordRequest) (*models.AcademicRecord, error) {
	inv, err := authorize(ctx, s.policy, models.ActionCreateAcademicRecord)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic record payload")
	}

	known, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, stateError(err, "failed to check student")
	}
	if !known {
		return nil, appErrors.Clonef(appErrors.ErrNotFound, "student %s not found", req.StudentID)
	}
	taken, err := s.records.Exists(ctx, req.RecordID)
	if err != nil {
		return nil, stateError(err, "failed to check record")
	}
	if taken {
		return nil, appErrors.Clonef(appErrors.ErrDuplicate, "academic record %s already exists", req.RecordID)
	}

	previous, err := s.records.ListByStudent(ctx, req.StudentID)
	if err != nil {
		return nil, stateError(err, "failed to load previous records")
	}

	courses := req.Courses
	if courses == nil {
		courses = []models.CourseGrade{}
	}
	record := &models.AcademicRecord{
		RecordID:  req.RecordID,
		StudentID: req.StudentID,
		Semester:  req.Semester,
		Year:      req.Year,
		Courses:   courses,
		SGPA:      ComputeSGPA(courses),
		Status:    models.RecordStatusSubmitted,
		CreatedBy: inv.org,
		CreatedAt: inv.now(),
	}
	record.CGPA = ComputeCGPA(append(previous, *record))

	if err := s.records.Create(ctx, record); err != nil {
		return nil, stateError(err, "failed to create academic record")
	}
	if err := s.audit.LogAudit(ctx, models.ActionCreateAcademicRecord, models.AuditRecordRecord, record.RecordID,
		fmt.Sprintf("Semester %d/%d record for student %s with SGPA %.2f", record.Semester, record.Year, record.StudentID, record.SGPA)); err != nil {
		return nil, err
	}
	s.logger.Info("academic record submitted", zap.String("recordId", record.RecordID), zap.Float64("sgpa", record.SGPA))
	return record, nil
}

// ApproveAcademicRecord moves a SUBMITTED record to APPROVED.
func (s *RecordService) ApproveAcademicRecord(ctx context.Context, recordID string) (*models.AcademicRecord, error) {
	return s.transition(ctx, models.ActionApproveAcademicRecord, recordID, models.RecordStatusApproved,
		func(record *models.AcademicRecord, inv *invocation) {
			record.ApprovedBy = inv.org
			record.ApprovedAt = inv.now()
		})
}

// VerifyAcademicRecord moves an APPROVED record to VERIFIED.
func (s *RecordService) VerifyAcademicRecord(ctx context.Context, recordID string) (*models.AcademicRecord, error) {
	return s.transition(ctx, models.ActionVerifyAcademicRecord, recordID, models.RecordStatusVerified,
		func(record *models.AcademicRecord, inv *invocation) {
			record.VerifiedBy = inv.org
			record.VerifiedAt = inv.now()
		})
}

func (s *RecordService) transition(ctx context.Context, action, recordID string, target models.RecordStatus, stamp func(*models.AcademicRecord, *invocation)) (*models.AcademicRecord, error) {
	inv, err := authorize(ctx, s.policy, action)
	if err != nil {
		return nil, err
	}
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clonef(appErrors.ErrNotFound, "academic record %s not found", recordID)
		}
		return nil, stateError(err, "failed to load academic record")
	}
	if record.Status.Next() != target {
		return nil, appErrors.Clonef(appErrors.ErrInvalidTransition, "academic record %s cannot move from %s to %s", recordID, record.Status, target)
	}

	record.Status = target
	stamp(record, inv)
	if err := s.records.Update(ctx, record); err != nil {
		return nil, stateError(err, "failed to update academic record")
	}
	if err := s.audit.LogAudit(ctx, action, models.AuditRecordRecord, record.RecordID,
		fmt.Sprintf("Record moved to %s by %s", target, inv.org)); err != nil {
		return nil, err
	}
	return record, nil
}

// GetAcademicRecord returns one record.
func (s *RecordService) GetAcademicRecord(ctx context.Context, recordID string) (*models.AcademicRecord, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetAcademicRecord); err != nil {
		return nil, err
	}
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clonef(appErrors.ErrNotFound, "academic record %s not found", recordID)
		}
		return nil, stateError(err, "failed to load academic record")
	}
	return record, nil
}

// GetStudentRecords resolves the student's record index.
func (s *RecordService) GetStudentRecords(ctx context.Context, studentID string) ([]models.AcademicRecord, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetStudentRecords); err != nil {
		return nil, err
	}
	records, err := s.records.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, stateError(err, "failed to list academic records")
	}
	return records, nil
}
