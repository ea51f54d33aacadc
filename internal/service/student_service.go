package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/models"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

type studentRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	List(ctx context.Context) ([]models.Student, error)
	ListByDepartment(ctx context.Context, department string) ([]models.Student, error)
}

type auditLogger interface {
	LogAudit(ctx context.Context, action string, recordType models.AuditRecordType, recordID, details string) error
}

// CreateStudentRequest holds the arguments of CreateStudent.
type CreateStudentRequest struct {
	StudentID  string `json:"studentId" validate:"required,max=64"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
}

// UpdateStudentStatusRequest holds the arguments of UpdateStudentStatus.
type UpdateStudentStatusRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// StudentService implements the student transactions.
type StudentService struct {
	repo      studentRepository
	audit     auditLogger
	policy    *Policy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, audit auditLogger, policy *Policy, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, audit: audit, policy: policy, validator: validate, logger: logger}
}

// CreateStudent registers a new ACTIVE student.
func (s *StudentService) CreateStudent(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	inv, err := authorize(ctx, s.policy, models.ActionCreateStudent)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	taken, err := s.repo.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, stateError(err, "failed to check student")
	}
	if taken {
		return nil, appErrors.Clonef(appErrors.ErrDuplicate, "student %s already exists", req.StudentID)
	}

	student := &models.Student{
		StudentID:      req.StudentID,
		Name:           req.Name,
		Email:          req.Email,
		Department:     req.Department,
		EnrollmentDate: inv.now(),
		Status:         models.StudentStatusActive,
		CreatedBy:      inv.org,
		CreatedAt:      inv.now(),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, stateError(err, "failed to create student")
	}
	if err := s.audit.LogAudit(ctx, models.ActionCreateStudent, models.AuditRecordStudent, student.StudentID,
		fmt.Sprintf("Student %s created in department %s", student.Name, student.Department)); err != nil {
		return nil, err
	}
	s.logger.Info("student created", zap.String("studentId", student.StudentID), zap.String("txId", inv.txID))
	return student, nil
}

// GetStudent returns a single student.
func (s *StudentService) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetStudent); err != nil {
		return nil, err
	}
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clonef(appErrors.ErrNotFound, "student %s not found", studentID)
		}
		return nil, stateError(err, "failed to load student")
	}
	return student, nil
}

// GetAllStudents scans every student entry.
func (s *StudentService) GetAllStudents(ctx context.Context) ([]models.Student, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetAllStudents); err != nil {
		return nil, err
	}
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, stateError(err, "failed to list students")
	}
	return students, nil
}

// GetStudentsByDepartment resolves the department index.
func (s *StudentService) GetStudentsByDepartment(ctx context.Context, department string) ([]models.Student, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetStudentsByDepartment); err != nil {
		return nil, err
	}
	if department == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	students, err := s.repo.ListByDepartment(ctx, department)
	if err != nil {
		return nil, stateError(err, "failed to list department students")
	}
	return students, nil
}

// UpdateStudentStatus changes the enrollment status of a student.
func (s *StudentService) UpdateStudentStatus(ctx context.Context, req UpdateStudentStatusRequest) (*models.Student, error) {
	inv, err := authorize(ctx, s.policy, models.ActionUpdateStudentStatus)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status := models.StudentStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "unknown student status %q", req.Status)
	}

	student, err := s.repo.FindByID(ctx, req.StudentID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clonef(appErrors.ErrNotFound, "student %s not found", req.StudentID)
		}
		return nil, stateError(err, "failed to load student")
	}
	previous := student.Status
	student.Status = status
	student.UpdatedAt = inv.now()
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, stateError(err, "failed to update student")
	}
	if err := s.audit.LogAudit(ctx, models.ActionUpdateStudentStatus, models.AuditRecordStudent, student.StudentID,
		fmt.Sprintf("Status changed from %s to %s", previous, status)); err != nil {
		return nil, err
	}
	return student, nil
}
