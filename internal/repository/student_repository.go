package repository

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/models"
)

// StudentRepository manages student entries in the world state.
type StudentRepository struct {
	logger *zap.Logger
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(logger *zap.Logger) *StudentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentRepository{logger: logger}
}

func studentKey(id string) string {
	return studentPrefix + id
}

// Exists reports whether a student with the ID has been written.
func (r *StudentRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, studentKey(id))
}

// FindByID returns the student or ErrNotFound.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := getJSON(ctx, studentKey(id), &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create writes a new student together with its department index entry.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if err := putJSON(ctx, studentKey(student.StudentID), student); err != nil {
		return err
	}
	return putIndex(ctx, studentsByDepartment, student.Department, student.StudentID)
}

// Update overwrites an existing student. The department is immutable so the
// index is left untouched.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	return putJSON(ctx, studentKey(student.StudentID), student)
}

// List returns every student ordered by ID. Values that do not decode as a
// student are skipped.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	entries, err := scanPrefix(ctx, studentPrefix)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(entries))
	for _, kv := range entries {
		var student models.Student
		if err := json.Unmarshal(kv.Value, &student); err != nil || student.StudentID == "" {
			r.logger.Warn("skipping undecodable student entry", zap.String("key", kv.Key), zap.Error(err))
			continue
		}
		students = append(students, student)
	}
	return students, nil
}

// ListByDepartment resolves the department index and loads each student.
func (r *StudentRepository) ListByDepartment(ctx context.Context, department string) ([]models.Student, error) {
	ids, err := lookup(ctx, studentsByDepartment, department)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		student, err := r.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		students = append(students, *student)
	}
	return students, nil
}
