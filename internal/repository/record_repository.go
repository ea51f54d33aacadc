package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/models"
)

// RecordRepository manages academic records in the world state.
type RecordRepository struct {
	logger *zap.Logger
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(logger *zap.Logger) *RecordRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordRepository{logger: logger}
}

func recordKey(id string) string {
	return recordPrefix + id
}

// Exists reports whether the record ID is taken.
func (r *RecordRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, recordKey(id))
}

// FindByID returns the record or ErrNotFound.
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*models.AcademicRecord, error) {
	var record models.AcademicRecord
	if err := getJSON(ctx, recordKey(id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create writes the record and its student index entry.
func (r *RecordRepository) Create(ctx context.Context, record *models.AcademicRecord) error {
	if err := putJSON(ctx, recordKey(record.RecordID), record); err != nil {
		return err
	}
	return putIndex(ctx, recordsByStudent, record.StudentID, record.RecordID)
}

// Update overwrites an existing record.
func (r *RecordRepository) Update(ctx context.Context, record *models.AcademicRecord) error {
	return putJSON(ctx, recordKey(record.RecordID), record)
}

// ListByStudent returns the student's records ordered by record ID. Index
// entries that no longer resolve are skipped.
func (r *RecordRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AcademicRecord, error) {
	ids, err := lookup(ctx, recordsByStudent, studentID)
	if err != nil {
		return nil, err
	}
	records := make([]models.AcademicRecord, 0, len(ids))
	for _, id := range ids {
		record, err := r.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				r.logger.Warn("dangling record index entry", zap.String("studentId", studentID), zap.String("recordId", id))
				continue
			}
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}
