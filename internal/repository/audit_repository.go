package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/academic-ledger/internal/models"
)

// AuditRepository appends audit entries. Entries are never updated.
type AuditRepository struct{}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func auditKey(logID string) string {
	return auditPrefix + logID
}

// Append writes the entry and indexes it under its record ID.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if err := putJSON(ctx, auditKey(entry.LogID), entry); err != nil {
		return err
	}
	return putIndex(ctx, auditByRecord, entry.RecordID, entry.LogID)
}

// ListByRecord returns the record's entries ordered by log ID.
func (r *AuditRepository) ListByRecord(ctx context.Context, recordID string) ([]models.AuditLog, error) {
	ids, err := lookup(ctx, auditByRecord, recordID)
	if err != nil {
		return nil, err
	}
	logs := make([]models.AuditLog, 0, len(ids))
	for _, id := range ids {
		var entry models.AuditLog
		if err := getJSON(ctx, auditKey(id), &entry); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
