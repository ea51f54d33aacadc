package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/models"
)

const logIDTxPrefix = 8

type auditRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	ListByRecord(ctx context.Context, recordID string) ([]models.AuditLog, error)
}

// AuditService appends and reads the ledger audit trail.
type AuditService struct {
	repo   auditRepository
	policy *Policy
	logger *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditRepository, policy *Policy, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, policy: policy, logger: logger}
}

// LogAudit writes one entry for the current transaction. A failure here must
// abort the caller's transaction.
func (s *AuditService) LogAudit(ctx context.Context, action string, recordType models.AuditRecordType, recordID, details string) error {
	inv, err := currentInvocation(ctx)
	if err != nil {
		return err
	}
	org := inv.org
	if org == "" {
		org = anonymousCaller
	}
	user := inv.user
	if user == "" {
		user = anonymousCaller
	}
	entry := &models.AuditLog{
		LogID:         auditLogID(inv, recordID),
		Timestamp:     inv.now(),
		Organization:  org,
		User:          user,
		Action:        action,
		RecordType:    recordType,
		RecordID:      recordID,
		Details:       details,
		TransactionID: inv.txID,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return stateError(err, "failed to write audit entry")
	}
	s.logger.Debug("audit entry written", zap.String("logId", entry.LogID), zap.String("action", action))
	return nil
}

// GetAuditLog returns the entries for a record ordered by log ID.
func (s *AuditService) GetAuditLog(ctx context.Context, recordID string) ([]models.AuditLog, error) {
	if _, err := authorize(ctx, s.policy, models.ActionGetAuditLog); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, stateError(err, "failed to read audit log")
	}
	return logs, nil
}

// auditLogID sorts by transaction time and is unique per record per
// transaction.
func auditLogID(inv *invocation, recordID string) string {
	txPart := inv.txID
	if len(txPart) > logIDTxPrefix {
		txPart = txPart[:logIDTxPrefix]
	}
	return fmt.Sprintf("%020d_%s_%s", inv.timestamp.UnixNano(), recordID, txPart)
}
