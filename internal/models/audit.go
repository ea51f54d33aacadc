package models

// AuditRecordType identifies the entity an audit entry refers to.
type AuditRecordType string

const (
	AuditRecordStudent     AuditRecordType = "STUDENT"
	AuditRecordRecord      AuditRecordType = "RECORD"
	AuditRecordCertificate AuditRecordType = "CERTIFICATE"
)

// AuditLog represents an immutable ledger audit trail entry.
type AuditLog struct {
	LogID         string          `json:"logId"`
	Timestamp     string          `json:"timestamp"`
	Organization  string          `json:"organization"`
	User          string          `json:"user"`
	Action        string          `json:"action"`
	RecordType    AuditRecordType `json:"recordType"`
	RecordID      string          `json:"recordId"`
	Details       string          `json:"details"`
	TransactionID string          `json:"transactionId"`
}
