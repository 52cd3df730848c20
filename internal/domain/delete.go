package domain

// DeleteRequest describes one confirmation-gated delete operation.
// ConfirmationPhrase must match ConfirmationPhrase(DataTypes) after trimming,
// compared case-insensitively. The phrase is a UI safety convention, not an
// authorization control; authorization happens upstream.
type DeleteRequest struct {
	DataTypes          []Family   `json:"dataTypes"`
	DateRange          *DateRange `json:"dateRange,omitempty"`
	CreateBackup       bool       `json:"createBackup"`
	ConfirmationPhrase string     `json:"confirmationPhrase"`
}

// DeleteResult is the outcome of one delete operation. The contract is
// all-or-nothing from the caller's perspective: on any failure DeletedCount
// is zero even if some batches committed before the failure (the backup
// restore path re-establishes the pre-delete state). BackupID is populated
// on failure too, so an operator can inspect or manually restore.
type DeleteResult struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deletedCount"`
	BackupID     string `json:"backupId,omitempty"`
	AuditLogID   string `json:"auditLogId,omitempty"`
	Error        string `json:"error,omitempty"`
}
