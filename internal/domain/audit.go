package domain

import "time"

// AuditOperation classifies an audit log entry.
type AuditOperation string

// Audited operations. One entry is appended per completed terminal
// operation; the log is append-only and never mutated by this service.
const (
	AuditExport   AuditOperation = "export"
	AuditImport   AuditOperation = "import"
	AuditDelete   AuditOperation = "delete"
	AuditRestore  AuditOperation = "restore"
	AuditRollback AuditOperation = "rollback"
)

// AuditEntry is one line in the data-management audit trail.
// Details holds operation-specific fields (families, counts, backup id, ...).
type AuditEntry struct {
	ID        string         `json:"id"`
	Operation AuditOperation `json:"operation"`
	Actor     string         `json:"actor"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
