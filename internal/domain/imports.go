package domain

import "time"

// RollbackRetention is how long an import rollback manifest stays usable.
const RollbackRetention = 7 * 24 * time.Hour

// RecordError reports why one record in a batch failed validation.
// Index is the zero-based position in the parsed input.
type RecordError struct {
	Index  int            `json:"index"`
	Record map[string]any `json:"record"`
	Errors []string       `json:"errors"`
}

// ImportPreview is the dry-run result of parsing and validating an import
// payload without writing anything. SampleRecords holds at most five valid
// records; Errors holds at most ten failures.
type ImportPreview struct {
	TotalRecords   int              `json:"totalRecords"`
	ValidRecords   int              `json:"validRecords"`
	InvalidRecords int              `json:"invalidRecords"`
	SampleRecords  []map[string]any `json:"sampleRecords"`
	Errors         []RecordError    `json:"errors"`
	CanProceed     bool             `json:"canProceed"`
}

// ImportResult is the outcome of one import operation. RollbackID names the
// persisted manifest that can undo this import within RollbackRetention;
// it is empty when the import failed before any write survived.
type ImportResult struct {
	Success         bool          `json:"success"`
	TotalRecords    int           `json:"totalRecords"`
	ImportedRecords int           `json:"importedRecords"`
	FailedRecords   int           `json:"failedRecords"`
	Errors          []RecordError `json:"errors,omitempty"`
	RollbackID      string        `json:"rollbackId,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// RollbackStatus tracks the lifecycle of an import rollback manifest.
// A manifest is consumed at most once: available → executed | failed.
type RollbackStatus string

// Rollback manifest states.
const (
	RollbackAvailable RollbackStatus = "available"
	RollbackExecuted  RollbackStatus = "executed"
	RollbackFailed    RollbackStatus = "failed"
)

// RollbackManifest records the ids written by one import so the import can
// be undone. Persisted as a standalone bookkeeping record.
type RollbackManifest struct {
	ID        string         `json:"id"`
	Family    Family         `json:"dataType"`
	Records   []RecordRef    `json:"records"`
	CreatedBy string         `json:"createdBy"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Status    RollbackStatus `json:"status"`
}

// Expired reports whether the manifest is past its retention window at now.
func (m RollbackManifest) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// RollbackResult is the outcome of executing a rollback manifest.
type RollbackResult struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deletedCount"`
	Error        string `json:"error,omitempty"`
}
