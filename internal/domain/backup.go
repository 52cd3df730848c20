package domain

import "time"

// BackupRetention is how long a pre-delete backup archive stays restorable.
const BackupRetention = 30 * 24 * time.Hour

// ArchiveTypePreDelete is the only archive type this service produces.
const ArchiveTypePreDelete = "PRE_DELETE_BACKUP"

// BackupStatus tracks the lifecycle of a backup archive.
// The only legal transition is available → restored, exactly once;
// an expired archive is marked expired by the bootstrap sweep and can
// never be restored.
type BackupStatus string

// Backup archive states.
const (
	BackupAvailable BackupStatus = "available"
	BackupRestored  BackupStatus = "restored"
	BackupExpired   BackupStatus = "expired"
)

// BackupArchive is a full snapshot of the records a delete operation is
// about to remove. Each entry keeps the record's original collection and id
// so restore can re-insert it verbatim.
type BackupArchive struct {
	ID          string       `json:"id"`
	ArchiveType string       `json:"archiveType"`
	DataTypes   []Family     `json:"dataTypes"`
	DateRange   *DateRange   `json:"dateRange,omitempty"`
	RecordCount int          `json:"recordCount"`
	Records     []Record     `json:"records"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	Status      BackupStatus `json:"status"`
}

// Expired reports whether the archive is past its retention window at now.
func (a BackupArchive) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// RestoreResult is the outcome of restoring a backup archive.
type RestoreResult struct {
	Success       bool   `json:"success"`
	RestoredCount int    `json:"restoredCount"`
	Error         string `json:"error,omitempty"`
}
