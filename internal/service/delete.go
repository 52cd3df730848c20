package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/lendstation/backend/internal/domain"
	"github.com/pkordes/lendstation/backend/internal/repo"
)

// DeleteService is the delete-and-backup engine: confirmation-gated,
// date-range-filtered, batched deletion with mandatory pre-delete archival
// and automatic restore-on-failure.
type DeleteService struct {
	records repo.RecordStore
	backups repo.BackupRepo
	audit   repo.AuditRepo
	mirror  Mirror
	log     *slog.Logger
}

// NewDeleteService constructs a DeleteService. mirror may be nil to disable
// offsite copies of backup archives.
func NewDeleteService(records repo.RecordStore, backups repo.BackupRepo, audit repo.AuditRepo, mirror Mirror, log *slog.Logger) *DeleteService {
	return &DeleteService{records: records, backups: backups, audit: audit, mirror: mirror, log: log}
}

// DeleteData runs one delete operation on behalf of actorID.
//
// Order of stages: confirmation gate → collect → backup (optional) →
// batched delete → audit. A wrong phrase fails before any read. Zero
// matching records is a success with nothing done. A backup failure aborts
// before any deletion. A failed delete batch triggers one restore from the
// backup (when one was created) and reports deletedCount 0 regardless of how
// many earlier batches committed — the restore makes that the true net
// state. No audit entry is written for a failed deletion.
func (s *DeleteService) DeleteData(ctx context.Context, req domain.DeleteRequest, actorID string) domain.DeleteResult {
	if len(req.DataTypes) == 0 {
		return domain.DeleteResult{Error: "no record families requested"}
	}

	expected := domain.ConfirmationPhrase(req.DataTypes)
	if !strings.EqualFold(strings.TrimSpace(req.ConfirmationPhrase), expected) {
		return domain.DeleteResult{Error: fmt.Sprintf("confirmation phrase does not match %q", expected)}
	}

	var collected []domain.Record
	for _, family := range req.DataTypes {
		records, err := s.records.Query(ctx, family, req.DateRange, nil)
		if err != nil {
			return domain.DeleteResult{Error: fmt.Sprintf("collecting %s records failed: %v", family, err)}
		}
		collected = append(collected, records...)
	}

	// Nothing matched: deliberate success short circuit, not an error.
	// No backup, no deletion, no audit entry.
	if len(collected) == 0 {
		return domain.DeleteResult{Success: true}
	}

	var backupID string
	if req.CreateBackup {
		archive := domain.BackupArchive{
			ID:          uuid.NewString(),
			ArchiveType: domain.ArchiveTypePreDelete,
			DataTypes:   req.DataTypes,
			DateRange:   req.DateRange,
			RecordCount: len(collected),
			Records:     collected,
			CreatedBy:   actorID,
			CreatedAt:   time.Now().UTC(),
			ExpiresAt:   time.Now().UTC().Add(domain.BackupRetention),
			Status:      domain.BackupAvailable,
		}
		if err := s.backups.Create(ctx, archive); err != nil {
			// Fail before any deletion is attempted.
			return domain.DeleteResult{Error: fmt.Sprintf("backup creation failed: %v", err)}
		}
		backupID = archive.ID
		s.mirrorArchive(ctx, archive)
	}

	refs := make([]domain.RecordRef, len(collected))
	for i, rec := range collected {
		refs[i] = rec.Ref()
	}

	deleted := 0
	for _, chunk := range chunkRefs(refs) {
		if err := s.records.DeleteBatch(ctx, chunk); err != nil {
			if backupID != "" {
				if res := s.RestoreFromBackup(ctx, backupID, actorID); !res.Success {
					// Swallowed: a failed restore does not change the
					// outcome, the operator still has the backup id.
					s.log.WarnContext(ctx, "restore after failed delete failed",
						"backup_id", backupID,
						"error", res.Error,
					)
				}
			}
			return domain.DeleteResult{
				BackupID: backupID,
				Error:    fmt.Sprintf("delete failed: %v", err),
			}
		}
		deleted += len(chunk)
	}

	dataTypes := make([]string, len(req.DataTypes))
	for i, f := range req.DataTypes {
		dataTypes[i] = string(f)
	}
	auditID := appendAudit(ctx, s.log, s.audit, domain.AuditEntry{
		Operation: domain.AuditDelete,
		Actor:     actorID,
		Details: map[string]any{
			"deletedBy":   actorID,
			"dataTypes":   dataTypes,
			"dateRange":   req.DateRange,
			"recordCount": deleted,
			"backupId":    backupID,
		},
	})

	return domain.DeleteResult{
		Success:      true,
		DeletedCount: deleted,
		BackupID:     backupID,
		AuditLogID:   auditID,
	}
}

// RestoreFromBackup re-inserts every record of an available archive verbatim
// into its original collection, stamped with restoredAt/restoredBy, then
// flips the archive to restored. Re-insertion is an idempotent upsert, so
// restoring after a partial delete is safe. An audit entry is written
// regardless of the write outcome; the entry records success or failure.
func (s *DeleteService) RestoreFromBackup(ctx context.Context, archiveID, actorID string) domain.RestoreResult {
	archive, err := s.backups.Get(ctx, archiveID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RestoreResult{Error: "backup archive not found"}
		}
		return domain.RestoreResult{Error: fmt.Sprintf("backup lookup failed: %v", err)}
	}
	if archive.Status != domain.BackupAvailable {
		return domain.RestoreResult{Error: fmt.Sprintf("backup archive is %s and cannot be restored", archive.Status)}
	}
	now := time.Now().UTC()
	if archive.Expired(now) {
		return domain.RestoreResult{Error: "backup archive expired"}
	}

	stamp := now.Format(time.RFC3339)
	for i := range archive.Records {
		archive.Records[i].Data["restoredAt"] = stamp
		archive.Records[i].Data["restoredBy"] = actorID
	}

	restored := 0
	var restoreErr error
	for _, chunk := range chunkRecords(archive.Records) {
		if restoreErr = s.records.UpsertBatch(ctx, chunk); restoreErr != nil {
			break
		}
		restored += len(chunk)
	}

	if restoreErr == nil {
		if err := s.backups.MarkRestored(ctx, archive.ID); err != nil {
			s.log.WarnContext(ctx, "backup status update failed", "backup_id", archive.ID, "error", err)
		}
	}

	appendAudit(ctx, s.log, s.audit, domain.AuditEntry{
		Operation: domain.AuditRestore,
		Actor:     actorID,
		Details: map[string]any{
			"backupId":      archive.ID,
			"restoredCount": restored,
			"success":       restoreErr == nil,
		},
	})

	if restoreErr != nil {
		return domain.RestoreResult{Error: fmt.Sprintf("restore failed: %v", restoreErr)}
	}
	return domain.RestoreResult{Success: true, RestoredCount: restored}
}

// mirrorArchive uploads the archive snapshot offsite when a mirror is
// configured. Never fatal: the store copy is the authoritative backup.
func (s *DeleteService) mirrorArchive(ctx context.Context, archive domain.BackupArchive) {
	if s.mirror == nil {
		return
	}
	body, err := json.Marshal(archive)
	if err != nil {
		s.log.WarnContext(ctx, "offsite backup copy failed", "backup_id", archive.ID, "error", err)
		return
	}
	key := fmt.Sprintf("backups/%s.json", archive.ID)
	if err := s.mirror.Upload(ctx, key, body); err != nil {
		s.log.WarnContext(ctx, "offsite backup copy failed", "backup_id", archive.ID, "error", err)
	}
}
