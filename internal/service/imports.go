package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/lendstation/backend/internal/codec"
	"github.com/pkordes/lendstation/backend/internal/domain"
	"github.com/pkordes/lendstation/backend/internal/repo"
	"github.com/pkordes/lendstation/backend/internal/validate"
)

// Caps on what a preview reports back to the UI.
const (
	previewSampleLimit = 5
	previewErrorLimit  = 10
)

// ImportService parses CSV/JSON payloads, validates them per family, writes
// the valid records in batches, and keeps an undo-capable rollback manifest
// for every completed import.
type ImportService struct {
	records   repo.RecordStore
	rollbacks repo.RollbackRepo
	audit     repo.AuditRepo
	log       *slog.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(records repo.RecordStore, rollbacks repo.RollbackRepo, audit repo.AuditRepo, log *slog.Logger) *ImportService {
	return &ImportService{records: records, rollbacks: rollbacks, audit: audit, log: log}
}

// Preview parses and validates content without writing anything. CanProceed
// is true iff at least one record is valid.
func (s *ImportService) Preview(ctx context.Context, content string, format domain.Format, family domain.Family) domain.ImportPreview {
	batch := validate.Batch(codec.Parse(content, format), family)

	samples := batch.ValidRecords
	if len(samples) > previewSampleLimit {
		samples = samples[:previewSampleLimit]
	}
	errs := batch.Errors
	if len(errs) > previewErrorLimit {
		errs = errs[:previewErrorLimit]
	}

	return domain.ImportPreview{
		TotalRecords:   batch.TotalRecords,
		ValidRecords:   batch.ValidCount,
		InvalidRecords: batch.ErrorCount,
		SampleRecords:  samples,
		Errors:         errs,
		CanProceed:     batch.ValidCount > 0,
	}
}

// Import parses, validates, and writes content on behalf of actorID.
//
// Valid records are stamped with import metadata, given client-generated
// ids, and inserted in batches. Each record's ref is accumulated into the
// rollback manifest before its batch commits, so the manifest reflects every
// intended write even if a later batch fails. On any insert failure the
// manifest accumulated so far is rolled back best-effort and the result
// reports zero imported records.
func (s *ImportService) Import(ctx context.Context, content string, format domain.Format, family domain.Family, actorID string) domain.ImportResult {
	batch := validate.Batch(codec.Parse(content, format), family)

	if batch.ValidCount == 0 {
		return domain.ImportResult{
			TotalRecords:  batch.TotalRecords,
			FailedRecords: batch.ErrorCount,
			Errors:        batch.Errors,
			Error:         "no valid records to import",
		}
	}

	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339)

	records := make([]domain.Record, 0, batch.ValidCount)
	for _, rec := range batch.ValidRecords {
		records = append(records, domain.Record{
			ID:         uuid.NewString(),
			Family:     family,
			Collection: family.Collection(),
			Data:       importDoc(rec, family, actorID, stamp),
		})
	}

	var manifest []domain.RecordRef
	imported := 0
	for _, chunk := range chunkRecords(records) {
		// Queue refs before the batch commits: a failure in a later batch
		// must still see every write this sequence intended.
		for _, rec := range chunk {
			manifest = append(manifest, rec.Ref())
		}
		if err := s.records.InsertBatch(ctx, family, chunk); err != nil {
			s.rollbackPartial(ctx, manifest)
			return domain.ImportResult{
				TotalRecords:  batch.TotalRecords,
				FailedRecords: batch.ErrorCount,
				Errors:        batch.Errors,
				Error:         fmt.Sprintf("import failed: %v", err),
			}
		}
		imported += len(chunk)
	}

	rollbackID := s.persistManifest(ctx, family, manifest, actorID, now)

	appendAudit(ctx, s.log, s.audit, domain.AuditEntry{
		Operation: domain.AuditImport,
		Actor:     actorID,
		Details: map[string]any{
			"dataType":        string(family),
			"totalRecords":    batch.TotalRecords,
			"importedRecords": imported,
			"failedRecords":   batch.ErrorCount,
			"rollbackId":      rollbackID,
		},
	})

	return domain.ImportResult{
		Success:         true,
		TotalRecords:    batch.TotalRecords,
		ImportedRecords: imported,
		FailedRecords:   batch.ErrorCount,
		Errors:          batch.Errors,
		RollbackID:      rollbackID,
	}
}

// ExecuteRollback undoes a completed import by deleting every record its
// manifest lists. A manifest is consumed at most once; executed and expired
// manifests are rejected. An audit entry is written regardless of outcome.
func (s *ImportService) ExecuteRollback(ctx context.Context, rollbackID, actorID string) domain.RollbackResult {
	manifest, err := s.rollbacks.Get(ctx, rollbackID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RollbackResult{Error: "rollback manifest not found"}
		}
		return domain.RollbackResult{Error: fmt.Sprintf("rollback lookup failed: %v", err)}
	}
	if manifest.Status != domain.RollbackAvailable {
		return domain.RollbackResult{Error: "rollback was already executed"}
	}
	if manifest.Expired(time.Now().UTC()) {
		return domain.RollbackResult{Error: "rollback manifest expired"}
	}

	deleted := 0
	var delErr error
	for _, chunk := range chunkRefs(manifest.Records) {
		if delErr = s.records.DeleteBatch(ctx, chunk); delErr != nil {
			break
		}
		deleted += len(chunk)
	}

	status := domain.RollbackExecuted
	if delErr != nil {
		status = domain.RollbackFailed
	}
	if err := s.rollbacks.MarkConsumed(ctx, manifest.ID, status); err != nil {
		s.log.WarnContext(ctx, "rollback status update failed", "rollback_id", manifest.ID, "error", err)
	}

	appendAudit(ctx, s.log, s.audit, domain.AuditEntry{
		Operation: domain.AuditRollback,
		Actor:     actorID,
		Details: map[string]any{
			"rollbackId":   manifest.ID,
			"dataType":     string(manifest.Family),
			"deletedCount": deleted,
			"success":      delErr == nil,
		},
	})

	if delErr != nil {
		return domain.RollbackResult{
			DeletedCount: deleted,
			Error:        fmt.Sprintf("rollback failed: %v", delErr),
		}
	}
	return domain.RollbackResult{Success: true, DeletedCount: deleted}
}

// importDoc builds the document to insert for one validated record: any
// caller-supplied id is stripped, date-like string fields are coerced to
// canonical instants, import metadata is stamped, and a missing status gets
// the family default (equipment additionally defaults isActive to true).
func importDoc(rec map[string]any, family domain.Family, actorID, stamp string) map[string]any {
	doc := make(map[string]any, len(rec)+4)
	for k, v := range rec {
		if k == "id" {
			continue
		}
		if domain.IsDateField(k) {
			if iso := domain.ToInstant(v); iso != "" {
				doc[k] = iso
				continue
			}
		}
		doc[k] = v
	}

	doc["importedAt"] = stamp
	doc["importedBy"] = actorID
	doc["createdAt"] = stamp
	doc["updatedAt"] = stamp

	if s, _ := doc["status"].(string); s == "" {
		doc["status"] = family.DefaultStatus()
		if family == domain.FamilyEquipment {
			if _, ok := doc["isActive"]; !ok {
				doc["isActive"] = true
			}
		}
	}
	return doc
}

// rollbackPartial best-effort deletes the refs queued before an insert
// failure. Its own failures are logged, never surfaced: they must not mask
// the original import error.
func (s *ImportService) rollbackPartial(ctx context.Context, refs []domain.RecordRef) {
	for _, chunk := range chunkRefs(refs) {
		if err := s.records.DeleteBatch(ctx, chunk); err != nil {
			s.log.WarnContext(ctx, "partial import rollback failed",
				"records", len(chunk),
				"error", err,
			)
		}
	}
}

// persistManifest stores the rollback manifest. The import already
// succeeded, so a persistence failure downgrades to a warning and an empty
// rollback id.
func (s *ImportService) persistManifest(ctx context.Context, family domain.Family, refs []domain.RecordRef, actorID string, now time.Time) string {
	manifest := domain.RollbackManifest{
		ID:        uuid.NewString(),
		Family:    family,
		Records:   refs,
		CreatedBy: actorID,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.RollbackRetention),
		Status:    domain.RollbackAvailable,
	}
	if err := s.rollbacks.Create(ctx, manifest); err != nil {
		s.log.WarnContext(ctx, "rollback manifest persistence failed", "error", err)
		return ""
	}
	return manifest.ID
}
