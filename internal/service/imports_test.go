package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/lendstation/backend/internal/domain"
	"github.com/pkordes/lendstation/backend/internal/service"
)

// loansCSV is a payload with two valid loans and one missing its userId.
const loansCSV = `equipmentId,userId,borrowDate,expectedReturnDate
eq-1,u-1,2026-03-10,2026-03-24
eq-2,,2026-03-11,2026-03-25
eq-3,u-3,2026-03-12,2026-03-26
`

func newImportService(records *mockRecordStore, rollbacks *mockRollbackRepo, audit *mockAuditRepo) *service.ImportService {
	return service.NewImportService(records, rollbacks, audit, testLogger())
}

func TestPreview(t *testing.T) {
	svc := newImportService(&mockRecordStore{}, &mockRollbackRepo{}, &mockAuditRepo{})

	preview := svc.Preview(context.Background(), loansCSV, domain.FormatCSV, domain.FamilyLoans)

	assert.Equal(t, 3, preview.TotalRecords)
	assert.Equal(t, 2, preview.ValidRecords)
	assert.Equal(t, 1, preview.InvalidRecords)
	assert.True(t, preview.CanProceed)
	require.Len(t, preview.Errors, 1)
	assert.Equal(t, 1, preview.Errors[0].Index)
	assert.Contains(t, preview.Errors[0].Errors, "missing required field: userId")
	require.Len(t, preview.SampleRecords, 2)
}

func TestPreview_CapsSamplesAndErrors(t *testing.T) {
	payload := "equipmentId,userId,borrowDate,expectedReturnDate\n"
	for range [8]int{} {
		payload += "eq,u,2026-03-10,2026-03-24\n" // valid
	}
	for range [12]int{} {
		payload += ",,2026-03-10,2026-03-24\n" // missing both ids
	}

	svc := newImportService(&mockRecordStore{}, &mockRollbackRepo{}, &mockAuditRepo{})
	preview := svc.Preview(context.Background(), payload, domain.FormatCSV, domain.FamilyLoans)

	assert.Equal(t, 20, preview.TotalRecords)
	assert.Equal(t, 8, preview.ValidRecords)
	assert.Equal(t, 12, preview.InvalidRecords)
	assert.Len(t, preview.SampleRecords, 5, "samples are capped")
	assert.Len(t, preview.Errors, 10, "reported errors are capped")
}

func TestPreview_NothingWritten(t *testing.T) {
	records := &mockRecordStore{
		insertBatch: func(context.Context, domain.Family, []domain.Record) error {
			t.Fatal("preview must not write records")
			return nil
		},
	}
	svc := newImportService(records, &mockRollbackRepo{}, &mockAuditRepo{})
	svc.Preview(context.Background(), loansCSV, domain.FormatCSV, domain.FamilyLoans)
}

func TestImport_WritesValidRecordsOnly(t *testing.T) {
	var inserted []domain.Record
	records := &mockRecordStore{
		insertBatch: func(_ context.Context, family domain.Family, recs []domain.Record) error {
			assert.Equal(t, domain.FamilyLoans, family)
			inserted = append(inserted, recs...)
			return nil
		},
	}
	var manifest domain.RollbackManifest
	rollbacks := &mockRollbackRepo{
		create: func(_ context.Context, m domain.RollbackManifest) error {
			manifest = m
			return nil
		},
	}
	audit := &mockAuditRepo{}
	svc := newImportService(records, rollbacks, audit)

	result := svc.Import(context.Background(), loansCSV, domain.FormatCSV, domain.FamilyLoans, "admin@example.com")

	require.True(t, result.Success)
	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 2, result.ImportedRecords)
	assert.Equal(t, 1, result.FailedRecords)
	assert.Equal(t, manifest.ID, result.RollbackID)

	require.Len(t, inserted, 2)
	doc := inserted[0].Data
	assert.NotEmpty(t, inserted[0].ID, "records get client-generated ids")
	assert.Equal(t, "2026-03-10T00:00:00Z", doc["borrowDate"], "dates are canonicalized")
	assert.Equal(t, "admin@example.com", doc["importedBy"])
	assert.NotEmpty(t, doc["importedAt"])
	assert.Equal(t, "pending", doc["status"], "missing status gets the family default")

	require.Len(t, manifest.Records, 2, "manifest lists every written record")
	assert.Equal(t, domain.RollbackAvailable, manifest.Status)
	assert.Equal(t, domain.RollbackRetention, manifest.ExpiresAt.Sub(manifest.CreatedAt))

	require.Len(t, audit.entries, 1)
	assert.Equal(t, domain.AuditImport, audit.entries[0].Operation)
}

func TestImport_StripsCallerIDs(t *testing.T) {
	var inserted []domain.Record
	records := &mockRecordStore{
		insertBatch: func(_ context.Context, _ domain.Family, recs []domain.Record) error {
			inserted = append(inserted, recs...)
			return nil
		},
	}
	svc := newImportService(records, &mockRollbackRepo{}, &mockAuditRepo{})

	payload := `[{"id":"attacker-chosen","name":"Tripod","category":"camera"}]`
	result := svc.Import(context.Background(), payload, domain.FormatJSON, domain.FamilyEquipment, "admin")

	require.True(t, result.Success)
	require.Len(t, inserted, 1)
	assert.NotEqual(t, "attacker-chosen", inserted[0].ID)
	assert.NotContains(t, inserted[0].Data, "id")
	assert.Equal(t, "available", inserted[0].Data["status"])
	assert.Equal(t, true, inserted[0].Data["isActive"], "equipment defaults isActive alongside status")
}

func TestImport_NoValidRecords(t *testing.T) {
	records := &mockRecordStore{
		insertBatch: func(context.Context, domain.Family, []domain.Record) error {
			t.Fatal("nothing should be written")
			return nil
		},
	}
	audit := &mockAuditRepo{}
	svc := newImportService(records, &mockRollbackRepo{}, audit)

	result := svc.Import(context.Background(), "not json", domain.FormatJSON, domain.FamilyLoans, "admin")

	assert.False(t, result.Success)
	assert.Equal(t, "no valid records to import", result.Error)
	assert.Equal(t, 0, result.ImportedRecords)
	assert.Empty(t, result.RollbackID)
	assert.Empty(t, audit.entries, "failed imports are not audited")
}

func TestImport_InsertFailureRollsBackPartialWrites(t *testing.T) {
	var deleted []domain.RecordRef
	records := &mockRecordStore{
		insertBatch: func(context.Context, domain.Family, []domain.Record) error {
			return errors.New("disk full")
		},
		deleteBatch: func(_ context.Context, refs []domain.RecordRef) error {
			deleted = append(deleted, refs...)
			return nil
		},
	}
	rollbacks := &mockRollbackRepo{
		create: func(context.Context, domain.RollbackManifest) error {
			t.Fatal("no manifest should persist for a failed import")
			return nil
		},
	}
	svc := newImportService(records, rollbacks, &mockAuditRepo{})

	result := svc.Import(context.Background(), loansCSV, domain.FormatCSV, domain.FamilyLoans, "admin")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "disk full")
	assert.Equal(t, 0, result.ImportedRecords)
	assert.Len(t, deleted, 2, "the refs queued before the failed batch are cleaned up")
}

func TestImport_ManifestFailureIsNonFatal(t *testing.T) {
	rollbacks := &mockRollbackRepo{
		create: func(context.Context, domain.RollbackManifest) error {
			return errors.New("manifest store down")
		},
	}
	svc := newImportService(&mockRecordStore{}, rollbacks, &mockAuditRepo{})

	result := svc.Import(context.Background(), loansCSV, domain.FormatCSV, domain.FamilyLoans, "admin")

	assert.True(t, result.Success, "the records are in; only undo is unavailable")
	assert.Equal(t, 2, result.ImportedRecords)
	assert.Empty(t, result.RollbackID)
}

// availableManifest returns a fresh two-record manifest.
func availableManifest() domain.RollbackManifest {
	now := time.Now().UTC()
	return domain.RollbackManifest{
		ID:     "rb-1",
		Family: domain.FamilyLoans,
		Records: []domain.RecordRef{
			{ID: "r-1", Collection: "loans"},
			{ID: "r-2", Collection: "loans"},
		},
		CreatedBy: "admin",
		CreatedAt: now,
		ExpiresAt: now.Add(domain.RollbackRetention),
		Status:    domain.RollbackAvailable,
	}
}

func TestExecuteRollback(t *testing.T) {
	manifest := availableManifest()
	var deleted []domain.RecordRef
	records := &mockRecordStore{
		deleteBatch: func(_ context.Context, refs []domain.RecordRef) error {
			deleted = append(deleted, refs...)
			return nil
		},
	}
	var consumedWith domain.RollbackStatus
	rollbacks := &mockRollbackRepo{
		get: func(_ context.Context, id string) (domain.RollbackManifest, error) {
			assert.Equal(t, "rb-1", id)
			return manifest, nil
		},
		markConsumed: func(_ context.Context, _ string, status domain.RollbackStatus) error {
			consumedWith = status
			return nil
		},
	}
	audit := &mockAuditRepo{}
	svc := newImportService(records, rollbacks, audit)

	result := svc.ExecuteRollback(context.Background(), "rb-1", "admin")

	require.True(t, result.Success)
	assert.Equal(t, 2, result.DeletedCount)
	assert.Equal(t, manifest.Records, deleted)
	assert.Equal(t, domain.RollbackExecuted, consumedWith)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, domain.AuditRollback, audit.entries[0].Operation)
	assert.Equal(t, true, audit.entries[0].Details["success"])
}

func TestExecuteRollback_NotFound(t *testing.T) {
	svc := newImportService(&mockRecordStore{}, &mockRollbackRepo{}, &mockAuditRepo{})

	result := svc.ExecuteRollback(context.Background(), "missing", "admin")
	assert.False(t, result.Success)
	assert.Equal(t, "rollback manifest not found", result.Error)
}

func TestExecuteRollback_AlreadyExecuted(t *testing.T) {
	manifest := availableManifest()
	manifest.Status = domain.RollbackExecuted
	rollbacks := &mockRollbackRepo{
		get: func(context.Context, string) (domain.RollbackManifest, error) { return manifest, nil },
	}
	records := &mockRecordStore{
		deleteBatch: func(context.Context, []domain.RecordRef) error {
			t.Fatal("consumed manifests must not delete anything")
			return nil
		},
	}
	svc := newImportService(records, rollbacks, &mockAuditRepo{})

	result := svc.ExecuteRollback(context.Background(), "rb-1", "admin")
	assert.False(t, result.Success)
	assert.Equal(t, "rollback was already executed", result.Error)
}

func TestExecuteRollback_Expired(t *testing.T) {
	manifest := availableManifest()
	manifest.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	rollbacks := &mockRollbackRepo{
		get: func(context.Context, string) (domain.RollbackManifest, error) { return manifest, nil },
	}
	svc := newImportService(&mockRecordStore{}, rollbacks, &mockAuditRepo{})

	result := svc.ExecuteRollback(context.Background(), "rb-1", "admin")
	assert.False(t, result.Success)
	assert.Equal(t, "rollback manifest expired", result.Error)
}

func TestExecuteRollback_DeleteFailure(t *testing.T) {
	manifest := availableManifest()
	records := &mockRecordStore{
		deleteBatch: func(context.Context, []domain.RecordRef) error {
			return errors.New("store down")
		},
	}
	var consumedWith domain.RollbackStatus
	rollbacks := &mockRollbackRepo{
		get: func(context.Context, string) (domain.RollbackManifest, error) { return manifest, nil },
		markConsumed: func(_ context.Context, _ string, status domain.RollbackStatus) error {
			consumedWith = status
			return nil
		},
	}
	audit := &mockAuditRepo{}
	svc := newImportService(records, rollbacks, audit)

	result := svc.ExecuteRollback(context.Background(), "rb-1", "admin")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "store down")
	assert.Equal(t, 0, result.DeletedCount)
	assert.Equal(t, domain.RollbackFailed, consumedWith)

	require.Len(t, audit.entries, 1, "failed rollbacks are audited too")
	assert.Equal(t, false, audit.entries[0].Details["success"])
}
