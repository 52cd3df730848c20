package service_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkordes/lendstation/backend/internal/domain"
	"github.com/pkordes/lendstation/backend/internal/repo"
	"github.com/pkordes/lendstation/backend/internal/service"
)

// The doubles below are hand-written: each method is a function field, and
// tests set only the ones they need. Unset methods default to benign no-ops
// so tests stay focused on the path under test.

// mockRecordStore is a test double for repo.RecordStore.
type mockRecordStore struct {
	query       func(ctx context.Context, family domain.Family, dr *domain.DateRange, equality map[string]string) ([]domain.Record, error)
	deleteBatch func(ctx context.Context, refs []domain.RecordRef) error
	insertBatch func(ctx context.Context, family domain.Family, records []domain.Record) error
	upsertBatch func(ctx context.Context, records []domain.Record) error
}

func (m *mockRecordStore) Query(ctx context.Context, family domain.Family, dr *domain.DateRange, equality map[string]string) ([]domain.Record, error) {
	if m.query == nil {
		return nil, nil
	}
	return m.query(ctx, family, dr, equality)
}

func (m *mockRecordStore) DeleteBatch(ctx context.Context, refs []domain.RecordRef) error {
	if m.deleteBatch == nil {
		return nil
	}
	return m.deleteBatch(ctx, refs)
}

func (m *mockRecordStore) InsertBatch(ctx context.Context, family domain.Family, records []domain.Record) error {
	if m.insertBatch == nil {
		return nil
	}
	return m.insertBatch(ctx, family, records)
}

func (m *mockRecordStore) UpsertBatch(ctx context.Context, records []domain.Record) error {
	if m.upsertBatch == nil {
		return nil
	}
	return m.upsertBatch(ctx, records)
}

var _ repo.RecordStore = (*mockRecordStore)(nil)

// mockBackupRepo is a test double for repo.BackupRepo.
type mockBackupRepo struct {
	create       func(ctx context.Context, archive domain.BackupArchive) error
	get          func(ctx context.Context, id string) (domain.BackupArchive, error)
	markRestored func(ctx context.Context, id string) error
	expireStale  func(ctx context.Context, now time.Time) (int, error)
}

func (m *mockBackupRepo) Create(ctx context.Context, archive domain.BackupArchive) error {
	if m.create == nil {
		return nil
	}
	return m.create(ctx, archive)
}

func (m *mockBackupRepo) Get(ctx context.Context, id string) (domain.BackupArchive, error) {
	if m.get == nil {
		return domain.BackupArchive{}, domain.ErrNotFound
	}
	return m.get(ctx, id)
}

func (m *mockBackupRepo) MarkRestored(ctx context.Context, id string) error {
	if m.markRestored == nil {
		return nil
	}
	return m.markRestored(ctx, id)
}

func (m *mockBackupRepo) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	if m.expireStale == nil {
		return 0, nil
	}
	return m.expireStale(ctx, now)
}

var _ repo.BackupRepo = (*mockBackupRepo)(nil)

// mockRollbackRepo is a test double for repo.RollbackRepo.
type mockRollbackRepo struct {
	create       func(ctx context.Context, manifest domain.RollbackManifest) error
	get          func(ctx context.Context, id string) (domain.RollbackManifest, error)
	markConsumed func(ctx context.Context, id string, status domain.RollbackStatus) error
}

func (m *mockRollbackRepo) Create(ctx context.Context, manifest domain.RollbackManifest) error {
	if m.create == nil {
		return nil
	}
	return m.create(ctx, manifest)
}

func (m *mockRollbackRepo) Get(ctx context.Context, id string) (domain.RollbackManifest, error) {
	if m.get == nil {
		return domain.RollbackManifest{}, domain.ErrNotFound
	}
	return m.get(ctx, id)
}

func (m *mockRollbackRepo) MarkConsumed(ctx context.Context, id string, status domain.RollbackStatus) error {
	if m.markConsumed == nil {
		return nil
	}
	return m.markConsumed(ctx, id, status)
}

var _ repo.RollbackRepo = (*mockRollbackRepo)(nil)

// mockAuditRepo records appended entries for assertions.
type mockAuditRepo struct {
	appendErr error
	entries   []domain.AuditEntry
}

func (m *mockAuditRepo) Append(_ context.Context, entry domain.AuditEntry) (string, error) {
	if m.appendErr != nil {
		return "", m.appendErr
	}
	m.entries = append(m.entries, entry)
	return "audit-1", nil
}

func (m *mockAuditRepo) List(context.Context, int) ([]domain.AuditEntry, error) {
	return m.entries, nil
}

var _ repo.AuditRepo = (*mockAuditRepo)(nil)

// mockMirror records uploads for assertions.
type mockMirror struct {
	uploadErr error
	keys      []string
}

func (m *mockMirror) Upload(_ context.Context, key string, _ []byte) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.keys = append(m.keys, key)
	return nil
}

var _ service.Mirror = (*mockMirror)(nil)

// testLogger discards output; tests assert on results, not log lines.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
