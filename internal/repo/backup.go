package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/lendstation/backend/internal/domain"
)

// BackupRepo persists pre-delete backup archives.
type BackupRepo interface {
	// Create inserts a new archive with a caller-assigned id.
	Create(ctx context.Context, archive domain.BackupArchive) error

	// Get retrieves an archive by id. Returns domain.ErrNotFound if no
	// archive with that id exists.
	Get(ctx context.Context, id string) (domain.BackupArchive, error)

	// MarkRestored flips an archive from available to restored. Returns
	// domain.ErrConflict if the archive is not in the available state, so
	// an archive can be restored at most once.
	MarkRestored(ctx context.Context, id string) error

	// ExpireStale marks every available archive whose retention window has
	// passed as expired, returning how many were flipped.
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

// pgBackupRepo is the Postgres implementation of BackupRepo.
type pgBackupRepo struct {
	db db
}

// NewBackupRepo constructs a BackupRepo backed by the provided db connection.
func NewBackupRepo(db db) BackupRepo {
	return &pgBackupRepo{db: db}
}

// Create inserts a new backup archive row.
func (r *pgBackupRepo) Create(ctx context.Context, archive domain.BackupArchive) error {
	const q = `
		INSERT INTO backup_archives
			(id, archive_type, data_types, date_range, record_count, records,
			 created_by, created_at, expires_at, status)
		VALUES
			(@id, @archive_type, @data_types, @date_range, @record_count, @records,
			 @created_by, @created_at, @expires_at, @status)`

	records, err := json.Marshal(archive.Records)
	if err != nil {
		return fmt.Errorf("repo.BackupRepo.Create: marshal records: %w", err)
	}
	dateRange, err := marshalDateRange(archive.DateRange)
	if err != nil {
		return fmt.Errorf("repo.BackupRepo.Create: %w", err)
	}

	dataTypes := make([]string, len(archive.DataTypes))
	for i, f := range archive.DataTypes {
		dataTypes[i] = string(f)
	}

	args := pgx.NamedArgs{
		"id":           archive.ID,
		"archive_type": archive.ArchiveType,
		"data_types":   dataTypes,
		"date_range":   dateRange, // nil becomes NULL
		"record_count": archive.RecordCount,
		"records":      records,
		"created_by":   archive.CreatedBy,
		"created_at":   archive.CreatedAt,
		"expires_at":   archive.ExpiresAt,
		"status":       string(archive.Status),
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.BackupRepo.Create: %w", err)
	}
	return nil
}

// Get retrieves a backup archive by primary key.
func (r *pgBackupRepo) Get(ctx context.Context, id string) (domain.BackupArchive, error) {
	const q = `
		SELECT id, archive_type, data_types, date_range, record_count, records,
		       created_by, created_at, expires_at, status
		FROM backup_archives
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})

	var (
		a         domain.BackupArchive
		dataTypes []string
		dateRange []byte
		records   []byte
		status    string
	)
	err := row.Scan(&a.ID, &a.ArchiveType, &dataTypes, &dateRange, &a.RecordCount,
		&records, &a.CreatedBy, &a.CreatedAt, &a.ExpiresAt, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BackupArchive{}, fmt.Errorf("repo.BackupRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.BackupArchive{}, fmt.Errorf("repo.BackupRepo.Get: %w", err)
	}

	a.Status = domain.BackupStatus(status)
	a.DataTypes = make([]domain.Family, len(dataTypes))
	for i, s := range dataTypes {
		a.DataTypes[i] = domain.Family(s)
	}
	if len(dateRange) > 0 {
		var dr domain.DateRange
		if err := json.Unmarshal(dateRange, &dr); err != nil {
			return domain.BackupArchive{}, fmt.Errorf("repo.BackupRepo.Get: unmarshal date range: %w", err)
		}
		a.DateRange = &dr
	}
	if err := json.Unmarshal(records, &a.Records); err != nil {
		return domain.BackupArchive{}, fmt.Errorf("repo.BackupRepo.Get: unmarshal records: %w", err)
	}

	return a, nil
}

// MarkRestored flips status available → restored, guarding against a second
// restore at the database level.
func (r *pgBackupRepo) MarkRestored(ctx context.Context, id string) error {
	const q = `
		UPDATE backup_archives
		SET status = 'restored'
		WHERE id = @id AND status = 'available'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.BackupRepo.MarkRestored: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BackupRepo.MarkRestored: %w", domain.ErrConflict)
	}
	return nil
}

// ExpireStale marks past-expiry available archives as expired.
func (r *pgBackupRepo) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	const q = `
		UPDATE backup_archives
		SET status = 'expired'
		WHERE status = 'available' AND expires_at < @now`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"now": now})
	if err != nil {
		return 0, fmt.Errorf("repo.BackupRepo.ExpireStale: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// marshalDateRange encodes an optional date range as JSONB, keeping NULL for
// absent ranges.
func marshalDateRange(dr *domain.DateRange) ([]byte, error) {
	if dr == nil {
		return nil, nil
	}
	b, err := json.Marshal(dr)
	if err != nil {
		return nil, fmt.Errorf("marshal date range: %w", err)
	}
	return b, nil
}
