package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/lendstation/backend/internal/domain"
)

// RollbackRepo persists import rollback manifests.
type RollbackRepo interface {
	// Create inserts a new manifest with a caller-assigned id.
	Create(ctx context.Context, manifest domain.RollbackManifest) error

	// Get retrieves a manifest by id. Returns domain.ErrNotFound if no
	// manifest with that id exists.
	Get(ctx context.Context, id string) (domain.RollbackManifest, error)

	// MarkConsumed flips an available manifest to executed or failed.
	// Returns domain.ErrConflict if the manifest was already consumed, so
	// a manifest is executed at most once.
	MarkConsumed(ctx context.Context, id string, status domain.RollbackStatus) error
}

// pgRollbackRepo is the Postgres implementation of RollbackRepo.
type pgRollbackRepo struct {
	db db
}

// NewRollbackRepo constructs a RollbackRepo backed by the provided db
// connection.
func NewRollbackRepo(db db) RollbackRepo {
	return &pgRollbackRepo{db: db}
}

// Create inserts a new rollback manifest row.
func (r *pgRollbackRepo) Create(ctx context.Context, manifest domain.RollbackManifest) error {
	const q = `
		INSERT INTO import_rollbacks
			(id, data_type, records, created_by, created_at, expires_at, status)
		VALUES
			(@id, @data_type, @records, @created_by, @created_at, @expires_at, @status)`

	records, err := json.Marshal(manifest.Records)
	if err != nil {
		return fmt.Errorf("repo.RollbackRepo.Create: marshal records: %w", err)
	}

	args := pgx.NamedArgs{
		"id":         manifest.ID,
		"data_type":  string(manifest.Family),
		"records":    records,
		"created_by": manifest.CreatedBy,
		"created_at": manifest.CreatedAt,
		"expires_at": manifest.ExpiresAt,
		"status":     string(manifest.Status),
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.RollbackRepo.Create: %w", err)
	}
	return nil
}

// Get retrieves a rollback manifest by primary key.
func (r *pgRollbackRepo) Get(ctx context.Context, id string) (domain.RollbackManifest, error) {
	const q = `
		SELECT id, data_type, records, created_by, created_at, expires_at, status
		FROM import_rollbacks
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})

	var (
		m        domain.RollbackManifest
		dataType string
		records  []byte
		status   string
	)
	err := row.Scan(&m.ID, &dataType, &records, &m.CreatedBy, &m.CreatedAt, &m.ExpiresAt, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RollbackManifest{}, fmt.Errorf("repo.RollbackRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.RollbackManifest{}, fmt.Errorf("repo.RollbackRepo.Get: %w", err)
	}

	m.Family = domain.Family(dataType)
	m.Status = domain.RollbackStatus(status)
	if err := json.Unmarshal(records, &m.Records); err != nil {
		return domain.RollbackManifest{}, fmt.Errorf("repo.RollbackRepo.Get: unmarshal records: %w", err)
	}

	return m, nil
}

// MarkConsumed flips status available → executed|failed, guarding against a
// second execution at the database level.
func (r *pgRollbackRepo) MarkConsumed(ctx context.Context, id string, status domain.RollbackStatus) error {
	const q = `
		UPDATE import_rollbacks
		SET status = @status
		WHERE id = @id AND status = 'available'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": string(status)})
	if err != nil {
		return fmt.Errorf("repo.RollbackRepo.MarkConsumed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RollbackRepo.MarkConsumed: %w", domain.ErrConflict)
	}
	return nil
}
