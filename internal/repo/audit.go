package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/lendstation/backend/internal/domain"
)

// AuditRepo appends to and reads the append-only data-management audit log.
// Entries are never updated or deleted.
type AuditRepo interface {
	// Append writes one audit entry and returns its generated id.
	Append(ctx context.Context, entry domain.AuditEntry) (string, error)

	// List returns the most recent entries, newest first, capped at limit.
	List(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// pgAuditRepo is the Postgres implementation of AuditRepo.
type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo backed by the provided db connection.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

// Append inserts one audit row and returns the DB-generated id.
func (r *pgAuditRepo) Append(ctx context.Context, entry domain.AuditEntry) (string, error) {
	const q = `
		INSERT INTO audit_log (operation, actor, details)
		VALUES (@operation, @actor, @details)
		RETURNING id`

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return "", fmt.Errorf("repo.AuditRepo.Append: marshal details: %w", err)
	}

	args := pgx.NamedArgs{
		"operation": string(entry.Operation),
		"actor":     entry.Actor,
		"details":   details,
	}

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, args).Scan(&id); err != nil {
		return "", fmt.Errorf("repo.AuditRepo.Append: %w", err)
	}
	return uuid.UUID(id.Bytes).String(), nil
}

// List returns the newest entries first. The limit is clamped to 1..500.
func (r *pgAuditRepo) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	const q = `
		SELECT id, operation, actor, details, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.List: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e         domain.AuditEntry
			id        pgtype.UUID
			operation string
			details   []byte
		)
		if err := rows.Scan(&id, &operation, &e.Actor, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo.AuditRepo.List: scan: %w", err)
		}
		e.ID = uuid.UUID(id.Bytes).String()
		e.Operation = domain.AuditOperation(operation)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("repo.AuditRepo.List: unmarshal details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.List: rows: %w", err)
	}

	return entries, nil
}
