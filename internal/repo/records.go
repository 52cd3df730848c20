// Package repo contains all database access logic for the Lendstation data
// management service. The three record families live in JSONB document
// tables; three bookkeeping tables (backup archives, import rollbacks, audit
// log) are owned by this service. No business logic lives here — only SQL
// and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/lendstation/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and
// pgx.Tx. Accepting this interface instead of *pgxpool.Pool directly allows
// integration tests to pass a transaction that is rolled back after each
// test, giving free per-test isolation without any manual cleanup.
// Begin is needed because batched writes run inside their own transaction;
// on a pgx.Tx it opens a savepoint, so test isolation still holds.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RecordStore defines the persistence operations over the family document
// collections. The service layer depends on this interface, not the concrete
// Postgres implementation, which allows the engines to be unit-tested with
// mocks.
//
// DeleteBatch, InsertBatch, and UpsertBatch are each atomic within a single
// call (one transaction). Chunking a large operation into multiple calls is
// the caller's job, and a multi-call sequence is best-effort only: a failure
// in call k leaves calls 1..k-1 committed. That is exactly why the delete
// engine archives everything before the first call.
type RecordStore interface {
	// Query returns all records of the family, optionally bounded by an
	// inclusive date range on the family's date anchor field and filtered
	// by field equality, ordered by creation time descending.
	Query(ctx context.Context, family domain.Family, dr *domain.DateRange, equality map[string]string) ([]domain.Record, error)

	// DeleteBatch removes every referenced document. All-or-nothing.
	DeleteBatch(ctx context.Context, refs []domain.RecordRef) error

	// InsertBatch writes new documents with caller-assigned ids.
	// All-or-nothing.
	InsertBatch(ctx context.Context, family domain.Family, records []domain.Record) error

	// UpsertBatch re-inserts documents verbatim into their original
	// collections, overwriting any document that still exists under the
	// same id. Restore uses this so recovering a partially deleted set is
	// idempotent. All-or-nothing.
	UpsertBatch(ctx context.Context, records []domain.Record) error
}

// pgRecordStore is the Postgres implementation of RecordStore.
type pgRecordStore struct {
	db db
}

// NewRecordStore constructs a RecordStore backed by the provided db
// connection. In production pass *pgxpool.Pool; in tests pass a pgx.Tx for
// rollback isolation.
func NewRecordStore(db db) RecordStore {
	return &pgRecordStore{db: db}
}

// collectionTable validates a collection name against the known family
// tables. Collection names end up interpolated into SQL, so only the fixed
// set is ever accepted.
func collectionTable(collection string) (string, error) {
	if _, err := domain.ParseFamily(collection); err != nil {
		return "", fmt.Errorf("unknown collection %q", collection)
	}
	return collection, nil
}

// Query returns family records ordered by creation time descending.
func (s *pgRecordStore) Query(ctx context.Context, family domain.Family, dr *domain.DateRange, equality map[string]string) ([]domain.Record, error) {
	table, err := collectionTable(family.Collection())
	if err != nil {
		return nil, fmt.Errorf("repo.RecordStore.Query: %w", err)
	}

	q := fmt.Sprintf(`SELECT id, doc FROM %s`, table)
	args := pgx.NamedArgs{}
	var conds []string

	if dr != nil {
		// Inclusive on both bounds. The anchor name comes from the fixed
		// per-family table, never from caller input.
		anchor := family.DateAnchor()
		conds = append(conds,
			fmt.Sprintf(`(doc->>'%s')::timestamptz >= @range_start`, anchor),
			fmt.Sprintf(`(doc->>'%s')::timestamptz <= @range_end`, anchor),
		)
		args["range_start"] = dr.Start
		args["range_end"] = dr.End
	}

	i := 0
	for field, value := range equality {
		if field != "status" && field != "category" {
			return nil, fmt.Errorf("repo.RecordStore.Query: unsupported filter field %q", field)
		}
		name := fmt.Sprintf("eq_%d", i)
		conds = append(conds, fmt.Sprintf(`doc->>'%s' = @%s`, field, name))
		args[name] = value
		i++
	}

	for j, c := range conds {
		if j == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.RecordStore.Query: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows, family)
		if err != nil {
			return nil, fmt.Errorf("repo.RecordStore.Query: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RecordStore.Query: rows: %w", err)
	}

	return records, nil
}

// DeleteBatch removes the referenced documents inside one transaction.
func (s *pgRecordStore) DeleteBatch(ctx context.Context, refs []domain.RecordRef) error {
	if len(refs) == 0 {
		return nil
	}

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		for _, ref := range refs {
			table, err := collectionTable(ref.Collection)
			if err != nil {
				return err
			}
			q := fmt.Sprintf(`DELETE FROM %s WHERE id = @id`, table)
			if _, err := tx.Exec(ctx, q, pgx.NamedArgs{"id": ref.ID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.RecordStore.DeleteBatch: %w", err)
	}
	return nil
}

// InsertBatch writes new documents with caller-assigned ids inside one
// transaction.
func (s *pgRecordStore) InsertBatch(ctx context.Context, family domain.Family, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	table, err := collectionTable(family.Collection())
	if err != nil {
		return fmt.Errorf("repo.RecordStore.InsertBatch: %w", err)
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		q := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES (@id, @doc)`, table)
		for _, rec := range records {
			doc, err := json.Marshal(rec.Data)
			if err != nil {
				return fmt.Errorf("marshal doc: %w", err)
			}
			if _, err := tx.Exec(ctx, q, pgx.NamedArgs{"id": rec.ID, "doc": doc}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.RecordStore.InsertBatch: %w", err)
	}
	return nil
}

// UpsertBatch re-inserts documents into their original collections inside
// one transaction, overwriting on id conflict.
func (s *pgRecordStore) UpsertBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		for _, rec := range records {
			table, err := collectionTable(rec.Collection)
			if err != nil {
				return err
			}
			doc, err := json.Marshal(rec.Data)
			if err != nil {
				return fmt.Errorf("marshal doc: %w", err)
			}
			q := fmt.Sprintf(`
				INSERT INTO %s (id, doc) VALUES (@id, @doc)
				ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`, table)
			if _, err := tx.Exec(ctx, q, pgx.NamedArgs{"id": rec.ID, "doc": doc}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.RecordStore.UpsertBatch: %w", err)
	}
	return nil
}

// inTx runs fn inside a transaction: rollback on error, commit on success.
// On a pgx.Tx the inner Begin opens a savepoint, so nesting is safe.
func (s *pgRecordStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord maps one (id, doc) row into a domain.Record.
func scanRecord(s scanner, family domain.Family) (domain.Record, error) {
	var (
		id  pgtype.UUID
		doc []byte
	)
	if err := s.Scan(&id, &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Record{}, domain.ErrNotFound
		}
		return domain.Record{}, err
	}

	var data map[string]any
	if err := json.Unmarshal(doc, &data); err != nil {
		return domain.Record{}, fmt.Errorf("unmarshal doc: %w", err)
	}

	return domain.Record{
		ID:         uuid.UUID(id.Bytes).String(),
		Family:     family,
		Collection: family.Collection(),
		Data:       data,
	}, nil
}
