// Package service contains the data-management engines: export, import with
// undo, and confirmation-gated delete with pre-delete backup and
// restore-on-failure. Engines validate inputs, enforce the operation
// contracts, and orchestrate repo calls. No SQL lives here — engines depend
// on repo interfaces, not implementations.
//
// No error ever escapes a public engine operation: every method converts
// failures into its typed result object with Success=false and a
// human-readable Error message.
package service

import (
	"context"
	"log/slog"

	"github.com/pkordes/lendstation/backend/internal/domain"
	"github.com/pkordes/lendstation/backend/internal/repo"
)

// batchSize is the store-imposed limit on operations per atomic batch.
// Engines chunk larger sets into sequential batches of this size; the
// multi-batch sequence as a whole is best-effort, not atomic.
const batchSize = 500

// Mirror uploads a serialized artifact to offsite storage. Engines treat a
// nil Mirror as disabled and every upload failure as non-fatal.
type Mirror interface {
	Upload(ctx context.Context, key string, body []byte) error
}

// appendAudit writes one audit entry and returns its id. A logging failure
// must never fail the operation being audited — the operation's outcome is
// decided before this is called — so failures are logged and swallowed.
func appendAudit(ctx context.Context, log *slog.Logger, audit repo.AuditRepo, entry domain.AuditEntry) string {
	id, err := audit.Append(ctx, entry)
	if err != nil {
		log.WarnContext(ctx, "audit log write failed",
			"operation", string(entry.Operation),
			"error", err,
		)
		return ""
	}
	return id
}

// chunkRefs splits refs into batches of at most batchSize.
func chunkRefs(refs []domain.RecordRef) [][]domain.RecordRef {
	var out [][]domain.RecordRef
	for len(refs) > batchSize {
		out = append(out, refs[:batchSize])
		refs = refs[batchSize:]
	}
	if len(refs) > 0 {
		out = append(out, refs)
	}
	return out
}

// chunkRecords splits records into batches of at most batchSize.
func chunkRecords(records []domain.Record) [][]domain.Record {
	var out [][]domain.Record
	for len(records) > batchSize {
		out = append(out, records[:batchSize])
		records = records[batchSize:]
	}
	if len(records) > 0 {
		out = append(out, records)
	}
	return out
}
