package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/lendstation/backend/internal/domain"
	"github.com/pkordes/lendstation/backend/internal/repo"
	"github.com/pkordes/lendstation/backend/testutil"
)

// newTestTx opens a transaction against the test database and rolls it back
// when the test finishes, giving free per-test isolation. Repos constructed
// on the returned tx run their batch transactions as savepoints.
//
// Requires TEST_DATABASE_URL to be set; migrations are applied by TestMain.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		// Rollback discards all changes made during the test — no cleanup SQL needed.
		_ = tx.Rollback(context.Background())
	})

	return tx
}

// loanRecord returns a loan document with the given borrow date.
// Callers override fields on Data as needed.
func loanRecord(borrowDate time.Time) domain.Record {
	return domain.Record{
		ID:         uuid.NewString(),
		Family:     domain.FamilyLoans,
		Collection: "loans",
		Data: map[string]any{
			"equipmentId":        uuid.NewString(),
			"equipmentName":      "Canon EOS R5",
			"userId":             uuid.NewString(),
			"userName":           "Dana Field",
			"borrowDate":         borrowDate.UTC().Format(time.RFC3339),
			"expectedReturnDate": borrowDate.UTC().AddDate(0, 0, 14).Format(time.RFC3339),
			"status":             "active",
			"createdAt":          borrowDate.UTC().Format(time.RFC3339),
		},
	}
}

func TestRecordStore_InsertAndQuery(t *testing.T) {
	tx := newTestTx(t)
	store := repo.NewRecordStore(tx)
	ctx := context.Background()

	rec := loanRecord(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertBatch(ctx, domain.FamilyLoans, []domain.Record{rec}))

	got, err := store.Query(ctx, domain.FamilyLoans, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, "loans", got[0].Collection)
	assert.Equal(t, "Canon EOS R5", got[0].Data["equipmentName"])
}

func TestRecordStore_Query_DateRangeInclusive(t *testing.T) {
	tx := newTestTx(t)
	store := repo.NewRecordStore(tx)
	ctx := context.Background()

	// One record exactly on each bound, one inside, one on each side outside.
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	onStart := loanRecord(start)
	inside := loanRecord(time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC))
	onEnd := loanRecord(end)
	before := loanRecord(time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC))
	after := loanRecord(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	all := []domain.Record{onStart, inside, onEnd, before, after}
	require.NoError(t, store.InsertBatch(ctx, domain.FamilyLoans, all))

	got, err := store.Query(ctx, domain.FamilyLoans, &domain.DateRange{Start: start, End: end}, nil)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.ElementsMatch(t, []string{onStart.ID, inside.ID, onEnd.ID}, ids,
		"both bounds are inclusive; neighbors outside the range must not match")
}

func TestRecordStore_Query_EqualityFilter(t *testing.T) {
	tx := newTestTx(t)
	store := repo.NewRecordStore(tx)
	ctx := context.Background()

	active := loanRecord(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	returned := loanRecord(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	returned.Data["status"] = "returned"

	require.NoError(t, store.InsertBatch(ctx, domain.FamilyLoans, []domain.Record{active, returned}))

	got, err := store.Query(ctx, domain.FamilyLoans, nil, map[string]string{"status": "returned"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, returned.ID, got[0].ID)
}

func TestRecordStore_Query_RejectsUnknownFilterField(t *testing.T) {
	tx := newTestTx(t)
	store := repo.NewRecordStore(tx)

	_, err := store.Query(context.Background(), domain.FamilyLoans, nil, map[string]string{"userName": "Dana"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported filter field")
}

func TestRecordStore_DeleteBatch(t *testing.T) {
	tx := newTestTx(t)
	store := repo.NewRecordStore(tx)
	ctx := context.Background()

	keep := loanRecord(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	drop := loanRecord(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertBatch(ctx, domain.FamilyLoans, []domain.Record{keep, drop}))

	require.NoError(t, store.DeleteBatch(ctx, []domain.RecordRef{drop.Ref()}))

	got, err := store.Query(ctx, domain.FamilyLoans, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)
}

func TestRecordStore_UpsertBatch_Idempotent(t *testing.T) {
	tx := newTestTx(t)
	store := repo.NewRecordStore(tx)
	ctx := context.Background()

	rec := loanRecord(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertBatch(ctx, domain.FamilyLoans, []domain.Record{rec}))

	// Restoring over an existing record overwrites instead of failing,
	// so a retried restore converges on the archived state.
	rec.Data["status"] = "returned"
	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{rec}))
	require.NoError(t, store.UpsertBatch(ctx, []domain.Record{rec}))

	got, err := store.Query(ctx, domain.FamilyLoans, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "returned", got[0].Data["status"])
}

func TestRecordStore_EmptyBatchesAreNoOps(t *testing.T) {
	tx := newTestTx(t)
	store := repo.NewRecordStore(tx)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, domain.FamilyLoans, nil))
	require.NoError(t, store.DeleteBatch(ctx, nil))
	require.NoError(t, store.UpsertBatch(ctx, nil))
}
