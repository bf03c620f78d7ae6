package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

func newTestRepo(t *testing.T, batchSize int) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path, batchSize)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestMigrationsApplied(t *testing.T) {
	repo, path := newTestRepo(t, 0)
	assert.Equal(t, records.DefaultMaxBatchSize, repo.MaxBatchSize())

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// reopening an existing database is a no-op migration
	again, err := NewSQLiteRepository(path, 10)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 10, again.MaxBatchSize())
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t, 0)

	in := core.Transaction{
		OwnerID:           "owner-1",
		Date:              core.NewDate(2024, 5, 10),
		Kind:              core.Expense,
		Category:          "food",
		Label:             "점심",
		Amount:            9000,
		Note:              "team lunch",
		PaymentInstrument: "credit_card",
		PaymentMethod:     "kakaopay",
	}
	id, err := repo.InsertTransaction(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	list, err := repo.ListTransactions(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	in.ID = id
	assert.Equal(t, in, list[0])

	other, err := repo.ListTransactions(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	in.Amount = 12000
	in.Category = "culture"
	require.NoError(t, repo.UpdateTransaction(ctx, "owner-1", id, in))
	list, _ = repo.ListTransactions(ctx, "owner-1")
	assert.Equal(t, int64(12000), list[0].Amount)
	assert.Equal(t, "culture", list[0].Category)

	err = repo.UpdateTransaction(ctx, "owner-2", id, in)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

	require.NoError(t, repo.DeleteTransaction(ctx, "owner-1", id))
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, "owner-1", id), core.ErrNotFound)
}

func TestFixedItemRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t, 0)

	id, err := repo.InsertFixedItem(ctx, core.FixedItemVersion{
		OwnerID:         "owner-1",
		FixedItemFields: core.FixedItemFields{Group: "주거", Name: "월세", Amount: 800000, Kind: core.Expense},
		EffectiveFrom:   "2024-01",
	})
	require.NoError(t, err)

	legacy, err := repo.InsertFixedItem(ctx, core.FixedItemVersion{
		OwnerID:         "owner-1",
		FixedItemFields: core.FixedItemFields{Group: core.DefaultGroup, Name: "Salary", Amount: 3000000, Kind: core.Income},
	})
	require.NoError(t, err)

	list, err := repo.ListFixedItems(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0].ID)
	assert.Nil(t, list[0].EffectiveTo)
	assert.Equal(t, legacy, list[1].ID)
	assert.Equal(t, core.AlwaysActive, list[1].EffectiveFrom)

	to := core.MonthKey("2024-05")
	require.NoError(t, repo.UpdateFixedItem(ctx, "owner-1", id, records.FixedItemPatch{EffectiveTo: &to}))

	fields := core.FixedItemFields{Group: "주거", Name: "월세", Amount: 850000, Kind: core.Expense, Note: "renewed"}
	require.NoError(t, repo.UpdateFixedItem(ctx, "owner-1", legacy, records.FixedItemPatch{Fields: &fields}))

	list, _ = repo.ListFixedItems(ctx, "owner-1")
	require.NotNil(t, list[0].EffectiveTo)
	assert.Equal(t, to, *list[0].EffectiveTo)
	assert.Equal(t, int64(850000), list[1].Amount)
	assert.Equal(t, "renewed", list[1].Note)

	assert.ErrorIs(t, repo.UpdateFixedItem(ctx, "owner-2", id, records.FixedItemPatch{EffectiveTo: &to}), core.ErrNotFound)
	require.NoError(t, repo.DeleteFixedItem(ctx, "owner-1", id))
	assert.ErrorIs(t, repo.DeleteFixedItem(ctx, "owner-1", id), core.ErrNotFound)
}

func TestBatchOperations(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t, 3)

	var ids []string
	for i := 0; i < 4; i++ {
		id, err := repo.InsertFixedItem(ctx, core.FixedItemVersion{
			OwnerID:         "owner-1",
			FixedItemFields: core.FixedItemFields{Group: core.DefaultGroup, Name: fmt.Sprintf("item-%d", i), Amount: 100, Kind: core.Expense},
			EffectiveFrom:   "2024-01",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	assert.ErrorIs(t, repo.BatchDeleteFixedItems(ctx, "owner-1", ids), records.ErrBatchTooLarge)

	cutover := core.MonthKey("2025-01")
	err := repo.BatchUpdateFixedItems(ctx, "owner-1", []records.FixedItemUpdate{
		{ID: ids[0], Patch: records.FixedItemPatch{EffectiveFrom: &cutover}},
		{ID: ids[1], Patch: records.FixedItemPatch{EffectiveFrom: &cutover}},
		{ID: "missing", Patch: records.FixedItemPatch{EffectiveFrom: &cutover}},
	})
	require.NoError(t, err)

	require.NoError(t, repo.BatchDeleteFixedItems(ctx, "owner-1", []string{ids[2], ids[3], "missing"}))
	// a repeated chunk is harmless
	require.NoError(t, repo.BatchDeleteFixedItems(ctx, "owner-1", []string{ids[2], ids[3]}))

	list, err := repo.ListFixedItems(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, v := range list {
		assert.Equal(t, cutover, v.EffectiveFrom)
	}
}

func TestBatchDeleteTransactionsHonoursContext(t *testing.T) {
	repo, _ := newTestRepo(t, 0)
	id, err := repo.InsertTransaction(context.Background(), core.Transaction{
		OwnerID: "owner-1", Date: core.NewDate(2024, 1, 1), Kind: core.Income, Category: "salary", Amount: 1,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, repo.BatchDeleteTransactions(ctx, "owner-1", []string{id}))

	list, _ := repo.ListTransactions(context.Background(), "owner-1")
	assert.Len(t, list, 1)
}
