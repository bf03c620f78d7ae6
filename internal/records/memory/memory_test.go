package memory

import (
	"context"
	"errors"
	"testing"

	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

func TestTransactionsScopedByOwner(t *testing.T) {
	ctx := context.Background()
	s := New()

	idA, err := s.InsertTransaction(ctx, core.Transaction{OwnerID: "a", Date: core.NewDate(2024, 5, 1), Kind: core.Expense, Category: "food", Amount: 10})
	if err != nil || idA == "" {
		t.Fatalf("insert: id=%q err=%v", idA, err)
	}
	if _, err := s.InsertTransaction(ctx, core.Transaction{OwnerID: "b", Date: core.NewDate(2024, 5, 1), Kind: core.Expense, Category: "food", Amount: 20}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, _ := s.ListTransactions(ctx, "a")
	if len(got) != 1 || got[0].ID != idA || got[0].Amount != 10 {
		t.Fatalf("unexpected list for a: %+v", got)
	}

	if err := s.DeleteTransaction(ctx, "b", idA); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found deleting another owner's record, got %v", err)
	}
	if err := s.UpdateTransaction(ctx, "a", idA, core.Transaction{Date: core.NewDate(2024, 5, 2), Kind: core.Income, Category: "salary", Amount: 99}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.ListTransactions(ctx, "a")
	if got[0].Amount != 99 || got[0].OwnerID != "a" || got[0].ID != idA {
		t.Fatalf("unexpected record after update: %+v", got[0])
	}
}

func TestBatchDeleteSkipsMissingAndEnforcesLimit(t *testing.T) {
	ctx := context.Background()
	s := NewWithBatchSize(2)

	var ids []string
	for i := 0; i < 3; i++ {
		id, _ := s.InsertTransaction(ctx, core.Transaction{OwnerID: "a", Amount: int64(i + 1)})
		ids = append(ids, id)
	}

	if err := s.BatchDeleteTransactions(ctx, "a", ids); !errors.Is(err, records.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
	if err := s.BatchDeleteTransactions(ctx, "a", []string{ids[0], "missing"}); err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	// deleting the same ids again is a no-op
	if err := s.BatchDeleteTransactions(ctx, "a", []string{ids[0]}); err != nil {
		t.Fatalf("repeat batch delete: %v", err)
	}
	got, _ := s.ListTransactions(ctx, "a")
	if len(got) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(got))
	}
}

func TestFixedItemsPatchAndCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.InsertFixedItem(ctx, core.FixedItemVersion{
		OwnerID:         "a",
		FixedItemFields: core.FixedItemFields{Name: "Rent", Amount: 800000, Kind: core.Expense, Group: core.DefaultGroup},
		EffectiveFrom:   "2024-01",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	to := core.MonthKey("2024-05")
	if err := s.UpdateFixedItem(ctx, "a", id, records.FixedItemPatch{EffectiveTo: &to}); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, _ := s.ListFixedItems(ctx, "a")
	if len(list) != 1 || list[0].EffectiveTo == nil || *list[0].EffectiveTo != to {
		t.Fatalf("unexpected list: %+v", list)
	}

	// mutating a returned record must not leak into the store
	*list[0].EffectiveTo = "2099-01"
	again, _ := s.ListFixedItems(ctx, "a")
	if *again[0].EffectiveTo != to {
		t.Fatalf("store aliased returned record")
	}

	from := core.MonthKey("2025-01")
	err = s.BatchUpdateFixedItems(ctx, "a", []records.FixedItemUpdate{
		{ID: id, Patch: records.FixedItemPatch{EffectiveFrom: &from}},
		{ID: "gone", Patch: records.FixedItemPatch{EffectiveFrom: &from}},
	})
	if err != nil {
		t.Fatalf("batch update: %v", err)
	}
	again, _ = s.ListFixedItems(ctx, "a")
	if again[0].EffectiveFrom != from {
		t.Fatalf("expected from %s, got %s", from, again[0].EffectiveFrom)
	}

	if err := s.DeleteFixedItem(ctx, "a", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteFixedItem(ctx, "a", id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
