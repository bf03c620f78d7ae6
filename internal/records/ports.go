// Package records defines the record store used by the ledger services.
//
// A store holds two collections, transactions and fixed item versions, both
// scoped by owner id. Single-record calls report core.ErrNotFound for ids the
// owner does not have. Batch calls are atomic, skip ids that no longer exist
// and reject more than MaxBatchSize entries; callers split larger work with
// Chunk.
package records

import (
	"context"
	"errors"

	"gagyebu/internal/core"
)

const (
	// BatchCeiling is the hard per-batch operation limit.
	BatchCeiling = 500
	// DefaultMaxBatchSize leaves headroom under BatchCeiling.
	DefaultMaxBatchSize = 450

	CollectionTransactions = "transactions"
	CollectionFixedItems   = "fixed_item_versions"
)

var (
	// ErrTransient marks a store failure that may succeed when retried.
	ErrTransient = errors.New("transient store failure")
	// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch exceeds max batch size")
)

type (
	TransactionStore interface {
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
		InsertTransaction(ctx context.Context, t core.Transaction) (string, error)
		// UpdateTransaction replaces the mutable fields of the record.
		UpdateTransaction(ctx context.Context, ownerID, id string, t core.Transaction) error
		DeleteTransaction(ctx context.Context, ownerID, id string) error
		BatchDeleteTransactions(ctx context.Context, ownerID string, ids []string) error
		MaxBatchSize() int
	}

	FixedItemStore interface {
		ListFixedItems(ctx context.Context, ownerID string) ([]core.FixedItemVersion, error)
		InsertFixedItem(ctx context.Context, v core.FixedItemVersion) (string, error)
		UpdateFixedItem(ctx context.Context, ownerID, id string, patch FixedItemPatch) error
		DeleteFixedItem(ctx context.Context, ownerID, id string) error
		BatchDeleteFixedItems(ctx context.Context, ownerID string, ids []string) error
		BatchUpdateFixedItems(ctx context.Context, ownerID string, updates []FixedItemUpdate) error
		MaxBatchSize() int
	}

	// Store is a backend serving both collections.
	Store interface {
		TransactionStore
		FixedItemStore
		Close() error
	}

	// FixedItemPatch lists the fields to change; nil members are left alone.
	// An open version's upper bound is never cleared, so EffectiveTo can only
	// be set.
	FixedItemPatch struct {
		Fields        *core.FixedItemFields
		EffectiveFrom *core.MonthKey
		EffectiveTo   *core.MonthKey
	}

	FixedItemUpdate struct {
		ID    string
		Patch FixedItemPatch
	}
)

// IsEmpty reports whether the patch changes nothing.
func (p FixedItemPatch) IsEmpty() bool {
	return p.Fields == nil && p.EffectiveFrom == nil && p.EffectiveTo == nil
}

// Apply returns v with the patch applied.
func (p FixedItemPatch) Apply(v core.FixedItemVersion) core.FixedItemVersion {
	if p.Fields != nil {
		v.FixedItemFields = *p.Fields
	}
	if p.EffectiveFrom != nil {
		v.EffectiveFrom = *p.EffectiveFrom
	}
	if p.EffectiveTo != nil {
		to := *p.EffectiveTo
		v.EffectiveTo = &to
	}
	return v
}

// Chunk splits items into consecutive slices of at most size elements.
// A size below 1 returns a single chunk.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 || size >= len(items) {
		return [][]T{items}
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
