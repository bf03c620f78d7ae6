package services

import (
	"context"
	"log/slog"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/records"
)

// batchRun tracks a bulk operation split into sequential atomic chunks.
// Chunks are counted across every phase of the operation so a failure can
// report how much of the whole was committed.
type batchRun struct {
	op         string
	collection string
	retry      RetryPolicy
	total      int
	committed  int
}

func newBatchRun(op, collection string, retry RetryPolicy, total int) *batchRun {
	return &batchRun{op: op, collection: collection, retry: retry, total: total}
}

// step commits one chunk. Cancellation is checked before the chunk starts.
func (b *batchRun) step(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return b.failure(err)
	}
	if err := b.retry.Do(ctx, fn); err != nil {
		return b.failure(err)
	}
	b.committed++
	slog.DebugContext(ctx, "Batch chunk committed", b.fields("", "").ToSlice()...)
	return nil
}

// fields describes the run's progress for an owner and, when set, a month.
func (b *batchRun) fields(ownerID string, k core.MonthKey) log.LogFields {
	f := log.NewFields().
		WithOperation(b.op).
		WithBatch(b.collection, b.committed, b.total)
	if ownerID != "" {
		f.WithOwner(ownerID, string(k))
	}
	return f
}

// failure reports total failure as PersistenceError and anything after the
// first committed chunk as PartialBatchFailure.
func (b *batchRun) failure(err error) error {
	if b.committed == 0 {
		return &core.PersistenceError{Op: b.op, Collection: b.collection, Err: err}
	}
	return &core.PartialBatchFailure{Op: b.op, Committed: b.committed, Total: b.total, Err: err}
}

func runChunks[T any](ctx context.Context, b *batchRun, chunks [][]T, fn func(context.Context, []T) error) error {
	for _, chunk := range chunks {
		if err := b.step(ctx, func(ctx context.Context) error { return fn(ctx, chunk) }); err != nil {
			return err
		}
	}
	return nil
}

func chunkSize(store interface{ MaxBatchSize() int }) int {
	if n := store.MaxBatchSize(); n > 0 && n <= records.BatchCeiling {
		return n
	}
	return records.DefaultMaxBatchSize
}
