package services

import (
	"context"
	"sync"
	"time"

	"gagyebu/internal/amqp"
	"gagyebu/internal/core"
	"gagyebu/internal/records"
	"gagyebu/internal/records/memory"
)

// faultyStore wraps the memory store and fails selected calls.
type faultyStore struct {
	*memory.Store

	mu sync.Mutex
	// failBatchAt makes the n-th batch call (1-based) and every later one fail.
	failBatchAt int
	batchCalls  int
	// transientLeft makes the next calls of any kind fail transiently.
	transientLeft int
	failUpdate    error
	failInsert    error
	err           error
}

func newFaultyStore(batchSize int) *faultyStore {
	return &faultyStore{Store: memory.NewWithBatchSize(batchSize)}
}

func (f *faultyStore) fault() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transientLeft > 0 {
		f.transientLeft--
		return records.ErrTransient
	}
	return nil
}

func (f *faultyStore) batchFault() error {
	if err := f.fault(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.failBatchAt > 0 && f.batchCalls >= f.failBatchAt {
		return f.err
	}
	return nil
}

func (f *faultyStore) BatchDeleteFixedItems(ctx context.Context, ownerID string, ids []string) error {
	if err := f.batchFault(); err != nil {
		return err
	}
	return f.Store.BatchDeleteFixedItems(ctx, ownerID, ids)
}

func (f *faultyStore) BatchUpdateFixedItems(ctx context.Context, ownerID string, updates []records.FixedItemUpdate) error {
	if err := f.batchFault(); err != nil {
		return err
	}
	return f.Store.BatchUpdateFixedItems(ctx, ownerID, updates)
}

func (f *faultyStore) BatchDeleteTransactions(ctx context.Context, ownerID string, ids []string) error {
	if err := f.batchFault(); err != nil {
		return err
	}
	return f.Store.BatchDeleteTransactions(ctx, ownerID, ids)
}

func (f *faultyStore) UpdateFixedItem(ctx context.Context, ownerID, id string, patch records.FixedItemPatch) error {
	if err := f.fault(); err != nil {
		return err
	}
	if f.failUpdate != nil {
		return f.failUpdate
	}
	return f.Store.UpdateFixedItem(ctx, ownerID, id, patch)
}

func (f *faultyStore) InsertFixedItem(ctx context.Context, v core.FixedItemVersion) (string, error) {
	if err := f.fault(); err != nil {
		return "", err
	}
	if f.failInsert != nil {
		return "", f.failInsert
	}
	return f.Store.InsertFixedItem(ctx, v)
}

// recordingPublisher captures published messages.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ChangeMessage
	err  error
}

func (p *recordingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) operations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Operation
	}
	return out
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingInvalidator) Invalidate(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[ownerID]++
}

func (c *countingInvalidator) count(ownerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[ownerID]
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}
