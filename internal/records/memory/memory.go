package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

// Store keeps both collections in process. Records are returned in
// insertion order.
type Store struct {
	mu        sync.Mutex
	batchSize int
	txs       []core.Transaction
	fixed     []core.FixedItemVersion
}

var _ records.Store = (*Store)(nil)

func New() *Store {
	return NewWithBatchSize(records.DefaultMaxBatchSize)
}

// NewWithBatchSize creates a store with a custom batch limit, clamped to
// records.BatchCeiling.
func NewWithBatchSize(size int) *Store {
	if size < 1 || size > records.BatchCeiling {
		size = records.DefaultMaxBatchSize
	}
	return &Store{batchSize: size}
}

func (s *Store) MaxBatchSize() int { return s.batchSize }

func (s *Store) Close() error { return nil }

func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.txs = append(s.txs, t)
	return t.ID, nil
}

func (s *Store) UpdateTransaction(_ context.Context, ownerID, id string, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(ownerID, id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	t.ID, t.OwnerID = id, ownerID
	s.txs[i] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(ownerID, id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	return nil
}

func (s *Store) BatchDeleteTransactions(_ context.Context, ownerID string, ids []string) error {
	if len(ids) > s.batchSize {
		return records.ErrBatchTooLarge
	}
	drop := toSet(ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.txs[:0]
	for _, t := range s.txs {
		if t.OwnerID == ownerID && drop[t.ID] {
			continue
		}
		kept = append(kept, t)
	}
	s.txs = kept
	return nil
}

func (s *Store) ListFixedItems(_ context.Context, ownerID string) ([]core.FixedItemVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FixedItemVersion, 0)
	for _, v := range s.fixed {
		if v.OwnerID == ownerID {
			out = append(out, cloneVersion(v))
		}
	}
	return out, nil
}

func (s *Store) InsertFixedItem(_ context.Context, v core.FixedItemVersion) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v = cloneVersion(v)
	v.ID = uuid.NewString()
	s.fixed = append(s.fixed, v)
	return v.ID, nil
}

func (s *Store) UpdateFixedItem(_ context.Context, ownerID, id string, patch records.FixedItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fixedIndex(ownerID, id)
	if i < 0 {
		return fmt.Errorf("fixed item %s: %w", id, core.ErrNotFound)
	}
	s.fixed[i] = patch.Apply(s.fixed[i])
	return nil
}

func (s *Store) DeleteFixedItem(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fixedIndex(ownerID, id)
	if i < 0 {
		return fmt.Errorf("fixed item %s: %w", id, core.ErrNotFound)
	}
	s.fixed = append(s.fixed[:i], s.fixed[i+1:]...)
	return nil
}

func (s *Store) BatchDeleteFixedItems(_ context.Context, ownerID string, ids []string) error {
	if len(ids) > s.batchSize {
		return records.ErrBatchTooLarge
	}
	drop := toSet(ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.fixed[:0]
	for _, v := range s.fixed {
		if v.OwnerID == ownerID && drop[v.ID] {
			continue
		}
		kept = append(kept, v)
	}
	s.fixed = kept
	return nil
}

func (s *Store) BatchUpdateFixedItems(_ context.Context, ownerID string, updates []records.FixedItemUpdate) error {
	if len(updates) > s.batchSize {
		return records.ErrBatchTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		if i := s.fixedIndex(ownerID, u.ID); i >= 0 {
			s.fixed[i] = u.Patch.Apply(s.fixed[i])
		}
	}
	return nil
}

func (s *Store) txIndex(ownerID, id string) int {
	for i, t := range s.txs {
		if t.ID == id && t.OwnerID == ownerID {
			return i
		}
	}
	return -1
}

func (s *Store) fixedIndex(ownerID, id string) int {
	for i, v := range s.fixed {
		if v.ID == id && v.OwnerID == ownerID {
			return i
		}
	}
	return -1
}

func cloneVersion(v core.FixedItemVersion) core.FixedItemVersion {
	if v.EffectiveTo != nil {
		to := *v.EffectiveTo
		v.EffectiveTo = &to
	}
	return v
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
