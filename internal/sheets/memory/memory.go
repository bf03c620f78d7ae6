package memory

import (
	"context"
	"sort"
	"sync"

	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
)

// Store keeps exported summaries in memory.
type Store struct {
	mu     sync.Mutex
	rows   map[string]map[core.MonthKey]core.MonthSummary
	writes int
}

var _ sheets.SummaryStore = (*Store)(nil)

func New() *Store {
	return &Store{rows: map[string]map[core.MonthKey]core.MonthSummary{}}
}

func (s *Store) WriteMonthSummaries(ctx context.Context, ownerID string, summaries []core.MonthSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ownerID == "" {
		return core.ErrEmptyOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byMonth := s.rows[ownerID]
	if byMonth == nil {
		byMonth = map[core.MonthKey]core.MonthSummary{}
		s.rows[ownerID] = byMonth
	}
	for _, m := range summaries {
		byMonth[m.MonthKey] = m
	}
	s.writes++
	return nil
}

func (s *Store) ReadMonthSummaries(_ context.Context, ownerID string) ([]core.MonthSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MonthSummary, 0, len(s.rows[ownerID]))
	for _, m := range s.rows[ownerID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthKey > out[j].MonthKey })
	return out, nil
}

// Writes reports how many write calls succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
