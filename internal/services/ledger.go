package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"gagyebu/internal/aggregate"
	"gagyebu/internal/cache"
	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

// Snapshot is everything the aggregation engine needs for one owner.
type Snapshot struct {
	Transactions []core.Transaction
	Fixed        []core.FixedItemVersion
}

// Ledger serves aggregated views from a per-owner snapshot cache.
type Ledger struct {
	txs    records.TransactionStore
	fixed  records.FixedItemStore
	cache  *cache.LRUCache[Snapshot]
	retry  RetryPolicy
	window int
}

// NewLedger builds the read facade. A nil cache disables caching; window
// below 1 uses aggregate.DefaultComparisonWindow.
func NewLedger(txs records.TransactionStore, fixed records.FixedItemStore, snapshots *cache.LRUCache[Snapshot], retry RetryPolicy, window int) *Ledger {
	if window < 1 {
		window = aggregate.DefaultComparisonWindow
	}
	return &Ledger{txs: txs, fixed: fixed, cache: snapshots, retry: retry, window: window}
}

// Snapshot returns the owner's records, loading both collections
// concurrently on a cache miss.
func (l *Ledger) Snapshot(ctx context.Context, ownerID string) (Snapshot, error) {
	if err := requireOwner(ownerID); err != nil {
		return Snapshot{}, err
	}
	if l.cache == nil {
		return l.load(ctx, ownerID)
	}
	return l.cache.GetOrLoad(ctx, ownerID, func(ctx context.Context) (Snapshot, error) {
		return l.load(ctx, ownerID)
	})
}

func (l *Ledger) load(ctx context.Context, ownerID string) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.retry.Do(gctx, func(ctx context.Context) error {
			txs, err := l.txs.ListTransactions(ctx, ownerID)
			if err != nil {
				return persistence("list", records.CollectionTransactions, err)
			}
			snap.Transactions = txs
			return nil
		})
	})
	g.Go(func() error {
		return l.retry.Do(gctx, func(ctx context.Context) error {
			fixed, err := l.fixed.ListFixedItems(ctx, ownerID)
			if err != nil {
				return persistence("list", records.CollectionFixedItems, err)
			}
			snap.Fixed = fixed
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// MonthView assembles every figure shown for month k.
func (l *Ledger) MonthView(ctx context.Context, ownerID string, k core.MonthKey) (core.MonthView, error) {
	if err := k.Validate(); err != nil {
		return core.MonthView{}, err
	}
	snap, err := l.Snapshot(ctx, ownerID)
	if err != nil {
		return core.MonthView{}, err
	}
	return aggregate.BuildMonthView(snap.Transactions, snap.Fixed, k, l.window), nil
}

// Stats returns the monthly totals for k.
func (l *Ledger) Stats(ctx context.Context, ownerID string, k core.MonthKey) (core.MonthStats, error) {
	if err := k.Validate(); err != nil {
		return core.MonthStats{}, err
	}
	snap, err := l.Snapshot(ctx, ownerID)
	if err != nil {
		return core.MonthStats{}, err
	}
	return aggregate.MonthlyStats(snap.Transactions, snap.Fixed, k), nil
}

// Comparison returns the window months ending at year/month, newest first.
// A window below 1 uses the ledger's configured window.
func (l *Ledger) Comparison(ctx context.Context, ownerID string, year int, month time.Month, window int) ([]core.MonthSummary, error) {
	if month < time.January || month > time.December {
		return nil, core.Invalid("month", core.ErrInvalidMonthKey)
	}
	if window < 1 {
		window = l.window
	}
	snap, err := l.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return aggregate.MonthComparison(snap.Transactions, snap.Fixed, year, month, window), nil
}

// Invalidate drops the cached snapshot of an owner.
func (l *Ledger) Invalidate(ownerID string) {
	if l.cache != nil {
		l.cache.Delete(ownerID)
	}
}

// Owners returns the owners with a live cached snapshot.
func (l *Ledger) Owners() []string {
	if l.cache == nil {
		return nil
	}
	return l.cache.Keys()
}
