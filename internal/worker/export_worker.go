package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"gagyebu/internal/amqp"
	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
)

// SummarySource is the read side the worker exports from. *services.Ledger
// satisfies it.
type SummarySource interface {
	Comparison(ctx context.Context, ownerID string, year int, month time.Month, window int) ([]core.MonthSummary, error)
	Invalidate(ownerID string)
	Owners() []string
}

// exportConcurrency bounds parallel owner exports in a scheduled run.
const exportConcurrency = 4

// ExportWorker keeps the exported month summaries of every known owner up
// to date: on each change message and on a cron schedule.
type ExportWorker struct {
	source SummarySource
	writer sheets.SummaryWriter
	window int
	now    func() time.Time

	mu     sync.Mutex
	owners map[string]struct{}
	cron   *cron.Cron
}

func NewExportWorker(source SummarySource, writer sheets.SummaryWriter, window int) *ExportWorker {
	return &ExportWorker{
		source: source,
		writer: writer,
		window: window,
		now:    time.Now,
		owners: map[string]struct{}{},
	}
}

// HandleChange re-exports the owner named by msg. The owner's cached snapshot
// is dropped first since the write happened in another process.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg == nil || msg.OwnerID == "" {
		return fmt.Errorf("change message without owner")
	}
	slog.InfoContext(ctx, "Processing change message",
		"owner_id", msg.OwnerID,
		"collection", msg.Collection,
		"operation", msg.Operation,
		"month_key", msg.MonthKey)

	w.track(msg.OwnerID)
	w.source.Invalidate(msg.OwnerID)
	return w.ExportOwner(ctx, msg.OwnerID)
}

// ExportOwner writes the comparison window ending at the current month.
func (w *ExportWorker) ExportOwner(ctx context.Context, ownerID string) error {
	today := w.now()
	rows, err := w.source.Comparison(ctx, ownerID, today.Year(), today.Month(), w.window)
	if err != nil {
		return fmt.Errorf("build summaries for %s: %w", ownerID, err)
	}
	if err := w.writer.WriteMonthSummaries(ctx, ownerID, rows); err != nil {
		return fmt.Errorf("write summaries for %s: %w", ownerID, err)
	}
	slog.InfoContext(ctx, "Exported month summaries", "owner_id", ownerID, "months", len(rows))
	return nil
}

// ExportAll exports every known owner. One owner failing does not stop the
// others; all failures are returned together.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	owners := w.Owners()
	if len(owners) == 0 {
		slog.DebugContext(ctx, "No owners to export")
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for _, owner := range owners {
		g.Go(func() error {
			if err := w.ExportOwner(gctx, owner); err != nil {
				slog.ErrorContext(gctx, "Scheduled export failed", "owner_id", owner, "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "Scheduled export completed",
		"owners", len(owners),
		"failed", len(errs))
	return errors.Join(errs...)
}

// Owners returns the owners seen in change messages plus those the source
// currently holds, sorted.
func (w *ExportWorker) Owners() []string {
	w.mu.Lock()
	set := make(map[string]struct{}, len(w.owners))
	for o := range w.owners {
		set[o] = struct{}{}
	}
	w.mu.Unlock()
	for _, o := range w.source.Owners() {
		set[o] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for o := range set {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// Track registers an owner for scheduled exports.
func (w *ExportWorker) Track(ownerID string) {
	if ownerID != "" {
		w.track(ownerID)
	}
}

func (w *ExportWorker) track(ownerID string) {
	w.mu.Lock()
	w.owners[ownerID] = struct{}{}
	w.mu.Unlock()
}

// StartSchedule runs ExportAll on the cron schedule (standard five-field
// syntax or descriptors such as "@every 1h") until StopSchedule.
func (w *ExportWorker) StartSchedule(ctx context.Context, schedule string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return errors.New("export schedule already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if err := w.ExportAll(ctx); err != nil {
			slog.WarnContext(ctx, "Scheduled export finished with errors", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", schedule, err)
	}
	c.Start()
	w.cron = c

	slog.InfoContext(ctx, "Export schedule started", "schedule", schedule)
	return nil
}

// StopSchedule stops the cron scheduler and waits for a running export.
func (w *ExportWorker) StopSchedule() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
