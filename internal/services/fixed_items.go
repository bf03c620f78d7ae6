package services

import (
	"context"
	"errors"
	"log/slog"

	"gagyebu/internal/aggregate"
	"gagyebu/internal/amqp"
	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

// ResetOptions carries the caller's go-ahead for destructive bulk operations.
type ResetOptions struct {
	Confirmed bool
}

// ResetHistoryResult summarises a ResetHistory run.
type ResetHistoryResult struct {
	Deleted   int `json:"deleted"`
	Rewritten int `json:"rewritten"`
	Chunks    int `json:"chunks"`
}

// FixedItemService maintains recurring items as chains of month-bounded
// versions. Closing a version and appending a new one keeps every month
// before the edit unchanged.
type FixedItemService struct {
	store    records.FixedItemStore
	retry    RetryPolicy
	notifier *Notifier
}

func NewFixedItemService(store records.FixedItemStore, retry RetryPolicy, notifier *Notifier) *FixedItemService {
	return &FixedItemService{store: store, retry: retry, notifier: notifier}
}

// Create starts a new open-ended item at effectiveFrom.
func (s *FixedItemService) Create(ctx context.Context, ownerID string, fields core.FixedItemFields, effectiveFrom core.MonthKey) (core.FixedItemVersion, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.FixedItemVersion{}, err
	}
	if err := effectiveFrom.Validate(); err != nil {
		return core.FixedItemVersion{}, err
	}
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return core.FixedItemVersion{}, err
	}

	v := core.FixedItemVersion{OwnerID: ownerID, FixedItemFields: fields, EffectiveFrom: effectiveFrom}
	id, err := s.insert(ctx, v)
	if err != nil {
		return core.FixedItemVersion{}, err
	}
	v.ID = id

	slog.InfoContext(ctx, "Fixed item created",
		"owner_id", ownerID,
		"id", id,
		"effective_from", effectiveFrom)
	s.notifier.changed(ctx, ownerID, records.CollectionFixedItems, amqp.OperationCreate, effectiveFrom)
	return v, nil
}

// Update applies newFields as seen from the selected month. A version that
// started in selected is edited in place. Otherwise a new version starting at
// selected is appended and the existing one is closed at the month before,
// so earlier months keep the old values. It returns the version now active
// for selected.
func (s *FixedItemService) Update(ctx context.Context, existing core.FixedItemVersion, newFields core.FixedItemFields, selected core.MonthKey) (core.FixedItemVersion, error) {
	if err := s.checkIntent(existing, selected); err != nil {
		return core.FixedItemVersion{}, err
	}
	newFields = newFields.Normalize()
	if err := newFields.Validate(); err != nil {
		return core.FixedItemVersion{}, err
	}

	if existing.From() == selected {
		patch := records.FixedItemPatch{Fields: &newFields}
		err := s.retry.Do(ctx, func(ctx context.Context) error {
			return s.store.UpdateFixedItem(ctx, existing.OwnerID, existing.ID, patch)
		})
		if err != nil {
			return core.FixedItemVersion{}, persistence("update", records.CollectionFixedItems, err)
		}
		updated := patch.Apply(existing)
		s.notifier.changed(ctx, existing.OwnerID, records.CollectionFixedItems, amqp.OperationUpdate, selected)
		return updated, nil
	}

	if existing.IsClosed() {
		return core.FixedItemVersion{}, core.Invalid("effectiveTo", core.ErrVersionClosed)
	}

	// Insert first: if closing then fails, the new version has no history and
	// can be removed, leaving the chain as it was.
	next := core.FixedItemVersion{OwnerID: existing.OwnerID, FixedItemFields: newFields, EffectiveFrom: selected}
	id, err := s.insert(ctx, next)
	if err != nil {
		return core.FixedItemVersion{}, err
	}
	next.ID = id

	if err := s.close(ctx, existing, selected); err != nil {
		if undoErr := s.retry.Do(ctx, func(ctx context.Context) error {
			return s.store.DeleteFixedItem(ctx, existing.OwnerID, id)
		}); undoErr != nil {
			slog.ErrorContext(ctx, "Failed to remove new version after close failure",
				"owner_id", existing.OwnerID,
				"id", id,
				"error", undoErr)
			err = errors.Join(err, undoErr)
		}
		return core.FixedItemVersion{}, persistence("update", records.CollectionFixedItems, err)
	}

	slog.InfoContext(ctx, "Fixed item versioned",
		"owner_id", existing.OwnerID,
		"closed_id", existing.ID,
		"closed_at", selected.Prev(),
		"new_id", id,
		"effective_from", selected)
	s.notifier.changed(ctx, existing.OwnerID, records.CollectionFixedItems, amqp.OperationUpdate, selected)
	return next, nil
}

// Remove ends version as seen from the selected month. A version that started
// in selected never applied to an earlier month and is deleted; any other
// version is closed at the month before selected.
func (s *FixedItemService) Remove(ctx context.Context, version core.FixedItemVersion, selected core.MonthKey) error {
	if err := s.checkIntent(version, selected); err != nil {
		return err
	}

	if version.From() == selected {
		err := s.retry.Do(ctx, func(ctx context.Context) error {
			return s.store.DeleteFixedItem(ctx, version.OwnerID, version.ID)
		})
		if err != nil {
			return persistence("delete", records.CollectionFixedItems, err)
		}
		slog.InfoContext(ctx, "Fixed item deleted", "owner_id", version.OwnerID, "id", version.ID)
		s.notifier.changed(ctx, version.OwnerID, records.CollectionFixedItems, amqp.OperationDelete, selected)
		return nil
	}

	if version.IsClosed() {
		if *version.EffectiveTo < selected {
			// already ended before selected
			return nil
		}
		return core.Invalid("effectiveTo", core.ErrVersionClosed)
	}

	if err := s.close(ctx, version, selected); err != nil {
		return persistence("close", records.CollectionFixedItems, err)
	}
	slog.InfoContext(ctx, "Fixed item closed",
		"owner_id", version.OwnerID,
		"id", version.ID,
		"closed_at", selected.Prev())
	s.notifier.changed(ctx, version.OwnerID, records.CollectionFixedItems, amqp.OperationDelete, selected)
	return nil
}

// ResetHistory deletes every closed version and moves every open version to
// start at cutover. It refuses to run unless opts.Confirmed is set. Running
// it again with the same cutover changes nothing, which also makes an
// interrupted run safe to repeat.
func (s *FixedItemService) ResetHistory(ctx context.Context, ownerID string, cutover core.MonthKey, opts ResetOptions) (ResetHistoryResult, error) {
	if !opts.Confirmed {
		return ResetHistoryResult{}, core.ErrConfirmationRequired
	}
	if err := requireOwner(ownerID); err != nil {
		return ResetHistoryResult{}, err
	}
	if err := cutover.Validate(); err != nil {
		return ResetHistoryResult{}, err
	}

	versions, err := s.List(ctx, ownerID)
	if err != nil {
		return ResetHistoryResult{}, err
	}

	var (
		closed  []string
		reopen  []records.FixedItemUpdate
		newFrom = cutover
	)
	for _, v := range versions {
		switch {
		case v.IsClosed():
			closed = append(closed, v.ID)
		case v.EffectiveFrom != cutover:
			reopen = append(reopen, records.FixedItemUpdate{
				ID:    v.ID,
				Patch: records.FixedItemPatch{EffectiveFrom: &newFrom},
			})
		}
	}

	size := chunkSize(s.store)
	deleteChunks := records.Chunk(closed, size)
	updateChunks := records.Chunk(reopen, size)
	run := newBatchRun("reset history", records.CollectionFixedItems, s.retry, len(deleteChunks)+len(updateChunks))

	slog.InfoContext(ctx, "Resetting fixed item history",
		"owner_id", ownerID,
		"cutover", cutover,
		"closed", len(closed),
		"open", len(reopen),
		"chunks", run.total)

	err = runChunks(ctx, run, deleteChunks, func(ctx context.Context, ids []string) error {
		return s.store.BatchDeleteFixedItems(ctx, ownerID, ids)
	})
	if err == nil {
		err = runChunks(ctx, run, updateChunks, func(ctx context.Context, updates []records.FixedItemUpdate) error {
			return s.store.BatchUpdateFixedItems(ctx, ownerID, updates)
		})
	}
	if run.committed > 0 {
		s.notifier.changed(ctx, ownerID, records.CollectionFixedItems, amqp.OperationResetHistory, cutover)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Fixed item history reset failed", run.fields(ownerID, cutover).WithError(err).ToSlice()...)
		return ResetHistoryResult{}, err
	}

	return ResetHistoryResult{Deleted: len(closed), Rewritten: len(reopen), Chunks: run.total}, nil
}

// List returns every version of the owner's items, open and closed.
func (s *FixedItemService) List(ctx context.Context, ownerID string) ([]core.FixedItemVersion, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	var versions []core.FixedItemVersion
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		versions, err = s.store.ListFixedItems(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, persistence("list", records.CollectionFixedItems, err)
	}
	return versions, nil
}

// Get returns one version by id.
func (s *FixedItemService) Get(ctx context.Context, ownerID, id string) (core.FixedItemVersion, error) {
	versions, err := s.List(ctx, ownerID)
	if err != nil {
		return core.FixedItemVersion{}, err
	}
	for _, v := range versions {
		if v.ID == id {
			return v, nil
		}
	}
	return core.FixedItemVersion{}, core.ErrNotFound
}

// ActiveFor returns the versions contributing to month k.
func (s *FixedItemService) ActiveFor(ctx context.Context, ownerID string, k core.MonthKey) ([]core.FixedItemVersion, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	versions, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return aggregate.ActiveFixed(versions, k), nil
}

func (s *FixedItemService) checkIntent(v core.FixedItemVersion, selected core.MonthKey) error {
	if err := requireOwner(v.OwnerID); err != nil {
		return err
	}
	if v.ID == "" {
		return core.Invalid("id", core.ErrEmptyID)
	}
	if err := selected.Validate(); err != nil {
		return err
	}
	if selected < v.From() {
		return core.Invalid("month", core.ErrRangeBeforeStart)
	}
	return nil
}

func (s *FixedItemService) insert(ctx context.Context, v core.FixedItemVersion) (string, error) {
	var id string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.store.InsertFixedItem(ctx, v)
		return err
	})
	if err != nil {
		return "", persistence("insert", records.CollectionFixedItems, err)
	}
	return id, nil
}

func (s *FixedItemService) close(ctx context.Context, v core.FixedItemVersion, selected core.MonthKey) error {
	to := selected.Prev()
	return s.retry.Do(ctx, func(ctx context.Context) error {
		return s.store.UpdateFixedItem(ctx, v.OwnerID, v.ID, records.FixedItemPatch{EffectiveTo: &to})
	})
}

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return core.Invalid("ownerId", core.ErrEmptyOwner)
	}
	return nil
}

func persistence(op, collection string, err error) error {
	var pe *core.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &core.PersistenceError{Op: op, Collection: collection, Err: err}
}
