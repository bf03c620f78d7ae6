package services

import (
	"context"
	"log/slog"

	"gagyebu/internal/aggregate"
	"gagyebu/internal/amqp"
	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

// TransactionService records one-off income and expense entries.
type TransactionService struct {
	store    records.TransactionStore
	retry    RetryPolicy
	notifier *Notifier
}

func NewTransactionService(store records.TransactionStore, retry RetryPolicy, notifier *Notifier) *TransactionService {
	return &TransactionService{store: store, retry: retry, notifier: notifier}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := requireOwner(t.OwnerID); err != nil {
		return core.Transaction{}, err
	}
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var id string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.store.InsertTransaction(ctx, t)
		return err
	})
	if err != nil {
		return core.Transaction{}, persistence("insert", records.CollectionTransactions, err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction created",
		"owner_id", t.OwnerID,
		"id", id,
		"kind", t.Kind,
		"month_key", t.Date.MonthKey())
	s.notifier.changed(ctx, t.OwnerID, records.CollectionTransactions, amqp.OperationCreate, t.Date.MonthKey())
	return t, nil
}

// Update replaces every mutable field of the transaction identified by t.ID.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := requireOwner(t.OwnerID); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		return core.Transaction{}, core.Invalid("id", core.ErrEmptyID)
	}
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.store.UpdateTransaction(ctx, t.OwnerID, t.ID, t)
	})
	if err != nil {
		return core.Transaction{}, persistence("update", records.CollectionTransactions, err)
	}
	s.notifier.changed(ctx, t.OwnerID, records.CollectionTransactions, amqp.OperationUpdate, t.Date.MonthKey())
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if id == "" {
		return core.Invalid("id", core.ErrEmptyID)
	}
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.store.DeleteTransaction(ctx, ownerID, id)
	})
	if err != nil {
		return persistence("delete", records.CollectionTransactions, err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "owner_id", ownerID, "id", id)
	s.notifier.changed(ctx, ownerID, records.CollectionTransactions, amqp.OperationDelete, "")
	return nil
}

func (s *TransactionService) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	var txs []core.Transaction
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		txs, err = s.store.ListTransactions(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, persistence("list", records.CollectionTransactions, err)
	}
	return txs, nil
}

// ResetMonth deletes every transaction dated within k and returns how many
// were removed.
func (s *TransactionService) ResetMonth(ctx context.Context, ownerID string, k core.MonthKey, opts ResetOptions) (int, error) {
	if !opts.Confirmed {
		return 0, core.ErrConfirmationRequired
	}
	if err := k.Validate(); err != nil {
		return 0, err
	}
	txs, err := s.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return s.deleteAll(ctx, ownerID, "reset month", amqp.OperationResetMonth, k, aggregate.TransactionsInMonth(txs, k))
}

// ResetAll deletes every transaction of the owner.
func (s *TransactionService) ResetAll(ctx context.Context, ownerID string, opts ResetOptions) (int, error) {
	if !opts.Confirmed {
		return 0, core.ErrConfirmationRequired
	}
	txs, err := s.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return s.deleteAll(ctx, ownerID, "reset all", amqp.OperationResetAll, "", txs)
}

func (s *TransactionService) deleteAll(ctx context.Context, ownerID, op, operation string, k core.MonthKey, txs []core.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	ids := make([]string, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}

	chunks := records.Chunk(ids, chunkSize(s.store))
	run := newBatchRun(op, records.CollectionTransactions, s.retry, len(chunks))
	err := runChunks(ctx, run, chunks, func(ctx context.Context, ids []string) error {
		return s.store.BatchDeleteTransactions(ctx, ownerID, ids)
	})
	if run.committed > 0 {
		s.notifier.changed(ctx, ownerID, records.CollectionTransactions, operation, k)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Transaction reset failed", run.fields(ownerID, k).WithError(err).ToSlice()...)
		return 0, err
	}

	slog.InfoContext(ctx, "Transactions reset",
		"owner_id", ownerID,
		"operation", op,
		"month_key", k,
		"deleted", len(ids),
		"chunks", run.total)
	return len(ids), nil
}
