package services

import (
	"context"
	"log/slog"

	"gagyebu/internal/amqp"
	"gagyebu/internal/core"
	"gagyebu/internal/log"
)

type (
	// ChangePublisher announces committed changes. *amqp.Client satisfies it.
	ChangePublisher interface {
		PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
	}

	// Invalidator drops cached reads for an owner.
	Invalidator interface {
		Invalidate(ownerID string)
	}
)

// Notifier fans a confirmed write out to the read cache and the message
// bus. Its zero value and a nil *Notifier do nothing.
type Notifier struct {
	publisher ChangePublisher
	caches    []Invalidator
}

func NewNotifier(publisher ChangePublisher, caches ...Invalidator) *Notifier {
	return &Notifier{publisher: publisher, caches: caches}
}

// changed must only be called after the store confirmed the write.
func (n *Notifier) changed(ctx context.Context, ownerID, collection, operation string, k core.MonthKey) {
	if n == nil {
		return
	}
	for _, c := range n.caches {
		c.Invalidate(ownerID)
	}
	if n.publisher == nil {
		return
	}
	msg := amqp.NewChangeMessage(ownerID, collection, operation, string(k))
	if err := n.publisher.PublishChange(ctx, msg); err != nil {
		// the write is already committed; the exporter catches up on its schedule
		fields := log.NewFields().
			WithOwner(ownerID, string(k)).
			WithOperation(operation).
			WithError(err)
		fields[log.FieldCollection] = collection
		slog.ErrorContext(ctx, "Failed to publish change message", fields.ToSlice()...)
	}
}
