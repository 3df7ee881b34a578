package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/enums"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/outbox"
)

const effectsSavepoint = "notification_effects"

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (uuid.UUID, error)
}

// Queue records effects in the outbox inside the caller's transaction.
type Queue struct {
	outbox emitter
	logg   *logger.Logger
}

func NewQueue(outbox emitter, logg *logger.Logger) *Queue {
	return &Queue{outbox: outbox, logg: logg}
}

// Enqueue writes one outbox row per event and returns the events stamped with
// their row ids. A failed write is rolled back to a savepoint and logged so the
// surrounding business transaction still commits; that event keeps a nil id
// and is only delivered in-process.
func (q *Queue) Enqueue(ctx context.Context, tx *gorm.DB, aggregate enums.OutboxAggregateType, aggregateID uuid.UUID, actor *outbox.ActorRef, events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	queued := make([]Event, len(events))
	copy(queued, events)
	if q == nil || q.outbox == nil || tx == nil {
		return queued
	}

	for i := range queued {
		sp := fmt.Sprintf("%s_%d", effectsSavepoint, i)
		if err := tx.SavePoint(sp).Error; err != nil {
			q.logError(ctx, aggregateID, "savepoint failed", err)
			return queued
		}
		id, err := q.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: aggregate,
			AggregateID:   aggregateID,
			Actor:         actor,
			Data:          queued[i].payload(),
		})
		if err != nil {
			if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
				q.logError(ctx, aggregateID, "rollback to savepoint failed", rbErr)
				return queued
			}
			q.logError(ctx, aggregateID, "enqueue notification failed", err)
			continue
		}
		queued[i].ID = id
	}
	return queued
}

func (q *Queue) logError(ctx context.Context, aggregateID uuid.UUID, msg string, err error) {
	if q.logg == nil {
		return
	}
	q.logg.Error(q.logg.WithField(ctx, "aggregate_id", aggregateID.String()), msg, err)
}

type outboxMarker interface {
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, err error) error
}

// Drainer delivers queued effects after their transaction commits.
type Drainer struct {
	dispatcher *Dispatcher
	outbox     outboxMarker
	logg       *logger.Logger
}

func NewDrainer(dispatcher *Dispatcher, outbox outboxMarker, logg *logger.Logger) *Drainer {
	return &Drainer{dispatcher: dispatcher, outbox: outbox, logg: logg}
}

// Drain delivers every event and settles its outbox row. It never fails; rows
// left unpublished are retried by the relay.
func (d *Drainer) Drain(ctx context.Context, events []Event) {
	if d == nil || d.dispatcher == nil {
		return
	}
	for _, event := range events {
		if event.ID == uuid.Nil || d.outbox == nil {
			d.dispatcher.Notify(ctx, event)
			continue
		}
		err := d.dispatcher.Deliver(ctx, event)
		if err != nil {
			d.dispatcher.logError(ctx, event, "notification delivery deferred to relay", err)
			if markErr := d.outbox.MarkFailed(ctx, event.ID, err); markErr != nil {
				d.dispatcher.logError(ctx, event, "mark outbox failure", markErr)
			}
			continue
		}
		if markErr := d.outbox.MarkPublished(ctx, event.ID); markErr != nil {
			d.dispatcher.logError(ctx, event, "mark outbox published", markErr)
		}
	}
}
