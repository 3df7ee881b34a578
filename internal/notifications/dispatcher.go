package notifications

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/pkg/db"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/metrics"
)

// Dispatcher stores notifications and pushes them to live channels.
// Delivery is advisory: nothing it does can fail the operation that produced the event.
type Dispatcher struct {
	repo    Repository
	pushers []Pusher
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
}

// DispatcherParams bundles dispatcher dependencies.
type DispatcherParams struct {
	Repo    Repository
	Pushers []Pusher
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	pushers := make([]Pusher, 0, len(params.Pushers))
	for _, p := range params.Pushers {
		if p != nil {
			pushers = append(pushers, p)
		}
	}
	return &Dispatcher{
		repo:    params.Repo,
		pushers: pushers,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Notify persists and pushes the event, logging and swallowing any failure.
func (d *Dispatcher) Notify(ctx context.Context, event Event) {
	if err := d.Deliver(ctx, event); err != nil {
		d.logError(ctx, event, "notification dropped", err)
	}
}

// Deliver persists the event and reports storage failures so a queued copy can be retried.
// Events carrying an id that was already stored are treated as delivered.
func (d *Dispatcher) Deliver(ctx context.Context, event Event) error {
	if event.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification user id required")
	}
	if !event.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	if strings.TrimSpace(event.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}

	row := event.toModel()
	if err := d.repo.Create(ctx, row); err != nil {
		if event.ID != uuid.Nil && db.IsUniqueViolation(err, "") {
			d.metrics.IncNotification(string(event.Type), "duplicate")
			return nil
		}
		d.metrics.IncNotification(string(event.Type), "failed")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store notification")
	}
	d.metrics.IncNotification(string(event.Type), "stored")

	dto := FromModel(*row)
	for _, p := range d.pushers {
		if err := p.Push(ctx, dto); err != nil {
			d.metrics.IncNotification(string(event.Type), "push_failed")
			d.logError(ctx, event, "notification push failed", err)
		}
	}
	return nil
}

func (d *Dispatcher) logError(ctx context.Context, event Event, msg string, err error) {
	if d.logg == nil {
		return
	}
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"user_id":           event.UserID.String(),
		"notification_type": event.Type,
		"outbox_id":         event.ID.String(),
	})
	d.logg.Error(logCtx, msg, err)
}
