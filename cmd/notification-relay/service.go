package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/pkg/config"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/outbox"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultDeliverTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	// defaultGracePeriod leaves fresh rows to the in-process drainer.
	defaultGracePeriod = 30 * time.Second
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type pinger interface {
	Ping(context.Context) error
}

type outboxRepository interface {
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, err error) error
	MarkTerminal(ctx context.Context, id uuid.UUID, err error, maxAttempts int) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

type deliverer interface {
	Deliver(ctx context.Context, event notifications.Event) error
}

// errNonRetryable marks rows that can never be delivered as stored.
var errNonRetryable = errors.New("non-retryable")

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         pinger
	Redis      pinger
	Repository outboxRepository
	Decoder    payloadDecoder
	Dispatcher deliverer
	Now        func() time.Time
}

// Service redelivers notification effects whose in-process delivery did not
// settle their outbox row.
type Service struct {
	logg         *logger.Logger
	db           pinger
	redis        pinger
	repo         outboxRepository
	decoder      payloadDecoder
	dispatcher   deliverer
	now          func() time.Time
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	gracePeriod  time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Decoder == nil {
		return nil, errors.New("payload decoder is required")
	}
	if params.Dispatcher == nil {
		return nil, errors.New("notification dispatcher is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		redis:        params.Redis,
		repo:         params.Repository,
		decoder:      params.Decoder,
		dispatcher:   params.Dispatcher,
		now:          now,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
		gracePeriod:  defaultGracePeriod,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db); err != nil {
		return err
	}
	if s.redis != nil {
		if err := pingDependency(ctx, s.logg, "redis", s.redis); err != nil {
			return err
		}
	}
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, dep pinger) error {
	if err := dep.Ping(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	if interval <= 0 {
		interval = time.Duration(defaultPollMs) * time.Millisecond
	}
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "notification relay context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "notification relay batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch reports whether it settled any row. Bookkeeping failures are
// combined so one bad row does not stall the rest of the batch.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		return false, fmt.Errorf("fetch unpublished: %w", err)
	}

	cutoff := s.now().UTC().Add(-s.gracePeriod)
	processed := false
	var errs error
	for _, event := range events {
		if event.CreatedAt.After(cutoff) {
			continue
		}
		processed = true
		errs = multierr.Append(errs, s.relay(ctx, event))
	}
	return processed, errs
}

func (s *Service) relay(ctx context.Context, event models.OutboxEvent) error {
	fields := s.eventFields(event)

	err := s.deliver(ctx, event)
	if err == nil {
		if markErr := s.repo.MarkPublished(ctx, event.ID); markErr != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "notification relayed")
		return nil
	}

	nextAttempt := event.AttemptCount + 1
	fields["attempt_count"] = nextAttempt
	if errors.Is(err, errNonRetryable) || nextAttempt >= s.maxAttempts {
		fields["terminal"] = true
		logCtx := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
		s.logg.Warn(logCtx, "notification will not be retried")
		if markErr := s.repo.MarkTerminal(ctx, event.ID, err, s.maxAttempts); markErr != nil {
			return fmt.Errorf("mark terminal %s: %w", event.ID, markErr)
		}
		return nil
	}

	logCtx := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
	s.logg.Warn(logCtx, "notification relay failed")
	if markErr := s.repo.MarkFailed(ctx, event.ID, err); markErr != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, markErr)
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, event models.OutboxEvent) error {
	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return fmt.Errorf("%w: decode envelope: %v", errNonRetryable, err)
	}
	decoded, err := s.decoder.Decode(event.EventType, envelope.Version, envelope.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", errNonRetryable, err)
	}
	notification, ok := decoded.(notifications.Event)
	if !ok {
		return fmt.Errorf("%w: unexpected payload %T", errNonRetryable, decoded)
	}
	notification.ID = event.ID

	deliverCtx, cancel := context.WithTimeout(ctx, defaultDeliverTimeout)
	defer cancel()
	if err := s.dispatcher.Deliver(deliverCtx, notification); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			return fmt.Errorf("%w: %v", errNonRetryable, err)
		}
		return err
	}
	return nil
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"batch_size":     s.batchSize,
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
