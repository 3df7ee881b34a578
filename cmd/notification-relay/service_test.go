package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/pkg/config"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/outbox"
	"github.com/homefix/homeservices-backend/pkg/outbox/payloads"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			staleEvent(t, mustNotificationPayload(t, "first")),
			staleEvent(t, mustNotificationPayload(t, "second")),
		},
	}
	dispatcher := &fakeDispatcher{errs: []error{errors.New("db unavailable"), nil}}
	service := newTestService(t, repo, dispatcher, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServiceStampsOutboxIDOnNotification(t *testing.T) {
	event := staleEvent(t, mustNotificationPayload(t, "Booking confirmed"))
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dispatcher := &fakeDispatcher{}
	service := newTestService(t, repo, dispatcher, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(dispatcher.delivered) != 1 {
		t.Fatalf("expected one delivery, got %d", len(dispatcher.delivered))
	}
	got := dispatcher.delivered[0]
	if got.ID != event.ID {
		t.Fatalf("expected notification id %s, got %s", event.ID, got.ID)
	}
	if got.Title != "Booking confirmed" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Type != enums.NotificationTypeBookingUpdated {
		t.Fatalf("unexpected type %q", got.Type)
	}
}

func TestServiceSkipsRowsInsideGracePeriod(t *testing.T) {
	fresh := staleEvent(t, mustNotificationPayload(t, "fresh"))
	fresh.CreatedAt = testNow.Add(-time.Second)
	repo := &fakeRepo{events: []models.OutboxEvent{fresh}}
	dispatcher := &fakeDispatcher{}
	service := newTestService(t, repo, dispatcher, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected fresh rows to be left alone")
	}
	if len(dispatcher.delivered) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(dispatcher.delivered))
	}
}

func TestServiceMarksUndecodableRowsTerminal(t *testing.T) {
	event := staleEvent(t, json.RawMessage(`not-json`))
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dispatcher := &fakeDispatcher{}
	service := newTestService(t, repo, dispatcher, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row marked terminal, got %v", repo.terminal)
	}
	if len(dispatcher.delivered) != 0 {
		t.Fatalf("expected no delivery for undecodable payload")
	}
}

func TestServiceMarksValidationFailuresTerminal(t *testing.T) {
	event := staleEvent(t, mustNotificationPayload(t, "bad"))
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dispatcher := &fakeDispatcher{errs: []error{pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")}}
	service := newTestService(t, repo, dispatcher, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.terminal) != 1 {
		t.Fatalf("expected terminal mark, got %d", len(repo.terminal))
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no retryable failure marks, got %d", len(repo.failed))
	}
}

func TestServiceMarksTerminalOnMaxAttempts(t *testing.T) {
	event := staleEvent(t, mustNotificationPayload(t, "retry"))
	event.AttemptCount = 1
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dispatcher := &fakeDispatcher{errs: []error{errors.New("transient")}}
	service := newTestService(t, repo, dispatcher, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row marked terminal, got %v", repo.terminal)
	}
	if repo.terminalAttempts != 2 {
		t.Fatalf("expected terminal attempts 2, got %d", repo.terminalAttempts)
	}
}

func TestServiceCombinesBookkeepingErrors(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			staleEvent(t, mustNotificationPayload(t, "one")),
			staleEvent(t, mustNotificationPayload(t, "two")),
		},
		publishErr: errors.New("db gone"),
	}
	service := newTestService(t, repo, &fakeDispatcher{}, nil)

	_, err := service.processBatch(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if repo.publishCalls != 2 {
		t.Fatalf("expected every row attempted, got %d", repo.publishCalls)
	}
}

func TestDecoderRegistryBuildsNotificationEvents(t *testing.T) {
	reg := newDecoderRegistry()
	payload := mustNotificationData(t, "hello")

	decoded, err := reg.Decode(enums.EventNotificationRequested, 1, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	event, ok := decoded.(notifications.Event)
	if !ok {
		t.Fatalf("unexpected decoded type %T", decoded)
	}
	if event.Title != "hello" {
		t.Fatalf("unexpected title %q", event.Title)
	}

	if _, err := reg.Decode(enums.EventNotificationRequested, 9, payload); err == nil {
		t.Fatal("expected unknown version to fail")
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(0, time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("unexpected first backoff %v", got)
	}
	if got := nextBackoff(8*time.Second, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected cap, got %v", got)
	}
}

func newTestService(t *testing.T, repo outboxRepository, dispatcher deliverer, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	cfg := &config.Config{
		Outbox: outboxCfg,
	}
	logg := logger.New(logger.Options{
		ServiceName: "notification-relay-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         &fakeDB{},
		Repository: repo,
		Decoder:    newDecoderRegistry(),
		Dispatcher: dispatcher,
		Now:        func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func staleEvent(t *testing.T, payload json.RawMessage) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
		Payload:       payload,
		CreatedAt:     testNow.Add(-5 * time.Minute),
	}
}

func mustNotificationData(tb testing.TB, title string) json.RawMessage {
	tb.Helper()
	data, err := json.Marshal(payloads.NotificationRequested{
		UserID:  uuid.New(),
		Title:   title,
		Message: "Your booking was updated",
		Type:    enums.NotificationTypeBookingUpdated,
	})
	if err != nil {
		tb.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustNotificationPayload(tb testing.TB, title string) json.RawMessage {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: testNow,
		Data:       mustNotificationData(tb, title),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	events           []models.OutboxEvent
	published        []uuid.UUID
	failed           []uuid.UUID
	terminal         []uuid.UUID
	terminalAttempts int
	publishErr       error
	publishCalls     int
}

func (f *fakeRepo) FetchUnpublished(_ context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	f.publishCalls++
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminal(_ context.Context, id uuid.UUID, err error, maxAttempts int) error {
	f.terminal = append(f.terminal, id)
	f.terminalAttempts = maxAttempts
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

type fakeDispatcher struct {
	errs      []error
	delivered []notifications.Event
}

func (f *fakeDispatcher) Deliver(_ context.Context, event notifications.Event) error {
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err == nil {
		f.delivered = append(f.delivered, event)
	}
	return err
}
