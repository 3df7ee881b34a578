package notifications

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/internal/dbtest"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	"github.com/homefix/homeservices-backend/pkg/outbox"
)

type recordingPusher struct {
	pushed []NotificationDTO
	err    error
}

func (r *recordingPusher) Push(ctx context.Context, n NotificationDTO) error {
	r.pushed = append(r.pushed, n)
	return r.err
}

type fakeChannelPublisher struct {
	channel string
	body    any
}

func (f *fakeChannelPublisher) Publish(ctx context.Context, channel string, message any) error {
	f.channel = channel
	f.body = message
	return nil
}

func (f *fakeChannelPublisher) NotificationChannel(userID string) string {
	return "hs:notifications:" + userID
}

type fakeTopicPublisher struct {
	msg *gcppubsub.Message
	err error
}

func (f *fakeTopicPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	f.msg = msg
	return fakePublishResult{err: f.err}
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(ctx context.Context) (string, error) {
	return "server-id", f.err
}

func sampleEvent(userID uuid.UUID) Event {
	return Event{
		UserID:  userID,
		Title:   "New Booking Request",
		Message: "You have a new booking request",
		Type:    enums.NotificationTypeBookingConfirmed,
		Data:    map[string]any{"bookingId": "b-1"},
	}
}

func TestDeliverPersistsAndPushes(t *testing.T) {
	conn := dbtest.Open(t)
	pusher := &recordingPusher{err: errors.New("redis down")}
	dispatcher, err := NewDispatcher(DispatcherParams{Repo: NewRepository(conn), Pushers: []Pusher{pusher, nil}})
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, dispatcher.Deliver(context.Background(), sampleEvent(userID)))

	var rows []models.Notification
	require.NoError(t, conn.Where("user_id = ?", userID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "b-1", rows[0].Data["bookingId"])
	assert.False(t, rows[0].Read)
	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, rows[0].ID, pusher.pushed[0].ID)
}

func TestDeliverIsIdempotentForQueuedEvents(t *testing.T) {
	conn := dbtest.Open(t)
	pusher := &recordingPusher{}
	dispatcher, err := NewDispatcher(DispatcherParams{Repo: NewRepository(conn), Pushers: []Pusher{pusher}})
	require.NoError(t, err)

	event := sampleEvent(uuid.New())
	event.ID = uuid.New()
	require.NoError(t, dispatcher.Deliver(context.Background(), event))
	require.NoError(t, dispatcher.Deliver(context.Background(), event))

	var count int64
	require.NoError(t, conn.Model(&models.Notification{}).Where("id = ?", event.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Len(t, pusher.pushed, 1)
}

func TestNotifySwallowsStorageFailure(t *testing.T) {
	repo := &fakeRepository{createFn: func(ctx context.Context, n *models.Notification) error {
		return errors.New("db unavailable")
	}}
	pusher := &recordingPusher{}
	dispatcher, err := NewDispatcher(DispatcherParams{Repo: repo, Pushers: []Pusher{pusher}})
	require.NoError(t, err)

	dispatcher.Notify(context.Background(), sampleEvent(uuid.New()))
	assert.Empty(t, pusher.pushed)

	err = dispatcher.Deliver(context.Background(), sampleEvent(uuid.New()))
	require.Error(t, err)
}

func TestDeliverValidatesEvent(t *testing.T) {
	dispatcher, err := NewDispatcher(DispatcherParams{Repo: &fakeRepository{}})
	require.NoError(t, err)

	event := sampleEvent(uuid.Nil)
	require.Error(t, dispatcher.Deliver(context.Background(), event))

	event = sampleEvent(uuid.New())
	event.Type = enums.NotificationType("PAGER")
	require.Error(t, dispatcher.Deliver(context.Background(), event))
}

func TestRedisPusherPublishesToUserChannel(t *testing.T) {
	pub := &fakeChannelPublisher{}
	n := NotificationDTO{ID: uuid.New(), UserID: uuid.New(), Title: "hi", Type: enums.NotificationTypeSystemUpdate}

	require.NoError(t, NewRedisPusher(pub).Push(context.Background(), n))
	assert.Equal(t, "hs:notifications:"+n.UserID.String(), pub.channel)
	assert.Contains(t, string(pub.body.([]byte)), n.ID.String())
}

func TestPubSubPusherSetsAttributes(t *testing.T) {
	topic := &fakeTopicPublisher{}
	pusher := &PubSubPusher{publisher: topic}
	n := NotificationDTO{ID: uuid.New(), UserID: uuid.New(), Title: "hi", Type: enums.NotificationTypePaymentReceived}

	require.NoError(t, pusher.Push(context.Background(), n))
	require.NotNil(t, topic.msg)
	assert.Equal(t, n.UserID.String(), topic.msg.Attributes["user_id"])
	assert.Equal(t, string(enums.NotificationTypePaymentReceived), topic.msg.Attributes["type"])

	topic.err = errors.New("unavailable")
	require.Error(t, pusher.Push(context.Background(), n))
	assert.Nil(t, NewPubSubPusher(nil))
}

func TestQueueAndDrainSettleOutboxRows(t *testing.T) {
	client, conn := dbtest.Client(t)
	outboxRepo := outbox.NewRepository(conn)
	queue := NewQueue(outbox.NewService(outboxRepo, nil), nil)
	dispatcher, err := NewDispatcher(DispatcherParams{Repo: NewRepository(conn)})
	require.NoError(t, err)
	drainer := NewDrainer(dispatcher, outboxRepo, nil)

	userID := uuid.New()
	var queued []Event
	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		queued = queue.Enqueue(context.Background(), tx, enums.AggregateBooking, uuid.New(), nil, []Event{sampleEvent(userID)})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, queued, 1)
	require.NotEqual(t, uuid.Nil, queued[0].ID)

	drainer.Drain(context.Background(), queued)

	row, err := outboxRepo.FindByID(context.Background(), queued[0].ID)
	require.NoError(t, err)
	assert.NotNil(t, row.PublishedAt)

	var stored models.Notification
	require.NoError(t, conn.First(&stored, "id = ?", queued[0].ID).Error)
	assert.Equal(t, userID, stored.UserID)
}

func TestDrainMarksFailuresForRelay(t *testing.T) {
	client, conn := dbtest.Client(t)
	outboxRepo := outbox.NewRepository(conn)
	queue := NewQueue(outbox.NewService(outboxRepo, nil), nil)
	failing := &fakeRepository{createFn: func(ctx context.Context, n *models.Notification) error {
		return errors.New("insert failed")
	}}
	dispatcher, err := NewDispatcher(DispatcherParams{Repo: failing})
	require.NoError(t, err)

	var queued []Event
	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		queued = queue.Enqueue(context.Background(), tx, enums.AggregateBooking, uuid.New(), nil, []Event{sampleEvent(uuid.New())})
		return nil
	}))

	NewDrainer(dispatcher, outboxRepo, nil).Drain(context.Background(), queued)

	row, err := outboxRepo.FindByID(context.Background(), queued[0].ID)
	require.NoError(t, err)
	assert.Nil(t, row.PublishedAt)
	assert.Equal(t, 1, row.AttemptCount)
	require.NotNil(t, row.LastError)
}

func TestDrainWithoutOutboxNotifiesBestEffort(t *testing.T) {
	calls := 0
	repo := &fakeRepository{createFn: func(ctx context.Context, n *models.Notification) error {
		calls++
		if calls == 1 {
			return errors.New("insert failed")
		}
		return nil
	}}
	pusher := &recordingPusher{}
	dispatcher, err := NewDispatcher(DispatcherParams{Repo: repo, Pushers: []Pusher{pusher}})
	require.NoError(t, err)

	first, second := sampleEvent(uuid.New()), sampleEvent(uuid.New())
	NewDrainer(dispatcher, nil, nil).Drain(context.Background(), []Event{first, second})

	assert.Equal(t, 2, calls)
	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, second.UserID, pusher.pushed[0].UserID)
}
