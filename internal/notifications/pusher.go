package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

const pushTimeout = 5 * time.Second

// Pusher forwards a stored notification to a live delivery channel.
type Pusher interface {
	Push(ctx context.Context, n NotificationDTO) error
}

type channelPublisher interface {
	Publish(ctx context.Context, channel string, message any) error
	NotificationChannel(userID string) string
}

// RedisPusher publishes to the per-user channel consumed by the websocket stream.
type RedisPusher struct {
	redis channelPublisher
}

func NewRedisPusher(redis channelPublisher) *RedisPusher {
	return &RedisPusher{redis: redis}
}

func (p *RedisPusher) Push(ctx context.Context, n NotificationDTO) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, p.redis.NotificationChannel(n.UserID.String()), body)
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// PubSubPusher hands notifications to the mobile push fan-out topic.
type PubSubPusher struct {
	publisher topicPublisher
}

func NewPubSubPusher(publisher *gcppubsub.Publisher) *PubSubPusher {
	if publisher == nil {
		return nil
	}
	return &PubSubPusher{publisher: &gcpPublisher{Publisher: publisher}}
}

func (p *PubSubPusher) Push(ctx context.Context, n NotificationDTO) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	result := p.publisher.Publish(pushCtx, &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"notification_id": n.ID.String(),
			"user_id":         n.UserID.String(),
			"type":            string(n.Type),
		},
	})
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	_, err = result.Get(pushCtx)
	return err
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
