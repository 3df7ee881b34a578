package notifications

import (
	"context"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Feed streams live notification payloads for a single user.
type Feed interface {
	Listen(ctx context.Context, userID uuid.UUID) (<-chan []byte, error)
}

type channelSubscriber interface {
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
	NotificationChannel(userID string) string
}

// RedisFeed reads the per-user channel RedisPusher publishes to.
type RedisFeed struct {
	redis channelSubscriber
}

func NewRedisFeed(redis channelSubscriber) *RedisFeed {
	return &RedisFeed{redis: redis}
}

// Listen subscribes until ctx is cancelled; the returned channel closes afterwards.
func (f *RedisFeed) Listen(ctx context.Context, userID uuid.UUID) (<-chan []byte, error) {
	sub, err := f.redis.Subscribe(ctx, f.redis.NotificationChannel(userID.String()))
	if err != nil {
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer sub.Close()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
