package notify

import (
	"context"
	"log/slog"

	"github.com/facebookgo/clock"
	"github.com/redis/go-redis/v9"
)

// RedisChannelPrefix namespaces dashboard channels on a shared Redis.
const RedisChannelPrefix = "dashboard:"

// RedisNotifier publishes envelopes with PUBLISH on "dashboard:<channel>".
type RedisNotifier struct {
	client *redis.Client
	clock  clock.Clock
}

func NewRedisNotifier(client *redis.Client, clk clock.Clock) *RedisNotifier {
	return &RedisNotifier{client: client, clock: clk}
}

func (n *RedisNotifier) Notify(ctx context.Context, ev Event) {
	body, err := encodeEnvelope(n.clock, ev)
	if err != nil {
		slog.ErrorContext(ctx, "Unable to encode notification", slog.String("event", ev.Name), slog.Any("error", err))
		return
	}

	if err := n.client.Publish(ctx, RedisChannelPrefix+ev.Channel, body).Err(); err != nil {
		slog.WarnContext(ctx, "Unable to publish notification",
			slog.String("channel", ev.Channel),
			slog.String("event", ev.Name),
			slog.Any("error", err))
		return
	}

	slog.DebugContext(ctx, "Published notification", slog.String("channel", ev.Channel), slog.String("event", ev.Name))
}
