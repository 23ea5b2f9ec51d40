package notify

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/facebookgo/clock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTimestampFollowsInjectedClock(t *testing.T) {
	clk := clock.NewMock()
	clk.Add(72 * time.Hour)

	ev := Event{Channel: ChannelProjectUpdates, Name: EventStatsUpdated, Data: map[string]any{"progress": 50}}

	body, err := encodeEnvelope(clk, ev)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, sonic.Unmarshal(body, &env))
	assert.Equal(t, ChannelProjectUpdates, env.Channel)
	assert.Equal(t, EventStatsUpdated, env.Event)
	assert.True(t, env.Timestamp.Equal(clk.Now()), "got %s, want %s", env.Timestamp, clk.Now())

	clk.Add(time.Minute)
	body, err = encodeEnvelope(clk, ev)
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(body, &env))
	assert.True(t, env.Timestamp.Equal(clk.Now()))
}

func TestNotifiersKeepInjectedClock(t *testing.T) {
	clk := clock.NewMock()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	assert.Same(t, clk, NewRedisNotifier(client, clk).clock)
	assert.Same(t, clk, NewPostgresNotifier(nil, clk).clock)
}
