package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/dashboard/internal/notify"
)

type chanSource struct {
	ch chan string
}

func (s *chanSource) open(context.Context) (<-chan string, error) {
	return s.ch, nil
}

func (s *chanSource) close() error {
	return nil
}

type brokenSource struct {
	err    error
	closed bool
}

func (s *brokenSource) open(context.Context) (<-chan string, error) {
	return nil, s.err
}

func (s *brokenSource) close() error {
	s.closed = true
	return nil
}

func TestStartFailureReleasesSource(t *testing.T) {
	src := &brokenSource{err: errors.New("connection refused")}
	ps := newPubSub(src)

	err := ps.Start()
	assert.ErrorIs(t, err, src.err)
	assert.True(t, src.closed)
	assert.Error(t, ps.ctx.Err())
}

func TestDecode(t *testing.T) {
	env, err := Decode(`{"channel":"project-updates","event":"stats-updated","data":{"progress":50},"timestamp":"2026-10-17T09:00:00Z"}`)
	require.NoError(t, err)
	assert.Equal(t, notify.ChannelProjectUpdates, env.Channel)
	assert.Equal(t, notify.EventStatsUpdated, env.Event)
	assert.Equal(t, map[string]interface{}{"progress": float64(50)}, env.Data)

	_, err = Decode(`{"data":{}}`)
	assert.Error(t, err)

	_, err = Decode(`not json`)
	assert.Error(t, err)
}

func TestPubSubDispatchesInOrder(t *testing.T) {
	src := &chanSource{ch: make(chan string)}
	ps := newPubSub(src)

	got := make(chan notify.Envelope, 3)
	ps.Subscribe(func(env notify.Envelope) { got <- env })
	require.NoError(t, ps.Start())

	for _, name := range []string{notify.EventUserLoggedIn, notify.EventCountsUpdated} {
		body, err := sonic.MarshalString(notify.Envelope{Channel: "user-updates", Event: name, Timestamp: time.Now()})
		require.NoError(t, err)
		src.ch <- body
	}
	src.ch <- "garbage"
	close(src.ch)

	ps.Stop()
	close(got)

	var names []string
	for env := range got {
		names = append(names, env.Event)
	}
	assert.Equal(t, []string{notify.EventUserLoggedIn, notify.EventCountsUpdated}, names)
}
