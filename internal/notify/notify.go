// Package notify hands domain events to the real-time transport.
//
// Delivery is best effort. A Notifier never reports failure to its caller:
// a lost notification must not fail or roll back the mutation that produced
// it, so implementations log delivery errors and move on.
package notify

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/facebookgo/clock"
)

const (
	ChannelUserUpdates    = "user-updates"
	ChannelUserCounts     = "user-counts"
	ChannelProjectUpdates = "project-updates"

	EventUserLoggedIn    = "user-logged-in"
	EventUserLoggedOut   = "user-logged-out"
	EventSessionTakeover = "session-takeover"
	EventCountsUpdated   = "counts-updated"
	EventPasswordChanged = "password-changed"
	EventStatsUpdated    = "stats-updated"
	EventUserCreated     = "user-created"
	EventUserDeleted     = "user-deleted"
)

// Event is a single notification addressed to one channel.
type Event struct {
	Channel string
	Name    string
	Data    any
}

// Envelope is the wire form published to the transport.
type Envelope struct {
	Channel   string    `json:"channel"`
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// encodeEnvelope wraps ev in an Envelope stamped with the clock's time.
func encodeEnvelope(clk clock.Clock, ev Event) ([]byte, error) {
	return sonic.Marshal(Envelope{
		Channel:   ev.Channel,
		Event:     ev.Name,
		Data:      ev.Data,
		Timestamp: clk.Now(),
	})
}

type Notifier interface {
	// Notify delivers ev on a best-effort basis and never blocks the caller on
	// delivery failure.
	Notify(ctx context.Context, ev Event)
}

// UserChannel is the private channel of a single user.
func UserChannel(userID string) string {
	return "user-" + userID
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
