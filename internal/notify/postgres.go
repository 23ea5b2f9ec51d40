package notify

import (
	"context"
	"log/slog"

	"github.com/facebookgo/clock"
	"github.com/jmoiron/sqlx"
)

// PostgresChannel is the LISTEN/NOTIFY channel carrying every envelope.
const PostgresChannel = "dashboard_events"

// PostgresNotifier publishes envelopes through pg_notify for deployments
// without Redis.
type PostgresNotifier struct {
	db    *sqlx.DB
	clock clock.Clock
}

func NewPostgresNotifier(db *sqlx.DB, clk clock.Clock) *PostgresNotifier {
	return &PostgresNotifier{db: db, clock: clk}
}

func (n *PostgresNotifier) Notify(ctx context.Context, ev Event) {
	body, err := encodeEnvelope(n.clock, ev)
	if err != nil {
		slog.ErrorContext(ctx, "Unable to encode notification", slog.String("event", ev.Name), slog.Any("error", err))
		return
	}

	if _, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, PostgresChannel, string(body)); err != nil {
		slog.WarnContext(ctx, "Unable to publish notification",
			slog.String("channel", ev.Channel),
			slog.String("event", ev.Name),
			slog.Any("error", err))
	}
}
