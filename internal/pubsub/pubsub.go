package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/curaious/dashboard/internal/config"
	"github.com/curaious/dashboard/internal/db"
	"github.com/curaious/dashboard/internal/notify"
)

// EventHandler is called for every decoded notification
type EventHandler func(env notify.Envelope)

// source delivers raw envelope payloads from one transport.
type source interface {
	open(ctx context.Context) (<-chan string, error)
	close() error
}

// PubSub receives the notifications published by notify and fans them out to
// the registered handlers, in arrival order.
type PubSub struct {
	src      source
	handlers []EventHandler
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func newPubSub(src source) *PubSub {
	ctx, cancel := context.WithCancel(context.Background())

	return &PubSub{
		src:      src,
		handlers: make([]EventHandler, 0),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// NewRedisPubSub pattern-subscribes to every dashboard channel.
func NewRedisPubSub(client *redis.Client) *PubSub {
	return newPubSub(&redisSource{client: client})
}

// NewPostgresPubSub listens on the pg_notify channel.
func NewPostgresPubSub(conf *config.Config) *PubSub {
	return newPubSub(&postgresSource{connStr: db.ConnString(conf)})
}

// Subscribe adds a handler for notifications
func (ps *PubSub) Subscribe(handler EventHandler) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.handlers = append(ps.handlers, handler)
}

// Start begins listening for notifications
func (ps *PubSub) Start() error {
	payloads, err := ps.src.open(ps.ctx)
	if err != nil {
		ps.cancel()
		if cerr := ps.src.close(); cerr != nil {
			slog.Warn("PubSub close failed", slog.Any("error", cerr))
		}
		return err
	}

	slog.Info("PubSub started listening for notifications")

	go ps.processNotifications(payloads)

	return nil
}

// Stop closes the listener and waits for the processing loop to exit
func (ps *PubSub) Stop() {
	ps.cancel()
	if err := ps.src.close(); err != nil {
		slog.Warn("PubSub close failed", slog.Any("error", err))
	}
	<-ps.done
	slog.Info("PubSub stopped")
}

func (ps *PubSub) processNotifications(payloads <-chan string) {
	defer close(ps.done)

	for {
		select {
		case <-ps.ctx.Done():
			return
		case payload, ok := <-payloads:
			if !ok {
				return
			}

			env, err := Decode(payload)
			if err != nil {
				slog.Warn("Invalid notification payload", slog.String("payload", payload), slog.Any("error", err))
				continue
			}

			slog.Debug("Received notification",
				slog.String("channel", env.Channel),
				slog.String("event", env.Event))

			ps.notifyHandlers(env)
		}
	}
}

func (ps *PubSub) notifyHandlers(env notify.Envelope) {
	ps.mu.RLock()
	handlers := make([]EventHandler, len(ps.handlers))
	copy(handlers, ps.handlers)
	ps.mu.RUnlock()

	for _, handler := range handlers {
		handler(env)
	}
}

// Decode parses an envelope published by notify.
func Decode(payload string) (notify.Envelope, error) {
	var env notify.Envelope
	if err := sonic.UnmarshalString(payload, &env); err != nil {
		return env, err
	}
	if env.Channel == "" || env.Event == "" {
		return env, fmt.Errorf("envelope is missing channel or event")
	}
	return env, nil
}

type redisSource struct {
	client *redis.Client
	sub    *redis.PubSub
}

func (s *redisSource) open(ctx context.Context) (<-chan string, error) {
	pattern := notify.RedisChannelPrefix + "*"
	s.sub = s.client.PSubscribe(ctx, pattern)
	if _, err := s.sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range s.sub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *redisSource) close() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Close()
}

type postgresSource struct {
	connStr  string
	listener *pq.Listener
}

func (s *postgresSource) open(ctx context.Context) (<-chan string, error) {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Error("PubSub listener error", slog.Any("error", err))
		}
		if ev == pq.ListenerEventConnectionAttemptFailed {
			slog.Warn("PubSub connection attempt failed, will retry")
		}
		if ev == pq.ListenerEventDisconnected {
			slog.Warn("PubSub disconnected, will attempt reconnect")
		}
		if ev == pq.ListenerEventReconnected {
			slog.Info("PubSub reconnected, notifications sent while disconnected are lost")
		}
	}

	s.listener = pq.NewListener(s.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := s.listener.Listen(notify.PostgresChannel); err != nil {
		return nil, fmt.Errorf("failed to listen on %s channel: %w", notify.PostgresChannel, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-s.listener.Notify:
				if !ok {
					return
				}
				if n == nil {
					// Connection lost, handled by reportProblem
					continue
				}
				select {
				case out <- strings.TrimSpace(n.Extra):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *postgresSource) close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
