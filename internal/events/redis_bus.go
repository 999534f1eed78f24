package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"open-factcheck/internal/logger"

	goredis "github.com/redis/go-redis/v9"
)

// RedisBus publishes events to a redis channel so every instance's hub sees
// them. Publishing goes to redis only; the forwarder feeds the local hub.
type RedisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects to addr and verifies the connection
func NewRedisBus(ctx context.Context, addr, channel string, log *logger.Logger) (*RedisBus, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "factcheck-events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{
		log:     log.With("service", "RedisBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Forward subscribes to the channel and delivers into hub until ctx ends
func (b *RedisBus) Forward(ctx context.Context, hub *Hub) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok || m == nil {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				b.log.Warn("bad redis event payload", "error", err)
				continue
			}
			hub.Deliver(ev)
		}
	}
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
