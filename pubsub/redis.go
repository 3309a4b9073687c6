// Package pubsub mirrors a document session's outbound events onto a
// per-document Redis channel, so relay processes (read-only mirrors,
// loggers, extra websocket frontends) can follow a live session without
// talking to the coordinator directly.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/coedit/coedit/commons"
)

// channelName returns the Redis channel for a document.
func channelName(doc string) string {
	return "coedit:" + doc
}

// Publisher publishes session events to a document's Redis channel.
type Publisher struct {
	rdb *redis.Client
	doc string
}

// NewPublisher connects to Redis at addr and publishes on the channel of
// the named document.
func NewPublisher(ctx context.Context, addr, doc string) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Publisher{rdb: rdb, doc: doc}, nil
}

// Publish sends one message to the document channel.
func (p *Publisher) Publish(ctx context.Context, msg commons.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := p.rdb.Publish(ctx, channelName(p.doc), b).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channelName(p.doc), err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

// Subscribe follows a document channel and forwards every decoded message
// until ctx is cancelled. Messages that fail to decode are logged and
// skipped.
func Subscribe(ctx context.Context, addr, doc string, logger *logrus.Logger) (<-chan commons.Message, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	sub := rdb.Subscribe(ctx, channelName(doc))
	out := make(chan commons.Message)

	go func() {
		defer close(out)
		defer sub.Close()
		defer rdb.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-sub.Channel():
				if !ok {
					return
				}
				var msg commons.Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					logger.Errorf("failed to decode relayed message: %v", err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
