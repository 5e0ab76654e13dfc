// Package redissink publishes live desk events to Redis pub/sub channels so
// displays on other machines can follow the platform.
package redissink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oshokin/meet-desk/internal/live"
)

// Publisher is the part of a Redis client the sink uses.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Sink publishes every event as JSON on "<prefix>:<contestID>".
type Sink struct {
	client  Publisher
	prefix  string
	timeout time.Duration
}

var errPublisherRequired = errors.New("redis publisher is required")

// New creates a sink over an existing publisher.
func New(client Publisher, prefix string, timeout time.Duration) (*Sink, error) {
	if client == nil {
		return nil, errPublisherRequired
	}

	return &Sink{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, ":"),
		timeout: timeout,
	}, nil
}

// Dial connects to Redis at addr and returns the sink with a close function.
func Dial(ctx context.Context, addr, prefix string, timeout time.Duration) (*Sink, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	sink, err := New(client, prefix, timeout)
	if err != nil {
		_ = client.Close()

		return nil, nil, err
	}

	return sink, client.Close, nil
}

// Channel returns the channel name for a contest.
func (s *Sink) Channel(contestID string) string {
	if s.prefix == "" {
		return contestID
	}

	return s.prefix + ":" + contestID
}

// Deliver implements live.Sink.
func (s *Sink) Deliver(ctx context.Context, event live.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal live event: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err = s.client.Publish(ctx, s.Channel(event.ContestID), body).Err(); err != nil {
		return fmt.Errorf("publish live event: %w", err)
	}

	return nil
}
