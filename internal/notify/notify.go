// Package notify publishes the "data changed" signal after a crawl run.
//
// The signal is best-effort: the crawler logs a failed publish and moves
// on. Listeners subscribe to the Redis channel and read JSON events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nao1215/optovka/internal/model"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the channel events are published on.
const DefaultChannel = "data_updated"

// EventDataUpdated is the type of the only event published today.
const EventDataUpdated = "data_updated"

// Event describes a change to the stored directory.
type Event struct {
	Type    string                   `json:"type"`
	RunID   string                   `json:"run_id"`
	Created map[model.EntityKind]int `json:"created"`
	At      time.Time                `json:"at"`
}

// NewDataUpdated builds the event for a finished run.
func NewDataUpdated(summary *model.CrawlSummary) Event {
	created := make(map[model.EntityKind]int, len(summary.Entities))
	for kind, st := range summary.Entities {
		created[kind] = st.Created
	}
	return Event{
		Type:    EventDataUpdated,
		RunID:   summary.RunID,
		Created: created,
		At:      summary.FinishedAt,
	}
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }

// publisher is the part of *redis.Client the notifier uses.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Redis publishes events as JSON on a Redis pub/sub channel.
type Redis struct {
	client  publisher
	closer  func() error
	channel string
}

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	n := newRedis(client, opts.Channel)
	n.closer = client.Close
	return n, nil
}

func newRedis(client publisher, channel string) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel, closer: func() error { return nil }}
}

// Notify implements Notifier.
func (r *Redis) Notify(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", r.channel, err)
	}
	return nil
}

// Channel returns the channel events are published on.
func (r *Redis) Channel() string {
	return r.channel
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.closer()
}
