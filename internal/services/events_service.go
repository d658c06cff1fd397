package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Journal event types published on the events channel
const (
	EventEntryCreated   = "entry.created"
	EventEntryDeleted   = "entry.deleted"
	EventSnippetCreated = "snippet.created"
	EventSnippetDeleted = "snippet.deleted"

	eventsChannel = "daybook:journal-events"
)

// JournalEvent is the fan-out notification published on writes. Like the
// user directory arrays, event delivery is best-effort and never a source
// of truth.
type JournalEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	EntryID   string    `json:"entryId,omitempty"`
	SnippetID string    `json:"snippetId,omitempty"`
	At        time.Time `json:"at"`
}

// EventsService publishes journal events over Redis pub/sub. A nil
// receiver is valid and publishes nothing, so Redis stays optional.
type EventsService struct {
	client *redis.Client
}

// NewEventsService connects to Redis and returns an event publisher
func NewEventsService(redisURL string) (*EventsService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Redis connection established")
	return &EventsService{client: client}, nil
}

// Publish sends a journal event. Failures are logged and swallowed.
func (s *EventsService) Publish(ctx context.Context, event JournalEvent) {
	if s == nil || s.client == nil {
		return
	}

	if event.At.IsZero() {
		event.At = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Failed to encode journal event: %v", err)
		return
	}

	if err := s.client.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		log.Printf("⚠️ Failed to publish journal event %s: %v", event.Type, err)
	}
}

// Close closes the Redis connection
func (s *EventsService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
