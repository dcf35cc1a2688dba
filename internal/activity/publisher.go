// Package activity moves operator activity events through a Redis stream so
// that a page action never waits on the database. A Worker drains the stream
// into the activity log in batches.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/penshort/adminboard/internal/metrics"
	"github.com/penshort/adminboard/internal/model"
	"github.com/penshort/adminboard/internal/repository"
)

const (
	// StreamKey is the Redis stream for activity events.
	StreamKey = "stream:activity_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:activity_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	payloadField = "payload"
)

// Payload is the wire format of an event on the stream.
type Payload struct {
	ID        string   `json:"id"`
	BrowserID string   `json:"b"`
	Action    string   `json:"a"`
	SubjectID string   `json:"s,omitempty"`
	Tags      []string `json:"t,omitempty"`
	CreatedAt int64    `json:"ts"` // Unix milliseconds
}

func payloadFromEvent(e *model.ActivityEvent) Payload {
	return Payload{
		ID:        e.ID,
		BrowserID: e.BrowserID,
		Action:    string(e.Action),
		SubjectID: e.SubjectID,
		Tags:      e.Tags,
		CreatedAt: e.CreatedAt.UnixMilli(),
	}
}

// Publisher implements repository.ActivityLog by appending events to the
// stream. Reads go straight to the underlying log.
type Publisher struct {
	redis   *redis.Client
	reader  repository.ActivityLog
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a Publisher that lists events from reader.
func NewPublisher(client *redis.Client, reader repository.ActivityLog, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		reader:  reader,
		logger:  logger.With("component", "activity.publisher"),
		metrics: recorder,
	}
}

// Record assigns the event its ID and timestamp, then adds it to the stream.
// The ID is the idempotency key when the worker inserts it.
func (p *Publisher) Record(ctx context.Context, event *model.ActivityEvent) error {
	if err := repository.PrepareActivity(event); err != nil {
		return err
	}

	data, err := json.Marshal(payloadFromEvent(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	streamID, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{payloadField: string(data)},
	}).Result()
	if err != nil {
		p.metrics.IncActivityEvent(metrics.StagePublished, metrics.OutcomeDropped)
		return fmt.Errorf("xadd: %w", err)
	}

	p.logger.Debug("activity event published",
		"action", event.Action,
		"stream_id", streamID,
	)
	p.metrics.IncActivityEvent(metrics.StagePublished, metrics.OutcomeSuccess)
	return nil
}

// ListRecent reads from the underlying log. Events still on the stream are
// not included.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]model.ActivityEvent, error) {
	return p.reader.ListRecent(ctx, limit)
}
