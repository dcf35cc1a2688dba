package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/penshort/adminboard/internal/model"
)

// Listing bounds for ListRecent.
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

// ErrInvalidActivity is returned when an event is missing required fields.
var ErrInvalidActivity = errors.New("activity event requires browser id and action")

// ActivityLog records operator actions and lists the latest ones.
type ActivityLog interface {
	Record(ctx context.Context, event *model.ActivityEvent) error
	ListRecent(ctx context.Context, limit int) ([]model.ActivityEvent, error)
}

// Record inserts an event. ID and CreatedAt are filled in when empty.
func (r *Repository) Record(ctx context.Context, event *model.ActivityEvent) error {
	if err := PrepareActivity(event); err != nil {
		return err
	}

	query := `
		INSERT INTO activity_events (id, browser_id, action, subject_id, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.BrowserID,
		string(event.Action),
		event.SubjectID,
		pq.Array(tagsOrEmpty(event.Tags)),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	return nil
}

// RecordBatch inserts events that already carry an ID in one round trip.
// Events whose ID is already stored are skipped, so a redelivered batch is
// harmless.
func (r *Repository) RecordBatch(ctx context.Context, events []model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO activity_events (id, browser_id, action, subject_id, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, event := range events {
		if event.ID == "" {
			return fmt.Errorf("%w: missing id", ErrInvalidActivity)
		}
		batch.Queue(query,
			event.ID,
			event.BrowserID,
			string(event.Action),
			event.SubjectID,
			pq.Array(tagsOrEmpty(event.Tags)),
			event.CreatedAt,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to record activity batch: %w", err)
	}
	return nil
}

// ListRecent returns the newest events first. limit is clamped to
// [1, MaxActivityLimit]; zero or negative means DefaultActivityLimit.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]model.ActivityEvent, error) {
	query := `
		SELECT id, browser_id, action, subject_id, tags, created_at
		FROM activity_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, ClampActivityLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	events := make([]model.ActivityEvent, 0)
	for rows.Next() {
		event, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return events, nil
}

func scanActivity(row pgx.Row) (model.ActivityEvent, error) {
	var (
		event  model.ActivityEvent
		action string
		tags   []string
	)
	if err := row.Scan(
		&event.ID,
		&event.BrowserID,
		&action,
		&event.SubjectID,
		pq.Array(&tags),
		&event.CreatedAt,
	); err != nil {
		return model.ActivityEvent{}, err
	}
	event.Action = model.ActivityAction(action)
	if len(tags) > 0 {
		event.Tags = tags
	}
	return event, nil
}

// ClampActivityLimit normalises a requested page size.
func ClampActivityLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultActivityLimit
	case limit > MaxActivityLimit:
		return MaxActivityLimit
	default:
		return limit
	}
}

// PrepareActivity checks the required fields of event and fills in its ID
// and CreatedAt when empty.
func PrepareActivity(event *model.ActivityEvent) error {
	if event == nil || event.BrowserID == "" || event.Action == "" {
		return ErrInvalidActivity
	}
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// NoopActivityLog discards events. It is used when no database is configured.
type NoopActivityLog struct{}

// Record validates and drops the event.
func (NoopActivityLog) Record(_ context.Context, event *model.ActivityEvent) error {
	return PrepareActivity(event)
}

// ListRecent always returns an empty list.
func (NoopActivityLog) ListRecent(context.Context, int) ([]model.ActivityEvent, error) {
	return []model.ActivityEvent{}, nil
}
