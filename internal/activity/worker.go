package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/penshort/adminboard/internal/metrics"
	"github.com/penshort/adminboard/internal/model"
)

// ConsumerGroup is the Redis consumer group shared by all dashboard instances.
const ConsumerGroup = "activity_writers"

// Worker defaults.
const (
	DefaultBatchSize       = 100
	DefaultBlockTimeout    = 5 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryBackoff    = time.Second
	DefaultClaimInterval   = 10 * time.Second
	DefaultClaimIdle       = 30 * time.Second
	DefaultMetricsInterval = 5 * time.Second
)

// Store is where drained events are written.
type Store interface {
	RecordBatch(ctx context.Context, events []model.ActivityEvent) error
}

// WorkerConfig tunes a Worker. Zero fields take the defaults; a negative
// ClaimInterval or MetricsInterval disables that step.
type WorkerConfig struct {
	ConsumerID      string
	BatchSize       int
	BlockTimeout    time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	ClaimInterval   time.Duration
	ClaimIdle       time.Duration
	MetricsInterval time.Duration
}

func (c *WorkerConfig) applyDefaults() {
	if c.ConsumerID == "" {
		c.ConsumerID = NewConsumerID()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = DefaultBlockTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.ClaimInterval == 0 {
		c.ClaimInterval = DefaultClaimInterval
	}
	if c.ClaimIdle <= 0 {
		c.ClaimIdle = DefaultClaimIdle
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = DefaultMetricsInterval
	}
}

// Worker drains the activity stream into a Store.
type Worker struct {
	redis   *redis.Client
	store   Store
	logger  *slog.Logger
	metrics metrics.Recorder
	cfg     WorkerConfig

	claimStartID string
	lastClaim    time.Time
	lastMetrics  time.Time

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWorker creates a Worker.
func NewWorker(client *redis.Client, store Store, cfg WorkerConfig, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:        client,
		store:        store,
		logger:       logger.With("component", "activity.worker", "consumer_id", cfg.ConsumerID),
		metrics:      recorder,
		cfg:          cfg,
		claimStartID: "0-0",
	}
}

// Run processes batches until ctx is cancelled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("activity worker started")

	for {
		if err := w.processOnce(ctx); err != nil {
			if ctx.Err() != nil {
				w.logger.Info("activity worker stopping")
				return nil
			}
			w.logger.Error("process error", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			w.logger.Info("activity worker stopping")
			return nil
		}
	}
}

// Shutdown stops the worker and waits for Run to return. Unacknowledged
// messages stay pending and are claimed again after a restart.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("activity worker shutdown timed out")
		return ctx.Err()
	}
}

func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isConsumerGroupExistsError(err) {
		return err
	}
	return nil
}

// processOnce reads and stores a single batch. A batch that cannot be stored
// is left unacknowledged so it is claimed again later.
func (w *Worker) processOnce(ctx context.Context) error {
	w.maybeUpdateQueueDepth(ctx)

	claimed, err := w.maybeClaimPending(ctx)
	if err != nil {
		w.logger.Warn("failed to claim pending messages", "error", err)
	}

	messages := claimed
	if len(messages) == 0 {
		messages, err = w.readBatch(ctx)
		if err != nil {
			return err
		}
	}
	if len(messages) == 0 {
		return nil
	}

	events, messageIDs := w.parseMessages(ctx, messages)
	if len(events) > 0 {
		if err := w.storeWithRetry(ctx, events); err != nil {
			w.logger.Error("batch failed after retries",
				"batch_size", len(events),
				"error", err,
			)
			return err
		}
	}

	return w.ackMessages(ctx, messageIDs)
}

func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if w.cfg.ClaimInterval < 0 {
		return nil, nil
	}
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.cfg.ClaimInterval {
		return nil, nil
	}
	w.lastClaim = time.Now()

	messages, start, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.cfg.ConsumerID,
		MinIdle:  w.cfg.ClaimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.cfg.BatchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if start != "" {
		w.claimStartID = start
	}
	return messages, nil
}

func (w *Worker) maybeUpdateQueueDepth(ctx context.Context) {
	if w.cfg.MetricsInterval < 0 {
		return
	}
	if !w.lastMetrics.IsZero() && time.Since(w.lastMetrics) < w.cfg.MetricsInterval {
		return
	}
	w.lastMetrics = time.Now()

	groups, err := w.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		w.logger.Warn("failed to read stream group info", "error", err)
		return
	}
	for _, group := range groups {
		if group.Name == ConsumerGroup {
			w.metrics.SetActivityQueueDepth(group.Pending + group.Lag)
			return
		}
	}
}

func (w *Worker) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.cfg.ConsumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.cfg.BatchSize),
		Block:    w.cfg.BlockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return streams[0].Messages, nil
}

// parseMessages converts stream messages to events. Poison messages go to
// the dead-letter stream; every message id is returned for acknowledgement.
func (w *Worker) parseMessages(ctx context.Context, messages []redis.XMessage) ([]model.ActivityEvent, []string) {
	events := make([]model.ActivityEvent, 0, len(messages))
	messageIDs := make([]string, 0, len(messages))

	for _, msg := range messages {
		messageIDs = append(messageIDs, msg.ID)

		raw, ok := msg.Values[payloadField].(string)
		if !ok {
			w.deadLetter(ctx, msg, "invalid_format", "payload field missing or not a string")
			continue
		}

		var p Payload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			w.deadLetter(ctx, msg, "unmarshal_error", err.Error())
			continue
		}
		if err := ValidatePayload(p); err != nil {
			w.deadLetter(ctx, msg, "validation_error", err.Error())
			continue
		}

		events = append(events, model.ActivityEvent{
			ID:        p.ID,
			BrowserID: p.BrowserID,
			Action:    model.ActivityAction(p.Action),
			SubjectID: p.SubjectID,
			Tags:      p.Tags,
			CreatedAt: time.UnixMilli(p.CreatedAt).UTC(),
		})
	}

	return events, messageIDs
}

func (w *Worker) deadLetter(ctx context.Context, msg redis.XMessage, reason, detail string) {
	w.logger.Warn("dead-lettering poison message",
		"message_id", msg.ID,
		"reason", reason,
		"detail", detail,
	)

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: 1000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"reason":           reason,
			"detail":           detail,
			"payload":          fmt.Sprint(msg.Values[payloadField]),
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("failed to write to dead-letter stream",
			"message_id", msg.ID,
			"error", err,
		)
	}

	w.metrics.IncActivityEvent(metrics.StageProcessed, metrics.OutcomeDeadLettered)
}

// storeWithRetry writes a batch, backing off exponentially between attempts.
func (w *Worker) storeWithRetry(ctx context.Context, events []model.ActivityEvent) error {
	var lastErr error

	for attempt := 1; attempt <= w.cfg.MaxRetries; attempt++ {
		start := time.Now()
		err := w.store.RecordBatch(ctx, events)
		if err == nil {
			w.logger.Debug("batch stored",
				"events_count", len(events),
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
			)
			for range events {
				w.metrics.IncActivityEvent(metrics.StageProcessed, metrics.OutcomeSuccess)
			}
			return nil
		}

		lastErr = err
		if attempt == w.cfg.MaxRetries {
			break
		}
		backoff := w.cfg.RetryBackoff << (attempt - 1)
		w.logger.Warn("batch store failed, retrying",
			"attempt", attempt,
			"backoff", backoff.String(),
			"error", err,
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	for range events {
		w.metrics.IncActivityEvent(metrics.StageProcessed, metrics.OutcomeFailed)
	}
	return lastErr
}

func (w *Worker) ackMessages(ctx context.Context, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func isConsumerGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
