package activity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/penshort/adminboard/internal/metrics"
	"github.com/penshort/adminboard/internal/model"
	"github.com/penshort/adminboard/internal/repository"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryStore records batches in memory.
type memoryStore struct {
	mu      sync.Mutex
	events  []model.ActivityEvent
	err     error
	batches int
}

func (s *memoryStore) RecordBatch(_ context.Context, events []model.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *memoryStore) stored() []model.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ActivityEvent(nil), s.events...)
}

func testWorker(client *redis.Client, store Store, recorder metrics.Recorder) *Worker {
	return NewWorker(client, store, WorkerConfig{
		ConsumerID:      "test-consumer",
		BlockTimeout:    10 * time.Millisecond,
		MaxRetries:      2,
		RetryBackoff:    time.Millisecond,
		ClaimInterval:   -1,
		MetricsInterval: -1,
	}, discardLogger(), recorder)
}

func TestPublisher_Record(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	recorder := metrics.NewInMemory()
	p := NewPublisher(client, repository.NoopActivityLog{}, discardLogger(), recorder)

	event := &model.ActivityEvent{
		BrowserID: "01HZX",
		Action:    model.ActionProductDeleted,
		SubjectID: "7",
		Tags:      []string{"products"},
	}
	if err := p.Record(ctx, event); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if event.ID == "" || event.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned, got %+v", event)
	}

	messages, err := client.XRange(ctx, StreamKey, "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(messages))
	}

	var payload Payload
	if err := json.Unmarshal([]byte(messages[0].Values[payloadField].(string)), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload.ID != event.ID || payload.Action != "product.deleted" || payload.SubjectID != "7" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if err := ValidatePayload(payload); err != nil {
		t.Errorf("published payload does not validate: %v", err)
	}

	snap := recorder.Snapshot()
	if len(snap.Activity) != 1 || snap.Activity[0].Stage != metrics.StagePublished || snap.Activity[0].Count != 1 {
		t.Errorf("unexpected activity metrics: %+v", snap.Activity)
	}
}

func TestPublisher_RecordRejectsInvalidEvent(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	p := NewPublisher(client, repository.NoopActivityLog{}, discardLogger(), nil)

	err := p.Record(ctx, &model.ActivityEvent{Action: model.ActionLogin})
	if !errors.Is(err, repository.ErrInvalidActivity) {
		t.Fatalf("expected ErrInvalidActivity, got %v", err)
	}

	n, err := client.XLen(ctx, StreamKey).Result()
	if err != nil {
		t.Fatalf("XLen failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty stream, got %d entries", n)
	}
}

func TestWorker_DrainsStream(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	recorder := metrics.NewInMemory()
	p := NewPublisher(client, repository.NoopActivityLog{}, discardLogger(), nil)
	store := &memoryStore{}
	w := testWorker(client, store, recorder)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		t.Fatalf("ensureConsumerGroup failed: %v", err)
	}
	if err := w.ensureConsumerGroup(ctx); err != nil {
		t.Fatalf("ensureConsumerGroup must tolerate an existing group: %v", err)
	}

	login := &model.ActivityEvent{BrowserID: "b1", Action: model.ActionLogin}
	created := &model.ActivityEvent{BrowserID: "b1", Action: model.ActionProductCreated, SubjectID: "ff101"}
	for _, e := range []*model.ActivityEvent{login, created} {
		if err := p.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{payloadField: "{not json"},
	}).Err(); err != nil {
		t.Fatalf("XAdd failed: %v", err)
	}

	if err := w.processOnce(ctx); err != nil {
		t.Fatalf("processOnce failed: %v", err)
	}

	stored := store.stored()
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(stored))
	}
	if stored[0].ID != login.ID || stored[1].SubjectID != "ff101" {
		t.Errorf("unexpected stored events: %+v", stored)
	}
	if stored[1].CreatedAt.UnixMilli() != created.CreatedAt.UnixMilli() {
		t.Errorf("timestamp not preserved: %v vs %v", stored[1].CreatedAt, created.CreatedAt)
	}

	dlq, err := client.XLen(ctx, DeadLetterStreamKey).Result()
	if err != nil {
		t.Fatalf("XLen failed: %v", err)
	}
	if dlq != 1 {
		t.Errorf("expected 1 dead-lettered message, got %d", dlq)
	}

	pending, err := client.XPending(ctx, StreamKey, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("XPending failed: %v", err)
	}
	if pending.Count != 0 {
		t.Errorf("expected all messages acknowledged, %d pending", pending.Count)
	}

	want := map[metrics.ActivityKey]uint64{
		{Stage: metrics.StageProcessed, Outcome: metrics.OutcomeSuccess}:      2,
		{Stage: metrics.StageProcessed, Outcome: metrics.OutcomeDeadLettered}: 1,
	}
	for _, s := range recorder.Snapshot().Activity {
		if want[s.ActivityKey] != s.Count {
			t.Errorf("metric %+v = %d, want %d", s.ActivityKey, s.Count, want[s.ActivityKey])
		}
	}
}

func TestWorker_FailedBatchStaysPending(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	p := NewPublisher(client, repository.NoopActivityLog{}, discardLogger(), nil)
	store := &memoryStore{err: errors.New("database unavailable")}
	w := testWorker(client, store, nil)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		t.Fatalf("ensureConsumerGroup failed: %v", err)
	}
	if err := p.Record(ctx, &model.ActivityEvent{BrowserID: "b1", Action: model.ActionLogout}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := w.processOnce(ctx); err == nil {
		t.Fatal("expected processOnce to fail")
	}
	if store.batches != 2 {
		t.Errorf("expected 2 attempts, got %d", store.batches)
	}

	pending, err := client.XPending(ctx, StreamKey, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("XPending failed: %v", err)
	}
	if pending.Count != 1 {
		t.Errorf("expected the message to stay pending, got %d", pending.Count)
	}
}

func TestWorker_RunAndShutdown(t *testing.T) {
	client := newTestRedis(t)
	store := &memoryStore{}
	w := testWorker(client, store, nil)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	p := NewPublisher(client, repository.NoopActivityLog{}, discardLogger(), nil)
	if err := p.Record(context.Background(), &model.ActivityEvent{BrowserID: "b1", Action: model.ActionLogin}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(store.stored()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if len(store.stored()) != 1 {
		t.Fatalf("expected the event to be drained, got %d", len(store.stored()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected a second Run to fail")
	}
}

func TestShutdown_NotStarted(t *testing.T) {
	w := testWorker(nil, &memoryStore{}, nil)
	if err := w.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown before Run returned %v", err)
	}
}

func TestValidatePayload(t *testing.T) {
	t.Parallel()

	valid := Payload{
		ID:        ulid.Make().String(),
		BrowserID: "b1",
		Action:    string(model.ActionLogin),
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := ValidatePayload(valid); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Payload)
	}{
		{"bad id", func(p *Payload) { p.ID = "not-a-ulid" }},
		{"missing browser", func(p *Payload) { p.BrowserID = "" }},
		{"unknown action", func(p *Payload) { p.Action = "link.created" }},
		{"empty tag", func(p *Payload) { p.Tags = []string{""} }},
		{"missing timestamp", func(p *Payload) { p.CreatedAt = 0 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tt.mutate(&p)
			if err := ValidatePayload(p); err == nil {
				t.Errorf("expected %s to be rejected", tt.name)
			}
		})
	}
}
