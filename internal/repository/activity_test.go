package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/penshort/adminboard/internal/model"
)

func TestClampActivityLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultActivityLimit},
		{-5, DefaultActivityLimit},
		{1, 1},
		{MaxActivityLimit, MaxActivityLimit},
		{MaxActivityLimit + 1, MaxActivityLimit},
	}

	for _, tt := range tests {
		if got := ClampActivityLimit(tt.in); got != tt.want {
			t.Errorf("ClampActivityLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNoopActivityLog(t *testing.T) {
	var log ActivityLog = NoopActivityLog{}
	ctx := context.Background()

	event := &model.ActivityEvent{BrowserID: "b1", Action: model.ActionLogin}
	if err := log.Record(ctx, event); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if event.ID == "" || event.CreatedAt.IsZero() {
		t.Error("expected ID and CreatedAt to be filled in")
	}

	err := log.Record(ctx, &model.ActivityEvent{Action: model.ActionLogin})
	if !errors.Is(err, ErrInvalidActivity) {
		t.Errorf("expected ErrInvalidActivity, got %v", err)
	}

	events, err := log.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", events)
	}
}
