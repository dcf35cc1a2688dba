package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncLogin()          {}
func (n *NoopRecorder) IncLoginRejected()  {}
func (n *NoopRecorder) IncLogout()         {}
func (n *NoopRecorder) IncProductCreated() {}
func (n *NoopRecorder) IncProductDeleted() {}

func (n *NoopRecorder) ObserveUpstreamCall(op, outcome string, duration time.Duration) {}

func (n *NoopRecorder) IncActivityEvent(stage, outcome string) {}
func (n *NoopRecorder) SetActivityQueueDepth(depth int64)      {}
