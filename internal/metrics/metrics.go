// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Upstream call outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeRemoteError  = "remote_error"
	OutcomeNetworkError = "network_error"
)

// Activity pipeline stages and outcomes.
const (
	StagePublished = "published"
	StageProcessed = "processed"

	OutcomeDropped      = "dropped"
	OutcomeFailed       = "failed"
	OutcomeDeadLettered = "dead_lettered"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Session metrics
	IncLogin()
	IncLoginRejected()
	IncLogout()

	// Product mutations that succeeded upstream
	IncProductCreated()
	IncProductDeleted()

	// Upstream API calls; op is the client operation name
	ObserveUpstreamCall(op, outcome string, duration time.Duration)

	// Activity events passing through the stream
	IncActivityEvent(stage, outcome string)
	SetActivityQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
