package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// UpstreamKey identifies one upstream counter series.
type UpstreamKey struct {
	Op      string
	Outcome string
}

// UpstreamStat aggregates calls for one series.
type UpstreamStat struct {
	UpstreamKey
	Count           uint64
	DurationTotalNs int64
}

// ActivityKey identifies one activity pipeline counter.
type ActivityKey struct {
	Stage   string
	Outcome string
}

// ActivityStat is the count for one ActivityKey.
type ActivityStat struct {
	ActivityKey
	Count uint64
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Logins          uint64
	LoginsRejected  uint64
	Logouts         uint64
	ProductsCreated uint64
	ProductsDeleted uint64
	// Upstream is sorted by op, then outcome.
	Upstream []UpstreamStat
	// Activity is sorted by stage, then outcome.
	Activity           []ActivityStat
	ActivityQueueDepth int64
}

// InMemoryRecorder stores metrics in memory and backs the /metrics endpoint.
type InMemoryRecorder struct {
	logins          uint64
	loginsRejected  uint64
	logouts         uint64
	productsCreated uint64
	productsDeleted uint64
	queueDepth      int64

	mu       sync.Mutex
	upstream map[UpstreamKey]*UpstreamStat
	activity map[ActivityKey]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		upstream: make(map[UpstreamKey]*UpstreamStat),
		activity: make(map[ActivityKey]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	snap := Snapshot{
		Logins:          atomic.LoadUint64(&m.logins),
		LoginsRejected:  atomic.LoadUint64(&m.loginsRejected),
		Logouts:         atomic.LoadUint64(&m.logouts),
		ProductsCreated: atomic.LoadUint64(&m.productsCreated),
		ProductsDeleted: atomic.LoadUint64(&m.productsDeleted),

		ActivityQueueDepth: atomic.LoadInt64(&m.queueDepth),
	}

	m.mu.Lock()
	snap.Upstream = make([]UpstreamStat, 0, len(m.upstream))
	for _, stat := range m.upstream {
		snap.Upstream = append(snap.Upstream, *stat)
	}
	snap.Activity = make([]ActivityStat, 0, len(m.activity))
	for key, count := range m.activity {
		snap.Activity = append(snap.Activity, ActivityStat{ActivityKey: key, Count: count})
	}
	m.mu.Unlock()

	sort.Slice(snap.Upstream, func(i, j int) bool {
		a, b := snap.Upstream[i], snap.Upstream[j]
		if a.Op != b.Op {
			return a.Op < b.Op
		}
		return a.Outcome < b.Outcome
	})
	sort.Slice(snap.Activity, func(i, j int) bool {
		a, b := snap.Activity[i], snap.Activity[j]
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		return a.Outcome < b.Outcome
	})
	return snap
}

// IncLogin increments the accepted login counter.
func (m *InMemoryRecorder) IncLogin() {
	atomic.AddUint64(&m.logins, 1)
}

// IncLoginRejected increments the rejected login counter.
func (m *InMemoryRecorder) IncLoginRejected() {
	atomic.AddUint64(&m.loginsRejected, 1)
}

// IncLogout increments the logout counter.
func (m *InMemoryRecorder) IncLogout() {
	atomic.AddUint64(&m.logouts, 1)
}

// IncProductCreated increments the product created counter.
func (m *InMemoryRecorder) IncProductCreated() {
	atomic.AddUint64(&m.productsCreated, 1)
}

// IncProductDeleted increments the product deleted counter.
func (m *InMemoryRecorder) IncProductDeleted() {
	atomic.AddUint64(&m.productsDeleted, 1)
}

// ObserveUpstreamCall records one upstream call.
func (m *InMemoryRecorder) ObserveUpstreamCall(op, outcome string, duration time.Duration) {
	key := UpstreamKey{Op: op, Outcome: outcome}

	m.mu.Lock()
	defer m.mu.Unlock()

	stat, ok := m.upstream[key]
	if !ok {
		stat = &UpstreamStat{UpstreamKey: key}
		m.upstream[key] = stat
	}
	stat.Count++
	stat.DurationTotalNs += duration.Nanoseconds()
}

// IncActivityEvent counts one activity event at a pipeline stage.
func (m *InMemoryRecorder) IncActivityEvent(stage, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity[ActivityKey{Stage: stage, Outcome: outcome}]++
}

// SetActivityQueueDepth records the backlog of the activity stream.
func (m *InMemoryRecorder) SetActivityQueueDepth(depth int64) {
	atomic.StoreInt64(&m.queueDepth, depth)
}
