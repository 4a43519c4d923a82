package stateful

import (
	"sync"
	"time"
)

// Operation names a stub operation.
type Operation string

// Stub operations.
const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpList   Operation = "list"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Event describes one finished operation. Err is set when it failed;
// Count is the number of items a list returned.
type Event struct {
	Resource string
	Op       Operation
	ItemID   string
	Count    int
	Duration time.Duration
	Err      error
}

// Observer is notified after each stub operation.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type noopObserver struct{}

func (noopObserver) Observe(Event) {}

// ResourceStats counts the operations on one resource.
type ResourceStats struct {
	Operations map[Operation]int64 `json:"operations"`
	Errors     int64               `json:"errors"`
	Latency    time.Duration       `json:"latencyNs"`
}

// MetricsObserver keeps per-resource counters. It is safe for concurrent
// use.
type MetricsObserver struct {
	mu        sync.Mutex
	resources map[string]*ResourceStats
}

// NewMetricsObserver returns an empty MetricsObserver.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{resources: make(map[string]*ResourceStats)}
}

func (m *MetricsObserver) Observe(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.resources[e.Resource]
	if !ok {
		st = &ResourceStats{Operations: make(map[Operation]int64)}
		m.resources[e.Resource] = st
	}
	if e.Err != nil {
		st.Errors++
		return
	}
	st.Operations[e.Op]++
	st.Latency += e.Duration
}

// Snapshot copies the current counters.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MetricsSnapshot{Resources: make(map[string]ResourceStats, len(m.resources))}
	for name, st := range m.resources {
		c := *st
		c.Operations = make(map[Operation]int64, len(st.Operations))
		for op, n := range st.Operations {
			c.Operations[op] = n
		}
		snap.Resources[name] = c
	}
	return snap
}

// MetricsSnapshot is a copy of MetricsObserver's counters.
type MetricsSnapshot struct {
	Resources map[string]ResourceStats `json:"resources"`
}

// Count is the number of successful op operations across resources.
func (s MetricsSnapshot) Count(op Operation) int64 {
	var n int64
	for _, st := range s.Resources {
		n += st.Operations[op]
	}
	return n
}

// TotalOperations is the number of successful operations.
func (s MetricsSnapshot) TotalOperations() int64 {
	var n int64
	for _, st := range s.Resources {
		for _, c := range st.Operations {
			n += c
		}
	}
	return n
}

// Errors is the number of failed operations.
func (s MetricsSnapshot) Errors() int64 {
	var n int64
	for _, st := range s.Resources {
		n += st.Errors
	}
	return n
}
