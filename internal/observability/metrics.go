package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters keyed by stage.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	lastDuration map[string]time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		lastDuration: make(map[string]time.Duration),
	}
}

// RecordStage counts an upstream call and keeps its latency.
func (m *Metrics) RecordStage(stage string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[stageKey(stage, status)]++
	m.lastDuration[stage] = duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(stage, code string) {
	if m == nil {
		return
	}
	key := stage + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot is a copy of the current counters.
type Snapshot struct {
	Requests  map[string]int64
	Errors    map[string]int64
	Durations map[string]time.Duration
}

// Snapshot returns a copy safe to log or inspect.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:  map[string]int64{},
		Errors:    map[string]int64{},
		Durations: map[string]time.Duration{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		snap.Requests[k] = v
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.lastDuration {
		snap.Durations[k] = v
	}
	return snap
}

func stageKey(stage string, status int) string {
	return stage + "|" + strconv.Itoa(status)
}
