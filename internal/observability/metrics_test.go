package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordStage("ticket", 200, 15*time.Millisecond)
	m.RecordStage("ticket", 200, 20*time.Millisecond)
	m.RecordStage("core", 403, time.Millisecond)
	m.RecordError("core", "UPSTREAM_REJECTED")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["ticket|200"])
	assert.Equal(t, int64(1), snap.Requests["core|403"])
	assert.Equal(t, int64(1), snap.Errors["core|UPSTREAM_REJECTED"])
	assert.Equal(t, 20*time.Millisecond, snap.Durations["ticket"])

	snap.Requests["ticket|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["ticket|200"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordStage("ticket", 200, time.Millisecond)
	m.RecordError("ticket", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
