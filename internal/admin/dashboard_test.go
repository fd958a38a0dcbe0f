package admin

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smilecare-dental/internal/catalog"
	"github.com/wolfman30/smilecare-dental/internal/observability/metrics"
)

func TestBuildDashboardEnrichesRows(t *testing.T) {
	review := NewReview(seededStore(t), nil)
	dash := BuildDashboard(review, catalog.Default(), FilterAll, prometheus.NewRegistry())

	require.Len(t, dash.Appointments, 2)
	first := dash.Appointments[0]
	assert.Equal(t, "apt_1", first.ID)
	assert.Equal(t, "Routine Checkup & Cleaning", first.ServiceTitle)
	assert.Equal(t, "Dr. Sarah Bennett", first.DoctorName)
	assert.Len(t, first.Actions, 1)

	second := dash.Appointments[1]
	assert.Equal(t, "Invisalign Consultation", second.ServiceTitle)
	assert.Equal(t, "Dr. James Chen", second.DoctorName)
	assert.Len(t, second.Actions, 2)

	assert.Equal(t, "2025-03-10", dash.Today)
	assert.Equal(t, Stats{Pending: 1, Confirmed: 1, Today: 1, Total: 2}, dash.Stats)
	assert.Zero(t, dash.ChatLatency.Total)
}

func TestChatLatencySnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	for i := 0; i < 9; i++ {
		m.ObserveChatLatency("gemini", "ok", 0.4)
	}
	m.ObserveChatLatency("bedrock", "ok", 40)
	m.ObserveChatLatency("gemini", "error", 2)

	snap := snapshotChatLatency(reg)
	assert.Equal(t, int64(10), snap.Total)
	assert.Equal(t, map[string]int64{"gemini": 9, "bedrock": 1}, snap.ByProvider)
	assert.InDelta(t, 500.0, snap.P90Ms, 0.001)
	assert.InDelta(t, 30000.0, snap.P95Ms, 0.001)

	var counted int64
	for _, b := range snap.Buckets {
		counted += b.Count
	}
	assert.Equal(t, int64(10), counted)
	last := snap.Buckets[len(snap.Buckets)-1]
	assert.Equal(t, ">30s", last.Label)
	assert.Equal(t, int64(1), last.Count)
}

func TestChatLatencySnapshotWithoutMetric(t *testing.T) {
	assert.Equal(t, ChatLatencySnapshot{}, snapshotChatLatency(prometheus.NewRegistry()))
}
