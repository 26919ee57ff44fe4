package providers

import (
	"standbot/internal/structures"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestRegistry(t *testing.T) {
	t.Helper()
	reg := prometheus.NewRegistry()
	prevReg, prevGather := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prevReg
		prometheus.DefaultGatherer = prevGather
	})
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/test", 200)
	m.ObserveRequestDuration("/test", time.Millisecond)
	m.IncCacheHits("name")
	m.IncCacheMisses("board")
	m.ObservePersistenceDuration(time.Millisecond)
	m.SetDialoguesTotal(10)
	m.IncSessions(SessionOpened)
	m.SetLiveSession(true)
	m.IncBroadcastEdits("ok")
	m.IncClassifier("error")
	m.IncTransportFailures("sendMessage")
	m.ObserveUpsertDuration(time.Millisecond)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	withTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_SessionCounters(t *testing.T) {
	withTestRegistry(t)

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}})
	mp, ok := m.(*MetricsProvider)
	require.True(t, ok)

	m.IncSessions(SessionOpened)
	m.IncSessions(SessionOpened)
	m.IncSessions(SessionClosed)
	m.SetLiveSession(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(mp.sessions.WithLabelValues(SessionOpened)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mp.sessions.WithLabelValues(SessionClosed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mp.liveSession))

	m.SetLiveSession(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(mp.liveSession))
}

func TestMetricsProvider_IncrementCounters(t *testing.T) {
	withTestRegistry(t)

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}})

	m.IncRequestsTotal("/leaderboard", 200)
	m.IncRequestsTotal("/leaderboard", 404)
	m.ObserveRequestDuration("/leaderboard", 5*time.Millisecond)
	m.IncCacheHits("name")
	m.IncCacheMisses("board")
	m.ObservePersistenceDuration(100 * time.Millisecond)
	m.SetDialoguesTotal(42)
	m.IncBroadcastEdits("failed")
	m.IncClassifier("close")
	m.IncTransportFailures("pinChatMessage")
	m.ObserveUpsertDuration(time.Millisecond)
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
