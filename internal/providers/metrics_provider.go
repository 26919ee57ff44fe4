package providers

import (
	"standbot/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session lifecycle labels for IncSessions.
const (
	SessionOpened    = "opened"
	SessionClosed    = "closed"
	SessionCancelled = "cancelled"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(keyspace string)
	IncCacheMisses(keyspace string)
	ObservePersistenceDuration(duration time.Duration)
	SetDialoguesTotal(count int)
	IncSessions(event string)
	SetLiveSession(active bool)
	IncBroadcastEdits(result string)
	IncClassifier(result string)
	IncTransportFailures(op string)
	ObserveUpsertDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	dialoguesTotal      prometheus.Gauge
	sessions            *prometheus.CounterVec
	liveSession         prometheus.Gauge
	broadcastEdits      *prometheus.CounterVec
	classifier          *prometheus.CounterVec
	transportFailures   *prometheus.CounterVec
	upsertDuration      prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(keyspace string) {
	m.cacheHits.WithLabelValues(keyspace).Inc()
}

func (m *MetricsProvider) IncCacheMisses(keyspace string) {
	m.cacheMisses.WithLabelValues(keyspace).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetDialoguesTotal(count int) {
	m.dialoguesTotal.Set(float64(count))
}

func (m *MetricsProvider) IncSessions(event string) {
	m.sessions.WithLabelValues(event).Inc()
}

func (m *MetricsProvider) SetLiveSession(active bool) {
	if active {
		m.liveSession.Set(1)
		return
	}
	m.liveSession.Set(0)
}

func (m *MetricsProvider) IncBroadcastEdits(result string) {
	m.broadcastEdits.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) IncClassifier(result string) {
	m.classifier.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) IncTransportFailures(op string) {
	m.transportFailures.WithLabelValues(op).Inc()
}

func (m *MetricsProvider) ObserveUpsertDuration(duration time.Duration) {
	m.upsertDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "standbot_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "standbot_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "standbot_cache_hits_total",
			Help: "Total number of cache hits by keyspace",
		}, []string{"keyspace"}),

		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "standbot_cache_misses_total",
			Help: "Total number of cache misses by keyspace",
		}, []string{"keyspace"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "standbot_persistence_duration_seconds",
			Help:    "Duration of dialogue snapshot operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		dialoguesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "standbot_dialogues_total",
			Help: "Number of conversations with a stored dialogue state",
		}),

		sessions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "standbot_sessions_total",
			Help: "Standing sessions by lifecycle event",
		}, []string{"event"}),

		liveSession: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "standbot_live_session",
			Help: "1 while a live session is being broadcast",
		}),

		broadcastEdits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "standbot_broadcast_edits_total",
			Help: "Live status edits by result",
		}, []string{"result"}),

		classifier: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "standbot_classifier_requests_total",
			Help: "Intent classifier calls by result",
		}, []string{"result"}),

		transportFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "standbot_transport_failures_total",
			Help: "Failed chat transport calls by operation",
		}, []string{"op"}),

		upsertDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "standbot_totals_upsert_duration_seconds",
			Help:    "Duration of totals upserts in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetDialoguesTotal(_ int)                          {}
func (n *noopMetrics) IncSessions(_ string)                             {}
func (n *noopMetrics) SetLiveSession(_ bool)                            {}
func (n *noopMetrics) IncBroadcastEdits(_ string)                       {}
func (n *noopMetrics) IncClassifier(_ string)                           {}
func (n *noopMetrics) IncTransportFailures(_ string)                    {}
func (n *noopMetrics) ObserveUpsertDuration(_ time.Duration)            {}
