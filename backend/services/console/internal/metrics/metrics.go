package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"colonnine/backend/services/console/internal/clients"
)

var (
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_backend_requests_total",
			Help: "Backend calls issued by the console",
		},
		[]string{"method", "path", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_backend_request_duration_seconds",
			Help:    "Backend call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SyncFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_sync_fetches_total",
			Help: "Fetch state transitions per collection",
		},
		[]string{"kind", "status"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_notifications_total",
			Help: "Notifications shown to users",
		},
		[]string{"kind"},
	)

	ActiveWorkspaces = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_active_workspaces",
			Help: "Workspaces currently held in memory",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_websocket_connections",
			Help: "Open view push connections",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_http_requests_total",
			Help: "HTTP requests served by the console",
		},
		[]string{"method", "path", "status"},
	)
)

// RecordHTTP records one served request.
func RecordHTTP(method, path string, status int) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// BackendRecorder feeds backend call metrics. It implements clients.Recorder.
type BackendRecorder struct{}

// Record implements clients.Recorder.
func (BackendRecorder) Record(_ context.Context, call clients.Call) {
	status := strconv.Itoa(call.Status)
	if call.Err != nil && call.Status == 0 {
		status = "error"
	}
	BackendRequestsTotal.WithLabelValues(call.Method, call.Path, status).Inc()
	BackendRequestDuration.WithLabelValues(call.Method, call.Path).Observe(call.Duration.Seconds())
}

// SyncObserver feeds controller metrics. It implements syncer.Observer.
type SyncObserver struct{}

// ObserveFetch counts a fetch state transition.
func (SyncObserver) ObserveFetch(kind, status string) {
	SyncFetchesTotal.WithLabelValues(kind, status).Inc()
}

// ObserveNotification counts a pushed notification.
func (SyncObserver) ObserveNotification(kind string) {
	NotificationsTotal.WithLabelValues(kind).Inc()
}
