// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_updates_received_total",
			Help: "Total number of updates fetched from the platform",
		},
	)

	UpdatesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_processed_total",
			Help: "Total number of updates processed by workers",
		},
		[]string{"status"},
	)

	UpdateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "bot_update_duration_seconds",
			Help: "Duration of update processing in seconds",
		},
	)

	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_workers_active",
			Help: "Number of updates currently being processed",
		},
	)

	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_api_calls_total",
			Help: "Total number of Telegram API calls",
		},
		[]string{"method", "outcome"},
	)

	APIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_api_retries_total",
			Help: "Total number of Telegram API call retries",
		},
		[]string{"method"},
	)

	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_poll_errors_total",
			Help: "Total number of polling loop failures",
		},
		[]string{"kind"},
	)
)
