package tocloud

import "github.com/prometheus/client_golang/prometheus"

var (
	uploadAttemptsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tocloud",
		Subsystem: "sync",
		Name:      "upload_attempts_total",
		Help:      "Number of upload attempts, labeled by service and outcome (success or failure kind).",
	}, []string{"service", "outcome"})

	uploadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tocloud",
		Subsystem: "sync",
		Name:      "upload_duration_seconds",
		Help:      "Time spent on each upload attempt, labeled by service.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"service"})

	syncCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tocloud",
		Subsystem: "sync",
		Name:      "files_total",
		Help:      "Number of file syncs, labeled by strategy and result.",
	}, []string{"strategy", "result"})

	serviceAvailableGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tocloud",
		Subsystem: "sync",
		Name:      "service_available",
		Help:      "Availability of each service in the last check (1 available, 0 unavailable).",
	}, []string{"service"})

	queueDepthGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tocloud",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Number of sync requests waiting for a worker.",
	})
)

func init() {
	prometheus.MustRegister(uploadAttemptsCounter, uploadDuration, syncCounter, serviceAvailableGauge, queueDepthGauge)
}
