package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coursemint_stream_active_connections",
		Help: "Number of live notification stream subscriptions.",
	})

	metricPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursemint_notifications_published_total",
		Help: "Notification payloads delivered to live subscribers.",
	})
)
