package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factorypulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factorypulse_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	// Engine metrics
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factorypulse_engine_ticks_total",
			Help: "Total number of completed evaluation ticks",
		},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "factorypulse_engine_tick_duration_seconds",
			Help:    "Time taken to evaluate one tick",
			Buckets: []float64{.00001, .0001, .001, .01, .1},
		},
	)

	ReadingValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "factorypulse_reading_value",
			Help: "Latest simulated reading per metric",
		},
		[]string{"metric"},
	)

	// Alert metrics
	AlertsRaisedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factorypulse_alerts_raised_total",
			Help: "Total number of alerts raised on a rising edge",
		},
		[]string{"metric"},
	)

	AlertsDismissedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factorypulse_alerts_dismissed_total",
			Help: "Total number of alerts removed by a user",
		},
	)

	AlertsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factorypulse_alerts_active",
			Help: "Alerts currently held in the registry",
		},
	)

	// Assistant metrics
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factorypulse_chat_requests_total",
			Help: "Diagnostic assistant requests by matched rule",
		},
		[]string{"rule"},
	)

	// Delivery metrics
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factorypulse_websocket_clients",
			Help: "Connected live feed clients",
		},
	)

	WebsocketDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factorypulse_websocket_dropped_total",
			Help: "Broadcast messages dropped because the hub queue was full",
		},
	)

	AlertQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factorypulse_alert_queue_dropped_total",
			Help: "Raised alerts not handed to external sinks because the delivery queue was full",
		},
	)

	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factorypulse_kafka_publish_total",
			Help: "Total number of alerts published to Kafka",
		},
		[]string{"status"}, // status: success, failed
	)
)
