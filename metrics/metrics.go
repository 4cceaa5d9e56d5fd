// Package metrics defines the Prometheus instruments exposed at /metrics,
// mirroring the original service's counter/gauge/histogram set one for one.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WSConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "Number of currently open browser WebSocket connections.",
	})

	WSMessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_messages_sent_total",
		Help: "Total messages broadcast to browser clients, by channel.",
	}, []string{"channel"})

	UpstreamMessagesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssi_messages_received_total",
		Help: "Total messages received from the upstream broker feed, by RType.",
	}, []string{"rtype"})

	TradeClassificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trade_classification_duration_seconds",
		Help:    "Time spent classifying a single trade.",
		Buckets: prometheus.DefBuckets,
	})

	DBWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_write_duration_seconds",
		Help:    "Time spent on a single batch flush to Postgres, by table.",
		Buckets: prometheus.DefBuckets,
	}, []string{"table"})

	DBPoolActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_pool_active_connections",
		Help: "Active connections currently checked out of the Postgres pool.",
	})

	AlertSignalsFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_signals_fired_total",
		Help: "Total anomaly alerts fired, by alert type.",
	}, []string{"alert_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency, by route and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)
