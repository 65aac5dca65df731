package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrdersSubmitted counts accepted submissions.
var OrdersSubmitted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ordermatcher_orders_submitted_total",
		Help: "Total number of orders accepted by the matching engine",
	},
	[]string{"instrument", "side", "type"},
)

var OrdersCancelled = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ordermatcher_orders_cancelled_total",
		Help: "Total number of orders cancelled on request",
	},
	[]string{"instrument"},
)

// MatchedVolume counts taker-side matched volume.
var MatchedVolume = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ordermatcher_matched_volume_total",
		Help: "Total volume matched, counted once per trade",
	},
	[]string{"instrument"},
)

var SubmitLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ordermatcher_submit_latency_seconds",
		Help:    "Latency in seconds to route and match one submission",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	},
)

// Sink delivery
var (
	DispatchDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordermatcher_dispatch_dropped_total",
			Help: "Change batches dropped because the dispatch queue was full",
		},
	)

	SinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordermatcher_sink_errors_total",
			Help: "Failed deliveries to downstream sinks",
		},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(OrdersSubmitted, OrdersCancelled, MatchedVolume, SubmitLatency)
	prometheus.MustRegister(DispatchDropped, SinkErrors)
}
