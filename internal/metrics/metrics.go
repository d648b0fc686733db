package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_events_enqueued_total",
		Help: "Total number of beacon events placed on a dispatch queue.",
	})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_events_processed_total",
		Help: "Total number of beacon events handled, labelled by event type.",
	}, []string{"event_type"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_events_dropped_total",
		Help: "Total number of events rejected due to a full queue.",
	})

	EventsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_events_ignored_total",
		Help: "Total number of events that produced no hit, labelled by reason.",
	}, []string{"reason"})

	HitsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_hits_total",
		Help: "Total number of hits handed to sinks, labelled by hit type, sink and status.",
	}, []string{"hit_type", "sink", "status"})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_sessions_active",
		Help: "Number of client sessions currently held in memory.",
	})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_event_processing_duration_ms",
		Help:    "End-to-end event processing latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_queue_utilization_ratio",
		Help: "Current dispatch queue utilization (0–1).",
	})
)
