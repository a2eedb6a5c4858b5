package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VisitsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitlog_visits_recorded_total",
		Help: "Total number of visits persisted.",
	})
	RecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visitlog_record_failures_total",
		Help: "Total number of visits that could not be persisted.",
	})
	ReadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visitlog_read_failures_total",
		Help: "Total number of failed visit log reads by operation.",
	}, []string{"op"})
	StoreOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visitlog_store_op_duration_seconds",
		Help:    "Duration of visit store operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)
