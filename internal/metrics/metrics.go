// Package metrics exposes Prometheus collectors for click ingestion, queries and snapshots.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "qrpulse"

var (
	ClicksRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clicks_recorded_total",
		Help:      "Clicks counted into the hour, day and week buckets.",
	})

	ClicksRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clicks_rejected_total",
		Help:      "Click submissions rejected as invalid input.",
	})

	Queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Windowed click queries by granularity.",
	}, []string{"granularity"})

	TrackedQRCodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_qr_codes",
		Help:      "QR ids with at least one bucket.",
	})

	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_saves_total",
		Help:      "Snapshot save attempts by result.",
	}, []string{"result"})

	SaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "snapshot_save_duration_seconds",
		Help:      "Time spent encoding and writing a snapshot.",
		Buckets:   prometheus.DefBuckets,
	})

	SnapshotBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_size_bytes",
		Help:      "Size of the last snapshot written.",
	})
)

// Save results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)
