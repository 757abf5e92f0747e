package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"thirdcoast.systems/vodload/internal/objectstore"
)

// Metrics are the batch counters exported on /metrics. A nil *Metrics
// records nothing.
type Metrics struct {
	items             *prometheus.CounterVec
	uploads           *prometheus.CounterVec
	uploadedBytes     prometheus.Counter
	transcodeDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		items: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vodload_items_total",
			Help: "Manifest items processed, by outcome",
		}, []string{"outcome"}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vodload_uploads_total",
			Help: "Objects uploaded, by bucket",
		}, []string{"bucket"}),
		uploadedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "vodload_uploaded_bytes_total",
			Help: "Bytes uploaded to the object store",
		}),
		transcodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vodload_transcode_duration_seconds",
			Help:    "Time taken to transcode one source video",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		}),
	}
}

func (m *Metrics) itemFinished(s State) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(outcomeLabel(s)).Inc()
}

func (m *Metrics) uploaded(b objectstore.Bucket, n int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(b.String()).Inc()
	m.uploadedBytes.Add(float64(n))
}

func (m *Metrics) transcoded(d time.Duration) {
	if m == nil {
		return
	}
	m.transcodeDuration.Observe(d.Seconds())
}

func outcomeLabel(s State) string {
	switch s {
	case StateDone:
		return "ingested"
	case StateSkipped:
		return "skipped"
	default:
		return "failed"
	}
}
