package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the sync engine. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	// Runs by trigger and outcome (succeeded, failed, skipped)
	RunsTotal *prometheus.CounterVec

	RunDuration prometheus.Histogram

	RecordsProcessed prometheus.Counter
	RecordsSkipped   prometheus.Counter

	// Unix seconds of the newest stored write_date
	Watermark prometheus.Gauge

	LastSuccess prometheus.Gauge
}

// New registers the sync metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactsync_runs_total",
			Help: "Sync runs by trigger and outcome",
		}, []string{"trigger", "outcome"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contactsync_run_duration_seconds",
			Help:    "Wall time of completed sync runs",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),

		RecordsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactsync_records_processed_total",
			Help: "Remote records upserted into the contact store",
		}),

		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "contactsync_records_skipped_total",
			Help: "Malformed remote records skipped under the skip policy",
		}),

		Watermark: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contactsync_watermark_timestamp_seconds",
			Help: "Newest stored remote write_date as a Unix timestamp",
		}),

		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contactsync_last_success_timestamp_seconds",
			Help: "Completion time of the last successful run as a Unix timestamp",
		}),
	}
}

// ObserveRun records a finished or skipped run.
func (m *Metrics) ObserveRun(trigger, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(trigger, outcome).Inc()
	if d > 0 {
		m.RunDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementProcessed() {
	if m != nil {
		m.RecordsProcessed.Inc()
	}
}

func (m *Metrics) IncrementSkipped() {
	if m != nil {
		m.RecordsSkipped.Inc()
	}
}

// SetWatermark publishes the current watermark; nil leaves the gauge alone.
func (m *Metrics) SetWatermark(wm *time.Time) {
	if m != nil && wm != nil {
		m.Watermark.Set(float64(wm.Unix()))
	}
}

func (m *Metrics) MarkSuccess(at time.Time) {
	if m != nil {
		m.LastSuccess.Set(float64(at.Unix()))
	}
}
