package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects the metrics of a single run. Each run owns its registry, so
// tests and repeated runs never share counters.
type Recorder struct {
	registry *prometheus.Registry

	ItemsProcessed  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	DownloadedBytes prometheus.Counter
	LastRun         prometheus.Gauge
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ItemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "framegrab_items_processed_total",
			Help: "Total number of links processed, by status",
		}, []string{"status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "framegrab_stage_duration_seconds",
			Help:    "Duration of each per-item stage",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"stage"}),
		DownloadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "framegrab_downloaded_bytes_total",
			Help: "Total number of video bytes downloaded",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "framegrab_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// ObserveStage records the time elapsed since start under the given stage label.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	r.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile marks the run finished and writes every metric to path in the
// text exposition format read by node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	r.LastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
