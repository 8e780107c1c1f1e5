package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "cargo_workspace_version"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	fieldOutcomes *prom.CounterVec
	filesWritten  prom.Counter
	runDuration   *prom.HistogramVec
	runOutcomes   *prom.CounterVec
	lastRun       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.fieldOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fields_total",
			Help:      "Version fields checked, by outcome",
		}, []string{"outcome"})
		pr.filesWritten = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Manifest files rewritten",
		})
		pr.runDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full synchronization pass",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"})
		pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs by mode and final outcome",
		}, []string{"mode", "outcome"})
		pr.lastRun = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		})
		reg.MustRegister(pr.fieldOutcomes, pr.filesWritten, pr.runDuration, pr.runOutcomes, pr.lastRun)
	})
	return pr
}

func (p *PrometheusRecorder) IncFieldOutcome(outcome string) {
	p.fieldOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncFilesWritten(n int) {
	if n > 0 {
		p.filesWritten.Add(float64(n))
	}
}

func (p *PrometheusRecorder) ObserveRunDuration(mode string, d time.Duration) {
	p.runDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(mode string, outcome RunOutcome) {
	p.runOutcomes.WithLabelValues(mode, string(outcome)).Inc()
	p.lastRun.SetToCurrentTime()
}

var _ Recorder = (*PrometheusRecorder)(nil)
