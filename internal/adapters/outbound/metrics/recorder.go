// Package metrics records verification counters with Prometheus.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openkraft/archverify/internal/domain"
)

const namespace = "archverify"

var _ domain.MetricsRecorder = (*Recorder)(nil)

// Recorder implements domain.MetricsRecorder on its own registry, so
// several recorders can live in one process.
type Recorder struct {
	registry *prometheus.Registry

	classes     *prometheus.CounterVec
	references  prometheus.Counter
	violations  *prometheus.CounterVec
	runs        *prometheus.CounterVec
	lastRun     prometheus.Gauge
	lastRunTime prometheus.Gauge
	duration    prometheus.Histogram
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		classes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classes_total",
			Help:      "Classes read, by whether their references were evaluated.",
		}, []string{"evaluated"}),
		references: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_checked_total",
			Help:      "Type references checked against the design.",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Violations recorded, by kind.",
		}, []string{"kind"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Verification runs, by result.",
		}, []string{"result"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_passed",
			Help:      "1 if the most recent run passed, else 0.",
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the most recent run.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of verification runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	r.registry.MustRegister(r.classes, r.references, r.violations, r.runs,
		r.lastRun, r.lastRunTime, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) ClassScanned(evaluated bool) {
	r.classes.WithLabelValues(fmt.Sprint(evaluated)).Inc()
}

func (r *Recorder) ReferenceChecked() {
	r.references.Inc()
}

func (r *Recorder) ViolationRecorded(kind domain.ViolationKind) {
	r.violations.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) RunFinished(report *domain.VerifyReport) {
	result := "failed"
	passed := 0.0
	if report.Passed {
		result = "passed"
		passed = 1
	}
	r.runs.WithLabelValues(result).Inc()
	r.lastRun.Set(passed)
	r.lastRunTime.Set(float64(report.StartedAt.Unix()))
	r.duration.Observe(report.Duration.Seconds())
}

// WriteTextfile writes all metrics in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
