// Package metrics exposes translation counters and timings as Prometheus
// collectors.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"astergen/internal/runlog"
)

const namespace = "astergen"

// Recorder owns a private registry so several translators (and tests) never
// collide on collector registration.
type Recorder struct {
	registry     *prometheus.Registry
	translations *prometheus.CounterVec
	duration     prometheus.Histogram
	stages       *prometheus.HistogramVec
	analyses     prometheus.Counter
	notices      *prometheus.CounterVec
	violations   prometheus.Counter
	lastSuccess  *prometheus.GaugeVec
}

// NewRecorder registers the translation collectors. Process and Go runtime
// collectors are added when runtime is true.
func NewRecorder(runtime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		translations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_total",
			Help:      "Translations by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_duration_seconds",
			Help:      "Wall time of a whole translation.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each translation stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"stage", "status"}),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses written to command files.",
		}),
		notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Warnings and omissions raised while writing command files.",
		}, []string{"severity"}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Validation rule violations.",
		}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful translation per model.",
		}, []string{"model"}),
	}
	r.registry.MustRegister(r.translations, r.duration, r.stages, r.analyses, r.notices, r.violations, r.lastSuccess)
	if runtime {
		r.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return r
}

// Observe records the outcome of one stage.
func (r *Recorder) Observe(_ context.Context, stage string, success bool, d time.Duration) {
	if stage == "" {
		return
	}
	r.stages.WithLabelValues(stage, outcome(success)).Observe(d.Seconds())
}

// RecordRun records a finished translation.
func (r *Recorder) RecordRun(run runlog.Run) {
	r.translations.WithLabelValues(string(run.Status)).Inc()
	r.duration.Observe(run.Duration().Seconds())
	r.violations.Add(float64(run.Violations))
	if run.Status != runlog.StatusSucceeded {
		return
	}
	r.analyses.Add(float64(run.Analyses))
	r.notices.WithLabelValues("warning").Add(float64(run.Warnings))
	r.notices.WithLabelValues("omission").Add(float64(run.Omissions))
	r.lastSuccess.WithLabelValues(run.Model).Set(float64(run.FinishedAt.Unix()))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path for the node exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
