package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/showcase-forge/internal/types"
)

// Stage outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeCached  = "cached"
)

// Metrics holds the pipeline's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	stageRuns      *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	stageRetries   *prometheus.CounterVec
	stageCost      *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	cacheEvictions prometheus.Counter
	pipelineRuns   *prometheus.CounterVec
	pipelineTime   prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_stage_runs_total",
				Help: "Total number of stage executions by outcome",
			},
			[]string{"stage", "outcome"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showcase_stage_duration_seconds",
				Help:    "Duration of stage executions",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"stage"},
		),
		stageRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_stage_retries_total",
				Help: "Total number of stage retry attempts",
			},
			[]string{"stage"},
		),
		stageCost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_stage_cost_usd_total",
				Help: "Backend spend in USD by stage",
			},
			[]string{"stage"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_cache_lookups_total",
				Help: "Content cache lookups by stage and result",
			},
			[]string{"stage", "result"},
		),
		cacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "showcase_cache_evictions_total",
			Help: "Entries evicted from the content cache",
		}),
		pipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_pipeline_runs_total",
				Help: "Pipeline runs by terminal status",
			},
			[]string{"status"},
		),
		pipelineTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "showcase_pipeline_duration_seconds",
			Help:    "Duration of full pipeline runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StageFinished records one stage execution.
func (m *Metrics) StageFinished(stage types.StageID, outcome string, elapsed time.Duration, costUSD float64) {
	if m == nil {
		return
	}
	m.stageRuns.WithLabelValues(string(stage), outcome).Inc()
	m.stageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	if costUSD > 0 {
		m.stageCost.WithLabelValues(string(stage)).Add(costUSD)
	}
}

// StageRetried records a retry attempt.
func (m *Metrics) StageRetried(stage types.StageID) {
	if m == nil {
		return
	}
	m.stageRetries.WithLabelValues(string(stage)).Inc()
}

// CacheLookup implements cache.Observer
func (m *Metrics) CacheLookup(stage types.StageID, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(string(stage), result).Inc()
}

// CacheEvicted implements cache.Observer
func (m *Metrics) CacheEvicted() {
	if m == nil {
		return
	}
	m.cacheEvictions.Inc()
}

// PipelineFinished records a terminal pipeline status.
func (m *Metrics) PipelineFinished(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(status).Inc()
	m.pipelineTime.Observe(elapsed.Seconds())
}
