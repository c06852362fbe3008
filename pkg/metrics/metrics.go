// Package metrics holds the Prometheus collectors of the signal engine.
//
// A Registry owns its own prometheus.Registry so several engines (and tests)
// can coexist in one process. All methods are nil-safe: a nil *Registry records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aegis"

// Registry holds all engine metrics
type Registry struct {
	reg *prometheus.Registry

	// Worker pool
	PoolTasks    *prometheus.CounterVec
	PoolInflight prometheus.Gauge

	// Scoring
	Signals      *prometheus.CounterVec
	NoScore      prometheus.Counter
	FactorPanics *prometheus.CounterVec

	// Sector ranking
	RankDuration *prometheus.HistogramVec
	RankSectors  prometheus.Gauge

	// Cache
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// External source
	SourceRequests *prometheus.CounterVec
}

// New creates a registry with all collectors registered
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		PoolTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_tasks_total",
				Help:      "Worker pool tasks by outcome",
			},
			[]string{"pool", "result"},
		),
		PoolInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_inflight_tasks",
				Help:      "Currently running worker pool tasks",
			},
		),

		Signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Scores produced by signal",
			},
			[]string{"signal"},
		),
		NoScore: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "insufficient_data_total",
				Help:      "Score requests without enough history",
			},
		),
		FactorPanics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "factor_recovered_total",
				Help:      "Indicator faults replaced by neutral values",
			},
			[]string{"factor"},
		),

		RankDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sector_rank_duration_seconds",
				Help:      "Duration of sector ranking runs",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"result"},
		),
		RankSectors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sector_rank_sectors",
				Help:      "Sectors in the latest ranking",
			},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Cache hits by cache type",
			},
			[]string{"cache_type"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache misses by cache type",
			},
			[]string{"cache_type"},
		),

		SourceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_requests_total",
				Help:      "Series source requests by source and outcome",
			},
			[]string{"source", "result"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.PoolTasks,
		r.PoolInflight,
		r.Signals,
		r.NoScore,
		r.FactorPanics,
		r.RankDuration,
		r.RankSectors,
		r.CacheHits,
		r.CacheMisses,
		r.SourceRequests,
	)

	return r
}

// Handler returns the /metrics HTTP handler
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// TaskStarted marks a pool task as running
func (r *Registry) TaskStarted() {
	if r == nil {
		return
	}
	r.PoolInflight.Inc()
}

// TaskFinished records a pool task outcome
func (r *Registry) TaskFinished(pool string, err error) {
	if r == nil {
		return
	}
	r.PoolInflight.Dec()
	r.PoolTasks.WithLabelValues(pool, outcome(err)).Inc()
}

// TaskSkipped records a task that never started (context done)
func (r *Registry) TaskSkipped(pool string) {
	if r == nil {
		return
	}
	r.PoolTasks.WithLabelValues(pool, "skipped").Inc()
}

// RecordSignal counts a produced score
func (r *Registry) RecordSignal(signal string) {
	if r == nil {
		return
	}
	r.Signals.WithLabelValues(signal).Inc()
}

// RecordNoScore counts an insufficient-data outcome
func (r *Registry) RecordNoScore() {
	if r == nil {
		return
	}
	r.NoScore.Inc()
}

// RecordFactorFault counts a recovered indicator fault
func (r *Registry) RecordFactorFault(factor string) {
	if r == nil {
		return
	}
	r.FactorPanics.WithLabelValues(factor).Inc()
}

// ObserveRank records one ranking run
func (r *Registry) ObserveRank(start time.Time, sectors int, err error) {
	if r == nil {
		return
	}
	r.RankDuration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	if err == nil {
		r.RankSectors.Set(float64(sectors))
	}
}

// RecordCache records a cache lookup
func (r *Registry) RecordCache(cacheType string, hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	r.CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordSource records a series source request
func (r *Registry) RecordSource(source string, err error) {
	if r == nil {
		return
	}
	r.SourceRequests.WithLabelValues(source, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
