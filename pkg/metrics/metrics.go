package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seasonality_analysis_requests_total",
		Help: "Total number of seasonality analysis requests",
	}, []string{"operation", "cached"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seasonality_analysis_duration_seconds",
		Help:    "Duration of seasonality computations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	RecordsAnalyzed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seasonality_records_analyzed",
		Help:    "Records surviving filters per analysis request",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of result cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of result cache misses",
	})

	StoreQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_queries_total",
		Help: "Total number of price store queries",
	}, []string{"timeframe", "status"})

	StoreQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_query_duration_seconds",
		Help:    "Duration of price store queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"timeframe"})

	// FieldParseFailures counts per-record ingestion fields that failed
	// to parse and were nulled or dropped (partial-success semantics).
	FieldParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_field_parse_failures_total",
		Help: "Total number of unparseable record fields during ingestion",
	}, []string{"field"})

	RowsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_rows_total",
		Help: "Total number of ingested price rows",
	}, []string{"status"})

	ComputeQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "compute_pool_queue_depth",
		Help: "Jobs waiting for a compute pool worker",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func RecordCacheHit()  { CacheHits.Inc() }
func RecordCacheMiss() { CacheMisses.Inc() }

func RecordAnalysisRequest(operation string, cached bool) {
	cachedStr := "false"
	if cached {
		cachedStr = "true"
	}
	AnalysisRequests.WithLabelValues(operation, cachedStr).Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
