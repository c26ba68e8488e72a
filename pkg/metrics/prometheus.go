package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Query engine
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	cacheEntries  prometheus.Gauge

	// Dataset
	datasetRecords      prometheus.Gauge
	datasetRowsDropped  *prometheus.CounterVec
	datasetLoadDuration prometheus.Histogram
	datasetInfo         *prometheus.GaugeVec

	// Predictions and commentary
	predictions       *prometheus.CounterVec
	predictionErrors  *prometheus.CounterVec
	predictionLatency *prometheus.HistogramVec
	commentary        *prometheus.CounterVec
	commentaryLatency prometheus.Histogram
	simulationBatch   prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "halfpace",
		subsystem:        "service",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.queries = m.counterVec("queries_total", "Statistics queries served, by operation", "op")
	m.queryDuration = m.histogramVec("query_duration_milliseconds", "Statistics query latency in milliseconds", "op")
	m.cacheHits = m.counterVec("cache_hits_total", "Query results served from the memo cache", "op")
	m.cacheMisses = m.counterVec("cache_misses_total", "Query results computed because the memo cache missed", "op")
	m.cacheEntries = m.gauge("cache_entries", "Current number of memoized query results")

	m.datasetRecords = m.gauge("dataset_records", "Records held by the loaded dataset")
	m.datasetRowsDropped = m.counterVec("dataset_rows_dropped_total", "CSV rows dropped at load time, by reason", "reason")
	m.datasetLoadDuration = m.histogram("dataset_load_duration_milliseconds", "Dataset load time in milliseconds",
		[]float64{1, 5, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
	m.datasetInfo = m.gaugeVecInfo()

	m.predictions = m.counterVec("predictions_total", "Finish time predictions served, by model", "model")
	m.predictionErrors = m.counterVec("prediction_errors_total", "Failed predictions, by model", "model")
	m.predictionLatency = m.histogramVec("prediction_latency_milliseconds", "Model call latency in milliseconds", "model")
	m.commentary = m.counterVec("commentary_total", "Commentary attempts, by outcome", "outcome")
	m.commentaryLatency = m.histogram("commentary_latency_milliseconds", "Commentary generation latency in milliseconds",
		[]float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000})
	m.simulationBatch = m.histogram("simulation_batch_size", "Scenarios per simulation request",
		[]float64{1, 2, 5, 10, 20, 50, 100})

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Current memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func (m *Manager) gaugeVecInfo() *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "dataset_info",
		Help:        "Always 1; the version label identifies the loaded dataset",
		ConstLabels: m.constLabels,
	}, []string{"version"})
}

// RecordQuery counts one statistics query and its latency.
func RecordQuery(op string, latencyMs float64) {
	globalManager.queries.WithLabelValues(op).Inc()
	globalManager.queryDuration.WithLabelValues(op).Observe(latencyMs)
}

// RecordCacheLookup counts a memo cache hit or miss.
func RecordCacheLookup(op string, hit bool) {
	if hit {
		globalManager.cacheHits.WithLabelValues(op).Inc()
		return
	}
	globalManager.cacheMisses.WithLabelValues(op).Inc()
}

// UpdateCacheEntries sets the memo cache size.
func UpdateCacheEntries(n int64) {
	globalManager.cacheEntries.Set(float64(n))
}

// RecordDatasetLoad records a completed dataset load.
func RecordDatasetLoad(version string, records int, durationMs float64) {
	globalManager.datasetRecords.Set(float64(records))
	globalManager.datasetLoadDuration.Observe(durationMs)
	globalManager.datasetInfo.Reset()
	globalManager.datasetInfo.WithLabelValues(version).Set(1)
}

// RecordRowsDropped counts rows dropped by the loader.
func RecordRowsDropped(reason string, n int) {
	globalManager.datasetRowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordPrediction counts a served prediction and its model latency.
func RecordPrediction(model string, latencyMs float64) {
	globalManager.predictions.WithLabelValues(model).Inc()
	globalManager.predictionLatency.WithLabelValues(model).Observe(latencyMs)
}

// RecordPredictionError counts a failed prediction.
func RecordPredictionError(model string) {
	globalManager.predictionErrors.WithLabelValues(model).Inc()
}

// RecordCommentary counts a commentary outcome: ok, error or disabled.
func RecordCommentary(outcome string, latencyMs float64) {
	globalManager.commentary.WithLabelValues(outcome).Inc()
	if outcome != "disabled" {
		globalManager.commentaryLatency.Observe(latencyMs)
	}
}

// RecordSimulationBatch records the size of a simulation request.
func RecordSimulationBatch(size int) {
	globalManager.simulationBatch.Observe(float64(size))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage updates the system memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
