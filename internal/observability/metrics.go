// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Checker metrics
	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	Candidates    *prometheus.GaugeVec
	BatchSize     *prometheus.GaugeVec
	ContractReads *prometheus.CounterVec
	SubgraphPages prometheus.Counter

	// Delivery metrics
	DecisionsPublished prometheus.Counter
	StoreErrors        *prometheus.CounterVec

	// Watch metrics
	LastHead prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "checker"
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of checker runs by mode and status",
		}, []string{"mode", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Checker run duration",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"mode"}),
		Candidates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Scheduled events fetched in the last run",
		}, []string{"mode"}),
		BatchSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of calls in the last assembled batch",
		}, []string{"mode"}),
		ContractReads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_reads_total",
			Help:      "Contract view calls issued, by method",
		}, []string{"method"}),
		SubgraphPages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subgraph_pages_total",
			Help:      "Subgraph pages fetched",
		}),
		DecisionsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_published_total",
			Help:      "Executable decisions published to the stream",
		}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed writes to decision/evaluation stores",
		}, []string{"store"}),
		LastHead: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_head",
			Help:      "Number of the last chain head seen by the watcher",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordRun records a finished checker run.
func RecordRun(mode, status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(mode, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// UpdateRunSizes sets the candidate and batch gauges for a mode.
func UpdateRunSizes(mode string, candidates, batch int) {
	DefaultMetrics.Candidates.WithLabelValues(mode).Set(float64(candidates))
	DefaultMetrics.BatchSize.WithLabelValues(mode).Set(float64(batch))
}

// RecordContractRead increments the contract read counter.
func RecordContractRead(method string) {
	DefaultMetrics.ContractReads.WithLabelValues(method).Inc()
}

// RecordSubgraphPage increments the subgraph page counter.
func RecordSubgraphPage() {
	DefaultMetrics.SubgraphPages.Inc()
}

// RecordDecisionPublished increments the published decisions counter.
func RecordDecisionPublished() {
	DefaultMetrics.DecisionsPublished.Inc()
}

// RecordStoreError records a failed store write.
func RecordStoreError(store string) {
	DefaultMetrics.StoreErrors.WithLabelValues(store).Inc()
}

// UpdateLastHead updates the last head gauge.
func UpdateLastHead(number uint64) {
	DefaultMetrics.LastHead.Set(float64(number))
}
