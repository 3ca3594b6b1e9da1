package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"rwa-registry-go/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rwa"

// OverviewSource supplies the registry aggregates exported as gauges
type OverviewSource interface {
	Overview() models.RegistryOverview
}

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	source atomic.Pointer[OverviewSource]

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "operations_total",
			Help:      "Total number of registry operations by outcome.",
		},
		[]string{"operation", "result"},
	)

	eventDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "deliveries_total",
			Help:      "Total number of event deliveries per sink.",
		},
		[]string{"sink", "event_type", "success"},
	)

	eventDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total number of events dropped because the dispatch buffer was full.",
		},
		[]string{"event_type"},
	)

	reconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "runs_total",
			Help:      "Total number of reconciliation runs.",
		},
		[]string{"success"},
	)

	reconcileViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "violations_total",
			Help:      "Total number of invariant violations found by reconciliation.",
		},
		[]string{"check"},
	)

	reconcileWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "warnings_total",
			Help:      "Total number of legal but notable conditions found by reconciliation.",
		},
		[]string{"check"},
	)

	reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "run_duration_seconds",
			Help:      "Duration of reconciliation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	totalValueLocked = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "total_value_locked_usd",
			Help:      "Sum of the USD valuations of all assets.",
		},
		func() float64 {
			overview, ok := currentOverview()
			if !ok {
				return 0
			}
			return overview.TotalValueLocked.InexactFloat64()
		},
	)

	assetCount = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "assets",
			Help:      "Number of assets created.",
		},
		func() float64 {
			overview, _ := currentOverview()
			return float64(overview.AssetCount)
		},
	)

	distributionCount = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "distributions",
			Help:      "Number of distributions created.",
		},
		func() float64 {
			overview, _ := currentOverview()
			return float64(overview.DistributionCount)
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		operations,
		eventDeliveries,
		eventDrops,
		reconcileRuns,
		reconcileViolations,
		reconcileWarnings,
		reconcileDuration,
		totalValueLocked,
		assetCount,
		distributionCount,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// SetSource points the registry gauges at src
func SetSource(src OverviewSource) {
	source.Store(&src)
}

func currentOverview() (models.RegistryOverview, bool) {
	src := source.Load()
	if src == nil || *src == nil {
		return models.RegistryOverview{}, false
	}
	return (*src).Overview(), true
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request. path is the route template,
// not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	httpRequests.WithLabelValues(strings.ToUpper(method), path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(strings.ToUpper(method), path).Observe(duration.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns its decrement
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordOperation counts a registry operation by outcome: ok, rejected or error
func RecordOperation(operation, result string) {
	operations.WithLabelValues(operation, result).Inc()
}

// RecordReconcile records one reconciliation run and its violations by check
func RecordReconcile(violations map[string]int, duration time.Duration) {
	reconcileRuns.WithLabelValues(strconv.FormatBool(len(violations) == 0)).Inc()
	reconcileDuration.Observe(duration.Seconds())
	for check, n := range violations {
		reconcileViolations.WithLabelValues(check).Add(float64(n))
	}
}

func RecordReconcileWarnings(warnings map[string]int) {
	for check, n := range warnings {
		reconcileWarnings.WithLabelValues(check).Add(float64(n))
	}
}

// EventObserver feeds dispatcher outcomes into the events counters
type EventObserver struct{}

func (EventObserver) ObserveDelivery(sink string, eventType models.EventType, err error) {
	eventDeliveries.WithLabelValues(sink, string(eventType), strconv.FormatBool(err == nil)).Inc()
}

func (EventObserver) ObserveDrop(eventType models.EventType) {
	eventDrops.WithLabelValues(string(eventType)).Inc()
}
