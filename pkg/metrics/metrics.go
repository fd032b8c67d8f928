package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
// Prometheus Metrics for Libraries and Streaming
// ============================================================================

const namespace = "assetstream"

// Label constants for metrics.
const (
	LabelLibrary  = "library"
	LabelOutcome  = "outcome"
	LabelPriority = "priority"
	LabelResult   = "result"
)

// Outcome constants for filter and sort recomputations.
const (
	OutcomeSync      = "sync"
	OutcomeCommitted = "committed"
	OutcomeDiscarded = "discarded"
)

// Result constants for streamer requests.
const (
	ResultLoaded   = "loaded"
	ResultFailed   = "failed"
	ResultReplaced = "replaced"
	ResultReleased = "released"
)

// Metrics holds every instrument. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	recomputeTotal    *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec

	loadRequests    *prometheus.CounterVec
	unloadRequests  *prometheus.CounterVec
	reprioritized   *prometheus.CounterVec
	residentItems   *prometheus.GaugeVec
	librariesActive prometheus.Gauge

	streamResults *prometheus.CounterVec
	streamLatency *prometheus.HistogramVec
	streamQueue   *prometheus.GaugeVec
	streamBytes   prometheus.Counter
}

// NewMetrics creates the instruments and registers them with registry.
// If registry is nil, metrics are created but not registered (useful for
// testing).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		recomputeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "library",
				Name:      "recompute_total",
				Help:      "Filter and sort recomputations by outcome",
			},
			[]string{LabelLibrary, LabelOutcome},
		),
		recomputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "library",
				Name:      "recompute_duration_seconds",
				Help:      "Time spent filtering and sorting a catalog",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{LabelLibrary},
		),
		loadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "library",
				Name:      "load_requests_total",
				Help:      "Load requests issued to the dispatcher",
			},
			[]string{LabelLibrary, LabelPriority},
		),
		unloadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "library",
				Name:      "unload_requests_total",
				Help:      "Handles released to the dispatcher",
			},
			[]string{LabelLibrary},
		),
		reprioritized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "library",
				Name:      "reprioritized_total",
				Help:      "Pending loads re-issued at a new priority",
			},
			[]string{LabelLibrary, LabelPriority},
		),
		residentItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "library",
				Name:      "requested_items",
				Help:      "Items currently requested resident",
			},
			[]string{LabelLibrary},
		),
		librariesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "libraries",
				Help:      "Registered libraries",
			},
		),
		streamResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "streamer",
				Name:      "requests_total",
				Help:      "Streamer requests by final result",
			},
			[]string{LabelPriority, LabelResult},
		),
		streamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "streamer",
				Name:      "load_duration_seconds",
				Help:      "Time from request to loaded",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{LabelPriority},
		),
		streamQueue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "streamer",
				Name:      "queue_depth",
				Help:      "Requests waiting for a worker",
			},
			[]string{LabelPriority},
		),
		streamBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "streamer",
				Name:      "bytes_loaded_total",
				Help:      "Bytes fetched from the resource source",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.recomputeTotal,
			m.recomputeDuration,
			m.loadRequests,
			m.unloadRequests,
			m.reprioritized,
			m.residentItems,
			m.librariesActive,
			m.streamResults,
			m.streamLatency,
			m.streamQueue,
			m.streamBytes,
		)
	}
	return m
}

// ObserveRecompute records a filter and sort pass and how it ended.
func (m *Metrics) ObserveRecompute(library, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.recomputeTotal.WithLabelValues(library, outcome).Inc()
	if outcome != OutcomeDiscarded {
		m.recomputeDuration.WithLabelValues(library).Observe(d.Seconds())
	}
}

// RecordLoad records a load request issued at priority.
func (m *Metrics) RecordLoad(library, priority string) {
	if m == nil {
		return
	}
	m.loadRequests.WithLabelValues(library, priority).Inc()
}

// RecordUnload records a released handle.
func (m *Metrics) RecordUnload(library string) {
	if m == nil {
		return
	}
	m.unloadRequests.WithLabelValues(library).Inc()
}

// RecordReprioritize records a load re-issued at a new priority.
func (m *Metrics) RecordReprioritize(library, priority string) {
	if m == nil {
		return
	}
	m.reprioritized.WithLabelValues(library, priority).Inc()
}

// SetRequested sets the requested resident count for library.
func (m *Metrics) SetRequested(library string, n int) {
	if m == nil {
		return
	}
	m.residentItems.WithLabelValues(library).Set(float64(n))
}

// ForgetLibrary drops the per-library series of a removed library.
func (m *Metrics) ForgetLibrary(library string) {
	if m == nil {
		return
	}
	m.residentItems.DeleteLabelValues(library)
}

// SetLibraries sets the registered library count.
func (m *Metrics) SetLibraries(n int) {
	if m == nil {
		return
	}
	m.librariesActive.Set(float64(n))
}

// ObserveStream records the end of a streamer request. Latency is only
// observed for loaded requests.
func (m *Metrics) ObserveStream(priority, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.streamResults.WithLabelValues(priority, result).Inc()
	if result == ResultLoaded {
		m.streamLatency.WithLabelValues(priority).Observe(d.Seconds())
	}
}

// SetQueueDepth sets the number of waiting requests at priority.
func (m *Metrics) SetQueueDepth(priority string, n int) {
	if m == nil {
		return
	}
	m.streamQueue.WithLabelValues(priority).Set(float64(n))
}

// AddBytes adds to the loaded bytes counter.
func (m *Metrics) AddBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.streamBytes.Add(float64(n))
}
