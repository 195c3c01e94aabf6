package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
)

var (
	SubmitDurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	HTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
)

// DocketMetrics holds the service metrics. It implements tasking.Recorder
// and the sequencer retry observer of the storage adapters.
type DocketMetrics struct {
	SubmitTotal         *prometheus.CounterVec
	SubmitDuration      *prometheus.HistogramVec
	AccrualOutcomes     *prometheus.CounterVec
	SideEffectFailures  *prometheus.CounterVec
	SequencerRetries    *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HealthStatus        *prometheus.GaugeVec
}

var _ tasking.Recorder = (*DocketMetrics)(nil)

// NewDocketMetrics registers the docket metrics on c.
func NewDocketMetrics(c Collector) *DocketMetrics {
	return &DocketMetrics{
		SubmitTotal: c.Counter("task_submit_total",
			"Task submissions by task type and result", "task_type", "result"),
		SubmitDuration: c.Histogram("task_submit_duration_seconds",
			"Task submission latency", SubmitDurationBuckets, "task_type"),
		AccrualOutcomes: c.Counter("accrual_decisions_total",
			"Billing decisions by outcome", "outcome"),
		SideEffectFailures: c.Counter("side_effect_failures_total",
			"Post-commit side effects that exhausted their retries", "kind"),
		SequencerRetries: c.Counter("sequencer_retries_total",
			"Deferred-billing id allocation retries", "backend"),
		HTTPRequestsTotal: c.Counter("http_requests_total",
			"HTTP requests by route and status", "method", "route", "status_code"),
		HTTPRequestDuration: c.Histogram("http_request_duration_seconds",
			"HTTP request latency", HTTPDurationBuckets, "method", "route"),
		HealthStatus: c.Gauge("health_check_status",
			"Dependency health (1=up, 0=down)", "component"),
	}
}

func (m *DocketMetrics) SubmitObserved(taskType, result string, elapsed time.Duration) {
	m.SubmitTotal.WithLabelValues(taskType, result).Inc()
	m.SubmitDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
}

func (m *DocketMetrics) AccrualDecided(outcome string) {
	m.AccrualOutcomes.WithLabelValues(outcome).Inc()
}

func (m *DocketMetrics) SideEffectFailed(kind string) {
	m.SideEffectFailures.WithLabelValues(kind).Inc()
}

func (m *DocketMetrics) SequencerRetried(backend string) {
	m.SequencerRetries.WithLabelValues(backend).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path.
func (m *DocketMetrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetHealth records whether component is reachable.
func (m *DocketMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthStatus.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending
