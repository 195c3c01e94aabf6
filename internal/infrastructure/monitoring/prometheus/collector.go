// Package prometheus registers the docket metrics on a private registry and
// serves them over HTTP.
package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// Collector owns a registry and hands out labelled metric vectors. Asking
// for a name twice returns the first registration.
type Collector interface {
	Counter(name, help string, labels ...string) *prometheus.CounterVec
	Gauge(name, help string, labels ...string) *prometheus.GaugeVec
	Histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec
	Handler() http.Handler
	Registry() *prometheus.Registry
}

type registryCollector struct {
	registry  *prometheus.Registry
	namespace string
	subsystem string
	logger    logging.Logger

	mu   sync.Mutex
	vecs map[string]prometheus.Collector
}

// NewCollector builds a Collector with the Go runtime and process
// collectors already registered.
func NewCollector(cfg config.MetricsConfig, log logging.Logger) (Collector, error) {
	if cfg.Namespace == "" {
		return nil, errors.New(errors.ErrCodeValidation, "metrics namespace is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}),
	)
	return &registryCollector{
		registry:  reg,
		namespace: cfg.Namespace,
		subsystem: cfg.Subsystem,
		logger:    log.Named("metrics"),
		vecs:      make(map[string]prometheus.Collector),
	}, nil
}

func (c *registryCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *registryCollector) Registry() *prometheus.Registry { return c.registry }

// register returns the collector already stored under name, or registers
// fresh. A registration error is logged and fresh is returned unregistered
// so callers never hold nil.
func (c *registryCollector) register(name string, fresh prometheus.Collector) prometheus.Collector {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.vecs[name]; ok {
		return existing
	}
	if err := c.registry.Register(fresh); err != nil {
		c.logger.Error("metric registration failed", logging.String("name", name), logging.Err(err))
		return fresh
	}
	c.vecs[name] = fresh
	return fresh
}

func (c *registryCollector) Counter(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	if v, ok := c.register(name, vec).(*prometheus.CounterVec); ok {
		return v
	}
	c.logger.Warn("metric type mismatch", logging.String("name", name), logging.String("type", "counter"))
	return vec
}

func (c *registryCollector) Gauge(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	if v, ok := c.register(name, vec).(*prometheus.GaugeVec); ok {
		return v
	}
	c.logger.Warn("metric type mismatch", logging.String("name", name), logging.String("type", "gauge"))
	return vec
}

func (c *registryCollector) Histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	if v, ok := c.register(name, vec).(*prometheus.HistogramVec); ok {
		return v
	}
	c.logger.Warn("metric type mismatch", logging.String("name", name), logging.String("type", "histogram"))
	return vec
}

//Personal.AI order the ending
