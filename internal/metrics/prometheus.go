package metrics

import (
	"net/http"
	"strings"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	streamerrors "git.home.luguber.info/inful/streamnode/internal/errors"
)

// PrometheusRegistry implements Registry on top of a Prometheus registry.
// Latency sensors become histograms observing seconds, throughput sensors
// become counters. Each sensor is its own collector carrying the entity and
// tags as const labels, so RemoveSensor can unregister it in one step.
type PrometheusRegistry struct {
	mu    sync.Mutex
	reg   *prom.Registry
	level RecordingLevel

	collectors map[string]prom.Collector
}

// NewPrometheusRegistry wraps reg (a fresh registry when nil) recording at
// the given level.
func NewPrometheusRegistry(reg *prom.Registry, level RecordingLevel) *PrometheusRegistry {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if level == "" {
		level = LevelInfo
	}
	return &PrometheusRegistry{
		reg:        reg,
		level:      level,
		collectors: make(map[string]prom.Collector),
	}
}

// HTTPHandler returns an http.Handler that serves the underlying Prometheus
// registry.
func (r *PrometheusRegistry) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

type promLatencySensor struct {
	name    string
	enabled bool
	hist    prom.Histogram
}

func (s *promLatencySensor) Name() string { return s.name }

func (s *promLatencySensor) Record(value float64) {
	if !s.enabled {
		return
	}
	s.hist.Observe(value)
}

type promThroughputSensor struct {
	name    string
	enabled bool
	counter prom.Counter
}

func (s *promThroughputSensor) Name() string { return s.name }

func (s *promThroughputSensor) Record(value float64) {
	if !s.enabled {
		return
	}
	s.counter.Add(value)
}

// AddLatencySensor implements Registry.
func (r *PrometheusRegistry) AddLatencySensor(scope, entity, operation string, level RecordingLevel, tags ...Tag) (Sensor, error) {
	name := SensorName(scope, entity, operation)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.collectors[name]; exists {
		return nil, streamerrors.DuplicateSensor(name)
	}

	hist := prom.NewHistogram(prom.HistogramOpts{
		Namespace:   "streamnode",
		Name:        metricName(operation) + "_latency_seconds",
		Help:        "Latency of " + operation + " calls",
		Buckets:     prom.DefBuckets,
		ConstLabels: constLabels(entity, tags),
	})
	if err := r.reg.Register(hist); err != nil {
		return nil, streamerrors.Wrap(err, streamerrors.CategoryMetrics, streamerrors.SeverityFatal, "failed to register latency sensor "+name)
	}
	r.collectors[name] = hist
	return &promLatencySensor{name: name, enabled: level.ShouldRecord(r.level), hist: hist}, nil
}

// AddThroughputSensor implements Registry.
func (r *PrometheusRegistry) AddThroughputSensor(scope, entity, operation string, level RecordingLevel, tags ...Tag) (Sensor, error) {
	name := SensorName(scope, entity, operation)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.collectors[name]; exists {
		return nil, streamerrors.DuplicateSensor(name)
	}

	counter := prom.NewCounter(prom.CounterOpts{
		Namespace:   "streamnode",
		Name:        metricName(operation) + "_total",
		Help:        "Number of " + operation + " calls",
		ConstLabels: constLabels(entity, tags),
	})
	if err := r.reg.Register(counter); err != nil {
		return nil, streamerrors.Wrap(err, streamerrors.CategoryMetrics, streamerrors.SeverityFatal, "failed to register throughput sensor "+name)
	}
	r.collectors[name] = counter
	return &promThroughputSensor{name: name, enabled: level.ShouldRecord(r.level), counter: counter}, nil
}

// RemoveSensor implements Registry.
func (r *PrometheusRegistry) RemoveSensor(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.collectors[name]; ok {
		r.reg.Unregister(c)
		delete(r.collectors, name)
	}
}

// metricName converts an operation kind to a Prometheus-safe metric name
// fragment.
func metricName(operation string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(operation)
}

// constLabels builds the label set identifying one sensor's entity. The
// entity label keeps sensors for different nodes distinct within the
// Prometheus registry.
func constLabels(entity string, tags []Tag) prom.Labels {
	labels := prom.Labels{"entity": entity}
	for _, tag := range tags {
		labels[metricName(tag.Key)] = tag.Value
	}
	return labels
}
