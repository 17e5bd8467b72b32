package topology

import (
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/streamnode/internal/metrics"
)

const (
	sensorScope  = "processor-node"
	nodeTagKey   = "processor-node-id"
	opProcess    = "process"
	opPunctuate  = "punctuate"
	opCreate     = "create"
	opDestroy    = "destroy"
	opThroughput = "process-throughput"
)

// nodeMetrics binds one node to its five sensors: process, punctuate,
// create and destroy latencies plus process throughput. All five are
// created together at construction and removed together by teardown; a
// binding never exists in a partial state.
type nodeMetrics struct {
	registry metrics.Registry
	clock    clockwork.Clock

	processLatency     metrics.Sensor
	punctuateLatency   metrics.Sensor
	creationLatency    metrics.Sensor
	destructionLatency metrics.Sensor
	throughput         metrics.Sensor
}

// newNodeMetrics registers the five sensors for nodeName under the given
// scope prefix (identifying the owning task). If any registration fails the
// ones already created are removed before returning the error.
func newNodeMetrics(registry metrics.Registry, clock clockwork.Clock, prefix, nodeName string) (*nodeMetrics, error) {
	entity := prefix + "." + nodeName
	tag := metrics.Tag{Key: nodeTagKey, Value: nodeName}

	m := &nodeMetrics{registry: registry, clock: clock}
	created := make([]metrics.Sensor, 0, 5)

	latency := func(dst *metrics.Sensor, operation string) error {
		s, err := registry.AddLatencySensor(sensorScope, entity, operation, metrics.LevelDebug, tag)
		if err != nil {
			return err
		}
		*dst = s
		created = append(created, s)
		return nil
	}

	err := latency(&m.processLatency, opProcess)
	if err == nil {
		err = latency(&m.punctuateLatency, opPunctuate)
	}
	if err == nil {
		err = latency(&m.creationLatency, opCreate)
	}
	if err == nil {
		err = latency(&m.destructionLatency, opDestroy)
	}
	if err == nil {
		m.throughput, err = registry.AddThroughputSensor(sensorScope, entity, opThroughput, metrics.LevelDebug, tag)
	}
	if err != nil {
		for _, s := range created {
			registry.RemoveSensor(s.Name())
		}
		return nil, err
	}
	return m, nil
}

// measure runs op and records its wall-clock elapsed time to sensor. The
// duration is recorded on all exit paths, so failed operations still
// contribute a latency sample.
func (m *nodeMetrics) measure(sensor metrics.Sensor, op func() error) error {
	start := m.clock.Now()
	defer func() {
		sensor.Record(m.clock.Since(start).Seconds())
	}()
	return op()
}

// recordThroughput increments the throughput sensor by one.
func (m *nodeMetrics) recordThroughput() {
	m.throughput.Record(1)
}

// teardown removes all five sensors from the registry.
func (m *nodeMetrics) teardown() {
	m.registry.RemoveSensor(m.processLatency.Name())
	m.registry.RemoveSensor(m.punctuateLatency.Name())
	m.registry.RemoveSensor(m.throughput.Name())
	m.registry.RemoveSensor(m.creationLatency.Name())
	m.registry.RemoveSensor(m.destructionLatency.Name())
}
