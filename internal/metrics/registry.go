// Package metrics provides the sensor registry consumed by processing nodes.
//
// A Registry hands out named sensors (latency or throughput accumulators)
// and removes them again when a node shuts down. Two implementations exist:
// an in-memory registry for tests and the stats endpoint, and a
// Prometheus-backed registry for scraping. Registries synchronize
// themselves; callers never lock around sensor creation or removal.
package metrics

import (
	"fmt"
)

// RecordingLevel gates whether a sensor records the samples offered to it.
type RecordingLevel string

const (
	LevelInfo  RecordingLevel = "info"
	LevelDebug RecordingLevel = "debug"
)

// ShouldRecord reports whether a sensor registered at level l records when
// the registry runs at level active.
func (l RecordingLevel) ShouldRecord(active RecordingLevel) bool {
	if l == LevelInfo {
		return true
	}
	return active == LevelDebug
}

// Tag is a key/value pair attached to a sensor for per-entity breakdown.
type Tag struct {
	Key   string
	Value string
}

// Sensor is a named, registry-held accumulator of timing or count samples.
// Latency sensors record elapsed seconds; throughput sensors record
// increments.
type Sensor interface {
	Name() string
	Record(value float64)
}

// Registry creates and removes sensors. Implementations must be safe for
// concurrent use: nodes across a topology register into the same scoped
// registry from multiple goroutines.
type Registry interface {
	// AddLatencySensor registers a sensor recording elapsed-time samples for
	// one operation kind of one entity. Registering an already-present name
	// is an error.
	AddLatencySensor(scope, entity, operation string, level RecordingLevel, tags ...Tag) (Sensor, error)

	// AddThroughputSensor registers a sensor recording a monotonically
	// increasing call count.
	AddThroughputSensor(scope, entity, operation string, level RecordingLevel, tags ...Tag) (Sensor, error)

	// RemoveSensor removes a sensor by its derived name. Removing an unknown
	// name is a no-op.
	RemoveSensor(name string)
}

// SensorName derives the unique registry name for a sensor from its scope,
// owning entity and operation kind.
func SensorName(scope, entity, operation string) string {
	return fmt.Sprintf("%s.%s.%s", scope, entity, operation)
}
