package metrics

import (
	"sync"

	streamerrors "git.home.luguber.info/inful/streamnode/internal/errors"
)

// MemoryRegistry is an in-process Registry keeping sensor accumulators in
// maps. It backs tests and the diagnostic stats rendering.
type MemoryRegistry struct {
	mu      sync.RWMutex
	level   RecordingLevel
	sensors map[string]*memorySensor
}

// NewMemoryRegistry creates an empty registry recording at the given level.
func NewMemoryRegistry(level RecordingLevel) *MemoryRegistry {
	if level == "" {
		level = LevelInfo
	}
	return &MemoryRegistry{
		level:   level,
		sensors: make(map[string]*memorySensor),
	}
}

// LatencySnapshot is a point-in-time view of a latency sensor's accumulator.
type LatencySnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
}

type memorySensor struct {
	mu      sync.Mutex
	name    string
	enabled bool
	latency bool

	count int64
	sum   float64
	min   float64
	max   float64
}

func (s *memorySensor) Name() string { return s.name }

func (s *memorySensor) Record(value float64) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 || value < s.min {
		s.min = value
	}
	if s.count == 0 || value > s.max {
		s.max = value
	}
	s.count++
	s.sum += value
}

// add registers a sensor. Memory sensors identify by name alone; tags only
// matter to the Prometheus backend.
func (r *MemoryRegistry) add(scope, entity, operation string, level RecordingLevel, latency bool) (Sensor, error) {
	name := SensorName(scope, entity, operation)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sensors[name]; exists {
		return nil, streamerrors.DuplicateSensor(name)
	}
	s := &memorySensor{
		name:    name,
		enabled: level.ShouldRecord(r.level),
		latency: latency,
	}
	r.sensors[name] = s
	return s, nil
}

// AddLatencySensor implements Registry.
func (r *MemoryRegistry) AddLatencySensor(scope, entity, operation string, level RecordingLevel, _ ...Tag) (Sensor, error) {
	return r.add(scope, entity, operation, level, true)
}

// AddThroughputSensor implements Registry.
func (r *MemoryRegistry) AddThroughputSensor(scope, entity, operation string, level RecordingLevel, _ ...Tag) (Sensor, error) {
	return r.add(scope, entity, operation, level, false)
}

// RemoveSensor implements Registry.
func (r *MemoryRegistry) RemoveSensor(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sensors, name)
}

// SensorCount returns the number of registered sensors.
func (r *MemoryRegistry) SensorCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sensors)
}

// SensorNames returns the names of all registered sensors, unordered.
func (r *MemoryRegistry) SensorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sensors))
	for name := range r.sensors {
		names = append(names, name)
	}
	return names
}

// ThroughputCount returns the accumulated count of a throughput sensor, or
// zero if the sensor is unknown.
func (r *MemoryRegistry) ThroughputCount(name string) int64 {
	r.mu.RLock()
	s, ok := r.sensors[name]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Latency returns a snapshot of a latency sensor's accumulator. The second
// return value reports whether the sensor exists.
func (r *MemoryRegistry) Latency(name string) (LatencySnapshot, bool) {
	r.mu.RLock()
	s, ok := r.sensors[name]
	r.mu.RUnlock()
	if !ok || !s.latency {
		return LatencySnapshot{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return LatencySnapshot{Count: s.count, Sum: s.sum, Min: s.min, Max: s.max}, true
}
