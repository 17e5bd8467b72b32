package metrics

import (
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRegistrySensors(t *testing.T) {
	preg := prom.NewRegistry()
	reg := NewPrometheusRegistry(preg, LevelDebug)

	lat, err := reg.AddLatencySensor("processor-node", "task.t1.n1", "process", LevelDebug,
		Tag{Key: "processor-node-id", Value: "n1"})
	require.NoError(t, err)
	thr, err := reg.AddThroughputSensor("processor-node", "task.t1.n1", "process-throughput", LevelDebug,
		Tag{Key: "processor-node-id", Value: "n1"})
	require.NoError(t, err)

	lat.Record(0.125)
	thr.Record(1)
	thr.Record(1)

	// Basic scrape to ensure metrics encode without panic
	mfs, err := preg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 2)

	reg.RemoveSensor(lat.Name())
	reg.RemoveSensor(thr.Name())

	mfs, err = preg.Gather()
	require.NoError(t, err)
	assert.Empty(t, mfs)
}

func TestPrometheusRegistryPerNodeBreakdown(t *testing.T) {
	reg := NewPrometheusRegistry(nil, LevelDebug)

	// Two nodes share the metric name; const labels keep them distinct.
	_, err := reg.AddLatencySensor("processor-node", "task.t1.n1", "process", LevelDebug,
		Tag{Key: "processor-node-id", Value: "n1"})
	require.NoError(t, err)
	_, err = reg.AddLatencySensor("processor-node", "task.t1.n2", "process", LevelDebug,
		Tag{Key: "processor-node-id", Value: "n2"})
	require.NoError(t, err)
}

func TestPrometheusRegistryRejectsDuplicates(t *testing.T) {
	reg := NewPrometheusRegistry(nil, LevelDebug)

	_, err := reg.AddThroughputSensor("processor-node", "task.t1.n1", "process-throughput", LevelDebug)
	require.NoError(t, err)
	_, err = reg.AddThroughputSensor("processor-node", "task.t1.n1", "process-throughput", LevelDebug)
	require.Error(t, err)
}
