package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/streamnode/internal/config"
	"git.home.luguber.info/inful/streamnode/internal/metrics"
)

func TestBuildTopologyFromConfig(t *testing.T) {
	cfg := &config.Config{
		Topology: []config.NodeConfig{
			{Name: "ingest", Children: []string{"emit"}},
			{Name: "emit", Stores: []string{"out-store"}},
		},
	}

	topo, err := buildTopology(cfg)
	require.NoError(t, err)
	require.Len(t, topo.Nodes(), 2)
	assert.Equal(t, "ingest", topo.Nodes()[0].Name())
	assert.Contains(t, topo.Describe(), "stateStores [out-store]")
}

func TestNewRegistryBackendSelection(t *testing.T) {
	cfg := &config.Config{}
	cfg.Metrics.Backend = "memory"
	cfg.Metrics.Level = "debug"

	reg, server := newRegistry(cfg)
	assert.IsType(t, &metrics.MemoryRegistry{}, reg)
	assert.Nil(t, server, "memory backend needs no scrape server")

	cfg.Metrics.Backend = "prometheus"
	cfg.Metrics.Listen = ":9999"
	reg, server = newRegistry(cfg)
	assert.IsType(t, &metrics.PrometheusRegistry{}, reg)
	require.NotNil(t, server, "prometheus backend gets a scrape server the caller shuts down")
	assert.Equal(t, ":9999", server.Addr)
}
