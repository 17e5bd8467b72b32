package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/streamnode/internal/metrics"
	"git.home.luguber.info/inful/streamnode/internal/topology"
)

type countingProcessor struct {
	processErr error
	processed  int
	punctuated int
	closed     int
}

func (p *countingProcessor) Init(*topology.Context) error { return nil }

func (p *countingProcessor) Process(key, value any) error {
	p.processed++
	return p.processErr
}

func (p *countingProcessor) Punctuate(time.Time) error {
	p.punctuated++
	return nil
}

func (p *countingProcessor) Close() error {
	p.closed++
	return nil
}

func buildTestTopology(t *testing.T, procs ...*countingProcessor) *topology.Topology {
	t.Helper()
	b := topology.NewBuilder()
	prev := ""
	for i, proc := range procs {
		name := string(rune('a' + i))
		require.NoError(t, b.AddNode(topology.NewNode(name, topology.WithProcessor(proc))))
		if prev != "" {
			require.NoError(t, b.Connect(prev, name))
		}
		prev = name
	}
	topo, err := b.Build()
	require.NoError(t, err)
	return topo
}

func TestDriverDrainsSource(t *testing.T) {
	head, tail := &countingProcessor{}, &countingProcessor{}
	topo := buildTestTopology(t, head, tail)

	source := NewChannelSource(8)
	for i := 0; i < 5; i++ {
		source.Send("k", i)
	}
	source.Close()

	reg := metrics.NewMemoryRegistry(metrics.LevelDebug)
	pctx := topology.NewContext("t1", reg, nil)

	d := New(topo, source)
	require.NoError(t, d.Run(context.Background(), pctx))

	assert.Equal(t, int64(5), d.Processed())
	assert.Equal(t, 5, head.processed)
	assert.Equal(t, 5, tail.processed)
	assert.Equal(t, 1, head.closed)
	assert.Equal(t, 1, tail.closed)
	assert.Equal(t, 0, reg.SensorCount(), "all sensors removed after the run")
}

func TestDriverStopsOnProcessError(t *testing.T) {
	cause := errors.New("record rejected")
	proc := &countingProcessor{processErr: cause}
	topo := buildTestTopology(t, proc)

	source := NewChannelSource(4)
	source.Send("k", 1)
	source.Send("k", 2)
	source.Close()

	pctx := topology.NewContext("t1", metrics.NewMemoryRegistry(metrics.LevelDebug), nil)

	err := New(topo, source).Run(context.Background(), pctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, proc.processed, "first failure aborts the pump")
	assert.Equal(t, 1, proc.closed, "topology still closed on the way out")
}

func TestDriverStopsOnContextCancel(t *testing.T) {
	proc := &countingProcessor{}
	topo := buildTestTopology(t, proc)
	source := NewChannelSource(0)
	defer source.Close()

	pctx := topology.NewContext("t1", metrics.NewMemoryRegistry(metrics.LevelDebug), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(topo, source).Run(ctx, pctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not stop after cancel")
	}
	assert.Equal(t, 1, proc.closed)
}

func TestDriverSchedulesPunctuation(t *testing.T) {
	proc := &countingProcessor{}
	topo := buildTestTopology(t, proc)
	source := NewChannelSource(0)
	defer source.Close()

	reg := metrics.NewMemoryRegistry(metrics.LevelDebug)
	pctx := topology.NewContext("t1", reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	d := New(topo, source, WithPunctuateInterval(10*time.Millisecond))
	go func() { done <- d.Run(ctx, pctx) }()

	punctuateSensor := metrics.SensorName("processor-node", "task.t1.a", "punctuate")
	require.Eventually(t, func() bool {
		snap, ok := reg.Latency(punctuateSensor)
		return ok && snap.Count >= 1
	}, 5*time.Second, 10*time.Millisecond, "punctuation never fired")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not stop after cancel")
	}
}

func TestChannelSourceCloseIsIdempotent(t *testing.T) {
	source := NewChannelSource(1)
	source.Send("k", 1)
	require.NoError(t, source.Close())
	require.NoError(t, source.Close())

	rec, ok := <-source.Records()
	require.True(t, ok)
	assert.Equal(t, "k", rec.Key)

	_, ok = <-source.Records()
	assert.False(t, ok)
}
