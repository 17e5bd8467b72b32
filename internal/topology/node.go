package topology

import (
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	streamerrors "git.home.luguber.info/inful/streamnode/internal/errors"
)

// Node is one stage in a topology. It wraps an optional Processor, holds
// references to its child nodes and associated state-store names, and
// instruments every lifecycle call with per-node latency and throughput
// sensors.
//
// A node is a single-threaded call/return component: the external driver
// must serialize Init, Process, Punctuate and Close on one instance. The
// lifecycle is linear (Uninitialized → Initialized → Closed) with no
// re-entry; the metrics binding exists exactly between a completed Init and
// a completed Close.
type Node struct {
	name        string
	processor   Processor // nil for purely structural nodes
	children    []*Node
	stateStores []string
	clock       clockwork.Clock

	ctx     *Context
	metrics *nodeMetrics
}

// NodeOption configures a Node at construction.
type NodeOption func(*Node)

// WithProcessor attaches user processing logic to the node.
func WithProcessor(p Processor) NodeOption {
	return func(n *Node) {
		n.processor = p
	}
}

// WithStateStores associates the node with state stores by name. Names are
// deduplicated and kept sorted so diagnostic rendering is stable.
func WithStateStores(names ...string) NodeOption {
	return func(n *Node) {
		seen := make(map[string]bool, len(names))
		n.stateStores = n.stateStores[:0]
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				n.stateStores = append(n.stateStores, name)
			}
		}
		sort.Strings(n.stateStores)
	}
}

// WithClock injects the clock used for latency measurement. Defaults to the
// real clock.
func WithClock(clock clockwork.Clock) NodeOption {
	return func(n *Node) {
		n.clock = clock
	}
}

// NewNode creates a node with the given name, unique within its topology.
func NewNode(name string, opts ...NodeOption) *Node {
	n := &Node{
		name:  name,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the node's immutable identifier.
func (n *Node) Name() string { return n.name }

// Processor returns the wrapped processing logic, nil for structural nodes.
func (n *Node) Processor() Processor { return n.processor }

// Children returns the node's child nodes in insertion order. The returned
// slice is shared; callers must not mutate it.
func (n *Node) Children() []*Node { return n.children }

// StateStores returns the names of the state stores this node is associated
// with.
func (n *Node) StateStores() []string { return n.stateStores }

// AddChild appends a child node. No uniqueness or cycle check is performed;
// wiring validity is the topology builder's responsibility.
func (n *Node) AddChild(child *Node) {
	n.children = append(n.children, child)
}

// Init stores the context, creates the node's metrics binding, then invokes
// the processor's Init with the invocation timed into the creation-latency
// sensor. Any failure, from sensor setup or the processor, is wrapped into
// an initialization error carrying the node's name. Init must be called
// exactly once, before any other lifecycle call.
func (n *Node) Init(ctx *Context) error {
	n.ctx = ctx

	m, err := newNodeMetrics(ctx.Metrics(), n.clock, "task."+ctx.TaskID(), n.name)
	if err != nil {
		return streamerrors.NodeInitialization(n.name, err)
	}
	n.metrics = m

	err = m.measure(m.creationLatency, func() error {
		if n.processor == nil {
			return nil
		}
		return n.processor.Init(ctx)
	})
	if err != nil {
		// A failed Init never completed, so the binding must not survive it.
		m.teardown()
		n.metrics = nil
		return streamerrors.NodeInitialization(n.name, err)
	}
	return nil
}

// Process handles one record. The processor invocation is timed into the
// process-latency sensor; on successful return the throughput sensor is
// incremented as a separate step. Processor errors propagate verbatim,
// unwrapped, and leave the throughput count untouched. With no processor
// attached the timing wrapper and throughput increment still run.
//
// Calling Process outside the initialized window fails fast with a
// lifecycle error and never touches the sensor registry.
func (n *Node) Process(key, value any) error {
	if n.metrics == nil {
		return streamerrors.NotInitialized(n.name, opProcess)
	}

	err := n.metrics.measure(n.metrics.processLatency, func() error {
		if n.processor == nil {
			return nil
		}
		return n.processor.Process(key, value)
	})
	if err != nil {
		return err
	}

	// record throughput
	n.metrics.recordThroughput()
	return nil
}

// Punctuate fires the processor's time-based callback, timed into the
// punctuate-latency sensor. Like Process it propagates processor errors
// unwrapped, runs the timing wrapper as a no-op when no processor is
// attached, and fails fast when called outside the initialized window.
func (n *Node) Punctuate(timestamp time.Time) error {
	if n.metrics == nil {
		return streamerrors.NotInitialized(n.name, opPunctuate)
	}

	return n.metrics.measure(n.metrics.punctuateLatency, func() error {
		if n.processor == nil {
			return nil
		}
		return n.processor.Punctuate(timestamp)
	})
}

// Close invokes the processor's Close timed into the destruction-latency
// sensor, then removes the node's five sensors from the registry. Any
// failure is wrapped into a shutdown error carrying the node's name; a
// failed close leaves the binding in place since the close did not
// complete. Close must be called exactly once, after Init.
func (n *Node) Close() error {
	if n.metrics == nil {
		return streamerrors.NotInitialized(n.name, "close")
	}

	err := n.metrics.measure(n.metrics.destructionLatency, func() error {
		if n.processor == nil {
			return nil
		}
		return n.processor.Close()
	})
	if err != nil {
		return streamerrors.NodeShutdown(n.name, err)
	}

	n.metrics.teardown()
	n.metrics = nil
	return nil
}

// String renders the node for diagnostics: its name followed by its
// associated state stores, if any. Purely observational and independent of
// call history.
func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.name + ": ")
	if len(n.stateStores) > 0 {
		sb.WriteString("stateStores [")
		sb.WriteString(strings.Join(n.stateStores, ","))
		sb.WriteString("] ")
	}
	return sb.String()
}
