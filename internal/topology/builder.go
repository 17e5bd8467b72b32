package topology

import (
	"errors"
	"sort"
	"strings"
	"time"

	streamerrors "git.home.luguber.info/inful/streamnode/internal/errors"
	"git.home.luguber.info/inful/streamnode/internal/logfields"
)

// Builder wires nodes into a Topology. Nodes are added by value, edges by
// name; Build validates the graph and fixes a deterministic initialization
// order.
type Builder struct {
	nodes map[string]*Node
	order []string            // insertion order of node names
	edges map[string][]string // parent -> children
}

// NewBuilder creates an empty topology builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]*Node),
		edges: make(map[string][]string),
	}
}

// AddNode registers a node. Node names must be unique within the topology.
func (b *Builder) AddNode(node *Node) error {
	if _, exists := b.nodes[node.Name()]; exists {
		return streamerrors.DuplicateNode(node.Name())
	}
	b.nodes[node.Name()] = node
	b.order = append(b.order, node.Name())
	return nil
}

// Connect adds a parent→child edge between two registered nodes and appends
// the child to the parent's children.
func (b *Builder) Connect(parent, child string) error {
	p, ok := b.nodes[parent]
	if !ok {
		return streamerrors.UnknownNode(parent)
	}
	c, ok := b.nodes[child]
	if !ok {
		return streamerrors.UnknownNode(child)
	}
	p.AddChild(c)
	b.edges[parent] = append(b.edges[parent], child)
	return nil
}

// Build validates the wired graph and returns a Topology. The graph must be
// acyclic; initialization order is a topological sort with ties broken by
// name for determinism.
func (b *Builder) Build() (*Topology, error) {
	inDegree := make(map[string]int, len(b.nodes))
	for name := range b.nodes {
		inDegree[name] = 0
	}
	for _, children := range b.edges {
		for _, child := range children {
			inDegree[child]++
		}
	}

	queue := make([]string, 0, len(b.nodes))
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	sources := make([]*Node, 0, len(queue))
	for _, name := range queue {
		sources = append(sources, b.nodes[name])
	}

	var order []*Node
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, b.nodes[current])

		next := append([]string(nil), b.edges[current]...)
		sort.Strings(next)
		for _, child := range next {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(order) != len(b.nodes) {
		var cyclic []string
		for name, degree := range inDegree {
			if degree > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, streamerrors.TopologyCycle(cyclic[0])
	}

	return &Topology{nodes: order, sources: sources}, nil
}

// Topology is a validated processing graph: nodes in topological order plus
// the source nodes traversal starts from. The driver owns the call sequence
// Init → {Process|Punctuate}* → Close and serializes it.
type Topology struct {
	nodes   []*Node
	sources []*Node
	ctx     *Context
}

// Nodes returns all nodes in initialization order.
func (t *Topology) Nodes() []*Node { return t.nodes }

// Sources returns the nodes with no parents.
func (t *Topology) Sources() []*Node { return t.sources }

// Init initializes every node in topological order. On failure the
// already-initialized prefix is closed again and the first error is
// returned.
func (t *Topology) Init(ctx *Context) error {
	t.ctx = ctx
	for i, node := range t.nodes {
		if err := node.Init(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if cerr := t.nodes[j].Close(); cerr != nil {
					ctx.Logger().Warn("failed to close node during init rollback",
						logfields.Node(t.nodes[j].Name()), logfields.Error(cerr))
				}
			}
			return err
		}
		ctx.Logger().Debug("node initialized",
			logfields.Node(node.Name()), logfields.Task(ctx.TaskID()))
	}
	return nil
}

// Process feeds one record into the topology: a depth-first traversal from
// each source node, invoking every reached node with the record. Routing
// and record transformation are the forwarding layer's concern, not
// modeled here; traversal broadcasts the input along child edges. The first
// node error aborts the traversal and propagates unwrapped.
func (t *Topology) Process(key, value any) error {
	for _, source := range t.sources {
		if err := processSubtree(source, key, value); err != nil {
			return err
		}
	}
	return nil
}

func processSubtree(node *Node, key, value any) error {
	if err := node.Process(key, value); err != nil {
		return err
	}
	for _, child := range node.Children() {
		if err := processSubtree(child, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Punctuate fires the time-based callback on every node in topological
// order. The first error aborts and propagates unwrapped.
func (t *Topology) Punctuate(timestamp time.Time) error {
	for _, node := range t.nodes {
		if err := node.Punctuate(timestamp); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every node in topological order, continuing past failures
// and joining any errors.
func (t *Topology) Close() error {
	var errs []error
	for _, node := range t.nodes {
		if err := node.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Describe renders the topology for diagnostics, one node per line in
// initialization order.
func (t *Topology) Describe() string {
	var sb strings.Builder
	for _, node := range t.nodes {
		sb.WriteString(node.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
