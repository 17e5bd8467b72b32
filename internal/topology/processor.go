// Package topology models processing nodes in a stream-processing graph:
// named units wrapping user-supplied record-processing logic, forwarding to
// child nodes, with per-node latency and throughput instrumentation around
// every lifecycle call.
package topology

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/streamnode/internal/metrics"
)

// Processor is the record-processing capability implemented by topology
// authors. Nodes call these; they never implement them. Implementations are
// invoked serially per node instance.
type Processor interface {
	// Init is called once before any records are processed. The context is
	// passed through from Node.Init unmodified.
	Init(ctx *Context) error

	// Process handles one record.
	Process(key, value any) error

	// Punctuate is a time-driven callback fired by the external driver on a
	// schedule unrelated to individual records.
	Punctuate(timestamp time.Time) error

	// Close is called once during shutdown.
	Close() error
}

// Context is the externally-owned processing context handed to nodes at
// initialization: the task identifier scoping sensor names, the sensor
// registry, and a logger.
type Context struct {
	taskID   string
	registry metrics.Registry
	logger   *slog.Logger
}

// NewContext creates a processing context. An empty taskID gets a generated
// one; a nil logger falls back to slog.Default.
func NewContext(taskID string, registry metrics.Registry, logger *slog.Logger) *Context {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		taskID:   taskID,
		registry: registry,
		logger:   logger,
	}
}

// TaskID returns the identifier of the execution unit owning this context.
func (c *Context) TaskID() string { return c.taskID }

// Metrics returns the sensor registry.
func (c *Context) Metrics() metrics.Registry { return c.registry }

// Logger returns the context logger.
func (c *Context) Logger() *slog.Logger { return c.logger }
