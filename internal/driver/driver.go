package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/streamnode/internal/logfields"
	"git.home.luguber.info/inful/streamnode/internal/topology"
)

// Driver executes one topology: it initializes the nodes, pumps records
// from a Source through the graph, fires punctuation on a fixed schedule
// and closes the nodes on shutdown. A node must only ever be invoked
// serially, so the driver holds one mutex across Process and Punctuate.
type Driver struct {
	topo     *topology.Topology
	source   Source
	interval time.Duration
	clock    clockwork.Clock

	mu        sync.Mutex
	processed int64
}

// Option configures a Driver.
type Option func(*Driver)

// WithPunctuateInterval enables scheduled punctuation. A zero or negative
// interval disables it.
func WithPunctuateInterval(interval time.Duration) Option {
	return func(d *Driver) {
		d.interval = interval
	}
}

// WithClock injects the clock used for punctuation timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(d *Driver) {
		d.clock = clock
	}
}

// New creates a driver for the given topology and source.
func New(topo *topology.Topology, source Source, opts ...Option) *Driver {
	d := &Driver{
		topo:   topo,
		source: source,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Processed returns the number of records fed through the topology so far.
func (d *Driver) Processed() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.processed
}

// Run drives the topology until the source drains or ctx is canceled. The
// topology is initialized with pctx, punctuated on the configured interval
// while records flow, and closed before Run returns. The first processing
// error aborts the run; shutdown errors are joined onto it.
func (d *Driver) Run(ctx context.Context, pctx *topology.Context) error {
	logger := pctx.Logger()

	if err := d.topo.Init(pctx); err != nil {
		return err
	}

	var scheduler gocron.Scheduler
	if d.interval > 0 {
		var err error
		scheduler, err = gocron.NewScheduler()
		if err == nil {
			_, err = scheduler.NewJob(
				gocron.DurationJob(d.interval),
				gocron.NewTask(d.punctuate, logger),
				gocron.WithName("punctuate"),
			)
		}
		if err != nil {
			cerr := d.topo.Close()
			return errors.Join(fmt.Errorf("failed to schedule punctuation: %w", err), cerr)
		}
		scheduler.Start()
		logger.Info("punctuation scheduled", logfields.Interval(d.interval.String()))
	}

	runErr := d.pump(ctx, logger)

	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			logger.Warn("failed to stop punctuation scheduler", logfields.Error(err))
		}
	}
	return errors.Join(runErr, d.topo.Close())
}

// pump consumes records until the source channel closes or ctx is canceled.
func (d *Driver) pump(ctx context.Context, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("driver stopping", logfields.Records(d.Processed()))
			return nil
		case rec, ok := <-d.source.Records():
			if !ok {
				logger.Info("source drained", logfields.Records(d.Processed()))
				return nil
			}
			d.mu.Lock()
			err := d.topo.Process(rec.Key, rec.Value)
			if err == nil {
				d.processed++
			}
			d.mu.Unlock()
			if err != nil {
				return err
			}
		}
	}
}

// punctuate is invoked by the scheduler. Scheduler tasks cannot propagate
// errors, so punctuation failures are logged and the run continues.
func (d *Driver) punctuate(logger *slog.Logger) {
	d.mu.Lock()
	err := d.topo.Punctuate(d.clock.Now())
	d.mu.Unlock()
	if err != nil {
		logger.Warn("punctuation failed", logfields.Error(err))
	}
}
