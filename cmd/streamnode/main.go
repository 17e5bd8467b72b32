package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/streamnode/internal/config"
	"git.home.luguber.info/inful/streamnode/internal/driver"
	"git.home.luguber.info/inful/streamnode/internal/logfields"
	"git.home.luguber.info/inful/streamnode/internal/metrics"
	"git.home.luguber.info/inful/streamnode/internal/topology"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct {
	} `cmd:"" help:"Run the configured topology until interrupted"`

	Describe struct {
	} `cmd:"" help:"Print the configured topology without running it"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Execute command
	switch ctx.Command() {
	case "run":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runTopology(cfg, logger); err != nil {
			slog.Error("Run failed", "error", err)
			os.Exit(1)
		}
	case "describe":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		topo, err := buildTopology(cfg)
		if err != nil {
			slog.Error("Failed to build topology", "error", err)
			os.Exit(1)
		}
		fmt.Print(topo.Describe())
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration file created", "path", CLI.Config)
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

// buildTopology wires the config-declared structural nodes into a topology.
func buildTopology(cfg *config.Config) (*topology.Topology, error) {
	builder := topology.NewBuilder()
	for _, nc := range cfg.Topology {
		node := topology.NewNode(nc.Name, topology.WithStateStores(nc.Stores...))
		if err := builder.AddNode(node); err != nil {
			return nil, err
		}
	}
	for _, nc := range cfg.Topology {
		for _, child := range nc.Children {
			if err := builder.Connect(nc.Name, child); err != nil {
				return nil, err
			}
		}
	}
	return builder.Build()
}

// newRegistry selects the sensor registry backend. For prometheus it also
// returns a scrape server for the configured address; the caller owns its
// lifecycle.
func newRegistry(cfg *config.Config) (metrics.Registry, *http.Server) {
	level := metrics.RecordingLevel(cfg.Metrics.Level)
	if cfg.Metrics.Backend == "prometheus" {
		reg := metrics.NewPrometheusRegistry(nil, level)
		server := &http.Server{Addr: cfg.Metrics.Listen, Handler: reg.HTTPHandler()}
		return reg, server
	}
	return metrics.NewMemoryRegistry(level), nil
}

// newSource selects the record source. With type "none" the driver idles
// until interrupted.
func newSource(cfg *config.Config) (driver.Source, error) {
	if cfg.Source.Type == "nats" {
		return driver.NewNATSSource(cfg.Source.NATS.URL, cfg.Source.NATS.Subject, cfg.Source.NATS.Buffer)
	}
	return driver.NewChannelSource(0), nil
}

func runTopology(cfg *config.Config, logger *slog.Logger) error {
	topo, err := buildTopology(cfg)
	if err != nil {
		return err
	}

	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	registry, metricsServer := newRegistry(cfg)
	if metricsServer != nil {
		go func() {
			slog.Info("Serving metrics", logfields.URL(metricsServer.Addr+"/metrics"))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Metrics server shutdown failed", logfields.Error(err))
			}
		}()
	}

	pctx := topology.NewContext(cfg.Task.ID, registry, logger)
	d := driver.New(topo, source,
		driver.WithPunctuateInterval(cfg.Punctuate.Interval.AsDuration()),
	)

	// Run until signal
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting topology",
		logfields.Task(pctx.TaskID()),
		slog.Int("nodes", len(topo.Nodes())),
		slog.String("source", cfg.Source.Type))
	return d.Run(runCtx, pctx)
}
