// ABOUTME: urfave/cli application wiring: flags, config, logger, metrics and manager
// ABOUTME: Shared state is built in Before and read back by each command

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/2389/coven-session/internal/config"
	"github.com/2389/coven-session/internal/logging"
	"github.com/2389/coven-session/internal/metrics"
	"github.com/2389/coven-session/internal/session"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const (
	metaManager  = "manager"
	metaMetrics  = "metrics"
	metaRegistry = "registry"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "coven-session",
		Usage:   "Inspect and maintain client session files",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			openCommand(),
			migrateCommand(),
			infoCommand(),
			deleteCommand(),
			listCommand(),
			peersCommand(),
			resolveCommand(),
			exportStringCommand(),
			seqCommand(),
		},
		Before: setup,
		After:  printMetrics,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML or TOML config file",
			EnvVars: []string{"COVEN_SESSION_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "workdir",
			Aliases: []string{"w"},
			Usage:   "Directory holding <name>.session files (overrides config)",
			EnvVars: []string{"COVEN_SESSION_DIR"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error (overrides config)",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Dotenv file loaded before reading config",
			Value: ".env",
		},
	}
}

// setup loads configuration and builds the session manager
func setup(c *cli.Context) error {
	if err := godotenv.Load(c.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading env file: %w", err)
	}

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if dir := c.String("workdir"); dir != "" {
		cfg.Storage.Workdir = dir
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, c.App.ErrWriter)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		c.App.Metadata[metaRegistry] = reg
	}

	mgr, err := session.NewManager(session.Config{
		Workdir:     cfg.Storage.Workdir,
		Driver:      cfg.Storage.Driver,
		BusyTimeout: cfg.Storage.BusyTimeout,
	}, logger, m)
	if err != nil {
		return err
	}

	c.App.Metadata[metaManager] = mgr
	c.App.Metadata[metaMetrics] = m
	return nil
}

func managerFrom(c *cli.Context) (*session.Manager, error) {
	mgr, ok := c.App.Metadata[metaManager].(*session.Manager)
	if !ok {
		return nil, errors.New("session manager not initialised")
	}
	return mgr, nil
}

func metricsFrom(c *cli.Context) *metrics.Metrics {
	m, _ := c.App.Metadata[metaMetrics].(*metrics.Metrics)
	return m
}

// printMetrics dumps counter totals to stderr when metrics are enabled
func printMetrics(c *cli.Context) error {
	reg, ok := c.App.Metadata[metaRegistry].(*prometheus.Registry)
	if !ok {
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	totals := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				totals[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				totals[f.GetName()+"_count"] += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	w := c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	for _, name := range names {
		fmt.Fprintf(w, "%s %g\n", name, totals[name])
	}
	return nil
}
