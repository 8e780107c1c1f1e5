package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/cargo-workspace-version/internal/config"
	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/git"
	"github.com/ava-labs/cargo-workspace-version/internal/logfields"
	"github.com/ava-labs/cargo-workspace-version/internal/metrics"
	"github.com/ava-labs/cargo-workspace-version/internal/report"
	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
	"github.com/ava-labs/cargo-workspace-version/internal/versionsync"
)

// UpdateCmd implements the 'update' command.
type UpdateCmd struct {
	Version string `arg:"" help:"Target version; a leading v is ignored"`
}

func (u *UpdateCmd) Run(g *Global, root *CLI) error {
	return root.sync(g, u.Version, versioning.ModeUpdate)
}

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Version string `arg:"" help:"Expected version; a leading v is ignored"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	return root.sync(g, c.Version, versioning.ModeCheck)
}

func (c *CLI) sync(g *Global, raw string, mode versioning.Mode) error {
	target, err := versioning.ParseTarget(raw)
	if err != nil {
		return err
	}
	if info, err := os.Stat(c.Root); err != nil || !info.IsDir() {
		return errors.InvalidArgument(fmt.Sprintf("workspace root %q is not a directory", c.Root))
	}

	if loaded, err := config.LoadEnvFiles(c.Root); err != nil {
		slog.Warn("Failed to load environment file", logfields.Error(err))
	} else if len(loaded) > 0 {
		slog.Debug("Loaded environment files", slog.Any("files", loaded))
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	opts := versionsync.Options{
		RootDir:               c.Root,
		ManifestName:          cfg.Manifest,
		DependencyTables:      cfg.DependencyTables,
		WorkspaceDependencies: cfg.WorkspaceDependencies,
		Target:                target,
		Mode:                  mode,
		Observer:              report.New(cfg.Format, c.Quiet, g.Stdout, mode),
	}
	if cfg.RequireClean {
		opts.Guard = git.NewCleanGuard(c.Root)
	}

	var reg *prom.Registry
	if cfg.MetricsTextfile != "" {
		reg = prom.NewRegistry()
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
	}

	summary, runErr := versionsync.NewOrchestrator(opts).Run()
	if summary != nil {
		slog.Debug("Run finished",
			logfields.RunID(summary.RunID),
			logfields.Mode(mode.String()),
			logfields.Target(target.String()),
			logfields.Count(summary.Mismatches),
			logfields.DurationMS(float64(summary.Duration.Microseconds())/1000))
	}

	if reg != nil {
		if err := metrics.WriteTextfile(reg, cfg.MetricsTextfile); err != nil {
			if runErr != nil {
				slog.Warn("Failed to write metrics", logfields.Path(cfg.MetricsTextfile), logfields.Error(err))
				return runErr
			}
			return errors.WriteFailed(cfg.MetricsTextfile, err)
		}
	}
	return runErr
}

// loadConfig reads the configuration file and applies flag overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	path, required := c.Config, true
	if path == "" {
		path, required = filepath.Join(c.Root, config.DefaultFileName), false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}

	if c.Manifest != "" {
		cfg.Manifest = c.Manifest
	}
	if c.Format != "" {
		cfg.Format = c.Format
	}
	if c.RequireClean {
		cfg.RequireClean = true
	}
	if c.WorkspaceDependencies {
		cfg.WorkspaceDependencies = true
	}
	if c.MetricsTextfile != "" {
		cfg.MetricsTextfile = c.MetricsTextfile
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigInvalid(path, err.Error())
	}
	return cfg, nil
}
