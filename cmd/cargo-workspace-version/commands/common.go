package commands

import (
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
)

// Global context passed to subcommands.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Quiet   bool             `short:"q" help:"Don't print anything except errors"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Root                  string `short:"C" help:"Workspace root directory" default:"."`
	Config                string `help:"Configuration file (default: <root>/.workspace-version.yaml)" type:"path"`
	Manifest              string `help:"Manifest file name in the root and each member (default: Cargo.toml)"`
	Format                string `help:"Output format (text or json)"`
	RequireClean          bool   `help:"Refuse to update manifests that have uncommitted changes"`
	MetricsTextfile       string `help:"Write Prometheus metrics to this file after the run" type:"path"`
	WorkspaceDependencies bool   `help:"Also sync member pins in [workspace.dependencies]"`

	Update UpdateCmd `cmd:"" help:"Set every version field in the workspace to <version>"`
	Check  CheckCmd  `cmd:"" help:"Verify every version field in the workspace equals <version>"`
}

// AfterApply runs after flag parsing; setup logging once.
// Console notices go to stdout; the log carries diagnostics only.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelWarn
	switch {
	case c.Verbose:
		level = slog.LevelDebug
	case c.Quiet:
		level = slog.LevelError
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}
