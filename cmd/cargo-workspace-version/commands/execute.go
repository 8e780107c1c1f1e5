package commands

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/version"
)

// cargoSubcommand is the argument cargo inserts when run as "cargo workspace-version".
const cargoSubcommand = "workspace-version"

// StripCargoInvocation drops the leading subcommand name cargo passes to external
// subcommands.
func StripCargoInvocation(args []string) []string {
	if len(args) > 0 && args[0] == cargoSubcommand {
		return args[1:]
	}
	return args
}

// Execute parses args, runs the selected command and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cli := &CLI{}
	global := &Global{Stdout: stdout, Stderr: stderr}

	parser, err := kong.New(cli,
		kong.Name("cargo-workspace-version"),
		kong.Description("Keep one version across every manifest of a Cargo workspace."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.DefaultEnvars("CARGO_WORKSPACE_VERSION"),
		kong.Writers(stdout, stderr),
		kong.Bind(global),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return errors.ExitInternal
	}

	ctx, err := parser.Parse(StripCargoInvocation(args))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return errors.ExitUsage
	}

	err = ctx.Run(cli)
	return errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).WithOutput(stderr).Handle(err)
}
