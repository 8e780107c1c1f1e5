// Package report renders synchronization notices for the console.
package report

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ava-labs/cargo-workspace-version/internal/config"
	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
	"github.com/ava-labs/cargo-workspace-version/internal/versionsync"
)

// New returns the observer for format. Quiet wins over any format.
func New(format string, quiet bool, out io.Writer, mode versioning.Mode) versionsync.Observer {
	switch {
	case quiet:
		return Quiet{}
	case format == config.FormatJSON:
		return NewJSON(out)
	default:
		return NewText(out, mode, UseColor(out))
	}
}

// UseColor reports whether w is a terminal that should get ANSI colors. NO_COLOR
// disables color regardless.
func UseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Quiet discards every notice.
type Quiet struct{}

func (Quiet) FieldChecked(versioning.Result) {}
func (Quiet) FileUpdated(string) {}
func (Quiet) FileNeedsUpdate(string) {}
func (Quiet) Finished(*versionsync.Summary) {}
