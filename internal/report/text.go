package report

import (
	"fmt"
	"io"

	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
	"github.com/ava-labs/cargo-workspace-version/internal/versionsync"
)

const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
)

// Text prints one line per differing field and per affected file.
type Text struct {
	w        io.Writer
	mode     versioning.Mode
	useColor bool
}

// NewText creates a text observer.
func NewText(w io.Writer, mode versioning.Mode, useColor bool) *Text {
	return &Text{w: w, mode: mode, useColor: useColor}
}

func (t *Text) FieldChecked(res versioning.Result) {
	if !res.Mismatched() {
		return
	}
	suffix := ""
	if res.Changed() {
		suffix = " (fixing)"
	}
	t.printf(colorYellow, "Version for %s was %s want %s%s", res.Location, res.Field.Value, res.Want, suffix)
}

func (t *Text) FileUpdated(path string) {
	t.printf(colorGreen, "%s was updated", path)
}

func (t *Text) FileNeedsUpdate(path string) {
	t.printf(colorYellow, "%s needs to be updated", path)
}

func (t *Text) Finished(s *versionsync.Summary) {
	if t.mode == versioning.ModeCheck && s.Mismatches == 0 {
		t.printf(colorGreen, "All files had the correct version")
	}
}

func (t *Text) printf(color, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if t.useColor {
		line = color + line + colorReset
	}
	_, _ = fmt.Fprintln(t.w, line)
}
