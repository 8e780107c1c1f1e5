package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyMode       = "mode"
	KeyTarget     = "target"
	KeyMember     = "member"
	KeyManifest   = "manifest"
	KeyField      = "field"
	KeyOutcome    = "outcome"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Target(v string) slog.Attr       { return slog.String(KeyTarget, v) }
func Member(id string) slog.Attr      { return slog.String(KeyMember, id) }
func Manifest(p string) slog.Attr     { return slog.String(KeyManifest, p) }
func Field(f string) slog.Attr        { return slog.String(KeyField, f) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
