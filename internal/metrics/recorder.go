package metrics

import "time"

// RunOutcome enumerates final run results for counters.
type RunOutcome string

const (
	RunSuccess  RunOutcome = "success"
	RunMismatch RunOutcome = "mismatch"
	RunFailed   RunOutcome = "failed"
)

// Recorder defines observability hooks for a synchronization run.
type Recorder interface {
	// IncFieldOutcome counts one checked version field by outcome (match, mismatch, fixed, ...).
	IncFieldOutcome(outcome string)
	IncFilesWritten(n int)
	ObserveRunDuration(mode string, d time.Duration)
	IncRunOutcome(mode string, outcome RunOutcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncFieldOutcome(string)                     {}
func (NoopRecorder) IncFilesWritten(int)                        {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)   {}
func (NoopRecorder) IncRunOutcome(string, RunOutcome)           {}
