package versionsync

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/logfields"
	"github.com/ava-labs/cargo-workspace-version/internal/manifest"
	"github.com/ava-labs/cargo-workspace-version/internal/metrics"
	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
	"github.com/ava-labs/cargo-workspace-version/internal/workspace"
)

// Observer receives notices as the pass progresses.
type Observer interface {
	// FieldChecked is called for every version field, matching or not.
	FieldChecked(res versioning.Result)
	// FileUpdated is called after a changed manifest was written.
	FileUpdated(path string)
	// FileNeedsUpdate is called in check mode for each manifest with mismatches.
	FileNeedsUpdate(path string)
	// Finished is called once the pass completed without a structural error.
	Finished(summary *Summary)
}

// Guard vets the manifests an update is about to rewrite.
type Guard interface {
	EnsureClean(paths []string) error
}

// Options configures an Orchestrator.
type Options struct {
	RootDir      string
	ManifestName string
	// DependencyTables defaults to "dependencies".
	DependencyTables []string
	// WorkspaceDependencies also syncs member pins in the root's [workspace.dependencies].
	WorkspaceDependencies bool

	Target versioning.Target
	Mode   versioning.Mode

	Observer Observer
	Guard    Guard // update mode only; nil disables
	Recorder metrics.Recorder
}

// Summary is the aggregate of one pass.
type Summary struct {
	RunID          string
	Mode           versioning.Mode
	Target         versioning.Target
	RootChanged    bool
	ChangedMembers []string
	FieldsChecked  int
	// Mismatches counts fields that differed from the target, fixed or not.
	Mismatches   int
	FilesWritten []string
	Duration     time.Duration
}

// Orchestrator runs one synchronization pass.
type Orchestrator struct {
	opts     Options
	recorder metrics.Recorder

	docs       map[string]*manifest.Document
	mismatched map[*manifest.Document]bool
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.RootDir == "" {
		opts.RootDir = "."
	}
	if opts.ManifestName == "" {
		opts.ManifestName = workspace.DefaultManifestName
	}
	if opts.DependencyTables == nil {
		opts.DependencyTables = []string{"dependencies"}
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Orchestrator{opts: opts, recorder: rec}
}

// Run performs the pass. In check mode a pass that found mismatches returns the summary
// together with an AggregateMismatch error; every notice has been emitted by then.
func (o *Orchestrator) Run() (*Summary, error) {
	start := time.Now()
	o.docs = make(map[string]*manifest.Document)
	o.mismatched = make(map[*manifest.Document]bool)
	sum := &Summary{
		RunID:  uuid.NewString(),
		Mode:   o.opts.Mode,
		Target: o.opts.Target,
	}
	logger := slog.With(logfields.RunID(sum.RunID), logfields.Mode(sum.Mode.String()), logfields.Target(sum.Target.String()))

	err := o.run(sum, logger)
	sum.Duration = time.Since(start)

	outcome := metrics.RunSuccess
	switch {
	case errors.IsCategory(err, errors.CategoryMismatch):
		outcome = metrics.RunMismatch
	case err != nil:
		outcome = metrics.RunFailed
		logger.Debug("Run aborted", logfields.Error(err))
	}
	o.recorder.ObserveRunDuration(sum.Mode.String(), sum.Duration)
	o.recorder.IncRunOutcome(sum.Mode.String(), outcome)

	if err != nil && outcome == metrics.RunFailed {
		return nil, err
	}
	return sum, err
}

func (o *Orchestrator) run(sum *Summary, logger *slog.Logger) error {
	root, err := o.load(filepath.Join(o.opts.RootDir, o.opts.ManifestName))
	if err != nil {
		return err
	}

	checker := versioning.Checker{Target: o.opts.Target, Mode: o.opts.Mode}
	ws, err := workspace.Resolve(root, workspace.Options{
		RootDir:      o.opts.RootDir,
		ManifestName: o.opts.ManifestName,
		Checker:      checker,
	})
	if err != nil {
		return err
	}
	checker.SharedVersion = ws.SharedVersion

	if o.opts.Mode == versioning.ModeUpdate && o.opts.Guard != nil {
		paths := []string{root.Path()}
		for _, m := range ws.Members {
			paths = append(paths, m.ManifestPath)
		}
		if err := o.opts.Guard.EnsureClean(paths); err != nil {
			return err
		}
	}
	if ws.RootResult != nil {
		o.record(sum, *ws.RootResult)
	}

	proc := &Processor{
		Checker:    checker,
		Membership: ws,
		Tables:     o.opts.DependencyTables,
		OnResult:   func(res versioning.Result) { o.record(sum, res) },
	}

	if o.opts.WorkspaceDependencies {
		if _, err := proc.ProcessDependencies(root, "workspace", "dependencies"); err != nil {
			return err
		}
	}

	// Members sharing a manifest (duplicates spelled differently) are processed once.
	processed := make(map[*manifest.Document]bool)
	var changed []*manifest.Document

	for _, member := range ws.Members {
		doc, err := o.load(member.ManifestPath)
		if err != nil {
			return err
		}
		if processed[doc] {
			logger.Debug("Member manifest already processed", logfields.Member(member.ID), logfields.Manifest(doc.Path()))
			continue
		}
		processed[doc] = true

		if _, err := proc.Process(doc); err != nil {
			return err
		}

		if doc == root {
			continue
		}
		if o.mismatched[doc] {
			sum.ChangedMembers = append(sum.ChangedMembers, member.ID)
			if o.opts.Mode == versioning.ModeCheck {
				o.opts.Observer.FileNeedsUpdate(doc.Path())
			}
		}
		if doc.Changed() {
			changed = append(changed, doc)
		}
	}

	sum.RootChanged = o.mismatched[root]
	if o.opts.Mode == versioning.ModeCheck {
		if sum.RootChanged {
			o.opts.Observer.FileNeedsUpdate(root.Path())
		}
		o.opts.Observer.Finished(sum)
		if sum.Mismatches > 0 {
			return errors.AggregateMismatch(sum.Mismatches)
		}
		return nil
	}

	// Every member succeeded; only now is anything written. The root goes last.
	if root.Changed() {
		changed = append(changed, root)
	}
	for _, doc := range changed {
		if err := doc.Save(); err != nil {
			return err
		}
		sum.FilesWritten = append(sum.FilesWritten, doc.Path())
		o.recorder.IncFilesWritten(1)
		logger.Info("Wrote manifest", logfields.Manifest(doc.Path()))
		o.opts.Observer.FileUpdated(doc.Path())
	}
	o.opts.Observer.Finished(sum)
	return nil
}

// load returns the document for path, reading it at most once per pass.
func (o *Orchestrator) load(path string) (*manifest.Document, error) {
	key := filepath.Clean(path)
	if doc, ok := o.docs[key]; ok {
		return doc, nil
	}
	doc, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	o.docs[key] = doc
	return doc, nil
}

func (o *Orchestrator) record(sum *Summary, res versioning.Result) {
	sum.FieldsChecked++
	if res.Mismatched() {
		sum.Mismatches++
		o.mismatched[res.Location.Doc] = true
	}
	o.recorder.IncFieldOutcome(res.Outcome.String())
	o.opts.Observer.FieldChecked(res)
}

type nopObserver struct{}

func (nopObserver) FieldChecked(versioning.Result) {}
func (nopObserver) FileUpdated(string)             {}
func (nopObserver) FileNeedsUpdate(string)         {}
func (nopObserver) Finished(*Summary)              {}
