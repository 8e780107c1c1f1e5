package versionsync

import (
	"log/slog"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/logfields"
	"github.com/ava-labs/cargo-workspace-version/internal/manifest"
	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
)

var packageVersionPath = []string{"package", "version"}

// Membership decides which dependency keys are internal.
type Membership interface {
	IsMember(name string) bool
}

// Processor checks one member manifest at a time.
type Processor struct {
	Checker    versioning.Checker
	Membership Membership
	// Tables lists the dependency tables to scan, e.g. "dependencies".
	Tables []string
	// OnResult, when set, is called for every checked field in document order.
	OnResult func(versioning.Result)
}

// Process checks the package version of doc and every internal dependency pin in the
// configured tables. It returns the results in the order they were checked.
func (p *Processor) Process(doc *manifest.Document) ([]versioning.Result, error) {
	if _, ok := doc.Table("package"); !ok {
		return nil, errors.MissingSection(doc.Path(), "package")
	}
	if _, ok := doc.Get(packageVersionPath...); !ok {
		return nil, errors.MissingField(doc.Path(), manifest.DottedPath(packageVersionPath))
	}

	var results []versioning.Result
	res, err := p.Checker.Check(versioning.Location{Doc: doc, Path: packageVersionPath})
	if err != nil {
		return nil, err
	}
	results = append(results, p.emit(res))

	for _, table := range p.Tables {
		deps, err := p.ProcessDependencies(doc, table)
		if err != nil {
			return nil, err
		}
		results = append(results, deps...)
	}
	return results, nil
}

// ProcessDependencies checks the pins on fellow members inside one dependency table.
// The table path may be nested, e.g. "workspace", "dependencies".
func (p *Processor) ProcessDependencies(doc *manifest.Document, table ...string) ([]versioning.Result, error) {
	deps, ok := doc.Table(table...)
	if !ok {
		return nil, nil
	}

	var results []versioning.Result
	for _, name := range doc.Keys(table...) {
		if !p.Membership.IsMember(name) {
			continue
		}
		// Bare "name = version" entries are left to the operator.
		entry, ok := deps[name].(map[string]any)
		if !ok {
			slog.Debug("Skipping shorthand dependency",
				logfields.Manifest(doc.Path()), logfields.Member(name))
			continue
		}
		if _, ok := entry["version"]; !ok {
			continue
		}

		path := append(append(make([]string, 0, len(table)+2), table...), name, "version")
		res, err := p.Checker.Check(versioning.Location{Doc: doc, Path: path})
		if err != nil {
			return nil, err
		}
		results = append(results, p.emit(res))
	}
	return results, nil
}

func (p *Processor) emit(res versioning.Result) versioning.Result {
	slog.Debug("Checked version field",
		logfields.Manifest(res.Location.File()),
		logfields.Field(res.Location.Field()),
		logfields.Outcome(res.Outcome.String()))
	if p.OnResult != nil {
		p.OnResult(res)
	}
	return res
}
