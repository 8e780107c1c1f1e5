package versioning

import (
	"fmt"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
)

// Checker applies one target version in one mode.
type Checker struct {
	Target Target
	Mode   Mode
	// SharedVersion is set once the workspace root was found to declare
	// [workspace.package].version.
	SharedVersion bool
}

// Check reads the value at loc and compares it. A missing key is a MissingField error;
// callers that tolerate absence must test for it first.
func (c Checker) Check(loc Location) (Result, error) {
	raw, ok := loc.Doc.Get(loc.Path...)
	if !ok {
		return Result{}, errors.MissingField(loc.File(), loc.Field())
	}
	return c.apply(loc, Classify(raw))
}

func (c Checker) apply(loc Location, field Field) (Result, error) {
	res := Result{Location: loc, Field: field, Want: c.Target}

	switch field.Shape {
	case ShapeLiteral:
		switch {
		case field.Value == string(c.Target):
			res.Outcome = OutcomeMatch
		case c.Mode == ModeUpdate:
			if err := loc.Doc.SetString(string(c.Target), loc.Path...); err != nil {
				return res, err
			}
			res.Outcome = OutcomeFixed
		default:
			res.Outcome = OutcomeMismatch
		}
	case ShapeInherit:
		// The shared version is checked first in the same pass, so the member
		// already agrees with it.
		if c.SharedVersion {
			res.Outcome = OutcomeInherited
		} else {
			res.Outcome = OutcomeInheritedUnset
		}
	default:
		return res, errors.SchemaMismatch(loc.File(), loc.Field(),
			fmt.Sprintf("must be a string or { workspace = true }, found %s", field.Type))
	}

	return res, nil
}
