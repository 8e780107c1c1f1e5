// Package versioning compares version-bearing manifest fields against a requested
// target version and rewrites them in update mode.
package versioning

import (
	"fmt"
	"strings"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/manifest"
)

// Target is the requested version with at most one leading "v" removed.
type Target string

// ParseTarget canonicalizes a version argument. Only a single leading "v" is stripped;
// the remainder is compared textually and never validated as semver.
func ParseTarget(raw string) (Target, error) {
	v := strings.TrimPrefix(raw, "v")
	if v == "" {
		return "", errors.InvalidArgument(fmt.Sprintf("invalid version %q: nothing left after the optional leading v", raw))
	}
	return Target(v), nil
}

func (t Target) String() string { return string(t) }

// Mode selects between verifying and rewriting.
type Mode int

const (
	ModeCheck Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "check"
}

// Shape tags the forms a version-bearing value can take.
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeLiteral
	ShapeInherit // { workspace = true }
)

// Field is a classified version value.
type Field struct {
	Shape Shape
	Value string // set for ShapeLiteral
	Type  string // TOML type of the stored value
}

// Classify inspects a decoded value. A table is an inheritance marker only when its
// workspace key is the boolean true; every other non-string is invalid.
func Classify(raw any) Field {
	switch v := raw.(type) {
	case string:
		return Field{Shape: ShapeLiteral, Value: v, Type: "string"}
	case map[string]any:
		if inherit, ok := v["workspace"].(bool); ok && inherit {
			return Field{Shape: ShapeInherit, Type: "table"}
		}
	}
	return Field{Shape: ShapeInvalid, Type: manifest.TypeName(raw)}
}

// Location names one version-bearing key in a document.
type Location struct {
	Doc  *manifest.Document
	Path []string
}

func (l Location) File() string  { return l.Doc.Path() }
func (l Location) Field() string { return manifest.DottedPath(l.Path) }

func (l Location) String() string {
	return fmt.Sprintf("%s (%s)", l.File(), l.Field())
}

// Outcome is what checking one field produced.
type Outcome int

const (
	OutcomeMatch          Outcome = iota
	OutcomeMismatch               // differs, left untouched (check mode)
	OutcomeFixed                  // differed, rewritten (update mode)
	OutcomeInherited              // marker, workspace declares a shared version
	OutcomeInheritedUnset         // marker, workspace declares none; tolerated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "match"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeFixed:
		return "fixed"
	case OutcomeInherited:
		return "inherited"
	case OutcomeInheritedUnset:
		return "inherited_unset"
	default:
		return "unknown"
	}
}

// Result records one checked field.
type Result struct {
	Location Location
	Field    Field
	Want     Target
	Outcome  Outcome
}

// Mismatched reports whether the stored value differed from the target.
func (r Result) Mismatched() bool {
	return r.Outcome == OutcomeMismatch || r.Outcome == OutcomeFixed
}

// Changed reports whether the document was modified.
func (r Result) Changed() bool {
	return r.Outcome == OutcomeFixed
}
