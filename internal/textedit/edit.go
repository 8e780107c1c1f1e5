// Package textedit applies byte-range replacements to an original source.
//
// Manifests are never re-rendered from a decoded model: every write is the original
// bytes with a set of targeted replacements, so comments, key order, whitespace and
// line endings outside the replaced ranges survive untouched.
package textedit

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlap is returned when two edits touch the same bytes.
var ErrOverlap = errors.New("overlapping edit ranges")

// Edit represents a targeted byte-range replacement.
//
// Start and End are byte offsets into the original source, with End exclusive.
// Replacement replaces source[Start:End].
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// Apply applies a set of byte-range edits to source and returns the updated content.
//
// Edits must be non-overlapping and refer to offsets in the original source. They are
// applied from the end of the source toward the beginning so earlier edits do not
// invalidate offsets for later ones. source itself is never modified.
func Apply(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start > sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < 0 {
			return nil, fmt.Errorf("invalid edit[%d]: negative range", i)
		}
		if e.End < e.Start {
			return nil, fmt.Errorf("invalid edit[%d]: end before start", i)
		}
		if e.End > len(source) {
			return nil, fmt.Errorf("invalid edit[%d]: range %d-%d out of bounds (len %d)", i, e.Start, e.End, len(source))
		}
		// Sorted by Start descending: each edit must end at or before the previous start.
		if i > 0 && e.End > sorted[i-1].Start {
			return nil, ErrOverlap
		}
	}

	out := append([]byte(nil), source...)
	for _, e := range sorted {
		next := make([]byte, 0, len(out)-(e.End-e.Start)+len(e.Replacement))
		next = append(next, out[:e.Start]...)
		next = append(next, e.Replacement...)
		next = append(next, out[e.End:]...)
		out = next
	}

	return out, nil
}
