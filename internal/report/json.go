package report

import (
	"encoding/json"
	"io"

	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
	"github.com/ava-labs/cargo-workspace-version/internal/versionsync"
)

// JSON buffers notices and writes a single document when the pass finishes.
type JSON struct {
	w          io.Writer
	mismatches []Mismatch
	needs      []string
}

// Mismatch is one field that differed from the target.
type Mismatch struct {
	File  string `json:"file"`
	Field string `json:"field"`
	Found string `json:"found"`
	Want  string `json:"want"`
	Fixed bool   `json:"fixed"`
}

// Document is the JSON report layout.
type Document struct {
	RunID              string     `json:"run_id"`
	Mode               string     `json:"mode"`
	Target             string     `json:"target"`
	OK                 bool       `json:"ok"`
	FieldsChecked      int        `json:"fields_checked"`
	Mismatches         []Mismatch `json:"mismatches"`
	ChangedMembers     []string   `json:"changed_members"`
	FilesWritten       []string   `json:"files_written"`
	FilesNeedingUpdate []string   `json:"files_needing_update"`
	DurationMS         int64      `json:"duration_ms"`
}

// NewJSON creates a JSON observer.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (j *JSON) FieldChecked(res versioning.Result) {
	if !res.Mismatched() {
		return
	}
	j.mismatches = append(j.mismatches, Mismatch{
		File:  res.Location.File(),
		Field: res.Location.Field(),
		Found: res.Field.Value,
		Want:  res.Want.String(),
		Fixed: res.Changed(),
	})
}

func (j *JSON) FileUpdated(string) {}

func (j *JSON) FileNeedsUpdate(path string) {
	j.needs = append(j.needs, path)
}

func (j *JSON) Finished(s *versionsync.Summary) {
	doc := Document{
		RunID:              s.RunID,
		Mode:               s.Mode.String(),
		Target:             s.Target.String(),
		OK:                 s.Mode == versioning.ModeUpdate || s.Mismatches == 0,
		FieldsChecked:      s.FieldsChecked,
		Mismatches:         nonNil(j.mismatches),
		ChangedMembers:     nonNil(s.ChangedMembers),
		FilesWritten:       nonNil(s.FilesWritten),
		FilesNeedingUpdate: nonNil(j.needs),
		DurationMS:         s.Duration.Milliseconds(),
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(doc)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
