package manifest

import (
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/textedit"
)

// Document is one parsed manifest file.
type Document struct {
	path  string
	mode  os.FileMode
	src   []byte
	tree  map[string]any
	meta  toml.MetaData
	spans map[string]span
	edits map[string]textedit.Edit
}

// Load reads and parses the manifest at path.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.ReadFailed(path, err)
	}
	// #nosec G304 -- manifest paths come from the workspace root and its member list.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ReadFailed(path, err)
	}

	doc, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	doc.mode = info.Mode().Perm()
	return doc, nil
}

// Parse parses manifest bytes. path is only used for messages and Save.
func Parse(path string, data []byte) (*Document, error) {
	var tree map[string]any
	meta, err := toml.Decode(string(data), &tree)
	if err != nil {
		var perr toml.ParseError
		if stdErrors.As(err, &perr) {
			return nil, errors.ParseFailed(path, fmt.Errorf("line %d: %s", perr.Position.Line, perr.Message))
		}
		return nil, errors.ParseFailed(path, err)
	}
	if tree == nil {
		tree = map[string]any{}
	}

	spans, err := indexStrings(data)
	if err != nil {
		return nil, errors.ParseFailed(path, err)
	}

	return &Document{
		path:  path,
		mode:  0o644,
		src:   data,
		tree:  tree,
		meta:  meta,
		spans: spans,
		edits: make(map[string]textedit.Edit),
	}, nil
}

// Path returns the file path the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// Original returns a copy of the bytes the document was parsed from.
func (d *Document) Original() []byte {
	return append([]byte(nil), d.src...)
}

// Get returns the decoded value at path. Values inside arrays are not addressable.
func (d *Document) Get(path ...string) (any, bool) {
	var cur any = d.tree
	for _, key := range path {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = table[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Table returns the table at path, if the value there is a table.
func (d *Document) Table(path ...string) (map[string]any, bool) {
	v, ok := d.Get(path...)
	if !ok {
		return nil, false
	}
	table, ok := v.(map[string]any)
	return table, ok
}

// Keys returns the keys of the table at path in document order.
func (d *Document) Keys(path ...string) []string {
	table, ok := d.Table(path...)
	if !ok {
		return nil
	}

	seen := make(map[string]bool, len(table))
	keys := make([]string, 0, len(table))
	for _, k := range d.meta.Keys() {
		if len(k) <= len(path) || !hasPrefix(k, path) {
			continue
		}
		name := k[len(path)]
		if _, ok := table[name]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		keys = append(keys, name)
	}

	// Anything the metadata did not report keeps a stable order at the end.
	var rest []string
	for name := range table {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Editable reports whether the string at path can be rewritten in place.
func (d *Document) Editable(path ...string) bool {
	_, ok := d.spans[joinPath(path)]
	return ok
}

// SetString replaces the string scalar at path with value, keeping the original quote
// style where the value allows it. Setting a path again replaces the earlier edit;
// setting it back to its original text drops the edit.
func (d *Document) SetString(value string, path ...string) error {
	key := joinPath(path)
	sp, ok := d.spans[key]
	if !ok {
		return errors.SchemaMismatch(d.path, DottedPath(path), "is not an editable string")
	}

	raw := d.src[sp.start:sp.end]
	replacement, err := requote(raw, value)
	if err != nil {
		return errors.SchemaMismatch(d.path, DottedPath(path), err.Error())
	}

	if string(replacement) == string(raw) {
		delete(d.edits, key)
	} else {
		d.edits[key] = textedit.Edit{Start: sp.start, End: sp.end, Replacement: replacement}
	}
	setValue(d.tree, path, value)
	return nil
}

// Changed reports whether any scalar has a pending edit.
func (d *Document) Changed() bool {
	return len(d.edits) > 0
}

// Bytes returns the original bytes with all pending edits applied.
func (d *Document) Bytes() ([]byte, error) {
	edits := make([]textedit.Edit, 0, len(d.edits))
	for _, e := range d.edits {
		edits = append(edits, e)
	}
	out, err := textedit.Apply(d.src, edits)
	if err != nil {
		return nil, errors.InternalError(fmt.Sprintf("can't apply edits to %s", d.path), err)
	}
	return out, nil
}

// Save writes the edited document back to its path. It is a no-op when nothing
// changed. The file is replaced atomically and keeps its permissions.
func (d *Document) Save() error {
	if !d.Changed() {
		return nil
	}

	data, err := d.Bytes()
	if err != nil {
		return err
	}

	if err := writeFileAtomic(d.path, data, d.mode); err != nil {
		return errors.WriteFailed(d.path, err)
	}

	spans, err := indexStrings(data)
	if err != nil {
		return errors.InternalError(fmt.Sprintf("can't re-index %s after write", d.path), err)
	}
	d.src = data
	d.spans = spans
	d.edits = make(map[string]textedit.Edit)
	return nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		// Only left behind when something below failed.
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func setValue(tree map[string]any, path []string, value any) {
	cur := tree
	for i, key := range path {
		if i == len(path)-1 {
			cur[key] = value
			return
		}
		next, ok := cur[key].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
}

func hasPrefix(key toml.Key, prefix []string) bool {
	for i, p := range prefix {
		if key[i] != p {
			return false
		}
	}
	return true
}
