package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/logfields"
	"github.com/ava-labs/cargo-workspace-version/internal/manifest"
	"github.com/ava-labs/cargo-workspace-version/internal/util/sets"
	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
)

// DefaultManifestName is the conventional per-directory manifest file.
const DefaultManifestName = "Cargo.toml"

var (
	membersPath       = []string{"workspace", "members"}
	excludePath       = []string{"workspace", "exclude"}
	sharedVersionPath = []string{"workspace", "package", "version"}
)

// Options controls resolution.
type Options struct {
	// RootDir is the directory holding the root manifest. Member manifests are
	// located relative to it.
	RootDir      string
	ManifestName string
	Checker      versioning.Checker
}

// Member is one resolved workspace member.
type Member struct {
	ID           string
	ManifestPath string
}

// Workspace is the resolved view of a root manifest for one pass.
type Workspace struct {
	Root       *manifest.Document
	Members    []Member
	Membership *sets.Ordered[string]
	// SharedVersion is true when the root declares [workspace.package].version.
	SharedVersion bool
	// RootResult is the shared version check, nil without a shared version.
	RootResult *versioning.Result
}

// IsMember reports whether a dependency key names a declared member.
func (w *Workspace) IsMember(name string) bool {
	return w.Membership.Has(name)
}

// Resolve extracts membership and checks the shared version of the root document. In
// update mode a differing shared version is rewritten in root but not persisted.
func Resolve(root *manifest.Document, opts Options) (*Workspace, error) {
	if opts.ManifestName == "" {
		opts.ManifestName = DefaultManifestName
	}
	if opts.RootDir == "" {
		opts.RootDir = "."
	}

	if _, ok := root.Table("workspace"); !ok {
		return nil, errors.MissingSection(root.Path(), "workspace")
	}

	raw, ok := root.Get(membersPath...)
	if !ok {
		return nil, errors.MissingField(root.Path(), manifest.DottedPath(membersPath))
	}
	entries, err := stringList(root, membersPath, raw)
	if err != nil {
		return nil, err
	}

	var excludes []string
	if raw, ok := root.Get(excludePath...); ok {
		if excludes, err = stringList(root, excludePath, raw); err != nil {
			return nil, err
		}
	}

	membership := &sets.Ordered[string]{}
	for _, entry := range entries {
		if !isGlob(entry) {
			membership.Add(entry)
			continue
		}
		matches, err := expand(opts.RootDir, entry, opts.ManifestName)
		if err != nil {
			return nil, errors.SchemaMismatch(root.Path(), manifest.DottedPath(membersPath),
				fmt.Sprintf("has an invalid pattern %q: %v", entry, err))
		}
		for _, m := range matches {
			if excluded(m, excludes) {
				slog.Debug("Excluded workspace member", logfields.Member(m))
				continue
			}
			membership.Add(m)
		}
	}

	ws := &Workspace{Root: root, Membership: membership}
	for _, id := range membership.Items() {
		ws.Members = append(ws.Members, Member{
			ID:           id,
			ManifestPath: filepath.Join(opts.RootDir, filepath.FromSlash(id), opts.ManifestName),
		})
	}

	if raw, ok := root.Get(sharedVersionPath...); ok {
		if _, isString := raw.(string); !isString {
			return nil, errors.SchemaMismatch(root.Path(), manifest.DottedPath(sharedVersionPath),
				"must be a string, found "+manifest.TypeName(raw))
		}
		res, err := opts.Checker.Check(versioning.Location{Doc: root, Path: sharedVersionPath})
		if err != nil {
			return nil, err
		}
		ws.SharedVersion = true
		ws.RootResult = &res
	}

	slog.Debug("Resolved workspace",
		logfields.Manifest(root.Path()),
		logfields.Count(len(ws.Members)),
		slog.Bool("shared_version", ws.SharedVersion))
	return ws, nil
}

func stringList(doc *manifest.Document, at []string, raw any) ([]string, error) {
	field := manifest.DottedPath(at)
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.SchemaMismatch(doc.Path(), field, "must be an array of strings, found "+manifest.TypeName(raw))
	}
	out := make([]string, 0, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, errors.SchemaMismatch(doc.Path(), field,
				fmt.Sprintf("must be an array of strings, element %d is %s", i, manifest.TypeName(v)))
		}
		out = append(out, s)
	}
	return out, nil
}

func isGlob(entry string) bool {
	return strings.ContainsAny(entry, "*?[{")
}

// expand returns the slash-separated directories matching pattern that contain a
// manifest, sorted lexically.
func expand(rootDir, pattern, manifestName string) ([]string, error) {
	pattern = strings.TrimPrefix(path.Clean(filepath.ToSlash(pattern)), "./")
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	matches, err := doublestar.Glob(os.DirFS(rootDir), pattern)
	if err != nil {
		return nil, err
	}

	dirs := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(filepath.Join(rootDir, filepath.FromSlash(m), manifestName))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		dirs = append(dirs, m)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func excluded(member string, excludes []string) bool {
	for _, e := range excludes {
		e = strings.TrimPrefix(path.Clean(filepath.ToSlash(e)), "./")
		if member == e || strings.HasPrefix(member, e+"/") {
			return true
		}
		if ok, _ := doublestar.Match(e, member); ok {
			return true
		}
	}
	return false
}
