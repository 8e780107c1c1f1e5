package versionsync

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/metrics"
	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
)

// copyFixture copies testdata/<name> into a fresh temporary directory.
func copyFixture(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS(filepath.Join("testdata", name))))
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	require.NoError(t, filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = readFile(t, path)
		return nil
	}))
	return files
}

type recordingObserver struct {
	events   []string
	finished *Summary
}

func (r *recordingObserver) FieldChecked(res versioning.Result) {
	r.events = append(r.events, fmt.Sprintf("field %s %s", res.Location, res.Outcome))
}
func (r *recordingObserver) FileUpdated(path string) {
	r.events = append(r.events, "updated "+path)
}
func (r *recordingObserver) FileNeedsUpdate(path string) {
	r.events = append(r.events, "needs "+path)
}
func (r *recordingObserver) Finished(s *Summary) { r.finished = s }

func run(t *testing.T, dir, target string, mode versioning.Mode, mutate ...func(*Options)) (*Summary, *recordingObserver, error) {
	t.Helper()
	tgt, err := versioning.ParseTarget(target)
	require.NoError(t, err)
	obs := &recordingObserver{}
	opts := Options{RootDir: dir, Target: tgt, Mode: mode, Observer: obs}
	for _, m := range mutate {
		m(&opts)
	}
	sum, err := NewOrchestrator(opts).Run()
	return sum, obs, err
}

func TestRun_UpdateRewritesAllOccurrences(t *testing.T) {
	dir := copyFixture(t, "scenario")
	before := snapshot(t, dir)

	sum, obs, err := run(t, dir, "0.2.0", versioning.ModeUpdate)
	require.NoError(t, err)

	golden := filepath.Join("testdata", "golden", "scenario")
	require.Equal(t, readFile(t, filepath.Join(golden, "a", "Cargo.toml")), readFile(t, filepath.Join(dir, "a", "Cargo.toml")))
	require.Equal(t, readFile(t, filepath.Join(golden, "b", "Cargo.toml")), readFile(t, filepath.Join(dir, "b", "Cargo.toml")))
	require.Equal(t, before["Cargo.toml"], readFile(t, filepath.Join(dir, "Cargo.toml")))

	require.Equal(t, 3, sum.Mismatches)
	require.Equal(t, 3, sum.FieldsChecked)
	require.False(t, sum.RootChanged)
	require.Equal(t, []string{"a", "b"}, sum.ChangedMembers)
	require.Equal(t, []string{
		filepath.Join(dir, "a", "Cargo.toml"),
		filepath.Join(dir, "b", "Cargo.toml"),
	}, sum.FilesWritten)
	require.NotEmpty(t, sum.RunID)
	require.Same(t, sum, obs.finished)

	require.Equal(t, []string{
		fmt.Sprintf("field %s (package.version) fixed", filepath.Join(dir, "a", "Cargo.toml")),
		fmt.Sprintf("field %s (package.version) fixed", filepath.Join(dir, "b", "Cargo.toml")),
		fmt.Sprintf("field %s (dependencies.a.version) fixed", filepath.Join(dir, "b", "Cargo.toml")),
		"updated " + filepath.Join(dir, "a", "Cargo.toml"),
		"updated " + filepath.Join(dir, "b", "Cargo.toml"),
	}, obs.events)
}

func TestRun_CheckReportsMismatchesAndWritesNothing(t *testing.T) {
	dir := copyFixture(t, "scenario")
	before := snapshot(t, dir)

	sum, obs, err := run(t, dir, "0.2.0", versioning.ModeCheck)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryMismatch))
	require.Contains(t, err.Error(), "3 version fields")

	require.NotNil(t, sum)
	require.Equal(t, 3, sum.Mismatches)
	require.Empty(t, sum.FilesWritten)
	require.Equal(t, []string{"a", "b"}, sum.ChangedMembers)
	require.Equal(t, before, snapshot(t, dir))

	require.Contains(t, obs.events, "needs "+filepath.Join(dir, "a", "Cargo.toml"))
	require.Contains(t, obs.events, "needs "+filepath.Join(dir, "b", "Cargo.toml"))
	require.NotNil(t, obs.finished)
}

func TestRun_CheckCleanWorkspaceSucceeds(t *testing.T) {
	dir := copyFixture(t, "scenario")
	_, _, err := run(t, dir, "0.2.0", versioning.ModeUpdate)
	require.NoError(t, err)
	before := snapshot(t, dir)

	sum, obs, err := run(t, dir, "0.2.0", versioning.ModeCheck)
	require.NoError(t, err)
	require.Zero(t, sum.Mismatches)
	require.Equal(t, before, snapshot(t, dir))
	for _, e := range obs.events {
		require.NotContains(t, e, "needs ")
	}
}

func TestRun_UpdateIsIdempotent(t *testing.T) {
	dir := copyFixture(t, "scenario")
	_, _, err := run(t, dir, "0.2.0", versioning.ModeUpdate)
	require.NoError(t, err)
	first := snapshot(t, dir)

	info, err := os.Stat(filepath.Join(dir, "a", "Cargo.toml"))
	require.NoError(t, err)

	sum, _, err := run(t, dir, "0.2.0", versioning.ModeUpdate)
	require.NoError(t, err)
	require.Empty(t, sum.FilesWritten)
	require.Zero(t, sum.Mismatches)
	require.Equal(t, first, snapshot(t, dir))

	again, err := os.Stat(filepath.Join(dir, "a", "Cargo.toml"))
	require.NoError(t, err)
	require.True(t, os.SameFile(info, again))
}

func TestRun_VPrefixIsEquivalent(t *testing.T) {
	plain := copyFixture(t, "scenario")
	prefixed := copyFixture(t, "scenario")

	_, _, err := run(t, plain, "0.2.0", versioning.ModeUpdate)
	require.NoError(t, err)
	_, _, err = run(t, prefixed, "v0.2.0", versioning.ModeUpdate)
	require.NoError(t, err)

	require.Equal(t, snapshot(t, plain), snapshot(t, prefixed))

	_, _, err = run(t, plain, "v0.2.0", versioning.ModeCheck)
	require.NoError(t, err)
}

func TestRun_ExtraDependencyTables(t *testing.T) {
	dir := copyFixture(t, "scenario")
	sum, _, err := run(t, dir, "0.2.0", versioning.ModeUpdate, func(o *Options) {
		o.DependencyTables = []string{"dependencies", "dev-dependencies"}
	})
	require.NoError(t, err)
	require.Equal(t, 4, sum.Mismatches)

	b := readFile(t, filepath.Join(dir, "b", "Cargo.toml"))
	require.Contains(t, b, "[dev-dependencies]\na = { path = \"../a\", version = \"0.2.0\" }\n")
	require.Contains(t, b, "c = { version = \"0.1.0\" } # not a member\n")
	require.Contains(t, b, "a-macros = \"0.1.0\"\n")
}

func TestRun_SharedVersionAndInheritance(t *testing.T) {
	dir := copyFixture(t, "shared")
	before := snapshot(t, dir)

	sum, obs, err := run(t, dir, "0.3.0", versioning.ModeUpdate)
	require.NoError(t, err)
	require.True(t, sum.RootChanged)
	require.Equal(t, []string{"y"}, sum.ChangedMembers)
	// The root is always written last.
	require.Equal(t, []string{
		filepath.Join(dir, "y", "Cargo.toml"),
		filepath.Join(dir, "Cargo.toml"),
	}, sum.FilesWritten)

	require.Equal(t, before["x/Cargo.toml"], readFile(t, filepath.Join(dir, "x", "Cargo.toml")))
	require.Contains(t, readFile(t, filepath.Join(dir, "y", "Cargo.toml")), "[dependencies.x]\npath = \"../x\"\nversion = \"0.3.0\"\n")

	root := readFile(t, filepath.Join(dir, "Cargo.toml"))
	require.Contains(t, root, "[workspace.package]\nversion = \"0.3.0\"\n")
	// Workspace dependency pins are opt-in.
	require.Contains(t, root, "x = { path = \"x\", version = \"0.1.0\" }")

	require.Contains(t, obs.events, fmt.Sprintf("field %s (package.version) inherited", filepath.Join(dir, "x", "Cargo.toml")))
}

func TestRun_WorkspaceDependencies(t *testing.T) {
	dir := copyFixture(t, "shared")
	sum, _, err := run(t, dir, "0.3.0", versioning.ModeUpdate, func(o *Options) {
		o.WorkspaceDependencies = true
	})
	require.NoError(t, err)
	require.Equal(t, 3, sum.Mismatches)
	require.Contains(t, readFile(t, filepath.Join(dir, "Cargo.toml")), "x = { path = \"x\", version = \"0.3.0\" }")
}

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func TestRun_InheritWithoutSharedVersionIsTolerated(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"Cargo.toml":   "[workspace]\nmembers = [\"a\"]\n",
		"a/Cargo.toml": "[package]\nname = \"a\"\nversion.workspace = true\n",
	})
	before := snapshot(t, dir)

	for _, mode := range []versioning.Mode{versioning.ModeCheck, versioning.ModeUpdate} {
		sum, obs, err := run(t, dir, "1.0.0", mode)
		require.NoError(t, err)
		require.Zero(t, sum.Mismatches)
		require.Equal(t, []string{fmt.Sprintf("field %s (package.version) inherited_unset", filepath.Join(dir, "a", "Cargo.toml"))}, obs.events)
	}
	require.Equal(t, before, snapshot(t, dir))
}

func TestRun_FailsFastWithoutPartialWrites(t *testing.T) {
	tests := []struct {
		name     string
		broken   string
		category errors.ErrorCategory
		contains string
	}{
		{"no package", "[lib]\nname = \"z\"\n", errors.CategorySection, "no [package] section in"},
		{"no version", "[package]\nname = \"z\"\n", errors.CategoryField, "no package.version in"},
		{"bad version type", "[package]\nname = \"z\"\nversion = 1\n", errors.CategorySchema, "found integer"},
		{"bad dependency version", "[package]\nname = \"z\"\nversion = \"0.1.0\"\n[dependencies]\na = { version = false }\n", errors.CategorySchema, "dependencies.a.version"},
		{"syntax", "[package\n", errors.CategorySchema, "can't parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeWorkspace(t, map[string]string{
				"Cargo.toml":   "[workspace]\nmembers = [\"a\", \"z\"]\n[workspace.package]\nversion = \"0.1.0\"\n",
				"a/Cargo.toml": "[package]\nname = \"a\"\nversion = \"0.1.0\"\n",
				"z/Cargo.toml": tt.broken,
			})
			before := snapshot(t, dir)

			sum, _, err := run(t, dir, "0.2.0", versioning.ModeUpdate)
			require.Error(t, err)
			require.Nil(t, sum)
			require.True(t, errors.IsCategory(err, tt.category), "got %v", err)
			require.Contains(t, err.Error(), tt.contains)
			require.Contains(t, err.Error(), filepath.Join(dir, "z", "Cargo.toml"))
			require.Equal(t, before, snapshot(t, dir))
		})
	}
}

func TestRun_MissingMemberManifest(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"Cargo.toml": "[workspace]\nmembers = [\"gone\"]\n",
	})
	_, _, err := run(t, dir, "0.2.0", versioning.ModeCheck)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryFileSystem))
	require.Contains(t, err.Error(), filepath.Join(dir, "gone", "Cargo.toml"))
}

func TestRun_RootIsAlsoAMember(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"Cargo.toml": `[package]
name = "root"
version = "0.1.0"

[workspace]
members = [".", "a", "./a"]

[workspace.package]
version = "0.1.0"

[dependencies]
a = { path = "a", version = "0.1.0" }
`,
		"a/Cargo.toml": "[package]\nname = \"a\"\nversion.workspace = true\n",
	})

	sum, _, err := run(t, dir, "0.2.0", versioning.ModeUpdate)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "Cargo.toml")}, sum.FilesWritten)
	require.Equal(t, 3, sum.Mismatches)
	require.Equal(t, `[package]
name = "root"
version = "0.2.0"

[workspace]
members = [".", "a", "./a"]

[workspace.package]
version = "0.2.0"

[dependencies]
a = { path = "a", version = "0.2.0" }
`, readFile(t, filepath.Join(dir, "Cargo.toml")))
}

type fakeGuard struct {
	paths []string
	err   error
}

func (g *fakeGuard) EnsureClean(paths []string) error {
	g.paths = paths
	return g.err
}

func TestRun_Guard(t *testing.T) {
	t.Run("blocks update", func(t *testing.T) {
		dir := copyFixture(t, "scenario")
		before := snapshot(t, dir)
		guard := &fakeGuard{err: errors.DirtyWorktree([]string{"a/Cargo.toml"})}

		_, _, err := run(t, dir, "0.2.0", versioning.ModeUpdate, func(o *Options) { o.Guard = guard })
		require.Error(t, err)
		require.True(t, errors.IsCategory(err, errors.CategoryGit))
		require.Equal(t, before, snapshot(t, dir))
		require.Equal(t, []string{
			filepath.Join(dir, "Cargo.toml"),
			filepath.Join(dir, "a", "Cargo.toml"),
			filepath.Join(dir, "b", "Cargo.toml"),
		}, guard.paths)
	})

	t.Run("not consulted in check mode", func(t *testing.T) {
		dir := copyFixture(t, "scenario")
		guard := &fakeGuard{err: errors.DirtyWorktree(nil)}
		_, _, err := run(t, dir, "0.1.0", versioning.ModeCheck, func(o *Options) { o.Guard = guard })
		require.NoError(t, err)
		require.Nil(t, guard.paths)
	})
}

type countingRecorder struct {
	fields  map[string]int
	written int
	runs    map[metrics.RunOutcome]int
}

func (c *countingRecorder) IncFieldOutcome(o string)                  { c.fields[o]++ }
func (c *countingRecorder) IncFilesWritten(n int)                     { c.written += n }
func (c *countingRecorder) ObserveRunDuration(string, time.Duration)  {}
func (c *countingRecorder) IncRunOutcome(_ string, o metrics.RunOutcome) { c.runs[o]++ }

func TestRun_RecordsMetrics(t *testing.T) {
	dir := copyFixture(t, "scenario")
	rec := &countingRecorder{fields: map[string]int{}, runs: map[metrics.RunOutcome]int{}}
	withRecorder := func(o *Options) { o.Recorder = rec }

	_, _, err := run(t, dir, "0.2.0", versioning.ModeCheck, withRecorder)
	require.Error(t, err)
	_, _, err = run(t, dir, "0.2.0", versioning.ModeUpdate, withRecorder)
	require.NoError(t, err)

	require.Equal(t, 3, rec.fields["mismatch"])
	require.Equal(t, 3, rec.fields["fixed"])
	require.Equal(t, 2, rec.written)
	require.Equal(t, 1, rec.runs[metrics.RunMismatch])
	require.Equal(t, 1, rec.runs[metrics.RunSuccess])
}
