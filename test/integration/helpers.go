// Package integration runs the cargo-workspace-version CLI end to end against fixture
// workspaces and compares console output and rewritten manifests with golden files.
package integration

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/cargo-workspace-version/cmd/cargo-workspace-version/commands"
)

const (
	workspacesDir = "../testdata/workspaces"
	goldenDir     = "../testdata/golden"
	rootMarker    = "<root>"
)

// copyWorkspace copies a fixture workspace into a temporary directory.
func copyWorkspace(t *testing.T, name string) string {
	t.Helper()

	tmpDir := t.TempDir()
	err := os.CopyFS(tmpDir, os.DirFS(filepath.Join(workspacesDir, name)))
	require.NoError(t, err, "failed to copy fixture workspace")
	return tmpDir
}

// setupTestRepo copies a fixture workspace and commits it to a fresh Git repository.
func setupTestRepo(t *testing.T, name string) string {
	t.Helper()

	tmpDir := copyWorkspace(t, name)

	// Initialize git repository using go-git
	repo, err := git.PlainInit(tmpDir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	err = w.AddGlob(".")
	require.NoError(t, err, "failed to add files to git")

	_, err = w.Commit("Initial test commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to create initial commit")

	return tmpDir
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

// runCLI executes the command in-process. Occurrences of root in the output are
// replaced by a stable marker.
func runCLI(root string, args ...string) cliResult {
	var stdout, stderr bytes.Buffer
	code := commands.Execute(append([]string{"-C", root}, args...), &stdout, &stderr)
	return cliResult{
		code:   code,
		stdout: strings.ReplaceAll(stdout.String(), root, rootMarker),
		stderr: strings.ReplaceAll(stderr.String(), root, rootMarker),
	}
}

// verifyGoldenText compares actual with a golden file, rewriting it when update is set.
func verifyGoldenText(t *testing.T, goldenPath, actual string, update bool) {
	t.Helper()

	if update {
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o750), "failed to create golden directory")
		require.NoError(t, os.WriteFile(goldenPath, []byte(actual), 0o600), "failed to write golden file")
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	// #nosec G304 -- test utility reading golden file from testdata
	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)
	require.Equal(t, string(expected), actual,
		"output doesn't match golden file: %s\nRun with -update-golden to update", goldenPath)
}

// readTree returns every regular file below dir keyed by slash-separated relative
// path. Git metadata is skipped.
func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()

	files := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		// #nosec G304 -- test utility reading from test output directory
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err, "failed to read tree %s", dir)
	return files
}

// verifyGoldenTree compares every file under actualDir with goldenPath.
func verifyGoldenTree(t *testing.T, goldenPath, actualDir string, update bool) {
	t.Helper()

	actual := readTree(t, actualDir)
	if update {
		require.NoError(t, os.RemoveAll(goldenPath))
		require.NoError(t, os.CopyFS(goldenPath, os.DirFS(actualDir)))
		require.NoError(t, os.RemoveAll(filepath.Join(goldenPath, ".git")))
		t.Logf("Updated golden tree: %s", goldenPath)
		return
	}

	require.Equal(t, readTree(t, goldenPath), actual, "workspace tree mismatch against %s", goldenPath)
}
