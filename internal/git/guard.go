package git

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
	"github.com/ava-labs/cargo-workspace-version/internal/logfields"
)

// CleanGuard checks manifests against the worktree containing dir.
type CleanGuard struct {
	dir string
}

func NewCleanGuard(dir string) *CleanGuard {
	return &CleanGuard{dir: dir}
}

// EnsureClean fails when any of paths is modified, staged or untracked. Paths outside
// the worktree are ignored.
func (g *CleanGuard) EnsureClean(paths []string) error {
	dir, err := filepath.Abs(g.dir)
	if err != nil {
		return errors.GitError("open", err)
	}
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return errors.GitError("open", err).WithContext(logfields.KeyPath, dir)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.GitError("worktree", err)
	}
	status, err := wt.Status()
	if err != nil {
		return errors.GitError("status", err)
	}

	top, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return errors.GitError("worktree", err)
	}

	var dirty []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.GitError("status", err)
		}
		rel, err := filepath.Rel(top, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			slog.Debug("Manifest outside worktree, not guarded", logfields.Path(p))
			continue
		}
		st, ok := status[filepath.ToSlash(rel)]
		if !ok {
			continue
		}
		if st.Worktree != gogit.Unmodified || st.Staging != gogit.Unmodified {
			dirty = append(dirty, p)
		}
	}

	if len(dirty) > 0 {
		sort.Strings(dirty)
		return errors.DirtyWorktree(dirty)
	}
	return nil
}
