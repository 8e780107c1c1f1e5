// Package git guards update runs against clobbering uncommitted work: before any
// manifest is rewritten, the files about to be touched must be unmodified in the
// enclosing Git worktree.
package git
