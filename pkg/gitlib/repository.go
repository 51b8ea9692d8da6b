package gitlib

import (
	"errors"
	"fmt"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// allRefsGlob matches every reference under refs/, like git log --all.
const allRefsGlob = "*"

// ErrNoCommits is returned by Log when no starting point could be pushed.
var ErrNoCommits = errors.New("repository has no commits")

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// LogOptions configures commit iteration.
type LogOptions struct {
	Since *time.Time // Drop commits committed before this instant.
	Until *time.Time // Drop commits committed after this instant.
	All   bool       // Walk every ref, not only HEAD.
}

// Log returns commits newest first, filtered by committer time.
func (r *Repository) Log(opts LogOptions) (*CommitIter, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	walk.Sorting(git2go.SortTime)

	pushed := walk.PushHead() == nil

	if opts.All && walk.PushGlob(allRefsGlob) == nil {
		pushed = true
	}

	if !pushed {
		walk.Free()

		return nil, ErrNoCommits
	}

	return &CommitIter{walk: walk, repo: r, since: opts.Since, until: opts.Until}, nil
}

// DiffTreeToTree computes the diff between two trees with rename detection,
// as git log does by default. A nil oldTree diffs against the empty tree.
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree) (*Diff, error) {
	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	var oldT, newT *git2go.Tree
	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	findOpts, err := git2go.DefaultDiffFindOptions()
	if err != nil {
		_ = diff.Free()

		return nil, fmt.Errorf("get diff find options: %w", err)
	}

	findOpts.Flags = git2go.DiffFindRenames

	err = diff.FindSimilar(&findOpts)
	if err != nil {
		_ = diff.Free()

		return nil, fmt.Errorf("detect renames: %w", err)
	}

	return &Diff{diff: diff}, nil
}
