package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}

// FileStat is the numstat of one file in a diff.
type FileStat struct {
	Path       string
	Insertions int
	Deletions  int
	Binary     bool
}

// Diff wraps a libgit2 diff.
type Diff struct {
	diff *git2go.Diff
}

// FileStats counts added and deleted lines per delta. Binary deltas carry
// no line counts.
func (d *Diff) FileStats() ([]FileStat, error) {
	var stats []FileStat

	err := d.diff.ForEach(func(delta git2go.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		path := delta.NewFile.Path
		if path == "" {
			path = delta.OldFile.Path
		}

		stats = append(stats, FileStat{
			Path:   path,
			Binary: delta.Flags&git2go.DiffFlagBinary != 0,
		})
		idx := len(stats) - 1

		return func(_ git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			return func(line git2go.DiffLine) error {
				switch line.Origin {
				case git2go.DiffLineAddition:
					stats[idx].Insertions++
				case git2go.DiffLineDeletion:
					stats[idx].Deletions++
				}

				return nil
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
	if err != nil {
		return nil, fmt.Errorf("diff foreach: %w", err)
	}

	return stats, nil
}

// Free releases the diff resources.
func (d *Diff) Free() {
	if d.diff == nil {
		return
	}

	// Free errors are not actionable during cleanup.
	_ = d.diff.Free()
	d.diff = nil
}
