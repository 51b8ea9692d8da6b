// Package gitlibtest builds throwaway git repositories for tests.
package gitlibtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Repo is a non-bare repository in a temporary directory.
type Repo struct {
	t      testing.TB
	Path   string
	native *git2go.Repository
}

// New initializes an empty repository under t.TempDir().
func New(t testing.TB) *Repo {
	t.Helper()

	return NewAt(t, t.TempDir())
}

// NewAt initializes an empty repository in dir.
func NewAt(t testing.TB, dir string) *Repo {
	t.Helper()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &Repo{t: t, Path: dir, native: repo}
}

// Write creates or overwrites a file in the working tree.
func (r *Repo) Write(name, content string) {
	r.t.Helper()

	full := filepath.Join(r.Path, name)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), dirPerm))
	require.NoError(r.t, os.WriteFile(full, []byte(content), filePerm))
}

// WriteBytes is Write for raw content.
func (r *Repo) WriteBytes(name string, content []byte) {
	r.t.Helper()

	full := filepath.Join(r.Path, name)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), dirPerm))
	require.NoError(r.t, os.WriteFile(full, content, filePerm))
}

// Remove deletes a file from the working tree.
func (r *Repo) Remove(name string) {
	r.t.Helper()

	require.NoError(r.t, os.Remove(filepath.Join(r.Path, name)))
}

// Commit stages the whole working tree and commits it on HEAD with the
// given author name and timestamp. It returns the hex commit id.
func (r *Repo) Commit(author string, when time.Time, message string) string {
	r.t.Helper()

	index, err := r.native.Index()
	require.NoError(r.t, err)

	defer index.Free()

	require.NoError(r.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(r.t, index.UpdateAll([]string{"*"}, nil))
	require.NoError(r.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(r.t, err)

	tree, err := r.native.LookupTree(treeID)
	require.NoError(r.t, err)

	defer tree.Free()

	sig := &git2go.Signature{
		Name:  author,
		Email: "dev@example.com",
		When:  when,
	}

	var parents []*git2go.Commit

	head, err := r.native.Head()
	if err == nil {
		headCommit, lookupErr := r.native.LookupCommit(head.Target())
		require.NoError(r.t, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := r.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(r.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return oid.String()
}
