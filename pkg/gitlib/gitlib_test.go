package gitlib_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/contribfang/pkg/gitlib"
	"github.com/Sumatoshi-tech/contribfang/pkg/gitlib/gitlibtest"
)

var base = time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

func collect(t *testing.T, repo *gitlib.Repository, opts gitlib.LogOptions) []string {
	t.Helper()

	iter, err := repo.Log(opts)
	require.NoError(t, err)

	var authors []string

	require.NoError(t, iter.ForEach(func(c *gitlib.Commit) error {
		authors = append(authors, c.Author().Name)

		return nil
	}))

	return authors
}

func TestOpenRepository(t *testing.T) {
	fixture := gitlibtest.New(t)
	fixture.Write("a.txt", "x\n")
	fixture.Commit("Alice", base, "initial")

	repo, err := gitlib.OpenRepository(fixture.Path)
	require.NoError(t, err)

	defer repo.Free()

	assert.Equal(t, fixture.Path, repo.Path())
}

func TestOpenRepositoryNotFound(t *testing.T) {
	_, err := gitlib.OpenRepository("/nonexistent/path/to/repo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open repository")
}

func TestLog_NewestFirstWithinWindow(t *testing.T) {
	fixture := gitlibtest.New(t)

	for i, name := range []string{"Ann", "Ben", "Cy", "Di"} {
		fixture.Write("f.txt", name+"\n")
		fixture.Commit(name, base.AddDate(0, 0, i*7), "c")
	}

	repo, err := gitlib.OpenRepository(fixture.Path)
	require.NoError(t, err)

	defer repo.Free()

	assert.Equal(t, []string{"Di", "Cy", "Ben", "Ann"}, collect(t, repo, gitlib.LogOptions{All: true}))

	since := base.AddDate(0, 0, 7)
	until := base.AddDate(0, 0, 15)
	assert.Equal(t, []string{"Cy", "Ben"}, collect(t, repo, gitlib.LogOptions{Since: &since, Until: &until}))
}

func TestLog_EmptyRepository(t *testing.T) {
	fixture := gitlibtest.New(t)

	repo, err := gitlib.OpenRepository(fixture.Path)
	require.NoError(t, err)

	defer repo.Free()

	_, err = repo.Log(gitlib.LogOptions{})
	require.ErrorIs(t, err, gitlib.ErrNoCommits)
}

func TestCommitFileStats(t *testing.T) {
	fixture := gitlibtest.New(t)
	fixture.Write("src/app.go", "package app\n\nfunc A() {}\n")
	fixture.Write("README.md", "hello\n")
	fixture.Commit("Alice", base, "root")

	fixture.Write("src/app.go", "package app\n\nfunc B() {}\nfunc C() {}\n")
	fixture.Remove("README.md")
	fixture.WriteBytes("logo.bin", []byte{0x00, 0x01, 0x02, 0x00})
	fixture.Commit("Bob", base.Add(time.Hour), "second")

	repo, err := gitlib.OpenRepository(fixture.Path)
	require.NoError(t, err)

	defer repo.Free()

	iter, err := repo.Log(gitlib.LogOptions{})
	require.NoError(t, err)

	defer iter.Close()

	second, err := iter.Next()
	require.NoError(t, err)

	defer second.Free()

	assert.Equal(t, "Bob", second.Author().Name)
	assert.Equal(t, 1, second.NumParents())
	assert.False(t, second.Hash().IsZero())
	assert.Len(t, second.Hash().String(), 40)

	stats, err := second.FileStats()
	require.NoError(t, err)

	byPath := make(map[string]gitlib.FileStat, len(stats))
	for _, s := range stats {
		byPath[s.Path] = s
	}

	assert.Equal(t, gitlib.FileStat{Path: "src/app.go", Insertions: 2, Deletions: 1}, byPath["src/app.go"])
	assert.Equal(t, gitlib.FileStat{Path: "README.md", Deletions: 1}, byPath["README.md"])
	assert.True(t, byPath["logo.bin"].Binary)

	root, err := iter.Next()
	require.NoError(t, err)

	defer root.Free()

	rootStats, err := root.FileStats()
	require.NoError(t, err)
	assert.Len(t, rootStats, 2)

	_, err = root.Parent(0)
	require.ErrorIs(t, err, gitlib.ErrParentNotFound)

	_, err = iter.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestCommitFileStats_Rename(t *testing.T) {
	body := "line 1\nline 2\nline 3\nline 4\nline 5\nline 6\nline 7\nline 8\n"

	fixture := gitlibtest.New(t)
	fixture.Write("pkg/handler.go", body)
	fixture.Commit("Alice", base, "root")

	fixture.Remove("pkg/handler.go")
	fixture.Write("pkg/server.go", body+"line 9\n")
	fixture.Commit("Alice", base.Add(time.Hour), "rename")

	repo, err := gitlib.OpenRepository(fixture.Path)
	require.NoError(t, err)

	defer repo.Free()

	iter, err := repo.Log(gitlib.LogOptions{})
	require.NoError(t, err)

	defer iter.Close()

	head, err := iter.Next()
	require.NoError(t, err)

	defer head.Free()

	stats, err := head.FileStats()
	require.NoError(t, err)
	assert.Equal(t, []gitlib.FileStat{{Path: "pkg/server.go", Insertions: 1}}, stats)
}

func TestHashFromOidNil(t *testing.T) {
	assert.True(t, gitlib.HashFromOid(nil).IsZero())
	assert.Equal(t, "0000000000000000000000000000000000000000", gitlib.Hash{}.String())
}
