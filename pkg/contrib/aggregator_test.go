package contrib_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/contribfang/pkg/contrib"
)

func repoStats(t *testing.T, hashPrefix string) map[string]*contrib.AuthorStats {
	t.Helper()

	alice := contrib.NewAuthorStats()
	alice.Fold(5, 2, "src/app.ts", hashPrefix+"a1", day(t, "2025-01-06"))
	alice.Fold(1, 0, "src/app.ts", hashPrefix+"a2", day(t, "2025-01-07"))

	bob := contrib.NewAuthorStats()
	bob.Fold(3, 0, "x.py", hashPrefix+"b1", day(t, "2025-01-13"))

	idle := contrib.NewAuthorStats()
	idle.Fold(0, 0, "empty.go", hashPrefix+"z1", nil)

	return map[string]*contrib.AuthorStats{"Alice": alice, "Bob": bob, "Idle": idle}
}

func TestMerge_EmitsRowsForActiveAuthors(t *testing.T) {
	t.Parallel()

	agg := contrib.NewAggregates()
	rows := agg.Merge("web", repoStats(t, ""))

	require.Len(t, rows, 2)
	assert.Equal(t, contrib.ContributionRow{
		Author: "Alice", Repository: "web", Commits: 2, Insertions: 6, Deletions: 2, Net: 4,
	}, rows[0])
	assert.Equal(t, "Bob", rows[1].Author)

	rep := agg.Report()
	assert.NotContains(t, rep.Weekly, "Idle")
	assert.NotContains(t, rep.Extensions, "Idle")
}

func TestMerge_UnionsWeeklyCommits(t *testing.T) {
	t.Parallel()

	agg := contrib.NewAggregates()
	agg.Merge("web", repoStats(t, ""))
	// Same hashes in a second repository (e.g. a fork) count once per week.
	agg.Merge("web-fork", repoStats(t, ""))
	agg.Merge("api", repoStats(t, "x"))

	rep := agg.Report()
	week := rep.Weekly["Alice"]["2025-01-06"]

	assert.Equal(t, 18, week.Insertions)
	assert.Equal(t, 6, week.Deletions)
	assert.Equal(t, 4, week.CommitCount)
	assert.Equal(t, 18, rep.Extensions["Alice"][".ts"].Insertions)
	assert.Equal(t, 9, rep.Categories["Bob"]["backend"].Insertions)
	assert.Len(t, rep.Rows, 6)
}

func TestMerge_OrderIndependent(t *testing.T) {
	t.Parallel()

	forward := contrib.NewAggregates()
	forward.Merge("a", repoStats(t, "1"))
	forward.Merge("b", repoStats(t, "2"))

	backward := contrib.NewAggregates()
	backward.Merge("b", repoStats(t, "2"))
	backward.Merge("a", repoStats(t, "1"))

	assert.Equal(t, forward.Report(), backward.Report())
}

func TestMerge_Concurrent(t *testing.T) {
	t.Parallel()

	agg := contrib.NewAggregates()

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			agg.Merge("repo", repoStats(t, string(rune('a'+i))))
		}()
	}

	wg.Wait()

	rep := agg.Report()
	assert.Len(t, rep.Rows, 32)
	assert.Equal(t, 16*3, rep.Languages["Bob"]["Python"].Insertions)
	assert.Equal(t, 16, rep.Weekly["Bob"]["2025-01-13"].CommitCount)
}

func TestMerge_Empty(t *testing.T) {
	t.Parallel()

	agg := contrib.NewAggregates()
	assert.Empty(t, agg.Merge("none", nil))

	rep := agg.Report()
	assert.Empty(t, rep.Rows)
	assert.Empty(t, rep.Weekly)
}

func TestSummariesAndTotals(t *testing.T) {
	t.Parallel()

	rows := []contrib.ContributionRow{
		{Author: "bob", Repository: "api", Commits: 2, Insertions: 10, Deletions: 1, Net: 9},
		{Author: "Alice", Repository: "web", Commits: 1, Insertions: 50, Deletions: 5, Net: 45},
		{Author: "bob", Repository: "web", Commits: 3, Insertions: 40, Deletions: 4, Net: 36},
		{Author: "carol", Repository: "api", Commits: 1, Insertions: 1, Deletions: 46, Net: -45},
	}

	sums := contrib.Summaries(rows)
	require.Len(t, sums, 3)
	assert.Equal(t, "Alice", sums[0].Author)
	assert.Equal(t, "bob", sums[1].Author)
	assert.Equal(t, 45, sums[1].Net)
	assert.Equal(t, 5, sums[1].Commits)
	assert.Equal(t, []string{"api", "web"}, sums[1].Repositories)
	assert.Equal(t, "carol", sums[2].Author)

	totals := contrib.ComputeTotals(rows)
	assert.Equal(t, contrib.Totals{
		Authors: 3, Repositories: 2, Commits: 7, Insertions: 101, Deletions: 56, Net: 45,
	}, totals)
}
