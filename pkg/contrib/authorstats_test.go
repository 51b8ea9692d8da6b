package contrib_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
	"github.com/Sumatoshi-tech/contribfang/pkg/contrib"
)

func day(t *testing.T, s string) *time.Time {
	t.Helper()

	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)

	return &d
}

func TestWeekStart(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	for offset := range 7 {
		d := monday.AddDate(0, 0, offset).Add(13 * time.Hour)
		assert.Equal(t, monday, contrib.WeekStart(d), d.Weekday().String())
	}

	assert.Equal(t, monday.AddDate(0, 0, 7), contrib.WeekStart(monday.AddDate(0, 0, 7)))
	assert.Equal(t, time.Monday, contrib.WeekStart(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)).Weekday())
}

func TestFold_AllBuckets(t *testing.T) {
	t.Parallel()

	stats := contrib.NewAuthorStats()
	stats.Fold(5, 2, "src/app.ts", "a1", day(t, "2025-01-08"))

	assert.Equal(t, 5, stats.Insertions)
	assert.Equal(t, 2, stats.Deletions)
	assert.Equal(t, 1, stats.CommitCount())
	assert.Equal(t, contrib.LineStats{Insertions: 5, Deletions: 2}, *stats.Extensions[".ts"])
	assert.Equal(t, contrib.LineStats{Insertions: 5, Deletions: 2}, *stats.Categories[classify.CategoryFullstack])
	assert.Len(t, stats.Languages, 1)

	week := stats.Weekly[time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)]
	require.NotNil(t, week)
	assert.Equal(t, 5, week.Insertions)
	assert.Equal(t, 1, week.CommitCount())
}

func TestFold_NilDateSkipsWeekOnly(t *testing.T) {
	t.Parallel()

	stats := contrib.NewAuthorStats()
	stats.Fold(3, 1, "Makefile", "c1", nil)

	assert.Empty(t, stats.Weekly)
	assert.Equal(t, 3, stats.Insertions)
	assert.Equal(t, 3, stats.Extensions[""].Insertions)
	assert.Equal(t, 3, stats.Categories[classify.CategoryOther].Insertions)
}

func TestFold_LanguageBucket(t *testing.T) {
	t.Parallel()

	stats := contrib.NewAuthorStats()
	stats.Fold(4, 0, "cmd/main.go", "g1", nil)
	stats.Fold(1, 0, "blob.zzqx", "g1", nil)

	assert.Equal(t, 4, stats.Languages["Go"].Insertions)
	assert.Equal(t, 1, stats.Languages[classify.LanguageOther].Insertions)
}

func TestFold_SumInvariant(t *testing.T) {
	t.Parallel()

	stats := contrib.NewAuthorStats()
	stats.Fold(10, 4, "a.go", "h1", day(t, "2025-03-03"))
	stats.Fold(7, 0, "web/b.tsx", "h1", day(t, "2025-03-03"))
	stats.Fold(2, 9, "README", "h2", nil)
	stats.Fold(1, 1, "infra/Dockerfile", "h3", day(t, "2025-03-12"))

	sum := func(m map[string]*contrib.LineStats) contrib.LineStats {
		var total contrib.LineStats
		for _, s := range m {
			total.Add(*s)
		}

		return total
	}

	var cats contrib.LineStats
	for _, s := range stats.Categories {
		cats.Add(*s)
	}

	var weeks contrib.LineStats
	for _, w := range stats.Weekly {
		weeks.Add(w.LineStats)
	}

	assert.Equal(t, stats.LineStats, sum(stats.Extensions))
	assert.Equal(t, stats.LineStats, sum(stats.Languages))
	assert.Equal(t, stats.LineStats, cats)
	assert.LessOrEqual(t, weeks.Insertions, stats.Insertions)
	assert.Equal(t, 18, weeks.Insertions)
	assert.Equal(t, 3, stats.CommitCount())
}

func TestLineStats(t *testing.T) {
	t.Parallel()

	s := contrib.LineStats{Insertions: 3, Deletions: 8}
	assert.Equal(t, -5, s.Net())
	assert.True(t, s.Active())
	assert.False(t, contrib.LineStats{}.Active())
}
