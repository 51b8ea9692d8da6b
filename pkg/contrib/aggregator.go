package contrib

import (
	"sort"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
)

// ContributionRow is one author's activity in one repository.
type ContributionRow struct {
	Author     string `json:"author"     yaml:"author"`
	Repository string `json:"repository" yaml:"repository"`
	Commits    int    `json:"commits"    yaml:"commits"`
	Insertions int    `json:"insertions" yaml:"insertions"`
	Deletions  int    `json:"deletions"  yaml:"deletions"`
	Net        int    `json:"net"        yaml:"net"`
}

// Aggregates holds cross-repository totals keyed by author. Merge is the
// only mutating operation and is safe to call from concurrent scans.
type Aggregates struct {
	mu sync.Mutex

	rows       []ContributionRow
	weekly     map[string]map[time.Time]*WeekStats
	extensions map[string]map[string]*LineStats
	categories map[string]map[classify.Category]*LineStats
	languages  map[string]map[string]*LineStats
}

// NewAggregates returns empty aggregates.
func NewAggregates() *Aggregates {
	return &Aggregates{
		weekly:     make(map[string]map[time.Time]*WeekStats),
		extensions: make(map[string]map[string]*LineStats),
		categories: make(map[string]map[classify.Category]*LineStats),
		languages:  make(map[string]map[string]*LineStats),
	}
}

// Merge folds one repository's per-author stats into the aggregates and
// returns the rows emitted for it. Authors with no inserted or deleted lines
// produce no row and contribute nothing.
func (g *Aggregates) Merge(repository string, authors map[string]*AuthorStats) []ContributionRow {
	g.mu.Lock()
	defer g.mu.Unlock()

	rows := make([]ContributionRow, 0, len(authors))

	for name, stats := range authors {
		if stats == nil || !stats.Active() {
			continue
		}

		rows = append(rows, ContributionRow{
			Author:     name,
			Repository: repository,
			Commits:    stats.CommitCount(),
			Insertions: stats.Insertions,
			Deletions:  stats.Deletions,
			Net:        stats.Net(),
		})

		g.mergeWeekly(name, stats.Weekly)
		mergeBuckets(g.extensions, name, stats.Extensions)
		mergeBuckets(g.categories, name, stats.Categories)
		mergeBuckets(g.languages, name, stats.Languages)
	}

	sortRows(rows)
	g.rows = append(g.rows, rows...)

	return rows
}

func (g *Aggregates) mergeWeekly(author string, weeks map[time.Time]*WeekStats) {
	dst, ok := g.weekly[author]
	if !ok {
		dst = make(map[time.Time]*WeekStats, len(weeks))
		g.weekly[author] = dst
	}

	for week, src := range weeks {
		ws, exists := dst[week]
		if !exists {
			ws = newWeekStats()
			dst[week] = ws
		}

		ws.Add(src.LineStats)

		for hash := range src.Commits {
			ws.Commits[hash] = struct{}{}
		}
	}
}

func mergeBuckets[K comparable](dst map[string]map[K]*LineStats, author string, src map[K]*LineStats) {
	m, ok := dst[author]
	if !ok {
		m = make(map[K]*LineStats, len(src))
		dst[author] = m
	}

	for key, s := range src {
		bucket(m, key).Add(*s)
	}
}

// Report returns an immutable snapshot of everything merged so far.
func (g *Aggregates) Report() *Report {
	g.mu.Lock()
	defer g.mu.Unlock()

	rep := &Report{
		Rows:       append([]ContributionRow(nil), g.rows...),
		Weekly:     make(map[string]map[string]WeekTotals, len(g.weekly)),
		Extensions: snapshotBuckets(g.extensions, func(k string) string { return k }),
		Categories: snapshotBuckets(g.categories, func(k classify.Category) string { return string(k) }),
		Languages:  snapshotBuckets(g.languages, func(k string) string { return k }),
	}

	sortRows(rep.Rows)

	for author, weeks := range g.weekly {
		out := make(map[string]WeekTotals, len(weeks))

		for week, ws := range weeks {
			out[week.Format(time.DateOnly)] = WeekTotals{
				LineStats:   ws.LineStats,
				CommitCount: ws.CommitCount(),
			}
		}

		rep.Weekly[author] = out
	}

	return rep
}

func snapshotBuckets[K comparable](src map[string]map[K]*LineStats, key func(K) string) map[string]map[string]LineStats {
	out := make(map[string]map[string]LineStats, len(src))

	for author, buckets := range src {
		m := make(map[string]LineStats, len(buckets))

		for k, s := range buckets {
			m[key(k)] = *s
		}

		out[author] = m
	}

	return out
}

func sortRows(rows []ContributionRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Author != rows[j].Author {
			return rows[i].Author < rows[j].Author
		}

		return rows[i].Repository < rows[j].Repository
	})
}
