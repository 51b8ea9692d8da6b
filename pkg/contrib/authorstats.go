// Package contrib accumulates per-author contribution statistics for a single
// repository scan and folds them into cross-repository aggregates.
package contrib

import (
	"time"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
)

// daysPerWeek is used for Monday alignment.
const daysPerWeek = 7

// LineStats is an insertions/deletions pair.
type LineStats struct {
	Insertions int `json:"insertions" yaml:"insertions"`
	Deletions  int `json:"deletions"  yaml:"deletions"`
}

// Net returns insertions minus deletions.
func (s LineStats) Net() int {
	return s.Insertions - s.Deletions
}

// Add accumulates other into s.
func (s *LineStats) Add(other LineStats) {
	s.Insertions += other.Insertions
	s.Deletions += other.Deletions
}

// Active reports whether any line was inserted or deleted.
func (s LineStats) Active() bool {
	return s.Insertions > 0 || s.Deletions > 0
}

// WeekStats is a weekly bucket: line counts plus the distinct commits in that week.
type WeekStats struct {
	LineStats

	Commits map[string]struct{}
}

func newWeekStats() *WeekStats {
	return &WeekStats{Commits: make(map[string]struct{})}
}

// CommitCount returns the number of distinct commits in the week.
func (w *WeekStats) CommitCount() int {
	return len(w.Commits)
}

// AuthorStats accumulates one author's activity within one repository scan.
type AuthorStats struct {
	LineStats

	Commits    map[string]struct{}
	Weekly     map[time.Time]*WeekStats
	Extensions map[string]*LineStats
	Categories map[classify.Category]*LineStats
	Languages  map[string]*LineStats
}

// NewAuthorStats returns an empty accumulator.
func NewAuthorStats() *AuthorStats {
	return &AuthorStats{
		Commits:    make(map[string]struct{}),
		Weekly:     make(map[time.Time]*WeekStats),
		Extensions: make(map[string]*LineStats),
		Categories: make(map[classify.Category]*LineStats),
		Languages:  make(map[string]*LineStats),
	}
}

// CommitCount returns the number of distinct commits attributed to the author.
func (a *AuthorStats) CommitCount() int {
	return len(a.Commits)
}

// Fold attributes one file change to the author. The caller has already
// applied exclusion rules. A nil date skips only the weekly bucket.
func (a *AuthorStats) Fold(insertions, deletions int, filePath, hash string, date *time.Time) {
	delta := LineStats{Insertions: insertions, Deletions: deletions}

	a.Commits[hash] = struct{}{}
	a.Add(delta)

	bucket(a.Extensions, classify.Extension(filePath)).Add(delta)
	bucket(a.Categories, classify.Categorize(filePath)).Add(delta)
	bucket(a.Languages, classify.Language(filePath)).Add(delta)

	if date == nil {
		return
	}

	week := WeekStart(*date)

	ws, ok := a.Weekly[week]
	if !ok {
		ws = newWeekStats()
		a.Weekly[week] = ws
	}

	ws.Add(delta)
	ws.Commits[hash] = struct{}{}
}

// WeekStart returns midnight UTC of the Monday on or before t's calendar day.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + daysPerWeek - 1) % daysPerWeek

	return day.AddDate(0, 0, -offset)
}

func bucket[K comparable](m map[K]*LineStats, key K) *LineStats {
	s, ok := m[key]
	if !ok {
		s = &LineStats{}
		m[key] = s
	}

	return s
}
