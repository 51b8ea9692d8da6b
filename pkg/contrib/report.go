package contrib

import (
	"sort"
	"strings"
)

// WeekTotals is the serialized form of a weekly bucket.
type WeekTotals struct {
	LineStats `yaml:",inline"`

	CommitCount int `json:"commit_count" yaml:"commit_count"`
}

// Report is the output of an analysis run. Map keys are author names, then
// ISO dates (weekly), extensions, category identifiers or language names.
type Report struct {
	Rows       []ContributionRow                `json:"rows"       yaml:"rows"`
	Weekly     map[string]map[string]WeekTotals `json:"weekly"     yaml:"weekly"`
	Extensions map[string]map[string]LineStats  `json:"extensions" yaml:"extensions"`
	Categories map[string]map[string]LineStats  `json:"categories" yaml:"categories"`
	Languages  map[string]map[string]LineStats  `json:"languages"  yaml:"languages"`
}

// Totals are grand totals across every row.
type Totals struct {
	Authors      int `json:"authors"      yaml:"authors"`
	Repositories int `json:"repositories" yaml:"repositories"`
	Commits      int `json:"commits"      yaml:"commits"`
	Insertions   int `json:"insertions"   yaml:"insertions"`
	Deletions    int `json:"deletions"    yaml:"deletions"`
	Net          int `json:"net"          yaml:"net"`
}

// AuthorSummary is one author's activity summed over all repositories.
type AuthorSummary struct {
	Author       string   `json:"author"       yaml:"author"`
	Repositories []string `json:"repositories" yaml:"repositories"`
	Commits      int      `json:"commits"      yaml:"commits"`
	Insertions   int      `json:"insertions"   yaml:"insertions"`
	Deletions    int      `json:"deletions"    yaml:"deletions"`
	Net          int      `json:"net"          yaml:"net"`
}

// ComputeTotals sums rows.
func ComputeTotals(rows []ContributionRow) Totals {
	authors := make(map[string]struct{})
	repos := make(map[string]struct{})

	var t Totals

	for _, r := range rows {
		authors[r.Author] = struct{}{}
		repos[r.Repository] = struct{}{}

		t.Commits += r.Commits
		t.Insertions += r.Insertions
		t.Deletions += r.Deletions
	}

	t.Authors = len(authors)
	t.Repositories = len(repos)
	t.Net = t.Insertions - t.Deletions

	return t
}

// Summaries groups rows by author, ordered by net lines descending.
func Summaries(rows []ContributionRow) []AuthorSummary {
	byAuthor := make(map[string]*AuthorSummary)
	repoSets := make(map[string]map[string]struct{})

	for _, r := range rows {
		s, ok := byAuthor[r.Author]
		if !ok {
			s = &AuthorSummary{Author: r.Author}
			byAuthor[r.Author] = s
			repoSets[r.Author] = make(map[string]struct{})
		}

		s.Commits += r.Commits
		s.Insertions += r.Insertions
		s.Deletions += r.Deletions
		repoSets[r.Author][r.Repository] = struct{}{}
	}

	out := make([]AuthorSummary, 0, len(byAuthor))

	for author, s := range byAuthor {
		if s.Insertions == 0 && s.Deletions == 0 {
			continue
		}

		s.Net = s.Insertions - s.Deletions

		for repo := range repoSets[author] {
			s.Repositories = append(s.Repositories, repo)
		}

		sort.Strings(s.Repositories)

		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Net != out[j].Net {
			return out[i].Net > out[j].Net
		}

		return strings.ToLower(out[i].Author) < strings.ToLower(out[j].Author)
	})

	return out
}
