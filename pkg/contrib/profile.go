package contrib

import (
	"sort"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
)

const (
	percentScale  = 100
	focusTopN     = 2
	mixedLabel    = "Mixed"
	mixedFocusMsg = "Mixed contributions"
)

// CategoryShare is one category's slice of an author's work.
type CategoryShare struct {
	Category classify.Category `json:"category" yaml:"category"`
	Label    string            `json:"label"    yaml:"label"`
	Lines    LineStats         `json:"lines"    yaml:"lines"`
	Percent  float64           `json:"percent"  yaml:"percent"`
}

// WorkProfile describes where an author spent their effort.
type WorkProfile struct {
	Primary string          `json:"primary" yaml:"primary"`
	Focus   string          `json:"focus"   yaml:"focus"`
	Shares  []CategoryShare `json:"shares"  yaml:"shares"`
}

type focusKey struct {
	first, second classify.Category
}

var focusDescriptions = map[focusKey]string{
	{first: classify.CategoryFrontend}:  "UI/UX development, component building",
	{first: classify.CategoryBackend}:   "Server-side logic, API development",
	{first: classify.CategoryFullstack}: "Full-stack JavaScript/TypeScript development",
	{first: classify.CategoryDatabase}:  "Database schema, queries, migrations",
	{first: classify.CategoryConfig}:    "Configuration, project setup",
	{first: classify.CategoryInfra}:     "Infrastructure, DevOps, deployment",
	{first: classify.CategoryDocs}:      "Documentation, technical writing",
	{first: classify.CategoryScripts}:   "Automation, scripting, tooling",
	{first: classify.CategoryTesting}:   "Test coverage, quality assurance",

	{classify.CategoryFrontend, classify.CategoryFullstack}: "Frontend-focused full-stack development",
	{classify.CategoryBackend, classify.CategoryFullstack}:  "Backend-focused with JS/TS integration",
	{classify.CategoryBackend, classify.CategoryDatabase}:   "Backend + database architecture",
	{classify.CategoryFrontend, classify.CategoryBackend}:   "True full-stack development",
	{classify.CategoryInfra, classify.CategoryConfig}:       "DevOps and infrastructure",
	{classify.CategoryDocs, classify.CategoryConfig}:        "Documentation and project maintenance",
}

// Profile ranks categories by net lines and derives a primary category and a
// one-line focus description. Percentages are of the absolute net total.
func Profile(categories map[string]LineStats) WorkProfile {
	shares := make([]CategoryShare, 0, len(categories))
	absTotal := 0

	for key, lines := range categories {
		cat := classify.Category(key)
		shares = append(shares, CategoryShare{Category: cat, Label: cat.Label(), Lines: lines})
		absTotal += abs(lines.Net())
	}

	sort.Slice(shares, func(i, j int) bool {
		ni, nj := shares[i].Lines.Net(), shares[j].Lines.Net()
		if ni != nj {
			return ni > nj
		}

		return shares[i].Category < shares[j].Category
	})

	if absTotal > 0 {
		for i := range shares {
			shares[i].Percent = float64(abs(shares[i].Lines.Net())) / float64(absTotal) * percentScale
		}
	}

	profile := WorkProfile{Primary: mixedLabel, Focus: describeFocus(shares), Shares: shares}
	if len(shares) > 0 {
		profile.Primary = shares[0].Label
	}

	return profile
}

// describeFocus looks at the top two categories with positive net lines.
// The pair is tried first, then the leading category on its own.
func describeFocus(ranked []CategoryShare) string {
	var top []classify.Category

	for i := 0; i < len(ranked) && i < focusTopN; i++ {
		if ranked[i].Lines.Net() > 0 {
			top = append(top, ranked[i].Category)
		}
	}

	switch len(top) {
	case 0:
		return mixedFocusMsg
	case 1:
		if desc, ok := focusDescriptions[focusKey{first: top[0]}]; ok {
			return desc
		}
	default:
		if desc, ok := focusDescriptions[focusKey{top[0], top[1]}]; ok {
			return desc
		}

		if desc, ok := focusDescriptions[focusKey{first: top[0]}]; ok {
			return desc
		}
	}

	return mixedFocusMsg
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
