// Package classify decides which changed files and authors count toward
// contribution totals, and which work category a file belongs to.
package classify

import (
	"fmt"
	"path"
	"strings"
)

// Rules is the exclusion configuration handed to the classifier at call time.
type Rules struct {
	// ExcludeDocs drops documentation files (.md, .mdx, .rst, .txt).
	ExcludeDocs bool
	// ExcludePatterns are shell-glob patterns matched against changed paths.
	ExcludePatterns []string
	// ExcludeAuthors are case-insensitive substrings identifying bot authors.
	ExcludeAuthors []string
}

var docExtensions = map[string]struct{}{
	".md":  {},
	".mdx": {},
	".rst": {},
	".txt": {},
}

var defaultExcludePatterns = []string{
	// Dependencies and build output.
	"node_modules/*", "vendor/*", "venv/*", ".venv/*",
	"dist/*", "build/*", "coverage/*", ".next/*", "out/*",
	// Lockfiles.
	"package-lock.json", "pnpm-lock.yaml", "yarn.lock", "Cargo.lock",
	"Gemfile.lock", "poetry.lock", "*.lock",
	// Generated code.
	"*.generated.*", "*.d.ts", "types.ts",
	// Logs and scratch space.
	"logs/*", "*.log", "temp/*", "tmp/*",
	// Minified assets.
	"*.min.js", "*.min.css",
	// Media and binaries.
	"*.jpg", "*.jpeg", "*.png", "*.gif", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.eot",
	"*.mp4", "*.mp3", "*.wav", "*.pdf", "*.zip", "*.tar", "*.gz",
	// Editors and tooling state.
	".cursor/*", ".vscode/*", ".idea/*",
	"*.tfstate", "*.tfstate.*",
	".bmad/*", "bmad/*", "*.excalidraw", "*.map",
	// VCS and OS noise.
	".git/*", ".DS_Store", "Thumbs.db",
}

var defaultExcludeAuthors = []string{
	"gpt-engineer-app[bot]",
	"dependabot[bot]",
	"renovate[bot]",
	"github-actions[bot]",
	"cursor agent",
	"copilot",
}

// DefaultRules returns the built-in exclusion lists with docs kept.
func DefaultRules() Rules {
	return Rules{
		ExcludePatterns: append([]string(nil), defaultExcludePatterns...),
		ExcludeAuthors:  append([]string(nil), defaultExcludeAuthors...),
	}
}

// WithExtra returns a copy of r with additional patterns and authors appended.
func (r Rules) WithExtra(patterns, authors []string) Rules {
	out := Rules{
		ExcludeDocs:     r.ExcludeDocs,
		ExcludePatterns: make([]string, 0, len(r.ExcludePatterns)+len(patterns)),
		ExcludeAuthors:  make([]string, 0, len(r.ExcludeAuthors)+len(authors)),
	}

	out.ExcludePatterns = append(append(out.ExcludePatterns, r.ExcludePatterns...), patterns...)
	out.ExcludeAuthors = append(append(out.ExcludeAuthors, r.ExcludeAuthors...), authors...)

	return out
}

// Classifier applies a compiled set of Rules. It holds no mutable state and
// is safe for concurrent use.
type Classifier struct {
	excludeDocs bool
	patterns    *Matcher
	authors     []string
}

// NewClassifier compiles the patterns in rules.
func NewClassifier(rules Rules) (*Classifier, error) {
	matcher, err := NewMatcher(rules.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("compile exclusion patterns: %w", err)
	}

	authors := make([]string, 0, len(rules.ExcludeAuthors))

	for _, a := range rules.ExcludeAuthors {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			authors = append(authors, a)
		}
	}

	return &Classifier{
		excludeDocs: rules.ExcludeDocs,
		patterns:    matcher,
		authors:     authors,
	}, nil
}

// MustClassifier is like NewClassifier but panics on a bad pattern.
// Intended for the built-in rules and tests.
func MustClassifier(rules Rules) *Classifier {
	cls, err := NewClassifier(rules)
	if err != nil {
		panic(err)
	}

	return cls
}

// ShouldExcludeFile reports whether changes to filePath are left out of every total.
func (c *Classifier) ShouldExcludeFile(filePath string) bool {
	if c.excludeDocs {
		if _, ok := docExtensions[Extension(filePath)]; ok {
			return true
		}
	}

	return c.patterns.Match(filePath)
}

// ShouldExcludeAuthor reports whether name identifies a bot or automation account.
func (c *Classifier) ShouldExcludeAuthor(name string) bool {
	lower := strings.ToLower(name)

	for _, a := range c.authors {
		if strings.Contains(lower, a) {
			return true
		}
	}

	return false
}

// Extension returns the lowercase extension of filePath including the dot,
// or "" when there is none. Leading dots of the basename are not an extension,
// so ".bashrc" has none.
func Extension(filePath string) string {
	base := path.Base(filePath)
	if base == "/" || base == "." {
		return ""
	}

	trimmed := strings.TrimLeft(base, ".")

	idx := strings.LastIndexByte(trimmed, '.')
	if idx < 0 {
		return ""
	}

	return strings.ToLower(trimmed[idx:])
}
