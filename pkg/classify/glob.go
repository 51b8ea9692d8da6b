package classify

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher tests repository-relative paths against a list of shell-glob
// patterns. A wildcard may span directory separators, so "*.log" also
// matches "a/b/c.log". Patterns containing "/" additionally match any path
// whose lowercased form contains the pattern's directory name.
type Matcher struct {
	globs []compiledPattern
}

type compiledPattern struct {
	exact    glob.Glob
	anyDepth glob.Glob
	dir      string
}

// NewMatcher compiles patterns. Empty patterns are ignored.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{globs: make([]compiledPattern, 0, len(patterns))}

	for _, p := range patterns {
		if p == "" {
			continue
		}

		exact, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}

		anyDepth, err := glob.Compile("*/" + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}

		m.globs = append(m.globs, compiledPattern{
			exact:    exact,
			anyDepth: anyDepth,
			dir:      directoryName(p),
		})
	}

	return m, nil
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.globs)
}

// Match reports whether filePath is covered by any pattern.
func (m *Matcher) Match(filePath string) bool {
	base := path.Base(filePath)
	lower := strings.ToLower(filePath)

	for i := range m.globs {
		g := &m.globs[i]

		if g.exact.Match(filePath) || g.anyDepth.Match(filePath) || g.exact.Match(base) {
			return true
		}

		if g.dir != "" && strings.Contains(lower, g.dir) {
			return true
		}
	}

	return false
}

// directoryName returns the lowercased directory part of a pattern such as
// "dist/*" or "dist/", or "" when the pattern has no separator. The name is
// matched as a plain substring of the path, so "out/*" also covers
// "src/layout.tsx" and "checkout/cart.ts".
func directoryName(pattern string) string {
	if !strings.Contains(pattern, "/") {
		return ""
	}

	return strings.ToLower(strings.TrimRight(pattern, "/*"))
}
