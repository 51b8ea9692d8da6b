package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
)

func TestShouldExcludeFile_DefaultRules(t *testing.T) {
	t.Parallel()

	cls := classify.MustClassifier(classify.DefaultRules())

	tests := []struct {
		path     string
		excluded bool
	}{
		{"package-lock.json", true},
		{"web/package-lock.json", true},
		{"node_modules/react/index.js", true},
		{"apps/site/node_modules/x.js", true},
		{"Cargo.lock", true},
		{"deps/custom.lock", true},
		{"assets/logo.PNG", false},
		{"assets/logo.png", true},
		{"static/app.min.js", true},
		{"src/api.generated.ts", true},
		{"src/index.d.ts", true},
		{"src/types.ts", true},
		{".vscode/settings.json", true},
		{"terraform.tfstate.backup", true},
		{"Vendor/lib/a.go", true},
		{".DS_Store", true},
		{"docs/.DS_Store", true},
		{"src/app.ts", false},
		{"cmd/main.go", false},
		{"README.md", false},
		{"src/layout.tsx", true},
		{"about/page.tsx", true},
		{"checkout/cart.ts", true},
		{"src/checkout/cart.ts", true},
		{"web/layout.tsx", true},
		{"app/rebuild/x.py", true},
		{"lib/vendors/a.go", true},
		{"src/distance.go", true},
		{"web/Templates/home.html", true},
		{".github/workflows/ci.yml", true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.excluded, cls.ShouldExcludeFile(tc.path))
		})
	}
}

func TestShouldExcludeFile_Docs(t *testing.T) {
	t.Parallel()

	rules := classify.DefaultRules()
	keep := classify.MustClassifier(rules)

	rules.ExcludeDocs = true
	drop := classify.MustClassifier(rules)

	for _, p := range []string{"README.md", "docs/guide.MDX", "notes.txt", "api/index.rst"} {
		assert.False(t, keep.ShouldExcludeFile(p), p)
		assert.True(t, drop.ShouldExcludeFile(p), p)
	}

	assert.False(t, drop.ShouldExcludeFile("src/main.go"))
}

func TestShouldExcludeFile_Idempotent(t *testing.T) {
	t.Parallel()

	cls := classify.MustClassifier(classify.DefaultRules())

	for _, p := range []string{"yarn.lock", "src/app.ts", "dist/bundle.js"} {
		first := cls.ShouldExcludeFile(p)
		assert.Equal(t, first, cls.ShouldExcludeFile(p))
		assert.Equal(t, first, cls.ShouldExcludeFile(p))
	}
}

func TestShouldExcludeFile_ExtraPatterns(t *testing.T) {
	t.Parallel()

	rules := classify.DefaultRules().WithExtra([]string{"migrations/*", "*.snap"}, nil)
	cls := classify.MustClassifier(rules)

	assert.True(t, cls.ShouldExcludeFile("db/migrations/0001_init.sql"))
	assert.True(t, cls.ShouldExcludeFile("ui/__snapshots__/button.snap"))
	assert.False(t, cls.ShouldExcludeFile("db/schema.sql"))
}

func TestNewClassifier_BadPattern(t *testing.T) {
	t.Parallel()

	_, err := classify.NewClassifier(classify.Rules{ExcludePatterns: []string{"[unterminated"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile exclusion patterns")
}

func TestShouldExcludeAuthor(t *testing.T) {
	t.Parallel()

	cls := classify.MustClassifier(classify.DefaultRules())

	tests := []struct {
		name     string
		excluded bool
	}{
		{"dependabot[bot]", true},
		{"Dependabot[bot]", true},
		{"renovate[bot]", true},
		{"GitHub-Actions[bot]", true},
		{"Cursor Agent", true},
		{"Copilot", true},
		{"copilot-swe-agent", true},
		{"Alice", false},
		{"bot builder", false},
		{"", false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.excluded, cls.ShouldExcludeAuthor(tc.name), tc.name)
	}
}

func TestWithExtra_DoesNotAliasReceiver(t *testing.T) {
	t.Parallel()

	base := classify.DefaultRules()
	before := len(base.ExcludePatterns)

	extended := base.WithExtra([]string{"*.bak"}, []string{"ci-bot"})

	assert.Len(t, base.ExcludePatterns, before)
	assert.Len(t, extended.ExcludePatterns, before+1)
	assert.Contains(t, extended.ExcludeAuthors, "ci-bot")
}

func TestExtension(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"src/app.ts":      ".ts",
		"src/App.TSX":     ".tsx",
		"Makefile":        "",
		".bashrc":         "",
		"conf/.env":       "",
		"conf/.env.local": ".local",
		"archive.tar.gz":  ".gz",
		"dir.with.dots/x": "",
		"weird.":          ".",
		"":                "",
	}

	for in, want := range tests {
		assert.Equal(t, want, classify.Extension(in), in)
	}
}
