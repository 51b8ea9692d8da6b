package observability_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/contribfang/pkg/contrib"
	"github.com/Sumatoshi-tech/contribfang/pkg/observability"
)

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "contribfang.prom")

	rows := []contrib.ContributionRow{
		{Author: "Alice", Repository: "api", Commits: 3, Insertions: 120, Deletions: 20, Net: 100},
		{Author: "Bob", Repository: "web", Commits: 1, Insertions: 5, Deletions: 9, Net: -4},
	}

	require.NoError(t, observability.WriteTextfile(path, rows))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, "# TYPE contribfang_author_insertions gauge")
	assert.Contains(t, text, "contribfang_author_commits{")
	assert.Contains(t, text, "contribfang_author_deletions{")
	assert.Contains(t, text, `author="Alice"`)
	assert.Contains(t, text, `repository="web"`)
	assert.Contains(t, text, "} 120")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	t.Parallel()

	err := observability.WriteTextfile(filepath.Join(t.TempDir(), "missing", "out.prom"), nil)
	require.Error(t, err)
}
