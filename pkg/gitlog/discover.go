package gitlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotRepository is returned when a path has no .git entry.
var ErrNotRepository = errors.New("not a git repository")

// Repository is a local repository to analyze.
type Repository struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Discover lists the immediate subdirectories of dir that contain a .git
// entry, sorted case-insensitively by name. A missing dir yields nothing.
func Discover(dir string) ([]Repository, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var repos []Repository

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		full := filepath.Join(dir, entry.Name())
		if isRepository(full) {
			repos = append(repos, Repository{Name: entry.Name(), Path: full})
		}
	}

	sortRepositories(repos)

	return repos, nil
}

// Resolve turns explicit paths into repositories named after their base
// directory. Duplicate names get the parent directory prepended.
func Resolve(paths []string) ([]Repository, error) {
	repos := make([]Repository, 0, len(paths))
	seen := make(map[string]int, len(paths))

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}

		if !isRepository(abs) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, p)
		}

		name := filepath.Base(abs)
		if seen[name] > 0 {
			name = filepath.Base(filepath.Dir(abs)) + "/" + name
		}

		seen[filepath.Base(abs)]++

		repos = append(repos, Repository{Name: name, Path: abs})
	}

	return repos, nil
}

func isRepository(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))

	return err == nil
}

func sortRepositories(repos []Repository) {
	sort.SliceStable(repos, func(i, j int) bool {
		return strings.ToLower(repos[i].Name) < strings.ToLower(repos[j].Name)
	})
}
