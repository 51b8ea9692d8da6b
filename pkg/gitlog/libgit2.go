package gitlog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/contribfang/pkg/gitlib"
	"github.com/Sumatoshi-tech/contribfang/pkg/numstat"
)

// LibgitSource reads history in-process through libgit2 and renders it in
// the same text format git log produces, so both backends feed one parser.
// Renames are reported under their new path.
type LibgitSource struct {
	MaxBytes uint64
}

// Log implements Source.
func (s *LibgitSource) Log(ctx context.Context, repoPath string, window Window) (string, error) {
	repo, err := gitlib.OpenRepository(repoPath)
	if err != nil {
		return "", err
	}
	defer repo.Free()

	iter, err := repo.Log(gitlib.LogOptions{Since: window.Since, Until: window.Until, All: true})
	if errors.Is(err, gitlib.ErrNoCommits) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("log %s: %w", repoPath, err)
	}
	defer iter.Close()

	out := &cappedBuffer{limit: s.MaxBytes}

	err = iter.ForEach(func(c *gitlib.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return writeCommit(out, c)
	})
	if err != nil {
		return "", fmt.Errorf("log %s: %w", repoPath, err)
	}

	return out.String(), nil
}

func writeCommit(out *cappedBuffer, c *gitlib.Commit) error {
	author := c.Author()

	_, err := out.WriteString(numstat.CommitMarker + c.Hash().String() + "|" + author.Name + "|" +
		author.When.Format(time.DateOnly) + "\n")
	if err != nil {
		return err
	}

	stats, err := c.FileStats()
	if err != nil {
		return err
	}

	for _, fs := range stats {
		ins, del := "-", "-"
		if !fs.Binary {
			ins, del = strconv.Itoa(fs.Insertions), strconv.Itoa(fs.Deletions)
		}

		if _, err = out.WriteString(ins + "\t" + del + "\t" + fs.Path + "\n"); err != nil {
			return err
		}
	}

	return nil
}
