package gitlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Sumatoshi-tech/contribfang/pkg/numstat"
)

const defaultGitBinary = "git"

// ErrGitFailed wraps a non-zero exit of the git executable.
var ErrGitFailed = errors.New("git log failed")

// CLISource runs the git executable.
type CLISource struct {
	GitBinary string
	MaxBytes  uint64
}

// Args returns the git arguments used for repoPath and window.
func (s *CLISource) Args(repoPath string, window Window) []string {
	args := []string{
		"-C", repoPath,
		"log",
		"--numstat",
		"--format=" + numstat.Format,
		"--date=" + numstat.DateFormat,
		"--all",
	}

	return append(args, window.Args()...)
}

// Log implements Source. Cancelling ctx kills the git process.
func (s *CLISource) Log(ctx context.Context, repoPath string, window Window) (string, error) {
	bin := s.GitBinary
	if bin == "" {
		bin = defaultGitBinary
	}

	stdout := &cappedBuffer{limit: s.MaxBytes}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, bin, s.Args(repoPath, window)...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	switch {
	case stdout.exceeded:
		return "", stdout.overflow()
	case ctx.Err() != nil:
		return "", fmt.Errorf("git log %s: %w", repoPath, ctx.Err())
	case err != nil:
		return "", fmt.Errorf("%w: %s: %w: %s", ErrGitFailed, repoPath, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
