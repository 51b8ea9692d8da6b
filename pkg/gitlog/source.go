package gitlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend names.
const (
	BackendCLI     = "cli"
	BackendLibgit2 = "libgit2"
)

// ErrUnknownBackend is returned by NewSource for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown log backend")

// ErrLogTooLarge is returned when a log exceeds the configured size limit.
var ErrLogTooLarge = errors.New("log output exceeds size limit")

// Source produces numstat log text for one repository, in the COMMIT|
// header format, covering every ref within the window.
type Source interface {
	Log(ctx context.Context, repoPath string, window Window) (string, error)
}

// SourceOptions configures NewSource.
type SourceOptions struct {
	// Backend selects the implementation: BackendCLI or BackendLibgit2.
	Backend string
	// GitBinary is the git executable for the CLI backend.
	GitBinary string
	// MaxBytes caps the produced log. Zero means unlimited.
	MaxBytes uint64
}

// NewSource returns the Source for opts.Backend.
func NewSource(opts SourceOptions) (Source, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendCLI:
		return &CLISource{GitBinary: opts.GitBinary, MaxBytes: opts.MaxBytes}, nil
	case BackendLibgit2:
		return &LibgitSource{MaxBytes: opts.MaxBytes}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// cappedBuffer is a strings.Builder that refuses to grow past limit.
type cappedBuffer struct {
	strings.Builder

	limit    uint64
	exceeded bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.limit > 0 && uint64(b.Len()+len(p)) > b.limit {
		b.exceeded = true

		return 0, b.overflow()
	}

	return b.Builder.Write(p)
}

func (b *cappedBuffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

func (b *cappedBuffer) overflow() error {
	return fmt.Errorf("%w: %d bytes", ErrLogTooLarge, b.limit)
}
