// Package scan runs the contribution pipeline over a set of repositories:
// retrieve each log, parse it, and merge it into shared aggregates.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
	"github.com/Sumatoshi-tech/contribfang/pkg/contrib"
	"github.com/Sumatoshi-tech/contribfang/pkg/gitlog"
	"github.com/Sumatoshi-tech/contribfang/pkg/numstat"
	"github.com/Sumatoshi-tech/contribfang/pkg/observability"
)

const spanRepo = "contribfang.scan.repo"

var (
	// ErrNoSource is returned by New without a log source.
	ErrNoSource = errors.New("scan: no log source")
	// ErrNoClassifier is returned by New without a classifier.
	ErrNoClassifier = errors.New("scan: no classifier")
)

// Options configures a Scanner. Logger, Tracer and Metrics are optional.
type Options struct {
	Source     gitlog.Source
	Classifier *classify.Classifier
	Window     gitlog.Window

	// Workers bounds concurrent repositories. Zero means one per CPU.
	Workers int
	// Timeout bounds log retrieval per repository. Zero means none.
	Timeout time.Duration

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.ScanMetrics
}

// Outcome is what scanning one repository produced.
type Outcome struct {
	Repository gitlog.Repository
	Rows       []contrib.ContributionRow
	Stats      numstat.Stats
	Duration   time.Duration
	// Err is the retrieval failure, if any. A failed repository
	// contributes nothing.
	Err error
}

// Result is the outcome of a full run.
type Result struct {
	Report *contrib.Report
	// Outcomes follow the order of the repositories passed to Run.
	Outcomes []Outcome
}

// Failed returns the outcomes whose retrieval failed.
func (r Result) Failed() []Outcome {
	var failed []Outcome

	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}

	return failed
}

// Scanner fans repositories out over a bounded worker pool.
type Scanner struct {
	opts Options
}

// New validates opts and fills defaults.
func New(opts Options) (*Scanner, error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}

	if opts.Classifier == nil {
		return nil, ErrNoClassifier
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	return &Scanner{opts: opts}, nil
}

// Run scans repos concurrently. A repository whose log cannot be read is
// logged and counted as having no activity; only cancellation of ctx fails
// the run.
func (s *Scanner) Run(ctx context.Context, repos []gitlog.Repository) (Result, error) {
	agg := contrib.NewAggregates()
	outcomes := make([]Outcome, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, repo := range repos {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outcomes[i] = s.scanRepo(gctx, repo, agg)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("scan: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("scan: %w", err)
	}

	return Result{Report: agg.Report(), Outcomes: outcomes}, nil
}

func (s *Scanner) scanRepo(ctx context.Context, repo gitlog.Repository, agg *contrib.Aggregates) Outcome {
	ctx, span := s.opts.Tracer.Start(ctx, spanRepo, trace.WithAttributes(
		attribute.String("repo.name", repo.Name),
	))
	defer span.End()

	started := time.Now()
	out := Outcome{Repository: repo}

	raw, err := s.retrieve(ctx, repo)
	if err != nil {
		out.Err = err
		out.Duration = time.Since(started)

		span.RecordError(err)
		span.SetStatus(codes.Error, "log retrieval failed")
		s.opts.Logger.WarnContext(ctx, "repository skipped", "repository", repo.Name, "error", err)
		s.opts.Metrics.Record(ctx, observability.ScanStats{
			Repository: repo.Name,
			Failed:     true,
			Duration:   out.Duration,
		})

		return out
	}

	res := numstat.Parse(raw, s.opts.Classifier)
	out.Stats = res.Stats
	out.Rows = agg.Merge(repo.Name, res.Authors)
	out.Duration = time.Since(started)

	span.SetAttributes(
		attribute.Int("scan.commits", res.Stats.Commits),
		attribute.Int("scan.lines.folded", res.Stats.Folded),
		attribute.Int("scan.lines.skipped", res.Stats.SkippedTotal()),
		attribute.Int("scan.rows", len(out.Rows)),
	)

	s.opts.Logger.DebugContext(ctx, "repository scanned",
		"repository", repo.Name,
		"commits", res.Stats.Commits,
		"folded", res.Stats.Folded,
		"skipped", res.Stats.SkippedTotal(),
		"authors", len(out.Rows),
		"duration", out.Duration,
	)

	s.opts.Metrics.Record(ctx, observability.ScanStats{
		Repository: repo.Name,
		Commits:    res.Stats.Commits,
		Folded:     res.Stats.Folded,
		LogBytes:   len(raw),
		Skipped:    skippedByName(res.Stats.Skipped),
		Duration:   out.Duration,
	})

	return out
}

func (s *Scanner) retrieve(ctx context.Context, repo gitlog.Repository) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	raw, err := s.opts.Source.Log(ctx, repo.Path, s.opts.Window)
	if err != nil {
		return "", fmt.Errorf("%s: %w", repo.Name, err)
	}

	return raw, nil
}

func skippedByName(skipped map[numstat.SkipReason]int) map[string]int {
	out := make(map[string]int, len(skipped))
	for reason, n := range skipped {
		out[string(reason)] = n
	}

	return out
}

// FromLog builds a single-repository report from log text already in hand.
func FromLog(repository, raw string, cls *classify.Classifier) (*contrib.Report, numstat.Stats) {
	res := numstat.Parse(raw, cls)

	agg := contrib.NewAggregates()
	agg.Merge(repository, res.Authors)

	return agg.Report(), res.Stats
}
