package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricReposTotal    = "contribfang.scan.repositories.total"
	metricCommitsTotal  = "contribfang.scan.commits.total"
	metricLinesFolded   = "contribfang.scan.lines.folded.total"
	metricLinesSkipped  = "contribfang.scan.lines.skipped.total"
	metricScanDuration  = "contribfang.scan.duration.seconds"
	metricLogBytesTotal = "contribfang.scan.log.bytes.total"

	attrReason = "reason"
	attrRepo   = "repository"
)

// ScanStats is the outcome of scanning one repository.
type ScanStats struct {
	Repository string
	Failed     bool
	Commits    int
	Folded     int
	LogBytes   int
	Skipped    map[string]int
	Duration   time.Duration
}

// ScanMetrics holds the per-repository scan instruments.
type ScanMetrics struct {
	repos    metric.Int64Counter
	commits  metric.Int64Counter
	folded   metric.Int64Counter
	skipped  metric.Int64Counter
	logBytes metric.Int64Counter
	duration metric.Float64Histogram
}

// NewScanMetrics creates the scan instruments on mt.
func NewScanMetrics(mt metric.Meter) (*ScanMetrics, error) {
	repos, err := mt.Int64Counter(metricReposTotal,
		metric.WithDescription("Repositories scanned"),
		metric.WithUnit("{repository}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricReposTotal, err)
	}

	commits, err := mt.Int64Counter(metricCommitsTotal,
		metric.WithDescription("Commit headers read"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsTotal, err)
	}

	folded, err := mt.Int64Counter(metricLinesFolded,
		metric.WithDescription("Numstat lines counted toward an author"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLinesFolded, err)
	}

	skipped, err := mt.Int64Counter(metricLinesSkipped,
		metric.WithDescription("Log lines skipped, by reason"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLinesSkipped, err)
	}

	logBytes, err := mt.Int64Counter(metricLogBytesTotal,
		metric.WithDescription("Bytes of log text parsed"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLogBytesTotal, err)
	}

	duration, err := mt.Float64Histogram(metricScanDuration,
		metric.WithDescription("Time to retrieve and parse one repository log"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricScanDuration, err)
	}

	return &ScanMetrics{
		repos:    repos,
		commits:  commits,
		folded:   folded,
		skipped:  skipped,
		logBytes: logBytes,
		duration: duration,
	}, nil
}

// Record adds one repository scan. A nil receiver is a no-op.
func (sm *ScanMetrics) Record(ctx context.Context, stats ScanStats) {
	if sm == nil {
		return
	}

	status := StatusOK
	if stats.Failed {
		status = StatusError
	}

	repo := attribute.String(attrRepo, stats.Repository)

	sm.repos.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
	sm.duration.Record(ctx, stats.Duration.Seconds(), metric.WithAttributes(attribute.String(attrStatus, status)))
	sm.commits.Add(ctx, int64(stats.Commits), metric.WithAttributes(repo))
	sm.folded.Add(ctx, int64(stats.Folded), metric.WithAttributes(repo))
	sm.logBytes.Add(ctx, int64(stats.LogBytes), metric.WithAttributes(repo))

	for reason, n := range stats.Skipped {
		sm.skipped.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrReason, reason)))
	}
}
