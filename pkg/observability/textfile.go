package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Sumatoshi-tech/contribfang/pkg/contrib"
)

const (
	metricAuthorCommits    = "contribfang.author.commits"
	metricAuthorInsertions = "contribfang.author.insertions"
	metricAuthorDeletions  = "contribfang.author.deletions"

	attrAuthor = "author"
)

// WriteTextfile writes one gauge per author and repository for commits,
// insertions and deletions to path in the Prometheus text format, for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, rows []contrib.ContributionRow) error {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
		promexporter.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := mp.Meter(meterName)

	err = recordRows(context.Background(), meter, rows)
	if err == nil {
		err = prometheus.WriteToTextfile(path, registry)
	}

	return errors.Join(err, mp.Shutdown(context.Background()))
}

func recordRows(ctx context.Context, meter metric.Meter, rows []contrib.ContributionRow) error {
	commits, err := meter.Int64Gauge(metricAuthorCommits,
		metric.WithDescription("Distinct commits by author and repository"))
	if err != nil {
		return fmt.Errorf("create %s: %w", metricAuthorCommits, err)
	}

	insertions, err := meter.Int64Gauge(metricAuthorInsertions,
		metric.WithDescription("Lines inserted by author and repository"))
	if err != nil {
		return fmt.Errorf("create %s: %w", metricAuthorInsertions, err)
	}

	deletions, err := meter.Int64Gauge(metricAuthorDeletions,
		metric.WithDescription("Lines deleted by author and repository"))
	if err != nil {
		return fmt.Errorf("create %s: %w", metricAuthorDeletions, err)
	}

	for _, row := range rows {
		attrs := metric.WithAttributes(
			attribute.String(attrAuthor, row.Author),
			attribute.String(attrRepo, row.Repository),
		)

		commits.Record(ctx, int64(row.Commits), attrs)
		insertions.Record(ctx, int64(row.Insertions), attrs)
		deletions.Record(ctx, int64(row.Deletions), attrs)
	}

	return nil
}
