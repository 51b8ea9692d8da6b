// Package commands implements CLI command handlers for contribfang.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
	"github.com/Sumatoshi-tech/contribfang/pkg/config"
	"github.com/Sumatoshi-tech/contribfang/pkg/gitlog"
	"github.com/Sumatoshi-tech/contribfang/pkg/observability"
	"github.com/Sumatoshi-tech/contribfang/pkg/render"
	"github.com/Sumatoshi-tech/contribfang/pkg/scan"
	"github.com/Sumatoshi-tech/contribfang/pkg/version"
)

const (
	spanRun = "contribfang.run"
	opRun   = "run"
)

// ErrNoRepositories is returned when neither paths nor a directory yield a repository.
var ErrNoRepositories = errors.New("no git repositories found")

type sourceFactory func(opts gitlog.SourceOptions) (gitlog.Source, error)

type observabilityInit func(cfg observability.Config) (observability.Providers, error)

// RunCommand holds flags and dependencies for the run command.
type RunCommand struct {
	configPath string

	dir            string
	since          string
	until          string
	noDocs         bool
	exclude        []string
	excludeAuthors []string

	backend string
	workers int

	format          string
	output          string
	noColor         bool
	metricsTextfile string
	verbose         bool

	newSource sourceFactory
	initObs   observabilityInit
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(gitlog.NewSource, observability.Init)
}

func newRunCommandWithDeps(newSource sourceFactory, initObs observabilityInit) *cobra.Command {
	rc := &RunCommand{
		newSource: newSource,
		initObs:   initObs,
	}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Summarize contributions per author across git repositories",
		Long: `Summarize commits, inserted and deleted lines per author across one or
more local git repositories.

Repositories come from the positional paths, from --dir (every repository
directly under it), or from the current directory.`,
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file (default: contribfang.yaml in ., ./config, ~/.config/contribfang)")

	cmd.Flags().StringVar(&rc.dir, "dir", "", "Discover every git repository directly under this directory")
	cmd.Flags().StringVar(&rc.since, "since", "", "Lower bound (e.g., '2025-01-01', RFC3339, '720h')")
	cmd.Flags().StringVar(&rc.until, "until", "", "Upper bound, inclusive for dates")
	cmd.Flags().BoolVar(&rc.noDocs, "no-docs", false, "Exclude documentation files (.md, .mdx, .rst, .txt)")
	cmd.Flags().StringArrayVar(&rc.exclude, "exclude", nil, "Extra glob pattern for files to ignore (repeatable)")
	cmd.Flags().StringArrayVar(&rc.excludeAuthors, "exclude-author", nil, "Extra author substring to ignore (repeatable)")

	cmd.Flags().StringVar(&rc.backend, "backend", gitlog.BackendCLI, "Log backend: cli or libgit2")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Repositories scanned in parallel (0 = use CPU count)")

	cmd.Flags().StringVar(&rc.format, "format", string(render.FormatText), "Output format: text, json, yaml")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored text output")
	cmd.Flags().StringVar(&rc.metricsTextfile, "metrics-textfile", "", "Write per-author gauges in Prometheus text format")
	cmd.Flags().BoolVarP(&rc.verbose, "verbose", "v", false, "Debug logging to stderr")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return err
	}

	rc.applyFlags(cmd, cfg, args)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	providers, err := rc.initObs(rc.observabilityConfig(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return err
	}

	ctx, span := providers.Tracer.Start(cmd.Context(), spanRun)
	defer span.End()

	done := red.TrackInflight(ctx, opRun)
	defer done()

	startedAt := time.Now()

	err = rc.execute(ctx, cfg, providers, cmd.OutOrStdout())

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	red.RecordRequest(ctx, opRun, status, time.Since(startedAt))

	return err
}

func (rc *RunCommand) execute(ctx context.Context, cfg *config.Config, providers observability.Providers, stdout io.Writer) error {
	logger := providers.Logger

	repos, err := resolveRepositories(cfg.Repositories)
	if err != nil {
		return err
	}

	window, err := cfg.Analysis.Window()
	if err != nil {
		return err
	}

	rules := classify.DefaultRules().WithExtra(cfg.Analysis.ExcludePatterns, cfg.Analysis.ExcludeAuthors)
	rules.ExcludeDocs = cfg.Analysis.ExcludeDocs

	cls, err := classify.NewClassifier(rules)
	if err != nil {
		return err
	}

	maxBytes, err := cfg.Pipeline.MaxLogBytes()
	if err != nil {
		return err
	}

	source, err := rc.newSource(gitlog.SourceOptions{Backend: cfg.Pipeline.Backend, MaxBytes: maxBytes})
	if err != nil {
		return err
	}

	scanMetrics, err := observability.NewScanMetrics(providers.Meter)
	if err != nil {
		return err
	}

	scanner, err := scan.New(scan.Options{
		Source:     source,
		Classifier: cls,
		Window:     window,
		Workers:    cfg.Pipeline.Workers,
		Timeout:    cfg.Pipeline.GitTimeout,
		Logger:     logger,
		Tracer:     providers.Tracer,
		Metrics:    scanMetrics,
	})
	if err != nil {
		return err
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("contribfang.repositories", len(repos)),
		attribute.String("contribfang.window", window.String()),
	)

	logger.InfoContext(ctx, "scan started",
		"repositories", len(repos), "window", window.String(), "backend", cfg.Pipeline.Backend)

	res, err := scanner.Run(ctx, repos)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "scan finished",
		"rows", len(res.Report.Rows), "failed", len(res.Failed()))

	doc := render.NewDocument(res.Report, window.String())

	err = writeReport(stdout, cfg.Output, doc)
	if err != nil {
		return err
	}

	if cfg.Output.MetricsTextfile != "" {
		err = observability.WriteTextfile(cfg.Output.MetricsTextfile, res.Report.Rows)
		if err != nil {
			return err
		}

		logger.DebugContext(ctx, "metrics textfile written", "path", cfg.Output.MetricsTextfile)
	}

	return nil
}

func (rc *RunCommand) applyFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	flags := cmd.Flags()

	if flags.Changed("dir") {
		cfg.Repositories.Dir = rc.dir
		cfg.Repositories.Paths = nil
	}

	if len(args) > 0 {
		cfg.Repositories.Paths = args
	}

	if flags.Changed("since") {
		cfg.Analysis.Since = rc.since
	}

	if flags.Changed("until") {
		cfg.Analysis.Until = rc.until
	}

	if flags.Changed("no-docs") {
		cfg.Analysis.ExcludeDocs = rc.noDocs
	}

	cfg.Analysis.ExcludePatterns = append(cfg.Analysis.ExcludePatterns, rc.exclude...)
	cfg.Analysis.ExcludeAuthors = append(cfg.Analysis.ExcludeAuthors, rc.excludeAuthors...)

	if flags.Changed("backend") {
		cfg.Pipeline.Backend = rc.backend
	}

	if flags.Changed("workers") {
		cfg.Pipeline.Workers = rc.workers
	}

	if flags.Changed("format") {
		cfg.Output.Format = rc.format
	}

	if flags.Changed("output") {
		cfg.Output.Path = rc.output
	}

	if flags.Changed("no-color") {
		cfg.Output.NoColor = rc.noColor
	}

	if flags.Changed("metrics-textfile") {
		cfg.Output.MetricsTextfile = rc.metricsTextfile
	}

	if rc.verbose {
		cfg.Logging.Level = "debug"
	}
}

func (rc *RunCommand) observabilityConfig(cfg *config.Config, logWriter io.Writer) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.LogJSON()
	obsCfg.LogWriter = logWriter

	return obsCfg
}

// resolveRepositories prefers explicit paths, then Dir, then the working
// directory (itself a repository or a parent of several).
func resolveRepositories(rc config.RepositoriesConfig) ([]gitlog.Repository, error) {
	var (
		repos []gitlog.Repository
		err   error
	)

	switch {
	case len(rc.Paths) > 0:
		repos, err = gitlog.Resolve(rc.Paths)
	case rc.Dir != "":
		repos, err = gitlog.Discover(rc.Dir)
	default:
		repos, err = gitlog.Resolve([]string{"."})
		if errors.Is(err, gitlog.ErrNotRepository) {
			repos, err = gitlog.Discover(".")
		}
	}

	if err != nil {
		return nil, err
	}

	if len(repos) == 0 {
		return nil, ErrNoRepositories
	}

	return repos, nil
}

func writeReport(stdout io.Writer, out config.OutputConfig, doc render.Document) error {
	format, err := render.ParseFormat(out.Format)
	if err != nil {
		return err
	}

	opts := render.Options{Format: format, NoColor: out.NoColor}

	if out.Path == "" {
		return render.Write(stdout, doc, opts)
	}

	f, err := os.Create(out.Path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", out.Path, err)
	}

	opts.NoColor = true

	err = render.Write(f, doc, opts)

	return errors.Join(err, f.Close())
}
