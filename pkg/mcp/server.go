// Package mcp implements a Model Context Protocol server exposing contribution
// analysis as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/contribfang/pkg/gitlog"
	"github.com/Sumatoshi-tech/contribfang/pkg/observability"
	"github.com/Sumatoshi-tech/contribfang/pkg/version"
)

const (
	serverName = "contribfang"
	toolCount  = 2

	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil discards.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// ScanMetrics records per-repository scans made by the contributions tool.
	ScanMetrics *observability.ScanMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Sources overrides log retrieval per backend name. Missing backends
	// fall back to gitlog.NewSource.
	Sources map[string]gitlog.Source

	// GitTimeout bounds log retrieval per repository.
	GitTimeout time.Duration
}

// Server wraps the MCP SDK server with the contribfang tools.
type Server struct {
	inner *mcpsdk.Server
	tools *toolset

	mu      sync.RWMutex
	names   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
}

// NewServer creates a server with every tool registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: serverName, Version: version.Version},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{
		inner: inner,
		tools: &toolset{
			logger:      logger,
			tracer:      deps.Tracer,
			scanMetrics: deps.ScanMetrics,
			sources:     deps.Sources,
			gitTimeout:  deps.GitTimeout,
		},
		names:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.names))
	copy(names, s.names)
	sort.Strings(names)

	return names
}

// Run serves on stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameContributions,
		Description: contributionsToolDescription,
	}, withMetrics(s.metrics, ToolNameContributions,
		withTracing(s.tracer, ToolNameContributions, s.tools.handleContributions)))

	s.trackTool(ToolNameContributions)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameParseLog,
		Description: parseLogToolDescription,
	}, withMetrics(s.metrics, ToolNameParseLog,
		withTracing(s.tracer, ToolNameParseLog, s.tools.handleParseLog)))

	s.trackTool(ToolNameParseLog)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names = append(s.names, name)
}

// withTracing opens a span per call and appends the trace ID to sampled results.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		if sc := span.SpanContext(); sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: traceIDMetaKey + "=" + sc.TraceID().String()})
		}

		return result, output, err
	}
}

// withMetrics records RED metrics per call.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()
		op := mcpSpanPrefix + toolName

		done := metrics.TrackInflight(ctx, op)
		defer done()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

const (
	contributionsToolDescription = "Summarize git contributions per author across local repositories: " +
		"commits, inserted and deleted lines, weekly activity, and breakdowns by extension, " +
		"work category and language. Accepts absolute repository paths and an optional date window."

	parseLogToolDescription = "Summarize contributions from raw `git log --numstat " +
		"--format=COMMIT|%H|%an|%ad --date=short` output for a single repository."
)
