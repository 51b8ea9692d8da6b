package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/contribfang/pkg/gitlog"
	"github.com/Sumatoshi-tech/contribfang/pkg/observability"
)

// Tool names.
const (
	ToolNameContributions = "contribfang_contributions"
	ToolNameParseLog      = "contribfang_parse_log"
)

// Input limits.
const (
	// MaxLogInputBytes caps inline log text for contribfang_parse_log (16 MB).
	MaxLogInputBytes = 16 << 20
	// MaxRepoPaths caps repositories per contribfang_contributions call.
	MaxRepoPaths = 64
)

// Sentinel errors for tool input validation.
var (
	ErrNoRepoPaths         = errors.New("repo_paths parameter is required and must not be empty")
	ErrTooManyRepoPaths    = errors.New("too many repo_paths")
	ErrEmptyRepoPath       = errors.New("repo_paths must not contain empty entries")
	ErrRepoPathNotAbsolute = errors.New("repo_path must be an absolute path")
	ErrRepoNotFound        = errors.New("repository path does not exist")
	ErrNotGitRepo          = errors.New("path is not a git repository")
	ErrEmptyLog            = errors.New("log parameter is required and must not be empty")
	ErrLogTooLarge         = errors.New("log input exceeds maximum size")
)

// ContributionsInput is the input schema for contribfang_contributions.
type ContributionsInput struct {
	RepoPaths       []string `json:"repo_paths"                 jsonschema:"absolute paths of local git repositories"`
	Since           string   `json:"since,omitempty"            jsonschema:"lower bound: YYYY-MM-DD, RFC3339 or a duration such as 720h"`
	Until           string   `json:"until,omitempty"            jsonschema:"upper bound: YYYY-MM-DD (inclusive), RFC3339 or a duration"`
	ExcludeDocs     bool     `json:"exclude_docs,omitempty"     jsonschema:"drop .md .mdx .rst and .txt files"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty" jsonschema:"extra glob patterns for files to ignore"`
	Backend         string   `json:"backend,omitempty"          jsonschema:"log backend: cli (default) or libgit2"`
}

// ParseLogInput is the input schema for contribfang_parse_log.
type ParseLogInput struct {
	Log         string `json:"log"                    jsonschema:"git log numstat output with COMMIT| headers"`
	Repository  string `json:"repository,omitempty"   jsonschema:"repository name to report under (default: repository)"`
	ExcludeDocs bool   `json:"exclude_docs,omitempty" jsonschema:"drop .md .mdx .rst and .txt files"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// toolset carries what handlers need beyond their input.
type toolset struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	scanMetrics *observability.ScanMetrics
	sources     map[string]gitlog.Source
	gitTimeout  time.Duration
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}
