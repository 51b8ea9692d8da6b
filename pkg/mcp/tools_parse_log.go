package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
	"github.com/Sumatoshi-tech/contribfang/pkg/render"
	"github.com/Sumatoshi-tech/contribfang/pkg/scan"
)

const defaultRepositoryName = "repository"

// ParseLogOutput is the contribfang_parse_log payload.
type ParseLogOutput struct {
	render.Document

	Lines   int            `json:"lines"`
	Commits int            `json:"commits"`
	Folded  int            `json:"folded"`
	Skipped map[string]int `json:"skipped,omitempty"`
}

func (ts *toolset) handleParseLog(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ParseLogInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if strings.TrimSpace(input.Log) == "" {
		return errorResult(ErrEmptyLog)
	}

	if len(input.Log) > MaxLogInputBytes {
		return errorResult(fmt.Errorf("%w: %d bytes (max %d)", ErrLogTooLarge, len(input.Log), MaxLogInputBytes))
	}

	repository := strings.TrimSpace(input.Repository)
	if repository == "" {
		repository = defaultRepositoryName
	}

	rules := classify.DefaultRules()
	rules.ExcludeDocs = input.ExcludeDocs

	report, stats := scan.FromLog(repository, input.Log, classify.MustClassifier(rules))

	ts.logger.Debug("parsed inline log",
		"repository", repository, "lines", stats.Lines, "commits", stats.Commits, "skipped", stats.SkippedTotal())

	out := ParseLogOutput{
		Document: render.NewDocument(report, ""),
		Lines:    stats.Lines,
		Commits:  stats.Commits,
		Folded:   stats.Folded,
	}

	if len(stats.Skipped) > 0 {
		out.Skipped = make(map[string]int, len(stats.Skipped))
		for reason, n := range stats.Skipped {
			out.Skipped[string(reason)] = n
		}
	}

	return jsonResult(out)
}
