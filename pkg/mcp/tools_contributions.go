package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
	"github.com/Sumatoshi-tech/contribfang/pkg/gitlog"
	"github.com/Sumatoshi-tech/contribfang/pkg/render"
	"github.com/Sumatoshi-tech/contribfang/pkg/scan"
)

// SkippedRepository is a repository whose log could not be read.
type SkippedRepository struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ContributionsOutput is the contribfang_contributions payload.
type ContributionsOutput struct {
	render.Document

	Skipped []SkippedRepository `json:"skipped,omitempty"`
}

func (ts *toolset) handleContributions(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ContributionsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateContributionsInput(input); err != nil {
		return errorResult(err)
	}

	window, err := gitlog.NewWindow(input.Since, input.Until)
	if err != nil {
		return errorResult(err)
	}

	rules := classify.DefaultRules().WithExtra(input.ExcludePatterns, nil)
	rules.ExcludeDocs = input.ExcludeDocs

	cls, err := classify.NewClassifier(rules)
	if err != nil {
		return errorResult(err)
	}

	source, err := ts.source(input.Backend)
	if err != nil {
		return errorResult(err)
	}

	repos, err := gitlog.Resolve(input.RepoPaths)
	if err != nil {
		return errorResult(err)
	}

	scanner, err := scan.New(scan.Options{
		Source:     source,
		Classifier: cls,
		Window:     window,
		Timeout:    ts.gitTimeout,
		Logger:     ts.logger,
		Tracer:     ts.tracer,
		Metrics:    ts.scanMetrics,
	})
	if err != nil {
		return errorResult(err)
	}

	res, err := scanner.Run(ctx, repos)
	if err != nil {
		return errorResult(err)
	}

	out := ContributionsOutput{Document: render.NewDocument(res.Report, window.String())}
	for _, failed := range res.Failed() {
		out.Skipped = append(out.Skipped, SkippedRepository{Name: failed.Repository.Name, Error: failed.Err.Error()})
	}

	return jsonResult(out)
}

func (ts *toolset) source(backend string) (gitlog.Source, error) {
	if src, ok := ts.sources[backend]; ok {
		return src, nil
	}

	src, err := gitlog.NewSource(gitlog.SourceOptions{Backend: backend})
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	return src, nil
}

func validateContributionsInput(input ContributionsInput) error {
	if len(input.RepoPaths) == 0 {
		return ErrNoRepoPaths
	}

	if len(input.RepoPaths) > MaxRepoPaths {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyRepoPaths, len(input.RepoPaths), MaxRepoPaths)
	}

	for _, p := range input.RepoPaths {
		if err := validateRepoPath(p); err != nil {
			return err
		}
	}

	return nil
}

func validateRepoPath(repoPath string) error {
	if repoPath == "" {
		return ErrEmptyRepoPath
	}

	if !filepath.IsAbs(repoPath) {
		return fmt.Errorf("%w: %s", ErrRepoPathNotAbsolute, repoPath)
	}

	info, err := os.Stat(repoPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, repoPath)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRepoNotFound, repoPath)
	}

	if _, err = os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		return fmt.Errorf("%w: %s", ErrNotGitRepo, repoPath)
	}

	return nil
}
