// Package render writes contribution reports as text tables, JSON or YAML.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/contribfang/pkg/contrib"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat maps a case-insensitive name to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Document is everything a rendered report contains.
type Document struct {
	Window   string                         `json:"window"   yaml:"window"`
	Totals   contrib.Totals                 `json:"totals"   yaml:"totals"`
	Authors  []contrib.AuthorSummary        `json:"authors"  yaml:"authors"`
	Profiles map[string]contrib.WorkProfile `json:"profiles" yaml:"profiles"`

	contrib.Report `yaml:",inline"`
}

// NewDocument derives totals, author summaries and work profiles from report.
func NewDocument(report *contrib.Report, window string) Document {
	if report == nil {
		report = &contrib.Report{}
	}

	profiles := make(map[string]contrib.WorkProfile, len(report.Categories))
	for author, cats := range report.Categories {
		profiles[author] = contrib.Profile(cats)
	}

	return Document{
		Window:   window,
		Totals:   contrib.ComputeTotals(report.Rows),
		Authors:  contrib.Summaries(report.Rows),
		Profiles: profiles,
		Report:   *report,
	}
}

// Options controls Write.
type Options struct {
	Format  Format
	NoColor bool
}

// Write encodes doc to w.
func Write(w io.Writer, doc Document, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	case FormatText, "":
		return writeText(w, doc, opts.NoColor)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}
