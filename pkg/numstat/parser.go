// Package numstat parses `git log --numstat` output in the COMMIT| header
// format into per-author contribution statistics.
//
// The expected input is produced by
//
//	git log --numstat --format=COMMIT|%H|%an|%ad --date=short
//
// and looks like
//
//	COMMIT|<hash>|<author>|<YYYY-MM-DD>
//	<insertions>\t<deletions>\t<path>
//
// Malformed lines are skipped and counted; parsing never fails on content.
// The parser does no date filtering, the since/until window is applied by
// whatever produced the log.
package numstat

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Sumatoshi-tech/contribfang/pkg/classify"
	"github.com/Sumatoshi-tech/contribfang/pkg/contrib"
)

// maxLineBytes bounds a single log line read by ParseReader.
const maxLineBytes = 1 << 20

// SkipReason names why a line did not contribute.
type SkipReason string

// Skip reasons.
const (
	SkipMalformedHeader  SkipReason = "malformed_header"
	SkipMalformedNumstat SkipReason = "malformed_numstat"
	SkipBadCount         SkipReason = "bad_count"
	SkipBinary           SkipReason = "binary"
	SkipNoAuthor         SkipReason = "no_author"
	SkipExcludedAuthor   SkipReason = "excluded_author"
	SkipExcludedPath     SkipReason = "excluded_path"
)

// Stats counts what happened to each input line.
type Stats struct {
	Lines   int
	Commits int
	Folded  int
	Skipped map[SkipReason]int
}

// SkippedTotal returns the number of skipped lines across all reasons.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}

	return total
}

// Result is the outcome of parsing one repository's log.
type Result struct {
	Authors map[string]*contrib.AuthorStats
	Stats   Stats
}

// parser holds the state of a single forward pass.
type parser struct {
	cls    *classify.Classifier
	result Result

	current    CommitRecord
	hasAuthor  bool
	suppressed bool
}

func newParser(cls *classify.Classifier) *parser {
	return &parser{
		cls: cls,
		result: Result{
			Authors: make(map[string]*contrib.AuthorStats),
			Stats:   Stats{Skipped: make(map[SkipReason]int)},
		},
	}
}

// Parse parses a complete log. Lines are split on "\n" only and blank lines
// are ignored.
func Parse(raw string, cls *classify.Classifier) Result {
	p := newParser(cls)

	for line := range strings.SplitSeq(raw, "\n") {
		p.feed(line)
	}

	return p.result
}

// ParseReader is the streaming form of Parse.
func ParseReader(r io.Reader, cls *classify.Classifier) (Result, error) {
	p := newParser(cls)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)
	scanner.Split(splitLF)

	for scanner.Scan() {
		p.feed(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return p.result, fmt.Errorf("read log: %w", err)
	}

	return p.result, nil
}

func (p *parser) feed(line string) {
	if line == "" {
		return
	}

	p.result.Stats.Lines++

	if strings.HasPrefix(line, CommitMarker) {
		p.header(line)

		return
	}

	p.change(line)
}

func (p *parser) header(line string) {
	rec, ok := parseHeader(line)
	if !ok {
		p.skip(SkipMalformedHeader)

		return
	}

	p.result.Stats.Commits++
	p.current = rec
	p.hasAuthor = rec.Author != ""
	p.suppressed = p.hasAuthor && p.cls.ShouldExcludeAuthor(rec.Author)
}

func (p *parser) change(line string) {
	fc, reject := parseChange(line)

	switch {
	case reject == SkipMalformedNumstat:
		p.skip(SkipMalformedNumstat)
	case fc.Binary:
		p.skip(SkipBinary)
	case p.suppressed:
		p.skip(SkipExcludedAuthor)
	case !p.hasAuthor:
		p.skip(SkipNoAuthor)
	case p.cls.ShouldExcludeFile(fc.Path):
		p.skip(SkipExcludedPath)
	case reject == SkipBadCount:
		p.skip(SkipBadCount)
	default:
		p.fold(fc)
	}
}

func (p *parser) fold(fc FileChange) {
	stats, ok := p.result.Authors[p.current.Author]
	if !ok {
		stats = contrib.NewAuthorStats()
		p.result.Authors[p.current.Author] = stats
	}

	stats.Fold(fc.Insertions, fc.Deletions, fc.Path, p.current.Hash, p.current.Date)
	p.result.Stats.Folded++
}

func (p *parser) skip(reason SkipReason) {
	p.result.Stats.Skipped[reason]++
}

// splitLF is bufio.ScanLines without the CR stripping.
func splitLF(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}
