package numstat

import (
	"strconv"
	"strings"
	"time"
)

const (
	// CommitMarker starts every commit header line.
	CommitMarker = "COMMIT|"

	// Format is the git log --format argument producing header lines.
	Format = "COMMIT|%H|%an|%ad"

	// DateFormat is the --date argument matching the header date field.
	DateFormat = "short"

	binaryCount     = "-"
	headerMinFields = 4
	numstatFields   = 3
)

// CommitRecord is the parsed header of one commit.
type CommitRecord struct {
	Hash   string
	Author string
	// Date is nil when the header date is not a valid YYYY-MM-DD day.
	Date *time.Time
}

// FileChange is one numstat line.
type FileChange struct {
	Insertions int
	Deletions  int
	Path       string
	Binary     bool
}

// parseHeader decodes a COMMIT| line. ok is false when the line has too few fields.
func parseHeader(line string) (CommitRecord, bool) {
	fields := strings.Split(line, "|")
	if len(fields) < headerMinFields {
		return CommitRecord{}, false
	}

	rec := CommitRecord{
		Hash:   fields[1],
		Author: strings.TrimSpace(fields[2]),
	}

	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(fields[3])); err == nil {
		rec.Date = &d
	}

	return rec, true
}

// parseChange decodes "<ins>\t<del>\t<path>". A non-empty reason reports why
// the line cannot be folded; the path is kept for bad counts so the caller
// can still apply path exclusion first.
func parseChange(line string) (FileChange, SkipReason) {
	fields := strings.Split(line, "\t")
	if len(fields) != numstatFields {
		return FileChange{}, SkipMalformedNumstat
	}

	change := FileChange{Path: fields[2]}

	if fields[0] == binaryCount || fields[1] == binaryCount {
		change.Binary = true

		return change, ""
	}

	ins, insErr := strconv.Atoi(fields[0])
	del, delErr := strconv.Atoi(fields[1])

	if insErr != nil || delErr != nil || ins < 0 || del < 0 {
		return change, SkipBadCount
	}

	change.Insertions = ins
	change.Deletions = del

	return change, ""
}
