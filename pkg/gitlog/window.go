// Package gitlog retrieves numstat logs from local repositories and finds
// the repositories to analyze.
package gitlog

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeFormat is returned when a time string cannot be parsed.
var ErrInvalidTimeFormat = errors.New("cannot parse time")

// ErrInvertedWindow is returned when since is after until.
var ErrInvertedWindow = errors.New("since is after until")

// Window bounds the commits a log includes. Nil bounds are open.
type Window struct {
	Since *time.Time
	Until *time.Time
}

// ParseTime parses a time string in various formats:
// - Duration relative to now (e.g. "720h")
// - RFC3339 (e.g. "2024-01-01T00:00:00Z")
// - Date only (e.g. "2024-01-01").
func ParseTime(s string) (time.Time, error) {
	d, durationErr := time.ParseDuration(s)
	if durationErr == nil {
		return time.Now().Add(-d), nil
	}

	parsedTime, rfc3339Err := time.Parse(time.RFC3339, s)
	if rfc3339Err == nil {
		return parsedTime, nil
	}

	parsedTime, dateOnlyErr := time.Parse(time.DateOnly, s)
	if dateOnlyErr == nil {
		return parsedTime, nil
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimeFormat, s)
}

// NewWindow parses since and until. Empty strings leave that side open.
// A date-only until covers the whole day.
func NewWindow(since, until string) (Window, error) {
	var w Window

	if since != "" {
		t, err := ParseTime(since)
		if err != nil {
			return Window{}, fmt.Errorf("since: %w", err)
		}

		w.Since = &t
	}

	if until != "" {
		t, err := ParseTime(until)
		if err != nil {
			return Window{}, fmt.Errorf("until: %w", err)
		}

		if _, dateErr := time.Parse(time.DateOnly, until); dateErr == nil {
			t = t.Add(24*time.Hour - time.Second)
		}

		w.Until = &t
	}

	if w.Since != nil && w.Until != nil && w.Since.After(*w.Until) {
		return Window{}, fmt.Errorf("%w: %s > %s", ErrInvertedWindow, since, until)
	}

	return w, nil
}

// Args renders the window as git log flags.
func (w Window) Args() []string {
	var args []string

	if w.Since != nil {
		args = append(args, "--since="+w.Since.Format(time.RFC3339))
	}

	if w.Until != nil {
		args = append(args, "--until="+w.Until.Format(time.RFC3339))
	}

	return args
}

// String describes the window for logs and reports.
func (w Window) String() string {
	from, to := "beginning", "now"

	if w.Since != nil {
		from = w.Since.Format(time.DateOnly)
	}

	if w.Until != nil {
		to = w.Until.Format(time.DateOnly)
	}

	return from + " .. " + to
}
