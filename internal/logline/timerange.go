package logline

import (
	"fmt"
	"strings"
	"time"
)

// rangeLayouts are the accepted bound spellings, coarsest first.
var rangeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// Range bounds records by timestamp. Bounds are "YYYY-MM-DD", optionally
// followed by "HH:MM" or "HH:MM:SS", and both are inclusive at their own
// precision: Until "2025-11-25 17:22" keeps 17:22:59. An empty bound is open.
type Range struct {
	Since string
	Until string
}

// ParseRange reads "SINCE..UNTIL" where either side may be empty. A value
// without ".." is a lower bound. A 'T' between date and time is accepted.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, nil
	}
	since, until, found := strings.Cut(s, "..")
	if !found {
		until = ""
	}
	var (
		r   Range
		err error
	)
	if r.Since, err = parseBound(since); err != nil {
		return Range{}, fmt.Errorf("parse since: %w", err)
	}
	if r.Until, err = parseBound(until); err != nil {
		return Range{}, fmt.Errorf("parse until: %w", err)
	}
	if r.Since != "" && r.Until != "" && stampPrefix(r.Since, len(r.Until)) > r.Until {
		return Range{}, fmt.Errorf("since %s is after until %s", r.Since, r.Until)
	}
	return r, nil
}

func parseBound(s string) (string, error) {
	s = strings.Replace(strings.TrimSpace(s), "T", " ", 1)
	if s == "" {
		return "", nil
	}
	for _, layout := range rangeLayouts {
		if len(s) != len(layout) {
			continue
		}
		if _, err := time.Parse(layout, s); err == nil {
			return s, nil
		}
	}
	return "", fmt.Errorf("%q is not YYYY-MM-DD[ HH:MM[:SS]]", s)
}

// IsZero reports whether the range has no bounds.
func (r Range) IsZero() bool {
	return r.Since == "" && r.Until == ""
}

// Contains reports whether a record timestamp lies in the range. Records
// without a timestamp only pass an unbounded range.
func (r Range) Contains(timestamp string) bool {
	if r.IsZero() {
		return true
	}
	if timestamp == "" {
		return false
	}
	ts := strings.Replace(timestamp, "T", " ", 1)
	if r.Since != "" && stampPrefix(ts, len(r.Since)) < r.Since {
		return false
	}
	if r.Until != "" && stampPrefix(ts, len(r.Until)) > r.Until {
		return false
	}
	return true
}

// String renders the range in ParseRange syntax.
func (r Range) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Since + ".." + r.Until
}

func stampPrefix(ts string, n int) string {
	if len(ts) > n {
		return ts[:n]
	}
	return ts
}
