// Package logline parses log file text into records for the viewer.
//
// Lines in the DMVCFramework layout
//
//	2025-11-25 17:22:04:997 [TID    25512][INFO   ] Message [tag]
//
// are split into fields. Lines with a leading ISO timestamp and a level word
// are parsed loosely. Anything else continues the previous record (stack
// traces, wrapped messages) or, at the top of a file, stands alone.
package logline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/five82/logmon/internal/discovery"
)

// Levels recognised by the filter, most severe first.
const (
	LevelError = "error"
	LevelWarn  = "warn"
	LevelInfo  = "info"
	LevelDebug = "debug"
)

// Levels lists the filterable levels in display order.
var Levels = []string{LevelError, LevelWarn, LevelInfo, LevelDebug}

// Record is one parsed log line.
type Record struct {
	Timestamp string
	TID       string
	Level     string // normalised, empty when unknown
	Message   string
	Tag       string
	Source    string // filename the line came from
	Raw       string
}

var (
	dmvcRe    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}:\d{3})\s+\[TID\s+(\d+)\]\[(\w+)\s*\]\s+(.+?)(?:\s+\[([^\]]+)\])?\s*$`)
	genericRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,:]\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\s+\[?([A-Za-z]+)\]?:?\s+(.*)$`)
)

// NormalizeLevel maps level spellings onto Levels. Unknown levels are
// returned lower-cased.
func NormalizeLevel(level string) string {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "warning":
		return LevelWarn
	case "err", "fatal", "critical":
		return LevelError
	case "trace":
		return LevelDebug
	default:
		return l
	}
}

// Parse splits text into records attributed to entry.
func Parse(text string, entry discovery.Entry) []Record {
	return ParseLines(strings.Split(text, "\n"), entry)
}

// ParseLines is Parse for text already split into lines.
func ParseLines(lines []string, entry discovery.Entry) []Record {
	var out []Record
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if rec, ok := parseLine(line, entry); ok {
			out = append(out, rec)
			continue
		}
		if n := len(out); n > 0 {
			out[n-1].Message += "\n" + line
			out[n-1].Raw += "\n" + line
			continue
		}
		out = append(out, Record{Message: line, Tag: entry.Tag, Source: entry.Filename, Raw: line})
	}
	return out
}

func parseLine(line string, entry discovery.Entry) (Record, bool) {
	if m := dmvcRe.FindStringSubmatch(line); m != nil {
		tag := m[5]
		if tag == "" {
			tag = entry.Tag
		}
		return Record{
			Timestamp: m[1],
			TID:       m[2],
			Level:     NormalizeLevel(m[3]),
			Message:   strings.TrimSpace(m[4]),
			Tag:       tag,
			Source:    entry.Filename,
			Raw:       line,
		}, true
	}
	if m := genericRe.FindStringSubmatch(line); m != nil {
		level := NormalizeLevel(m[2])
		if !isLevel(level) {
			return Record{}, false
		}
		return Record{
			Timestamp: m[1],
			Level:     level,
			Message:   strings.TrimSpace(m[3]),
			Tag:       entry.Tag,
			Source:    entry.Filename,
			Raw:       line,
		}, true
	}
	return Record{}, false
}

func isLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Merge orders records from several files by timestamp and keeps the last
// limit of them. Records with equal timestamps keep their input order.
// limit <= 0 keeps everything.
func Merge(records []Record, limit int) []Record {
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Filter returns the records at level (empty means all) whose raw text
// contains query, compared case-insensitively, and whose timestamp lies in
// within.
func Filter(records []Record, level, query string, within Range) []Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if level == "" && query == "" && within.IsZero() {
		return records
	}
	var out []Record
	for _, r := range records {
		if level != "" && r.Level != level {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(r.Raw), query) {
			continue
		}
		if !within.Contains(r.Timestamp) {
			continue
		}
		out = append(out, r)
	}
	return out
}
