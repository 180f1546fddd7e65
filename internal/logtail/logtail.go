package logtail

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Ext is the extension that marks a file as a log file.
const Ext = ".log"

// Content is the result of a bounded read.
type Content struct {
	Data      []byte
	Size      int64 // file size at read time
	ModTime   time.Time
	Truncated bool
}

// IsLogFile reports whether name carries the log extension.
func IsLogFile(name string) bool {
	return filepath.Ext(name) == Ext
}

// Read returns the file at path, or only its tail when the file is larger
// than maxBytes. A tail starts right after the first newline inside the final
// maxBytes window so it never begins mid-line; if the window holds no newline
// the returned data is empty. maxBytes <= 0 disables the limit.
func Read(path string, maxBytes int64) (Content, error) {
	file, err := os.Open(path)
	if err != nil {
		return Content{}, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return Content{}, fmt.Errorf("stat log: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Content{}, fmt.Errorf("read log: %s is not a regular file", path)
	}
	out := Content{Size: info.Size(), ModTime: info.ModTime()}

	if maxBytes <= 0 || out.Size <= maxBytes {
		var r io.Reader = file
		if maxBytes > 0 {
			r = io.LimitReader(file, maxBytes)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return Content{}, fmt.Errorf("read log: %w", err)
		}
		out.Data = data
		return out, nil
	}

	window := make([]byte, maxBytes)
	n, err := file.ReadAt(window, out.Size-maxBytes)
	if err != nil && !errors.Is(err, io.EOF) {
		return Content{}, fmt.Errorf("read log tail: %w", err)
	}
	window = window[:n]
	if idx := bytes.IndexByte(window, '\n'); idx >= 0 {
		window = window[idx+1:]
	} else {
		window = window[:0]
	}
	out.Data = window
	out.Truncated = true
	return out, nil
}

// Lines returns at most maxLines lines from the end of data. maxLines <= 0
// returns every line.
func Lines(data []byte, maxLines int) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("split lines: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("split lines: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}
