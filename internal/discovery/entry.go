package discovery

import (
	"encoding/json"
	"time"
)

// UnknownPattern is reported for entries whose rule has no description.
const UnknownPattern = "Unknown pattern"

// Entry is one classified log file. AbsolutePath is canonical (symlinks
// resolved) and identifies the file within a catalog.
type Entry struct {
	Filename     string
	Path         string // slash-separated web path
	AbsolutePath string
	Tag          string
	Name         string
	Size         int64
	Modified     time.Time
	Pattern      string
}

type entryJSON struct {
	Filename     string  `json:"filename"`
	Path         string  `json:"path"`
	AbsolutePath string  `json:"absolutePath"`
	Tag          string  `json:"tag"`
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	Modified     float64 `json:"modified"`
	Pattern      string  `json:"pattern"`
}

// MarshalJSON encodes the entry with Modified as fractional Unix seconds.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Filename:     e.Filename,
		Path:         e.Path,
		AbsolutePath: e.AbsolutePath,
		Tag:          e.Tag,
		Name:         e.Name,
		Size:         e.Size,
		Modified:     UnixSeconds(e.Modified),
		Pattern:      e.Pattern,
	})
}

// UnmarshalJSON decodes the MarshalJSON layout, reading Modified from Unix
// seconds.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{
		Filename:     raw.Filename,
		Path:         raw.Path,
		AbsolutePath: raw.AbsolutePath,
		Tag:          raw.Tag,
		Name:         raw.Name,
		Size:         raw.Size,
		Modified:     FromUnixSeconds(raw.Modified),
		Pattern:      raw.Pattern,
	}
	return nil
}

// UnixSeconds converts t to fractional seconds since the epoch.
func UnixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromUnixSeconds is the inverse of UnixSeconds at microsecond precision.
func FromUnixSeconds(s float64) time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.UnixMicro(int64(s * 1e6))
}
