package config

import (
	"strings"

	"github.com/five82/logmon/internal/pattern"
)

// File is the on-disk config layout shared by the JSON, TOML and YAML
// formats. Zero values mean "use the default".
type File struct {
	ScanPaths        []string   `json:"scanPaths" toml:"scanPaths" yaml:"scanPaths"`
	LogPatterns      []FileRule `json:"logPatterns" toml:"logPatterns" yaml:"logPatterns"`
	Port             int        `json:"port,omitempty" toml:"port,omitempty" yaml:"port,omitempty"`
	MaxFileReadSize  int64      `json:"maxFileReadSize,omitempty" toml:"maxFileReadSize,omitempty" yaml:"maxFileReadSize,omitempty"`
	UpdateInterval   int        `json:"updateInterval,omitempty" toml:"updateInterval,omitempty" yaml:"updateInterval,omitempty"`
	MaxEntriesPerTag int        `json:"maxEntriesPerTag,omitempty" toml:"maxEntriesPerTag,omitempty" yaml:"maxEntriesPerTag,omitempty"`
}

// FileRule is a pattern rule as written in a config file. Absent group
// indices default to 1.
type FileRule struct {
	Pattern     string `json:"pattern" toml:"pattern" yaml:"pattern"`
	Regex       string `json:"regex" toml:"regex" yaml:"regex"`
	TagGroup    *int   `json:"tagGroup,omitempty" toml:"tagGroup,omitempty" yaml:"tagGroup,omitempty"`
	NameGroup   *int   `json:"nameGroup,omitempty" toml:"nameGroup,omitempty" yaml:"nameGroup,omitempty"`
	Description string `json:"description,omitempty" toml:"description,omitempty" yaml:"description,omitempty"`
}

func (f File) apply(cfg Config) Config {
	if paths := trimmed(f.ScanPaths); len(paths) > 0 {
		cfg.ScanPaths = paths
	}
	if len(f.LogPatterns) > 0 {
		rules := make([]pattern.Rule, 0, len(f.LogPatterns))
		for _, fr := range f.LogPatterns {
			rules = append(rules, fr.rule())
		}
		cfg.LogPatterns = rules
	}
	if f.Port > 0 {
		cfg.Port = f.Port
	}
	if f.MaxFileReadSize > 0 {
		cfg.MaxFileReadSize = f.MaxFileReadSize
	}
	if f.UpdateInterval > 0 {
		cfg.UpdateInterval = f.UpdateInterval
	}
	if f.MaxEntriesPerTag > 0 {
		cfg.MaxEntriesPerTag = f.MaxEntriesPerTag
	}
	return cfg
}

func (fr FileRule) rule() pattern.Rule {
	r := pattern.Rule{
		Pattern:     strings.TrimSpace(fr.Pattern),
		Regex:       fr.Regex,
		TagGroup:    1,
		NameGroup:   1,
		Description: strings.TrimSpace(fr.Description),
	}
	if fr.TagGroup != nil {
		r.TagGroup = *fr.TagGroup
	}
	if fr.NameGroup != nil {
		r.NameGroup = *fr.NameGroup
	}
	return r
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
