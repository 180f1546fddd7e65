package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/five82/logmon/internal/pattern"
)

// Config is the immutable runtime configuration of a logmon server.
type Config struct {
	ScanPaths        []string
	LogPatterns      []pattern.Rule
	MaxFileReadSize  int64
	Port             int
	UpdateInterval   int // milliseconds, consumed by clients
	MaxEntriesPerTag int // consumed by clients
	// BaseDir anchors relative scan paths, web paths and static file serving.
	BaseDir string
	// Source is the file the config was read from; empty for built-in defaults.
	Source string
}

const (
	DefaultConfigPath       = "config.json"
	DefaultPort             = 8080
	DefaultMaxFileReadSize  = 512 * 1024
	DefaultUpdateInterval   = 2000
	DefaultMaxEntriesPerTag = 1000
)

// Default returns the built-in configuration anchored at baseDir.
func Default(baseDir string) Config {
	return Config{
		ScanPaths:        []string{"."},
		LogPatterns:      []pattern.Rule{pattern.DefaultRule()},
		MaxFileReadSize:  DefaultMaxFileReadSize,
		Port:             DefaultPort,
		UpdateInterval:   DefaultUpdateInterval,
		MaxEntriesPerTag: DefaultMaxEntriesPerTag,
		BaseDir:          baseDir,
	}
}

// Load reads the config file at path (config.json in the working directory
// when empty). The returned Config is always usable: when the file is missing
// or cannot be parsed, Load returns the defaults together with the cause so
// the caller can report it. BaseDir is the directory holding the config file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		cwd, _ := os.Getwd()
		return Default(cwd), err
	}
	baseDir := filepath.Dir(resolved)
	cfg := Default(baseDir)

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config %s not found: %w", resolved, err)
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	raw, err := decode(resolved, data)
	if err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	merged := raw.apply(cfg)
	merged.Source = resolved
	return merged, nil
}

func decode(path string, data []byte) (File, error) {
	var raw File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err := toml.Unmarshal(data, &raw)
		return raw, err
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return File{}, err
		}
		return raw, nil
	default:
		err := json.Unmarshal(data, &raw)
		return raw, err
	}
}

// Validate reports settings that would make the server misbehave. Rules are
// not checked here: a rule with a missing or invalid regex is inert and
// discovery reports it as a rule_invalid diagnostic.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxFileReadSize <= 0 {
		errs = append(errs, fmt.Errorf("maxFileReadSize must be positive, got %d", c.MaxFileReadSize))
	}
	if len(c.ScanPaths) == 0 {
		errs = append(errs, errors.New("scanPaths is empty"))
	}
	for i, p := range c.ScanPaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("scanPaths[%d] is empty", i))
		}
	}
	return errors.Join(errs...)
}

// ListenAddr returns the host:port the HTTP server binds.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Document renders the config in its on-disk layout.
func (c Config) Document() File {
	doc := File{
		ScanPaths:        append([]string(nil), c.ScanPaths...),
		LogPatterns:      make([]FileRule, 0, len(c.LogPatterns)),
		Port:             c.Port,
		MaxFileReadSize:  c.MaxFileReadSize,
		UpdateInterval:   c.UpdateInterval,
		MaxEntriesPerTag: c.MaxEntriesPerTag,
	}
	for _, r := range c.LogPatterns {
		tag, name := r.TagGroup, r.NameGroup
		doc.LogPatterns = append(doc.LogPatterns, FileRule{
			Pattern:     r.Pattern,
			Regex:       r.Regex,
			TagGroup:    &tag,
			NameGroup:   &name,
			Description: r.Description,
		})
	}
	return doc
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(DefaultConfigPath)
	}
	return expandPath(path)
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
