// Package prefs persists logmon viewer preferences.
// Preferences are stored in ~/.config/logmon/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/logmon/internal/config"
)

// Prefs holds viewer preferences.
type Prefs struct {
	Theme      string `toml:"theme"`
	Server     string `toml:"server,omitempty"`
	LastTag    string `toml:"last_tag,omitempty"`
	Level      string `toml:"level,omitempty"`
	AutoScroll *bool  `toml:"auto_scroll,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/logmon/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Default returns the preferences used when no file exists.
func Default() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Following reports whether the viewer should stick to the end of the log.
// Unset means yes.
func (p Prefs) Following() bool {
	return p.AutoScroll == nil || *p.AutoScroll
}

// Load reads preferences from the given path, falling back to defaults if
// the file is missing or unreadable. Preferences never block startup.
func Load(path string) Prefs {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return prefs
	}
	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Default()
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	prefs.Level = strings.ToLower(strings.TrimSpace(prefs.Level))
	return prefs
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return config.ExpandPath(defaultPrefsPath)
	}
	return config.ExpandPath(path)
}
