package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/logmon/internal/pattern"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "does-not-exist.json"))
	if err == nil {
		t.Fatalf("Load returned nil error, want not-found cause")
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.MaxFileReadSize != DefaultMaxFileReadSize {
		t.Fatalf("MaxFileReadSize = %d, want %d", cfg.MaxFileReadSize, DefaultMaxFileReadSize)
	}
	if len(cfg.ScanPaths) != 1 || cfg.ScanPaths[0] != "." {
		t.Fatalf("ScanPaths = %v, want [.]", cfg.ScanPaths)
	}
	if len(cfg.LogPatterns) != 1 || cfg.LogPatterns[0] != pattern.DefaultRule() {
		t.Fatalf("LogPatterns = %#v, want default rule", cfg.LogPatterns)
	}
	if cfg.BaseDir != dir {
		t.Fatalf("BaseDir = %q, want %q", cfg.BaseDir, dir)
	}
	if cfg.Source != "" {
		t.Fatalf("Source = %q, want empty for defaults", cfg.Source)
	}
}

func TestLoad_ParsesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{
  "scanPaths": [" logs ", "", "../shared"],
  "logPatterns": [
    {"pattern": "*.log", "regex": "^(\\w+)\\.log$", "tagGroup": 1, "nameGroup": 1, "description": "plain"},
    {"regex": "^(\\w+)-(\\w+)\\.log$"}
  ],
  "port": 9090,
  "maxFileReadSize": 1024,
  "updateInterval": 500,
  "maxEntriesPerTag": 50,
  "somethingElse": true
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := strings.Join(cfg.ScanPaths, ","); got != "logs,../shared" {
		t.Fatalf("ScanPaths = %q, want %q", got, "logs,../shared")
	}
	if cfg.Port != 9090 || cfg.MaxFileReadSize != 1024 || cfg.UpdateInterval != 500 || cfg.MaxEntriesPerTag != 50 {
		t.Fatalf("numeric fields = %d/%d/%d/%d, want 9090/1024/500/50",
			cfg.Port, cfg.MaxFileReadSize, cfg.UpdateInterval, cfg.MaxEntriesPerTag)
	}
	if len(cfg.LogPatterns) != 2 {
		t.Fatalf("LogPatterns len = %d, want 2", len(cfg.LogPatterns))
	}
	if cfg.LogPatterns[0].Description != "plain" || cfg.LogPatterns[0].Pattern != "*.log" {
		t.Fatalf("LogPatterns[0] = %#v", cfg.LogPatterns[0])
	}
	second := cfg.LogPatterns[1]
	if second.TagGroup != 1 || second.NameGroup != 1 {
		t.Fatalf("absent groups = %d/%d, want 1/1", second.TagGroup, second.NameGroup)
	}
	if cfg.BaseDir != dir || cfg.Source != path {
		t.Fatalf("BaseDir/Source = %q/%q, want %q/%q", cfg.BaseDir, cfg.Source, dir, path)
	}
}

func TestLoad_ExplicitZeroGroupIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"logPatterns": [{"regex": "^.+\\.log$", "tagGroup": 0, "nameGroup": 7}]}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogPatterns[0].TagGroup != 0 || cfg.LogPatterns[0].NameGroup != 7 {
		t.Fatalf("groups = %d/%d, want 0/7", cfg.LogPatterns[0].TagGroup, cfg.LogPatterns[0].NameGroup)
	}
}

func TestLoad_ParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logmon.toml")
	writeFile(t, path, `
scanPaths = ["var/log"]
port = 7000

[[logPatterns]]
regex = '^(\w+)\.log$'
tagGroup = 1
nameGroup = 1
description = "toml rule"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != 7000 {
		t.Fatalf("Port = %d, want 7000", cfg.Port)
	}
	if len(cfg.LogPatterns) != 1 || cfg.LogPatterns[0].Description != "toml rule" {
		t.Fatalf("LogPatterns = %#v", cfg.LogPatterns)
	}
	if cfg.MaxFileReadSize != DefaultMaxFileReadSize {
		t.Fatalf("MaxFileReadSize = %d, want default", cfg.MaxFileReadSize)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logmon.yaml")
	writeFile(t, path, `
scanPaths:
  - logs
logPatterns:
  - regex: '^(\w+)\.(\w+)\.log$'
    tagGroup: 2
    nameGroup: 1
maxFileReadSize: 2048
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.MaxFileReadSize != 2048 {
		t.Fatalf("MaxFileReadSize = %d, want 2048", cfg.MaxFileReadSize)
	}
	if cfg.LogPatterns[0].TagGroup != 2 {
		t.Fatalf("TagGroup = %d, want 2", cfg.LogPatterns[0].TagGroup)
	}
}

func TestLoad_YAMLRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logmon.yml")
	writeFile(t, path, "scanPaths: [a]\nbogus: 1\n")

	cfg, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if cfg.ScanPaths[0] != "." {
		t.Fatalf("ScanPaths = %v, want defaults after parse failure", cfg.ScanPaths)
	}
}

func TestLoad_InvalidJSONFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"scanPaths": [`)

	cfg, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
	if cfg.Port != DefaultPort || len(cfg.LogPatterns) != 1 {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default(t.TempDir())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate(defaults) = %v, want nil", err)
	}

	cfg.Port = 70000
	cfg.MaxFileReadSize = 0
	cfg.ScanPaths = []string{" "}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("Validate returned nil, want errors")
	}
	for _, want := range []string{"port", "maxFileReadSize", "scanPaths[0]"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Validate error = %q, want it to mention %q", err.Error(), want)
		}
	}
}

func TestValidate_IgnoresRegexlessRules(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.LogPatterns = []pattern.Rule{{Pattern: "*.log", TagGroup: 1}, pattern.DefaultRule()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate = %v, want nil for an inert rule", err)
	}
}

func TestDocument_RoundTripsGroups(t *testing.T) {
	cfg := Default("/srv")
	doc := cfg.Document()
	if len(doc.LogPatterns) != 1 {
		t.Fatalf("LogPatterns len = %d, want 1", len(doc.LogPatterns))
	}
	rule := doc.LogPatterns[0]
	if rule.TagGroup == nil || *rule.TagGroup != 3 || rule.NameGroup == nil || *rule.NameGroup != 1 {
		t.Fatalf("document groups = %v/%v, want 3/1", rule.TagGroup, rule.NameGroup)
	}
	if doc.Port != DefaultPort {
		t.Fatalf("Port = %d, want %d", doc.Port, DefaultPort)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("ExpandPath returned nil error, want error")
	}
}
