package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"musica/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "musica")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if !filepath.IsAbs(cfg.Paths.InputDir) {
		t.Fatalf("expected absolute input dir, got %q", cfg.Paths.InputDir)
	}
	if cfg.Pipeline.ParseWorkers != 4 {
		t.Fatalf("expected 4 parse workers, got %d", cfg.Pipeline.ParseWorkers)
	}
	if cfg.Pipeline.DispatchWorkers != 2 {
		t.Fatalf("expected 2 dispatch workers, got %d", cfg.Pipeline.DispatchWorkers)
	}
	if cfg.Segments.Mode != config.SegmentModeMemory {
		t.Fatalf("expected memory segment mode, got %q", cfg.Segments.Mode)
	}
	if cfg.QueuePath() != filepath.Join(wantData, "queue.db") {
		t.Fatalf("unexpected queue path: %q", cfg.QueuePath())
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
input_dir = "~/scripts"
data_dir = "~/data"

[input]
patterns = ["**/*.sc", "  "]
encoding = "Shift_JIS"

[segments]
mode = "DISK"

[pipeline]
parse_workers = 8
dispatch_workers = 3

[logging]
format = "JSON"
level = "Debug"

[logging.stage_overrides]
Parse = "WARN"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.InputDir != filepath.Join(tempHome, "scripts") {
		t.Fatalf("unexpected input dir: %q", cfg.Paths.InputDir)
	}
	if len(cfg.Input.Patterns) != 1 || cfg.Input.Patterns[0] != "**/*.sc" {
		t.Fatalf("expected blank patterns dropped, got %v", cfg.Input.Patterns)
	}
	if cfg.Input.Encoding != "shift_jis" {
		t.Fatalf("expected lowercased encoding, got %q", cfg.Input.Encoding)
	}
	if cfg.Segments.Mode != config.SegmentModeDisk {
		t.Fatalf("expected disk mode, got %q", cfg.Segments.Mode)
	}
	if cfg.SegmentDir() != filepath.Join(tempHome, "data", "segments") {
		t.Fatalf("unexpected segment dir: %q", cfg.SegmentDir())
	}
	if cfg.Pipeline.ParseWorkers != 8 || cfg.Pipeline.DispatchWorkers != 3 {
		t.Fatalf("unexpected worker counts: %+v", cfg.Pipeline)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Logging.StageOverrides["parse"] != "warn" {
		t.Fatalf("expected normalized stage override, got %v", cfg.Logging.StageOverrides)
	}
}

func TestLoadHonorsInputDirEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	override := filepath.Join(tempHome, "override")
	t.Setenv("MUSICA_INPUT_DIR", override)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.InputDir != override {
		t.Fatalf("expected input dir from env, got %q", cfg.Paths.InputDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero parse workers", func(c *config.Config) { c.Pipeline.ParseWorkers = 0 }, "parse_workers"},
		{"zero dispatch workers", func(c *config.Config) { c.Pipeline.DispatchWorkers = 0 }, "dispatch_workers"},
		{"negative analyze workers", func(c *config.Config) { c.Pipeline.AnalyzeWorkers = -1 }, "analyze_workers"},
		{"unknown segment mode", func(c *config.Config) { c.Segments.Mode = "tape" }, "segments.mode"},
		{"unknown encoding", func(c *config.Config) { c.Input.Encoding = "ebcdic" }, "input.encoding"},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"heartbeat timeout too small", func(c *config.Config) { c.Pipeline.HeartbeatTimeout = c.Pipeline.HeartbeatInterval }, "heartbeat_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "broken.toml")
	if err := os.WriteFile(path, []byte("[pipeline\nparse_workers = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectoriesCreatesSegmentDirInDiskMode(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Segments.Mode = config.SegmentModeDisk

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.SegmentDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}
