package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InputDir string `toml:"input_dir"`
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
}

// Input controls how script files are discovered and decoded.
type Input struct {
	// Patterns are doublestar globs matched against paths relative to InputDir.
	Patterns []string `toml:"patterns"`
	// Exclude lists doublestar globs skipped even when a pattern matches.
	Exclude []string `toml:"exclude"`
	// Encoding names the character encoding of the script files.
	Encoding string `toml:"encoding"`
	// Watch keeps the runner alive and enqueues files created after startup.
	Watch bool `toml:"watch"`
	// WatchDebounceMillis coalesces bursts of writes to the same file.
	WatchDebounceMillis int `toml:"watch_debounce_ms"`
}

// Segments controls the per-file segment stores.
type Segments struct {
	// Mode is "memory" (shared-cache in-memory SQLite) or "disk".
	Mode string `toml:"mode"`
}

// Pipeline contains worker concurrency and timing for the job pipeline.
type Pipeline struct {
	ParseWorkers       int `toml:"parse_workers"`
	DispatchWorkers    int `toml:"dispatch_workers"`
	AnalyzeWorkers     int `toml:"analyze_workers"`
	TranslateWorkers   int `toml:"translate_workers"`
	AssembleWorkers    int `toml:"assemble_workers"`
	QueuePollMillis    int `toml:"queue_poll_interval_ms"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	// Listen is the bind address for /metrics; empty disables the endpoint.
	Listen string `toml:"listen"`
}

// Config encapsulates all configuration values for musica.
//
// Configuration sections by subsystem:
//   - Paths: input, data (queue + segment stores), and log directories
//   - Input: file discovery patterns, text encoding, watch mode
//   - Segments: segment store backing mode
//   - Pipeline: per-stage worker counts, polling and heartbeat timing
//   - Logging: log format, level, and per-stage overrides
//   - Metrics: Prometheus exposition address
type Config struct {
	Paths    Paths    `toml:"paths"`
	Input    Input    `toml:"input"`
	Segments Segments `toml:"segments"`
	Pipeline Pipeline `toml:"pipeline"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/musica/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("musica.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories. The input directory
// is never created; it belongs to the user.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Segments.Mode == SegmentModeDisk {
		dirs = append(dirs, c.SegmentDir())
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueuePath returns the SQLite database backing every stage queue.
func (c *Config) QueuePath() string {
	return filepath.Join(c.Paths.DataDir, "queue.db")
}

// SegmentDir returns the directory holding on-disk segment stores.
func (c *Config) SegmentDir() string {
	return filepath.Join(c.Paths.DataDir, "segments")
}

// LockPath returns the single-instance lock file used by the runner.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "musica.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
