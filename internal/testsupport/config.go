package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"musica/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Pipeline.QueuePollMillis = 20
	cfgVal.Pipeline.ErrorRetryInterval = 1
	cfgVal.Pipeline.HeartbeatInterval = 1
	cfgVal.Pipeline.HeartbeatTimeout = 30

	if err := os.MkdirAll(cfgVal.Paths.InputDir, 0o755); err != nil {
		t.Fatalf("mkdir input dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDiskSegments switches the segment stores to on-disk databases.
func WithDiskSegments() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Segments.Mode = config.SegmentModeDisk
	}
}

// WithWorkers overrides the parse and dispatch worker counts.
func WithWorkers(parse, dispatch int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.ParseWorkers = parse
		b.cfg.Pipeline.DispatchWorkers = dispatch
	}
}

// WithEncoding sets the input encoding.
func WithEncoding(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Input.Encoding = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
