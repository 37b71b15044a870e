package config

import (
	"errors"
	"fmt"
	"strings"
)

var supportedEncodings = map[string]struct{}{
	"utf-8":     {},
	"utf8":      {},
	"shift_jis": {},
	"sjis":      {},
	"euc-jp":    {},
	"gbk":       {},
	"gb18030":   {},
	"big5":      {},
	"utf-16le":  {},
	"utf-16be":  {},
}

// SupportedEncodings lists the encoding names accepted by input.encoding.
func SupportedEncodings() []string {
	return []string{"utf-8", "shift_jis", "euc-jp", "gbk", "gb18030", "big5", "utf-16le", "utf-16be"}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateSegments(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateInput() error {
	if _, ok := supportedEncodings[c.Input.Encoding]; !ok {
		return fmt.Errorf("input.encoding: unsupported value %q (supported: %s)", c.Input.Encoding, strings.Join(SupportedEncodings(), ", "))
	}
	return nil
}

func (c *Config) validateSegments() error {
	switch c.Segments.Mode {
	case SegmentModeMemory, SegmentModeDisk:
		return nil
	default:
		return fmt.Errorf("segments.mode: unsupported value %q (expected %q or %q)", c.Segments.Mode, SegmentModeMemory, SegmentModeDisk)
	}
}

func (c *Config) validatePipeline() error {
	workers := map[string]int{
		"pipeline.parse_workers":     c.Pipeline.ParseWorkers,
		"pipeline.dispatch_workers":  c.Pipeline.DispatchWorkers,
		"pipeline.analyze_workers":   c.Pipeline.AnalyzeWorkers,
		"pipeline.translate_workers": c.Pipeline.TranslateWorkers,
		"pipeline.assemble_workers":  c.Pipeline.AssembleWorkers,
	}
	for key, value := range workers {
		if value < 0 {
			return fmt.Errorf("%s must be zero or positive", key)
		}
	}
	if c.Pipeline.ParseWorkers == 0 {
		return errors.New("pipeline.parse_workers must be positive")
	}
	if c.Pipeline.DispatchWorkers == 0 {
		return errors.New("pipeline.dispatch_workers must be positive")
	}
	if c.Pipeline.HeartbeatTimeout <= c.Pipeline.HeartbeatInterval {
		return errors.New("pipeline.heartbeat_timeout must be greater than pipeline.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
