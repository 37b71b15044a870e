// Package config loads, normalizes, and validates musica configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MUSICA_INPUT_DIR. The Config type centralizes every knob the pipeline runner
// and CLI need: where scripts are read from, where the queue database and
// segment stores live, how many workers each stage runs, and how logs and
// metrics are emitted.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
