package extractor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"musica/internal/config"
	"musica/internal/logging"
	"musica/internal/metrics"
	"musica/internal/segmentstore"
	"musica/internal/services"
	"musica/internal/textutil"
)

const stageName = "parse"

// Extractor parses script files and writes their segments into the store
// registered for each script name.
type Extractor struct {
	grammar  Grammar
	registry *segmentstore.Registry
	encoding string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithEncoding sets the input encoding used to decode script bytes.
func WithEncoding(name string) Option {
	return func(e *Extractor) {
		e.encoding = name
	}
}

// WithLogger sets the logger used for per-file summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records extraction counts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// New constructs an Extractor. A nil grammar selects DefaultGrammar.
func New(grammar Grammar, registry *segmentstore.Registry, opts ...Option) *Extractor {
	if grammar == nil {
		grammar = DefaultGrammar()
	}
	e := &Extractor{
		grammar:  grammar,
		registry: registry,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.logger = logging.NewComponentLogger(e.logger, "extractor")
	return e
}

// NewFromConfig wires an Extractor with the configured input encoding.
func NewFromConfig(cfg *config.Config, registry *segmentstore.Registry, logger *slog.Logger, m *metrics.Metrics) *Extractor {
	return New(DefaultGrammar(), registry, WithEncoding(cfg.Input.Encoding), WithLogger(logger), WithMetrics(m))
}

// ParseFile extracts every segment of the script at path into the store for
// name, replacing segments from any earlier extraction. Segments are inserted
// as they are produced; the first error stops the walk and leaves earlier
// inserts of that walk in place.
func (e *Extractor) ParseFile(ctx context.Context, path, name string) error {
	_, err := e.Extract(ctx, path, name)
	return err
}

// Extract is ParseFile returning what the walk produced.
func (e *Extractor) Extract(ctx context.Context, path, name string) (Summary, error) {
	if e.registry == nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, stageName, "open store", "segment store registry unavailable", nil)
	}
	store, err := e.registry.OpenOrCreate(ctx, name)
	if err != nil {
		return Summary{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrValidation, stageName, "read script", path, err)
	}
	src, err := textutil.Decode(data, e.encoding)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrParse, stageName, "decode script", path, err)
	}
	// A retried or re-watched file replaces what an earlier run stored.
	if err := store.Reset(ctx); err != nil {
		return Summary{}, err
	}
	return e.extract(ctx, store, src, name)
}

func (e *Extractor) extract(ctx context.Context, sink segmentSink, src, name string) (Summary, error) {
	start := time.Now()
	tree, err := e.grammar.Parse(src)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrParse, stageName, "parse script", name, err)
	}
	if tree == nil || tree.Root == nil {
		return Summary{}, services.Wrap(services.ErrParse, stageName, "parse script", name+": grammar produced no root", nil)
	}

	w := &walker{ctx: ctx, tree: tree, sink: sink}
	if _, err := w.dispatch(tree.Root, 0); err != nil {
		if !errors.Is(err, services.ErrStore) {
			err = services.Wrap(kindMarker(err), stageName, "extract segments", name, err)
		}
		return w.summary, err
	}

	logging.WithContext(ctx, e.logger).Info("script extracted",
		logging.String(logging.FieldEventType, "extract_complete"),
		logging.String(logging.FieldFileName, name),
		logging.Int("messages", w.summary.Messages),
		logging.Int("non_messages", w.summary.NonMessages),
		logging.Int("top_level_nodes", w.summary.TopLevel),
		logging.Duration("elapsed", time.Since(start)),
	)
	e.metrics.FileParsed(w.summary.Messages, w.summary.NonMessages, w.summary.TopLevel)
	return w.summary, nil
}

func kindMarker(err error) error {
	for _, marker := range []error{
		services.ErrBuild,
		services.ErrMergeConflict,
		services.ErrTypeMismatch,
		services.ErrParse,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return services.ErrParse
}
