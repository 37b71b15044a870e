package preflight

import (
	"context"
	"fmt"
	"strings"

	"musica/internal/config"
	"musica/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg. inputDir overrides
// cfg.Paths.InputDir when non-empty.
func RunAll(ctx context.Context, cfg *config.Config, inputDir string) []Result {
	if cfg == nil {
		return nil
	}
	if strings.TrimSpace(inputDir) == "" {
		inputDir = cfg.Paths.InputDir
	}

	results := []Result{
		CheckDirectoryReadable("Input directory", inputDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Segments.Mode == config.SegmentModeDisk {
		results = append(results, CheckDirectoryAccess("Segment directory", cfg.SegmentDir()))
	}
	if strings.TrimSpace(cfg.Metrics.Listen) != "" {
		results = append(results, CheckListenAddress(ctx, "Metrics endpoint", cfg.Metrics.Listen))
	}
	return results
}

// Err folds failed results into one configuration error, or returns nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "", "preflight", strings.Join(failed, "; "), nil)
}
