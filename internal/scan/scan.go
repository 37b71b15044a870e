package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"musica/internal/config"
	"musica/internal/queue"
	"musica/internal/services"
)

// Scanner enumerates script files below a root directory.
type Scanner struct {
	root     string
	patterns []string
	exclude  []string
}

// New builds a Scanner for root. Empty patterns select every file.
func New(root string, patterns, exclude []string) (*Scanner, error) {
	if strings.TrimSpace(root) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scan", "configure", "input directory is empty", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve input directory: %w", err)
	}
	if len(patterns) == 0 {
		patterns = []string{"**/*"}
	}
	for _, p := range append(append([]string(nil), patterns...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, services.Wrap(services.ErrConfiguration, "scan", "configure", fmt.Sprintf("invalid pattern %q", p), nil)
		}
	}
	return &Scanner{root: abs, patterns: patterns, exclude: exclude}, nil
}

// NewFromConfig builds a Scanner for the configured input directory, or for
// root when it is not empty.
func NewFromConfig(cfg *config.Config, root string) (*Scanner, error) {
	if strings.TrimSpace(root) == "" {
		root = cfg.Paths.InputDir
	}
	return New(root, cfg.Input.Patterns, cfg.Input.Exclude)
}

// Root returns the absolute directory being scanned.
func (s *Scanner) Root() string {
	return s.root
}

// Matches reports whether rel, a slash-separated path relative to the root,
// is selected by the include and exclude patterns.
func (s *Scanner) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range s.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Files returns the matching regular files in lexical path order.
func (s *Scanner) Files(ctx context.Context) ([]queue.FileRef, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scan", "stat input", s.root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "scan", "stat input", s.root+" is not a directory", nil)
	}

	fsys := os.DirFS(s.root)
	seen := make(map[string]struct{})
	var rels []string
	for _, pattern := range s.patterns {
		err := doublestar.GlobWalk(fsys, pattern, func(rel string, d fs.DirEntry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if _, ok := seen[rel]; ok || !s.Matches(rel) {
				return nil
			}
			seen[rel] = struct{}{}
			rels = append(rels, rel)
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
	}
	sort.Strings(rels)

	refs := make([]queue.FileRef, 0, len(rels))
	for _, rel := range rels {
		refs = append(refs, s.ref(filepath.Join(s.root, filepath.FromSlash(rel))))
	}
	return refs, nil
}

func (s *Scanner) ref(abs string) queue.FileRef {
	return queue.FileRef{FilePath: abs, FileName: path.Base(filepath.ToSlash(abs))}
}

func (s *Scanner) relative(abs string) (string, bool) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
