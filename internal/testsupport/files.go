package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes a script file under the config's input directory and
// returns its absolute path.
func WriteScript(t testing.TB, dir, relPath, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
