// Package testutils holds shared test fixtures.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupProtocolDir creates a temporary protocol directory populated with
// the given documents, keyed by relative path. It fails the test
// immediately on error.
func SetupProtocolDir(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range docs {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}
