package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManifestWriter_Write_PreservesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	original := `{
  "name": "a",
  "version": "1.0.0",
  "description": "keep me",
  "dependencies": {
    "b": "workspace:*"
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFile), []byte(original), 0o644))

	w := NewManifestWriter()
	require.NoError(t, w.Write(dir, "1.0.1"))

	got, err := w.CurrentVersion(dir)
	require.NoError(t, err)
	require.Equal(t, "1.0.1", got)

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	require.NoError(t, err)
	require.Contains(t, string(data), `"description": "keep me"`)
	require.Contains(t, string(data), `"b": "workspace:*"`)
}

func TestRewriteWorkspaceDependency(t *testing.T) {
	dir := t.TempDir()
	original := `{"name":"b","version":"1.0.0","dependencies":{"a":"workspace:*","lodash":"^4.0.0"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFile), []byte(original), 0o644))

	w := NewManifestWriter()
	require.NoError(t, w.RewriteWorkspaceDependency(dir, "a", "1.2.0"))

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	require.NoError(t, err)
	require.Contains(t, string(data), `"a":"1.2.0"`)
	require.Contains(t, string(data), `"lodash":"^4.0.0"`)
}
