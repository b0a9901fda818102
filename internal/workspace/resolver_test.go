package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir string, fields map[string]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.MarshalIndent(fields, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644))
}

func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeManifest(t, root, map[string]any{
		"name":       "root",
		"private":    true,
		"workspaces": []string{"packages/*"},
	})
	writeManifest(t, filepath.Join(root, "packages", "a"), map[string]any{
		"name": "a", "version": "1.0.0",
	})
	writeManifest(t, filepath.Join(root, "packages", "b"), map[string]any{
		"name": "b", "version": "1.0.0",
		"dependencies": map[string]any{"a": "workspace:*"},
	})
	writeManifest(t, filepath.Join(root, "packages", "c"), map[string]any{
		"name": "c", "version": "1.0.0",
		"dependencies": map[string]any{"b": "workspace:*"},
	})
	return root
}

func TestInitialize_TopologicalOrder(t *testing.T) {
	root := setupWorkspace(t)
	r := New()
	_, err := r.Initialize(root)
	require.NoError(t, err)

	order, err := r.TopologicalOrder(nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopologicalOrder_DeterministicTieBreak(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, map[string]any{"name": "root", "private": true, "workspaces": []string{"packages/*"}})
	writeManifest(t, filepath.Join(root, "packages", "z"), map[string]any{"name": "z", "version": "1.0.0"})
	writeManifest(t, filepath.Join(root, "packages", "a"), map[string]any{"name": "a", "version": "1.0.0"})

	r := New()
	_, err := r.Initialize(root)
	require.NoError(t, err)
	order, err := r.TopologicalOrder(nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "z"}, order)
}

func TestAffectedPackages(t *testing.T) {
	root := setupWorkspace(t)
	r := New()
	_, err := r.Initialize(root)
	require.NoError(t, err)

	affected, err := r.AffectedPackages("a")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, affected)
}

func TestValidate_DetectsCycle(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, map[string]any{"name": "root", "private": true, "workspaces": []string{"packages/*"}})
	writeManifest(t, filepath.Join(root, "packages", "a"), map[string]any{
		"name": "a", "version": "1.0.0", "dependencies": map[string]any{"b": "workspace:*"},
	})
	writeManifest(t, filepath.Join(root, "packages", "b"), map[string]any{
		"name": "b", "version": "1.0.0", "dependencies": map[string]any{"a": "workspace:*"},
	})

	r := New()
	_, err := r.Initialize(root)
	require.NoError(t, err)

	result, err := r.Validate()
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Len(t, result.Cycles, 1)

	_, err = r.TopologicalOrder(nil)
	require.Error(t, err)
}

func TestInitialize_SinglePackageFallback(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, map[string]any{"name": "solo", "version": "2.0.0"})

	r := New()
	ws, err := r.Initialize(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"solo"}, ws.Graph.Order)
}

func TestGetPackages_FilterAndPrivate(t *testing.T) {
	root := setupWorkspace(t)
	r := New()
	_, err := r.Initialize(root)
	require.NoError(t, err)

	pkgs, err := r.GetPackages([]string{"a", "c"}, false)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	pkgs, err = r.GetPackages([]string{"*"}, true)
	require.NoError(t, err)
	require.Len(t, pkgs, 3) // root is private and not under packages/*, so unaffected
}
