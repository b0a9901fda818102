package validate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/monopub/engine/internal/config"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pm"
	"github.com/monopub/engine/internal/registry"
	"github.com/monopub/engine/internal/vcs"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig_MissingDefaultRegistry(t *testing.T) {
	cfg := config.Default()
	registries := registry.New(pm.NewFakeClient(), "")

	r := ValidateConfig(cfg, registries)
	require.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
}

func TestValidateConfig_WarningRules(t *testing.T) {
	cfg := config.Default()
	cfg.Concurrency = 20
	cfg.Git.PushTag = true
	cfg.Git.CreateTag = false
	cfg.Publish.Parallel = true
	cfg.Monorepo.PublishOrder = "serial"
	cfg.Validation.MaxPackageSize = 100

	registries := registry.New(pm.NewFakeClient(), "")
	registries.Add("default", model.Registry{URL: "https://registry.npmjs.org"}, true)

	r := ValidateConfig(cfg, registries)
	require.True(t, r.Valid)
	require.Len(t, r.Warnings, 4)
}

func TestValidateVCS_NotARepo(t *testing.T) {
	client := vcs.NewFakeClient()
	client.Repo = false
	cfg := config.Default()

	r := ValidateVCS(context.Background(), client, cfg)
	require.False(t, r.Valid)
}

func TestValidateVCS_BranchNotAllowed(t *testing.T) {
	client := vcs.NewFakeClient()
	client.Branch = "feature/x"
	cfg := config.Default()
	cfg.Git.AllowBranches = []string{"main"}

	r := ValidateVCS(context.Background(), client, cfg)
	require.False(t, r.Valid)
}

func TestValidatePackage_RequiredFieldsAndFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()

	pkg := &model.Package{Name: "acme-widgets", Version: "1.0.0", Dir: dir, Manifest: map[string]any{}}
	r := ValidatePackage(pkg, cfg, 0)
	require.False(t, r.Valid)
	require.Contains(t, r.Errors[0], "README.md")
	require.Len(t, r.Warnings, 2) // description + license

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))
	r = ValidatePackage(pkg, cfg, 0)
	require.True(t, r.Valid)
}

func TestValidatePackage_DetectsSensitiveFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRET=1"), 0o644))

	pkg := &model.Package{Name: "acme-widgets", Version: "1.0.0", Dir: dir, Manifest: map[string]any{"description": "d", "license": "MIT"}}
	cfg := config.Default()

	r := ValidatePackage(pkg, cfg, 0)
	require.True(t, r.Valid)
	found := false
	for _, w := range r.Warnings {
		if w == "package acme-widgets contains a sensitive file: .env" {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidatePackage_ExcludesPlaceholderSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.js"), []byte(`const apiKey = "your-api-key-goes-here";`), 0o644))

	pkg := &model.Package{Name: "acme-widgets", Version: "1.0.0", Dir: dir, Manifest: map[string]any{"description": "d", "license": "MIT"}}
	cfg := config.Default()

	r := ValidatePackage(pkg, cfg, 0)
	require.Empty(t, r.Warnings)
}
