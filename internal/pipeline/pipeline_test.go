package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/monopub/engine/internal/analytics"
	"github.com/monopub/engine/internal/config"
	"github.com/monopub/engine/internal/hooks"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pm"
	"github.com/monopub/engine/internal/registry"
	"github.com/monopub/engine/internal/vcs"
	"github.com/monopub/engine/internal/version"
	"github.com/monopub/engine/internal/workspace"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir string, fields map[string]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.MarshalIndent(fields, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), data, 0o644))
}

// setup builds a two-package workspace (b depends on a) with a fake pm/vcs
// pair and returns a ready-to-run Pipeline plus its collaborators.
func setup(t *testing.T) (*Pipeline, *pm.FakeClient, *vcs.FakeClient, *config.Config) {
	t.Helper()
	root := t.TempDir()
	writeManifest(t, root, map[string]any{
		"name": "root", "private": true, "workspaces": []string{"packages/*"},
	})
	writeManifest(t, filepath.Join(root, "packages", "a"), map[string]any{
		"name": "a", "version": "1.0.0",
	})
	writeManifest(t, filepath.Join(root, "packages", "b"), map[string]any{
		"name": "b", "version": "1.0.0",
		"dependencies": map[string]any{"a": "workspace:*"},
	})

	resolver := workspace.New()
	_, err := resolver.Initialize(root)
	require.NoError(t, err)

	pmClient := pm.NewFakeClient()
	vcsClient := vcs.NewFakeClient()

	cfg := config.Default()
	cfg.DefaultRegistry = "npm"
	cfg.Validation.RequiredFiles = nil

	registries := registry.New(pmClient, filepath.Join(root, ".credentials.json"))
	registries.Add("npm", model.Registry{URL: "https://registry.npmjs.org"}, true)

	store := analytics.New(root)
	hookRunner := hooks.New(root)

	p := New(cfg, resolver, pmClient, vcsClient, registries, hookRunner, store)
	return p, pmClient, vcsClient, cfg
}

func TestRun_PublishesAllPackagesInTopologicalOrder(t *testing.T) {
	p, pmClient, _, _ := setup(t)

	rpt, err := p.Run(context.Background(), RunOptions{VersionKind: version.KindPatch})
	require.NoError(t, err)
	require.True(t, rpt.Success)
	require.ElementsMatch(t, []string{"a", "b"}, rpt.Published)
	require.Len(t, pmClient.PublishCalls, 2)
}

func TestRun_DryRunSkipsPublishAndAnalytics(t *testing.T) {
	p, pmClient, _, _ := setup(t)

	rpt, err := p.Run(context.Background(), RunOptions{VersionKind: version.KindPatch, DryRun: true})
	require.NoError(t, err)
	require.True(t, rpt.Success)
	require.ElementsMatch(t, []string{"a", "b"}, rpt.Skipped)
	require.Empty(t, pmClient.PublishCalls)

	recs, err := p.store.GetRecent(10)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRun_NoPackagesSelectedIsFatal(t *testing.T) {
	p, _, _, _ := setup(t)

	_, err := p.Run(context.Background(), RunOptions{Filter: []string{"does-not-exist"}})
	require.Error(t, err)
}

func TestRun_VCSPhaseCreatesCommitAndTags(t *testing.T) {
	p, _, vcsClient, cfg := setup(t)
	cfg.Git.CreateCommit = true
	cfg.Git.CreateTag = true
	cfg.Git.PushTag = true
	cfg.Monorepo.VersionStrategy = "independent"

	rpt, err := p.Run(context.Background(), RunOptions{VersionKind: version.KindPatch})
	require.NoError(t, err)
	require.True(t, rpt.Success)
	require.Len(t, vcsClient.CommittedFiles, 1)
	require.Len(t, vcsClient.PushedTags, 2)

	require.NotEmpty(t, vcsClient.History)
	message := vcsClient.History[0].Subject
	require.Contains(t, message, "a@1.0.1")
	require.Contains(t, message, "b@1.0.1")
}

func TestRun_FailedDependencySkipsDependentWithCause(t *testing.T) {
	p, pmClient, _, _ := setup(t)
	root := p.resolver.Workspace().Root
	aDir := filepath.Join(root, "packages", "a")
	pmClient.FailPublish = map[string]error{aDir: errors.New("registry rejected package a")}

	rpt, err := p.Run(context.Background(), RunOptions{VersionKind: version.KindPatch})
	require.NoError(t, err)
	require.False(t, rpt.Success)
	require.ElementsMatch(t, []string{"a"}, rpt.Failed)
	require.ElementsMatch(t, []string{"b"}, rpt.Skipped)

	require.True(t, hasWarningContaining(rpt.Warnings, "b: skipped"))
	require.True(t, hasWarningContaining(rpt.Warnings, "dependency a"))
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestRun_ValidationFailureIsFatal(t *testing.T) {
	p, _, _, cfg := setup(t)
	cfg.Validation.RequiredFiles = []string{"README.md"}

	_, err := p.Run(context.Background(), RunOptions{VersionKind: version.KindPatch})
	require.Error(t, err)
}
