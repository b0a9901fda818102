package vcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeClient_TagLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()

	exists, err := c.TagExists(ctx, "v1.0.0")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, c.CreateTag(ctx, "v1.0.0", "release v1.0.0", false))
	exists, err = c.TagExists(ctx, "v1.0.0")
	require.NoError(t, err)
	require.True(t, exists)

	err = c.CreateTag(ctx, "v1.0.0", "dup", false)
	require.Error(t, err)

	require.NoError(t, c.DeleteTag(ctx, "v1.0.0"))
	require.Equal(t, []string{"v1.0.0"}, c.DeletedTags)
}

func TestFakeClient_CommitAndChangedFiles(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()
	c.Clean = false

	require.NoError(t, c.Commit(ctx, "chore: release", []string{"package.json", "CHANGELOG.md"}, false))
	clean, err := c.IsClean(ctx)
	require.NoError(t, err)
	require.True(t, clean)

	files, err := c.ChangedFiles(ctx, "", "HEAD")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"package.json", "CHANGELOG.md"}, files)

	commits, err := c.Commits(ctx, "", "HEAD")
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Equal(t, "chore: release", commits[0].Subject)
}

func TestFakeClient_RevertByTag(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()
	c.Commit = "abc123"
	require.NoError(t, c.CreateTag(ctx, "v1.0.0", "", false))

	require.NoError(t, c.Revert(ctx, "abc123"))
	require.Equal(t, []string{"abc123"}, c.RevertedHashes)

	err := c.Revert(ctx, "doesnotexist")
	require.Error(t, err)
}

func TestFakeClient_RemoteURL_Unknown(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()
	_, err := c.RemoteURL(ctx, "upstream")
	require.Error(t, err)
}
