package rollback

import (
	"context"
	"testing"

	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pm"
	"github.com/monopub/engine/internal/vcs"
	"github.com/stretchr/testify/require"
)

func TestPlan_OrdersActionsPerSpec(t *testing.T) {
	plan := Plan(Options{Unpublish: true, RevertVCS: true, DeleteTag: true})
	require.Equal(t, []model.RollbackActionKind{
		model.ActionUnpublish, model.ActionRevertVCS, model.ActionDeleteTag,
	}, plan.Actions)
}

func TestRun_UnpublishAndDeleteTag(t *testing.T) {
	dir := t.TempDir()
	pmClient := pm.NewFakeClient()
	pmClient.Seed("left-pad", "1.2.3")
	vcsClient := vcs.NewFakeClient()
	vcsClient.Tags["v1.2.3"] = "abc123"

	e := New(pmClient, vcsClient, dir)
	record, err := e.Run(context.Background(), Options{
		Package:   "left-pad",
		Version:   "1.2.3",
		Unpublish: true,
		DeleteTag: true,
		Reason:    "security",
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	require.True(t, record.Success)
	require.Len(t, record.Actions, 2)
	require.Equal(t, model.ActionUnpublish, record.Actions[0].Kind)
	require.Equal(t, model.ActionDeleteTag, record.Actions[1].Kind)
	require.Contains(t, pmClient.UnpublishCalls, "left-pad@1.2.3")
	require.Contains(t, vcsClient.DeletedTags, "v1.2.3")
	require.Contains(t, vcsClient.DeletedRemotes, "v1.2.3")

	history, err := NewHistory(dir).All()
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "security", history[0].Reason)
}

func TestRun_DeprecateWithMessage(t *testing.T) {
	dir := t.TempDir()
	pmClient := pm.NewFakeClient()
	pmClient.Seed("left-pad", "1.2.3")
	vcsClient := vcs.NewFakeClient()

	e := New(pmClient, vcsClient, dir)
	record, err := e.Run(context.Background(), Options{
		Package:          "left-pad",
		Version:          "1.2.3",
		Deprecate:        true,
		DeprecateMessage: "use left-pad2 instead",
	})
	require.NoError(t, err)
	require.True(t, record.Success)
	require.Equal(t, "use left-pad2 instead", pmClient.Packages["left-pad"].Deprecated["1.2.3"])
}

func TestRun_DeprecateFallsBackToReasonWhenNoMessageGiven(t *testing.T) {
	dir := t.TempDir()
	pmClient := pm.NewFakeClient()
	pmClient.Seed("left-pad", "1.2.3")
	vcsClient := vcs.NewFakeClient()
	vcsClient.Tags["v1.2.3"] = "abc123"

	e := New(pmClient, vcsClient, dir)
	record, err := e.Run(context.Background(), Options{
		Package:   "left-pad",
		Version:   "1.2.3",
		Deprecate: true,
		DeleteTag: true,
		Reason:    "security",
	})
	require.NoError(t, err)
	require.True(t, record.Success)
	require.Len(t, record.Actions, 2)
	require.Equal(t, "security", pmClient.Packages["left-pad"].Deprecated["1.2.3"])
	require.Contains(t, vcsClient.DeletedTags, "v1.2.3")
}

func TestRun_RevertVCS_NoTagIsNoOpNotFailure(t *testing.T) {
	dir := t.TempDir()
	pmClient := pm.NewFakeClient()
	vcsClient := vcs.NewFakeClient()

	e := New(pmClient, vcsClient, dir)
	record, err := e.Run(context.Background(), Options{
		Package:   "left-pad",
		Version:   "9.9.9",
		RevertVCS: true,
	})
	require.NoError(t, err)
	require.True(t, record.Success)
	require.Empty(t, vcsClient.RevertedHashes)
}

func TestRun_RevertVCS_LocatesTaggedCommit(t *testing.T) {
	dir := t.TempDir()
	pmClient := pm.NewFakeClient()
	vcsClient := vcs.NewFakeClient()
	vcsClient.Tags["v1.2.3"] = "commit-abc"
	vcsClient.History = []vcs.Commit{{Hash: "commit-abc", Subject: "chore(release): 1.2.3"}}

	e := New(pmClient, vcsClient, dir)
	record, err := e.Run(context.Background(), Options{
		Package:   "left-pad",
		Version:   "1.2.3",
		RevertVCS: true,
	})
	require.NoError(t, err)
	require.True(t, record.Success)
	require.Contains(t, vcsClient.RevertedHashes, "commit-abc")
}

func TestRun_FailedActionMarksRecordUnsuccessfulButContinues(t *testing.T) {
	dir := t.TempDir()
	pmClient := pm.NewFakeClient() // no packages seeded: Unpublish will fail
	vcsClient := vcs.NewFakeClient()

	e := New(pmClient, vcsClient, dir)
	record, err := e.Run(context.Background(), Options{
		Package:   "missing-pkg",
		Version:   "1.0.0",
		Unpublish: true,
		DeleteTag: true,
	})
	require.NoError(t, err)
	require.False(t, record.Success)
	require.Len(t, record.Actions, 2)
	require.False(t, record.Actions[0].Success)
	require.NotEmpty(t, record.Actions[0].Err)
	// delete-tag still ran despite the unpublish failure.
	require.True(t, record.Actions[1].Success)
}

func TestRun_DryRunWritesNoRecord(t *testing.T) {
	dir := t.TempDir()
	pmClient := pm.NewFakeClient()
	pmClient.Seed("left-pad", "1.2.3")
	vcsClient := vcs.NewFakeClient()

	e := New(pmClient, vcsClient, dir)
	record, err := e.Run(context.Background(), Options{
		Package:   "left-pad",
		Version:   "1.2.3",
		Unpublish: true,
		DryRun:    true,
	})
	require.NoError(t, err)
	require.Nil(t, record)
	require.Empty(t, pmClient.UnpublishCalls)

	history, err := NewHistory(dir).All()
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestTagName_PrefixesOnlyWhenMissing(t *testing.T) {
	require.Equal(t, "v1.2.3", tagName("1.2.3"))
	require.Equal(t, "v1.2.3", tagName("v1.2.3"))
}
