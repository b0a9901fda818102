package changelog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/vcs"
	"github.com/stretchr/testify/require"
)

func TestParseCommit_Grammar(t *testing.T) {
	cc, ok := ParseCommit(vcs.Commit{Subject: "feat(core): add X (#42)", ShortHash: "abc123"})
	require.True(t, ok)
	require.Equal(t, "feat", cc.Type)
	require.Equal(t, "core", cc.Scope)
	require.Equal(t, 42, cc.PRNumber)

	_, ok = ParseCommit(vcs.Commit{Subject: "not conventional"})
	require.False(t, ok)
}

func TestParseCommit_BreakingBang(t *testing.T) {
	cc, ok := ParseCommit(vcs.Commit{Subject: "feat!: drop support"})
	require.True(t, ok)
	require.True(t, cc.Breaking)
}

func TestParseCommit_BreakingBody(t *testing.T) {
	cc, ok := ParseCommit(vcs.Commit{Subject: "feat: new api", Body: "BREAKING CHANGE: removes old api"})
	require.True(t, ok)
	require.True(t, cc.Breaking)
}

func TestGenerate_OrdersSectionsAndHidesChore(t *testing.T) {
	client := vcs.NewFakeClient()
	client.History = []vcs.Commit{
		{Hash: "1", ShortHash: "1", Subject: "chore: deps"},
		{Hash: "2", ShortHash: "2", Subject: "fix: y"},
		{Hash: "3", ShortHash: "3", Subject: "feat(core): add X (#42)"},
	}

	e := New(client)
	content, err := e.Generate(context.Background(), "1.1.0", "", "")
	require.NoError(t, err)
	require.Len(t, content.Sections, 2)
	require.Equal(t, "Features", content.Sections[0].Title)
	require.Equal(t, "Bug Fixes", content.Sections[1].Title)
	require.Equal(t, time.Now().UTC().Format("2006-01-02"), content.Date)
}

func TestRender_LinksPRAndCommit(t *testing.T) {
	client := vcs.NewFakeClient()
	client.History = []vcs.Commit{{Hash: "abcdef1234", ShortHash: "abcdef1", Subject: "feat(core): add X (#42)"}}
	e := New(client)
	content, err := e.Generate(context.Background(), "1.1.0", "", "")
	require.NoError(t, err)

	md := Render(content, "https://github.com/acme/repo")
	require.Contains(t, md, "[#42](https://github.com/acme/repo/pull/42)")
	require.Contains(t, md, "[abcdef1](https://github.com/acme/repo/commit/abcdef1234)")
}

func TestWrite_InsertsUnderExistingHeading(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CHANGELOG.md")
	require.NoError(t, os.WriteFile(path, []byte("# Changelog\n\n## 1.0.0 (2024-01-01)\n\n### Features\n\n- old\n"), 0o644))

	content := sampleContent()
	require.NoError(t, Write(content, "", path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "## 1.1.0")
	require.Contains(t, string(data), "## 1.0.0")
}

func TestWrite_SkipsExistingVersionUnlessRegenerate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CHANGELOG.md")
	require.NoError(t, Write(sampleContent(), "", path, false))
	before, _ := os.ReadFile(path)

	require.NoError(t, Write(sampleContent(), "", path, false))
	after, _ := os.ReadFile(path)
	require.Equal(t, string(before), string(after))
}

func sampleContent() *model.ChangelogContent {
	return &model.ChangelogContent{
		Version: "1.1.0",
		Date:    "2024-02-01",
		Sections: []model.Section{
			{Title: "Features", Type: "feat", Priority: 1, Commits: []model.ConventionalCommit{
				{ShortHash: "abc123", Subject: "add X"},
			}},
		},
	}
}
