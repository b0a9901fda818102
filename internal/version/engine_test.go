package version

import (
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/monopub/engine/internal/model"
	"github.com/stretchr/testify/require"
)

func TestBump_Deterministic(t *testing.T) {
	e := New(nil)
	v := semver.MustParse("1.2.3")

	cases := []struct {
		kind Kind
		want string
	}{
		{KindMajor, "2.0.0"},
		{KindMinor, "1.3.0"},
		{KindPatch, "1.2.4"},
	}
	for _, c := range cases {
		got, err := e.Bump(v, c.kind, "")
		require.NoError(t, err)
		require.Equal(t, c.want, got.String())
		require.True(t, got.GreaterThan(v))
	}
}

func TestBump_Prerelease_StartsAtZero(t *testing.T) {
	e := New(nil)
	v := semver.MustParse("1.2.3")
	got, err := e.Bump(v, KindPrerelease, "beta")
	require.NoError(t, err)
	require.Equal(t, "1.2.3-beta.0", got.String())
}

func TestBump_Prerelease_Increments(t *testing.T) {
	e := New(nil)
	v := semver.MustParse("1.2.3-beta.0")
	got, err := e.Bump(v, KindPrerelease, "beta")
	require.NoError(t, err)
	require.Equal(t, "1.2.3-beta.1", got.String())
}

func TestRecommend_Breaking(t *testing.T) {
	commits := []model.ConventionalCommit{
		{Type: "fix", ShortHash: "abc123"},
		{Type: "feat", Breaking: true, ShortHash: "def456"},
	}
	rec := Recommend(commits)
	require.Equal(t, KindMajor, rec.Kind)
}

func TestRecommend_FeatOnly(t *testing.T) {
	commits := []model.ConventionalCommit{{Type: "feat"}, {Type: "docs"}}
	require.Equal(t, KindMinor, Recommend(commits).Kind)
}

func TestRecommend_FixOnly(t *testing.T) {
	commits := []model.ConventionalCommit{{Type: "fix"}}
	require.Equal(t, KindPatch, Recommend(commits).Kind)
}

func TestRecommend_None(t *testing.T) {
	commits := []model.ConventionalCommit{{Type: "chore", Date: time.Now()}}
	rec := Recommend(commits)
	require.Equal(t, Kind(""), rec.Kind)
	require.Equal(t, "no version bump recommended", rec.Reason)
}

type fakeRegistry struct {
	version string
	err     error
}

func (f *fakeRegistry) LatestVersion(name string) (string, error) { return f.version, f.err }

func TestNextAgainstRegistry_BumpsPublished(t *testing.T) {
	e := New(&fakeRegistry{version: "2.0.0"})
	got, err := e.NextAgainstRegistry("pkg", "1.0.0", KindPatch, "")
	require.NoError(t, err)
	require.Equal(t, "2.0.1", got.String())
}

func TestNextAgainstRegistry_NoneYetPublished(t *testing.T) {
	e := New(&fakeRegistry{version: ""})
	got, err := e.NextAgainstRegistry("pkg", "1.0.0", KindPatch, "")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", got.String())
}
