package pipeline

import (
	"context"
	"testing"

	"github.com/monopub/engine/internal/version"
	"github.com/stretchr/testify/require"
)

func TestRun_PreferTagRecommendPolicyBumpsFromPublishedVersion(t *testing.T) {
	p, pmClient, _, cfg := setup(t)
	cfg.Version.RecommendPolicy = "prefer-tag"
	pmClient.Seed("a", "2.0.0")

	_, err := p.Run(context.Background(), RunOptions{VersionKind: version.KindMinor})
	require.NoError(t, err)

	v, ok := p.cache.Get("bump:a:minor:")
	require.True(t, ok)
	require.Equal(t, "2.1.0", v)
}
