package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pm"
	"github.com/stretchr/testify/require"
)

func TestSelectForPackage_ScopeMatch(t *testing.T) {
	m := New(pm.NewFakeClient(), "")
	m.Add("default", model.Registry{URL: "https://registry.npmjs.org"}, true)
	m.Add("acme", model.Registry{URL: "https://npm.acme.dev", Scopes: []string{"@acme"}}, false)

	reg, err := m.SelectForPackage("@acme/widgets")
	require.NoError(t, err)
	require.Equal(t, "https://npm.acme.dev", reg.URL)

	reg, err = m.SelectForPackage("lodash")
	require.NoError(t, err)
	require.Equal(t, "https://registry.npmjs.org", reg.URL)
}

func TestValidateConnection_CachesResult(t *testing.T) {
	fake := pm.NewFakeClient()
	fake.Whoami = "acme-bot"
	m := New(fake, "")
	m.Add("default", model.Registry{URL: "https://registry.npmjs.org"}, true)

	user1, err := m.ValidateConnection(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "acme-bot", user1)

	fake.Whoami = "changed-after-cache"
	user2, err := m.ValidateConnection(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "acme-bot", user2, "second call should hit the connection cache")
}

func TestCredentials_SaveTokenThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".npmrc")

	require.NoError(t, SaveToken(path, "registry.npmjs.org", "tok-1"))
	tok, err := Token(path, "registry.npmjs.org")
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	require.NoError(t, SaveToken(path, "registry.npmjs.org", "tok-2"))
	tok, err = Token(path, "registry.npmjs.org")
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, countLines(string(data)))
}

func TestCredentials_RemoveToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".npmrc")

	require.NoError(t, SaveToken(path, "registry.npmjs.org", "tok-1"))
	require.NoError(t, SaveToken(path, "npm.acme.dev", "tok-2"))
	require.NoError(t, RemoveToken(path, "registry.npmjs.org"))

	tok, err := Token(path, "registry.npmjs.org")
	require.NoError(t, err)
	require.Equal(t, "", tok)

	tok, err = Token(path, "npm.acme.dev")
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)
}

func countLines(s string) int {
	n := 0
	for _, line := range splitNonEmpty(s) {
		if line != "" {
			n++
		}
	}
	return n
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
