package changelog

import "testing"

func TestNormalizeRemote(t *testing.T) {
	cases := map[string]string{
		"git@github.com:acme/repo.git": "https://github.com/acme/repo",
		"https://github.com/acme/repo.git": "https://github.com/acme/repo",
		"git://github.com/acme/repo.git":   "https://github.com/acme/repo",
	}
	for in, want := range cases {
		if got := NormalizeRemote(in); got != want {
			t.Errorf("NormalizeRemote(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyHost(t *testing.T) {
	cases := map[string]HostClass{
		"https://github.com/acme/repo":    HostPrimary,
		"https://gitlab.com/acme/repo":    HostAltGitops,
		"https://bitbucket.org/acme/repo": HostTeam,
		"https://git.example.internal/r":  HostOther,
	}
	for url, want := range cases {
		if got := ClassifyHost(url); got != want {
			t.Errorf("ClassifyHost(%q) = %q, want %q", url, got, want)
		}
	}
}

func TestPRURL_ByHostClass(t *testing.T) {
	if got := PRURL("https://gitlab.com/acme/repo", 7); got != "https://gitlab.com/acme/repo/merge_requests/7" {
		t.Errorf("got %q", got)
	}
	if got := PRURL("https://bitbucket.org/acme/repo", 7); got != "https://bitbucket.org/acme/repo/pull-requests/7" {
		t.Errorf("got %q", got)
	}
	if got := PRURL("https://git.example.internal/r", 7); got != "#7" {
		t.Errorf("got %q", got)
	}
}
