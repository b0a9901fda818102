package changelog

import (
	"fmt"
	"strconv"
	"strings"
)

// HostClass classifies a repository host for PR/commit link templates.
type HostClass string

const (
	HostPrimary   HostClass = "primary"
	HostAltGitops HostClass = "alt-gitops"
	HostTeam      HostClass = "team-host"
	HostOther     HostClass = "other"
)

// NormalizeRemote converts a VCS remote URL into a browsable https repo URL:
// strips a trailing ".git", rewrites "git@host:path" to "https://host/path",
// and strips a leading "git://".
func NormalizeRemote(remote string) string {
	remote = strings.TrimSpace(remote)
	remote = strings.TrimPrefix(remote, "git://")
	if strings.HasPrefix(remote, "git@") {
		rest := strings.TrimPrefix(remote, "git@")
		if idx := strings.Index(rest, ":"); idx >= 0 {
			remote = "https://" + rest[:idx] + "/" + rest[idx+1:]
		}
	}
	remote = strings.TrimSuffix(remote, ".git")
	return remote
}

// ClassifyHost buckets a normalized repo URL's host into one of the known
// hosting platform families that drive PR/commit link shape.
func ClassifyHost(repoURL string) HostClass {
	host := extractHost(repoURL)
	switch {
	case host == "":
		return HostOther
	case strings.Contains(host, "github"):
		return HostPrimary
	case strings.Contains(host, "gitlab"):
		return HostAltGitops
	case strings.Contains(host, "bitbucket"):
		return HostTeam
	default:
		return HostOther
	}
}

func extractHost(repoURL string) string {
	rest := strings.TrimPrefix(repoURL, "https://")
	rest = strings.TrimPrefix(rest, "http://")
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// PRURL builds a PR/MR link for the given repo URL and PR number, per the
// host's path convention.
func PRURL(repoURL string, n int) string {
	switch ClassifyHost(repoURL) {
	case HostAltGitops:
		return fmt.Sprintf("%s/merge_requests/%d", repoURL, n)
	case HostTeam:
		return fmt.Sprintf("%s/pull-requests/%d", repoURL, n)
	case HostPrimary:
		return fmt.Sprintf("%s/pull/%d", repoURL, n)
	default:
		return "#" + strconv.Itoa(n)
	}
}

// CommitURL builds a commit link for the given repo URL and hash.
func CommitURL(repoURL, hash string) string {
	if ClassifyHost(repoURL) == HostOther {
		return hash
	}
	return fmt.Sprintf("%s/commit/%s", repoURL, hash)
}
