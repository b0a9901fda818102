// Package pm defines the abstract surface the release engine uses to talk to
// a package registry through its package manager CLI (npm by default), plus
// a real exec-backed implementation and an in-memory fake for tests.
package pm

import "context"

// PackageInfo is the subset of `npm view` output the engine consumes.
type PackageInfo struct {
	Name     string
	Versions []string
	Latest   string
	DistTags map[string]string
}

// PublishOptions controls one Publish call.
type PublishOptions struct {
	Registry string
	Tag      string // dist-tag, e.g. "latest" or "next"
	Access   string // "public" or "restricted"
	OTP      string
	DryRun   bool
}

// Client is the abstract package-manager surface consumed by the rest of
// the engine. dir is the package directory to operate from; registry, when
// non-empty, overrides the configured default for that call.
type Client interface {
	Publish(ctx context.Context, dir string, opts PublishOptions) error
	Unpublish(ctx context.Context, name, version, registry string) error
	Deprecate(ctx context.Context, name, version, message, registry string) error
	View(ctx context.Context, name, registry string) (*PackageInfo, error)
	VersionExists(ctx context.Context, name, version, registry string) (bool, error)
	LatestVersion(name string) (string, error)
	Versions(ctx context.Context, name, registry string) ([]string, error)
	PackageExists(ctx context.Context, name, registry string) (bool, error)
	WhoAmI(ctx context.Context, registry string) (string, error)
	Pack(ctx context.Context, dir string) (string, error)
}
