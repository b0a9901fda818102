// Package version reads and rewrites package manifests' version fields,
// bumps them per semver, and recommends a bump from Conventional Commits.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
)

// Kind is a semver bump kind.
type Kind string

const (
	KindMajor      Kind = "major"
	KindMinor      Kind = "minor"
	KindPatch      Kind = "patch"
	KindPremajor   Kind = "premajor"
	KindPreminor   Kind = "preminor"
	KindPrepatch   Kind = "prepatch"
	KindPrerelease Kind = "prerelease"
)

// RegistryLookup is the narrow surface the Version Engine needs from a
// registry to compare against published versions (implemented by
// internal/pm's client, injected to avoid an import cycle).
type RegistryLookup interface {
	LatestVersion(name string) (string, error)
}

// Engine is the Version Engine.
type Engine struct {
	registry RegistryLookup
}

// New creates a Version Engine. registry may be nil if NextAgainstRegistry
// is never called.
func New(registry RegistryLookup) *Engine {
	return &Engine{registry: registry}
}

// CurrentVersion returns the package's version as recorded in its manifest.
func (e *Engine) CurrentVersion(pkg *model.Package) (*semver.Version, error) {
	v, err := semver.NewVersion(pkg.Version)
	if err != nil {
		return nil, errs.Wrap(errs.KindVersion, "INVALID_SEMVER", "package "+pkg.Name+" has invalid version "+pkg.Version, err)
	}
	return v, nil
}

// Bump computes the next version for `current` per `kind`. For prerelease
// kinds with no existing prerelease component, the new prerelease starts at
// "<preid>.0".
func (e *Engine) Bump(current *semver.Version, kind Kind, preid string) (*semver.Version, error) {
	if preid == "" {
		preid = "beta"
	}

	switch kind {
	case KindMajor:
		v := current.IncMajor()
		return &v, nil
	case KindMinor:
		v := current.IncMinor()
		return &v, nil
	case KindPatch:
		v := current.IncPatch()
		return &v, nil
	case KindPremajor:
		base := current.IncMajor()
		return withPrerelease(base, preid+".0")
	case KindPreminor:
		base := current.IncMinor()
		return withPrerelease(base, preid+".0")
	case KindPrepatch:
		base := current.IncPatch()
		return withPrerelease(base, preid+".0")
	case KindPrerelease:
		return bumpPrerelease(current, preid)
	default:
		return nil, errs.New(errs.KindVersion, "INVALID_KIND", fmt.Sprintf("unknown bump kind %q", kind))
	}
}

func withPrerelease(v semver.Version, pre string) (*semver.Version, error) {
	out, err := v.SetPrerelease(pre)
	if err != nil {
		return nil, errs.Wrap(errs.KindVersion, "INVALID_PRERELEASE", "setting prerelease "+pre, err)
	}
	return &out, nil
}

// bumpPrerelease increments an existing prerelease's trailing numeric
// component, or starts a new one at "<preid>.0" if there is none.
func bumpPrerelease(current *semver.Version, preid string) (*semver.Version, error) {
	existing := current.Prerelease()
	if existing == "" {
		return withPrerelease(*current, preid+".0")
	}

	parts := strings.Split(existing, ".")
	last := parts[len(parts)-1]
	n := 0
	if _, err := fmt.Sscanf(last, "%d", &n); err == nil {
		parts[len(parts)-1] = fmt.Sprintf("%d", n+1)
		return withPrerelease(*current, strings.Join(parts, "."))
	}
	// Trailing component isn't numeric (e.g. "beta"): append ".0".
	return withPrerelease(*current, existing+".0")
}

// SetExact validates and returns an exact version, bypassing bump arithmetic.
// This is the only way to move a package's version backward.
func (e *Engine) SetExact(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil, errs.Wrap(errs.KindVersion, "INVALID_SEMVER", "invalid version "+v, err)
	}
	return parsed, nil
}

// Recommendation is the result of Recommend.
type Recommendation struct {
	Kind   Kind
	Reason string
}

// Recommend inspects commit types/breaking flags (as produced by the
// Changelog Engine's Conventional Commits parser) and recommends a bump:
// any breaking change -> major; else any feat -> minor; else any
// fix/perf/refactor -> patch; else none.
func Recommend(commits []model.ConventionalCommit) Recommendation {
	hasFeat, hasFixLike := false, false
	for _, c := range commits {
		if c.Breaking {
			return Recommendation{Kind: KindMajor, Reason: "breaking change in " + c.ShortHash}
		}
		switch c.Type {
		case "feat":
			hasFeat = true
		case "fix", "perf", "refactor":
			hasFixLike = true
		}
	}
	if hasFeat {
		return Recommendation{Kind: KindMinor, Reason: "new feature(s) since last release"}
	}
	if hasFixLike {
		return Recommendation{Kind: KindPatch, Reason: "fix(es)/performance/refactor since last release"}
	}
	return Recommendation{Kind: "", Reason: "no version bump recommended"}
}

// NextAgainstRegistry fetches the latest published version of name and
// bumps it by kind; if nothing is published yet, returns current unchanged.
// The engine never recommends a version lower than what's published.
func (e *Engine) NextAgainstRegistry(name, current string, kind Kind, preid string) (*semver.Version, error) {
	if e.registry == nil {
		return e.SetExact(current)
	}
	latest, err := e.registry.LatestVersion(name)
	if err != nil || latest == "" {
		return e.SetExact(current)
	}
	latestV, err := semver.NewVersion(latest)
	if err != nil {
		return e.SetExact(current)
	}
	return e.Bump(latestV, kind, preid)
}

// ManifestWriter is the Version Engine's on-disk surface, kept separate from
// the pure-computation surface above so callers that only need Bump/Recommend
// never touch the filesystem.
type ManifestWriter struct{}

// NewManifestWriter creates a ManifestWriter.
func NewManifestWriter() *ManifestWriter { return &ManifestWriter{} }

// CurrentVersion reads a package directory's manifest version field directly.
func (w *ManifestWriter) CurrentVersion(dir string) (string, error) {
	return readVersion(dir)
}

// Write rewrites a package's manifest version field in place.
func (w *ManifestWriter) Write(dir, newVersion string) error {
	return writeVersion(dir, newVersion)
}

// RewriteWorkspaceDependency rewrites depName's specifier in dir's manifest
// to exactVersion, iff it currently uses the workspace protocol.
func (w *ManifestWriter) RewriteWorkspaceDependency(dir, depName, exactVersion string) error {
	return rewriteWorkspaceDependency(dir, depName, exactVersion)
}

// Update is one manifest write requested of BatchUpdate.
type Update struct {
	Dir     string
	Version string
}

// BatchUpdate applies each write in order. It is never parallelized:
// workspace-dependency rewriting may touch the same files concurrently
// with version writes, so both are serialized before any parallel phase begins.
func (w *ManifestWriter) BatchUpdate(updates []Update) error {
	for _, u := range updates {
		if err := writeVersion(u.Dir, u.Version); err != nil {
			return err
		}
	}
	return nil
}
