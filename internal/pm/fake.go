package pm

import (
	"context"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/monopub/engine/internal/errs"
)

// FakePackage is one published package's state in a FakeClient.
type FakePackage struct {
	Versions   []string
	DistTags   map[string]string
	Deprecated map[string]string
}

// FakeClient is an in-memory Client for tests and dry-run simulation.
type FakeClient struct {
	Packages map[string]*FakePackage
	Whoami   string

	// FailPublish, keyed by package directory, injects a Publish failure
	// for that directory instead of recording a successful publish.
	FailPublish map[string]error

	PublishCalls   []PublishOptions
	UnpublishCalls []string
	PackCalls      []string
}

// NewFakeClient creates an empty registry with a default authenticated user.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Packages: map[string]*FakePackage{},
		Whoami:   "test-user",
	}
}

// Seed registers name as already published at the given versions, with
// "latest" pointing at the highest one.
func (f *FakeClient) Seed(name string, versions ...string) {
	sorted := append([]string{}, versions...)
	sort.Slice(sorted, func(i, j int) bool {
		vi, _ := semver.NewVersion(sorted[i])
		vj, _ := semver.NewVersion(sorted[j])
		if vi == nil || vj == nil {
			return sorted[i] < sorted[j]
		}
		return vi.LessThan(vj)
	})
	latest := ""
	if len(sorted) > 0 {
		latest = sorted[len(sorted)-1]
	}
	f.Packages[name] = &FakePackage{
		Versions:   sorted,
		DistTags:   map[string]string{"latest": latest},
		Deprecated: map[string]string{},
	}
}

func (f *FakeClient) Publish(ctx context.Context, dir string, opts PublishOptions) error {
	f.PublishCalls = append(f.PublishCalls, opts)
	if err, ok := f.FailPublish[dir]; ok {
		return err
	}
	return nil
}

func (f *FakeClient) Unpublish(ctx context.Context, name, version, registry string) error {
	f.UnpublishCalls = append(f.UnpublishCalls, name+"@"+version)
	pkg, ok := f.Packages[name]
	if !ok {
		return errs.New(errs.KindRegistry, "NOT_FOUND", "package not found: "+name)
	}
	out := pkg.Versions[:0]
	for _, v := range pkg.Versions {
		if v != version {
			out = append(out, v)
		}
	}
	pkg.Versions = out
	return nil
}

func (f *FakeClient) Deprecate(ctx context.Context, name, version, message, registry string) error {
	pkg, ok := f.Packages[name]
	if !ok {
		return errs.New(errs.KindRegistry, "NOT_FOUND", "package not found: "+name)
	}
	pkg.Deprecated[version] = message
	return nil
}

func (f *FakeClient) View(ctx context.Context, name, registry string) (*PackageInfo, error) {
	pkg, ok := f.Packages[name]
	if !ok {
		return nil, errs.New(errs.KindRegistry, "NOT_FOUND", "404 not found: "+name)
	}
	return &PackageInfo{Name: name, Versions: pkg.Versions, Latest: pkg.DistTags["latest"], DistTags: pkg.DistTags}, nil
}

func (f *FakeClient) VersionExists(ctx context.Context, name, version, registry string) (bool, error) {
	pkg, ok := f.Packages[name]
	if !ok {
		return false, nil
	}
	for _, v := range pkg.Versions {
		if v == version {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeClient) LatestVersion(name string) (string, error) {
	pkg, ok := f.Packages[name]
	if !ok {
		return "", nil
	}
	return pkg.DistTags["latest"], nil
}

func (f *FakeClient) Versions(ctx context.Context, name, registry string) ([]string, error) {
	pkg, ok := f.Packages[name]
	if !ok {
		return nil, nil
	}
	return pkg.Versions, nil
}

func (f *FakeClient) PackageExists(ctx context.Context, name, registry string) (bool, error) {
	_, ok := f.Packages[name]
	return ok, nil
}

func (f *FakeClient) WhoAmI(ctx context.Context, registry string) (string, error) {
	if f.Whoami == "" {
		return "", errs.New(errs.KindRegistry, "NOT_AUTHENTICATED", "not logged in")
	}
	return f.Whoami, nil
}

func (f *FakeClient) Pack(ctx context.Context, dir string) (string, error) {
	f.PackCalls = append(f.PackCalls, dir)
	return `[{"filename":"pkg-0.0.0.tgz","size":0}]`, nil
}

var _ Client = (*FakeClient)(nil)
