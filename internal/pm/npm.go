package pm

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/monopub/engine/internal/errs"
	"github.com/tidwall/gjson"
)

// NpmClient is the real, subprocess-backed Client implementation, shelling
// out to the npm CLI. It never touches auth config files directly; tokens
// flow through NPM_TOKEN/registry env the caller sets up (see internal/registry).
type NpmClient struct {
	DefaultRegistry string
}

// NewNpmClient creates an NpmClient using defaultRegistry when a call omits one.
func NewNpmClient(defaultRegistry string) *NpmClient {
	return &NpmClient{DefaultRegistry: defaultRegistry}
}

func (n *NpmClient) registryArg(registry string) []string {
	if registry == "" {
		registry = n.DefaultRegistry
	}
	if registry == "" {
		return nil
	}
	return []string{"--registry", registry}
}

func (n *NpmClient) run(ctx context.Context, dir string, args ...string) (string, error) {
	// #nosec G204 - args are fixed by this package
	cmd := exec.CommandContext(ctx, "npm", args...)
	cmd.Dir = dir
	cmd.Env = safeNpmEnv()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", errs.Wrap(errs.KindRegistry, "NPM_FAILED", "npm "+strings.Join(args, " ")+": "+strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (n *NpmClient) Publish(ctx context.Context, dir string, opts PublishOptions) error {
	args := []string{"publish"}
	args = append(args, n.registryArg(opts.Registry)...)
	if opts.Tag != "" {
		args = append(args, "--tag", opts.Tag)
	}
	if opts.Access != "" {
		args = append(args, "--access", opts.Access)
	}
	if opts.OTP != "" {
		args = append(args, "--otp", opts.OTP)
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	_, err := n.run(ctx, dir, args...)
	return err
}

func (n *NpmClient) Unpublish(ctx context.Context, name, version, registry string) error {
	args := []string{"unpublish", name + "@" + version, "--force"}
	args = append(args, n.registryArg(registry)...)
	_, err := n.run(ctx, "", args...)
	return err
}

func (n *NpmClient) Deprecate(ctx context.Context, name, version, message, registry string) error {
	args := []string{"deprecate", name + "@" + version, message}
	args = append(args, n.registryArg(registry)...)
	_, err := n.run(ctx, "", args...)
	return err
}

func (n *NpmClient) View(ctx context.Context, name, registry string) (*PackageInfo, error) {
	args := []string{"view", name, "--json"}
	args = append(args, n.registryArg(registry)...)
	out, err := n.run(ctx, "", args...)
	if err != nil {
		return nil, err
	}
	return parsePackageInfo(name, out), nil
}

func parsePackageInfo(name, jsonOut string) *PackageInfo {
	result := gjson.Parse(jsonOut)
	info := &PackageInfo{Name: name, DistTags: map[string]string{}}
	for _, v := range result.Get("versions").Array() {
		info.Versions = append(info.Versions, v.String())
	}
	result.Get("dist-tags").ForEach(func(key, value gjson.Result) bool {
		info.DistTags[key.String()] = value.String()
		return true
	})
	info.Latest = info.DistTags["latest"]
	if info.Latest == "" {
		info.Latest = result.Get("version").String()
	}
	return info
}

func (n *NpmClient) VersionExists(ctx context.Context, name, version, registry string) (bool, error) {
	info, err := n.View(ctx, name, registry)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, v := range info.Versions {
		if v == version {
			return true, nil
		}
	}
	return false, nil
}

// LatestVersion satisfies version.RegistryLookup, always querying the
// client's configured default registry. It returns "" with no error when
// the package has never been published.
func (n *NpmClient) LatestVersion(name string) (string, error) {
	info, err := n.View(context.Background(), name, "")
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return info.Latest, nil
}

func (n *NpmClient) Versions(ctx context.Context, name, registry string) ([]string, error) {
	info, err := n.View(ctx, name, registry)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return info.Versions, nil
}

func (n *NpmClient) PackageExists(ctx context.Context, name, registry string) (bool, error) {
	_, err := n.View(ctx, name, registry)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (n *NpmClient) WhoAmI(ctx context.Context, registry string) (string, error) {
	args := []string{"whoami"}
	args = append(args, n.registryArg(registry)...)
	return n.run(ctx, "", args...)
}

func (n *NpmClient) Pack(ctx context.Context, dir string) (string, error) {
	return n.run(ctx, dir, "pack", "--json")
}

func isNotFound(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "404") ||
		strings.Contains(strings.ToLower(err.Error()), "not found")
}

// safeNpmEnv mirrors the VCS package's subprocess hardening: allowlist the
// essentials plus whatever auth/registry env the caller has set, and nothing else.
func safeNpmEnv() []string {
	essentialVars := []string{
		"PATH", "HOME", "USER", "TMPDIR", "TEMP", "TMP",
		"LANG", "LC_ALL", "LC_CTYPE", "SHELL",
		"NPM_TOKEN", "NPM_CONFIG_REGISTRY", "NODE_AUTH_TOKEN",
	}
	env := make([]string, 0, len(essentialVars))
	for _, key := range essentialVars {
		if value, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+value)
		}
	}
	return env
}

var _ Client = (*NpmClient)(nil)
