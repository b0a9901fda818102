package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/monopub/engine/internal/model"
)

// manifestFile is the package manifest's conventional filename.
const manifestFile = "package.json"

// workspaceDescriptorFile is the sibling descriptor recognized alongside the
// root manifest (pnpm's convention; other tools declare workspaces inline).
const workspaceDescriptorFile = "pnpm-workspace.yaml"

// readManifest parses a package manifest, preserving all declared fields in
// Manifest so later writers can round-trip unknown keys.
func readManifest(dir string) (*model.Package, error) {
	path := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	name, _ := raw["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("manifest %s missing required field \"name\"", path)
	}
	version, _ := raw["version"].(string)

	pkg := &model.Package{
		Name:     name,
		Version:  version,
		Dir:      dir,
		Manifest: raw,
		Private:  asBool(raw["private"]),
		Runtime:  asStringMap(raw["dependencies"]),
		Dev:      asStringMap(raw["devDependencies"]),
		Peer:     asStringMap(raw["peerDependencies"]),
	}
	return pkg, nil
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// isWorkspaceProtocol reports whether a dependency specifier uses the
// `workspace:` protocol (e.g. "workspace:*", "workspace:^").
func isWorkspaceProtocol(spec string) bool {
	return len(spec) >= len("workspace:") && spec[:len("workspace:")] == "workspace:"
}
