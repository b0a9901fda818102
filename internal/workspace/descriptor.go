package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// pnpmDescriptor mirrors the shape of pnpm-workspace.yaml.
type pnpmDescriptor struct {
	Packages []string `yaml:"packages"`
}

// rootWorkspaceFields is the subset of the root manifest relevant to
// workspace discovery (npm/yarn-style inline declarations).
type rootWorkspaceFields struct {
	Workspaces any `json:"workspaces"`
}

// declaredPatterns returns the workspace glob patterns declared by the root,
// and which protocol tag the declaration style implies.
func declaredPatterns(root string) ([]string, protocolGuess, error) {
	if patterns, ok, err := fromDescriptor(root); err != nil {
		return nil, protocolGuess{}, err
	} else if ok {
		return patterns, protocolGuess{pnpm: true}, nil
	}

	data, err := os.ReadFile(filepath.Join(root, manifestFile))
	if err != nil {
		return nil, protocolGuess{}, nil
	}

	var fields rootWorkspaceFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, protocolGuess{}, nil
	}

	switch v := fields.Workspaces.(type) {
	case []any:
		return toStrings(v), protocolGuess{npm: true}, nil
	case map[string]any:
		if pkgs, ok := v["packages"].([]any); ok {
			return toStrings(pkgs), protocolGuess{yarn: true}, nil
		}
	}
	return nil, protocolGuess{}, nil
}

type protocolGuess struct {
	pnpm, yarn, npm bool
}

func fromDescriptor(root string) ([]string, bool, error) {
	path := filepath.Join(root, workspaceDescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var desc pnpmDescriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, false, err
	}
	return desc.Packages, true, nil
}

func toStrings(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
