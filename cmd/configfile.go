package cmd

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/monopub/engine/internal/config"
	"github.com/monopub/engine/internal/model"
)

// configFileName is the per-workspace configuration file the CLI reads on
// startup. internal/config intentionally has no loader of its own; this is
// the concrete file format this engine binary chooses.
const configFileName = ".monopub.yml"

// fileConfig mirrors config.Config's shape for YAML decoding, plus the
// registries section config.Config itself doesn't carry (those live in
// a registry.Manager, constructed separately).
type fileConfig struct {
	DefaultRegistry string                  `yaml:"defaultRegistry"`
	Concurrency     int                     `yaml:"concurrency"`
	Git             config.GitConfig        `yaml:"git"`
	Publish         config.PublishConfig    `yaml:"publish"`
	Monorepo        config.MonorepoConfig   `yaml:"monorepo"`
	Validation      config.ValidationConfig `yaml:"validation"`
	Version         config.VersionConfig    `yaml:"version"`
	Registries      map[string]registryEntry `yaml:"registries"`
}

type registryEntry struct {
	URL     string            `yaml:"url"`
	Token   string            `yaml:"token"`
	Access  string            `yaml:"access"`
	Scopes  []string          `yaml:"scopes"`
	Headers map[string]string `yaml:"headers"`
	Default bool              `yaml:"default"`
}

// loadConfig reads <root>/.monopub.yml if present, overlaying it onto the
// engine's documented defaults. A missing file is not an error: the engine
// runs on defaults alone (useful for trivial single-registry setups).
func loadConfig(root string) (*config.Config, map[string]registryEntry, error) {
	cfg := config.Default()

	path := filepath.Join(root, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil, nil
		}
		return nil, nil, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, nil, err
	}

	if fc.DefaultRegistry != "" {
		cfg.DefaultRegistry = fc.DefaultRegistry
	}
	if fc.Concurrency > 0 {
		cfg.Concurrency = fc.Concurrency
	}
	overlayGit(&cfg.Git, fc.Git)
	overlayPublish(&cfg.Publish, fc.Publish)
	overlayMonorepo(&cfg.Monorepo, fc.Monorepo)
	overlayValidation(&cfg.Validation, fc.Validation)
	if fc.Version.RecommendPolicy != "" {
		cfg.Version.RecommendPolicy = fc.Version.RecommendPolicy
	}

	return cfg, fc.Registries, nil
}

func overlayGit(dst *config.GitConfig, src config.GitConfig) {
	if len(src.Files) > 0 {
		*dst = src
		return
	}
	// Partial overlay: only replace fields the file actually sets,
	// preserving the defaults for everything else.
	if src.TagPrefix != "" {
		dst.TagPrefix = src.TagPrefix
	}
	if src.Remote != "" {
		dst.Remote = src.Remote
	}
	if src.Branch != "" {
		dst.Branch = src.Branch
	}
	if src.MessageTemplate != "" {
		dst.MessageTemplate = src.MessageTemplate
	}
	if len(src.AllowBranches) > 0 {
		dst.AllowBranches = src.AllowBranches
	}
	dst.CreateCommit = dst.CreateCommit || src.CreateCommit
	dst.PushCommit = dst.PushCommit || src.PushCommit
	dst.CreateTag = dst.CreateTag || src.CreateTag
	dst.PushTag = dst.PushTag || src.PushTag
	dst.Sign = dst.Sign || src.Sign
}

func overlayPublish(dst *config.PublishConfig, src config.PublishConfig) {
	dst.Parallel = dst.Parallel || src.Parallel
	dst.ContinueOnError = dst.ContinueOnError || src.ContinueOnError
	if src.Access != "" {
		dst.Access = src.Access
	}
	if src.Tag != "" {
		dst.Tag = src.Tag
	}
}

func overlayMonorepo(dst *config.MonorepoConfig, src config.MonorepoConfig) {
	if src.PublishOrder != "" {
		dst.PublishOrder = src.PublishOrder
	}
	if src.VersionStrategy != "" {
		dst.VersionStrategy = src.VersionStrategy
	}
}

func overlayValidation(dst *config.ValidationConfig, src config.ValidationConfig) {
	dst.RequireBuild = dst.RequireBuild || src.RequireBuild
	if len(src.RequiredFiles) > 0 {
		dst.RequiredFiles = src.RequiredFiles
	}
	if src.MaxPackageSize > 0 {
		dst.MaxPackageSize = src.MaxPackageSize
	}
	if len(src.SensitiveGlobs) > 0 {
		dst.SensitiveGlobs = src.SensitiveGlobs
	}
	dst.SkipGitCheck = dst.SkipGitCheck || src.SkipGitCheck
	dst.RequireCleanTree = dst.RequireCleanTree || src.RequireCleanTree
}

// namedRegistry pairs a configured registry with the name it's registered
// under and whether it should become the Manager's default.
type namedRegistry struct {
	Name    string
	Reg     model.Registry
	Default bool
}

func registriesFromFile(entries map[string]registryEntry, defaultName string) []namedRegistry {
	out := make([]namedRegistry, 0, len(entries))
	for name, e := range entries {
		out = append(out, namedRegistry{
			Name: name,
			Reg: model.Registry{
				Name:    name,
				URL:     e.URL,
				Token:   e.Token,
				Access:  e.Access,
				Scopes:  e.Scopes,
				Headers: e.Headers,
			},
			Default: e.Default || name == defaultName,
		})
	}
	return out
}
