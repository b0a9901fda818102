// Package config defines the engine's configuration shape. Loading and
// parsing a config file from disk is out of scope: callers construct a
// *Config directly (e.g. from CLI flags or their own config loader) and
// pass it to the engine.
package config

// GitConfig controls the pipeline's VCS phase.
type GitConfig struct {
	CreateCommit bool
	PushCommit   bool
	CreateTag    bool
	PushTag      bool
	Sign         bool
	TagPrefix    string
	Remote       string
	Branch       string
	AllowBranches []string
	MessageTemplate string
	Files        []string
}

// PublishConfig controls the pipeline's PUBLISH phase.
type PublishConfig struct {
	Parallel        bool
	ContinueOnError bool
	DryRun          bool
	Access          string
	Tag             string
}

// MonorepoConfig controls cross-package ordering.
type MonorepoConfig struct {
	PublishOrder      string // "topological" or "serial"
	VersionStrategy   string // "independent" or "fixed"
	RewriteWorkspaceDeps bool
}

// ValidationConfig controls the Package Validator.
type ValidationConfig struct {
	RequireBuild     bool
	RequiredFiles    []string
	MaxPackageSize   int64
	SensitiveGlobs   []string
	SkipGitCheck     bool
	RequireCleanTree bool
}

// VersionConfig controls version recommendation ambiguity resolution.
type VersionConfig struct {
	RecommendPolicy string // "prefer-manifest" (default), "prefer-tag", "error"
}

// Config is the engine's full configuration surface.
type Config struct {
	DefaultRegistry string
	Concurrency     int
	Git             GitConfig
	Publish         PublishConfig
	Monorepo        MonorepoConfig
	Validation      ValidationConfig
	Version         VersionConfig
}

// Default returns a Config with the engine's documented defaults.
func Default() *Config {
	return &Config{
		Concurrency: 4,
		Git: GitConfig{
			TagPrefix:       "v",
			Remote:          "origin",
			MessageTemplate: "chore(release): {version}",
			Files:           []string{"package.json", "CHANGELOG.md"},
		},
		Publish: PublishConfig{
			ContinueOnError: true,
			Access:          "public",
			Tag:             "latest",
		},
		Monorepo: MonorepoConfig{
			PublishOrder:         "topological",
			VersionStrategy:      "independent",
			RewriteWorkspaceDeps: true,
		},
		Validation: ValidationConfig{
			RequiredFiles: []string{"README.md"},
		},
		Version: VersionConfig{
			RecommendPolicy: "prefer-manifest",
		},
	}
}
