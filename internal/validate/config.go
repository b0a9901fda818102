// Package validate implements the Config, VCS, and Package validators:
// each returns {valid, errors, warnings} and never fails the process on a
// validation problem — the pipeline decides whether to proceed.
package validate

import (
	"fmt"

	"github.com/monopub/engine/internal/config"
	"github.com/monopub/engine/internal/registry"
)

// Result is the uniform shape returned by every validator.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateConfig schema-checks cfg against known enums/bounds, then applies
// cross-field business rules that only ever emit warnings.
func ValidateConfig(cfg *config.Config, registries *registry.Manager) *Result {
	r := &Result{Valid: true}

	if cfg.DefaultRegistry != "" {
		if _, err := registries.Get(cfg.DefaultRegistry); err != nil {
			r.addError("defaultRegistry %q does not name a configured registry", cfg.DefaultRegistry)
		}
	} else if _, err := registries.Get(""); err != nil {
		r.addError("no default registry configured")
	}

	if cfg.Concurrency > 10 {
		r.addWarning("HIGH_CONCURRENCY: concurrency %d is unusually high", cfg.Concurrency)
	}

	if cfg.Git.PushTag && !cfg.Git.CreateTag {
		r.addWarning("INCONSISTENT_GIT_CONFIG: git.pushTag is set without git.createTag")
	}
	if cfg.Git.PushCommit && !cfg.Git.CreateCommit {
		r.addWarning("INCONSISTENT_GIT_CONFIG: git.pushCommit is set without git.createCommit")
	}

	if cfg.Publish.Parallel && cfg.Monorepo.PublishOrder == "serial" {
		r.addWarning("CONFLICTING_PUBLISH_CONFIG: publish.parallel is set but monorepo.publishOrder is serial")
	}

	if cfg.Validation.MaxPackageSize > 0 && cfg.Validation.MaxPackageSize < 1024 {
		r.addWarning("SMALL_PACKAGE_SIZE_LIMIT: validation.maxPackageSize %d is below 1024 bytes", cfg.Validation.MaxPackageSize)
	}

	return r
}
