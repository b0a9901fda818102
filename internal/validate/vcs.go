package validate

import (
	"context"
	"slices"

	"github.com/monopub/engine/internal/config"
	"github.com/monopub/engine/internal/vcs"
)

// ValidateVCS checks repository preconditions: must be a repo, clean (if
// required), and on an allow-listed branch (if one is configured).
func ValidateVCS(ctx context.Context, client vcs.Client, cfg *config.Config) *Result {
	r := &Result{Valid: true}

	isRepo, err := client.IsRepo(ctx)
	if err != nil {
		r.addError("could not determine VCS repository state: %v", err)
		return r
	}
	if !isRepo {
		r.addError("working directory is not a VCS repository")
		return r
	}

	if cfg.Validation.RequireCleanTree {
		clean, err := client.IsClean(ctx)
		if err != nil {
			r.addError("could not determine working tree cleanliness: %v", err)
		} else if !clean {
			r.addError("working tree has uncommitted changes")
		}
	}

	if len(cfg.Git.AllowBranches) > 0 {
		branch, err := client.CurrentBranch(ctx)
		if err != nil {
			r.addError("could not determine current branch: %v", err)
		} else if !slices.Contains(cfg.Git.AllowBranches, branch) {
			r.addError("branch %q is not in the allowed branch list %v", branch, cfg.Git.AllowBranches)
		}
	}

	return r
}
