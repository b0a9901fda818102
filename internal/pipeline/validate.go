package pipeline

import (
	"context"
	"fmt"

	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/validate"
)

// validate is VALIDATE: config + VCS preconditions once, then each
// package's manifest/contents. A validator error is pipeline-fatal;
// warnings are collected and surfaced in the final report.
func (p *Pipeline) validate(ctx context.Context, pctx *model.PublishContext, opts RunOptions) error {
	cfgResult := validate.ValidateConfig(p.cfg, p.registries)
	pctx.Warnings = append(pctx.Warnings, cfgResult.Warnings...)
	if !cfgResult.Valid {
		return errs.New(errs.KindConfig, "INVALID_CONFIG", fmt.Sprintf("configuration invalid: %v", cfgResult.Errors))
	}

	if !opts.SkipGitCheck && !p.cfg.Validation.SkipGitCheck {
		vcsResult := validate.ValidateVCS(ctx, p.vcsClient, p.cfg)
		pctx.Warnings = append(pctx.Warnings, vcsResult.Warnings...)
		if !vcsResult.Valid {
			return errs.New(errs.KindVCS, "VCS_PRECONDITIONS_FAILED", fmt.Sprintf("VCS preconditions failed: %v", vcsResult.Errors))
		}
	}

	for _, pkg := range pctx.Packages {
		result := validate.ValidatePackage(pkg, p.cfg, 0)
		pctx.Warnings = append(pctx.Warnings, result.Warnings...)
		if !result.Valid {
			return errs.New(errs.KindValidation, "PACKAGE_INVALID", fmt.Sprintf("%s failed validation: %v", pkg.Name, result.Errors))
		}
	}

	return nil
}
