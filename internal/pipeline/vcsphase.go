package pipeline

import (
	"context"
	"strings"

	"github.com/monopub/engine/internal/model"
)

// vcsPhase is the VCS phase: on any successful publish, commit the declared
// file list and create/push tags per the configured strategy. Runs only if
// at least one package published successfully and is never retried; a
// failure here is recorded as a warning, not a pipeline error, since the
// publish itself already succeeded.
func (p *Pipeline) vcsPhase(ctx context.Context, pctx *model.PublishContext) error {
	if pctx.DryRun {
		return nil
	}

	var published []*model.Package
	for _, pkg := range pctx.Packages {
		if pctx.Statuses[pkg.Name].Status == model.StatusPublished {
			published = append(published, pkg)
		}
	}
	if len(published) == 0 {
		return nil
	}

	if p.cfg.Git.CreateCommit {
		message := commitMessage(p.cfg.Git.MessageTemplate, p.cfg.Monorepo.VersionStrategy, published)
		if err := p.vcsClient.Commit(ctx, message, p.cfg.Git.Files, p.cfg.Git.Sign); err != nil {
			return err
		}
		if p.cfg.Git.PushCommit {
			if err := p.vcsClient.Push(ctx, p.cfg.Git.Remote, p.cfg.Git.Branch); err != nil {
				return err
			}
		}
	}

	if p.cfg.Git.CreateTag {
		for _, tag := range tagsFor(p.cfg.Monorepo.VersionStrategy, p.cfg.Git.TagPrefix, published) {
			if err := p.vcsClient.CreateTag(ctx, tag, tag, p.cfg.Git.Sign); err != nil {
				return err
			}
			if p.cfg.Git.PushTag {
				if err := p.vcsClient.PushTag(ctx, tag, p.cfg.Git.Remote); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// commitMessage fills the {version} placeholder in template: the shared
// version under a fixed strategy, or a comma-separated "name@version" list
// under independent versioning, so every published package survives into
// the commit message rather than just the first.
func commitMessage(template, strategy string, published []*model.Package) string {
	if template == "" {
		template = "chore(release): {version}"
	}
	return strings.ReplaceAll(template, "{version}", versionPlaceholder(strategy, published))
}

func versionPlaceholder(strategy string, published []*model.Package) string {
	if strategy == "fixed" {
		return published[0].Version
	}
	parts := make([]string, 0, len(published))
	for _, pkg := range published {
		parts = append(parts, pkg.Name+"@"+pkg.Version)
	}
	return strings.Join(parts, ", ")
}

// tagsFor computes the tag names to create for a successful publish: one
// shared tag under a fixed-version strategy, or one per-package tag
// ("name@version") under independent versioning.
func tagsFor(strategy, prefix string, published []*model.Package) []string {
	if strategy == "fixed" {
		return []string{prefix + published[0].Version}
	}
	tags := make([]string, 0, len(published))
	for _, pkg := range published {
		tags = append(tags, pkg.Name+"@"+pkg.Version)
	}
	return tags
}
