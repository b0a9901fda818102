package pipeline

import (
	"context"
	"path/filepath"

	"github.com/monopub/engine/internal/changelog"
	"github.com/monopub/engine/internal/model"
)

// generateChangelogs is the CHANGELOG phase: generate and write release
// notes for each selected package from commits since the last tag. A
// failure here is never pipeline-fatal; it is recorded as a warning and the
// run proceeds to PUBLISH without changelog entries for the affected packages.
func (p *Pipeline) generateChangelogs(ctx context.Context, pctx *model.PublishContext) error {
	from, _ := p.vcsClient.LatestTag(ctx)
	repoURL, _ := p.vcsClient.RemoteURL(ctx, p.cfg.Git.Remote)

	var firstErr error
	for _, pkg := range pctx.Packages {
		content, err := p.changelogEngine.Generate(ctx, pkg.Version, from, "HEAD")
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		pctx.Changelog[pkg.Name] = content

		path := filepath.Join(pkg.Dir, "CHANGELOG.md")
		if err := changelog.Write(content, repoURL, path, false); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
