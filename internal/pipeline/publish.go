package pipeline

import (
	"context"

	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pm"
	"github.com/monopub/engine/internal/retry"
)

// publish is the PUBLISH phase: publish each selected package, in
// topological order, to the registry that claims its scope. Concurrency
// respects the dependency graph; an individual package's failure never
// aborts the run, it just marks that package failed and continues.
func (p *Pipeline) publish(ctx context.Context, pctx *model.PublishContext, runOpts RunOptions) {
	names := make([]string, 0, len(pctx.Packages))
	byName := make(map[string]*model.Package, len(pctx.Packages))
	for _, pkg := range pctx.Packages {
		names = append(names, pkg.Name)
		byName[pkg.Name] = pkg
	}

	concurrency := 1
	if p.cfg.Publish.Parallel && p.cfg.Concurrency > 1 {
		concurrency = p.cfg.Concurrency
	}

	graph := p.resolver.Workspace().Graph
	results := runGraphPhase(ctx, names, graph, concurrency, func(ctx context.Context, name string) error {
		return p.publishOne(ctx, byName[name], pctx, runOpts)
	})

	for _, name := range names {
		res := results[name]
		if res.Skipped {
			pctx.Statuses[name].Status = model.StatusSkipped
			pctx.Statuses[name].Err = res.Cause
			p.notify(pctx, runOpts, name)
		}
	}
}

// publishOne publishes a single package, transitioning its tracked status
// through publishing -> published/failed. Transient registry errors are
// retried with exponential backoff; auth and validation failures are not.
func (p *Pipeline) publishOne(ctx context.Context, pkg *model.Package, pctx *model.PublishContext, runOpts RunOptions) error {
	status := pctx.Statuses[pkg.Name]
	status.Status = model.StatusPublishing
	p.notify(pctx, runOpts, pkg.Name)

	reg, err := p.registries.SelectForPackage(pkg.Name)
	if err != nil {
		status.Status = model.StatusFailed
		status.Err = err
		p.notify(pctx, runOpts, pkg.Name)
		return err
	}
	status.Registry = reg.Name

	if pctx.DryRun {
		status.Status = model.StatusSkipped
		p.notify(pctx, runOpts, pkg.Name)
		return nil
	}

	publishOpts := pm.PublishOptions{
		Registry: reg.URL,
		Tag:      p.cfg.Publish.Tag,
		Access:   p.cfg.Publish.Access,
		DryRun:   false,
	}

	err = retry.Do(ctx, func(ctx context.Context) error {
		return p.pmClient.Publish(ctx, pkg.Dir, publishOpts)
	}, retry.WithRetryCondition(retry.IsTransientError))

	if err != nil {
		status.Status = model.StatusFailed
		status.Err = err
		p.notify(pctx, runOpts, pkg.Name)
		return err
	}

	status.Status = model.StatusPublished
	p.notify(pctx, runOpts, pkg.Name)
	return nil
}
