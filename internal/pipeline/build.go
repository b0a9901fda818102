package pipeline

import (
	"context"
	"os/exec"

	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
)

// hasBuildScript reports whether pkg's manifest declares a "scripts.build" entry.
func hasBuildScript(pkg *model.Package) bool {
	scripts, ok := pkg.Manifest["scripts"].(map[string]any)
	if !ok {
		return false
	}
	script, _ := scripts["build"].(string)
	return script != ""
}

// build is the BUILD phase: run opts.BuildCommand in every selected package
// that declares a build script. Respects the dependency graph so a package
// only builds once its selected dependencies have built successfully.
// A build failure is recorded on that package's status and is fatal to the
// whole pipeline only when validation.requireBuild is set.
func (p *Pipeline) build(ctx context.Context, pctx *model.PublishContext, opts RunOptions) error {
	names := make([]string, 0, len(pctx.Packages))
	byName := make(map[string]*model.Package, len(pctx.Packages))
	for _, pkg := range pctx.Packages {
		if hasBuildScript(pkg) {
			names = append(names, pkg.Name)
		}
		byName[pkg.Name] = pkg
	}
	if len(names) == 0 {
		return nil
	}

	concurrency := 1
	if p.cfg.Publish.Parallel && p.cfg.Concurrency > 1 {
		concurrency = p.cfg.Concurrency
	}

	graph := p.resolver.Workspace().Graph
	results := runGraphPhase(ctx, names, graph, concurrency, func(ctx context.Context, name string) error {
		return p.runBuildCommand(ctx, byName[name], opts.BuildCommand)
	})

	var failed []string
	for _, name := range names {
		res := results[name]
		switch {
		case res.Skipped:
			pctx.Statuses[name].Status = model.StatusSkipped
			pctx.Statuses[name].Err = res.Cause
		case res.Err != nil:
			pctx.Statuses[name].Status = model.StatusFailed
			pctx.Statuses[name].Err = res.Err
			pctx.Warnings = append(pctx.Warnings, name+": build failed: "+res.Err.Error())
			failed = append(failed, name)
		}
		p.notify(pctx, opts, name)
	}

	if len(failed) > 0 && p.cfg.Validation.RequireBuild {
		return errs.New(errs.KindPublish, "BUILD_REQUIRED", "build failed for: "+joinNames(failed))
	}
	return nil
}

func (p *Pipeline) runBuildCommand(ctx context.Context, pkg *model.Package, command string) error {
	if command == "" {
		command = "npm run build"
	}
	// #nosec G204 - build command is operator-configured, same trust level as hooks
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = pkg.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Wrap(errs.KindPublish, "BUILD_FAILED", "build failed for "+pkg.Name+": "+string(out), err)
	}
	return nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
