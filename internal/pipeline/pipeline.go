// Package pipeline implements the Publish Pipeline: the state machine that
// drives a monorepo release from workspace discovery through validation,
// build, version bump, changelog generation, publish, and VCS bookkeeping.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/monopub/engine/internal/analytics"
	"github.com/monopub/engine/internal/cache"
	"github.com/monopub/engine/internal/changelog"
	"github.com/monopub/engine/internal/config"
	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/hooks"
	"github.com/monopub/engine/internal/logging"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pm"
	"github.com/monopub/engine/internal/registry"
	"github.com/monopub/engine/internal/vcs"
	"github.com/monopub/engine/internal/version"
	"github.com/monopub/engine/internal/workspace"
)

// RunOptions controls one pipeline invocation, mirroring the `publish`
// CLI command's flags.
type RunOptions struct {
	Filter         []string
	IgnorePrivate  bool
	SkipBuild      bool
	SkipGitCheck   bool
	DryRun         bool
	BuildCommand   string // externally provided; run only if the manifest declares a "build" script
	VersionKind    version.Kind
	ExactVersion   string // overrides VersionKind when non-empty; monorepo.versionStrategy=fixed only
	Preid          string
	NewVersionFunc func(pkg *model.Package, engine *version.Engine) (string, error)

	// Progress, if set, is invoked every time a package's status changes
	// during BUILD and PUBLISH. Intended for driving a live terminal view;
	// it is called synchronously from the scheduler's worker goroutines, so
	// it must not block or mutate pipeline state.
	Progress func(model.PublishStatus)
}

func (p *Pipeline) notify(pctx *model.PublishContext, opts RunOptions, name string) {
	if opts.Progress == nil {
		return
	}
	if status, ok := pctx.Statuses[name]; ok {
		opts.Progress(*status)
	}
}

// runHook executes the named lifecycle hook, records its result on pctx, and
// surfaces a failure as a pipeline warning rather than discarding it.
func (p *Pipeline) runHook(ctx context.Context, pctx *model.PublishContext, name hooks.Name, hookCtx map[string]any) model.HookResult {
	result := p.hookRunner.Run(ctx, name, hookCtx)
	pctx.HookResults = append(pctx.HookResults, result)
	if !result.Success {
		pctx.Warnings = append(pctx.Warnings, string(name)+" hook failed: "+result.Err)
	}
	return result
}

// Pipeline wires together every collaborator the Publish Pipeline needs.
type Pipeline struct {
	cfg             *config.Config
	resolver        *workspace.Resolver
	pmClient        pm.Client
	vcsClient       vcs.Client
	registries      *registry.Manager
	hookRunner      *hooks.Runner
	store           *analytics.Store
	cache           *cache.Cache
	versionEngine   *version.Engine
	manifestWriter  *version.ManifestWriter
	changelogEngine *changelog.Engine
	logger          *slog.Logger
}

// SetLogger overrides the pipeline's structured logger (default: Info-level
// JSON to stderr). Intended for wiring in the CLI's DEBUG-derived logger.
func (p *Pipeline) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

// New constructs a Pipeline rooted at the resolved workspace.
func New(cfg *config.Config, resolver *workspace.Resolver, pmClient pm.Client, vcsClient vcs.Client, registries *registry.Manager, hookRunner *hooks.Runner, store *analytics.Store) *Pipeline {
	return &Pipeline{
		cfg:             cfg,
		resolver:        resolver,
		pmClient:        pmClient,
		vcsClient:       vcsClient,
		registries:      registries,
		hookRunner:      hookRunner,
		store:           store,
		cache:           cache.New(256, 2*time.Minute),
		versionEngine:   version.New(pmClient),
		manifestWriter:  version.NewManifestWriter(),
		changelogEngine: changelog.New(vcsClient),
		logger:          logging.New(false),
	}
}

// Run drives the full INIT -> VALIDATE -> BUILD? -> BUMP -> CHANGELOG? ->
// PUBLISH -> VCS? -> REPORT state machine and returns the final report.
// Any state can fail straight to REPORT with accumulated errors; only
// PUBLISH failures are per-package rather than pipeline-fatal.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*model.PublishReport, error) {
	pctx := &model.PublishContext{
		StartedAt: time.Now(),
		DryRun:    opts.DryRun || p.cfg.Publish.DryRun,
		Changelog: map[string]*model.ChangelogContent{},
	}
	p.logger.Info("pipeline run starting", "dryRun", pctx.DryRun, "filter", opts.Filter)

	if err := p.init(pctx, opts); err != nil {
		p.logger.Error("init failed", "error", err)
		pctx.Errors = append(pctx.Errors, err)
		return p.report(ctx, pctx), err
	}
	p.logger.Info("init complete", "packages", len(pctx.Packages))

	p.runHook(ctx, pctx, hooks.PreValidate, nil)
	if err := p.validate(ctx, pctx, opts); err != nil {
		pctx.Errors = append(pctx.Errors, err)
		return p.report(ctx, pctx), err
	}
	p.runHook(ctx, pctx, hooks.PostValidate, nil)

	if !opts.SkipBuild {
		if err := p.build(ctx, pctx, opts); err != nil {
			pctx.Errors = append(pctx.Errors, err)
			return p.report(ctx, pctx), err
		}
	}

	p.runHook(ctx, pctx, hooks.PreVersion, nil)
	if err := p.bump(pctx, opts); err != nil {
		pctx.Errors = append(pctx.Errors, err)
		return p.report(ctx, pctx), err
	}
	p.runHook(ctx, pctx, hooks.PostVersion, nil)

	p.runHook(ctx, pctx, hooks.PreChangelog, nil)
	if err := p.generateChangelogs(ctx, pctx); err != nil {
		pctx.Warnings = append(pctx.Warnings, err.Error())
	}
	p.runHook(ctx, pctx, hooks.PostChangelog, nil)

	p.runHook(ctx, pctx, hooks.PrePublish, nil)
	p.publish(ctx, pctx, opts)

	if err := p.vcsPhase(ctx, pctx); err != nil {
		p.logger.Warn("vcs phase warning", "error", err)
		pctx.Warnings = append(pctx.Warnings, err.Error())
	}

	rpt := p.report(ctx, pctx)
	p.logger.Info("pipeline run complete", "success", rpt.Success, "published", len(rpt.Published), "failed", len(rpt.Failed), "skipped", len(rpt.Skipped))
	return rpt, nil
}

// init is INIT: resolve the selection in topological order and seed status.
func (p *Pipeline) init(pctx *model.PublishContext, opts RunOptions) error {
	ws := p.resolver.Workspace()
	if ws == nil {
		return errs.New(errs.KindConfig, "NO_WORKSPACE", "workspace not initialized")
	}
	pctx.WorkDir = ws.Root

	pkgs, err := p.resolver.GetPackages(opts.Filter, opts.IgnorePrivate)
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		return errs.New(errs.KindValidation, "NO_PACKAGES", "no packages matched the selection")
	}

	order, err := p.resolver.TopologicalOrder(opts.Filter)
	if err != nil {
		return err
	}

	byName := make(map[string]*model.Package, len(pkgs))
	for _, pk := range pkgs {
		byName[pk.Name] = pk
	}

	ordered := make([]*model.Package, 0, len(order))
	names := make([]string, 0, len(order))
	for _, name := range order {
		if pk, ok := byName[name]; ok {
			ordered = append(ordered, pk)
			names = append(names, name)
		}
	}

	pctx.Packages = ordered
	pctx.Statuses = make(map[string]*model.PublishStatus, len(names))
	tracker := NewStatusTracker(names)
	for _, s := range tracker.All() {
		st := s
		pctx.Statuses[st.Package] = &st
	}
	return nil
}
