package pipeline

import (
	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/version"
)

// bump is BUMP: compute each selected package's next version per the
// configured strategy and write it to disk, rewriting workspace-protocol
// dependency specifiers to the concrete version when configured. Never
// parallelized: it mutates shared manifest files.
func (p *Pipeline) bump(pctx *model.PublishContext, opts RunOptions) error {
	kind := opts.VersionKind
	if kind == "" {
		kind = version.KindPatch
	}

	next := make(map[string]string, len(pctx.Packages))

	for _, pkg := range pctx.Packages {
		var nextVersion string

		switch {
		case opts.ExactVersion != "":
			v, err := p.versionEngine.SetExact(opts.ExactVersion)
			if err != nil {
				return errs.Wrap(errs.KindVersion, "BUMP_FAILED", "setting exact version for "+pkg.Name, err)
			}
			nextVersion = v.String()
		case opts.NewVersionFunc != nil:
			v, err := opts.NewVersionFunc(pkg, p.versionEngine)
			if err != nil {
				return errs.Wrap(errs.KindVersion, "BUMP_FAILED", "computing version for "+pkg.Name, err)
			}
			nextVersion = v
		case p.cfg.Version.RecommendPolicy == "prefer-tag":
			// Trust what's actually published over the manifest's version
			// field, caching the lookup in case bump runs more than once
			// against the same selection (e.g. a dry-run preview).
			nextVersion = p.cachedNextAgainstRegistry(pkg, kind, opts.Preid)
		default:
			current, err := p.versionEngine.CurrentVersion(pkg)
			if err != nil {
				return err
			}
			bumped, err := p.versionEngine.Bump(current, kind, opts.Preid)
			if err != nil {
				return errs.Wrap(errs.KindVersion, "BUMP_FAILED", "bumping "+pkg.Name, err)
			}
			nextVersion = bumped.String()
		}

		if p.cfg.Monorepo.VersionStrategy == "fixed" {
			// Every package in the selection moves to the same next version;
			// the first computed version wins and is reused for the rest.
			if fixed, ok := next["__fixed__"]; ok {
				nextVersion = fixed
			} else {
				next["__fixed__"] = nextVersion
			}
		}

		next[pkg.Name] = nextVersion
	}

	updates := make([]version.Update, 0, len(pctx.Packages))
	for _, pkg := range pctx.Packages {
		updates = append(updates, version.Update{Dir: pkg.Dir, Version: next[pkg.Name]})
	}
	if err := p.manifestWriter.BatchUpdate(updates); err != nil {
		return errs.Wrap(errs.KindVersion, "MANIFEST_WRITE_FAILED", "writing bumped versions", err)
	}

	if p.cfg.Monorepo.RewriteWorkspaceDeps {
		for _, pkg := range pctx.Packages {
			for _, dep := range pctx.Packages {
				if dep.Name == pkg.Name {
					continue
				}
				if err := p.manifestWriter.RewriteWorkspaceDependency(pkg.Dir, dep.Name, next[dep.Name]); err != nil {
					return errs.Wrap(errs.KindVersion, "WORKSPACE_DEP_REWRITE_FAILED", "rewriting "+dep.Name+" in "+pkg.Name, err)
				}
			}
		}
	}

	for _, pkg := range pctx.Packages {
		pkg.Version = next[pkg.Name]
	}

	return nil
}

// cachedNextAgainstRegistry computes the next version against the
// registry's published state, reusing a recently computed result for the
// same package/kind/preid rather than re-querying the registry.
func (p *Pipeline) cachedNextAgainstRegistry(pkg *model.Package, kind version.Kind, preid string) string {
	key := "bump:" + pkg.Name + ":" + string(kind) + ":" + preid
	if v, ok := p.cache.Get(key); ok {
		return v.(string)
	}

	next, err := p.versionEngine.NextAgainstRegistry(pkg.Name, pkg.Version, kind, preid)
	if err != nil {
		return pkg.Version
	}
	result := next.String()
	p.cache.Set(key, result, 0)
	return result
}
