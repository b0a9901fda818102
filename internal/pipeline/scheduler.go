package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
	"golang.org/x/sync/errgroup"
)

// phaseOutcome is one package's result from a single runGraphPhase call.
// Cause is set when Skipped is true: the error (or skip cause) of the
// dependency that prevented this package from running.
type phaseOutcome struct {
	Err     error
	Skipped bool
	Cause   error
}

// runGraphPhase runs fn once per name in order, respecting the dependency
// graph: a package only becomes eligible once every intra-selection
// dependency it has has completed in this same call. A package whose
// dependency failed or was skipped is itself recorded as skipped rather
// than run. Eligible packages within a wave run concurrently, bounded by
// concurrency.
func runGraphPhase(ctx context.Context, order []string, graph *model.DependencyGraph, concurrency int, fn func(ctx context.Context, name string) error) map[string]phaseOutcome {
	if concurrency < 1 {
		concurrency = 1
	}

	selected := make(map[string]struct{}, len(order))
	for _, n := range order {
		selected[n] = struct{}{}
	}

	results := make(map[string]phaseOutcome, len(order))
	var mu sync.Mutex

	remaining := append([]string{}, order...)
	for len(remaining) > 0 {
		var ready, blocked []string
		for _, name := range remaining {
			isBlocked, isSkipped, cause := dependencyState(name, graph, selected, results, &mu)
			switch {
			case isBlocked:
				blocked = append(blocked, name)
			case isSkipped:
				mu.Lock()
				results[name] = phaseOutcome{Skipped: true, Cause: cause}
				mu.Unlock()
			default:
				ready = append(ready, name)
			}
		}
		remaining = blocked

		if len(ready) == 0 {
			// Nothing newly ready and nothing skipped this pass: the
			// remaining set can never become eligible (should not happen
			// against an acyclic, pre-validated graph), so stop here
			// rather than spin.
			break
		}

		sort.Strings(ready)
		g, gctx := errgroup.WithContext(ctx)
		sem := make(chan struct{}, concurrency)
		for _, name := range ready {
			name := name
			sem <- struct{}{}
			g.Go(func() error {
				defer func() { <-sem }()
				err := fn(gctx, name)
				mu.Lock()
				results[name] = phaseOutcome{Err: err}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	return results
}

func dependencyState(name string, graph *model.DependencyGraph, selected map[string]struct{}, results map[string]phaseOutcome, mu *sync.Mutex) (blocked, skipped bool, cause error) {
	for dep := range graph.Deps[name] {
		if _, inSelection := selected[dep]; !inSelection {
			continue
		}
		mu.Lock()
		res, done := results[dep]
		mu.Unlock()
		if !done {
			return true, false, nil
		}
		if res.Err != nil {
			skipped = true
			cause = errs.Wrap(errs.KindPublish, "DEPENDENCY_FAILED", "dependency "+dep+" failed", res.Err)
		} else if res.Skipped && cause == nil {
			skipped = true
			cause = errs.Wrap(errs.KindPublish, "DEPENDENCY_SKIPPED", "dependency "+dep+" was skipped", res.Cause)
		}
	}
	return false, skipped, cause
}
