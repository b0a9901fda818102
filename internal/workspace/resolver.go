// Package workspace discovers a monorepo's packages, builds the intra-workspace
// dependency graph, and computes deterministic publish ordering over it.
package workspace

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
)

// excludedDirs are never descended into when glob-expanding workspace patterns.
var excludedDirs = []string{"node_modules", ".git"}

// Resolver discovers and caches a Workspace for one root directory.
type Resolver struct {
	ws       *model.Workspace
	warnings []string
}

// New creates a Resolver. Call Initialize before using the other methods.
func New() *Resolver {
	return &Resolver{}
}

// Initialize walks up from startDir to find the workspace root, then
// discovers all packages under it. If no root is found, it falls back to
// single-package mode: the manifest at startDir becomes the sole Package.
func (r *Resolver) Initialize(startDir string) (*model.Workspace, error) {
	root, patterns, guess, err := findRoot(startDir)
	if err != nil {
		return nil, err
	}

	if root == "" {
		pkg, err := readManifest(startDir)
		if err != nil {
			return nil, errs.Wrap(errs.KindValidation, "NO_PACKAGES", "no workspace root and no package manifest found", err)
		}
		graph := model.NewDependencyGraph()
		graph.Packages[pkg.Name] = pkg
		graph.Order = []string{pkg.Name}
		r.ws = &model.Workspace{Root: startDir, Graph: graph, Protocol: model.ProtocolNpm}
		return r.ws, nil
	}

	dirs, err := expandPatterns(root, patterns)
	if err != nil {
		return nil, err
	}

	graph := model.NewDependencyGraph()
	for _, dir := range dirs {
		pkg, err := readManifest(dir)
		if err != nil {
			r.warnings = append(r.warnings, err.Error())
			continue
		}
		graph.Packages[pkg.Name] = pkg
	}

	buildEdges(graph)
	order, cycles := topologicalOrder(graph, allNames(graph))
	graph.Order = order
	graph.Cycles = cycles

	protocol := model.ProtocolNpm
	switch {
	case guess.pnpm:
		protocol = model.ProtocolPnpm
	case guess.yarn:
		protocol = model.ProtocolYarn
	}

	r.ws = &model.Workspace{Root: root, Patterns: patterns, Graph: graph, Protocol: protocol}
	return r.ws, nil
}

// Warnings returns non-fatal issues accumulated during Initialize (e.g.
// manifests that failed to parse and were omitted).
func (r *Resolver) Warnings() []string { return r.warnings }

// findRoot walks parents of startDir looking for a manifest that declares
// workspace patterns, or a sibling descriptor file.
func findRoot(startDir string) (root string, patterns []string, guess protocolGuess, err error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", nil, protocolGuess{}, err
	}

	for {
		patterns, guess, derr := declaredPatterns(dir)
		if derr != nil {
			return "", nil, protocolGuess{}, derr
		}
		if len(patterns) > 0 {
			return dir, patterns, guess, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, protocolGuess{}, nil
		}
		dir = parent
	}
}

// expandPatterns glob-expands workspace patterns relative to root, excluding
// nested dependency directories, and returns directories containing a manifest.
func expandPatterns(root string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var dirs []string

	for _, pattern := range patterns {
		negated := strings.HasPrefix(pattern, "!")
		glob := strings.TrimPrefix(pattern, "!")
		glob = strings.TrimSuffix(glob, "/")

		matches, err := doublestar.Glob(nil, filepath.ToSlash(filepath.Join(root, glob)))
		if err != nil {
			return nil, fmt.Errorf("expanding workspace pattern %q: %w", pattern, err)
		}

		for _, m := range matches {
			if isExcluded(m) {
				continue
			}
			if negated {
				delete(seen, m)
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			dirs = append(dirs, m)
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

func isExcluded(path string) bool {
	for _, ex := range excludedDirs {
		if strings.Contains(path, "/"+ex+"/") || strings.HasSuffix(path, "/"+ex) {
			return true
		}
	}
	return false
}

// buildEdges intersects each package's declared dependency names with the
// set of workspace package names; only those become graph edges.
func buildEdges(graph *model.DependencyGraph) {
	for name, pkg := range graph.Packages {
		for dep := range pkg.AllDeclaredDeps() {
			if dep == name {
				continue // self-edges are forbidden; surfaced as a cycle below
			}
			if _, ok := graph.Packages[dep]; ok {
				graph.AddEdge(name, dep)
			}
		}
		if _, ok := pkg.AllDeclaredDeps()[name]; ok {
			graph.AddEdge(name, name)
		}
	}
}

func allNames(graph *model.DependencyGraph) []string {
	names := make([]string, 0, len(graph.Packages))
	for name := range graph.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// globToRegexp converts a shell-style glob (only `*` is special) to a regexp.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// GetPackages returns packages matching filter (literal names or globs);
// when ignorePrivate is set, private packages are excluded.
func (r *Resolver) GetPackages(filter []string, ignorePrivate bool) ([]*model.Package, error) {
	if r.ws == nil {
		return nil, errs.New(errs.KindValidation, "NO_WORKSPACE", "workspace not initialized")
	}

	var matchers []*regexp.Regexp
	for _, f := range filter {
		re, err := globToRegexp(f)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", f, err)
		}
		matchers = append(matchers, re)
	}

	var out []*model.Package
	for _, name := range allNames(r.ws.Graph) {
		pkg := r.ws.Graph.Packages[name]
		if ignorePrivate && pkg.Private {
			continue
		}
		if len(matchers) == 0 {
			out = append(out, pkg)
			continue
		}
		for _, re := range matchers {
			if re.MatchString(name) {
				out = append(out, pkg)
				break
			}
		}
	}
	return out, nil
}

// TopologicalOrder returns package names in leaves-first order, restricted
// to filter when given. Fails if the selection contains a cycle.
func (r *Resolver) TopologicalOrder(filter []string) ([]string, error) {
	if r.ws == nil {
		return nil, errs.New(errs.KindValidation, "NO_WORKSPACE", "workspace not initialized")
	}

	selected := allNames(r.ws.Graph)
	if len(filter) > 0 {
		pkgs, err := r.GetPackages(filter, false)
		if err != nil {
			return nil, err
		}
		selected = selected[:0]
		for _, p := range pkgs {
			selected = append(selected, p.Name)
		}
	}

	order, cycles := topologicalOrder(r.ws.Graph, selected)
	if len(cycles) > 0 {
		return nil, errs.New(errs.KindValidation, "CYCLE_DETECTED",
			fmt.Sprintf("dependency cycle: %s", describeCycle(cycles[0]))).
			WithDetail("cycles", cycles)
	}
	return order, nil
}

func describeCycle(cycle []string) string {
	return strings.Join(append(append([]string{}, cycle...), cycle[0]), " → ")
}

// topologicalOrder computes a depth-first post-order traversal restricted to
// `selected`, breaking ties lexicographically for determinism. Any back edge
// to a node on the current stack is recorded as a cycle.
func topologicalOrder(graph *model.DependencyGraph, selected []string) (order []string, cycles [][]string) {
	inSelection := make(map[string]struct{}, len(selected))
	for _, n := range selected {
		inSelection[n] = struct{}{}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)
	var stack []string

	var visit func(name string)
	visit = func(name string) {
		if _, ok := inSelection[name]; !ok {
			return
		}
		switch color[name] {
		case black:
			return
		case gray:
			// back edge: build the cycle from the stack
			idx := indexOf(stack, name)
			cyc := append([]string{}, stack[idx:]...)
			cycles = append(cycles, cyc)
			return
		}

		color[name] = gray
		stack = append(stack, name)

		deps := make([]string, 0, len(graph.Deps[name]))
		for d := range graph.Deps[name] {
			deps = append(deps, d)
		}
		sort.Strings(deps)
		for _, d := range deps {
			visit(d)
		}

		stack = stack[:len(stack)-1]
		color[name] = black
		order = append(order, name)
	}

	names := append([]string{}, selected...)
	sort.Strings(names)
	for _, n := range names {
		visit(n)
	}

	if len(cycles) > 0 {
		return nil, cycles
	}
	return order, nil
}

func indexOf(stack []string, name string) int {
	for i, s := range stack {
		if s == name {
			return i
		}
	}
	return 0
}

// AffectedPackages returns the transitive set of dependents reachable from
// name, including name itself.
func (r *Resolver) AffectedPackages(name string) ([]string, error) {
	if r.ws == nil {
		return nil, errs.New(errs.KindValidation, "NO_WORKSPACE", "workspace not initialized")
	}
	seen := map[string]struct{}{name: {}}
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range r.ws.Graph.Dependents[cur] {
			if _, ok := seen[dep]; !ok {
				seen[dep] = struct{}{}
				queue = append(queue, dep)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// ValidateResult is the outcome of Validate.
type ValidateResult struct {
	Valid    bool
	Cycles   [][]string
	Warnings []string
}

// Validate reports cycles and workspace-specifier version mismatches.
func (r *Resolver) Validate() (*ValidateResult, error) {
	if r.ws == nil {
		return nil, errs.New(errs.KindValidation, "NO_WORKSPACE", "workspace not initialized")
	}
	_, cycles := topologicalOrder(r.ws.Graph, allNames(r.ws.Graph))

	var warnings []string
	for _, pkg := range r.ws.Graph.Packages {
		for dep, spec := range pkg.AllDeclaredDeps() {
			target, ok := r.ws.Graph.Packages[dep]
			if !ok || isWorkspaceProtocol(spec) {
				continue
			}
			if spec != target.Version && spec != "*" {
				warnings = append(warnings, fmt.Sprintf(
					"%s depends on %s@%s but workspace version is %s", pkg.Name, dep, spec, target.Version))
			}
		}
	}
	sort.Strings(warnings)

	return &ValidateResult{
		Valid:    len(cycles) == 0,
		Cycles:   cycles,
		Warnings: warnings,
	}, nil
}

// Workspace returns the initialized workspace, or nil if Initialize hasn't run.
func (r *Resolver) Workspace() *model.Workspace { return r.ws }
