// Package registry manages named package registries, per-host credential
// tokens, and scope-based registry selection for a package.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pm"
)

// Manager holds a named map of Registries with a designated default.
type Manager struct {
	mu           sync.RWMutex
	registries   map[string]model.Registry
	defaultName  string
	pmClient     pm.Client
	credsPath    string
	connCache    *connCache
}

// New creates a Manager. pmClient is used for ValidateConnection's
// who-am-I call; credsPath is the credentials file path (see Token/SaveToken/RemoveToken).
func New(pmClient pm.Client, credsPath string) *Manager {
	return &Manager{
		registries: map[string]model.Registry{},
		pmClient:   pmClient,
		credsPath:  credsPath,
		connCache:  newConnCache(),
	}
}

// Add registers a registry under name. If this is the first registry added,
// or setDefault is true, it becomes the default.
func (m *Manager) Add(name string, reg model.Registry, setDefault bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg.Name = name
	m.registries[name] = reg
	if setDefault || m.defaultName == "" {
		m.defaultName = name
	}
}

// Get returns the named registry, or the default if name is empty.
func (m *Manager) Get(name string) (model.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if name == "" {
		name = m.defaultName
	}
	reg, ok := m.registries[name]
	if !ok {
		return model.Registry{}, errs.New(errs.KindRegistry, "UNKNOWN_REGISTRY", "no such registry: "+name)
	}
	return reg, nil
}

// List returns all registries sorted by name.
func (m *Manager) List() []model.Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.registries))
	for n := range m.registries {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]model.Registry, 0, len(names))
	for _, n := range names {
		out = append(out, m.registries[n])
	}
	return out
}

// SetDefault changes the default registry.
func (m *Manager) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.registries[name]; !ok {
		return errs.New(errs.KindRegistry, "UNKNOWN_REGISTRY", "no such registry: "+name)
	}
	m.defaultName = name
	return nil
}

// packageScope returns the scope portion of a package name ("@scope/name"),
// or "" if the package is unscoped.
func packageScope(name string) string {
	if !strings.HasPrefix(name, "@") {
		return ""
	}
	if idx := strings.Index(name, "/"); idx > 0 {
		return name[:idx]
	}
	return ""
}

// SelectForPackage returns the registry that claims name's scope, falling
// back to the default registry if none does.
func (m *Manager) SelectForPackage(name string) (model.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scope := packageScope(name)
	if scope != "" {
		names := make([]string, 0, len(m.registries))
		for n := range m.registries {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			reg := m.registries[n]
			for _, s := range reg.Scopes {
				if s == scope {
					return reg, nil
				}
			}
		}
	}

	reg, ok := m.registries[m.defaultName]
	if !ok {
		return model.Registry{}, errs.New(errs.KindRegistry, "NO_DEFAULT_REGISTRY", "no default registry configured")
	}
	return reg, nil
}

// ValidateConnection performs a read-only who-am-I call against the named
// registry (or the default), caching the result briefly so repeated
// precheck runs don't hammer the registry.
func (m *Manager) ValidateConnection(ctx context.Context, name string) (string, error) {
	reg, err := m.Get(name)
	if err != nil {
		return "", err
	}

	if user, ok := m.connCache.get(reg.URL); ok {
		return user, nil
	}

	user, err := m.pmClient.WhoAmI(ctx, reg.URL)
	if err != nil {
		return "", errs.Wrap(errs.KindRegistry, "AUTH_FAILED", "could not authenticate to "+reg.URL, err)
	}
	m.connCache.set(reg.URL, user)
	return user, nil
}
