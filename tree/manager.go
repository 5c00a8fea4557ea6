// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/componentfabric/comptree/remote"
)

// Manager is a node mirroring one manager process. It holds the
// manager's cached views (configuration, profile, module lists,
// factory profiles), its component and slave manager children, and
// the master links maintained by reparenting.
//
// Cached views are fetched on first access and reset to unfetched by
// Reparse or by the mutating operation that invalidates them. The
// maps and slices returned by the accessors are shared snapshots;
// treat them as read-only.
type Manager struct {
	node
	handle remote.ManagerHandle

	// Cached views, guarded by mu. nil means unfetched; fetches
	// normalize empty results to non-nil so absence is unambiguous.
	configuration   map[string]string
	profile         map[string]string
	factoryProfiles []map[string]string
	loadableModules []map[string]string
	loadedModules   []map[string]string

	// masters holds the out-of-tree master links of a slave manager,
	// guarded by mu. Reparse preserves it: the fabric offers no call
	// to refetch a slave's masters.
	masters []*Manager
}

// newManager builds a manager node and eagerly parses its component
// and slave children. The node is private to the caller until it is
// attached, so taking its fresh lock here cannot contend.
func newManager(ctx context.Context, name string, parent Node, handle remote.ManagerHandle, logger *slog.Logger) (*Manager, error) {
	m := &Manager{handle: handle}
	m.init(m, name, KindManager, parent, logger)
	if parentManager, ok := parent.(*Manager); ok {
		m.masters = []*Manager{parentManager}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.reparseLocked(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func newZombieManager(name string, parent Node, handle remote.ManagerHandle, logger *slog.Logger) *Manager {
	m := &Manager{handle: handle}
	m.init(m, name, KindManager, parent, logger)
	m.zombie = true
	return m
}

// Handle returns the manager's remote handle.
func (m *Manager) Handle() remote.ManagerHandle {
	return m.handle
}

// Reparse resets every cached view to unfetched and rebuilds the
// component and slave manager children from fresh listings.
func (m *Manager) Reparse(ctx context.Context) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reparseLocked(ctx)
}

// Caller must hold m.mu.
func (m *Manager) reparseLocked(ctx context.Context) error {
	m.configuration = nil
	m.profile = nil
	m.factoryProfiles = nil
	m.loadableModules = nil
	m.loadedModules = nil
	m.clearChildrenLocked()
	if err := m.parseComponentChildrenLocked(ctx); err != nil {
		return err
	}
	return m.parseManagerChildrenLocked(ctx)
}

// parseComponentChildrenLocked rebuilds the component children from
// the manager's component listing. A listing rejected as a bad
// parameter leaves zero component children and is not an error; an
// unreachable component becomes a zombie child. Caller must hold m.mu.
func (m *Manager) parseComponentChildrenLocked(ctx context.Context) error {
	handles, err := m.handle.Components(ctx)
	if err != nil {
		if remote.IsBadParameter(err) {
			m.logger.Warn("component listing rejected", "manager", m.name, "error", err)
			m.replaceChildrenOfKindLocked(KindComponent, nil)
			return nil
		}
		return fmt.Errorf("listing components of %q: %w", m.name, err)
	}

	var fresh []Node
	zombies := 0
	for _, handle := range handles {
		profile, err := handle.Profile(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Warn("zombie component", "manager", m.name,
				"ref", handle.Ref(), "error", err)
			name := fmt.Sprintf("zombie%d.rtc", zombies)
			zombies++
			fresh = append(fresh, newZombieComponent(name, m.self, handle, m.logger))
			continue
		}
		fresh = append(fresh, newComponent(profile.InstanceName+".rtc", m.self, handle, profile, m.logger))
	}
	m.replaceChildrenOfKindLocked(KindComponent, fresh)
	return nil
}

// parseManagerChildrenLocked rebuilds the slave manager children. A
// peer without master capability yields zero manager children,
// silently; an unreachable slave becomes a zombie child. Slaves whose
// profile carries no name, zombies included, get synthetic names
// slave0, slave1, ... in listing order. Caller must hold m.mu.
func (m *Manager) parseManagerChildrenLocked(ctx context.Context) error {
	handles, err := m.handle.SlaveManagers(ctx)
	if err != nil {
		if remote.IsUnsupported(err) {
			m.logger.Debug("slave managers unsupported", "manager", m.name)
			m.replaceChildrenOfKindLocked(KindManager, nil)
			return nil
		}
		return fmt.Errorf("listing slave managers of %q: %w", m.name, err)
	}

	var fresh []Node
	unnamed := 0
	for _, handle := range handles {
		profile, err := handle.Profile(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Warn("zombie slave manager", "manager", m.name,
				"ref", handle.Ref(), "error", err)
			name := fmt.Sprintf("slave%d", unnamed)
			unnamed++
			fresh = append(fresh, newZombieManager(name, m.self, handle, m.logger))
			continue
		}
		name, ok := profile.Get("name")
		if !ok {
			name = fmt.Sprintf("slave%d", unnamed)
			unnamed++
		}
		slave, err := newManager(ctx, name, m.self, handle, m.logger)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Warn("zombie slave manager", "manager", m.name,
				"name", name, "error", err)
			fresh = append(fresh, newZombieManager(name, m.self, handle, m.logger))
			continue
		}
		fresh = append(fresh, slave)
	}
	m.replaceChildrenOfKindLocked(KindManager, fresh)
	return nil
}

// Components returns the component children, in listing order.
func (m *Manager) Components() []*Component {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Component
	for _, child := range m.children {
		if component, ok := child.(*Component); ok {
			out = append(out, component)
		}
	}
	return out
}

// Slaves returns the slave manager children, in listing order.
func (m *Manager) Slaves() []*Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Manager
	for _, child := range m.children {
		if manager, ok := child.(*Manager); ok {
			out = append(out, manager)
		}
	}
	return out
}

// Masters returns the managers that hold this one as a slave. Empty
// for masters reached directly through a naming context.
func (m *Manager) Masters() []*Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Manager(nil), m.masters...)
}

// Configuration returns the manager's configuration, fetching it on
// first access.
func (m *Manager) Configuration(ctx context.Context) (map[string]string, error) {
	if err := m.zombieCheck(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.configuration == nil {
		list, err := m.handle.Configuration(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching configuration of %q: %w", m.name, err)
		}
		m.configuration = remote.PropertyMap(list)
	}
	return m.configuration, nil
}

// Profile returns the manager's profile, fetching it on first access.
func (m *Manager) Profile(ctx context.Context) (map[string]string, error) {
	if err := m.zombieCheck(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		list, err := m.handle.Profile(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching profile of %q: %w", m.name, err)
		}
		m.profile = remote.PropertyMap(list)
	}
	return m.profile, nil
}

// FactoryProfiles returns the profiles of the manager's component
// factories, fetching them on first access.
func (m *Manager) FactoryProfiles(ctx context.Context) ([]map[string]string, error) {
	if err := m.zombieCheck(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.factoryProfiles == nil {
		lists, err := m.handle.FactoryProfiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching factory profiles of %q: %w", m.name, err)
		}
		m.factoryProfiles = propertyMaps(lists)
	}
	return m.factoryProfiles, nil
}

// LoadableModules returns the profiles of modules the manager could
// load, fetching them on first access.
func (m *Manager) LoadableModules(ctx context.Context) ([]map[string]string, error) {
	if err := m.zombieCheck(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadableModules == nil {
		lists, err := m.handle.LoadableModules(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching loadable modules of %q: %w", m.name, err)
		}
		m.loadableModules = propertyMaps(lists)
	}
	return m.loadableModules, nil
}

// LoadedModules returns the profiles of currently loaded modules,
// fetching them on first access.
func (m *Manager) LoadedModules(ctx context.Context) ([]map[string]string, error) {
	if err := m.zombieCheck(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadedModules == nil {
		lists, err := m.handle.LoadedModules(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching loaded modules of %q: %w", m.name, err)
		}
		m.loadedModules = propertyMaps(lists)
	}
	return m.loadedModules, nil
}

// CachedConfiguration returns the configuration cache without
// touching the remote manager, and whether it was fetched.
func (m *Manager) CachedConfiguration() (map[string]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configuration, m.configuration != nil
}

// CachedProfile returns the profile cache without touching the
// remote manager, and whether it was fetched.
func (m *Manager) CachedProfile() (map[string]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile, m.profile != nil
}

// IsMaster reports whether the remote manager runs in master mode.
// The answer is not cached.
func (m *Manager) IsMaster(ctx context.Context) (bool, error) {
	if err := m.zombieCheck(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	master, err := m.handle.IsMaster(ctx)
	if err != nil {
		return false, fmt.Errorf("querying master mode of %q: %w", m.name, err)
	}
	return master, nil
}

// CreateComponent asks the manager to instantiate a component from
// spec ("Type" or "Type?instance_name=x&key=value"). On success the
// component children are re-resolved eagerly, so the new instances
// appear immediately.
func (m *Manager) CreateComponent(ctx context.Context, spec string) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status, err := m.handle.CreateComponent(ctx, spec)
	if err != nil {
		return fmt.Errorf("creating component on %q: %w", m.name, err)
	}
	if status != remote.StatusOK {
		return &CreateComponentError{Spec: spec, Status: status}
	}
	return m.parseComponentChildrenLocked(ctx)
}

// DeleteComponent asks the manager to destroy a component instance.
// On success the component children are re-resolved eagerly.
func (m *Manager) DeleteComponent(ctx context.Context, instanceName string) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status, err := m.handle.DeleteComponent(ctx, instanceName)
	if err != nil {
		return fmt.Errorf("deleting component on %q: %w", m.name, err)
	}
	if status != remote.StatusOK {
		return &DeleteComponentError{InstanceName: instanceName, Status: status}
	}
	return m.parseComponentChildrenLocked(ctx)
}

// LoadModule loads a shared module into the manager and runs its init
// function. A manager that faults inside the init function reports an
// application fault; that detail is surfaced in the returned
// *LoadModuleError rather than as a transport failure. On success the
// module and factory caches are invalidated.
func (m *Manager) LoadModule(ctx context.Context, path, initFunc string) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status, err := m.handle.LoadModule(ctx, path, initFunc)
	if err != nil {
		var fault *remote.Fault
		if errors.As(err, &fault) && fault.Code == remote.FaultApplication {
			return &LoadModuleError{Path: path, Reason: fault.Detail}
		}
		return fmt.Errorf("loading module on %q: %w", m.name, err)
	}
	if status != remote.StatusOK {
		return &LoadModuleError{Path: path, Status: status}
	}
	m.invalidateModuleCachesLocked()
	return nil
}

// UnloadModule unloads a previously loaded module. On success the
// module and factory caches are invalidated.
func (m *Manager) UnloadModule(ctx context.Context, path string) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status, err := m.handle.UnloadModule(ctx, path)
	if err != nil {
		return fmt.Errorf("unloading module on %q: %w", m.name, err)
	}
	if status != remote.StatusOK {
		return &UnloadModuleError{Path: path, Status: status}
	}
	m.invalidateModuleCachesLocked()
	return nil
}

// Caller must hold m.mu.
func (m *Manager) invalidateModuleCachesLocked() {
	m.loadedModules = nil
	m.loadableModules = nil
	m.factoryProfiles = nil
}

// SetConfigParameter sets one manager configuration parameter. On
// success the configuration cache is invalidated and refetched
// lazily.
func (m *Manager) SetConfigParameter(ctx context.Context, name, value string) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status, err := m.handle.SetConfiguration(ctx, name, value)
	if err != nil {
		return fmt.Errorf("setting configuration on %q: %w", m.name, err)
	}
	if status != remote.StatusOK {
		return &SetConfigError{Name: name, Value: value, Status: status}
	}
	m.configuration = nil
	return nil
}

// Fork asks the manager process to fork a slave. No local state
// changes; reparse to see the new slave.
func (m *Manager) Fork(ctx context.Context) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.handle.Fork(ctx); err != nil {
		return fmt.Errorf("forking %q: %w", m.name, err)
	}
	return nil
}

// Shutdown asks the manager process to exit. No local state changes.
func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.handle.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down %q: %w", m.name, err)
	}
	return nil
}

// Restart asks the manager process to restart. No local state
// changes.
func (m *Manager) Restart(ctx context.Context) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.handle.Restart(ctx); err != nil {
		return fmt.Errorf("restarting %q: %w", m.name, err)
	}
	return nil
}

func propertyMaps(lists []remote.PropertyList) []map[string]string {
	out := make([]map[string]string, len(lists))
	for i, list := range lists {
		out[i] = remote.PropertyMap(list)
	}
	return out
}
