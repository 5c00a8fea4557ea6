// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package memfabric

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/componentfabric/comptree/remote"
)

// Compile-time interface check.
var _ remote.ManagerHandle = (*Manager)(nil)

// Manager is an in-memory manager process. It hosts components,
// tracks loaded modules and factories, and keeps its own side of the
// master/slave registration bookkeeping, the same way a real manager
// does: registering a slave here does not touch the slave's own
// master list.
type Manager struct {
	fabric *Fabric
	ref    string

	mu                sync.Mutex
	dead              bool
	master            bool
	profile           remote.PropertyList
	config            remote.PropertyList
	factories         []remote.PropertyList
	loadable          []remote.PropertyList
	loaded            []remote.PropertyList
	components        []*Component
	slaves            []string // refs, registration order
	masters           []string // refs, registration order
	instanceCounts    map[string]int
	restarts          int
	slavesUnsupported bool
	bindContext       *Context
	calls             map[string]int
	faults            map[string]error
	statuses          map[string]remote.Status
}

// NewManager registers a new manager. The name becomes the "name"
// profile property; an empty name leaves the profile nameless, which
// is how unnamed slaves are modeled. Managers start in master mode.
func (f *Fabric) NewManager(name string) *Manager {
	m := &Manager{
		fabric:         f,
		master:         true,
		instanceCounts: make(map[string]int),
		calls:          make(map[string]int),
		faults:         make(map[string]error),
		statuses:       make(map[string]remote.Status),
	}
	if name != "" {
		m.profile = remote.PropertyList{{Name: "name", Value: name}}
	}
	m.ref = f.newRef("mgr", m)
	return m
}

// Ref implements remote.ObjectRef.
func (m *Manager) Ref() string { return m.ref }

// SetMaster sets the manager's master mode flag.
func (m *Manager) SetMaster(master bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.master = master
}

// SetProfile replaces the manager's profile.
func (m *Manager) SetProfile(profile remote.PropertyList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = profile
}

// SetConfig seeds one configuration parameter.
func (m *Manager) SetConfig(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setConfigLocked(name, value)
}

// Caller must hold m.mu.
func (m *Manager) setConfigLocked(name, value string) {
	for i, p := range m.config {
		if p.Name == name {
			m.config[i].Value = value
			return
		}
	}
	m.config = append(m.config, remote.Property{Name: name, Value: value})
}

// AddFactory registers a component factory for typeName, making it
// available to CreateComponent.
func (m *Manager) AddFactory(typeName string, extra ...remote.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile := remote.PropertyList{{Name: "implementation_id", Value: typeName}}
	profile = append(profile, extra...)
	m.factories = append(m.factories, profile)
}

// AddLoadableModule declares a module path that LoadableModules will
// report.
func (m *Manager) AddLoadableModule(modulePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadable = append(m.loadable, remote.PropertyList{{Name: "module_file_path", Value: modulePath}})
}

// PublishComponentsTo makes CreateComponent bind new instances into
// ctx as "<instance>.rtc", and DeleteComponent unbind them, the way a
// real manager registers its components on the name server.
func (m *Manager) PublishComponentsTo(ctx *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindContext = ctx
}

// SetSlavesUnsupported makes SlaveManagers fail with an unsupported
// fault, modeling a manager built without master capability.
func (m *Manager) SetSlavesUnsupported(unsupported bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slavesUnsupported = unsupported
}

// Kill makes every subsequent call on this manager fail as
// unreachable.
func (m *Manager) Kill() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead = true
}

func (m *Manager) isDead() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dead
}

// ScriptFault makes the named action fail with err until cleared.
func (m *Manager) ScriptFault(action string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, action)
		return
	}
	m.faults[action] = err
}

// ScriptStatus makes the named action return st until cleared.
func (m *Manager) ScriptStatus(action string, st remote.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[action] = st
}

// ClearScript removes any scripted fault or status for action.
func (m *Manager) ClearScript(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.faults, action)
	delete(m.statuses, action)
}

// Calls reports how many times the named action has been invoked,
// including invocations that failed.
func (m *Manager) Calls(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[action]
}

// Restarts reports how many times Restart has succeeded.
func (m *Manager) Restarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restarts
}

// begin counts the call and applies death and scripted faults.
// Caller must hold m.mu.
func (m *Manager) begin(action string) error {
	m.calls[action]++
	if m.dead {
		return remote.Faultf(remote.FaultUnreachable, "manager %s is down", m.ref)
	}
	if err := m.faults[action]; err != nil {
		return err
	}
	return nil
}

// scripted returns a scripted status for action, if any.
// Caller must hold m.mu.
func (m *Manager) scripted(action string) (remote.Status, bool) {
	st, ok := m.statuses[action]
	return st, ok
}

// Profile implements remote.ManagerHandle.
func (m *Manager) Profile(_ context.Context) (remote.PropertyList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("profile"); err != nil {
		return nil, err
	}
	return append(remote.PropertyList(nil), m.profile...), nil
}

// Configuration implements remote.ManagerHandle.
func (m *Manager) Configuration(_ context.Context) (remote.PropertyList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("configuration"); err != nil {
		return nil, err
	}
	return append(remote.PropertyList(nil), m.config...), nil
}

// SetConfiguration implements remote.ManagerHandle.
func (m *Manager) SetConfiguration(_ context.Context, name, value string) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("set_configuration"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("set_configuration"); ok {
		return st, nil
	}
	if name == "" {
		return remote.StatusBadParameter, nil
	}
	m.setConfigLocked(name, value)
	return remote.StatusOK, nil
}

// FactoryProfiles implements remote.ManagerHandle.
func (m *Manager) FactoryProfiles(_ context.Context) ([]remote.PropertyList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("factory_profiles"); err != nil {
		return nil, err
	}
	return append([]remote.PropertyList(nil), m.factories...), nil
}

// LoadableModules implements remote.ManagerHandle.
func (m *Manager) LoadableModules(_ context.Context) ([]remote.PropertyList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("loadable_modules"); err != nil {
		return nil, err
	}
	return append([]remote.PropertyList(nil), m.loadable...), nil
}

// LoadedModules implements remote.ManagerHandle.
func (m *Manager) LoadedModules(_ context.Context) ([]remote.PropertyList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("loaded_modules"); err != nil {
		return nil, err
	}
	return append([]remote.PropertyList(nil), m.loaded...), nil
}

// LoadModule implements remote.ManagerHandle. Loading registers a
// factory named after the module file's stem, so a subsequent
// CreateComponent of that type succeeds.
func (m *Manager) LoadModule(_ context.Context, modulePath, initFunc string) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("load_module"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("load_module"); ok {
		return st, nil
	}
	if modulePath == "" || initFunc == "" {
		return remote.StatusBadParameter, nil
	}
	m.loaded = append(m.loaded, remote.PropertyList{
		{Name: "file_path", Value: modulePath},
		{Name: "init_func", Value: initFunc},
	})
	m.factories = append(m.factories, remote.PropertyList{
		{Name: "implementation_id", Value: moduleStem(modulePath)},
	})
	return remote.StatusOK, nil
}

// moduleStem derives a factory type name from a module path:
// "/opt/rtc/consolein.so" becomes "consolein".
func moduleStem(modulePath string) string {
	base := path.Base(modulePath)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// UnloadModule implements remote.ManagerHandle.
func (m *Manager) UnloadModule(_ context.Context, modulePath string) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("unload_module"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("unload_module"); ok {
		return st, nil
	}
	for i, mod := range m.loaded {
		if p, _ := mod.Get("file_path"); p == modulePath {
			m.loaded = append(m.loaded[:i], m.loaded[i+1:]...)
			return remote.StatusOK, nil
		}
	}
	return remote.StatusBadParameter, nil
}

// Components implements remote.ManagerHandle. Dead components are
// still listed; their handles fail on use.
func (m *Manager) Components(_ context.Context) ([]remote.ComponentHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("components"); err != nil {
		return nil, err
	}
	out := make([]remote.ComponentHandle, len(m.components))
	for i, c := range m.components {
		out[i] = c
	}
	return out, nil
}

// CreateComponent implements remote.ManagerHandle. The spec is a
// factory type name optionally followed by ?key=value&... options;
// the instance_name option overrides the default "<type><N>" naming,
// where N counts instances of that type from zero.
func (m *Manager) CreateComponent(_ context.Context, spec string) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("create_component"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("create_component"); ok {
		return st, nil
	}

	typeName, options := splitComponentSpec(spec)
	if typeName == "" {
		return remote.StatusBadParameter, nil
	}
	if !m.hasFactoryLocked(typeName) {
		return remote.StatusError, nil
	}

	instanceName := options["instance_name"]
	if instanceName == "" {
		instanceName = fmt.Sprintf("%s%d", typeName, m.instanceCounts[typeName])
	}
	m.instanceCounts[typeName]++

	comp := m.fabric.NewComponent(instanceName, typeName)
	for name, value := range options {
		if name == "instance_name" {
			continue
		}
		comp.profile.Properties = append(comp.profile.Properties, remote.Property{Name: name, Value: value})
	}
	m.components = append(m.components, comp)

	if m.bindContext != nil {
		m.bindContext.Bind(remote.BindingName{ID: instanceName, Kind: remote.KindTagComponent}, comp)
	}
	return remote.StatusOK, nil
}

// splitComponentSpec separates "type?k=v&k2=v2" into the type name
// and its options.
func splitComponentSpec(spec string) (string, map[string]string) {
	typeName, rawOptions, found := strings.Cut(spec, "?")
	options := make(map[string]string)
	if !found {
		return typeName, options
	}
	for _, pair := range strings.Split(rawOptions, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		options[key] = value
	}
	return typeName, options
}

// Caller must hold m.mu.
func (m *Manager) hasFactoryLocked(typeName string) bool {
	for _, f := range m.factories {
		if id, _ := f.Get("implementation_id"); id == typeName {
			return true
		}
	}
	return false
}

// DeleteComponent implements remote.ManagerHandle.
func (m *Manager) DeleteComponent(_ context.Context, instanceName string) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("delete_component"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("delete_component"); ok {
		return st, nil
	}
	for i, c := range m.components {
		if c.profile.InstanceName == instanceName {
			m.components = append(m.components[:i], m.components[i+1:]...)
			if m.bindContext != nil {
				name := remote.BindingName{ID: instanceName, Kind: remote.KindTagComponent}
				// Best effort: the binding may already be gone.
				m.bindContext.Unbind(context.Background(), name)
			}
			return remote.StatusOK, nil
		}
	}
	return remote.StatusBadParameter, nil
}

// SlaveManagers implements remote.ManagerHandle. Dead slaves are
// still listed; their handles fail on use.
func (m *Manager) SlaveManagers(_ context.Context) ([]remote.ManagerHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("slave_managers"); err != nil {
		return nil, err
	}
	if m.slavesUnsupported {
		return nil, remote.Faultf(remote.FaultUnsupported, "manager %s has no master capability", m.ref)
	}
	var out []remote.ManagerHandle
	for _, ref := range m.slaves {
		if slave, ok := m.fabric.lookup(ref).(*Manager); ok {
			out = append(out, slave)
		}
	}
	return out, nil
}

// AddMasterManager implements remote.ManagerHandle.
func (m *Manager) AddMasterManager(_ context.Context, master remote.ObjectRef) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("add_master_manager"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("add_master_manager"); ok {
		return st, nil
	}
	m.masters = appendRef(m.masters, master.Ref())
	return remote.StatusOK, nil
}

// RemoveMasterManager implements remote.ManagerHandle.
func (m *Manager) RemoveMasterManager(_ context.Context, master remote.ObjectRef) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("remove_master_manager"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("remove_master_manager"); ok {
		return st, nil
	}
	removed := removeRef(&m.masters, master.Ref())
	if !removed {
		return remote.StatusError, nil
	}
	return remote.StatusOK, nil
}

// AddSlaveManager implements remote.ManagerHandle.
func (m *Manager) AddSlaveManager(_ context.Context, slave remote.ObjectRef) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("add_slave_manager"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("add_slave_manager"); ok {
		return st, nil
	}
	m.slaves = appendRef(m.slaves, slave.Ref())
	return remote.StatusOK, nil
}

// RemoveSlaveManager implements remote.ManagerHandle.
func (m *Manager) RemoveSlaveManager(_ context.Context, slave remote.ObjectRef) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("remove_slave_manager"); err != nil {
		return remote.StatusError, err
	}
	if st, ok := m.scripted("remove_slave_manager"); ok {
		return st, nil
	}
	removed := removeRef(&m.slaves, slave.Ref())
	if !removed {
		return remote.StatusError, nil
	}
	return remote.StatusOK, nil
}

// Masters returns the refs registered via AddMasterManager, for test
// assertions.
func (m *Manager) Masters() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.masters...)
}

// Slaves returns the refs registered via AddSlaveManager, for test
// assertions.
func (m *Manager) Slaves() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.slaves...)
}

// IsMaster implements remote.ManagerHandle.
func (m *Manager) IsMaster(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("is_master"); err != nil {
		return false, err
	}
	return m.master, nil
}

// Fork implements remote.ManagerHandle. The forked process appears as
// a new unnamed slave of this manager.
func (m *Manager) Fork(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("fork"); err != nil {
		return err
	}
	slave := m.fabric.NewManager("")
	slave.master = false
	slave.masters = []string{m.ref}
	m.slaves = append(m.slaves, slave.ref)
	return nil
}

// Shutdown implements remote.ManagerHandle. The call succeeds and the
// manager is unreachable afterwards.
func (m *Manager) Shutdown(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("shutdown"); err != nil {
		return err
	}
	m.dead = true
	return nil
}

// Restart implements remote.ManagerHandle.
func (m *Manager) Restart(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("restart"); err != nil {
		return err
	}
	m.restarts++
	return nil
}

func appendRef(refs []string, ref string) []string {
	for _, r := range refs {
		if r == ref {
			return refs
		}
	}
	return append(refs, ref)
}

func removeRef(refs *[]string, ref string) bool {
	for i, r := range *refs {
		if r == ref {
			*refs = append((*refs)[:i], (*refs)[i+1:]...)
			return true
		}
	}
	return false
}
