// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import "context"

// ObjectRef is the least common denominator of every remote object: a
// stable reference string. For socket transports the ref is a locator
// the rpc package can dial; for in-process fabrics it is an opaque ID.
// Refs are how one remote object is named to another (a master manager
// is told about a slave by ref, not by Go pointer).
type ObjectRef interface {
	// Ref returns the object's reference string. It must be stable
	// for the lifetime of the object and usable by the peer that
	// issued it to address the object again.
	Ref() string
}

// Connector resolves a connection string, as produced by the tree's
// address resolution, to the root naming context of a name server.
type Connector interface {
	// ConnectNameServer dials the name server behind the connection
	// string and returns its root context. Unreachable servers fail
	// with a FaultUnreachable fault; a reachable object that is not a
	// naming context fails with *NarrowError.
	ConnectNameServer(ctx context.Context, connectionString string) (NamingContext, error)
}

// NamingContext is one directory level of a name server.
type NamingContext interface {
	ObjectRef

	// List returns the context's bindings in service order.
	List(ctx context.Context) ([]Binding, error)

	// ResolveManager resolves a binding expected to be a manager.
	// Wrong-kind objects fail with *NarrowError.
	ResolveManager(ctx context.Context, name BindingName) (ManagerHandle, error)

	// ResolveComponent resolves a binding expected to be a component.
	// Wrong-kind objects fail with *NarrowError.
	ResolveComponent(ctx context.Context, name BindingName) (ComponentHandle, error)

	// ResolveContext resolves a binding expected to be a nested
	// naming context. Wrong-kind objects fail with *NarrowError.
	ResolveContext(ctx context.Context, name BindingName) (NamingContext, error)

	// ResolveObject resolves a binding without any kind expectation.
	ResolveObject(ctx context.Context, name BindingName) (ObjectRef, error)

	// Unbind removes a binding from this context. The object behind
	// it is not touched.
	Unbind(ctx context.Context, name BindingName) error
}

// ManagerHandle is the management surface of one manager process.
//
// Calls returning (Status, error) separate the two failure planes: a
// non-nil error is a transport or fault problem and the Status is
// meaningless; a nil error with a Status other than StatusOK is the
// manager rejecting the request.
type ManagerHandle interface {
	ObjectRef

	// Profile returns the manager's identity profile.
	Profile(ctx context.Context) (PropertyList, error)

	// Configuration returns the manager's current configuration.
	Configuration(ctx context.Context) (PropertyList, error)

	// SetConfiguration sets one configuration parameter.
	SetConfiguration(ctx context.Context, name, value string) (Status, error)

	// FactoryProfiles lists the component factories the manager can
	// instantiate from, one profile per factory.
	FactoryProfiles(ctx context.Context) ([]PropertyList, error)

	// LoadableModules lists modules the manager could load.
	LoadableModules(ctx context.Context) ([]PropertyList, error)

	// LoadedModules lists modules currently loaded.
	LoadedModules(ctx context.Context) ([]PropertyList, error)

	// LoadModule loads the shared module at path and runs initFunc to
	// register its factories. Managers that fail inside initFunc
	// report a FaultApplication fault carrying the reason.
	LoadModule(ctx context.Context, path, initFunc string) (Status, error)

	// UnloadModule unloads a previously loaded module.
	UnloadModule(ctx context.Context, path string) (Status, error)

	// Components lists the component instances the manager hosts.
	Components(ctx context.Context) ([]ComponentHandle, error)

	// CreateComponent instantiates a component from a module
	// specification, optionally carrying ?key=value configuration
	// overrides. A nil-error, StatusOK reply means the instance
	// exists and will appear in the next Components listing.
	CreateComponent(ctx context.Context, spec string) (Status, error)

	// DeleteComponent destroys a component instance by name.
	DeleteComponent(ctx context.Context, instanceName string) (Status, error)

	// SlaveManagers lists the managers enslaved to this one. Managers
	// built without master capability fail with FaultUnsupported.
	SlaveManagers(ctx context.Context) ([]ManagerHandle, error)

	// AddMasterManager registers master as a master of this manager.
	AddMasterManager(ctx context.Context, master ObjectRef) (Status, error)

	// RemoveMasterManager removes a master registration.
	RemoveMasterManager(ctx context.Context, master ObjectRef) (Status, error)

	// AddSlaveManager registers slave under this manager.
	AddSlaveManager(ctx context.Context, slave ObjectRef) (Status, error)

	// RemoveSlaveManager removes a slave registration.
	RemoveSlaveManager(ctx context.Context, slave ObjectRef) (Status, error)

	// IsMaster reports whether the manager runs in master mode.
	IsMaster(ctx context.Context) (bool, error)

	// Fork starts a new slave manager process.
	Fork(ctx context.Context) error

	// Shutdown asks the manager process to exit.
	Shutdown(ctx context.Context) error

	// Restart asks the manager process to restart.
	Restart(ctx context.Context) error
}

// ComponentHandle is the slice of a component the tree needs: identity
// and profile. Ports, execution contexts, and lifecycle live outside
// this layer.
type ComponentHandle interface {
	ObjectRef

	// Profile returns the component's identity profile.
	Profile(ctx context.Context) (ComponentProfile, error)
}
