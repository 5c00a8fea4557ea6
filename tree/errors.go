// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"fmt"

	"github.com/componentfabric/comptree/remote"
)

// InvalidServiceError reports that a name server address could not be
// connected: the address is invalid or nothing answers there.
type InvalidServiceError struct {
	// Address is the logical address as given to AddNameServer.
	Address string
	// Err is the underlying transport failure, if any.
	Err error
}

func (e *InvalidServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tree: no name service at %q", e.Address)
	}
	return fmt.Sprintf("tree: no name service at %q: %v", e.Address, e.Err)
}

func (e *InvalidServiceError) Unwrap() error { return e.Err }

// FailedToNarrowRootError reports that a name server address resolved
// to a live object that is not a naming context.
type FailedToNarrowRootError struct {
	Address string
}

func (e *FailedToNarrowRootError) Error() string {
	return fmt.Sprintf("tree: object at %q is not a naming context", e.Address)
}

// BadPathError reports a malformed node path.
type BadPathError struct {
	Path string
}

func (e *BadPathError) Error() string {
	return fmt.Sprintf("tree: bad path %q", e.Path)
}

// NonRootPathError reports a path that should have been absolute but
// did not begin with "/".
type NonRootPathError struct {
	Path string
}

func (e *NonRootPathError) Error() string {
	return fmt.Sprintf("tree: path %q does not begin at the root", e.Path)
}

// ZombieError reports an operation attempted on a node whose remote
// object was already unreachable when the node was parsed.
type ZombieError struct {
	// Path is the zombie node's full path.
	Path string
}

func (e *ZombieError) Error() string {
	return fmt.Sprintf("tree: %s is a zombie", e.Path)
}

// NotRelatedError reports an attempt to detach a child from a node
// that does not hold it.
type NotRelatedError struct {
	Parent string
	Child  string
}

func (e *NotRelatedError) Error() string {
	return fmt.Sprintf("tree: %q is not a child of %q", e.Child, e.Parent)
}

// CreateComponentError reports that a manager rejected a component
// creation request.
type CreateComponentError struct {
	// Spec is the component specification passed to CreateComponent.
	Spec string
	// Status is the manager's verdict.
	Status remote.Status
}

func (e *CreateComponentError) Error() string {
	return fmt.Sprintf("tree: creating component %q failed: %s", e.Spec, e.Status)
}

// DeleteComponentError reports that a manager rejected a component
// deletion request.
type DeleteComponentError struct {
	InstanceName string
	Status       remote.Status
}

func (e *DeleteComponentError) Error() string {
	return fmt.Sprintf("tree: deleting component %q failed: %s", e.InstanceName, e.Status)
}

// LoadModuleError reports that a module load was rejected. Reason
// carries the application-level detail when the manager faulted
// inside the module's init function rather than returning a status.
type LoadModuleError struct {
	Path   string
	Reason string
	Status remote.Status
}

func (e *LoadModuleError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("tree: loading module %q failed: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("tree: loading module %q failed: %s", e.Path, e.Status)
}

// UnloadModuleError reports that a module unload was rejected.
type UnloadModuleError struct {
	Path   string
	Status remote.Status
}

func (e *UnloadModuleError) Error() string {
	return fmt.Sprintf("tree: unloading module %q failed: %s", e.Path, e.Status)
}

// SetConfigError reports that a manager rejected a configuration
// parameter update.
type SetConfigError struct {
	Name   string
	Value  string
	Status remote.Status
}

func (e *SetConfigError) Error() string {
	return fmt.Sprintf("tree: setting %q to %q failed: %s", e.Name, e.Value, e.Status)
}

// AddMasterError reports a rejected master registration during
// reparenting.
type AddMasterError struct {
	Manager string
	Master  string
	Status  remote.Status
}

func (e *AddMasterError) Error() string {
	return fmt.Sprintf("tree: adding master %q to %q failed: %s", e.Master, e.Manager, e.Status)
}

// RemoveMasterError reports a rejected master deregistration during
// reparenting.
type RemoveMasterError struct {
	Manager string
	Master  string
	Status  remote.Status
}

func (e *RemoveMasterError) Error() string {
	return fmt.Sprintf("tree: removing master %q from %q failed: %s", e.Master, e.Manager, e.Status)
}

// AddSlaveError reports a rejected slave registration during
// reparenting.
type AddSlaveError struct {
	Manager string
	Slave   string
	Status  remote.Status
}

func (e *AddSlaveError) Error() string {
	return fmt.Sprintf("tree: adding slave %q to %q failed: %s", e.Slave, e.Manager, e.Status)
}

// RemoveSlaveError reports a rejected slave deregistration during
// reparenting.
type RemoveSlaveError struct {
	Manager string
	Slave   string
	Status  remote.Status
}

func (e *RemoveSlaveError) Error() string {
	return fmt.Sprintf("tree: removing slave %q from %q failed: %s", e.Slave, e.Manager, e.Status)
}
