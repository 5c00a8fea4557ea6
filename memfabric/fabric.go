// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package memfabric

import (
	"context"
	"fmt"
	"sync"

	"github.com/componentfabric/comptree/remote"
)

// Compile-time interface check.
var _ remote.Connector = (*Fabric)(nil)

// Fabric is an in-process component fabric: a registry of managers,
// components, naming contexts, and the connection strings that reach
// them. The zero value is not usable; call New.
type Fabric struct {
	mu      sync.Mutex
	objects map[string]any    // ref -> *Manager | *Component | *Context | *Object
	servers map[string]string // connection string -> root object ref
	nextID  int
}

// New creates an empty fabric.
func New() *Fabric {
	return &Fabric{
		objects: make(map[string]any),
		servers: make(map[string]string),
	}
}

// newRef mints a fabric-unique reference string and registers obj
// under it.
func (f *Fabric) newRef(class string, obj any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := fmt.Sprintf("mem:%s/%d", class, f.nextID)
	f.nextID++
	f.objects[ref] = obj
	return ref
}

// lookup returns the object registered under ref, or nil.
func (f *Fabric) lookup(ref string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[ref]
}

// RegisterServer makes root reachable through connectionString via
// ConnectNameServer. The root is usually a *Context; registering a
// different object kind is how narrowing failures are provoked in
// tests.
func (f *Fabric) RegisterServer(connectionString string, root remote.ObjectRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.servers[connectionString] = root.Ref()
}

// ConnectNameServer implements remote.Connector. Unregistered
// connection strings and dead root contexts fail as unreachable; a
// registered object that is not a naming context fails with
// *remote.NarrowError.
func (f *Fabric) ConnectNameServer(_ context.Context, connectionString string) (remote.NamingContext, error) {
	f.mu.Lock()
	ref, ok := f.servers[connectionString]
	f.mu.Unlock()
	if !ok {
		return nil, remote.Faultf(remote.FaultUnreachable, "no name server at %q", connectionString)
	}

	obj := f.lookup(ref)
	root, ok := obj.(*Context)
	if !ok {
		return nil, &remote.NarrowError{
			Name:     connectionString,
			Expected: "naming context",
			Actual:   objectKind(obj),
		}
	}
	if root.isDead() {
		return nil, remote.Faultf(remote.FaultUnreachable, "name server at %q is down", connectionString)
	}
	return root, nil
}

// objectKind names an object's kind for NarrowError messages.
func objectKind(obj any) string {
	switch obj.(type) {
	case *Manager:
		return "manager"
	case *Component:
		return "component"
	case *Context:
		return "naming context"
	case *Object:
		return "object"
	default:
		return ""
	}
}

// Object is an opaque fabric object: resolvable, alive, but neither a
// manager, component, nor naming context. Directory parsing turns
// these into unknown nodes.
type Object struct {
	ref string
}

var _ remote.ObjectRef = (*Object)(nil)

// NewObject registers a new opaque object.
func (f *Fabric) NewObject() *Object {
	o := &Object{}
	o.ref = f.newRef("obj", o)
	return o
}

// Ref implements remote.ObjectRef.
func (o *Object) Ref() string { return o.ref }
