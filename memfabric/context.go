// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package memfabric

import (
	"context"
	"sync"

	"github.com/componentfabric/comptree/remote"
)

// Compile-time interface check.
var _ remote.NamingContext = (*Context)(nil)

// Context is an in-memory naming context: an ordered list of bindings
// from names to fabric objects.
type Context struct {
	fabric *Fabric
	ref    string

	mu       sync.Mutex
	bindings []contextBinding
	dead     bool
}

type contextBinding struct {
	name      remote.BindingName
	bindType  remote.BindingType
	targetRef string
}

// NewContext registers a new empty naming context.
func (f *Fabric) NewContext() *Context {
	c := &Context{fabric: f}
	c.ref = f.newRef("ctx", c)
	return c
}

// Ref implements remote.ObjectRef.
func (c *Context) Ref() string { return c.ref }

// Bind adds or replaces a binding from name to obj. Binding a *Context
// produces a context binding; everything else is an object binding.
func (c *Context) Bind(name remote.BindingName, obj remote.ObjectRef) {
	bindType := remote.BindingObject
	if _, ok := obj.(*Context); ok {
		bindType = remote.BindingContext
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, b := range c.bindings {
		if b.name == name {
			c.bindings[i] = contextBinding{name: name, bindType: bindType, targetRef: obj.Ref()}
			return
		}
	}
	c.bindings = append(c.bindings, contextBinding{name: name, bindType: bindType, targetRef: obj.Ref()})
}

// Kill makes every subsequent call on this context fail as
// unreachable.
func (c *Context) Kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dead = true
}

func (c *Context) isDead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dead
}

// find returns the binding for name.
func (c *Context) find(name remote.BindingName) (contextBinding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.bindings {
		if b.name == name {
			return b, true
		}
	}
	return contextBinding{}, false
}

// List implements remote.NamingContext.
func (c *Context) List(_ context.Context) ([]remote.Binding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return nil, remote.Faultf(remote.FaultUnreachable, "naming context %s is down", c.ref)
	}
	out := make([]remote.Binding, len(c.bindings))
	for i, b := range c.bindings {
		out[i] = remote.Binding{Name: b.name, Type: b.bindType}
	}
	return out, nil
}

// resolve finds the target object of a binding, failing like the real
// naming service: unknown names are not found, dead contexts are
// unreachable.
func (c *Context) resolve(name remote.BindingName) (any, error) {
	if c.isDead() {
		return nil, remote.Faultf(remote.FaultUnreachable, "naming context %s is down", c.ref)
	}
	b, ok := c.find(name)
	if !ok {
		return nil, remote.Faultf(remote.FaultNotFound, "no binding %q", name.String())
	}
	return c.fabric.lookup(b.targetRef), nil
}

// ResolveManager implements remote.NamingContext. Narrowing contacts
// the target, so a dead manager fails as unreachable here rather than
// on the first profile fetch.
func (c *Context) ResolveManager(_ context.Context, name remote.BindingName) (remote.ManagerHandle, error) {
	obj, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	mgr, ok := obj.(*Manager)
	if !ok {
		return nil, &remote.NarrowError{Name: name.String(), Expected: "manager", Actual: objectKind(obj)}
	}
	if mgr.isDead() {
		return nil, remote.Faultf(remote.FaultUnreachable, "manager %s is down", mgr.ref)
	}
	return mgr, nil
}

// ResolveComponent implements remote.NamingContext.
func (c *Context) ResolveComponent(_ context.Context, name remote.BindingName) (remote.ComponentHandle, error) {
	obj, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	comp, ok := obj.(*Component)
	if !ok {
		return nil, &remote.NarrowError{Name: name.String(), Expected: "component", Actual: objectKind(obj)}
	}
	if comp.isDead() {
		return nil, remote.Faultf(remote.FaultUnreachable, "component %s is down", comp.ref)
	}
	return comp, nil
}

// ResolveContext implements remote.NamingContext.
func (c *Context) ResolveContext(_ context.Context, name remote.BindingName) (remote.NamingContext, error) {
	obj, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	sub, ok := obj.(*Context)
	if !ok {
		return nil, &remote.NarrowError{Name: name.String(), Expected: "naming context", Actual: objectKind(obj)}
	}
	if sub.isDead() {
		return nil, remote.Faultf(remote.FaultUnreachable, "naming context %s is down", sub.ref)
	}
	return sub, nil
}

// ResolveObject implements remote.NamingContext. No narrowing: the
// target is not contacted, so even a dead object resolves.
func (c *Context) ResolveObject(_ context.Context, name remote.BindingName) (remote.ObjectRef, error) {
	obj, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	ref, ok := obj.(remote.ObjectRef)
	if !ok {
		return nil, remote.Faultf(remote.FaultNotFound, "binding %q has no object", name.String())
	}
	return ref, nil
}

// Unbind implements remote.NamingContext.
func (c *Context) Unbind(_ context.Context, name remote.BindingName) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return remote.Faultf(remote.FaultUnreachable, "naming context %s is down", c.ref)
	}
	for i, b := range c.bindings {
		if b.name == name {
			c.bindings = append(c.bindings[:i], c.bindings[i+1:]...)
			return nil
		}
	}
	return remote.Faultf(remote.FaultNotFound, "no binding %q", name.String())
}
