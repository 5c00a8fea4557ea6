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

// Directory is a node mirroring one naming context: its children are
// whatever the context binds, as directories, managers, components,
// and unknown objects.
//
// A directory may carry a filter, fixed at construction: a set of
// paths below it that are worth resolving. With a filter in place,
// bindings whose name starts none of the paths are not resolved at
// all, and subdirectories inherit the matching tails. An empty filter
// resolves everything.
type Directory struct {
	node
	context remote.NamingContext
	filter  [][]string
}

func newDirectory(name string, parent Node, context remote.NamingContext, filter [][]string, logger *slog.Logger) *Directory {
	d := &Directory{context: context, filter: filter}
	d.init(d, name, KindDirectory, parent, logger)
	return d
}

func newZombieDirectory(name string, parent Node, logger *slog.Logger) *Directory {
	d := &Directory{}
	d.init(d, name, KindDirectory, parent, logger)
	d.zombie = true
	return d
}

// Context returns the naming context this directory mirrors.
func (d *Directory) Context() remote.NamingContext {
	return d.context
}

// Filter returns the paths this directory restricts its parsing to,
// nil when unrestricted.
func (d *Directory) Filter() [][]string {
	if d.filter == nil {
		return nil
	}
	out := make([][]string, len(d.filter))
	for i, path := range d.filter {
		out[i] = append([]string(nil), path...)
	}
	return out
}

// Reparse drops every child and rebuilds them from a fresh listing of
// the naming context. Entries that fail to resolve become zombie or
// unknown children; only a failed listing or a cancelled context
// aborts the rebuild.
func (d *Directory) Reparse(ctx context.Context) error {
	if err := d.zombieCheck(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.parseContextLocked(ctx)
}

// Caller must hold d.mu.
func (d *Directory) parseContextLocked(ctx context.Context) error {
	bindings, err := d.context.List(ctx)
	if err != nil {
		return fmt.Errorf("listing context %q: %w", d.name, err)
	}
	d.clearChildrenLocked()
	for _, binding := range bindings {
		if err := d.processBindingLocked(ctx, binding); err != nil {
			return err
		}
	}
	return nil
}

// processBindingLocked resolves one binding into a child node. Remote
// failures never abort the parse: an unreachable or vanished object
// becomes a zombie child of the expected kind, and an object of an
// unexpected kind becomes an unknown child. The returned error is
// non-nil only when ctx is done. Caller must hold d.mu.
func (d *Directory) processBindingLocked(ctx context.Context, binding remote.Binding) error {
	name := binding.Name.String()
	if !d.filterAllows(name) {
		return nil
	}

	if binding.Type == remote.BindingContext {
		nctx, err := d.context.ResolveContext(ctx, binding.Name)
		if err != nil {
			return d.absorbLocked(ctx, err, binding, KindDirectory)
		}
		sub := newDirectory(name, d.self, nctx, d.childFilter(name), d.logger)
		sub.mu.Lock()
		err = sub.parseContextLocked(ctx)
		sub.mu.Unlock()
		if err != nil {
			return d.absorbLocked(ctx, err, binding, KindDirectory)
		}
		d.addChildLocked(sub)
		return nil
	}

	switch binding.Name.Kind {
	case remote.KindTagManager:
		handle, err := d.context.ResolveManager(ctx, binding.Name)
		if err != nil {
			return d.absorbLocked(ctx, err, binding, KindManager)
		}
		manager, err := newManager(ctx, name, d.self, handle, d.logger)
		if err != nil {
			return d.absorbLocked(ctx, err, binding, KindManager)
		}
		d.addChildLocked(manager)
	case remote.KindTagComponent:
		handle, err := d.context.ResolveComponent(ctx, binding.Name)
		if err != nil {
			return d.absorbLocked(ctx, err, binding, KindComponent)
		}
		profile, err := handle.Profile(ctx)
		if err != nil {
			return d.absorbLocked(ctx, err, binding, KindComponent)
		}
		d.addChildLocked(newComponent(name, d.self, handle, profile, d.logger))
	default:
		ref, err := d.context.ResolveObject(ctx, binding.Name)
		if err != nil {
			return d.absorbLocked(ctx, err, binding, KindUnknown)
		}
		d.addChildLocked(newUnknown(name, d.self, ref, false, d.logger))
	}
	return nil
}

// absorbLocked turns a per-entry resolution failure into a child node
// so the listing stays complete. Narrowing failures keep the object
// as an unknown child; everything else becomes a zombie of the kind
// the binding promised. Cancellation is the one failure that
// propagates. Caller must hold d.mu.
func (d *Directory) absorbLocked(ctx context.Context, err error, binding remote.Binding, kind Kind) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	name := binding.Name.String()
	var narrow *remote.NarrowError
	if errors.As(err, &narrow) {
		d.logger.Debug("object is not what its binding claims",
			"directory", d.name, "name", name, "error", err)
		ref, refErr := d.context.ResolveObject(ctx, binding.Name)
		if refErr != nil {
			d.addChildLocked(newUnknown(name, d.self, nil, true, d.logger))
			return nil
		}
		d.addChildLocked(newUnknown(name, d.self, ref, false, d.logger))
		return nil
	}
	d.logger.Warn("zombie entry", "directory", d.name, "name", name,
		"kind", kind.String(), "error", err)
	switch kind {
	case KindManager:
		d.addChildLocked(newZombieManager(name, d.self, nil, d.logger))
	case KindComponent:
		d.addChildLocked(newZombieComponent(name, d.self, nil, d.logger))
	case KindDirectory:
		d.addChildLocked(newZombieDirectory(name, d.self, d.logger))
	default:
		d.addChildLocked(newUnknown(name, d.self, nil, true, d.logger))
	}
	return nil
}

// Unbind removes the named binding from this directory's naming
// context and drops the matching child. The object behind the binding
// is not touched; this is how zombie entries are cleaned off a name
// server. The name uses path form, "ConsoleIn0.rtc" or "manager.mgr".
func (d *Directory) Unbind(ctx context.Context, name string) error {
	if err := d.zombieCheck(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.context.Unbind(ctx, remote.ParseBindingName(name)); err != nil {
		if remote.IsNotFound(err) {
			return &BadPathError{Path: name}
		}
		return fmt.Errorf("unbinding %q from %q: %w", name, d.name, err)
	}
	if i, ok := d.index[name]; ok {
		d.children = append(d.children[:i], d.children[i+1:]...)
		d.reindexLocked()
	}
	return nil
}

// filterAllows reports whether a binding name passes this directory's
// filter.
func (d *Directory) filterAllows(name string) bool {
	if d.filter == nil {
		return true
	}
	for _, path := range d.filter {
		if len(path) > 0 && path[0] == name {
			return true
		}
	}
	return false
}

// childFilter derives the filter a subdirectory inherits: the tails
// of every path starting with the child's name. A fully consumed path
// lifts the restriction for everything below the child.
func (d *Directory) childFilter(name string) [][]string {
	if d.filter == nil {
		return nil
	}
	var out [][]string
	for _, path := range d.filter {
		if len(path) == 0 || path[0] != name {
			continue
		}
		if len(path) == 1 {
			return nil
		}
		out = append(out, path[1:])
	}
	return out
}
