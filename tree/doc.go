// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package tree maintains a live, navigable mirror of a component
// fabric: name servers, the directories they serve, the managers
// registered in them, and the components those managers host.
//
// A Tree owns a root node "/" whose children are name servers. Every
// other node is built by resolving remote listings: directories from
// naming-context bindings, managers and components from manager
// listings. Nodes cache remote state (configuration, profiles, module
// lists) lazily and rebuild their children on Reparse.
//
// # Node kinds
//
// Nodes form a closed set of kinds. Callers branch either on the
// boolean discriminators (IsManager, IsComponent, IsDirectory,
// IsNameServer, IsUnknown) or on the concrete type:
//
//	switch n := node.(type) {
//	case *tree.Manager:
//	    return n.LoadModule(ctx, path, initFunc)
//	case *tree.Component:
//	    profile := n.Profile()
//	}
//
// IsDirectory is true for every node that can hold children: the
// root, directories, name servers, and managers.
//
// A node whose remote object was unreachable when its parent parsed
// it is a zombie: present in the tree with its name and kind, but
// carrying no data. Operations on zombies fail with *ZombieError; the
// caller is expected to notice zombies and unbind them from their
// directory.
//
// # Reparse
//
// Reparse rebuilds a node's remote-derived state: cached views reset
// to unfetched, child lists rebuilt eagerly from fresh listings.
// Children are always fresh node instances, so a caller holding a
// pre-reparse node keeps a consistent snapshot of the tree as it was.
// A reparse recovers per entry: one unreachable peer becomes a zombie
// child and the rest of the reparse continues.
//
// # Concurrency
//
// Every node owns one mutex guarding all of its mutable state. Public
// operations hold exactly their own node's lock for their whole
// duration, remote calls included; reparenting a manager additionally
// locks the old and new parent, in that order, one at a time. The
// package adds no timeouts of its own: pass a context and the
// transport's deadlines apply.
package tree
