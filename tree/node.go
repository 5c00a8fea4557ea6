// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"log/slog"
	"sync"

	"github.com/componentfabric/comptree/remote"
)

// Node is one entry in the mirror tree. The concrete types are *Root,
// *NameServer, *Directory, *Manager, *Component, and *Unknown; the
// set is closed.
type Node interface {
	// Name is the node's entry in its parent, unique among siblings.
	Name() string
	// Kind is the node's variant.
	Kind() Kind
	// IsZombie reports whether the node's remote object was
	// unreachable when the node was parsed. Zombies carry no data.
	IsZombie() bool
	// Parent is the owning node, nil for the root.
	Parent() Node
	// Children returns the node's children in listing order.
	Children() []Node
	// Child returns the named child, or nil.
	Child(name string) Node
	// FullPath is the chain of names from the root to this node,
	// starting with "/".
	FullPath() []string
	// PathString renders FullPath as a /-joined string.
	PathString() string
	// Depth is the number of ancestors; the root is 0.
	Depth() int
	// Root walks up to the tree's root node.
	Root() Node
	// NameServerNode walks up to the name server this node lives
	// under, or nil for the root and nodes directly below it that
	// are not name servers.
	NameServerNode() *NameServer
	// NodeAt resolves a path whose first element must be this node's
	// name, returning nil if the path leads nowhere.
	NodeAt(path []string) Node
	// HasPath reports whether NodeAt would find a node.
	HasPath(path []string) bool
	// IsChild reports whether other is a direct child of this node.
	IsChild(other Node) bool
	// IsParent reports whether other is this node's parent.
	IsParent(other Node) bool
	// Iterate visits this node and, depth first, every node below
	// it. fn runs for nodes passing all filters; an error aborts the
	// walk.
	Iterate(fn func(Node) error, filters ...Filter) error
	// Reparse rebuilds the node's remote-derived state and children.
	Reparse(ctx context.Context) error

	IsComponent() bool
	IsManager() bool
	IsDirectory() bool
	IsNameServer() bool
	IsUnknown() bool

	base() *node
}

// Filter selects nodes during Iterate.
type Filter func(Node) bool

// Filters for the common node selections.
var (
	ComponentNodes Filter = func(n Node) bool { return n.IsComponent() }
	ManagerNodes   Filter = func(n Node) bool { return n.IsManager() }
	DirectoryNodes Filter = func(n Node) bool { return n.IsDirectory() }
	ZombieNodes    Filter = func(n Node) bool { return n.IsZombie() }
)

// node is the state shared by every variant. The concrete types embed
// it and call init with themselves so traversal methods can hand out
// the full node, not the embedded core.
type node struct {
	self   Node
	name   string
	kind   Kind
	zombie bool
	logger *slog.Logger

	mu       sync.Mutex
	parent   Node
	children []Node
	index    map[string]int
}

func (n *node) init(self Node, name string, kind Kind, parent Node, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	n.self = self
	n.name = name
	n.kind = kind
	n.parent = parent
	n.logger = logger
	n.index = make(map[string]int)
}

func (n *node) base() *node { return n }

// Name implements Node. The name is immutable.
func (n *node) Name() string { return n.name }

// Kind implements Node. The kind is immutable.
func (n *node) Kind() Kind { return n.kind }

// IsZombie implements Node. Zombie state is fixed at construction; a
// reparse of the parent replaces the node rather than reviving it.
func (n *node) IsZombie() bool { return n.zombie }

// zombieCheck fails operations on zombie nodes before any remote call
// is attempted. Caller must not hold n.mu.
func (n *node) zombieCheck() error {
	if !n.zombie {
		return nil
	}
	return &ZombieError{Path: n.PathString()}
}

// Parent implements Node.
func (n *node) Parent() Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

// Children implements Node.
func (n *node) Children() []Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Node(nil), n.children...)
}

// Child implements Node.
func (n *node) Child(name string) Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	i, ok := n.index[name]
	if !ok {
		return nil
	}
	return n.children[i]
}

// FullPath implements Node.
func (n *node) FullPath() []string {
	parent := n.Parent()
	if parent == nil {
		return []string{n.name}
	}
	return append(parent.FullPath(), n.name)
}

// PathString implements Node.
func (n *node) PathString() string {
	parent := n.Parent()
	if parent == nil {
		return n.name
	}
	prefix := parent.PathString()
	if prefix == "/" {
		return prefix + n.name
	}
	return prefix + "/" + n.name
}

// Depth implements Node.
func (n *node) Depth() int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	return depth
}

// Root implements Node.
func (n *node) Root() Node {
	parent := n.Parent()
	if parent == nil {
		return n.self
	}
	return parent.Root()
}

// NameServerNode implements Node.
func (n *node) NameServerNode() *NameServer {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	if parent.Parent() == nil {
		ns, _ := n.self.(*NameServer)
		return ns
	}
	return parent.NameServerNode()
}

// NodeAt implements Node.
func (n *node) NodeAt(path []string) Node {
	if len(path) == 0 || path[0] != n.name {
		return nil
	}
	if len(path) == 1 {
		return n.self
	}
	child := n.Child(path[1])
	if child == nil {
		return nil
	}
	return child.NodeAt(path[1:])
}

// HasPath implements Node.
func (n *node) HasPath(path []string) bool {
	return n.NodeAt(path) != nil
}

// IsChild implements Node.
func (n *node) IsChild(other Node) bool {
	if other == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	i, ok := n.index[other.Name()]
	return ok && n.children[i] == other
}

// IsParent implements Node.
func (n *node) IsParent(other Node) bool {
	return other != nil && n.Parent() == other
}

// Iterate implements Node. The walk snapshots each child list before
// descending, so fn may freely operate on the visited node.
func (n *node) Iterate(fn func(Node) error, filters ...Filter) error {
	passed := true
	for _, filter := range filters {
		if !filter(n.self) {
			passed = false
			break
		}
	}
	if passed {
		if err := fn(n.self); err != nil {
			return err
		}
	}
	for _, child := range n.Children() {
		if err := child.Iterate(fn, filters...); err != nil {
			return err
		}
	}
	return nil
}

// Reparse implements Node. Variants with remote-derived state shadow
// this; for the root and unknown nodes there is nothing to refresh.
func (n *node) Reparse(ctx context.Context) error {
	return nil
}

// IsComponent implements Node.
func (n *node) IsComponent() bool { return n.kind == KindComponent }

// IsManager implements Node.
func (n *node) IsManager() bool { return n.kind == KindManager }

// IsDirectory implements Node. True for every node that can hold
// children: root, directories, name servers, and managers.
func (n *node) IsDirectory() bool {
	switch n.kind {
	case KindRoot, KindDirectory, KindNameServer, KindManager:
		return true
	}
	return false
}

// IsNameServer implements Node.
func (n *node) IsNameServer() bool { return n.kind == KindNameServer }

// IsUnknown implements Node.
func (n *node) IsUnknown() bool { return n.kind == KindUnknown }

// addChildLocked stores child under its name. A name collision
// replaces the previous child in place, keeping its position; new
// names append in arrival order. Caller must hold n.mu.
func (n *node) addChildLocked(child Node) {
	name := child.Name()
	if i, ok := n.index[name]; ok {
		n.children[i] = child
		return
	}
	n.index[name] = len(n.children)
	n.children = append(n.children, child)
}

// detachChild removes child from n's children.
func (n *node) detachChild(child Node) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	i, ok := n.index[child.Name()]
	if !ok || n.children[i] != child {
		return &NotRelatedError{Parent: n.name, Child: child.Name()}
	}
	n.children = append(n.children[:i], n.children[i+1:]...)
	n.reindexLocked()
	return nil
}

// clearChildrenLocked drops every child. Caller must hold n.mu.
func (n *node) clearChildrenLocked() {
	n.children = nil
	n.index = make(map[string]int)
}

// replaceChildrenOfKindLocked swaps all children of the given kind
// for fresh, preserving the order of the kept children and appending
// the fresh ones in their listing order. Caller must hold n.mu.
func (n *node) replaceChildrenOfKindLocked(kind Kind, fresh []Node) {
	var kept []Node
	for _, child := range n.children {
		if child.Kind() != kind {
			kept = append(kept, child)
		}
	}
	n.children = kept
	n.reindexLocked()
	for _, child := range fresh {
		n.addChildLocked(child)
	}
}

// Caller must hold n.mu.
func (n *node) reindexLocked() {
	n.index = make(map[string]int, len(n.children))
	for i, child := range n.children {
		n.index[child.Name()] = i
	}
}

// Root is the tree's anchor node "/". Its children are name servers.
type Root struct {
	node
}

func newRoot(logger *slog.Logger) *Root {
	r := &Root{}
	r.init(r, "/", KindRoot, nil, logger)
	return r
}

// Unknown is a directory entry whose kind tag named neither a manager
// nor a component, or whose object turned out to be something else
// entirely. The tree keeps it so the listing stays complete.
type Unknown struct {
	node
	ref remote.ObjectRef
}

func newUnknown(name string, parent Node, ref remote.ObjectRef, zombie bool, logger *slog.Logger) *Unknown {
	u := &Unknown{ref: ref}
	u.init(u, name, KindUnknown, parent, logger)
	u.zombie = zombie
	return u
}

// ObjectRef returns the unknown object's reference, nil for zombies.
func (u *Unknown) ObjectRef() remote.ObjectRef { return u.ref }
