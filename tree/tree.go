// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/componentfabric/comptree/remote"
)

// NameServersEnvVar lists name server addresses to load when a tree
// is built without any, separated by semicolons.
const NameServersEnvVar = "COMPTREE_NAMESERVERS"

// Config configures a Tree.
type Config struct {
	// Connector dials name servers. Required.
	Connector remote.Connector

	// Logger receives parse anomalies (zombie entries, skipped
	// capabilities). nil means slog.Default().
	Logger *slog.Logger

	// Servers are logical name server addresses to parse at
	// construction, "localhost:2809" style.
	Servers []string

	// Paths contributes servers from parsed paths: each path must
	// begin at "/" and its second element, when present, names a
	// server. Elements beyond the second are ignored here; pass
	// Filter to restrict parsing.
	Paths [][]string

	// Filter restricts which entries are resolved below every added
	// server. Each path is a chain of child names relative to the
	// server. Empty means resolve everything.
	Filter [][]string
}

// Tree mirrors one or more name servers as a navigable node tree
// rooted at "/".
type Tree struct {
	connector remote.Connector
	logger    *slog.Logger
	root      *Root
}

// New builds a tree and parses its initial servers: those in
// config.Servers plus those named by config.Paths or, when both are
// empty, the COMPTREE_NAMESERVERS environment variable. Duplicate
// addresses are parsed once.
func New(ctx context.Context, config Config) (*Tree, error) {
	if config.Connector == nil {
		return nil, errors.New("tree: config needs a connector")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tree{
		connector: config.Connector,
		logger:    logger,
		root:      newRoot(logger),
	}
	servers := append([]string(nil), config.Servers...)
	for _, path := range config.Paths {
		if len(path) == 0 || path[0] != "/" {
			return nil, &NonRootPathError{Path: strings.Join(path, "/")}
		}
		if len(path) > 1 {
			servers = append(servers, path[1])
		}
	}
	if len(servers) == 0 {
		servers = ServersFromEnv()
	}
	seen := make(map[string]bool)
	unique := servers[:0]
	for _, server := range servers {
		if seen[server] {
			continue
		}
		seen[server] = true
		unique = append(unique, server)
	}
	if err := t.AddNameServers(ctx, unique, config.Filter...); err != nil {
		return nil, err
	}
	return t, nil
}

// ServersFromEnv returns the server addresses named by the
// COMPTREE_NAMESERVERS environment variable, nil when unset.
func ServersFromEnv() []string {
	value := os.Getenv(NameServersEnvVar)
	if value == "" {
		return nil
	}
	var servers []string
	for _, server := range strings.Split(value, ";") {
		if server != "" {
			servers = append(servers, server)
		}
	}
	return servers
}

// Root returns the root node "/".
func (t *Tree) Root() Node {
	return t.root
}

// Servers returns the name server nodes currently in the tree.
func (t *Tree) Servers() []*NameServer {
	var out []*NameServer
	for _, child := range t.root.Children() {
		if ns, ok := child.(*NameServer); ok {
			out = append(out, ns)
		}
	}
	return out
}

// AddNameServer connects to one name server and parses it into the
// tree. The optional filter restricts which entries below it are
// resolved. Adding an address already in the tree replaces its node
// with a freshly parsed one.
func (t *Tree) AddNameServer(ctx context.Context, address string, filter ...[]string) error {
	var restrict [][]string
	if len(filter) > 0 {
		restrict = filter
	}
	ns, err := newNameServer(ctx, address, t.root, t.connector, restrict, t.logger)
	if err != nil {
		return err
	}
	t.root.mu.Lock()
	t.root.addChildLocked(ns)
	t.root.mu.Unlock()
	return nil
}

// AddNameServers parses several name servers concurrently. All
// addresses are attempted; the errors of those that failed are
// joined.
func (t *Tree) AddNameServers(ctx context.Context, addresses []string, filter ...[]string) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	for _, address := range addresses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := t.AddNameServer(ctx, address, filter...); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Reparse rebuilds every name server in the tree concurrently. All
// servers are attempted; the errors of those that failed are joined,
// and a failed server keeps its previous children.
func (t *Tree) Reparse(ctx context.Context) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	for _, server := range t.Servers() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Reparse(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("reparsing %q: %w", server.Address(), err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Node returns the node at path, nil if the path leads nowhere. The
// path's first element must be "/".
func (t *Tree) Node(path []string) Node {
	return t.root.NodeAt(path)
}

// HasPath reports whether a node exists at path.
func (t *Tree) HasPath(path []string) bool {
	return t.root.HasPath(path)
}

// Lookup parses a path string and returns the node it names, or nil
// if there is no such node. The path must be absolute.
func (t *Tree) Lookup(path string) (Node, error) {
	parsed, _, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if parsed[0] != "/" {
		return nil, &NonRootPathError{Path: path}
	}
	return t.root.NodeAt(parsed), nil
}

// Iterate visits every node of the tree depth first, calling fn for
// those passing all filters.
func (t *Tree) Iterate(fn func(Node) error, filters ...Filter) error {
	return t.root.Iterate(fn, filters...)
}

// IsComponent reports whether path names a component node.
func (t *Tree) IsComponent(path []string) bool {
	node := t.Node(path)
	return node != nil && node.IsComponent()
}

// IsManager reports whether path names a manager node.
func (t *Tree) IsManager(path []string) bool {
	node := t.Node(path)
	return node != nil && node.IsManager()
}

// IsDirectory reports whether path names a node that can hold
// children: the root, a directory, a name server, or a manager.
func (t *Tree) IsDirectory(path []string) bool {
	node := t.Node(path)
	return node != nil && node.IsDirectory()
}

// IsNameServer reports whether path names a name server node.
func (t *Tree) IsNameServer(path []string) bool {
	node := t.Node(path)
	return node != nil && node.IsNameServer()
}

// IsZombie reports whether path names a zombie node.
func (t *Tree) IsZombie(path []string) bool {
	node := t.Node(path)
	return node != nil && node.IsZombie()
}
