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

// NameServer is the tree node for one name server: a directory whose
// naming context is the server's root context. Name servers appear
// only in the first level of the tree, named by the logical address
// they were added under.
type NameServer struct {
	Directory
	address          string
	connectionString string
}

// newNameServer connects to the name server behind address, narrows
// its root context, and parses the tree below it. An unreachable or
// unparseable address fails with *InvalidServiceError; a live object
// that is not a naming context fails with *FailedToNarrowRootError.
func newNameServer(ctx context.Context, address string, parent Node, connector remote.Connector, filter [][]string, logger *slog.Logger) (*NameServer, error) {
	connectionString := resolveAddress(address)
	rootContext, err := connector.ConnectNameServer(ctx, connectionString)
	if err != nil {
		var narrow *remote.NarrowError
		if errors.As(err, &narrow) {
			return nil, &FailedToNarrowRootError{Address: address}
		}
		return nil, &InvalidServiceError{Address: address, Err: err}
	}
	ns := &NameServer{address: address, connectionString: connectionString}
	ns.context = rootContext
	ns.filter = filter
	ns.init(ns, address, KindNameServer, parent, logger)
	ns.mu.Lock()
	err = ns.parseContextLocked(ctx)
	ns.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parsing name server %q: %w", address, err)
	}
	return ns, nil
}

// Address returns the logical address the server was added under.
func (n *NameServer) Address() string {
	return n.address
}

// ConnectionString returns the transport form of the address, as
// produced by address resolution.
func (n *NameServer) ConnectionString() string {
	return n.connectionString
}
