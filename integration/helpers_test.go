// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package integration_test exercises the full comptree stack over
// real sockets: a memfabric populated with managers and components,
// served by an rpc.Server on a loopback listener, parsed through the
// rpc client connector into a tree, and mutated through the tree's
// remote operations. Everything runs in-process; no external fabric
// is required.
package integration_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/componentfabric/comptree/lib/testutil"
	"github.com/componentfabric/comptree/memfabric"
	"github.com/componentfabric/comptree/remote"
	"github.com/componentfabric/comptree/rpc"
	"github.com/componentfabric/comptree/tree"
)

const serverExitTimeout = 5 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fabricFixture is a populated in-memory fabric: a root context
// holding manager.mgr (factory Probe, one created component probe0)
// and a nested apps.ctx directory.
type fabricFixture struct {
	fabric  *memfabric.Fabric
	root    *memfabric.Context
	manager *memfabric.Manager
}

func newFabricFixture(t *testing.T) *fabricFixture {
	t.Helper()
	fabric := memfabric.New()
	root := fabric.NewContext()

	manager := fabric.NewManager("manager")
	manager.AddFactory("Probe")
	manager.AddLoadableModule("/opt/fabric/lib/extra.so")
	manager.SetConfig("logger.log_level", "INFO")
	root.Bind(remote.BindingName{ID: "manager", Kind: remote.KindTagManager}, manager)
	manager.PublishComponentsTo(root)

	if status, err := manager.CreateComponent(context.Background(), "Probe?instance_name=probe0"); err != nil || status != remote.StatusOK {
		t.Fatalf("creating probe0: status=%v err=%v", status, err)
	}

	apps := fabric.NewContext()
	root.Bind(remote.BindingName{ID: "apps", Kind: remote.KindTagContext}, apps)

	return &fabricFixture{fabric: fabric, root: root, manager: manager}
}

// serveTCP publishes root as "NameService" on a loopback TCP listener
// and returns the host:port address to hand to tree.Config.Servers.
// The server shuts down during test cleanup.
func serveTCP(t *testing.T, root *memfabric.Context) string {
	t.Helper()
	server := rpc.NewServer(rpc.Locator{Network: "tcp", Address: "127.0.0.1:0"}, testLogger())
	server.Bind("NameService", root)

	listener, err := server.Listen()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	address := listener.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, done, serverExitTimeout, "server exit"); err != nil {
			t.Errorf("server exit: %v", err)
		}
	})
	return address
}

// parseTCP serves root over TCP and parses it into a fresh tree via
// the socket client connector.
func parseTCP(t *testing.T, root *memfabric.Context) (*tree.Tree, string) {
	t.Helper()
	address := serveTCP(t, root)
	tr, err := tree.New(context.Background(), tree.Config{
		Connector: rpc.NewConnector(testLogger()),
		Logger:    testLogger(),
		Servers:   []string{address},
	})
	if err != nil {
		t.Fatalf("parsing over socket: %v", err)
	}
	return tr, address
}

// mustLookup fails the test unless path names a node.
func mustLookup(t *testing.T, tr *tree.Tree, path string) tree.Node {
	t.Helper()
	node, err := tr.Lookup(path)
	if err != nil {
		t.Fatalf("lookup %s: %v", path, err)
	}
	if node == nil {
		t.Fatalf("no node at %s", path)
	}
	return node
}
