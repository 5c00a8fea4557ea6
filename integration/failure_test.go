// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package integration_test

import (
	"context"
	"testing"

	"github.com/componentfabric/comptree/lib/testutil"
	"github.com/componentfabric/comptree/memfabric"
	"github.com/componentfabric/comptree/rpc"
	"github.com/componentfabric/comptree/tree"
)

func TestDeadComponentBecomesZombieOverSocket(t *testing.T) {
	fixture := newFabricFixture(t)
	tr, address := parseTCP(t, fixture.root)
	ctx := context.Background()

	handles, err := fixture.manager.Components(ctx)
	if err != nil {
		t.Fatalf("fabric components: %v", err)
	}
	handles[0].(*memfabric.Component).Kill()

	if err := tr.Reparse(ctx); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	component := mustLookup(t, tr, "/"+address+"/probe0.rtc")
	if !component.IsZombie() {
		t.Error("dead component should parse as a zombie over the socket")
	}
}

func TestShutdownManagerBecomesZombieOverSocket(t *testing.T) {
	fixture := newFabricFixture(t)
	tr, address := parseTCP(t, fixture.root)
	ctx := context.Background()

	manager := mustLookup(t, tr, "/"+address+"/manager.mgr").(*tree.Manager)
	if err := manager.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown over socket: %v", err)
	}

	// The binding is still on the name server but the manager no
	// longer answers; the reparse keeps the entry as a zombie.
	if err := tr.Reparse(ctx); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	node := mustLookup(t, tr, "/"+address+"/manager.mgr")
	if !node.IsZombie() {
		t.Error("shut-down manager should parse as a zombie over the socket")
	}
}

// TestServerGoneKeepsStaleTree stops the rpc server under a parsed
// tree and checks that a reparse reports the failure while keeping
// the last good view of that server.
func TestServerGoneKeepsStaleTree(t *testing.T) {
	fixture := newFabricFixture(t)

	server := rpc.NewServer(rpc.Locator{Network: "tcp", Address: "127.0.0.1:0"}, testLogger())
	server.Bind("NameService", fixture.root)
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

	tr, err := tree.New(context.Background(), tree.Config{
		Connector: rpc.NewConnector(testLogger()),
		Logger:    testLogger(),
		Servers:   []string{address},
	})
	if err != nil {
		cancel()
		t.Fatalf("parsing over socket: %v", err)
	}
	mustLookup(t, tr, "/"+address+"/manager.mgr")

	cancel()
	if err := testutil.RequireReceive(t, done, serverExitTimeout, "server exit"); err != nil {
		t.Fatalf("server exit: %v", err)
	}

	if err := tr.Reparse(context.Background()); err == nil {
		t.Fatal("reparsing a stopped server should fail")
	}
	// The last good view survives the failed reparse.
	mustLookup(t, tr, "/"+address+"/manager.mgr")
	mustLookup(t, tr, "/"+address+"/probe0.rtc")
}
