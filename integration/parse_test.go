// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package integration_test

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/componentfabric/comptree/lib/testutil"
	"github.com/componentfabric/comptree/rpc"
	"github.com/componentfabric/comptree/tree"
)

// walkNames collects the kind-tagged names of every node below n,
// depth first, as slash-joined paths relative to n.
func walkNames(n tree.Node, prefix string) []string {
	var out []string
	for _, child := range n.Children() {
		path := child.Name()
		if prefix != "" {
			path = prefix + "/" + child.Name()
		}
		out = append(out, path)
		out = append(out, walkNames(child, path)...)
	}
	return out
}

func TestParseOverSocket(t *testing.T) {
	fixture := newFabricFixture(t)
	tr, address := parseTCP(t, fixture.root)

	for _, path := range []string{
		"/" + address,
		"/" + address + "/manager.mgr",
		"/" + address + "/probe0.rtc",
		"/" + address + "/apps.ctx",
		"/" + address + "/manager.mgr/probe0.rtc",
	} {
		mustLookup(t, tr, path)
	}

	component := mustLookup(t, tr, "/"+address+"/probe0.rtc").(*tree.Component)
	if component.InstanceName() != "probe0" || component.TypeName() != "Probe" {
		t.Errorf("component = %s (%s), want probe0 (Probe)", component.InstanceName(), component.TypeName())
	}

	manager := mustLookup(t, tr, "/"+address+"/manager.mgr").(*tree.Manager)
	configuration, err := manager.Configuration(context.Background())
	if err != nil {
		t.Fatalf("configuration over socket: %v", err)
	}
	if configuration["logger.log_level"] != "INFO" {
		t.Errorf("logger.log_level = %q, want INFO", configuration["logger.log_level"])
	}
	loadable, err := manager.LoadableModules(context.Background())
	if err != nil {
		t.Fatalf("loadable modules over socket: %v", err)
	}
	if len(loadable) != 1 || loadable[0]["module_file_path"] != "/opt/fabric/lib/extra.so" {
		t.Errorf("loadable modules = %v", loadable)
	}
}

// TestSocketParseMatchesDirectParse checks that the tree seen through
// the socket transport is the same tree seen through a direct
// in-process connection to the same fabric.
func TestSocketParseMatchesDirectParse(t *testing.T) {
	fixture := newFabricFixture(t)

	socketTree, _ := parseTCP(t, fixture.root)

	fixture.fabric.RegisterServer("corbaloc::direct/NameService", fixture.root)
	directTree, err := tree.New(context.Background(), tree.Config{
		Connector: fixture.fabric,
		Logger:    testLogger(),
		Servers:   []string{"direct"},
	})
	if err != nil {
		t.Fatalf("direct parse: %v", err)
	}

	socketNames := walkNames(socketTree.Servers()[0], "")
	directNames := walkNames(directTree.Servers()[0], "")
	slices.Sort(socketNames)
	slices.Sort(directNames)
	if !slices.Equal(socketNames, directNames) {
		t.Errorf("socket parse diverges from direct parse:\n socket: %v\n direct: %v",
			socketNames, directNames)
	}
}

func TestParseOverUnixSocket(t *testing.T) {
	fixture := newFabricFixture(t)

	socketPath := filepath.Join(testutil.SocketDir(t), "ns.sock")
	server := rpc.NewServer(rpc.Locator{Network: "unix", Address: socketPath}, testLogger())
	server.Bind("NameService", fixture.root)
	listener, err := server.Listen()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
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

	// A unix address holds slashes, so nodes are addressed by path
	// slice rather than by path string.
	address := "unix:" + socketPath
	tr, err := tree.New(context.Background(), tree.Config{
		Connector: rpc.NewConnector(testLogger()),
		Logger:    testLogger(),
		Servers:   []string{address},
	})
	if err != nil {
		t.Fatalf("parsing over unix socket: %v", err)
	}
	if !tr.HasPath([]string{"/", address, "manager.mgr"}) {
		t.Error("manager.mgr not parsed over unix socket")
	}
	if !tr.HasPath([]string{"/", address, "probe0.rtc"}) {
		t.Error("probe0.rtc not parsed over unix socket")
	}
}
