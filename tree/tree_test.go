// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/componentfabric/comptree/memfabric"
	"github.com/componentfabric/comptree/remote"
)

// twoServerFabric registers two independent roots, each holding one
// component, as testhost and otherhost.
func twoServerFabric() *memfabric.Fabric {
	f := memfabric.New()
	for _, server := range []string{"testhost", "otherhost"} {
		root := f.NewContext()
		root.Bind(remote.BindingName{ID: "probe", Kind: "rtc"}, f.NewComponent("probe", "Probe"))
		registerServer(f, server, root)
	}
	return f
}

func TestNewWithServers(t *testing.T) {
	f := twoServerFabric()
	tr := newTestTree(t, f, "testhost", "otherhost")

	servers := tr.Servers()
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
	for _, path := range [][]string{
		{"/", "testhost", "probe.rtc"},
		{"/", "otherhost", "probe.rtc"},
	} {
		if !tr.IsComponent(path) {
			t.Errorf("no component at %v", path)
		}
	}
	if tr.Root().Kind() != KindRoot {
		t.Error("root node does not report KindRoot")
	}
}

func TestNewWithPathsExtractsServers(t *testing.T) {
	f := twoServerFabric()
	tr, err := New(context.Background(), Config{
		Connector: f,
		Logger:    testLogger(),
		Paths: [][]string{
			{"/", "testhost", "probe.rtc"},
			{"/", "testhost"},
			{"/"},
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := len(tr.Servers()); got != 1 {
		t.Fatalf("got %d servers, want 1", got)
	}
	// The path names a server; everything below it is parsed.
	if !tr.HasPath([]string{"/", "testhost", "probe.rtc"}) {
		t.Error("server from path not parsed")
	}
}

func TestNewRejectsRelativePath(t *testing.T) {
	f := twoServerFabric()
	for _, path := range [][]string{{"testhost"}, {}} {
		_, err := New(context.Background(), Config{
			Connector: f,
			Logger:    testLogger(),
			Paths:     [][]string{path},
		})
		var perr *NonRootPathError
		if !errors.As(err, &perr) {
			t.Errorf("path %v: error = %v, want *NonRootPathError", path, err)
		}
	}
}

func TestNewFromEnvironment(t *testing.T) {
	f := twoServerFabric()
	t.Setenv(NameServersEnvVar, "testhost;;otherhost")

	tr, err := New(context.Background(), Config{Connector: f, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := len(tr.Servers()); got != 2 {
		t.Errorf("got %d servers from environment, want 2", got)
	}
}

func TestExplicitServersShadowEnvironment(t *testing.T) {
	f := twoServerFabric()
	// Unresolvable on the fabric: New would fail if this were used.
	t.Setenv(NameServersEnvVar, "ghosthost")

	tr := newTestTree(t, f, "testhost")
	servers := tr.Servers()
	if len(servers) != 1 || servers[0].Address() != "testhost" {
		t.Errorf("servers = %v, want testhost only", servers)
	}
}

func TestNewDeduplicatesServers(t *testing.T) {
	f := twoServerFabric()
	tr, err := New(context.Background(), Config{
		Connector: f,
		Logger:    testLogger(),
		Servers:   []string{"testhost", "testhost"},
		Paths:     [][]string{{"/", "testhost", "probe.rtc"}},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := len(tr.Servers()); got != 1 {
		t.Errorf("got %d servers, want 1", got)
	}
}

func TestNewRequiresConnector(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("New accepted a config without a connector")
	}
}

func TestAddNameServersPartialFailure(t *testing.T) {
	f := twoServerFabric()
	t.Setenv(NameServersEnvVar, "")
	tr, err := New(context.Background(), Config{Connector: f, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = tr.AddNameServers(context.Background(), []string{"testhost", "ghosthost"})
	var serr *InvalidServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *InvalidServiceError for the bad address", err)
	}
	servers := tr.Servers()
	if len(servers) != 1 || servers[0].Address() != "testhost" {
		t.Errorf("servers = %v, want the good one added despite the failure", servers)
	}
}

func TestLookup(t *testing.T) {
	f := twoServerFabric()
	tr := newTestTree(t, f, "testhost")

	node, err := tr.Lookup("/testhost/probe.rtc")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if node == nil || !node.IsComponent() {
		t.Fatalf("Lookup returned %v, want the component", node)
	}

	// A port suffix addresses a point on the component, not a child.
	node, err = tr.Lookup("/testhost/probe.rtc:out")
	if err != nil || node == nil || node.Name() != "probe.rtc" {
		t.Errorf("Lookup with port suffix = %v, %v", node, err)
	}

	node, err = tr.Lookup("/testhost/missing.rtc")
	if err != nil || node != nil {
		t.Errorf("Lookup of missing path = %v, %v, want nil, nil", node, err)
	}

	_, err = tr.Lookup("testhost/probe.rtc")
	var perr *NonRootPathError
	if !errors.As(err, &perr) {
		t.Errorf("relative Lookup error = %v, want *NonRootPathError", err)
	}
}

func TestTreeReparsePartialFailure(t *testing.T) {
	f := memfabric.New()
	goodRoot := f.NewContext()
	goodRoot.Bind(remote.BindingName{ID: "probe", Kind: "rtc"}, f.NewComponent("probe", "Probe"))
	badRoot := f.NewContext()
	badRoot.Bind(remote.BindingName{ID: "relic", Kind: "rtc"}, f.NewComponent("relic", "Relic"))
	registerServer(f, "goodhost", goodRoot)
	registerServer(f, "badhost", badRoot)

	tr := newTestTree(t, f, "goodhost", "badhost")
	goodRoot.Bind(remote.BindingName{ID: "extra", Kind: "rtc"}, f.NewComponent("extra", "Probe"))
	badRoot.Kill()

	err := tr.Reparse(context.Background())
	if err == nil {
		t.Fatal("Reparse of a dead server reported success")
	}
	if !tr.HasPath([]string{"/", "goodhost", "extra.rtc"}) {
		t.Error("live server not reparsed")
	}
	// The failed server keeps what it had.
	if !tr.HasPath([]string{"/", "badhost", "relic.rtc"}) {
		t.Error("failed server lost its previous children")
	}
}

func TestServersFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"unset", "", nil},
		{"single", "localhost", []string{"localhost"}},
		{"multiple", "a;b:2809;c", []string{"a", "b:2809", "c"}},
		{"empty_fields", ";a;;b;", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(NameServersEnvVar, tt.value)
			if got := ServersFromEnv(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ServersFromEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}
