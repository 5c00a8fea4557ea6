// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/componentfabric/comptree/memfabric"
	"github.com/componentfabric/comptree/remote"
)

// registerServer exposes root as the name server behind address, using
// the same resolution the tree will apply.
func registerServer(f *memfabric.Fabric, address string, root remote.ObjectRef) {
	f.RegisterServer(resolveAddress(address), root)
}

func newTestTree(t *testing.T, f *memfabric.Fabric, servers ...string) *Tree {
	t.Helper()
	tr, err := New(context.Background(), Config{
		Connector: f,
		Logger:    testLogger(),
		Servers:   servers,
	})
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}
	return tr
}

func childNames(n Node) []string {
	var names []string
	for _, child := range n.Children() {
		names = append(names, child.Name())
	}
	return names
}

func TestDirectoryParseStructure(t *testing.T) {
	f := memfabric.New()
	root := f.NewContext()
	apps := f.NewContext()
	apps.Bind(remote.BindingName{ID: "ConsoleIn0", Kind: "rtc"}, f.NewComponent("ConsoleIn0", "ConsoleIn"))
	root.Bind(remote.BindingName{ID: "apps", Kind: "host_cxt"}, apps)
	root.Bind(remote.BindingName{ID: "manager", Kind: "mgr"}, f.NewManager("manager"))
	root.Bind(remote.BindingName{ID: "ConsoleOut0", Kind: "rtc"}, f.NewComponent("ConsoleOut0", "ConsoleOut"))
	root.Bind(remote.BindingName{ID: "blob", Kind: "data"}, f.NewObject())
	registerServer(f, "testhost", root)

	tr := newTestTree(t, f, "testhost")
	server := tr.Node([]string{"/", "testhost"})
	if server == nil {
		t.Fatal("name server node missing")
	}

	want := []string{"apps.host_cxt", "manager.mgr", "ConsoleOut0.rtc", "blob.data"}
	if got := childNames(server); !slices.Equal(got, want) {
		t.Fatalf("server children = %v, want %v", got, want)
	}

	if !tr.IsDirectory([]string{"/", "testhost", "apps.host_cxt"}) {
		t.Error("apps.host_cxt should be a directory")
	}
	if !tr.IsManager([]string{"/", "testhost", "manager.mgr"}) {
		t.Error("manager.mgr should be a manager")
	}
	if !tr.IsComponent([]string{"/", "testhost", "ConsoleOut0.rtc"}) {
		t.Error("ConsoleOut0.rtc should be a component")
	}
	unknown := tr.Node([]string{"/", "testhost", "blob.data"})
	if unknown == nil || !unknown.IsUnknown() {
		t.Error("blob.data should be an unknown node")
	}

	inner := tr.Node([]string{"/", "testhost", "apps.host_cxt", "ConsoleIn0.rtc"})
	component, ok := inner.(*Component)
	if !ok {
		t.Fatalf("ConsoleIn0.rtc = %T, want *Component", inner)
	}
	if component.InstanceName() != "ConsoleIn0" || component.TypeName() != "ConsoleIn" {
		t.Errorf("component profile = %q/%q, want ConsoleIn0/ConsoleIn",
			component.InstanceName(), component.TypeName())
	}
}

func TestDirectoryReparseBuildsFreshNodes(t *testing.T) {
	f := memfabric.New()
	root := f.NewContext()
	root.Bind(remote.BindingName{ID: "ConsoleIn0", Kind: "rtc"}, f.NewComponent("ConsoleIn0", "ConsoleIn"))
	registerServer(f, "testhost", root)

	tr := newTestTree(t, f, "testhost")
	server := tr.Node([]string{"/", "testhost"})
	before := server.Child("ConsoleIn0.rtc")
	if before == nil {
		t.Fatal("component missing before reparse")
	}

	if err := server.Reparse(context.Background()); err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	after := server.Child("ConsoleIn0.rtc")
	if after == nil {
		t.Fatal("component missing after reparse")
	}
	if before == after {
		t.Error("reparse reused the old node instead of building a fresh one")
	}
	if !slices.Equal(childNames(server), []string{"ConsoleIn0.rtc"}) {
		t.Errorf("children after reparse = %v", childNames(server))
	}
}

func TestDirectoryZombieEntries(t *testing.T) {
	f := memfabric.New()
	root := f.NewContext()
	manager := f.NewManager("manager")
	component := f.NewComponent("ConsoleIn0", "ConsoleIn")
	sub := f.NewContext()
	root.Bind(remote.BindingName{ID: "manager", Kind: "mgr"}, manager)
	root.Bind(remote.BindingName{ID: "ConsoleIn0", Kind: "rtc"}, component)
	root.Bind(remote.BindingName{ID: "apps", Kind: "host_cxt"}, sub)
	manager.Kill()
	component.Kill()
	sub.Kill()
	registerServer(f, "testhost", root)

	tr := newTestTree(t, f, "testhost")
	server := tr.Node([]string{"/", "testhost"})

	want := []string{"manager.mgr", "ConsoleIn0.rtc", "apps.host_cxt"}
	if got := childNames(server); !slices.Equal(got, want) {
		t.Fatalf("children = %v, want %v", got, want)
	}
	for _, name := range want {
		child := server.Child(name)
		if !child.IsZombie() {
			t.Errorf("%s should be a zombie", name)
		}
	}
	if kind := server.Child("manager.mgr").Kind(); kind != KindManager {
		t.Errorf("zombie manager kind = %v", kind)
	}
	if kind := server.Child("apps.host_cxt").Kind(); kind != KindDirectory {
		t.Errorf("zombie context kind = %v", kind)
	}
}

func TestDirectoryNarrowMismatchBecomesUnknown(t *testing.T) {
	f := memfabric.New()
	root := f.NewContext()
	// The binding claims a manager but the object is a component.
	root.Bind(remote.BindingName{ID: "fake", Kind: "mgr"}, f.NewComponent("fake", "Fake"))
	registerServer(f, "testhost", root)

	tr := newTestTree(t, f, "testhost")
	node := tr.Node([]string{"/", "testhost", "fake.mgr"})
	unknown, ok := node.(*Unknown)
	if !ok {
		t.Fatalf("fake.mgr = %T, want *Unknown", node)
	}
	if unknown.IsZombie() {
		t.Error("narrow mismatch should not be a zombie; the object is alive")
	}
	if unknown.ObjectRef() == nil {
		t.Error("unknown node lost the object reference")
	}
}

func TestDirectoryFilter(t *testing.T) {
	f := memfabric.New()
	root := f.NewContext()
	a := f.NewContext()
	a.Bind(remote.BindingName{ID: "x0", Kind: "rtc"}, f.NewComponent("x0", "X"))
	a.Bind(remote.BindingName{ID: "y0", Kind: "rtc"}, f.NewComponent("y0", "Y"))
	b := f.NewContext()
	b.Bind(remote.BindingName{ID: "z0", Kind: "rtc"}, f.NewComponent("z0", "Z"))
	root.Bind(remote.BindingName{ID: "a", Kind: "host_cxt"}, a)
	root.Bind(remote.BindingName{ID: "b", Kind: "host_cxt"}, b)
	registerServer(f, "testhost", root)

	tr, err := New(context.Background(), Config{
		Connector: f,
		Logger:    testLogger(),
		Servers:   []string{"testhost"},
		Filter:    [][]string{{"a.host_cxt", "x0.rtc"}},
	})
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}
	server := tr.Node([]string{"/", "testhost"})
	if got := childNames(server); !slices.Equal(got, []string{"a.host_cxt"}) {
		t.Fatalf("filtered children = %v, want only a.host_cxt", got)
	}
	inner := server.Child("a.host_cxt")
	if got := childNames(inner); !slices.Equal(got, []string{"x0.rtc"}) {
		t.Errorf("filtered inner children = %v, want only x0.rtc", got)
	}
}

func TestDirectoryFilterConsumedAllowsEverythingBelow(t *testing.T) {
	f := memfabric.New()
	root := f.NewContext()
	a := f.NewContext()
	a.Bind(remote.BindingName{ID: "x0", Kind: "rtc"}, f.NewComponent("x0", "X"))
	a.Bind(remote.BindingName{ID: "y0", Kind: "rtc"}, f.NewComponent("y0", "Y"))
	root.Bind(remote.BindingName{ID: "a", Kind: "host_cxt"}, a)
	registerServer(f, "testhost", root)

	tr, err := New(context.Background(), Config{
		Connector: f,
		Logger:    testLogger(),
		Servers:   []string{"testhost"},
		Filter:    [][]string{{"a.host_cxt"}},
	})
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}
	inner := tr.Node([]string{"/", "testhost", "a.host_cxt"})
	if got := childNames(inner); !slices.Equal(got, []string{"x0.rtc", "y0.rtc"}) {
		t.Errorf("children below consumed filter = %v, want both components", got)
	}
}

func TestDirectoryUnbind(t *testing.T) {
	f := memfabric.New()
	root := f.NewContext()
	component := f.NewComponent("ConsoleIn0", "ConsoleIn")
	root.Bind(remote.BindingName{ID: "ConsoleIn0", Kind: "rtc"}, component)
	root.Bind(remote.BindingName{ID: "ConsoleOut0", Kind: "rtc"}, f.NewComponent("ConsoleOut0", "ConsoleOut"))
	registerServer(f, "testhost", root)

	tr := newTestTree(t, f, "testhost")
	server := tr.Node([]string{"/", "testhost"}).(*NameServer)

	if err := server.Unbind(context.Background(), "ConsoleIn0.rtc"); err != nil {
		t.Fatalf("unbind failed: %v", err)
	}
	if server.Child("ConsoleIn0.rtc") != nil {
		t.Error("local child survived unbind")
	}
	bindings, err := root.List(context.Background())
	if err != nil {
		t.Fatalf("listing fabric context: %v", err)
	}
	if len(bindings) != 1 || bindings[0].Name.ID != "ConsoleOut0" {
		t.Errorf("fabric bindings after unbind = %v", bindings)
	}

	var bad *BadPathError
	if err := server.Unbind(context.Background(), "missing.rtc"); !errors.As(err, &bad) {
		t.Errorf("unbind of missing binding = %v, want *BadPathError", err)
	}
}
