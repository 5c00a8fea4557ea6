// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/componentfabric/comptree/remote"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// attach links a constructed child into its parent's child set.
func attach(t *testing.T, parent, child Node) {
	t.Helper()
	base := parent.base()
	base.mu.Lock()
	base.addChildLocked(child)
	base.mu.Unlock()
}

// buildFixtureTree hand-builds /localhost/ctx.host_cxt/{a0.rtc,b0.rtc}
// without any remote plumbing.
func buildFixtureTree(t *testing.T) (*Root, *NameServer, *Directory, *Component, *Component) {
	t.Helper()
	logger := testLogger()
	root := newRoot(logger)
	ns := &NameServer{address: "localhost"}
	ns.init(ns, "localhost", KindNameServer, root, logger)
	attach(t, root, ns)
	dir := newDirectory("ctx.host_cxt", ns, nil, nil, logger)
	attach(t, ns, dir)
	a := newComponent("a0.rtc", dir, nil, remote.ComponentProfile{InstanceName: "a0", TypeName: "A"}, logger)
	attach(t, dir, a)
	b := newComponent("b0.rtc", dir, nil, remote.ComponentProfile{InstanceName: "b0", TypeName: "B"}, logger)
	attach(t, dir, b)
	return root, ns, dir, a, b
}

func TestNodePaths(t *testing.T) {
	root, ns, dir, a, _ := buildFixtureTree(t)

	if got := a.PathString(); got != "/localhost/ctx.host_cxt/a0.rtc" {
		t.Errorf("PathString = %q, want /localhost/ctx.host_cxt/a0.rtc", got)
	}
	want := []string{"/", "localhost", "ctx.host_cxt", "a0.rtc"}
	if got := a.FullPath(); !slices.Equal(got, want) {
		t.Errorf("FullPath = %v, want %v", got, want)
	}
	if got := root.PathString(); got != "/" {
		t.Errorf("root PathString = %q, want /", got)
	}
	if got := ns.PathString(); got != "/localhost" {
		t.Errorf("name server PathString = %q, want /localhost", got)
	}

	if got := a.Depth(); got != 3 {
		t.Errorf("Depth = %d, want 3", got)
	}
	if got := root.Depth(); got != 0 {
		t.Errorf("root Depth = %d, want 0", got)
	}

	if a.Root() != Node(root) {
		t.Error("Root did not walk up to the root node")
	}
	if dir.NameServerNode() != ns {
		t.Error("NameServerNode did not find the name server")
	}
	if root.NameServerNode() != nil {
		t.Error("root NameServerNode should be nil")
	}
	if ns.NameServerNode() != ns {
		t.Error("a name server's NameServerNode should be itself")
	}
}

func TestNodeAt(t *testing.T) {
	root, _, dir, a, _ := buildFixtureTree(t)

	if got := root.NodeAt([]string{"/", "localhost", "ctx.host_cxt", "a0.rtc"}); got != Node(a) {
		t.Errorf("NodeAt found %v, want a0.rtc", got)
	}
	if got := root.NodeAt([]string{"/", "localhost", "ctx.host_cxt"}); got != Node(dir) {
		t.Errorf("NodeAt found %v, want ctx.host_cxt", got)
	}
	if got := root.NodeAt([]string{"/", "localhost", "missing"}); got != nil {
		t.Errorf("NodeAt(missing) = %v, want nil", got)
	}
	if got := root.NodeAt([]string{"wrong-root"}); got != nil {
		t.Errorf("NodeAt with wrong first element = %v, want nil", got)
	}
	if !root.HasPath([]string{"/", "localhost"}) {
		t.Error("HasPath(/localhost) = false, want true")
	}
	if root.HasPath([]string{"/", "nowhere"}) {
		t.Error("HasPath(/nowhere) = true, want false")
	}
}

func TestChildRelations(t *testing.T) {
	_, ns, dir, a, _ := buildFixtureTree(t)

	if dir.Child("a0.rtc") != Node(a) {
		t.Error("Child(a0.rtc) did not return the component")
	}
	if dir.Child("nope") != nil {
		t.Error("Child(nope) should be nil")
	}
	if !dir.IsChild(a) {
		t.Error("IsChild(a) = false, want true")
	}
	if dir.IsChild(ns) {
		t.Error("IsChild(ns) = true, want false")
	}
	if !a.IsParent(dir) {
		t.Error("IsParent(dir) = false, want true")
	}
	if a.IsParent(ns) {
		t.Error("IsParent(ns) = true, want false")
	}
}

func TestIterate(t *testing.T) {
	root, _, _, _, _ := buildFixtureTree(t)

	var names []string
	err := root.Iterate(func(n Node) error {
		names = append(names, n.Name())
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	want := []string{"/", "localhost", "ctx.host_cxt", "a0.rtc", "b0.rtc"}
	if !slices.Equal(names, want) {
		t.Errorf("Iterate order = %v, want %v", names, want)
	}

	names = nil
	if err := root.Iterate(func(n Node) error {
		names = append(names, n.Name())
		return nil
	}, ComponentNodes); err != nil {
		t.Fatalf("filtered Iterate failed: %v", err)
	}
	if !slices.Equal(names, []string{"a0.rtc", "b0.rtc"}) {
		t.Errorf("component Iterate = %v, want components only", names)
	}

	boom := errors.New("boom")
	count := 0
	err = root.Iterate(func(n Node) error {
		count++
		if n.Name() == "ctx.host_cxt" {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("Iterate error = %v, want boom", err)
	}
	if count != 3 {
		t.Errorf("Iterate visited %d nodes after abort, want 3", count)
	}
}

func TestAddChildReplacesInPlace(t *testing.T) {
	_, _, dir, a, b := buildFixtureTree(t)
	logger := testLogger()

	replacement := newComponent("a0.rtc", dir, nil, remote.ComponentProfile{InstanceName: "a0", TypeName: "A2"}, logger)
	attach(t, dir, replacement)

	children := dir.Children()
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	if children[0] != Node(replacement) {
		t.Error("replacement did not keep the original position")
	}
	if children[0] == Node(a) {
		t.Error("replacement did not produce a fresh node")
	}
	if children[1] != Node(b) {
		t.Error("sibling moved during replacement")
	}
}

func TestDetachChild(t *testing.T) {
	_, _, dir, a, _ := buildFixtureTree(t)

	if err := dir.detachChild(a); err != nil {
		t.Fatalf("detachChild failed: %v", err)
	}
	if dir.Child("a0.rtc") != nil {
		t.Error("detached child still reachable")
	}
	var notRelated *NotRelatedError
	if err := dir.detachChild(a); !errors.As(err, &notRelated) {
		t.Errorf("second detach error = %v, want *NotRelatedError", err)
	}
}

func TestReplaceChildrenOfKind(t *testing.T) {
	_, _, dir, _, _ := buildFixtureTree(t)
	logger := testLogger()

	sub := newDirectory("sub.host_cxt", dir, nil, nil, logger)
	attach(t, dir, sub)

	fresh := []Node{
		newComponent("c0.rtc", dir, nil, remote.ComponentProfile{InstanceName: "c0"}, logger),
	}
	base := dir.base()
	base.mu.Lock()
	base.replaceChildrenOfKindLocked(KindComponent, fresh)
	base.mu.Unlock()

	var names []string
	for _, child := range dir.Children() {
		names = append(names, child.Name())
	}
	want := []string{"sub.host_cxt", "c0.rtc"}
	if !slices.Equal(names, want) {
		t.Errorf("children after replace = %v, want %v", names, want)
	}
}

func TestZombieRefusesOperations(t *testing.T) {
	_, _, dir, _, _ := buildFixtureTree(t)
	logger := testLogger()

	zombie := newZombieComponent("dead0.rtc", dir, nil, logger)
	attach(t, dir, zombie)

	if !zombie.IsZombie() {
		t.Fatal("zombie component not marked as zombie")
	}
	err := zombie.Reparse(context.Background())
	var zerr *ZombieError
	if !errors.As(err, &zerr) {
		t.Fatalf("Reparse on zombie = %v, want *ZombieError", err)
	}
	if zerr.Path != "/localhost/ctx.host_cxt/dead0.rtc" {
		t.Errorf("zombie error path = %q", zerr.Path)
	}
}
