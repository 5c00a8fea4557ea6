// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/componentfabric/comptree/memfabric"
	"github.com/componentfabric/comptree/remote"
)

func TestAddNameServerUnreachable(t *testing.T) {
	f := memfabric.New()
	tr := newTestTree(t, f)

	err := tr.AddNameServer(context.Background(), "nowhere:2809")
	var invalid *InvalidServiceError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want *InvalidServiceError", err)
	}
	if invalid.Address != "nowhere:2809" {
		t.Errorf("error address = %q", invalid.Address)
	}
	if tr.HasPath([]string{"/", "nowhere:2809"}) {
		t.Error("failed server still appeared in the tree")
	}
}

func TestAddNameServerNarrowFailure(t *testing.T) {
	f := memfabric.New()
	// A live object answers at the address, but it is a manager, not
	// a naming context.
	registerServer(f, "testhost", f.NewManager("manager"))
	tr := newTestTree(t, f)

	err := tr.AddNameServer(context.Background(), "testhost")
	var narrow *FailedToNarrowRootError
	if !errors.As(err, &narrow) {
		t.Fatalf("error = %v, want *FailedToNarrowRootError", err)
	}
	if narrow.Address != "testhost" {
		t.Errorf("error address = %q", narrow.Address)
	}
}

func TestNameServerAccessors(t *testing.T) {
	f := memfabric.New()
	root := f.NewContext()
	root.Bind(remote.BindingName{ID: "ConsoleIn0", Kind: "rtc"}, f.NewComponent("ConsoleIn0", "ConsoleIn"))
	registerServer(f, "iiop:testhost:2809", root)

	tr := newTestTree(t, f, "iiop:testhost:2809")
	server, ok := tr.Node([]string{"/", "iiop:testhost:2809"}).(*NameServer)
	if !ok {
		t.Fatal("name server node missing")
	}
	if server.Address() != "iiop:testhost:2809" {
		t.Errorf("Address = %q", server.Address())
	}
	if server.ConnectionString() != "corbaloc:iiop:testhost:2809/NameService" {
		t.Errorf("ConnectionString = %q", server.ConnectionString())
	}

	component := server.Child("ConsoleIn0.rtc")
	if component.NameServerNode() != server {
		t.Error("NameServerNode did not walk up to the owning server")
	}
}
