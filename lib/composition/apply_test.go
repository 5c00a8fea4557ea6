// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package composition

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/componentfabric/comptree/memfabric"
	"github.com/componentfabric/comptree/remote"
	"github.com/componentfabric/comptree/tree"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newApplyFixture builds a tree over a fabric with one manager bound
// at /testhost/manager.mgr. The manager starts with no modules and no
// factories.
func newApplyFixture(t *testing.T) (*memfabric.Manager, *tree.Tree) {
	t.Helper()
	f := memfabric.New()
	root := f.NewContext()
	fm := f.NewManager("manager")
	root.Bind(remote.BindingName{ID: "manager", Kind: "mgr"}, fm)
	f.RegisterServer("corbaloc::testhost/NameService", root)

	tr, err := tree.New(context.Background(), tree.Config{
		Connector: f,
		Logger:    testLogger(),
		Servers:   []string{"testhost"},
	})
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}
	return fm, tr
}

func TestApplyLoadsModulesThenCreatesComponents(t *testing.T) {
	ctx := context.Background()
	fm, tr := newApplyFixture(t)

	// No AddFactory here: the Probe factory exists only once Probe.so
	// is loaded, so the creations below succeed only if the module
	// phase ran first.
	plan := &Plan{
		Manager: "/testhost/manager.mgr",
		Modules: []Module{{Path: "Probe.so"}},
		Components: []string{
			"Probe?instance_name=p0",
			"Probe?instance_name=p1",
		},
	}

	result, err := Apply(ctx, tr, plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Manager != "/testhost/manager.mgr" {
		t.Errorf("result manager = %q, want /testhost/manager.mgr", result.Manager)
	}
	if result.Err() != nil {
		t.Fatalf("step errors: %v", result.Err())
	}

	wantSteps := []StepResult{
		{Kind: StepLoadModule, Target: "Probe.so"},
		{Kind: StepCreateComponent, Target: "Probe?instance_name=p0"},
		{Kind: StepCreateComponent, Target: "Probe?instance_name=p1"},
	}
	if len(result.Steps) != len(wantSteps) {
		t.Fatalf("got %d steps, want %d", len(result.Steps), len(wantSteps))
	}
	for i, want := range wantSteps {
		got := result.Steps[i]
		if got.Kind != want.Kind || got.Target != want.Target || got.Err != nil {
			t.Errorf("steps[%d] = %+v, want %+v", i, got, want)
		}
	}

	if calls := fm.Calls("load_module"); calls != 1 {
		t.Errorf("load_module called %d times, want 1", calls)
	}

	manager := tr.Node([]string{"/", "testhost", "manager.mgr"}).(*tree.Manager)
	for _, name := range []string{"p0.rtc", "p1.rtc"} {
		if manager.Child(name) == nil {
			t.Errorf("%s missing from tree after apply", name)
		}
	}
	modules, err := manager.LoadedModules(ctx)
	if err != nil {
		t.Fatalf("LoadedModules failed: %v", err)
	}
	if len(modules) != 1 || modules[0]["file_path"] != "Probe.so" {
		t.Errorf("loaded modules = %v, want [Probe.so]", modules)
	}
}

func TestApplyContinuesPastFailedStep(t *testing.T) {
	ctx := context.Background()
	fm, tr := newApplyFixture(t)
	fm.AddFactory("Sensor")
	fm.ScriptFault("load_module", remote.Faultf(remote.FaultApplication, "symbol BrokenInit not found"))

	plan := &Plan{
		Manager:    "/testhost/manager.mgr",
		Modules:    []Module{{Path: "Broken.so", InitFunc: "BrokenInit"}},
		Components: []string{"Sensor?instance_name=s0"},
	}

	result, err := Apply(ctx, tr, plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(result.Steps))
	}

	var loadErr *tree.LoadModuleError
	if !errors.As(result.Steps[0].Err, &loadErr) {
		t.Fatalf("steps[0].Err = %v, want *tree.LoadModuleError", result.Steps[0].Err)
	}
	if loadErr.Reason != "symbol BrokenInit not found" {
		t.Errorf("load failure reason = %q", loadErr.Reason)
	}
	if result.Steps[1].Err != nil {
		t.Errorf("component step failed after module failure: %v", result.Steps[1].Err)
	}

	joined := result.Err()
	if joined == nil || !strings.Contains(joined.Error(), "Broken.so") {
		t.Errorf("joined error = %v, want mention of Broken.so", joined)
	}

	manager := tr.Node([]string{"/", "testhost", "manager.mgr"}).(*tree.Manager)
	if manager.Child("s0.rtc") == nil {
		t.Error("s0.rtc missing: creation should proceed past the failed load")
	}
}

func TestApplyRecordsCreateFailure(t *testing.T) {
	ctx := context.Background()
	_, tr := newApplyFixture(t)

	plan := &Plan{
		Manager:    "/testhost/manager.mgr",
		Components: []string{"Ghost?instance_name=g0"},
	}

	result, err := Apply(ctx, tr, plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	var createErr *tree.CreateComponentError
	if !errors.As(result.Steps[0].Err, &createErr) {
		t.Fatalf("steps[0].Err = %v, want *tree.CreateComponentError", result.Steps[0].Err)
	}
	if createErr.Status != remote.StatusError {
		t.Errorf("status = %v, want error", createErr.Status)
	}
	if result.Err() == nil {
		t.Error("Err() = nil with a failed step")
	}
}

func TestApplyManagerNotFound(t *testing.T) {
	_, tr := newApplyFixture(t)

	plan := &Plan{Manager: "/testhost/nope.mgr", Components: []string{"Probe"}}
	result, err := Apply(context.Background(), tr, plan)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
	if result != nil {
		t.Error("result non-nil on target failure")
	}
}

func TestApplyRejectsRelativeManagerPath(t *testing.T) {
	_, tr := newApplyFixture(t)

	plan := &Plan{Manager: "testhost/manager.mgr", Components: []string{"Probe"}}
	_, err := Apply(context.Background(), tr, plan)
	var pathErr *tree.NonRootPathError
	if !errors.As(err, &pathErr) {
		t.Errorf("error = %v, want *tree.NonRootPathError", err)
	}
}

func TestApplyRejectsNonManagerTarget(t *testing.T) {
	_, tr := newApplyFixture(t)

	plan := &Plan{Manager: "/testhost", Components: []string{"Probe"}}
	_, err := Apply(context.Background(), tr, plan)
	if err == nil || !strings.Contains(err.Error(), "not a manager") {
		t.Errorf("error = %v, want not a manager", err)
	}
}

func TestApplyRejectsZombieManager(t *testing.T) {
	ctx := context.Background()
	fm, tr := newApplyFixture(t)

	fm.Kill()
	if err := tr.Reparse(ctx); err != nil {
		t.Fatalf("Reparse failed: %v", err)
	}

	plan := &Plan{Manager: "/testhost/manager.mgr", Components: []string{"Probe"}}
	_, err := Apply(ctx, tr, plan)
	if err == nil || !strings.Contains(err.Error(), "zombie") {
		t.Errorf("error = %v, want zombie", err)
	}
}
