// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package composition

import (
	"context"
	"errors"
	"fmt"

	"github.com/componentfabric/comptree/tree"
)

// StepKind identifies what a composition step did.
type StepKind string

const (
	// StepLoadModule is a module load step.
	StepLoadModule StepKind = "load-module"

	// StepCreateComponent is a component creation step.
	StepCreateComponent StepKind = "create-component"
)

// StepResult records the outcome of one composition step.
type StepResult struct {
	// Kind says whether the step loaded a module or created a
	// component.
	Kind StepKind

	// Target is the module path or the creation spec.
	Target string

	// Err is nil when the step succeeded.
	Err error
}

// Result holds the per-step outcomes of applying a plan.
type Result struct {
	// Manager is the tree path of the manager the plan was applied to.
	Manager string

	// Steps lists every attempted step in execution order: all module
	// loads first, then all component creations.
	Steps []StepResult
}

// Err returns the joined errors of all failed steps, or nil when every
// step succeeded.
func (r *Result) Err() error {
	var errs []error
	for _, step := range r.Steps {
		if step.Err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", step.Kind, step.Target, step.Err))
		}
	}
	return errors.Join(errs...)
}

// Apply runs a plan against the tree: the target manager is resolved,
// the plan's modules are loaded in order, then its components are
// created in order. Every step is attempted even when an earlier one
// failed, so a single run reports everything that needs fixing; the
// outcome of each step is recorded in the returned Result.
//
// Apply returns a non-nil error only when the target manager cannot be
// used at all: its path is relative, absent from the tree, names a
// node of another kind, or the manager is a zombie. In those cases the
// Result is nil and no step ran. Validate the plan before applying it.
func Apply(ctx context.Context, t *tree.Tree, plan *Plan) (*Result, error) {
	node, err := t.Lookup(plan.Manager)
	if err != nil {
		return nil, fmt.Errorf("resolving manager %q: %w", plan.Manager, err)
	}
	if node == nil {
		return nil, fmt.Errorf("manager %q not found in tree", plan.Manager)
	}
	manager, ok := node.(*tree.Manager)
	if !ok {
		return nil, fmt.Errorf("%q is a %s, not a manager", plan.Manager, node.Kind())
	}
	if manager.IsZombie() {
		return nil, fmt.Errorf("manager %q is a zombie (its remote object is gone)", plan.Manager)
	}

	result := &Result{
		Manager: plan.Manager,
		Steps:   make([]StepResult, 0, len(plan.Modules)+len(plan.Components)),
	}

	for _, module := range plan.Modules {
		result.Steps = append(result.Steps, StepResult{
			Kind:   StepLoadModule,
			Target: module.Path,
			Err:    manager.LoadModule(ctx, module.Path, module.Init()),
		})
	}

	for _, spec := range plan.Components {
		result.Steps = append(result.Steps, StepResult{
			Kind:   StepCreateComponent,
			Target: spec,
			Err:    manager.CreateComponent(ctx, spec),
		})
	}

	return result, nil
}
