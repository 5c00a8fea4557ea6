// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package composition provides parsing, validation, and application of
// composition plans. A plan names a manager in the component tree, the
// shared modules to load into it, and the components to create once
// those modules are available.
//
// Plans are authored on disk as JSONC files (JSON extended with
// comments and trailing commas). The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Plan
//  2. Validate: structural checks (target path, module paths, specs)
//  3. Apply: load modules, then create components, in plan order
package composition

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// Plan is a declarative composition: everything a manager needs to go
// from empty to a running set of components.
type Plan struct {
	// Description is free-form text shown by tooling.
	Description string `json:"description,omitempty"`

	// Manager is the absolute tree path of the target manager, for
	// example "/localhost/manager.mgr". A plan targets exactly one
	// manager.
	Manager string `json:"manager"`

	// Modules are loaded into the manager first, in order.
	Modules []Module `json:"modules,omitempty"`

	// Components are creation specs ("Type" or
	// "Type?instance_name=x&key=value"), created in order after all
	// modules are loaded.
	Components []string `json:"components,omitempty"`
}

// Module identifies a loadable module and its registration entry point.
type Module struct {
	// Path is the module path as the manager resolves it, for example
	// "Probe.so" or "/opt/fabric/modules/probe.so".
	Path string `json:"path"`

	// InitFunc is the init function the manager calls after loading.
	// When empty it is derived from the path: "Probe.so" loads with
	// "ProbeInit".
	InitFunc string `json:"init_func,omitempty"`
}

// Init returns the init function to pass to the manager: InitFunc when
// set, otherwise the conventional "<stem>Init" derived from Path. The
// path is split with remote (slash) semantics, since it names a file
// on the manager's host, not on this machine.
func (m Module) Init() string {
	if m.InitFunc != "" {
		return m.InitFunc
	}
	base := path.Base(m.Path)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + "Init"
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Plan. The input is plain JSON extended
// with // line comments, /* block comments */, and trailing commas.
func Parse(data []byte) (*Plan, error) {
	stripped := jsonc.ToJSON(data)

	var plan Plan
	if err := json.Unmarshal(stripped, &plan); err != nil {
		return nil, fmt.Errorf("parsing composition: %w", err)
	}

	return &plan, nil
}

// ReadFile reads a JSONC composition file from disk and parses it into
// a Plan. Returns a descriptive error if the file cannot be read or
// the JSON is malformed.
func ReadFile(filename string) (*Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	plan, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return plan, nil
}

// NameFromPath extracts a composition name from a file path by
// stripping the directory prefix and the file extension. For example,
// "deploy/compositions/probe-pair.jsonc" returns "probe-pair".
func NameFromPath(filename string) string {
	base := filepath.Base(filename)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}
