// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package composition

import (
	"fmt"
	"regexp"
	"strings"
)

// initFuncPattern matches valid init function names: a C identifier,
// since the manager resolves the name as a symbol in the loaded
// module. Anchored to the full string.
var initFuncPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a Plan for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the plan is
// valid.
//
// Structural checks include:
//   - Manager is required and must be an absolute tree path
//   - At least one module or component is required
//   - Each module must have a non-empty path
//   - Module paths must be unique across the plan
//   - Init functions (explicit or derived) must be valid identifiers
//   - Each component spec must name a factory type
//   - Explicit instance names must be unique across the plan
func Validate(plan *Plan) []string {
	var issues []string

	switch {
	case plan.Manager == "":
		issues = append(issues, "manager is required (absolute tree path of the target manager)")
	case !strings.HasPrefix(plan.Manager, "/"):
		issues = append(issues, fmt.Sprintf("manager %q: path must be absolute", plan.Manager))
	}

	if len(plan.Modules) == 0 && len(plan.Components) == 0 {
		issues = append(issues, "plan has no modules or components (nothing to apply)")
	}

	// Module paths must be unique. Managers reject a second load of
	// the same path, so the duplicate entry could never succeed.
	modulePaths := make(map[string]int, len(plan.Modules))
	for index, module := range plan.Modules {
		prefix := fmt.Sprintf("modules[%d]", index)

		if module.Path == "" {
			issues = append(issues, fmt.Sprintf("%s: path is required", prefix))
			continue
		}
		prefix = fmt.Sprintf("%s %q", prefix, module.Path)

		if firstIndex, exists := modulePaths[module.Path]; exists {
			issues = append(issues, fmt.Sprintf(
				"%s: duplicate module path (first used at modules[%d])",
				prefix, firstIndex,
			))
		} else {
			modulePaths[module.Path] = index
		}

		if module.InitFunc != "" {
			if !initFuncPattern.MatchString(module.InitFunc) {
				issues = append(issues, fmt.Sprintf(
					"%s: init_func %q must be a valid identifier ([A-Za-z_][A-Za-z0-9_]*)",
					prefix, module.InitFunc,
				))
			}
		} else if derived := module.Init(); !initFuncPattern.MatchString(derived) {
			issues = append(issues, fmt.Sprintf(
				"%s: derived init function %q is not a valid identifier (set init_func explicitly)",
				prefix, derived,
			))
		}
	}

	// Explicit instance names must be unique. Sibling names are unique
	// in the tree, so the second create would collide on the manager.
	instanceNames := make(map[string]int, len(plan.Components))
	for index, spec := range plan.Components {
		prefix := fmt.Sprintf("components[%d]", index)

		if spec == "" {
			issues = append(issues, fmt.Sprintf("%s: spec is required", prefix))
			continue
		}
		prefix = fmt.Sprintf("%s %q", prefix, spec)

		typeName, options := splitSpec(spec)
		if typeName == "" {
			issues = append(issues, fmt.Sprintf("%s: factory type name is required before the options", prefix))
		}

		if name := options["instance_name"]; name != "" {
			if firstIndex, exists := instanceNames[name]; exists {
				issues = append(issues, fmt.Sprintf(
					"%s: duplicate instance name %q (first used at components[%d])",
					prefix, name, firstIndex,
				))
			} else {
				instanceNames[name] = index
			}
		}
	}

	return issues
}

// splitSpec separates a creation spec "type?k=v&k2=v2" into the type
// name and its options. The grammar matches what managers accept;
// components without an explicit instance_name are auto-named by the
// manager, so repeating a bare type is legal.
func splitSpec(spec string) (string, map[string]string) {
	typeName, rawOptions, found := strings.Cut(spec, "?")
	options := make(map[string]string)
	if !found {
		return typeName, options
	}
	for _, pair := range strings.Split(rawOptions, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		options[key] = value
	}
	return typeName, options
}
