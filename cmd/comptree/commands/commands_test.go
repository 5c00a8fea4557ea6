// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"
	"testing"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
)

// walkCommands recursively visits every command in the tree,
// calling visit for each node with the accumulated command path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = command.Name
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}

// TestCommandTreeIntegrity walks the full production command tree and
// validates the invariants help rendering and dispatch rely on: every
// command is named, every non-root command has a summary for the
// command table, and every node either runs or fans out.
func TestCommandTreeIntegrity(t *testing.T) {
	root := Root()
	walkCommands(root, nil, func(command *cli.Command, path []string) {
		name := strings.Join(path, " ")
		if command.Name == "" {
			t.Errorf("%s: command with empty name", name)
		}
		if command != root && command.Summary == "" {
			t.Errorf("%s: command missing a summary", name)
		}
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("%s: command has neither Run nor subcommands", name)
		}

		seen := make(map[string]bool)
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", name, sub.Name)
			}
			seen[sub.Name] = true
		}
	})
}

func TestCommandUsageStrings(t *testing.T) {
	walkCommands(Root(), nil, func(command *cli.Command, path []string) {
		if command.Usage == "" {
			return
		}
		if !strings.HasPrefix(command.Usage, "comptree") {
			t.Errorf("%s: usage %q does not start with the binary name",
				strings.Join(path, " "), command.Usage)
		}
	})
}

func TestCommandFlagConstructors(t *testing.T) {
	walkCommands(Root(), nil, func(command *cli.Command, path []string) {
		if command.Flags == nil {
			return
		}
		// Flags is invoked on every Execute; it must be safe to call
		// repeatedly.
		if command.Flags() == nil || command.Flags() == nil {
			t.Errorf("%s: Flags() returned nil", strings.Join(path, " "))
		}
	})
}

func TestRootExamples(t *testing.T) {
	root := Root()
	if len(root.Examples) == 0 {
		t.Fatal("root command should carry usage examples")
	}
	for _, example := range root.Examples {
		if !strings.HasPrefix(example.Command, "comptree ") {
			t.Errorf("example %q does not start with the binary name", example.Command)
		}
		if example.Description == "" {
			t.Errorf("example %q has no description", example.Command)
		}
	}
}
