// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ddddddO/gtree"
	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
	"github.com/componentfabric/comptree/tree"
)

type printParams struct {
	cli.TreeConfig
}

func printCommand() *cli.Command {
	var params printParams

	return &cli.Command{
		Name:    "print",
		Summary: "Draw the tree below a path",
		Description: `Draw the fabric tree below a path with branch characters, one
node per line. Components show their type in parentheses; zombie
entries are marked.

Without a path, draws the whole tree from the root.`,
		Usage: "comptree print [flags] [path]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("print", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Draw everything the configured servers expose",
				Command:     "comptree print",
			},
			{
				Description: "Draw one manager's subtree",
				Command:     "comptree print /fabric01/manager.mgr",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most 1 positional argument (path), got %d", len(args))
			}
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}

			tr, _, err := params.Build(ctx, logger)
			if err != nil {
				return err
			}
			node, err := lookupNode(tr, path)
			if err != nil {
				return err
			}

			root := gtree.NewRoot(nodeLabel(node))
			addBranches(root, node)
			return gtree.OutputProgrammably(os.Stdout, root)
		},
	}
}

func addBranches(branch *gtree.Node, n tree.Node) {
	for _, child := range n.Children() {
		addBranches(branch.Add(nodeLabel(child)), child)
	}
}

// nodeLabel renders a node for tree output: its name, the component
// type when known, and a zombie marker.
func nodeLabel(n tree.Node) string {
	label := n.Name()
	if component, ok := n.(*tree.Component); ok && !component.IsZombie() {
		if typeName := component.TypeName(); typeName != "" {
			label += " (" + typeName + ")"
		}
	}
	if n.IsZombie() {
		label += " [zombie]"
	}
	return label
}
