// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
	"github.com/componentfabric/comptree/tree"
)

// lsEntry is one row of ls output.
type lsEntry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Zombie bool   `json:"zombie"`
	Type   string `json:"type,omitempty"`
}

type lsParams struct {
	cli.TreeConfig
	Long      bool `flag:"long,l" desc:"long listing: kind, state, and component type"`
	Recursive bool `flag:"recursive,r" desc:"list the whole subtree below the path"`
	cli.JSONOutput
}

func lsCommand() *cli.Command {
	var params lsParams

	return &cli.Command{
		Name:    "ls",
		Summary: "List tree entries",
		Description: `List the entries below a path in the fabric tree. Directories,
name servers, and managers are marked with a trailing "/"; zombie
entries are marked with "!".

Without a path, lists the configured name servers.`,
		Usage: "comptree ls [flags] [path]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("ls", &params)
		},
		Examples: []cli.Example{
			{
				Description: "List the name servers in the tree",
				Command:     "comptree ls --server localhost:2809",
			},
			{
				Description: "Long listing of a manager's components",
				Command:     "comptree ls -l /fabric01/manager.mgr",
			},
			{
				Description: "Everything below a name server, as JSON",
				Command:     "comptree ls -r --json /fabric01",
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

			var entries []lsEntry
			if params.Recursive {
				err := node.Iterate(func(n tree.Node) error {
					if n == node {
						return nil
					}
					entries = append(entries, entryFor(n))
					return nil
				})
				if err != nil {
					return err
				}
			} else if node.IsDirectory() {
				for _, child := range node.Children() {
					entries = append(entries, entryFor(child))
				}
			} else {
				entries = append(entries, entryFor(node))
			}

			if params.OutputJSON {
				return cli.WriteJSON(entries)
			}
			if params.Long {
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintf(tw, "NAME\tKIND\tSTATE\tTYPE\n")
				for _, entry := range entries {
					name := entry.Name
					if params.Recursive {
						name = entry.Path
					}
					state := "live"
					if entry.Zombie {
						state = "zombie"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, entry.Kind, state, entry.Type)
				}
				return tw.Flush()
			}
			for _, entry := range entries {
				name := entry.Name
				if params.Recursive {
					name = entry.Path
				}
				fmt.Println(name + entrySuffix(entry))
			}
			return nil
		},
	}
}

// entryFor builds an ls row from a node without any remote calls.
func entryFor(n tree.Node) lsEntry {
	entry := lsEntry{
		Name:   n.Name(),
		Path:   n.PathString(),
		Kind:   n.Kind().String(),
		Zombie: n.IsZombie(),
	}
	if component, ok := n.(*tree.Component); ok && !component.IsZombie() {
		entry.Type = component.TypeName()
	}
	return entry
}

func entrySuffix(entry lsEntry) string {
	suffix := ""
	if entry.Kind != "component" && entry.Kind != "unknown" {
		suffix = "/"
	}
	if entry.Zombie {
		suffix += "!"
	}
	return suffix
}
