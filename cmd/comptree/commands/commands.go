// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete comptree CLI command tree.
// Every subcommand connects to the fabric the same way: it parses a
// tree from the configured name servers, resolves its positional
// arguments to nodes, and talks to the remote objects behind them.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
	"github.com/componentfabric/comptree/lib/version"
)

// Root builds and returns the complete comptree CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "comptree",
		Description: `Comptree: navigate a component fabric as a live tree.

Parse name servers into a browsable tree of directories, managers,
and components, then inspect, configure, and rearrange them from
the command line.`,
		Subcommands: []*cli.Command{
			lsCommand(),
			printCommand(),
			watchCommand(),
			profileCommand(),
			createCommand(),
			deleteCommand(),
			moduleCommand(),
			configCommand(),
			lifecycleCommand(),
			reparentCommand(),
			unbindCommand(),
			snapshotCommand(),
			composeCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("comptree %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Draw the tree below a name server",
				Command:     "comptree print /fabric01",
			},
			{
				Description: "List a directory with kind and state columns",
				Command:     "comptree ls /fabric01 --long",
			},
			{
				Description: "Follow the fabric in a live terminal view",
				Command:     "comptree watch /fabric01",
			},
			{
				Description: "Show a component's profile",
				Command:     "comptree profile /fabric01/probe0.rtc",
			},
			{
				Description: "Create a component from a loaded factory",
				Command:     "comptree create /fabric01/manager.mgr Probe",
			},
			{
				Description: "Load a shared module into a manager",
				Command:     "comptree module load /fabric01/manager.mgr /opt/fabric/lib/probe.so",
			},
			{
				Description: "Change a manager configuration parameter",
				Command:     "comptree config set /fabric01/manager.mgr logger.log_level DEBUG",
			},
			{
				Description: "Snapshot the tree to a compressed file",
				Command:     "comptree snapshot --output fabric.snap.zst",
			},
			{
				Description: "Stand up a composition from a plan file",
				Command:     "comptree compose plans/bench.jsonc",
			},
		},
	}
}
