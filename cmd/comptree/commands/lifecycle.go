// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
	"github.com/componentfabric/comptree/tree"
)

func lifecycleCommand() *cli.Command {
	return &cli.Command{
		Name:    "lifecycle",
		Summary: "Fork, shut down, or restart a manager",
		Description: `Drive a manager's own lifecycle. Shutting down or restarting a
manager takes its components with it; the tree marks the entries
as zombies on the next reparse.`,
		Subcommands: []*cli.Command{
			lifecycleActionCommand("fork", "Fork a manager process",
				func(ctx context.Context, m *tree.Manager) error { return m.Fork(ctx) }),
			lifecycleActionCommand("shutdown", "Shut a manager down",
				func(ctx context.Context, m *tree.Manager) error { return m.Shutdown(ctx) }),
			lifecycleActionCommand("restart", "Restart a manager",
				func(ctx context.Context, m *tree.Manager) error { return m.Restart(ctx) }),
		},
	}
}

// lifecycleActionCommand builds one lifecycle subcommand; the three
// differ only in the manager method they invoke.
func lifecycleActionCommand(name, summary string, action func(context.Context, *tree.Manager) error) *cli.Command {
	var params struct {
		cli.TreeConfig
	}

	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   fmt.Sprintf("comptree lifecycle %s [flags] <manager>", name),
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams(name, &params)
		},
		Examples: []cli.Example{
			{
				Description: summary,
				Command:     fmt.Sprintf("comptree lifecycle %s /fabric01/manager.mgr", name),
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (manager), got %d", len(args))
			}

			tr, cfg, err := params.Build(ctx, logger)
			if err != nil {
				return err
			}
			manager, err := lookupManager(tr, args[0])
			if err != nil {
				return err
			}

			opCtx, cancel := cli.WithCallTimeout(ctx, cfg)
			defer cancel()
			if err := action(opCtx, manager); err != nil {
				return err
			}

			fmt.Printf("%s: %s\n", name, args[0])
			return nil
		},
	}
}
