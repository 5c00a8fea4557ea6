// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
)

type reparentParams struct {
	cli.TreeConfig
}

func reparentCommand() *cli.Command {
	var params reparentParams

	return &cli.Command{
		Name:    "reparent",
		Summary: "Move a slave manager under a new master",
		Description: `Re-register a slave manager under a different master. The fabric
is updated first (old master drops the slave, the slave swaps
masters, the new master adds the slave); the tree is rewritten only
once every remote step has succeeded. A failure partway leaves the
tree unchanged; reparse to see what the fabric actually holds.`,
		Usage: "comptree reparent [flags] <slave-manager> <master-manager>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("reparent", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Move a slave under another master",
				Command:     "comptree reparent /fabric01/manager.mgr/slave0.mgr /fabric01/other.mgr",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 positional arguments (slave-manager master-manager), got %d", len(args))
			}
			slavePath, masterPath := args[0], args[1]

			tr, cfg, err := params.Build(ctx, logger)
			if err != nil {
				return err
			}
			slave, err := lookupManager(tr, slavePath)
			if err != nil {
				return err
			}
			master, err := lookupManager(tr, masterPath)
			if err != nil {
				return err
			}

			opCtx, cancel := cli.WithCallTimeout(ctx, cfg)
			defer cancel()
			if err := slave.SetParent(opCtx, master); err != nil {
				return err
			}

			fmt.Printf("reparented %s under %s\n", slave.Name(), masterPath)
			return nil
		},
	}
}
