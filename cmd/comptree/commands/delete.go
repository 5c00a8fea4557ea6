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

type deleteParams struct {
	cli.TreeConfig
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a component from a manager",
		Description: `Ask a manager to destroy a component instance. The instance name
is the bare name from the component's profile, without the ".rtc"
suffix its tree entry carries.`,
		Usage: "comptree delete [flags] <manager> <instance-name>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Delete a component instance",
				Command:     "comptree delete /fabric01/manager.mgr probe0",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 positional arguments (manager instance-name), got %d", len(args))
			}
			managerPath, instanceName := args[0], args[1]

			tr, cfg, err := params.Build(ctx, logger)
			if err != nil {
				return err
			}
			manager, err := lookupManager(tr, managerPath)
			if err != nil {
				return err
			}

			opCtx, cancel := cli.WithCallTimeout(ctx, cfg)
			defer cancel()
			if err := manager.DeleteComponent(opCtx, instanceName); err != nil {
				return err
			}

			fmt.Printf("deleted %s from %s\n", instanceName, managerPath)
			return nil
		},
	}
}
