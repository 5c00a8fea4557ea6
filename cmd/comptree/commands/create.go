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

type createParams struct {
	cli.TreeConfig
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create a component on a manager",
		Description: `Ask a manager to instantiate a component. The spec names the
factory type, optionally followed by "?key=value" options joined
with "&" ("instance_name" picks the instance name; the manager
auto-names otherwise).

The new component appears in the tree immediately; the command
lists the manager's components afterwards.`,
		Usage: "comptree create [flags] <manager> <spec>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("create", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Create an auto-named component",
				Command:     "comptree create /fabric01/manager.mgr Probe",
			},
			{
				Description: "Create a named component",
				Command:     "comptree create /fabric01/manager.mgr 'Probe?instance_name=probe0'",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 positional arguments (manager spec), got %d", len(args))
			}
			managerPath, spec := args[0], args[1]

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
			if err := manager.CreateComponent(opCtx, spec); err != nil {
				return err
			}

			for _, component := range manager.Components() {
				fmt.Println(component.PathString())
			}
			return nil
		},
	}
}
