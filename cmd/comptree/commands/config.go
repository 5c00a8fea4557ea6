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

func configCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Read and write manager configuration parameters",
		Description: `Read a manager's configuration, or set one parameter. The manager
caches its configuration in the tree; setting a parameter
invalidates the cache so the next read refetches.`,
		Subcommands: []*cli.Command{
			configGetCommand(),
			configSetCommand(),
		},
	}
}

type configGetParams struct {
	cli.TreeConfig
	cli.JSONOutput
}

func configGetCommand() *cli.Command {
	var params configGetParams

	return &cli.Command{
		Name:    "get",
		Summary: "Show a manager's configuration",
		Usage:   "comptree config get [flags] <manager> [name]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("get", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Show all configuration parameters",
				Command:     "comptree config get /fabric01/manager.mgr",
			},
			{
				Description: "Show one parameter's value",
				Command:     "comptree config get /fabric01/manager.mgr os.release",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("expected 1-2 positional arguments (manager [name]), got %d", len(args))
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
			configuration, err := manager.Configuration(opCtx)
			if err != nil {
				return err
			}

			if len(args) == 2 {
				value, ok := configuration[args[1]]
				if !ok {
					return fmt.Errorf("manager %q has no configuration parameter %q", args[0], args[1])
				}
				if params.OutputJSON {
					return cli.WriteJSON(map[string]string{args[1]: value})
				}
				fmt.Println(value)
				return nil
			}

			if params.OutputJSON {
				return cli.WriteJSON(configuration)
			}
			return printRows(configuration)
		},
	}
}

type configSetParams struct {
	cli.TreeConfig
}

func configSetCommand() *cli.Command {
	var params configSetParams

	return &cli.Command{
		Name:    "set",
		Summary: "Set one manager configuration parameter",
		Usage:   "comptree config set [flags] <manager> <name> <value>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("set", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Set a configuration parameter",
				Command:     "comptree config set /fabric01/manager.mgr log.level DEBUG",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 3 {
				return fmt.Errorf("expected 3 positional arguments (manager name value), got %d", len(args))
			}
			managerPath, name, value := args[0], args[1], args[2]

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
			if err := manager.SetConfigParameter(opCtx, name, value); err != nil {
				return err
			}

			fmt.Printf("set %s=%s on %s\n", name, value, managerPath)
			return nil
		},
	}
}
