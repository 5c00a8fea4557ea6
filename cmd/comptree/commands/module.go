// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
	"github.com/componentfabric/comptree/lib/composition"
)

func moduleCommand() *cli.Command {
	return &cli.Command{
		Name:    "module",
		Summary: "Load, unload, and list manager modules",
		Description: `Manage the shared-object modules a manager can instantiate
components from. Loading a module registers its factories; listing
shows what is loaded and what the manager could load.`,
		Subcommands: []*cli.Command{
			moduleLoadCommand(),
			moduleUnloadCommand(),
			moduleListCommand(),
		},
	}
}

type moduleLoadParams struct {
	cli.TreeConfig
	Init string `flag:"init" desc:"initialization function exported by the module (default: the module stem with an Init suffix)"`
}

func moduleLoadCommand() *cli.Command {
	var params moduleLoadParams

	return &cli.Command{
		Name:    "load",
		Summary: "Load a module into a manager",
		Usage:   "comptree module load [flags] <manager> <module-path>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("load", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Load a module, deriving the init function (ProbeInit)",
				Command:     "comptree module load /fabric01/manager.mgr Probe.so",
			},
			{
				Description: "Load a module with an explicit init function",
				Command:     "comptree module load /fabric01/manager.mgr sensor.so --init SensorEntry",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 positional arguments (manager module-path), got %d", len(args))
			}
			managerPath, modulePath := args[0], args[1]

			initFunc := params.Init
			if initFunc == "" {
				initFunc = composition.Module{Path: modulePath}.Init()
			}

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
			if err := manager.LoadModule(opCtx, modulePath, initFunc); err != nil {
				return err
			}

			fmt.Printf("loaded %s (%s) into %s\n", modulePath, initFunc, managerPath)
			return nil
		},
	}
}

type moduleUnloadParams struct {
	cli.TreeConfig
}

func moduleUnloadCommand() *cli.Command {
	var params moduleUnloadParams

	return &cli.Command{
		Name:    "unload",
		Summary: "Unload a module from a manager",
		Usage:   "comptree module unload [flags] <manager> <module-path>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("unload", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 positional arguments (manager module-path), got %d", len(args))
			}
			managerPath, modulePath := args[0], args[1]

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
			if err := manager.UnloadModule(opCtx, modulePath); err != nil {
				return err
			}

			fmt.Printf("unloaded %s from %s\n", modulePath, managerPath)
			return nil
		},
	}
}

// moduleListing is the JSON shape of module list output.
type moduleListing struct {
	Loaded    []map[string]string `json:"loaded"`
	Loadable  []map[string]string `json:"loadable"`
	Factories []map[string]string `json:"factories,omitempty"`
}

type moduleListParams struct {
	cli.TreeConfig
	Factories bool `flag:"factories" desc:"also list the manager's component factories"`
	cli.JSONOutput
}

func moduleListCommand() *cli.Command {
	var params moduleListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List a manager's loaded and loadable modules",
		Usage:   "comptree module list [flags] <manager>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Show modules and factories as JSON",
				Command:     "comptree module list --factories --json /fabric01/manager.mgr",
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
			listing := moduleListing{}
			if listing.Loaded, err = manager.LoadedModules(opCtx); err != nil {
				return err
			}
			if listing.Loadable, err = manager.LoadableModules(opCtx); err != nil {
				return err
			}
			if params.Factories {
				if listing.Factories, err = manager.FactoryProfiles(opCtx); err != nil {
					return err
				}
			}

			if params.OutputJSON {
				return cli.WriteJSON(listing)
			}

			printSection("LOADED", listing.Loaded, "file_path")
			printSection("LOADABLE", listing.Loadable, "module_file_path")
			if params.Factories {
				printSection("FACTORIES", listing.Factories, "implementation_id")
			}
			return nil
		},
	}
}

// printSection prints one module list section: the value under key
// for each entry when present, the whole entry otherwise.
func printSection(title string, entries []map[string]string, key string) {
	fmt.Printf("%s (%d)\n", title, len(entries))
	for _, entry := range entries {
		if value, ok := entry[key]; ok && value != "" {
			fmt.Printf("  %s\n", value)
			continue
		}
		pairs := make([]string, 0, len(entry))
		for name, value := range entry {
			pairs = append(pairs, name+"="+value)
		}
		sort.Strings(pairs)
		fmt.Printf("  %s\n", strings.Join(pairs, " "))
	}
}
