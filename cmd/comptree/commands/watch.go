// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
	"github.com/componentfabric/comptree/lib/treeui"
)

func watchCommand() *cli.Command {
	params := struct {
		cli.TreeConfig
		Interval time.Duration `flag:"interval" desc:"Reparse interval (overrides the config file)"`
	}{}

	return &cli.Command{
		Name:    "watch",
		Summary: "Follow the fabric in a live terminal view",
		Description: `Watch renders the tree in a full-screen terminal view and reparses
it on a fixed interval, so components appearing, dying, and moving
show up as they happen. Zombie entries are highlighted; press z to
hide them, h/l to fold and unfold branches, and q to quit.`,
		Usage: "comptree watch [path] [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("watch", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most 1 positional argument (path), got %d", len(args))
			}
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}

			tr, cfg, err := params.Build(ctx, logger)
			if err != nil {
				return err
			}

			interval := cfg.WatchInterval()
			if params.Interval > 0 {
				interval = params.Interval
			}

			return treeui.Run(ctx, treeui.Config{
				Tree:     tr,
				Path:     path,
				Interval: interval,
				Logger:   logger,
			})
		},
	}
}
