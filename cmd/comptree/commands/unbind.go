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

type unbindParams struct {
	cli.TreeConfig
}

func unbindCommand() *cli.Command {
	var params unbindParams

	return &cli.Command{
		Name:    "unbind",
		Summary: "Remove a binding from its naming context",
		Description: `Remove an entry from the naming context that holds it, and drop
the matching tree node. The object itself is untouched; unbinding a
zombie entry is the usual way to clean a stale registration out of
a name server.`,
		Usage: "comptree unbind [flags] <path>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("unbind", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Remove a stale component registration",
				Command:     "comptree unbind /fabric01/probe0.rtc",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (path), got %d", len(args))
			}

			tr, cfg, err := params.Build(ctx, logger)
			if err != nil {
				return err
			}
			node, err := lookupNode(tr, args[0])
			if err != nil {
				return err
			}

			parent, ok := node.Parent().(interface {
				Unbind(ctx context.Context, name string) error
			})
			if !ok {
				return fmt.Errorf("%q is not held by a naming context", args[0])
			}

			opCtx, cancel := cli.WithCallTimeout(ctx, cfg)
			defer cancel()
			if err := parent.Unbind(opCtx, node.Name()); err != nil {
				return err
			}

			fmt.Printf("unbound %s\n", args[0])
			return nil
		},
	}
}
