// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
)

type snapshotParams struct {
	cli.TreeConfig
	Output string `flag:"output,o" desc:"output file; \".zst\" suffix compresses (default: snapshot.path from the config file, else stdout)"`
}

func snapshotCommand() *cli.Command {
	var params snapshotParams

	return &cli.Command{
		Name:    "snapshot",
		Summary: "Export the tree state to a file",
		Description: `Write a point-in-time YAML view of the parsed tree: names, kinds,
zombie flags, and whatever profile and configuration data the nodes
had cached. Taking the snapshot performs no remote calls beyond the
initial parse.

Output paths ending in ".zst" are zstd-compressed.`,
		Usage: "comptree snapshot [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("snapshot", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Snapshot the configured servers to stdout",
				Command:     "comptree snapshot",
			},
			{
				Description: "Write a compressed snapshot",
				Command:     "comptree snapshot -o fabric.yaml.zst",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			tr, cfg, err := params.Build(ctx, logger)
			if err != nil {
				return err
			}

			output := params.Output
			if output == "" {
				output = cfg.Snapshot.Path
			}

			snapshot := tr.Snapshot()
			if output == "" {
				return snapshot.Encode(os.Stdout)
			}
			if err := snapshot.WriteFile(output); err != nil {
				return err
			}
			fmt.Printf("snapshot written to %s\n", output)
			return nil
		},
	}
}
