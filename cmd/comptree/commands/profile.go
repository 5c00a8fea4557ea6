// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
	"github.com/componentfabric/comptree/tree"
)

type profileParams struct {
	cli.TreeConfig
	cli.JSONOutput
}

func profileCommand() *cli.Command {
	var params profileParams

	return &cli.Command{
		Name:    "profile",
		Summary: "Show the identity profile of a node",
		Description: `Show what a node says about itself. Components report the profile
fetched at parse time (instance name, type, vendor, version, extra
properties); managers fetch their profile from the fabric; name
servers report their address and connection string.`,
		Usage: "comptree profile [flags] <path>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("profile", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Show a component's profile",
				Command:     "comptree profile /fabric01/probe0.rtc",
			},
			{
				Description: "Show a manager's profile as JSON",
				Command:     "comptree profile --json /fabric01/manager.mgr",
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

			switch target := node.(type) {
			case *tree.Component:
				if target.IsZombie() {
					return fmt.Errorf("component %q is a zombie (its remote object is gone)", args[0])
				}
				profile := target.Profile()
				if params.OutputJSON {
					return cli.WriteJSON(profile)
				}
				rows := map[string]string{
					"instance_name": profile.InstanceName,
					"type_name":     profile.TypeName,
					"description":   profile.Description,
					"vendor":        profile.Vendor,
					"category":      profile.Category,
					"version":       profile.Version,
				}
				for _, property := range profile.Properties {
					rows[property.Name] = property.Value
				}
				return printRows(rows)

			case *tree.Manager:
				if target.IsZombie() {
					return fmt.Errorf("manager %q is a zombie (its remote object is gone)", args[0])
				}
				opCtx, cancel := cli.WithCallTimeout(ctx, cfg)
				defer cancel()
				profile, err := target.Profile(opCtx)
				if err != nil {
					return err
				}
				if params.OutputJSON {
					return cli.WriteJSON(profile)
				}
				return printRows(profile)

			case *tree.NameServer:
				rows := map[string]string{
					"address":           target.Address(),
					"connection_string": target.ConnectionString(),
				}
				if params.OutputJSON {
					return cli.WriteJSON(rows)
				}
				return printRows(rows)

			default:
				return fmt.Errorf("%q is a %s; only components, managers, and name servers have profiles", args[0], node.Kind())
			}
		},
	}
}

// printRows writes a NAME/VALUE table sorted by name, skipping empty
// values.
func printRows(rows map[string]string) error {
	names := make([]string, 0, len(rows))
	for name, value := range rows {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "NAME\tVALUE\n")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, rows[name])
	}
	return tw.Flush()
}
