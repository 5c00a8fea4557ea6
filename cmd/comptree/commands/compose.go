// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/cmd/comptree/cli"
	"github.com/componentfabric/comptree/lib/composition"
)

type composeParams struct {
	cli.TreeConfig
	Check bool `flag:"check" desc:"validate the plan without applying it"`
}

func composeCommand() *cli.Command {
	var params composeParams

	return &cli.Command{
		Name:    "compose",
		Summary: "Apply a composition plan to a manager",
		Description: `Read a JSONC composition plan, validate it, and apply it: load
every module on the plan's manager, then create every component.
Every step is attempted even when an earlier one fails; the result
table shows what happened to each.

A plan names its manager by tree path and lists modules (with
optional init functions) and component specs.`,
		Usage: "comptree compose [flags] <plan.jsonc>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("compose", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Validate a plan without touching the fabric",
				Command:     "comptree compose --check deploy/probe-pair.jsonc",
			},
			{
				Description: "Apply a plan",
				Command:     "comptree compose deploy/probe-pair.jsonc",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (plan file), got %d", len(args))
			}
			planFile := args[0]

			plan, err := composition.ReadFile(planFile)
			if err != nil {
				return err
			}
			if issues := composition.Validate(plan); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintln(os.Stderr, issue)
				}
				return fmt.Errorf("%s: %d problem(s)", planFile, len(issues))
			}
			if params.Check {
				fmt.Printf("%s: ok\n", planFile)
				return nil
			}

			tr, _, err := params.Build(ctx, logger)
			if err != nil {
				return err
			}

			result, err := composition.Apply(ctx, tr, plan)
			if err != nil {
				return err
			}

			failed := 0
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "STEP\tTARGET\tRESULT\n")
			for _, step := range result.Steps {
				outcome := "ok"
				if step.Err != nil {
					outcome = fmt.Sprintf("failed: %v", step.Err)
					failed++
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", step.Kind, step.Target, outcome)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if failed > 0 {
				fmt.Fprintf(os.Stderr, "compose: %d of %d steps failed\n", failed, len(result.Steps))
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
