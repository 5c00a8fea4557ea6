// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/componentfabric/comptree/lib/config"
	"github.com/componentfabric/comptree/rpc"
	"github.com/componentfabric/comptree/tree"
)

// TreeConfig holds the connection flags shared by every command that
// parses a fabric: which config file to read, which name servers to
// contact, and how long remote calls may take.
//
// Commands embed or include it and register its flags alongside their
// own:
//
//	var conn cli.TreeConfig
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        fs := pflag.NewFlagSet("ls", pflag.ContinueOnError)
//	        conn.AddFlags(fs)
//	        return fs
//	    },
//	    Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
//	        tr, cfg, err := conn.Build(ctx, logger)
//	        ...
//	    },
//	}
type TreeConfig struct {
	ConfigFile string
	Servers    []string
	Timeout    time.Duration
	Filter     []string
}

// AddFlags registers --config, --server, --timeout, and --filter on
// the given flag set. The config file is the baseline; the other
// flags override its values.
func (c *TreeConfig) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.ConfigFile, "config", "", "path to comptree.yaml (default: the file named by $COMPTREE_CONFIG, when set)")
	flagSet.StringSliceVar(&c.Servers, "server", nil, "name server address to parse, \"host:port\" or a full locator (repeatable; overrides the config file)")
	flagSet.DurationVar(&c.Timeout, "timeout", 0, "timeout for remote operations (overrides the config file)")
	flagSet.StringSliceVar(&c.Filter, "filter", nil, "restrict parsing to this path below each server (repeatable; overrides the config file)")
}

// Load resolves the effective client configuration: the --config file
// when given, the COMPTREE_CONFIG file when that variable is set,
// built-in defaults otherwise. Flags set on the command line replace
// the corresponding file values.
func (c *TreeConfig) Load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if c.ConfigFile != "" {
		cfg, err = config.LoadFile(c.ConfigFile)
	} else {
		cfg, err = config.LoadOrDefault()
	}
	if err != nil {
		return nil, err
	}
	if len(c.Servers) > 0 {
		cfg.Servers = c.Servers
	}
	if c.Timeout > 0 {
		cfg.CallTimeout = c.Timeout.String()
	}
	if len(c.Filter) > 0 {
		cfg.Filter = c.Filter
	}
	return cfg, nil
}

// Build loads the configuration and parses the configured name
// servers into a tree. Servers come from --server, then the config
// file, then the COMPTREE_NAMESERVERS environment variable. The
// returned config lets commands apply the call timeout to their own
// operations via WithCallTimeout.
func (c *TreeConfig) Build(ctx context.Context, logger *slog.Logger) (*tree.Tree, *config.Config, error) {
	cfg, err := c.Load()
	if err != nil {
		return nil, nil, err
	}
	tr, err := tree.New(ctx, tree.Config{
		Connector: rpc.NewConnector(logger),
		Logger:    logger,
		Servers:   cfg.Servers,
		Filter:    cfg.FilterPaths(),
	})
	if err != nil {
		return nil, nil, err
	}
	return tr, cfg, nil
}

// WithCallTimeout bounds ctx by the configured call timeout. When no
// timeout is configured the context is returned with a plain cancel.
// Callers must call the returned cancel function.
func WithCallTimeout(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if timeout := cfg.CallTimeoutDuration(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
