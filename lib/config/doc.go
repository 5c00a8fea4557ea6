// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for comptree
// clients.
//
// Configuration is loaded from a single file specified by either the
// COMPTREE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no ~/.config discovery and no
// automatic file search; a client run without a config file gets
// [Default], whose values come from the command line and the
// COMPTREE_NAMESERVERS environment variable instead.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- servers, parse filter, timeouts, watch and
//     snapshot settings
//   - [Default] -- returns a Config with usable defaults
//   - [Load], [LoadFile], and [LoadOrDefault] -- the entry points
//
// This package depends on no other comptree packages.
package config
