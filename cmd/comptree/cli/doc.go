// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the comptree CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/comptree/main.go and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples. Execute installs an interrupt context (SIGINT,
// SIGTERM) and a command logger, both handed to every Run function.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3). This is
// implemented in suggest.go.
//
// Parameter structs bind their fields to flags declaratively via
// struct tags ([FlagsFromParams], [BindFlags]); shared flag groups
// implement [FlagBinder] to register their own flags. [JSONOutput] is
// an embeddable struct giving a command the --json flag and the
// EmitJSON method.
package cli
