// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package treeui implements the live watch view: a terminal UI that
// renders a fabric tree and reparses it on a fixed interval, so
// components appearing, dying, and turning zombie show up as they
// happen.
//
// The entry point is [Run], which owns the bubbletea program for the
// lifetime of the watch. Navigation is vim-style; subtrees collapse
// and expand per node; a manual reparse can be triggered between
// ticks.
package treeui
