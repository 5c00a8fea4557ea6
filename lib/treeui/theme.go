// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package treeui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/componentfabric/comptree/tree"
)

// Theme defines the color palette for the watch view. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Node kinds.
	NameServerText lipgloss.Color
	DirectoryText  lipgloss.Color
	ManagerText    lipgloss.Color
	ComponentText  lipgloss.Color
	UnknownText    lipgloss.Color

	// Zombie entries, whatever their kind.
	ZombieText lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	HelpText         lipgloss.Color
	ErrorText        lipgloss.Color
}

// KindColor returns the text color for a node kind.
func (theme Theme) KindColor(kind tree.Kind) lipgloss.Color {
	switch kind {
	case tree.KindNameServer:
		return theme.NameServerText
	case tree.KindDirectory:
		return theme.DirectoryText
	case tree.KindManager:
		return theme.ManagerText
	case tree.KindComponent:
		return theme.ComponentText
	case tree.KindUnknown:
		return theme.UnknownText
	default:
		return theme.NormalText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	NameServerText: lipgloss.Color("141"), // light purple
	DirectoryText:  lipgloss.Color("75"),  // blue
	ManagerText:    lipgloss.Color("220"), // yellow/amber
	ComponentText:  lipgloss.Color("114"), // green
	UnknownText:    lipgloss.Color("245"), // gray

	ZombieText: lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	HelpText:         lipgloss.Color("241"),
	ErrorText:        lipgloss.Color("196"),
}
