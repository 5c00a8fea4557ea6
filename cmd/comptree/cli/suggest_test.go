// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "acb", 2},
		{"snapshot", "snapsot", 1},
		{"compose", "compsoe", 2},
		{"reparent", "reparnet", 2},
		{"watch", "wach", 1},
		{"ls", "list", 2},
	}

	for _, test := range tests {
		got := levenshtein(test.a, test.b)
		if got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestLevenshteinSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"snapshot", "snap"},
		{"module", "mod"},
		{"unbind", "unbound"},
	}

	for _, pair := range pairs {
		forward := levenshtein(pair[0], pair[1])
		backward := levenshtein(pair[1], pair[0])
		if forward != backward {
			t.Errorf("levenshtein(%q, %q) = %d but reversed = %d",
				pair[0], pair[1], forward, backward)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	command := &Command{
		Name: "comptree",
		Subcommands: []*Command{
			{Name: "ls"},
			{Name: "snapshot"},
			{Name: "compose"},
			{Name: "reparent"},
			{Name: "watch"},
		},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"snapsot", "snapshot"},
		{"compsoe", "compose"},
		{"wach", "watch"},
		{"reparnet", "reparent"},
		{"zzzzzzzzz", ""},
		{"", ""},
	}

	for _, test := range tests {
		got := suggestCommand(test.input, command.Subcommands)
		if got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.Bool("compress", false, "")
	flagSet.String("output", "", "")
	flagSet.String("server", "", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "close misspelling",
			args: []string{"--comprses"},
			want: "--compress",
		},
		{
			name: "misspelling with value",
			args: []string{"--outptu=tree.yaml"},
			want: "--output",
		},
		{
			name: "defined flag is not suggested",
			args: []string{"--compress"},
			want: "",
		},
		{
			name: "distant input",
			args: []string{"--zzzzzzzzz"},
			want: "",
		},
		{
			name: "non-flag arguments skipped",
			args: []string{"/fabric01", "--servr"},
			want: "--server",
		},
		{
			name: "no arguments",
			args: nil,
			want: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := suggestFlag(test.args, flagSet)
			if got != test.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
