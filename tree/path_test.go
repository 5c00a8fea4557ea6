// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"errors"
	"slices"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		want   []string
		suffix string
	}{
		{"absolute", "/localhost/manager.mgr", []string{"/", "localhost", "manager.mgr"}, ""},
		{"relative", "localhost/ConsoleIn0.rtc", []string{"localhost", "ConsoleIn0.rtc"}, ""},
		{"port_suffix", "localhost/in0.rtc:in", []string{"localhost", "in0.rtc"}, "in"},
		{"condensation", "/localhost/a/../b/.", []string{"/", "localhost", "b"}, ""},
		{"root_only", "/", []string{"/"}, ""},
		{"repeated_slashes", "//localhost///x.rtc", []string{"/", "localhost", "x.rtc"}, ""},
		{"trailing_slash", "/localhost/", []string{"/", "localhost"}, ""},
		{"dot_only", ".", []string{"/"}, ""},
		{"reduced_to_nothing", "/localhost/..", []string{"/"}, ""},
		{"address_with_port_mid_path", "/localhost:2809/x.rtc", []string{"/", "localhost:2809", "x.rtc"}, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, suffix, err := ParsePath(test.path)
			if err != nil {
				t.Fatalf("ParsePath(%q) failed: %v", test.path, err)
			}
			if !slices.Equal(got, test.want) {
				t.Errorf("ParsePath(%q) = %v, want %v", test.path, got, test.want)
			}
			if suffix != test.suffix {
				t.Errorf("ParsePath(%q) suffix = %q, want %q", test.path, suffix, test.suffix)
			}
		})
	}
}

func TestParsePathRejectsMalformed(t *testing.T) {
	for _, path := range []string{"", "/localhost/in0.rtc:a:b"} {
		_, _, err := ParsePath(path)
		var bad *BadPathError
		if !errors.As(err, &bad) {
			t.Errorf("ParsePath(%q) error = %v, want *BadPathError", path, err)
		}
	}
}
