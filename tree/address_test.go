// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import "testing"

func TestResolveAddress(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"localhost", "corbaloc::localhost/NameService"},
		{"localhost:2809", "corbaloc::localhost:2809/NameService"},
		{"59.7.0.1", "corbaloc::59.7.0.1/NameService"},
		{"iiop:localhost:2809", "corbaloc:iiop:localhost:2809/NameService"},
		{"ssliop:secure.example.com:2810", "corbaloc:ssliop:secure.example.com:2810/NameService"},
		{"diop:host:1", "corbaloc:diop:host:1/NameService"},
		{"shmiop:seg", "corbaloc:shmiop:seg/NameService"},
		{"htiop:host:80", "corbaloc:htiop:host:80/NameService"},
		{"http://host/path", "http://host/path#NameService"},
		{"https://host/path", "https://host/path#NameService"},
		{"ws://host", "ws://host#NameService"},
		{"wss://host", "wss://host#NameService"},
	}
	for _, test := range tests {
		if got := resolveAddress(test.address); got != test.want {
			t.Errorf("resolveAddress(%q) = %q, want %q", test.address, got, test.want)
		}
	}
}
