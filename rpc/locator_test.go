// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import "testing"

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		want    Locator
	}{
		{
			name:    "tcp_full",
			locator: "corbaloc:iiop:testhost:2809/NameService",
			want:    Locator{Network: "tcp", Address: "testhost:2809", Key: "NameService"},
		},
		{
			name:    "tcp_empty_protocol",
			locator: "corbaloc::testhost:9999/NameService",
			want:    Locator{Network: "tcp", Address: "testhost:9999", Key: "NameService"},
		},
		{
			name:    "tcp_default_port",
			locator: "corbaloc::testhost/NameService",
			want:    Locator{Network: "tcp", Address: "testhost:2809", Key: "NameService"},
		},
		{
			name:    "ssliop",
			locator: "corbaloc:ssliop:secure:2810/NameService",
			want:    Locator{Network: "tcp", Address: "secure:2810", Key: "NameService"},
		},
		{
			name:    "ipv4",
			locator: "corbaloc:iiop:192.168.0.1:2809/NameService",
			want:    Locator{Network: "tcp", Address: "192.168.0.1:2809", Key: "NameService"},
		},
		{
			name:    "generated_key",
			locator: "corbaloc:iiop:testhost:2809/mgr7",
			want:    Locator{Network: "tcp", Address: "testhost:2809", Key: "mgr7"},
		},
		{
			name:    "unix_absolute",
			locator: "corbaloc::unix:/run/comptree/fabric.sock/NameService",
			want:    Locator{Network: "unix", Address: "/run/comptree/fabric.sock", Key: "NameService"},
		},
		{
			name:    "unix_relative",
			locator: "corbaloc::unix:fabric.sock/root",
			want:    Locator{Network: "unix", Address: "fabric.sock", Key: "root"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocator(tt.locator)
			if err != nil {
				t.Fatalf("ParseLocator(%q) failed: %v", tt.locator, err)
			}
			if got != tt.want {
				t.Errorf("ParseLocator(%q) = %+v, want %+v", tt.locator, got, tt.want)
			}
		})
	}
}

func TestParseLocatorRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		locator string
	}{
		{"not_corbaloc", "http://testhost/NameService"},
		{"empty", ""},
		{"unsupported_protocol", "corbaloc:rir:/NameService"},
		{"missing_key", "corbaloc:iiop:testhost:2809"},
		{"empty_key", "corbaloc:iiop:testhost:2809/"},
		{"missing_protocol_separator", "corbaloc:testhost/NameService"},
		{"empty_host", "corbaloc::/NameService"},
		{"empty_port", "corbaloc:iiop:testhost:/NameService"},
		{"unix_trailing_slash", "corbaloc::unix:/run/fabric.sock/"},
		{"unix_empty_path", "corbaloc::unix:/NameService"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := ParseLocator(tt.locator); err == nil {
				t.Errorf("ParseLocator(%q) = %+v, want error", tt.locator, got)
			}
		})
	}
}

func TestLocatorString(t *testing.T) {
	tests := []struct {
		name    string
		locator Locator
		want    string
	}{
		{
			name:    "tcp",
			locator: Locator{Network: "tcp", Address: "testhost:2809", Key: "NameService"},
			want:    "corbaloc:iiop:testhost:2809/NameService",
		},
		{
			name:    "unix",
			locator: Locator{Network: "unix", Address: "/run/fabric.sock", Key: "mgr3"},
			want:    "corbaloc::unix:/run/fabric.sock/mgr3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.locator.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			parsed, err := ParseLocator(got)
			if err != nil {
				t.Fatalf("reparsing %q: %v", got, err)
			}
			if parsed != tt.locator {
				t.Errorf("round trip = %+v, want %+v", parsed, tt.locator)
			}
		})
	}
}

func TestLocatorWithKey(t *testing.T) {
	base := Locator{Network: "tcp", Address: "testhost:2809", Key: "NameService"}
	derived := base.WithKey("mgr1")
	if derived.Key != "mgr1" || derived.Address != base.Address || derived.Network != base.Network {
		t.Errorf("WithKey = %+v", derived)
	}
	if base.Key != "NameService" {
		t.Error("WithKey modified the receiver")
	}
}
