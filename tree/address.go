// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import "strings"

// corbalocProtocols are the address prefixes that keep their protocol
// tag inside a corbaloc connection string.
var corbalocProtocols = []string{"iiop:", "ssliop:", "diop:", "shmiop:", "htiop:"}

// webProtocols are the address prefixes resolved by appending a
// fragment instead of wrapping in a corbaloc form.
var webProtocols = []string{"http://", "https://", "ws://", "wss://"}

// resolveAddress maps a logical name server address to the connection
// string handed to the connector. Protocol-tagged addresses become
// corbaloc locators for the NameService object key; web addresses
// carry the key as a fragment; anything else is treated as a bare
// host[:port].
func resolveAddress(address string) string {
	for _, protocol := range corbalocProtocols {
		if strings.HasPrefix(address, protocol) {
			return "corbaloc:" + address + "/NameService"
		}
	}
	for _, protocol := range webProtocols {
		if strings.HasPrefix(address, protocol) {
			return address + "#NameService"
		}
	}
	return "corbaloc::" + address + "/NameService"
}
