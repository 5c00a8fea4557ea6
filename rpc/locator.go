// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"fmt"
	"strings"
)

// defaultPort is dialed when a TCP locator names no port.
const defaultPort = "2809"

// tcpProtocols are the corbaloc protocol tags served over plain TCP.
// An empty tag means iiop.
var tcpProtocols = map[string]bool{
	"":       true,
	"iiop":   true,
	"ssliop": true,
	"diop":   true,
	"shmiop": true,
	"htiop":  true,
}

// Locator addresses one object on one server. The textual forms are
//
//	corbaloc:<proto>:<host>[:<port>]/<key>
//	corbaloc::unix:<path>/<key>
//
// where an empty or iiop-family proto means TCP and the unix form
// names a socket path. The key selects the object on the server;
// name server roots conventionally use "NameService".
type Locator struct {
	// Network is "tcp" or "unix".
	Network string
	// Address is a host:port for TCP, a socket path for Unix.
	Address string
	// Key names the object on the server.
	Key string
}

// ParseLocator parses the textual locator forms. TCP locators without
// a port get the default 2809.
func ParseLocator(s string) (Locator, error) {
	rest, ok := strings.CutPrefix(s, "corbaloc:")
	if !ok {
		return Locator{}, fmt.Errorf("locator %q: not a corbaloc form", s)
	}
	if after, ok := strings.CutPrefix(rest, ":unix:"); ok {
		slash := strings.LastIndex(after, "/")
		if slash < 0 || slash == len(after)-1 {
			return Locator{}, fmt.Errorf("locator %q: missing object key", s)
		}
		path, key := after[:slash], after[slash+1:]
		if path == "" {
			return Locator{}, fmt.Errorf("locator %q: empty socket path", s)
		}
		return Locator{Network: "unix", Address: path, Key: key}, nil
	}
	slash := strings.Index(rest, "/")
	if slash < 0 || slash == len(rest)-1 {
		return Locator{}, fmt.Errorf("locator %q: missing object key", s)
	}
	address, key := rest[:slash], rest[slash+1:]
	proto, hostport, ok := strings.Cut(address, ":")
	if !ok {
		return Locator{}, fmt.Errorf("locator %q: missing protocol separator", s)
	}
	if !tcpProtocols[proto] {
		return Locator{}, fmt.Errorf("locator %q: unsupported protocol %q", s, proto)
	}
	if hostport == "" {
		return Locator{}, fmt.Errorf("locator %q: empty host", s)
	}
	if !strings.Contains(hostport, ":") {
		hostport += ":" + defaultPort
	} else if strings.HasSuffix(hostport, ":") {
		return Locator{}, fmt.Errorf("locator %q: empty port", s)
	}
	return Locator{Network: "tcp", Address: hostport, Key: key}, nil
}

// String renders the locator in its canonical textual form: explicit
// iiop tag and port for TCP, the unix form for sockets.
func (l Locator) String() string {
	if l.Network == "unix" {
		return "corbaloc::unix:" + l.Address + "/" + l.Key
	}
	return "corbaloc:iiop:" + l.Address + "/" + l.Key
}

// WithKey returns a copy of the locator addressing a different object
// on the same server.
func (l Locator) WithKey(key string) Locator {
	l.Key = key
	return l
}
