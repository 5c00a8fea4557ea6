// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides comptree's standard CBOR encoding configuration.
//
// Comptree uses three serialization formats with a clear boundary:
//
//   - CBOR for the fabric socket protocol: every request and response
//     exchanged by the rpc client and server, including the mock
//     fabric daemon.
//   - YAML for files a human reads or writes alongside the tool:
//     client configuration, exported snapshots, mock fabric
//     topologies.
//   - JSONC for authored composition files, where comments matter.
//
// This package provides the shared CBOR encoding and decoding modes so
// that client and server encode identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Protocol types carry `json` struct tags; fxamacker/cbor v2 reads
// them as fallback when `cbor` tags are absent, so one tag controls
// field naming and omitempty for both CBOR wire traffic and CLI
// --json output.
package codec
