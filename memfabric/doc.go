// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package memfabric is an in-process component fabric.
//
// It implements the remote contracts (Connector, NamingContext,
// ManagerHandle, ComponentHandle) entirely in memory: managers host
// components, naming contexts hold bindings, and a Fabric ties them
// together under one registry. Tree code exercised against memfabric
// behaves exactly as against the socket transport, without any
// network.
//
// Two consumers:
//
//   - Tests build small fabrics, script faults and statuses per
//     action, and count calls to verify caching and laziness.
//   - The mock fabric daemon (cmd/comptree-mockfabric) builds a
//     fabric from a YAML topology and serves it over the rpc server.
//
// Fault injection: ScriptFault makes one action of one manager fail
// with a chosen error; ScriptStatus makes it return a non-OK status;
// Kill makes every call on an object fail as unreachable, which is how
// zombie handling is tested.
package memfabric
