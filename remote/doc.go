// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote defines the contracts between the mirror tree and the
// component fabric it mirrors.
//
// The tree itself never speaks a wire protocol. Everything it knows
// about a remote manager, component, or naming service arrives through
// the interfaces in this package:
//
//   - Connector: resolves a connection string to the root NamingContext
//     of a name server.
//   - NamingContext: a directory of bindings, each resolvable to a
//     ManagerHandle, ComponentHandle, nested NamingContext, or opaque
//     ObjectRef.
//   - ManagerHandle: the full management surface of one manager
//     process (module loading, component creation, configuration,
//     master/slave registration, lifecycle).
//   - ComponentHandle: the small slice of a component the tree needs
//     (identity and profile).
//
// Implementations decide transport, encoding, and timeouts. The rpc
// package provides the socket implementation; memfabric provides an
// in-process one for tests and demos.
//
// # Errors
//
// Failures that callers are expected to branch on are reported as
// *Fault values carrying a FaultCode; everything else is an ordinary
// transport error. See fault.go for the taxonomy and the Is* helpers.
// A resolution that finds the binding but the wrong kind of object
// behind it is reported as *NarrowError, never as a Fault.
package remote
