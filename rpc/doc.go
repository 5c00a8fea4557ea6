// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Package rpc carries the remote contracts over sockets. A Server
// binds objects implementing the remote interfaces and serves a
// one-request-per-connection CBOR protocol on TCP or Unix listeners;
// the Connector dials corbaloc locators and hands back client-side
// handles implementing the same interfaces, so the tree package works
// identically against an in-process fabric and a socket one.
package rpc
