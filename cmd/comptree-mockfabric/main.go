// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

// Comptree-mockfabric serves a YAML-described component fabric over
// the comptree wire protocol, for demos and smoke tests. Point a
// comptree CLI at its listeners to browse managers and components
// without any real fabric running:
//
//	comptree-mockfabric topology.yaml &
//	comptree print --server 127.0.0.1:2809
//
// Every server entry in the topology file becomes one listener. The
// served objects are live memfabric objects, so create, delete,
// module, config, and lifecycle operations all work and persist for
// the life of the process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/componentfabric/comptree/lib/version"
	"github.com/componentfabric/comptree/memfabric"
	"github.com/componentfabric/comptree/rpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print("comptree-mockfabric")
		return nil
	}

	if flag.NArg() != 1 {
		return errors.New("usage: comptree-mockfabric <topology.yaml>")
	}

	topo, err := loadTopology(flag.Arg(0))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	fabric := memfabric.New()

	// Build every naming tree before opening any listener, so a bad
	// topology fails before the first socket appears.
	built := make([]fabricServer, len(topo.Servers))
	for i, serverTopo := range topo.Servers {
		fs, err := serverTopo.build(fabric)
		if err != nil {
			return err
		}
		built[i] = fs
	}

	servers := make([]*rpc.Server, len(built))
	listeners := make([]net.Listener, len(built))
	for i, fs := range built {
		server := rpc.NewServer(rpc.Locator{Network: fs.locator.Network, Address: fs.locator.Address}, logger)
		server.Bind(fs.locator.Key, fs.root)
		listener, err := server.Listen()
		if err != nil {
			for _, open := range listeners[:i] {
				open.Close()
			}
			return err
		}
		servers[i] = server
		listeners[i] = listener
		logger.Info("mock fabric serving", "locator", server.Locator(fs.locator.Key).String())
	}

	var wg sync.WaitGroup
	serveErrs := make([]error, len(servers))
	for i := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveErrs[i] = servers[i].Serve(ctx, listeners[i])
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()

	return errors.Join(serveErrs...)
}
