// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/componentfabric/comptree/lib/codec"
	"github.com/componentfabric/comptree/remote"
)

// readTimeout is how long the server waits for the client to send its
// request. A well-behaved client sends it immediately after
// connecting.
const readTimeout = 30 * time.Second

// writeTimeout is how long the server waits for the response write.
const writeTimeout = 10 * time.Second

// maxMessageSize bounds a single CBOR request or response. Fabric
// payloads are small; a megabyte leaves room for large module
// listings.
const maxMessageSize = 1024 * 1024

// Server serves remote objects over the socket protocol. Each
// connection handles exactly one request-response cycle: the client
// writes a CBOR value, the server processes it and writes a CBOR
// response, then the connection closes.
//
// Objects are bound under explicit keys with Bind; objects reached
// through them (resolved bindings, listed components, slaves) are
// registered on the fly and addressed by generated keys in the
// locators the server hands out.
type Server struct {
	advertise Locator
	logger    *slog.Logger

	mu     sync.Mutex
	byKey  map[string]remote.ObjectRef
	keys   map[remote.ObjectRef]string
	nextID int

	// activeConnections tracks in-flight handlers for graceful
	// shutdown. Serve waits for all of them before returning.
	activeConnections sync.WaitGroup
}

// NewServer creates a server that clients will reach at the advertise
// locator's network and address. The locator's key is ignored; keys
// come from Bind. A nil logger means slog.Default().
func NewServer(advertise Locator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		advertise: advertise,
		logger:    logger,
		byKey:     make(map[string]remote.ObjectRef),
		keys:      make(map[remote.ObjectRef]string),
	}
}

// Bind publishes obj under key. A name server root conventionally
// binds as "NameService". Panics on a duplicate key.
func (s *Server) Bind(key string, obj remote.ObjectRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byKey[key]; exists {
		panic(fmt.Sprintf("rpc.Server: duplicate binding for key %q", key))
	}
	s.byKey[key] = obj
	s.keys[obj] = key
}

// Locator returns the locator addressing key on this server. Call
// after Listen when the advertise address left the port to the
// system.
func (s *Server) Locator(key string) Locator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advertise.WithKey(key)
}

// register assigns a generated key to obj, reusing the existing one
// when the object is already known, and returns its locator string.
func (s *Server) register(obj remote.ObjectRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.keys[obj]; ok {
		return s.advertise.WithKey(key).String()
	}
	s.nextID++
	key := fmt.Sprintf("%s%d", classOf(obj), s.nextID)
	s.byKey[key] = obj
	s.keys[obj] = key
	return s.advertise.WithKey(key).String()
}

// lookup finds a bound object by key.
func (s *Server) lookup(key string) (remote.ObjectRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.byKey[key]
	return obj, ok
}

// classOf names the most specific remote interface obj implements.
func classOf(obj remote.ObjectRef) string {
	switch obj.(type) {
	case remote.NamingContext:
		return classContext
	case remote.ManagerHandle:
		return classManager
	case remote.ComponentHandle:
		return classComponent
	default:
		return classObject
	}
}

// Listen opens the listener named by the advertise locator. A stale
// Unix socket file at the path is removed first.
func (s *Server) Listen() (net.Listener, error) {
	if s.advertise.Network == "unix" {
		if err := os.Remove(s.advertise.Address); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale socket %s: %w", s.advertise.Address, err)
		}
	}
	listener, err := net.Listen(s.advertise.Network, s.advertise.Address)
	if err != nil {
		return nil, fmt.Errorf("listening on %s %s: %w", s.advertise.Network, s.advertise.Address, err)
	}
	if s.advertise.Network == "tcp" {
		// Resolves a ":0" port to the one actually bound.
		s.mu.Lock()
		s.advertise.Address = listener.Addr().String()
		s.mu.Unlock()
	}
	return listener, nil
}

// ListenAndServe opens the advertised listener and serves on it.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits for active handlers to complete. The listener
// is closed on return, and a Unix socket file is removed.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer func() {
		listener.Close()
		if s.advertise.Network == "unix" {
			os.Remove(s.advertise.Address)
		}
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("rpc server listening",
		"network", s.advertise.Network,
		"address", listener.Addr().String(),
	)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// handleConnection processes one request-response cycle.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// One CBOR value per request. CBOR is self-delimiting, so no
	// framing is needed; the LimitReader bounds memory.
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		s.write(conn, failureResponse(remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)))
		return
	}

	var header struct {
		Key    string `cbor:"key"`
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.write(conn, failureResponse(remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)))
		return
	}
	if header.Key == "" || header.Action == "" {
		s.write(conn, failureResponse(remote.Faultf(remote.FaultBadParameter, "request needs key and action fields")))
		return
	}

	obj, ok := s.lookup(header.Key)
	if !ok {
		s.write(conn, failureResponse(remote.Faultf(remote.FaultNotFound, "no object bound at %q", header.Key)))
		return
	}

	result, err := s.dispatch(ctx, obj, header.Action, raw)
	if err != nil {
		s.logger.Debug("action failed",
			"key", header.Key,
			"action", header.Action,
			"error", err,
		)
		s.write(conn, failureResponse(err))
		return
	}

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.write(conn, failureResponse(fmt.Errorf("marshaling response: %w", err)))
			return
		}
		response.Data = data
	}
	s.write(conn, response)
}

// write sends the response. Failures are logged at debug level; the
// connection is closing regardless.
func (s *Server) write(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

// dispatch routes an action to the handler set matching the object's
// class. The describe action answers for every class.
func (s *Server) dispatch(ctx context.Context, obj remote.ObjectRef, action string, raw []byte) (any, error) {
	if action == "describe" {
		return describeResult{Class: classOf(obj)}, nil
	}
	switch target := obj.(type) {
	case remote.NamingContext:
		return s.contextAction(ctx, target, action, raw)
	case remote.ManagerHandle:
		return s.managerAction(ctx, target, action, raw)
	case remote.ComponentHandle:
		return s.componentAction(ctx, target, action)
	default:
		return nil, remote.Faultf(remote.FaultUnsupported, "unknown action %q", action)
	}
}

// bindingNameFields decodes the id/kind pair used by resolve and
// unbind actions.
func bindingNameFields(raw []byte) (remote.BindingName, error) {
	var request struct {
		ID   string `cbor:"id"`
		Kind string `cbor:"kind"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return remote.BindingName{}, remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)
	}
	return remote.BindingName{ID: request.ID, Kind: request.Kind}, nil
}

func (s *Server) contextAction(ctx context.Context, target remote.NamingContext, action string, raw []byte) (any, error) {
	switch action {
	case "list":
		bindings, err := target.List(ctx)
		if err != nil {
			return nil, err
		}
		result := listResult{Bindings: make([]wireBinding, len(bindings))}
		for i, binding := range bindings {
			result.Bindings[i] = wireBinding{
				ID:      binding.Name.ID,
				Kind:    binding.Name.Kind,
				Context: binding.Type == remote.BindingContext,
			}
		}
		return result, nil
	case "resolve_context":
		name, err := bindingNameFields(raw)
		if err != nil {
			return nil, err
		}
		child, err := target.ResolveContext(ctx, name)
		if err != nil {
			return nil, err
		}
		return refResult{Ref: s.register(child)}, nil
	case "resolve_manager":
		name, err := bindingNameFields(raw)
		if err != nil {
			return nil, err
		}
		child, err := target.ResolveManager(ctx, name)
		if err != nil {
			return nil, err
		}
		return refResult{Ref: s.register(child)}, nil
	case "resolve_component":
		name, err := bindingNameFields(raw)
		if err != nil {
			return nil, err
		}
		child, err := target.ResolveComponent(ctx, name)
		if err != nil {
			return nil, err
		}
		return refResult{Ref: s.register(child)}, nil
	case "resolve_object":
		name, err := bindingNameFields(raw)
		if err != nil {
			return nil, err
		}
		child, err := target.ResolveObject(ctx, name)
		if err != nil {
			return nil, err
		}
		return refResult{Ref: s.register(child)}, nil
	case "unbind":
		name, err := bindingNameFields(raw)
		if err != nil {
			return nil, err
		}
		return nil, target.Unbind(ctx, name)
	default:
		return nil, remote.Faultf(remote.FaultUnsupported, "unknown action %q", action)
	}
}

// peerField decodes the ref field of master/slave registration
// actions and resolves it to an object bound on this server.
func (s *Server) peerField(raw []byte) (remote.ObjectRef, error) {
	var request struct {
		Ref string `cbor:"ref"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)
	}
	locator, err := ParseLocator(request.Ref)
	if err != nil {
		return nil, remote.Faultf(remote.FaultBadParameter, "bad peer ref: %v", err)
	}
	peer, ok := s.lookup(locator.Key)
	if !ok {
		return nil, remote.Faultf(remote.FaultNotFound, "no object bound at %q", locator.Key)
	}
	return peer, nil
}

func (s *Server) managerAction(ctx context.Context, target remote.ManagerHandle, action string, raw []byte) (any, error) {
	switch action {
	case "profile":
		profile, err := target.Profile(ctx)
		if err != nil {
			return nil, err
		}
		return propertiesResult{Properties: toWireProperties(profile)}, nil
	case "configuration":
		configuration, err := target.Configuration(ctx)
		if err != nil {
			return nil, err
		}
		return propertiesResult{Properties: toWireProperties(configuration)}, nil
	case "set_configuration":
		var request struct {
			Name  string `cbor:"name"`
			Value string `cbor:"value"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)
		}
		status, err := target.SetConfiguration(ctx, request.Name, request.Value)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "factory_profiles":
		profiles, err := target.FactoryProfiles(ctx)
		if err != nil {
			return nil, err
		}
		return profilesResult{Profiles: toWireProfiles(profiles)}, nil
	case "loadable_modules":
		modules, err := target.LoadableModules(ctx)
		if err != nil {
			return nil, err
		}
		return profilesResult{Profiles: toWireProfiles(modules)}, nil
	case "loaded_modules":
		modules, err := target.LoadedModules(ctx)
		if err != nil {
			return nil, err
		}
		return profilesResult{Profiles: toWireProfiles(modules)}, nil
	case "load_module":
		var request struct {
			Path     string `cbor:"path"`
			InitFunc string `cbor:"init_func"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)
		}
		status, err := target.LoadModule(ctx, request.Path, request.InitFunc)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "unload_module":
		var request struct {
			Path string `cbor:"path"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)
		}
		status, err := target.UnloadModule(ctx, request.Path)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "components":
		components, err := target.Components(ctx)
		if err != nil {
			return nil, err
		}
		result := refsResult{Refs: make([]string, len(components))}
		for i, component := range components {
			result.Refs[i] = s.register(component)
		}
		return result, nil
	case "create_component":
		var request struct {
			Spec string `cbor:"spec"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)
		}
		status, err := target.CreateComponent(ctx, request.Spec)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "delete_component":
		var request struct {
			Name string `cbor:"name"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, remote.Faultf(remote.FaultBadParameter, "invalid request: %v", err)
		}
		status, err := target.DeleteComponent(ctx, request.Name)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "slave_managers":
		slaves, err := target.SlaveManagers(ctx)
		if err != nil {
			return nil, err
		}
		result := refsResult{Refs: make([]string, len(slaves))}
		for i, slave := range slaves {
			result.Refs[i] = s.register(slave)
		}
		return result, nil
	case "add_master_manager":
		peer, err := s.peerField(raw)
		if err != nil {
			return nil, err
		}
		status, err := target.AddMasterManager(ctx, peer)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "remove_master_manager":
		peer, err := s.peerField(raw)
		if err != nil {
			return nil, err
		}
		status, err := target.RemoveMasterManager(ctx, peer)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "add_slave_manager":
		peer, err := s.peerField(raw)
		if err != nil {
			return nil, err
		}
		status, err := target.AddSlaveManager(ctx, peer)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "remove_slave_manager":
		peer, err := s.peerField(raw)
		if err != nil {
			return nil, err
		}
		status, err := target.RemoveSlaveManager(ctx, peer)
		if err != nil {
			return nil, err
		}
		return statusResult{Status: int(status)}, nil
	case "is_master":
		value, err := target.IsMaster(ctx)
		if err != nil {
			return nil, err
		}
		return boolResult{Value: value}, nil
	case "fork":
		return nil, target.Fork(ctx)
	case "shutdown":
		return nil, target.Shutdown(ctx)
	case "restart":
		return nil, target.Restart(ctx)
	default:
		return nil, remote.Faultf(remote.FaultUnsupported, "unknown action %q", action)
	}
}

func (s *Server) componentAction(ctx context.Context, target remote.ComponentHandle, action string) (any, error) {
	switch action {
	case "profile":
		profile, err := target.Profile(ctx)
		if err != nil {
			return nil, err
		}
		return toWireComponentProfile(profile), nil
	default:
		return nil, remote.Faultf(remote.FaultUnsupported, "unknown action %q", action)
	}
}
