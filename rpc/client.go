// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/componentfabric/comptree/lib/codec"
	"github.com/componentfabric/comptree/remote"
)

// dialTimeout bounds the connect phase of a call, separate from the
// server's read and write timeouts.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for the response
// after writing the request, matched to the server's read plus write
// timeouts to leave room for handler execution.
const responseReadTimeout = 45 * time.Second

// Connector dials rpc servers. It implements remote.Connector, so a
// tree built on it mirrors fabrics served by the Server in this
// package.
type Connector struct {
	logger *slog.Logger
}

// NewConnector creates a Connector. A nil logger means
// slog.Default().
func NewConnector(logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{logger: logger}
}

var _ remote.Connector = (*Connector)(nil)

// ConnectNameServer implements remote.Connector. The connection
// string must be a corbaloc locator; the object behind it must
// describe itself as a naming context.
func (c *Connector) ConnectNameServer(ctx context.Context, connectionString string) (remote.NamingContext, error) {
	locator, err := ParseLocator(connectionString)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("connecting name server",
		"network", locator.Network,
		"address", locator.Address,
		"key", locator.Key,
	)
	handle := clientHandle{locator: locator}
	var described describeResult
	if err := handle.call(ctx, "describe", nil, &described); err != nil {
		return nil, err
	}
	if described.Class != classContext {
		return nil, &remote.NarrowError{
			Name:     connectionString,
			Expected: "naming context",
			Actual:   described.Class,
		}
	}
	return &clientContext{clientHandle: handle}, nil
}

// clientHandle is the shared calling machinery of every client-side
// object: a locator and the one-request-per-connection exchange.
type clientHandle struct {
	locator Locator
}

// Ref implements remote.ObjectRef. The ref is the locator itself, so
// it can be handed to another object on the same server (master and
// slave registration) or redialed later.
func (h clientHandle) Ref() string {
	return h.locator.String()
}

// call dials the server, sends one request, and decodes the response
// into result when it is non-nil. Dial failures surface as
// FaultUnreachable so the tree treats the peer as dead; failure
// responses are rebuilt into their typed errors.
func (h clientHandle) call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+2)
	for key, value := range fields {
		request[key] = value
	}
	request["key"] = h.locator.Key
	request["action"] = action

	response, err := h.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, h.locator.Address, err)
	}
	if !response.OK {
		return failureError(action, response)
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// send runs one connection cycle: dial, write, half-close, read.
func (h clientHandle) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, h.locator.Network, h.locator.Address)
	if err != nil {
		return nil, remote.Faultf(remote.FaultUnreachable, "connecting: %v", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// Half-close the write side. CBOR is self-delimiting so this is
	// not strictly needed, but the server's read sees a clean EOF.
	switch c := conn.(type) {
	case *net.UnixConn:
		c.CloseWrite()
	case *net.TCPConn:
		c.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}

// resolveRef turns a ref string from a response into a locator.
func resolveRef(ref string) (Locator, error) {
	locator, err := ParseLocator(ref)
	if err != nil {
		return Locator{}, fmt.Errorf("bad ref in response: %w", err)
	}
	return locator, nil
}

// clientContext is the client side of a naming context.
type clientContext struct {
	clientHandle
}

var _ remote.NamingContext = (*clientContext)(nil)

func (c *clientContext) List(ctx context.Context) ([]remote.Binding, error) {
	var result listResult
	if err := c.call(ctx, "list", nil, &result); err != nil {
		return nil, err
	}
	bindings := make([]remote.Binding, len(result.Bindings))
	for i, binding := range result.Bindings {
		bindings[i] = remote.Binding{
			Name: remote.BindingName{ID: binding.ID, Kind: binding.Kind},
			Type: remote.BindingObject,
		}
		if binding.Context {
			bindings[i].Type = remote.BindingContext
		}
	}
	return bindings, nil
}

// resolve runs one resolve action and parses the returned ref.
func (c *clientContext) resolve(ctx context.Context, action string, name remote.BindingName) (Locator, error) {
	var result refResult
	fields := map[string]any{"id": name.ID, "kind": name.Kind}
	if err := c.call(ctx, action, fields, &result); err != nil {
		return Locator{}, err
	}
	return resolveRef(result.Ref)
}

func (c *clientContext) ResolveContext(ctx context.Context, name remote.BindingName) (remote.NamingContext, error) {
	locator, err := c.resolve(ctx, "resolve_context", name)
	if err != nil {
		return nil, err
	}
	return &clientContext{clientHandle{locator: locator}}, nil
}

func (c *clientContext) ResolveManager(ctx context.Context, name remote.BindingName) (remote.ManagerHandle, error) {
	locator, err := c.resolve(ctx, "resolve_manager", name)
	if err != nil {
		return nil, err
	}
	return &clientManager{clientHandle{locator: locator}}, nil
}

func (c *clientContext) ResolveComponent(ctx context.Context, name remote.BindingName) (remote.ComponentHandle, error) {
	locator, err := c.resolve(ctx, "resolve_component", name)
	if err != nil {
		return nil, err
	}
	return &clientComponent{clientHandle{locator: locator}}, nil
}

func (c *clientContext) ResolveObject(ctx context.Context, name remote.BindingName) (remote.ObjectRef, error) {
	locator, err := c.resolve(ctx, "resolve_object", name)
	if err != nil {
		return nil, err
	}
	return clientHandle{locator: locator}, nil
}

func (c *clientContext) Unbind(ctx context.Context, name remote.BindingName) error {
	return c.call(ctx, "unbind", map[string]any{"id": name.ID, "kind": name.Kind}, nil)
}

// clientManager is the client side of a manager.
type clientManager struct {
	clientHandle
}

var _ remote.ManagerHandle = (*clientManager)(nil)

func (m *clientManager) properties(ctx context.Context, action string) (remote.PropertyList, error) {
	var result propertiesResult
	if err := m.call(ctx, action, nil, &result); err != nil {
		return nil, err
	}
	return fromWireProperties(result.Properties), nil
}

func (m *clientManager) profiles(ctx context.Context, action string) ([]remote.PropertyList, error) {
	var result profilesResult
	if err := m.call(ctx, action, nil, &result); err != nil {
		return nil, err
	}
	return fromWireProfiles(result.Profiles), nil
}

func (m *clientManager) status(ctx context.Context, action string, fields map[string]any) (remote.Status, error) {
	var result statusResult
	if err := m.call(ctx, action, fields, &result); err != nil {
		return remote.StatusError, err
	}
	return remote.Status(result.Status), nil
}

func (m *clientManager) Profile(ctx context.Context) (remote.PropertyList, error) {
	return m.properties(ctx, "profile")
}

func (m *clientManager) Configuration(ctx context.Context) (remote.PropertyList, error) {
	return m.properties(ctx, "configuration")
}

func (m *clientManager) SetConfiguration(ctx context.Context, name, value string) (remote.Status, error) {
	return m.status(ctx, "set_configuration", map[string]any{"name": name, "value": value})
}

func (m *clientManager) FactoryProfiles(ctx context.Context) ([]remote.PropertyList, error) {
	return m.profiles(ctx, "factory_profiles")
}

func (m *clientManager) LoadableModules(ctx context.Context) ([]remote.PropertyList, error) {
	return m.profiles(ctx, "loadable_modules")
}

func (m *clientManager) LoadedModules(ctx context.Context) ([]remote.PropertyList, error) {
	return m.profiles(ctx, "loaded_modules")
}

func (m *clientManager) LoadModule(ctx context.Context, path, initFunc string) (remote.Status, error) {
	return m.status(ctx, "load_module", map[string]any{"path": path, "init_func": initFunc})
}

func (m *clientManager) UnloadModule(ctx context.Context, path string) (remote.Status, error) {
	return m.status(ctx, "unload_module", map[string]any{"path": path})
}

func (m *clientManager) Components(ctx context.Context) ([]remote.ComponentHandle, error) {
	var result refsResult
	if err := m.call(ctx, "components", nil, &result); err != nil {
		return nil, err
	}
	components := make([]remote.ComponentHandle, len(result.Refs))
	for i, ref := range result.Refs {
		locator, err := resolveRef(ref)
		if err != nil {
			return nil, err
		}
		components[i] = &clientComponent{clientHandle{locator: locator}}
	}
	return components, nil
}

func (m *clientManager) CreateComponent(ctx context.Context, spec string) (remote.Status, error) {
	return m.status(ctx, "create_component", map[string]any{"spec": spec})
}

func (m *clientManager) DeleteComponent(ctx context.Context, instanceName string) (remote.Status, error) {
	return m.status(ctx, "delete_component", map[string]any{"name": instanceName})
}

func (m *clientManager) SlaveManagers(ctx context.Context) ([]remote.ManagerHandle, error) {
	var result refsResult
	if err := m.call(ctx, "slave_managers", nil, &result); err != nil {
		return nil, err
	}
	slaves := make([]remote.ManagerHandle, len(result.Refs))
	for i, ref := range result.Refs {
		locator, err := resolveRef(ref)
		if err != nil {
			return nil, err
		}
		slaves[i] = &clientManager{clientHandle{locator: locator}}
	}
	return slaves, nil
}

func (m *clientManager) AddMasterManager(ctx context.Context, master remote.ObjectRef) (remote.Status, error) {
	return m.status(ctx, "add_master_manager", map[string]any{"ref": master.Ref()})
}

func (m *clientManager) RemoveMasterManager(ctx context.Context, master remote.ObjectRef) (remote.Status, error) {
	return m.status(ctx, "remove_master_manager", map[string]any{"ref": master.Ref()})
}

func (m *clientManager) AddSlaveManager(ctx context.Context, slave remote.ObjectRef) (remote.Status, error) {
	return m.status(ctx, "add_slave_manager", map[string]any{"ref": slave.Ref()})
}

func (m *clientManager) RemoveSlaveManager(ctx context.Context, slave remote.ObjectRef) (remote.Status, error) {
	return m.status(ctx, "remove_slave_manager", map[string]any{"ref": slave.Ref()})
}

func (m *clientManager) IsMaster(ctx context.Context) (bool, error) {
	var result boolResult
	if err := m.call(ctx, "is_master", nil, &result); err != nil {
		return false, err
	}
	return result.Value, nil
}

func (m *clientManager) Fork(ctx context.Context) error {
	return m.call(ctx, "fork", nil, nil)
}

func (m *clientManager) Shutdown(ctx context.Context) error {
	return m.call(ctx, "shutdown", nil, nil)
}

func (m *clientManager) Restart(ctx context.Context) error {
	return m.call(ctx, "restart", nil, nil)
}

// clientComponent is the client side of a component.
type clientComponent struct {
	clientHandle
}

var _ remote.ComponentHandle = (*clientComponent)(nil)

func (c *clientComponent) Profile(ctx context.Context) (remote.ComponentProfile, error) {
	var result componentProfileResult
	if err := c.call(ctx, "profile", nil, &result); err != nil {
		return remote.ComponentProfile{}, err
	}
	return fromWireComponentProfile(result), nil
}
