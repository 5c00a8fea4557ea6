// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/componentfabric/comptree/remote"
)

// Component is a leaf node mirroring one component instance. Its
// profile is fetched when the parent parses the listing; the fetch
// doubles as the liveness probe, so a component that cannot answer
// becomes a zombie instead.
type Component struct {
	node
	handle remote.ComponentHandle

	// profile is guarded by mu and refreshed by Reparse.
	profile remote.ComponentProfile
}

func newComponent(name string, parent Node, handle remote.ComponentHandle, profile remote.ComponentProfile, logger *slog.Logger) *Component {
	c := &Component{handle: handle, profile: profile}
	c.init(c, name, KindComponent, parent, logger)
	return c
}

func newZombieComponent(name string, parent Node, handle remote.ComponentHandle, logger *slog.Logger) *Component {
	c := &Component{handle: handle}
	c.init(c, name, KindComponent, parent, logger)
	c.zombie = true
	return c
}

// Handle returns the component's remote handle.
func (c *Component) Handle() remote.ComponentHandle {
	return c.handle
}

// Profile returns the component's identity profile as of the last
// parse. Zombies have a zero profile.
func (c *Component) Profile() remote.ComponentProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// InstanceName is the instance name from the profile; unlike Name it
// carries no ".rtc" suffix.
func (c *Component) InstanceName() string {
	return c.Profile().InstanceName
}

// TypeName is the component's type name from the profile.
func (c *Component) TypeName() string {
	return c.Profile().TypeName
}

// Reparse refetches the component's profile.
func (c *Component) Reparse(ctx context.Context) error {
	if err := c.zombieCheck(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	profile, err := c.handle.Profile(ctx)
	if err != nil {
		return fmt.Errorf("refetching profile of %q: %w", c.name, err)
	}
	c.profile = profile
	return nil
}
