// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package memfabric

import (
	"context"
	"sync"

	"github.com/componentfabric/comptree/remote"
)

// Compile-time interface check.
var _ remote.ComponentHandle = (*Component)(nil)

// Component is an in-memory component instance.
type Component struct {
	fabric *Fabric
	ref    string

	mu      sync.Mutex
	profile remote.ComponentProfile
	dead    bool
	calls   map[string]int
}

// NewComponent registers a new component instance with the given
// identity.
func (f *Fabric) NewComponent(instanceName, typeName string) *Component {
	c := &Component{
		profile: remote.ComponentProfile{
			InstanceName: instanceName,
			TypeName:     typeName,
			Vendor:       "comptree",
			Category:     "example",
			Version:      "1.0.0",
		},
		calls: make(map[string]int),
	}
	c.fabric = f
	c.ref = f.newRef("rtc", c)
	return c
}

// Ref implements remote.ObjectRef.
func (c *Component) Ref() string { return c.ref }

// SetProfile replaces the component's profile.
func (c *Component) SetProfile(profile remote.ComponentProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = profile
}

// Kill makes every subsequent call on this component fail as
// unreachable.
func (c *Component) Kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dead = true
}

func (c *Component) isDead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dead
}

// Calls reports how many times the named action has been invoked.
func (c *Component) Calls(action string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[action]
}

// Profile implements remote.ComponentHandle.
func (c *Component) Profile(_ context.Context) (remote.ComponentProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["profile"]++
	if c.dead {
		return remote.ComponentProfile{}, remote.Faultf(remote.FaultUnreachable, "component %s is down", c.ref)
	}
	return c.profile, nil
}
