// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"fmt"

	"github.com/componentfabric/comptree/remote"
)

// SetParent moves this manager under a new master. Four remote steps
// run in order: the old master drops the slave registration, the
// slave drops the old master, the slave adds the new master, and the
// new master adds the slave. The first two are skipped when the
// manager is not currently under a master.
//
// The local tree is rewritten only after all remote steps succeed. A
// failure mid-protocol leaves the completed registrations in place on
// the fabric and the local tree untouched; a reparse recovers the
// fabric's actual state.
func (m *Manager) SetParent(ctx context.Context, master *Manager) error {
	if err := m.zombieCheck(); err != nil {
		return err
	}
	if err := master.zombieCheck(); err != nil {
		return err
	}
	oldParent := m.Parent()
	if oldParent == Node(master) {
		return nil
	}

	// The remote handles are immutable, so the protocol runs without
	// tree locks and cannot deadlock against a concurrent reparent.
	if oldMaster, ok := oldParent.(*Manager); ok {
		status, err := oldMaster.handle.RemoveSlaveManager(ctx, m.handle)
		if err != nil {
			return fmt.Errorf("removing slave %q from %q: %w", m.name, oldMaster.name, err)
		}
		if status != remote.StatusOK {
			return &RemoveSlaveError{Manager: oldMaster.name, Slave: m.name, Status: status}
		}
		status, err = m.handle.RemoveMasterManager(ctx, oldMaster.handle)
		if err != nil {
			return fmt.Errorf("removing master %q from %q: %w", oldMaster.name, m.name, err)
		}
		if status != remote.StatusOK {
			return &RemoveMasterError{Manager: m.name, Master: oldMaster.name, Status: status}
		}
	}
	status, err := m.handle.AddMasterManager(ctx, master.handle)
	if err != nil {
		return fmt.Errorf("adding master %q to %q: %w", master.name, m.name, err)
	}
	if status != remote.StatusOK {
		return &AddMasterError{Manager: m.name, Master: master.name, Status: status}
	}
	status, err = master.handle.AddSlaveManager(ctx, m.handle)
	if err != nil {
		return fmt.Errorf("adding slave %q to %q: %w", m.name, master.name, err)
	}
	if status != remote.StatusOK {
		return &AddSlaveError{Manager: master.name, Slave: m.name, Status: status}
	}

	// Local rewrite. Locks are taken one node at a time.
	if oldParent != nil {
		if err := oldParent.base().detachChild(m); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.parent = master
	m.masters = []*Manager{master}
	m.mu.Unlock()
	master.mu.Lock()
	master.addChildLocked(m)
	master.mu.Unlock()
	return nil
}
