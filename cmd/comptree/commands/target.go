// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/componentfabric/comptree/tree"
)

// lookupNode resolves an absolute path to an existing node.
func lookupNode(tr *tree.Tree, path string) (tree.Node, error) {
	node, err := tr.Lookup(path)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("no node at %q", path)
	}
	return node, nil
}

// lookupManager resolves an absolute path to a live manager node.
func lookupManager(tr *tree.Tree, path string) (*tree.Manager, error) {
	node, err := lookupNode(tr, path)
	if err != nil {
		return nil, err
	}
	manager, ok := node.(*tree.Manager)
	if !ok {
		return nil, fmt.Errorf("%q is a %s, not a manager", path, node.Kind())
	}
	if manager.IsZombie() {
		return nil, fmt.Errorf("manager %q is a zombie (its remote object is gone)", path)
	}
	return manager, nil
}
