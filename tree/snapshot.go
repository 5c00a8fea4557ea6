// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/componentfabric/comptree/remote"
)

// Snapshot is a point-in-time, serializable view of a tree: names,
// kinds, zombie flags, and whatever profile and configuration data
// the nodes had already cached. Taking a snapshot performs no remote
// calls, so unfetched caches are simply absent from it.
type Snapshot struct {
	Taken   time.Time       `yaml:"taken"`
	Servers []*SnapshotNode `yaml:"servers"`
}

// SnapshotNode is one node of a snapshot.
type SnapshotNode struct {
	Name          string            `yaml:"name"`
	Kind          string            `yaml:"kind"`
	Zombie        bool              `yaml:"zombie,omitempty"`
	Profile       map[string]string `yaml:"profile,omitempty"`
	Configuration map[string]string `yaml:"configuration,omitempty"`
	Children      []*SnapshotNode   `yaml:"children,omitempty"`
}

// Snapshot captures the tree's current state without touching any
// remote object.
func (t *Tree) Snapshot() *Snapshot {
	s := &Snapshot{Taken: time.Now().UTC()}
	for _, child := range t.root.Children() {
		s.Servers = append(s.Servers, snapshotNode(child))
	}
	return s
}

func snapshotNode(n Node) *SnapshotNode {
	sn := &SnapshotNode{
		Name:   n.Name(),
		Kind:   n.Kind().String(),
		Zombie: n.IsZombie(),
	}
	switch node := n.(type) {
	case *Manager:
		if profile, ok := node.CachedProfile(); ok {
			sn.Profile = profile
		}
		if configuration, ok := node.CachedConfiguration(); ok {
			sn.Configuration = configuration
		}
	case *Component:
		if !node.IsZombie() {
			sn.Profile = componentProfileMap(node.Profile())
		}
	}
	for _, child := range n.Children() {
		sn.Children = append(sn.Children, snapshotNode(child))
	}
	return sn
}

func componentProfileMap(p remote.ComponentProfile) map[string]string {
	m := map[string]string{
		"instance_name": p.InstanceName,
		"type_name":     p.TypeName,
	}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.Vendor != "" {
		m["vendor"] = p.Vendor
	}
	if p.Category != "" {
		m["category"] = p.Category
	}
	if p.Version != "" {
		m["version"] = p.Version
	}
	for _, property := range p.Properties {
		m[property.Name] = property.Value
	}
	return m
}

// Encode writes the snapshot as YAML.
func (s *Snapshot) Encode(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return encoder.Close()
}

// WriteFile writes the snapshot to path as YAML, zstd-compressed when
// the path ends in ".zst".
func (s *Snapshot) WriteFile(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if strings.HasSuffix(path, ".zst") {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("initializing zstd: %w", err)
		}
		data = encoder.EncodeAll(data, nil)
		encoder.Close()
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotFile reads a snapshot written by WriteFile, handling
// zstd-compressed files by their ".zst" suffix.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if strings.HasSuffix(path, ".zst") {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("initializing zstd: %w", err)
		}
		defer decoder.Close()
		data, err = decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing snapshot: %w", err)
		}
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &s, nil
}
