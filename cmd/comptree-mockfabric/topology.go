// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/componentfabric/comptree/memfabric"
	"github.com/componentfabric/comptree/remote"
	"github.com/componentfabric/comptree/rpc"
)

// topology is the YAML shape of a mock fabric description:
//
//	servers:
//	  - listen: corbaloc:iiop:127.0.0.1:2809/NameService
//	    directories:
//	      - lab/sensors
//	    managers:
//	      - name: manager
//	        factories: [Probe, Filter]
//	        loadable_modules:
//	          - /opt/fabric/lib/extra.so
//	        configuration:
//	          logger.log_level: INFO
//	        components:
//	          - instance: probe0
//	            type: Probe
//	      - name: slave0
//	        parent: manager
//	    components:
//	      - instance: clock0
//	        type: Clock
//	        directory: lab/sensors
//
// Each server entry becomes one listener holding one naming tree.
type topology struct {
	Servers []serverTopology `yaml:"servers"`
}

type serverTopology struct {
	// Listen is the corbaloc locator the server binds, for example
	// "corbaloc:iiop:127.0.0.1:2809/NameService" or
	// "corbaloc::unix:/tmp/fabric.sock/NameService". The locator's
	// key is the name the root context is published under.
	Listen string `yaml:"listen"`

	// Directories are slash-separated paths of nested naming
	// contexts to create below the root, for example "lab/sensors".
	Directories []string `yaml:"directories"`

	Managers []managerTopology `yaml:"managers"`

	// Components are registered directly on the name server with no
	// owning manager.
	Components []componentTopology `yaml:"components"`
}

type managerTopology struct {
	Name string `yaml:"name"`

	// Directory is the declared directory path the manager binds
	// under; empty means the root.
	Directory string `yaml:"directory"`

	// Parent names another manager on the same server. A manager
	// with a parent starts as that manager's slave; one without
	// starts in master mode.
	Parent string `yaml:"parent"`

	// Factories lists component type names the manager can
	// instantiate.
	Factories []string `yaml:"factories"`

	// LoadableModules lists module paths reported as loadable but
	// not yet loaded.
	LoadableModules []string `yaml:"loadable_modules"`

	Configuration map[string]string `yaml:"configuration"`

	// Components are created through the manager's factories at
	// startup, so the corresponding factory type must be declared.
	Components []componentTopology `yaml:"components"`
}

type componentTopology struct {
	Instance string `yaml:"instance"`
	Type     string `yaml:"type"`

	// Directory applies to server-level components only; components
	// under a manager bind wherever the manager publishes.
	Directory string `yaml:"directory"`

	// Properties are extra profile properties.
	Properties map[string]string `yaml:"properties"`
}

// loadTopology reads and validates a topology file.
func loadTopology(path string) (*topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	topo := &topology{}
	if err := yaml.Unmarshal(data, topo); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(topo.Servers) == 0 {
		return nil, fmt.Errorf("%s: no servers declared", path)
	}
	return topo, nil
}

// fabricServer pairs a populated naming root with the locator it
// serves at.
type fabricServer struct {
	locator rpc.Locator
	root    *memfabric.Context
}

// build populates fabric with this server's naming tree and returns
// the root context and parsed listen locator.
func (s serverTopology) build(fabric *memfabric.Fabric) (fabricServer, error) {
	locator, err := rpc.ParseLocator(s.Listen)
	if err != nil {
		return fabricServer{}, err
	}

	root := fabric.NewContext()

	// Declared directory contexts by slash-separated path; "" is the
	// root itself.
	contexts := map[string]*memfabric.Context{"": root}
	for _, dirPath := range s.Directories {
		ensureDirectory(fabric, contexts, dirPath)
	}

	managers := make(map[string]*memfabric.Manager)
	for _, entry := range s.Managers {
		if entry.Name == "" {
			return fabricServer{}, fmt.Errorf("server %s: manager with no name", s.Listen)
		}
		if _, dup := managers[entry.Name]; dup {
			return fabricServer{}, fmt.Errorf("server %s: duplicate manager %q", s.Listen, entry.Name)
		}
		target, ok := contexts[entry.Directory]
		if !ok {
			return fabricServer{}, fmt.Errorf("manager %q: directory %q not declared", entry.Name, entry.Directory)
		}

		manager := fabric.NewManager(entry.Name)
		for _, typeName := range entry.Factories {
			manager.AddFactory(typeName)
		}
		for _, modulePath := range entry.LoadableModules {
			manager.AddLoadableModule(modulePath)
		}
		for _, name := range sortedKeys(entry.Configuration) {
			manager.SetConfig(name, entry.Configuration[name])
		}

		target.Bind(remote.BindingName{ID: entry.Name, Kind: remote.KindTagManager}, manager)
		manager.PublishComponentsTo(target)

		for _, component := range entry.Components {
			if component.Instance == "" || component.Type == "" {
				return fabricServer{}, fmt.Errorf("manager %q: component needs instance and type", entry.Name)
			}
			status, err := manager.CreateComponent(context.Background(), componentSpec(component))
			if err != nil {
				return fabricServer{}, fmt.Errorf("manager %q: creating %s: %w", entry.Name, component.Instance, err)
			}
			if status != remote.StatusOK {
				return fabricServer{}, fmt.Errorf("manager %q: creating %s: no factory for type %q",
					entry.Name, component.Instance, component.Type)
			}
		}
		managers[entry.Name] = manager
	}

	// Master/slave wiring needs every manager built first.
	for _, entry := range s.Managers {
		if entry.Parent == "" {
			continue
		}
		master, ok := managers[entry.Parent]
		if !ok {
			return fabricServer{}, fmt.Errorf("manager %q: parent %q not declared", entry.Name, entry.Parent)
		}
		slave := managers[entry.Name]
		slave.SetMaster(false)
		if _, err := slave.AddMasterManager(context.Background(), master); err != nil {
			return fabricServer{}, fmt.Errorf("manager %q: registering master %q: %w", entry.Name, entry.Parent, err)
		}
		if _, err := master.AddSlaveManager(context.Background(), slave); err != nil {
			return fabricServer{}, fmt.Errorf("manager %q: registering slave %q: %w", entry.Parent, entry.Name, err)
		}
	}

	for _, component := range s.Components {
		if component.Instance == "" || component.Type == "" {
			return fabricServer{}, fmt.Errorf("server %s: component needs instance and type", s.Listen)
		}
		target, ok := contexts[component.Directory]
		if !ok {
			return fabricServer{}, fmt.Errorf("component %q: directory %q not declared", component.Instance, component.Directory)
		}
		obj := fabric.NewComponent(component.Instance, component.Type)
		if len(component.Properties) > 0 {
			profile := remote.ComponentProfile{
				InstanceName: component.Instance,
				TypeName:     component.Type,
			}
			for _, name := range sortedKeys(component.Properties) {
				profile.Properties = append(profile.Properties,
					remote.Property{Name: name, Value: component.Properties[name]})
			}
			obj.SetProfile(profile)
		}
		target.Bind(remote.BindingName{ID: component.Instance, Kind: remote.KindTagComponent}, obj)
	}

	return fabricServer{locator: locator, root: root}, nil
}

// ensureDirectory creates the chain of contexts for a slash-separated
// path, reusing segments already built, and records every prefix in
// contexts.
func ensureDirectory(fabric *memfabric.Fabric, contexts map[string]*memfabric.Context, dirPath string) {
	parent := contexts[""]
	walked := ""
	for _, segment := range strings.Split(dirPath, "/") {
		if segment == "" {
			continue
		}
		if walked == "" {
			walked = segment
		} else {
			walked = walked + "/" + segment
		}
		child, ok := contexts[walked]
		if !ok {
			child = fabric.NewContext()
			parent.Bind(remote.BindingName{ID: segment, Kind: remote.KindTagContext}, child)
			contexts[walked] = child
		}
		parent = child
	}
}

// componentSpec renders a component entry in the manager create form
// "type?instance_name=x&key=value".
func componentSpec(component componentTopology) string {
	spec := component.Type + "?instance_name=" + component.Instance
	for _, name := range sortedKeys(component.Properties) {
		spec += "&" + name + "=" + component.Properties[name]
	}
	return spec
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
