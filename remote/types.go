// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"fmt"
	"strings"
)

// Status is a manager's verdict on a requested operation. A Status
// other than StatusOK is a rejection, not a transport failure: the
// call completed and the manager said no.
type Status int

const (
	StatusOK Status = iota
	StatusError
	StatusBadParameter
	StatusUnsupported
	StatusOutOfResources
	StatusPreconditionNotMet
)

var statusNames = map[Status]string{
	StatusOK:                 "ok",
	StatusError:              "error",
	StatusBadParameter:       "bad parameter",
	StatusUnsupported:        "unsupported",
	StatusOutOfResources:     "out of resources",
	StatusPreconditionNotMet: "precondition not met",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Property is one name/value pair from a manager or component profile.
// Profiles are ordered lists, not maps: the fabric defines the order
// and duplicate names are possible.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PropertyList is an ordered profile.
type PropertyList []Property

// PropertyMap flattens a property list into a lookup map. Later
// duplicates win, matching how the fabric itself interprets profiles.
func PropertyMap(list PropertyList) map[string]string {
	m := make(map[string]string, len(list))
	for _, p := range list {
		m[p.Name] = p.Value
	}
	return m
}

// Get returns the value of the first property with the given name and
// whether it was present.
func (l PropertyList) Get(name string) (string, bool) {
	for _, p := range l {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// BindingType distinguishes leaf objects from nested naming contexts
// in a directory listing.
type BindingType int

const (
	// BindingObject is a leaf: a manager, component, or unknown object.
	BindingObject BindingType = iota
	// BindingContext is a nested naming context.
	BindingContext
)

// BindingName identifies one entry in a naming context. The ID is the
// bare name; the Kind tag declares what the object claims to be:
// "mgr" for managers, "rtc" for components, anything else is opaque.
type BindingName struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Binding kind tags with meaning to the tree layer.
const (
	KindTagManager   = "mgr"
	KindTagComponent = "rtc"
	KindTagContext   = "ctx"
)

// String renders the binding name in its canonical "id.kind" form.
// The kind may be empty, in which case the dot is omitted.
func (n BindingName) String() string {
	if n.Kind == "" {
		return n.ID
	}
	return n.ID + "." + n.Kind
}

// ParseBindingName splits an "id.kind" string on its last dot. A
// string without a dot is all ID with an empty kind, matching how the
// naming service itself parses compound names.
func ParseBindingName(s string) BindingName {
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return BindingName{ID: s}
	}
	return BindingName{ID: s[:i], Kind: s[i+1:]}
}

// Binding is one listed entry of a naming context.
type Binding struct {
	Name BindingName `json:"name"`
	Type BindingType `json:"type"`
}

// ComponentProfile is the fixed identity block of a component.
type ComponentProfile struct {
	InstanceName string `json:"instance_name"`
	TypeName     string `json:"type_name"`
	Description  string `json:"description"`
	Vendor       string `json:"vendor"`
	Category     string `json:"category"`
	Version      string `json:"version"`
	// Properties carries everything beyond the fixed fields.
	Properties PropertyList `json:"properties,omitempty"`
}
