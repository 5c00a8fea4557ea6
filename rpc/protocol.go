// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"errors"
	"fmt"

	"github.com/componentfabric/comptree/lib/codec"
	"github.com/componentfabric/comptree/remote"
)

// Response is the wire envelope of every reply. Code classifies a
// failure so the client can rebuild a typed fault: a remote.FaultCode
// string, or codeNarrow with the narrow detail in Data. An empty Code
// on a failure is a plain server error.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Code  string           `cbor:"code,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// codeNarrow marks a failure whose Data carries a narrowDetail.
const codeNarrow = "narrow"

// Object class names reported by the describe action.
const (
	classContext   = "context"
	classManager   = "manager"
	classComponent = "component"
	classObject    = "object"
)

type describeResult struct {
	Class string `cbor:"class"`
}

type wireBinding struct {
	ID      string `cbor:"id"`
	Kind    string `cbor:"kind,omitempty"`
	Context bool   `cbor:"context,omitempty"`
}

type listResult struct {
	Bindings []wireBinding `cbor:"bindings"`
}

type refResult struct {
	Ref string `cbor:"ref"`
}

type refsResult struct {
	Refs []string `cbor:"refs"`
}

type wireProperty struct {
	Name  string `cbor:"name"`
	Value string `cbor:"value"`
}

type propertiesResult struct {
	Properties []wireProperty `cbor:"properties"`
}

type profilesResult struct {
	Profiles [][]wireProperty `cbor:"profiles"`
}

type statusResult struct {
	Status int `cbor:"status"`
}

type boolResult struct {
	Value bool `cbor:"value"`
}

type componentProfileResult struct {
	InstanceName string         `cbor:"instance_name"`
	TypeName     string         `cbor:"type_name"`
	Description  string         `cbor:"description,omitempty"`
	Vendor       string         `cbor:"vendor,omitempty"`
	Category     string         `cbor:"category,omitempty"`
	Version      string         `cbor:"version,omitempty"`
	Properties   []wireProperty `cbor:"properties,omitempty"`
}

type narrowDetail struct {
	Name     string `cbor:"name"`
	Expected string `cbor:"expected"`
	Actual   string `cbor:"actual,omitempty"`
}

func toWireProperties(list remote.PropertyList) []wireProperty {
	out := make([]wireProperty, len(list))
	for i, p := range list {
		out[i] = wireProperty{Name: p.Name, Value: p.Value}
	}
	return out
}

func fromWireProperties(list []wireProperty) remote.PropertyList {
	out := make(remote.PropertyList, len(list))
	for i, p := range list {
		out[i] = remote.Property{Name: p.Name, Value: p.Value}
	}
	return out
}

func toWireProfiles(lists []remote.PropertyList) [][]wireProperty {
	out := make([][]wireProperty, len(lists))
	for i, list := range lists {
		out[i] = toWireProperties(list)
	}
	return out
}

func fromWireProfiles(lists [][]wireProperty) []remote.PropertyList {
	out := make([]remote.PropertyList, len(lists))
	for i, list := range lists {
		out[i] = fromWireProperties(list)
	}
	return out
}

func toWireComponentProfile(p remote.ComponentProfile) componentProfileResult {
	return componentProfileResult{
		InstanceName: p.InstanceName,
		TypeName:     p.TypeName,
		Description:  p.Description,
		Vendor:       p.Vendor,
		Category:     p.Category,
		Version:      p.Version,
		Properties:   toWireProperties(p.Properties),
	}
}

func fromWireComponentProfile(r componentProfileResult) remote.ComponentProfile {
	return remote.ComponentProfile{
		InstanceName: r.InstanceName,
		TypeName:     r.TypeName,
		Description:  r.Description,
		Vendor:       r.Vendor,
		Category:     r.Category,
		Version:      r.Version,
		Properties:   fromWireProperties(r.Properties),
	}
}

// failureResponse maps a handler error to the wire envelope. Faults
// keep their code; narrow errors carry their detail as data so the
// client can rebuild the typed error; anything else is a plain
// message.
func failureResponse(err error) Response {
	var narrow *remote.NarrowError
	if errors.As(err, &narrow) {
		data, merr := codec.Marshal(narrowDetail{
			Name:     narrow.Name,
			Expected: narrow.Expected,
			Actual:   narrow.Actual,
		})
		if merr == nil {
			return Response{Error: narrow.Error(), Code: codeNarrow, Data: data}
		}
		return Response{Error: narrow.Error(), Code: codeNarrow}
	}
	var fault *remote.Fault
	if errors.As(err, &fault) {
		return Response{Error: fault.Detail, Code: string(fault.Code)}
	}
	return Response{Error: err.Error()}
}

// failureError rebuilds the typed error a failure response carries.
func failureError(action string, response *Response) error {
	switch response.Code {
	case "":
		return &CallError{Action: action, Message: response.Error}
	case codeNarrow:
		var detail narrowDetail
		if err := codec.Unmarshal(response.Data, &detail); err != nil {
			return fmt.Errorf("decoding narrow detail for %q: %w", action, err)
		}
		return &remote.NarrowError{
			Name:     detail.Name,
			Expected: detail.Expected,
			Actual:   detail.Actual,
		}
	default:
		return &remote.Fault{Code: remote.FaultCode(response.Code), Detail: response.Error}
	}
}

// CallError is a failure response without a fault code: the server
// rejected the request at the protocol level.
type CallError struct {
	Action  string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("rpc: %q failed: %s", e.Action, e.Message)
}
