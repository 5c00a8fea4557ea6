// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import "fmt"

// Kind discriminates the closed set of node variants.
type Kind int

const (
	KindRoot Kind = iota
	KindNameServer
	KindDirectory
	KindManager
	KindComponent
	KindUnknown
)

var kindNames = map[Kind]string{
	KindRoot:       "root",
	KindNameServer: "name server",
	KindDirectory:  "directory",
	KindManager:    "manager",
	KindComponent:  "component",
	KindUnknown:    "unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}
