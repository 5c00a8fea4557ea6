// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import "strings"

// ParsePath splits a textual node path into the element list used by
// NodeAt, plus an optional trailing ":suffix" on the last element
// (used by callers to address a sub-resource of a component, such as
// a port).
//
// A leading "/" becomes the first element, matching the root node's
// name; repeated slashes collapse. "." elements are dropped and ".."
// elements drop their predecessor. A path reduced to nothing becomes
// the root path.
//
//	"/localhost/manager.mgr"   -> ["/", "localhost", "manager.mgr"], ""
//	"localhost/in0.rtc:in"     -> ["localhost", "in0.rtc"], "in"
//	"/localhost/a/../b/."      -> ["/", "localhost", "b"], ""
func ParsePath(path string) ([]string, string, error) {
	if path == "" {
		return nil, "", &BadPathError{Path: path}
	}

	bits := strings.Split(strings.TrimLeft(path, "/"), "/")

	var suffix string
	if last := bits[len(bits)-1]; last != "" {
		parts := strings.Split(last, ":")
		switch len(parts) {
		case 1:
		case 2:
			bits[len(bits)-1] = parts[0]
			suffix = parts[1]
		default:
			return nil, "", &BadPathError{Path: path}
		}
	}

	if strings.HasPrefix(path, "/") {
		bits = append([]string{"/"}, bits...)
	}

	var condensed []string
	for _, bit := range bits {
		switch bit {
		case "", ".":
			continue
		case "..":
			if len(condensed) > 0 {
				condensed = condensed[:len(condensed)-1]
			}
			continue
		}
		condensed = append(condensed, bit)
	}
	if len(condensed) == 0 {
		condensed = []string{"/"}
	}
	return condensed, suffix, nil
}
