// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"errors"
	"fmt"
)

// FaultCode classifies a remote failure into one of the categories the
// tree layer reacts to. Codes are stable strings so transports can
// carry them on the wire.
type FaultCode string

const (
	// FaultUnreachable: the peer could not be reached at all
	// (connection refused, reset, dead socket). The tree treats the
	// corresponding node as a zombie.
	FaultUnreachable FaultCode = "unreachable"
	// FaultNotFound: the peer is alive but the addressed object no
	// longer exists.
	FaultNotFound FaultCode = "not-found"
	// FaultBadParameter: the peer rejected an argument of the call.
	FaultBadParameter FaultCode = "bad-parameter"
	// FaultUnsupported: the peer does not implement the requested
	// operation. Listing calls that fail this way yield zero entries
	// rather than an error.
	FaultUnsupported FaultCode = "unsupported"
	// FaultApplication: the peer raised an application-level fault
	// where a status reply was expected. Detail carries the
	// peer-supplied reason.
	FaultApplication FaultCode = "application"
)

// Fault is a structured remote failure. Callers branch on the code via
// errors.As or the Is* helpers:
//
//	if remote.IsUnreachable(err) {
//	    markZombie()
//	}
type Fault struct {
	// Code is the failure category.
	Code FaultCode
	// Detail is the transport- or peer-supplied description.
	Detail string
}

func (f *Fault) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("remote fault: %s", f.Code)
	}
	return fmt.Sprintf("remote fault: %s: %s", f.Code, f.Detail)
}

// Faultf builds a *Fault with a formatted detail string.
func Faultf(code FaultCode, format string, args ...any) *Fault {
	return &Fault{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// IsFault reports whether err is a *Fault with the given code.
func IsFault(err error, code FaultCode) bool {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Code == code
	}
	return false
}

// IsUnreachable reports whether err means the peer could not be reached.
func IsUnreachable(err error) bool { return IsFault(err, FaultUnreachable) }

// IsNotFound reports whether err means the addressed object is gone.
func IsNotFound(err error) bool { return IsFault(err, FaultNotFound) }

// IsBadParameter reports whether err means the peer rejected an argument.
func IsBadParameter(err error) bool { return IsFault(err, FaultBadParameter) }

// IsUnsupported reports whether err means the peer lacks the operation.
func IsUnsupported(err error) bool { return IsFault(err, FaultUnsupported) }

// IsApplication reports whether err is an application-level fault.
func IsApplication(err error) bool { return IsFault(err, FaultApplication) }

// NarrowError reports that a binding resolved to an object of the
// wrong kind: the name exists, the object answered, but it is not what
// the caller asked for. This is distinct from every Fault category
// because the remote side did nothing wrong.
type NarrowError struct {
	// Name is the binding that was resolved.
	Name string
	// Expected is the kind the caller asked for ("manager",
	// "component", "naming context").
	Expected string
	// Actual is the kind the object reported, if known.
	Actual string
}

func (e *NarrowError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("remote: %s is not a %s", e.Name, e.Expected)
	}
	return fmt.Sprintf("remote: %s is a %s, not a %s", e.Name, e.Actual, e.Expected)
}
