// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package derr implements the error taxonomy used throughout dar: a Kind,
// an optional Severity, a message, and an optional chained cause. Errors
// constructed with E can be inspected with Is and Match, and survive gob
// round-trips so that a dar_manager restore plan running multiple dar
// invocations can propagate structured failures between them.
package derr

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

func init() {
	gob.Register(new(Error))
}

// Separator defines the separation string inserted between
// chained errors in error messages.
var Separator = ":\n\t"

// Kind defines the category of an error. Kinds are semantically meaningful:
// orchestration uses them to decide whether an operation is recoverable
// locally, must be surfaced to the user-interaction layer, or is fatal.
type Kind int

const (
	// Other indicates an unclassified error.
	Other Kind = iota
	// LimitOverflow indicates a fixed-width counter has been exceeded.
	LimitOverflow
	// Range indicates an argument is outside its contract.
	Range
	// Memory indicates an allocation failure.
	Memory
	// SecureMemory indicates a failure allocating non-paged memory for
	// credential material, distinct from an ordinary Memory failure.
	SecureMemory
	// Hardware indicates a read/write primitive reported a device fault.
	Hardware
	// UserAbort indicates the user answered no to a pause, or cancelled.
	UserAbort
	// Data indicates a read or comparison found corrupt or mismatching data.
	Data
	// Script indicates an external hook exited non-zero.
	Script
	// LibraryCall indicates a contract violation by a caller of the library
	// surface.
	LibraryCall
	// Feature indicates the operation requests a capability disabled at
	// build time.
	Feature
	// ThreadCancel indicates a cooperative cancellation token fired.
	ThreadCancel
	// Bug indicates an internal invariant violation. Always fatal.
	Bug

	maxKind
)

var kinds = map[Kind]string{
	Other:         "unclassified error",
	LimitOverflow: "fixed-width limit exceeded",
	Range:         "argument out of range",
	Memory:        "memory allocation failure",
	SecureMemory:  "secure memory allocation failure",
	Hardware:      "hardware fault",
	UserAbort:     "user abort",
	Data:          "data error",
	Script:        "script error",
	LibraryCall:   "library call contract violation",
	Feature:       "feature disabled at build time",
	ThreadCancel:  "thread cancelled",
	Bug:           "internal bug",
}

// kindStdErrs maps some Kinds to the standard library's equivalent.
var kindStdErrs = map[Kind]error{
	ThreadCancel: context.Canceled,
	UserAbort:    context.Canceled,
}

// String returns a human-readable explanation of the error kind k.
func (k Kind) String() string {
	return kinds[k]
}

// Severity defines an Error's severity. An Error's severity determines
// whether an error-producing operation may be retried or not, and whether
// it is recovered locally, surfaced up to the caller, or fatal.
type Severity int

const (
	// Retriable indicates that the failing operation can be safely retried
	// regardless of application context (e.g. SAR's ENOSPC pause).
	Retriable Severity = -2
	// Temporary indicates the underlying error condition is likely
	// temporary; retry is application-specific (e.g. a missing next slice
	// while the operator changes media).
	Temporary Severity = -1
	// Unknown is the default severity.
	Unknown Severity = 0
	// Fatal indicates the underlying error condition is unrecoverable.
	Fatal Severity = 1
)

var severities = map[Severity]string{
	Retriable: "retriable",
	Temporary: "temporary",
	Unknown:   "unknown",
	Fatal:     "fatal",
}

// String returns a human-readable explanation of the error severity s.
func (s Severity) String() string {
	return severities[s]
}

// Error is the standard error type, carrying a kind, an optional severity,
// a message, and an optional cause. Construct with E.
type Error struct {
	Kind     Kind
	Severity Severity
	Message  string
	Err      error
}

// E constructs a new error from the provided arguments, in the style of
// github.com/dar-go/dar/errors.E:
//
//   - Kind: sets the Error's kind
//   - Severity: sets the Error's severity
//   - string: appended (space-separated) to the Error's message
//   - *Error: copies the error and sets it as cause
//   - error: sets the Error's cause
//
// If no Kind is given but a cause is, E classifies common causes (context
// cancellation, a nested *Error's Kind) automatically.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("no args")
	}
	e := new(Error)
	var msg strings.Builder
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case Severity:
			e.Severity = arg
		case string:
			if msg.Len() > 0 {
				msg.WriteString(" ")
			}
			msg.WriteString(arg)
		case *Error:
			cp := *arg
			if len(args) == 1 {
				return &cp
			}
			e.Err = &cp
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			return &Error{
				Kind:    LibraryCall,
				Message: fmt.Sprintf("derr.E: bad call (type %T) from %s:%d: %v", arg, file, line, arg),
			}
		}
	}
	e.Message = msg.String()
	if e.Err == nil {
		return e
	}
	switch prev := e.Err.(type) {
	case *Error:
		if prev.Kind == e.Kind || e.Kind == Other {
			e.Kind = prev.Kind
			prev.Kind = Other
		}
		if prev.Severity == e.Severity || e.Severity == Unknown {
			e.Severity = prev.Severity
			prev.Severity = Unknown
		}
	default:
		if err, ok := e.Err.(interface{ Temporary() bool }); ok && err.Temporary() && e.Severity == Unknown {
			e.Severity = Temporary
		}
		if e.Kind == Other {
			for kind := Kind(0); kind < maxKind; kind++ {
				stdErr := kindStdErrs[kind]
				if stdErr != nil && errors.Is(e.Err, stdErr) {
					e.Kind = kind
					break
				}
			}
		}
		if e.Kind == Other && os.IsNotExist(e.Err) {
			e.Kind = Data
		}
	}
	return e
}

// Recover recovers any error into an *Error, wrapping it with kind Other if
// necessary.
func Recover(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return E(err).(*Error)
}

// Error returns a human readable string describing this error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b bytes.Buffer
	e.writeError(&b)
	return b.String()
}

func (e *Error) writeError(b *bytes.Buffer) {
	if e.Message != "" {
		pad(b, ": ")
		b.WriteString(e.Message)
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Severity != Unknown {
		pad(b, " ")
		b.WriteByte('(')
		b.WriteString(e.Severity.String())
		b.WriteByte(')')
	}
	if e.Err == nil {
		return
	}
	if err, ok := e.Err.(*Error); ok {
		pad(b, Separator)
		b.WriteString(err.Error())
	} else {
		pad(b, ": ")
		b.WriteString(e.Err.Error())
	}
}

// Temporary tells whether this error is temporary or retriable.
func (e *Error) Temporary() bool {
	return e.Severity <= Temporary
}

// Unwrap returns e's cause, if any, or nil.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is tells whether e.Kind corresponds to err via kindStdErrs.
func (e *Error) Is(err error) bool {
	if err == nil {
		return false
	}
	return err == kindStdErrs[e.Kind]
}

type gobError struct {
	Kind     Kind
	Severity Severity
	Message  string
	Next     *gobError
	Err      string
}

func (ge *gobError) toError() *Error {
	e := &Error{Kind: ge.Kind, Severity: ge.Severity, Message: ge.Message}
	if ge.Next != nil {
		e.Err = ge.Next.toError()
	} else if ge.Err != "" {
		e.Err = errors.New(ge.Err)
	}
	return e
}

func (e *Error) toGobError() *gobError {
	ge := &gobError{Kind: e.Kind, Severity: e.Severity, Message: e.Message}
	if e.Err == nil {
		return ge
	}
	switch arg := e.Err.(type) {
	case *Error:
		ge.Next = arg.toGobError()
	default:
		ge.Err = arg.Error()
	}
	return ge
}

// GobEncode encodes the error for gob, replacing any opaque underlying
// error with its error string.
func (e *Error) GobEncode() ([]byte, error) {
	var b bytes.Buffer
	err := gob.NewEncoder(&b).Encode(e.toGobError())
	return b.Bytes(), err
}

// GobDecode decodes an error encoded by GobEncode.
func (e *Error) GobDecode(p []byte) error {
	var ge gobError
	if err := gob.NewDecoder(bytes.NewBuffer(p)).Decode(&ge); err != nil {
		return err
	}
	*e = *ge.toError()
	return nil
}

// Is tells whether err has the given kind, following the Other-kind chain.
func Is(kind Kind, err error) bool {
	if err == nil {
		return false
	}
	return is(kind, Recover(err))
}

func is(kind Kind, e *Error) bool {
	if e.Kind != Other {
		return e.Kind == kind
	}
	if e.Err != nil {
		if e2, ok := e.Err.(*Error); ok {
			return is(kind, e2)
		}
	}
	return false
}

// IsTemporary tells whether the provided error is likely temporary or
// retriable.
func IsTemporary(err error) bool {
	return Recover(err).Temporary()
}

// Match tells whether every nonempty field in err1 matches the
// corresponding field in err2, recursing on chained errors. Intended for
// tests.
func Match(err1, err2 error) bool {
	e1, e2 := Recover(err1), Recover(err2)
	if e1.Kind != Other && e1.Kind != e2.Kind {
		return false
	}
	if e1.Severity != Unknown && e1.Severity != e2.Severity {
		return false
	}
	if e1.Message != "" && e1.Message != e2.Message {
		return false
	}
	if e1.Err != nil {
		if e2.Err == nil {
			return false
		}
		switch e1.Err.(type) {
		case *Error:
			return Match(e1.Err, e2.Err)
		default:
			return e1.Err.Error() == e2.Err.Error()
		}
	}
	return true
}

// Visit calls callback for every error object in the chain, including err
// itself, stopping after the first non-*Error cause.
func Visit(err error, callback func(err error)) {
	callback(err)
	for {
		next, ok := err.(*Error)
		if !ok {
			break
		}
		err = next.Err
		callback(err)
	}
}

// New is synonymous with errors.New, provided so callers need one import.
func New(msg string) error {
	return errors.New(msg)
}

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}
