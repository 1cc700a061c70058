// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"errors"
	"strconv"
	"strings"

	"codello.dev/asn1tree/spec"
	"codello.dev/asn1tree/tlv"
)

var (
	// ErrTruncated indicates that the input ended before the end of a value.
	ErrTruncated = tlv.ErrTruncated
	// ErrTooDeep indicates that values are nested deeper than allowed.
	ErrTooDeep = tlv.ErrTooDeep
	// ErrNonCanonical indicates a valid BER encoding that is not valid DER.
	ErrNonCanonical = tlv.ErrNonCanonical

	ErrTagMismatch      = errors.New("tag mismatch")
	ErrMissingField     = errors.New("missing field")
	ErrNoMatchingChoice = errors.New("no matching choice alternative")
	ErrTooLarge         = errors.New("input too large")
	ErrTrailingData     = errors.New("trailing data")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidNative    = errors.New("invalid native value")
	ErrUnsupported      = errors.New("operation not supported")
	ErrOutOfRange       = errors.New("index out of range")
	ErrIncompatible     = errors.New("incompatible value")
)

// Error describes a failure at a specific node of a tree. Path locates the node
// as a dot-separated list of field names with element indexes in brackets,
// e.g. "certification_request_info.subject[0]". The root has an empty path.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return "asn1tree: " + pathPrefix(e.Path) + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// A TagMismatchError indicates an encoding that does not match the expected
// type.
type TagMismatchError struct {
	Expected *spec.Spec
	Actual   tlv.Header
	Path     string
}

func (e *TagMismatchError) Error() string {
	return "asn1tree: " + pathPrefix(e.Path) + "tag mismatch: expected " + e.Expected.String() + ", got " + e.Actual.String()
}

func (e *TagMismatchError) Unwrap() error {
	return ErrTagMismatch
}

// A MissingFieldError indicates that a required field is not present.
type MissingFieldError struct {
	Field string
	Path  string
}

func (e *MissingFieldError) Error() string {
	return "asn1tree: " + pathPrefix(e.Path) + "missing required field " + e.Field
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// A NoMatchingChoiceError indicates that no alternative of a CHOICE matches an
// encoding or a native value. Actual describes the encoding or the type of the
// native value.
type NoMatchingChoiceError struct {
	Choice *spec.Spec
	Actual string
	Path   string
}

func (e *NoMatchingChoiceError) Error() string {
	return "asn1tree: " + pathPrefix(e.Path) + "no alternative of " + e.Choice.String() + " matches " + e.Actual
}

func (e *NoMatchingChoiceError) Unwrap() error {
	return ErrNoMatchingChoice
}

// pathPrefix formats path for use in an error message.
func pathPrefix(path string) string {
	if path == "" {
		return ""
	}
	return path + ": "
}

// wrap attaches path to err. Errors that already carry a path are returned
// unchanged.
func wrap(path string, err error) error {
	switch err.(type) {
	case nil:
		return nil
	case *Error, *TagMismatchError, *MissingFieldError, *NoMatchingChoiceError:
		return err
	}
	return &Error{Path: path, Err: err}
}

// indexPath appends an element index to path.
func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// joinPath appends a field name to path.
func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	var b strings.Builder
	b.Grow(len(path) + len(name) + 1)
	b.WriteString(path)
	b.WriteByte('.')
	b.WriteString(name)
	return b.String()
}
