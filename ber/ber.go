// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ber implements the content octet encodings of the ASN.1 Basic
// Encoding Rules (BER) and Distinguished Encoding Rules (DER) for the
// UNIVERSAL scalar types. The Basic Encoding Rules are defined in
// [Rec. ITU-T X.690].
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// The Parse functions of this package decode the content octets of a single
// primitive encoding. Tags and lengths are handled by the tlv package, strings
// using the constructed encoding are joined by [Segments] and [JoinBitString].
// The Append functions produce the DER content octets of a value.
//
// Parse functions accept every valid BER encoding. If an encoding is valid BER
// but not valid DER, the decoded value is returned together with a
// [*SyntaxError] wrapping [tlv.ErrNonCanonical]. Callers decide whether to
// reject or to tolerate such encodings.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package ber

import (
	"errors"
	"fmt"
	"strings"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/tlv"
)

// A SyntaxError suggests that the content octets of a data value are invalid
// for its type.
type SyntaxError struct {
	Tag asn1.Tag // where the syntax error occurred
	Err error
}

func (e *SyntaxError) Error() string {
	var s strings.Builder
	s.WriteString("syntax error")
	if e.Tag != (asn1.Tag{}) {
		s.WriteString(" decoding ")
		s.WriteString(e.Tag.String())
	}
	if e.Err != nil {
		s.WriteString(": ")
		s.WriteString(e.Err.Error())
	}
	return s.String()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// syntaxError creates a *SyntaxError with the given message.
func syntaxError(tag asn1.Tag, msg string) error {
	return &SyntaxError{tag, errors.New(msg)}
}

// nonCanonical creates a *SyntaxError wrapping [tlv.ErrNonCanonical].
func nonCanonical(tag asn1.Tag, msg string) error {
	return &SyntaxError{tag, fmt.Errorf("%w: %s", tlv.ErrNonCanonical, msg)}
}

// IsNonCanonical reports whether err only indicates a non-canonical encoding.
// In that case the value returned alongside err is valid.
func IsNonCanonical(err error) bool {
	return errors.Is(err, tlv.ErrNonCanonical)
}
