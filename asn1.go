// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asn1 defines the vocabulary shared by the packages of this module:
// ASN.1 tags and classes, the universal tag numbers of [Rec. ITU-T X.680], and
// a small set of Go types for ASN.1 values that have no natural Go
// counterpart.
//
// Parsing and encoding is implemented in subpackages:
//
//   - [codello.dev/asn1tree/tlv] reads and writes the tag-length-value headers
//     of [Rec. ITU-T X.690] over byte slices.
//   - [codello.dev/asn1tree/spec] describes the shape of ASN.1 types
//     declaratively: scalars, SEQUENCE, SET, SEQUENCE OF, SET OF, CHOICE and
//     ANY, including IMPLICIT and EXPLICIT tag overrides.
//   - [codello.dev/asn1tree/tree] combines both into a lazily parsed value tree
//     that converts to and from native Go values and re-encodes as DER.
//
// # Mapping of ASN.1 Types to Go Values
//
// The tree package converts ASN.1 values into the following Go values:
//
//   - BOOLEAN is a Go bool.
//   - INTEGER and ENUMERATED are [*math/big.Int] values. Integers are never
//     truncated to a machine word. Named numbers convert to their name.
//   - BIT STRING is a [BitString], or a [Set] of names if the type declares
//     named bits.
//   - OCTET STRING is a []byte.
//   - NULL is nil.
//   - OBJECT IDENTIFIER is a string: the registered name of the identifier, or
//     its dotted notation.
//   - The character string types are Go strings.
//   - UTCTime and GeneralizedTime are [time.Time] values.
//   - An unresolved ANY is a [RawValue].
//
// [Rec. ITU-T X.680]: https://www.itu.int/rec/T-REC-X.680
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
package asn1

import (
	"strconv"
	"strings"
)

// Tag constitutes an ASN.1 tag, consisting of its class and number. For
// details, see Section 8 of Rec. ITU-T X.680.
type Tag struct {
	Class  Class
	Number uint
}

// Class holds the class part of an ASN.1 tag. The class acts as a namespace for
// the tag number. A Class value is an unsigned 2-bit integer. Class values
// whose value exceeds 2 bits are invalid.
//
//go:generate stringer -type=Class -trimprefix=Class
type Class uint8

// IsValid reports whether c is a valid Class value.
func (c Class) IsValid() bool {
	return c <= 3
}

// Predefined [Class] constants. These are all the possible values that can be
// encoded in the [Class] type.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// Universal returns the [ClassUniversal] tag with number n.
func Universal(n uint) Tag { return Tag{ClassUniversal, n} }

// Application returns the [ClassApplication] tag with number n.
func Application(n uint) Tag { return Tag{ClassApplication, n} }

// ContextSpecific returns the [ClassContextSpecific] tag with number n.
func ContextSpecific(n uint) Tag { return Tag{ClassContextSpecific, n} }

// Private returns the [ClassPrivate] tag with number n.
func Private(n uint) Tag { return Tag{ClassPrivate, n} }

// String returns a string representation t in a format similar to the one used
// in ASN.1 notation. The tag number is enclosed by square brackets and prefixed
// with the class used. To avoid ambiguity the UNIVERSAL word is used for
// universal tags, although this is not valid ASN.1 syntax.
func (t Tag) String() string {
	if t.Class == ClassContextSpecific {
		return "[" + strconv.FormatUint(uint64(t.Number), 10) + "]"
	}
	return "[" + strings.ToUpper(t.Class.String()) + " " + strconv.FormatUint(uint64(t.Number), 10) + "]"
}

// TagReserved is a reserved tag number in the [ClassUniversal] namespace to be
// used by encoding rules. This assignment is defined in Rec. ITU-T X.680,
// Section 8, Table 1.
const TagReserved = 0

// These are some ASN.1 tag numbers are defined in the [ClassUniversal]
// namespace. These assignments are defined in Rec. ITU-T X.680, Section 8, Table
// 1.
const (
	TagBoolean          uint = 1
	TagInteger          uint = 2
	TagBitString        uint = 3
	TagOctetString      uint = 4
	TagNull             uint = 5
	TagOID              uint = 6
	TagObjectDescriptor uint = 7
	TagExternal         uint = 8
	TagReal             uint = 9
	TagEnumerated       uint = 10
	TagEmbeddedPDV      uint = 11
	TagUTF8String       uint = 12
	TagRelativeOID      uint = 13
	TagTime             uint = 14
	TagSequence         uint = 16
	TagSet              uint = 17
	TagNumericString    uint = 18
	TagPrintableString  uint = 19
	TagTeletexString    uint = 20
	TagT61String             = TagTeletexString
	TagVideotexString   uint = 21
	TagIA5String        uint = 22
	TagUTCTime          uint = 23
	TagGeneralizedTime  uint = 24
	TagGraphicString    uint = 25
	TagVisibleString    uint = 26
	TagISO646String          = TagVisibleString
	TagGeneralString    uint = 27
	TagUniversalString  uint = 28
	TagCharacterString  uint = 29
	TagBMPString        uint = 30
)
