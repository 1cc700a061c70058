// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spec implements declarative descriptors for ASN.1 types. A [Spec]
// names a type variant (its [Kind]) and, for containers, the shape of the
// contained values. Specs are immutable after construction and can be shared
// freely between goroutines and trees.
//
// Schemas are built from the constructor functions of this package:
//
//	var AlgorithmIdentifier = spec.Sequence("AlgorithmIdentifier",
//		spec.Field{Name: "algorithm", Spec: AlgorithmOID},
//		spec.Field{Name: "parameters", Spec: spec.Any(), Optional: true,
//			Dispatch: &spec.Dispatch{By: "algorithm", Registry: Parameters}},
//	)
//
// # Tagging
//
// [Implicit] replaces the tag of a type. The resulting encoding keeps the
// constructed bit and the content octets of the underlying type. [Explicit]
// wraps the complete encoding of the underlying type in an additional
// constructed encoding carrying the new tag. Implicit tagging of an untagged
// CHOICE or ANY type is not possible, because their encodings need the
// original tag to be interpreted.
package spec

import (
	"strings"

	"codello.dev/asn1tree"
)

// Kind identifies the type variant of a [Spec].
//
//go:generate stringer -type=Kind -trimprefix=Kind
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBoolean
	KindInteger
	KindBitString
	KindOctetString
	KindNull
	KindObjectIdentifier
	KindEnumerated
	KindUTF8String
	KindNumericString
	KindPrintableString
	KindTeletexString
	KindIA5String
	KindVisibleString
	KindUniversalString
	KindBMPString
	KindUTCTime
	KindGeneralizedTime
	KindSequence
	KindSet
	KindSequenceOf
	KindSetOf
	KindChoice
	KindAny
)

// universalTags maps each kind to its tag number in the UNIVERSAL class.
var universalTags = [...]uint{
	KindBoolean:          asn1.TagBoolean,
	KindInteger:          asn1.TagInteger,
	KindBitString:        asn1.TagBitString,
	KindOctetString:      asn1.TagOctetString,
	KindNull:             asn1.TagNull,
	KindObjectIdentifier: asn1.TagOID,
	KindEnumerated:       asn1.TagEnumerated,
	KindUTF8String:       asn1.TagUTF8String,
	KindNumericString:    asn1.TagNumericString,
	KindPrintableString:  asn1.TagPrintableString,
	KindTeletexString:    asn1.TagTeletexString,
	KindIA5String:        asn1.TagIA5String,
	KindVisibleString:    asn1.TagVisibleString,
	KindUniversalString:  asn1.TagUniversalString,
	KindBMPString:        asn1.TagBMPString,
	KindUTCTime:          asn1.TagUTCTime,
	KindGeneralizedTime:  asn1.TagGeneralizedTime,
	KindSequence:         asn1.TagSequence,
	KindSet:              asn1.TagSet,
	KindSequenceOf:       asn1.TagSequence,
	KindSetOf:            asn1.TagSet,
}

// UniversalTag returns the default tag of values of kind k. The second return
// value is false for [KindChoice] and [KindAny] which have no tag of their own.
func UniversalTag(k Kind) (asn1.Tag, bool) {
	if k == KindInvalid || k >= KindChoice {
		return asn1.Tag{}, false
	}
	return asn1.Universal(universalTags[k]), true
}

// IsContainer reports whether values of kind k always use the constructed
// encoding.
func (k Kind) IsContainer() bool {
	return k >= KindSequence && k <= KindSetOf
}

// IsString reports whether values of kind k are string types. In BER string
// types may use the constructed encoding.
func (k Kind) IsString() bool {
	switch k {
	case KindBitString, KindOctetString, KindUTF8String, KindNumericString,
		KindPrintableString, KindTeletexString, KindIA5String,
		KindVisibleString, KindUniversalString, KindBMPString, KindUTCTime,
		KindGeneralizedTime:
		return true
	}
	return false
}

// Tagging describes how the tag of a [Spec] has been overridden.
type Tagging uint8

const (
	TaggingNone Tagging = iota
	TaggingImplicit
	TaggingExplicit
)

// Spec is an immutable descriptor of an ASN.1 type. Specs are created by the
// constructor functions of this package and must not be modified afterward.
type Spec struct {
	kind    Kind
	name    string
	tag     asn1.Tag
	tagging Tagging
	inner   *Spec // explicitly tagged type

	fields []Field // SEQUENCE, SET and CHOICE alternatives
	elem   *Spec   // SEQUENCE OF and SET OF

	values   map[int64]string // INTEGER and ENUMERATED
	bits     map[int]string   // BIT STRING
	oids     map[string]string
	contains *Spec // OCTET STRING and BIT STRING
	hook     *NativeHook
}

// newSpec creates a Spec of kind k. Untagged CHOICE and ANY specs carry no tag.
func newSpec(k Kind, name string) *Spec {
	s := &Spec{kind: k, name: name}
	s.tag, _ = UniversalTag(k)
	return s
}

func Boolean() *Spec          { return newSpec(KindBoolean, "BOOLEAN") }
func Integer() *Spec          { return newSpec(KindInteger, "INTEGER") }
func Enumerated() *Spec       { return newSpec(KindEnumerated, "ENUMERATED") }
func BitString() *Spec        { return newSpec(KindBitString, "BIT STRING") }
func OctetString() *Spec      { return newSpec(KindOctetString, "OCTET STRING") }
func Null() *Spec             { return newSpec(KindNull, "NULL") }
func ObjectIdentifier() *Spec { return newSpec(KindObjectIdentifier, "OBJECT IDENTIFIER") }
func UTF8String() *Spec       { return newSpec(KindUTF8String, "UTF8String") }
func NumericString() *Spec    { return newSpec(KindNumericString, "NumericString") }
func PrintableString() *Spec  { return newSpec(KindPrintableString, "PrintableString") }
func TeletexString() *Spec    { return newSpec(KindTeletexString, "TeletexString") }
func IA5String() *Spec        { return newSpec(KindIA5String, "IA5String") }
func VisibleString() *Spec    { return newSpec(KindVisibleString, "VisibleString") }
func UniversalString() *Spec  { return newSpec(KindUniversalString, "UniversalString") }
func BMPString() *Spec        { return newSpec(KindBMPString, "BMPString") }
func UTCTime() *Spec          { return newSpec(KindUTCTime, "UTCTime") }
func GeneralizedTime() *Spec  { return newSpec(KindGeneralizedTime, "GeneralizedTime") }
func Any() *Spec              { return newSpec(KindAny, "ANY") }

// SequenceOf returns the spec of a SEQUENCE OF elem.
func SequenceOf(elem *Spec) *Spec {
	if elem == nil {
		panic("spec: nil element spec")
	}
	s := newSpec(KindSequenceOf, "SEQUENCE OF "+elem.Name())
	s.elem = elem
	return s
}

// SetOf returns the spec of a SET OF elem.
func SetOf(elem *Spec) *Spec {
	if elem == nil {
		panic("spec: nil element spec")
	}
	s := newSpec(KindSetOf, "SET OF "+elem.Name())
	s.elem = elem
	return s
}

// Implicit returns a copy of s using tag instead of its own tag. If s is
// explicitly tagged, the tag of the explicit wrapper is replaced. Implicit
// panics if s is an untagged CHOICE or ANY.
func Implicit(tag asn1.Tag, s *Spec) *Spec {
	if s.tagging == TaggingNone && (s.kind == KindChoice || s.kind == KindAny) {
		panic("spec: implicit tagging of untagged " + s.kind.String() + " " + s.name)
	}
	c := *s
	c.tag = tag
	if c.tagging == TaggingNone {
		c.tagging = TaggingImplicit
	}
	return &c
}

// Explicit returns a spec wrapping the encoding of s in a constructed encoding
// with the given tag.
func Explicit(tag asn1.Tag, s *Spec) *Spec {
	return &Spec{
		kind:    s.kind,
		name:    s.name,
		tag:     tag,
		tagging: TaggingExplicit,
		inner:   s,
	}
}

// Kind returns the type variant of s. For explicitly tagged specs this is the
// kind of the wrapped spec.
func (s *Spec) Kind() Kind { return s.kind }

// Name returns the type name of s. For scalar types this is the ASN.1 type name.
func (s *Spec) Name() string { return s.name }

// Tagging returns how the tag of s has been overridden.
func (s *Spec) Tagging() Tagging { return s.tagging }

// Tag returns the outermost tag of values of s. The second return value is
// false for untagged CHOICE and ANY specs.
func (s *Spec) Tag() (asn1.Tag, bool) {
	if s.tagging == TaggingNone && (s.kind == KindChoice || s.kind == KindAny) {
		return asn1.Tag{}, false
	}
	return s.tag, true
}

// Inner returns the spec wrapped by an explicitly tagged spec or nil.
func (s *Spec) Inner() *Spec { return s.inner }

// Base returns the innermost spec that is not explicitly tagged. The encoding
// of a value of s contains one additional TLV layer for every explicit tag
// between s and its base.
func (s *Spec) Base() *Spec {
	for s.tagging == TaggingExplicit {
		s = s.inner
	}
	return s
}

// ExplicitTags returns the tags of the explicit wrappers of s, outermost first.
func (s *Spec) ExplicitTags() []asn1.Tag {
	var tags []asn1.Tag
	for ; s.tagging == TaggingExplicit; s = s.inner {
		tags = append(tags, s.tag)
	}
	return tags
}

// Constructed reports whether DER encodings of s use the constructed encoding.
// The result is meaningless for untagged CHOICE and ANY.
func (s *Spec) Constructed() bool {
	return s.tagging == TaggingExplicit || s.kind.IsContainer()
}

// Matches reports whether an encoding with the given tag and constructed bit
// can start a value of s. An untagged CHOICE matches if any of its
// alternatives matches, an untagged ANY matches every encoding.
func (s *Spec) Matches(tag asn1.Tag, constructed bool) bool {
	switch {
	case s.tagging == TaggingExplicit:
		return s.tag == tag && constructed
	case s.kind == KindAny:
		return true
	case s.kind == KindChoice && s.tagging == TaggingNone:
		for _, alt := range s.fields {
			if alt.Spec.Matches(tag, constructed) {
				return true
			}
		}
		return false
	case s.tag != tag:
		return false
	case s.kind.IsContainer():
		return constructed
	case s.kind.IsString():
		return true
	default:
		return !constructed
	}
}

// Fields returns the fields of a SEQUENCE or SET or the alternatives of a
// CHOICE. The returned slice must not be modified.
func (s *Spec) Fields() []Field { return s.Base().fields }

// FieldIndex returns the index of the field with the given name or -1.
func (s *Spec) FieldIndex(name string) int {
	for i, f := range s.Base().fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Elem returns the element spec of a SEQUENCE OF or SET OF.
func (s *Spec) Elem() *Spec { return s.Base().elem }

// Contains returns the spec of the value encapsulated in an OCTET STRING or BIT
// STRING or nil.
func (s *Spec) Contains() *Spec { return s.Base().contains }

// Hook returns the native hook of s or nil.
func (s *Spec) Hook() *NativeHook { return s.Base().hook }

// String returns a description of s in ASN.1 notation.
func (s *Spec) String() string {
	var b strings.Builder
	for ; ; s = s.inner {
		if s.tagging != TaggingNone {
			b.WriteString(s.tag.String())
			if s.tagging == TaggingExplicit {
				b.WriteString(" EXPLICIT ")
				continue
			}
			b.WriteString(" IMPLICIT ")
		}
		b.WriteString(s.name)
		return b.String()
	}
}

// Substitute returns r tagged the same way as s. It is used to replace an
// open type by the type selected through a [Dispatch]. Explicit wrappers of s
// are kept, an implicit tag of s replaces the tag of r.
func (s *Spec) Substitute(r *Spec) *Spec {
	switch s.tagging {
	case TaggingExplicit:
		return Explicit(s.tag, s.inner.Substitute(r))
	case TaggingImplicit:
		return Implicit(s.tag, r)
	default:
		return r
	}
}

// modify returns a copy of the base of s with f applied, keeping the tagging
// of s.
func (s *Spec) modify(f func(*Spec)) *Spec {
	if s.tagging == TaggingExplicit {
		c := *s
		c.inner = s.inner.modify(f)
		return &c
	}
	c := *s
	f(&c)
	return &c
}

// Named returns a copy of s with the type name set to name.
func (s *Spec) Named(name string) *Spec {
	c := *s
	c.name = name
	if c.tagging == TaggingExplicit {
		c.inner = s.inner.Named(name)
	}
	return &c
}
