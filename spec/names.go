// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"maps"

	"codello.dev/asn1tree"
)

// WithValues returns a copy of an INTEGER or ENUMERATED spec with named
// numbers. Named values are represented by their name in native form.
func (s *Spec) WithValues(values map[int64]string) *Spec {
	if k := s.kind; k != KindInteger && k != KindEnumerated {
		panic("spec: named values on " + k.String())
	}
	values = maps.Clone(values)
	return s.modify(func(c *Spec) { c.values = values })
}

// ValueName returns the name of the number v or false.
func (s *Spec) ValueName(v int64) (string, bool) {
	name, ok := s.Base().values[v]
	return name, ok
}

// NamedValue returns the number with the given name or false.
func (s *Spec) NamedValue(name string) (int64, bool) {
	for v, n := range s.Base().values {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// WithBits returns a copy of a BIT STRING spec with named bits. The native form
// of a named bit string is the set of the names of all bits set.
func (s *Spec) WithBits(bits map[int]string) *Spec {
	if s.kind != KindBitString {
		panic("spec: named bits on " + s.kind.String())
	}
	bits = maps.Clone(bits)
	return s.modify(func(c *Spec) { c.bits = bits })
}

// HasNamedBits reports whether s is a BIT STRING with named bits.
func (s *Spec) HasNamedBits() bool { return len(s.Base().bits) > 0 }

// BitName returns the name of bit i or false.
func (s *Spec) BitName(i int) (string, bool) {
	name, ok := s.Base().bits[i]
	return name, ok
}

// NamedBit returns the index of the bit with the given name or false.
func (s *Spec) NamedBit(name string) (int, bool) {
	for i, n := range s.Base().bits {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// WithOIDNames returns a copy of an OBJECT IDENTIFIER spec that maps the given
// object identifiers (in dotted notation) to names. Known object identifiers
// are represented by their name in native form.
func (s *Spec) WithOIDNames(names map[string]string) *Spec {
	if s.kind != KindObjectIdentifier {
		panic("spec: OID names on " + s.kind.String())
	}
	names = maps.Clone(names)
	return s.modify(func(c *Spec) { c.oids = names })
}

// OIDName returns the name of oid or false.
func (s *Spec) OIDName(oid asn1.ObjectIdentifier) (string, bool) {
	name, ok := s.Base().oids[oid.String()]
	return name, ok
}

// NamedOID resolves a name or a dotted object identifier.
func (s *Spec) NamedOID(name string) (asn1.ObjectIdentifier, bool) {
	for dotted, n := range s.Base().oids {
		if n == name {
			oid, err := asn1.ParseObjectIdentifier(dotted)
			return oid, err == nil
		}
	}
	oid, err := asn1.ParseObjectIdentifier(name)
	return oid, err == nil && oid.IsValid()
}

// Containing returns a copy of an OCTET STRING or BIT STRING spec whose content
// octets are the DER encoding of a value of inner.
func (s *Spec) Containing(inner *Spec) *Spec {
	if k := s.kind; k != KindOctetString && k != KindBitString {
		panic("spec: encapsulated value in " + k.String())
	}
	return s.modify(func(c *Spec) { c.contains = inner })
}

// NativeHook reshapes the native representation of values of a spec. ToNative
// is applied to the result of the default conversion. FromNative is applied to
// input values before they are converted. Either function may be nil.
type NativeHook struct {
	ToNative   func(any) (any, error)
	FromNative func(any) (any, error)
}

// WithHook returns a copy of s using the given hook.
func (s *Spec) WithHook(h NativeHook) *Spec {
	return s.modify(func(c *Spec) { c.hook = &h })
}
