// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"math/big"
	"strconv"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/spec"
)

// Native returns the native representation of v. The result is cached until
// v or one of its descendants is modified. Callers must not modify the
// returned value.
//
// Natives are derived from the kind of v:
//
//	BOOLEAN                  bool
//	INTEGER, ENUMERATED      *big.Int, or the name of a named value
//	BIT STRING               asn1.BitString, or asn1.Set[string] for named bits
//	OCTET STRING             []byte
//	NULL                     nil
//	OBJECT IDENTIFIER        dotted string, or the registered name
//	string types             string
//	UTCTime, GeneralizedTime time.Time
//	SEQUENCE, SET            Map with an entry for every field
//	SEQUENCE OF, SET OF      []any
//	CHOICE                   native of the selected alternative
//	ANY                      asn1.RawValue
//
// OCTET STRING and BIT STRING values with an encapsulated spec return the
// native of the encapsulated value. Absent optional fields are nil in the
// resulting [Map], absent fields with a default hold the default.
func (v *Value) Native() (any, error) {
	if v == nil {
		return nil, nil
	}
	rev := v.rev
	if v.nativeOK && v.nativeRev == rev {
		return v.native, nil
	}
	x, err := v.toNative()
	if err != nil {
		return nil, err
	}
	v.native, v.nativeRev, v.nativeOK = x, rev, true
	v.advance(StateExpanded)
	return x, nil
}

// toNative computes the native representation of v.
func (v *Value) toNative() (any, error) {
	base := v.spec.Base()
	var (
		x   any
		err error
	)
	switch base.Kind() {
	case spec.KindChoice:
		x, err = v.altVal.Native()
	case spec.KindAny:
		x = asn1.RawValue{Tag: v.elem.Tag, Constructed: v.elem.Constructed, Bytes: v.elem.Content, FullBytes: v.elem.Full}
	case spec.KindSequence, spec.KindSet:
		x, err = v.mapNative()
	case spec.KindSequenceOf, spec.KindSetOf:
		x, err = v.listNative()
	default:
		if base.Contains() != nil {
			var inner *Value
			if inner, err = v.Parsed(); err == nil {
				x, err = inner.Native()
			}
		} else {
			x, err = v.scalarNative()
		}
	}
	if err != nil {
		return nil, err
	}
	if h := base.Hook(); h != nil && h.ToNative != nil {
		if x, err = h.ToNative(x); err != nil {
			return nil, wrap(v.path, err)
		}
	}
	return x, nil
}

func (v *Value) mapNative() (Map, error) {
	fields := v.spec.Fields()
	if err := v.parseFields(len(fields)); err != nil {
		return nil, err
	}
	m := make(Map, len(fields))
	for i, f := range fields {
		c, err := v.fieldValue(i)
		if err != nil {
			return nil, err
		}
		x, err := c.Native()
		if err != nil {
			return nil, err
		}
		m[i] = Pair{Key: f.Name, Value: x}
	}
	return m, nil
}

func (v *Value) listNative() ([]any, error) {
	if err := v.parseElems(-1); err != nil {
		return nil, err
	}
	l := make([]any, len(v.slots))
	for i := range v.slots {
		c, err := v.itemValue(i)
		if err != nil {
			return nil, err
		}
		if l[i], err = c.Native(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// scalarNative applies the names declared in the spec of v to its decoded
// content.
func (v *Value) scalarNative() (any, error) {
	x, err := v.decoded()
	if err != nil {
		return nil, err
	}
	base := v.spec.Base()
	switch x := x.(type) {
	case *big.Int:
		if x.IsInt64() {
			if name, ok := base.ValueName(x.Int64()); ok {
				return name, nil
			}
		}
	case asn1.BitString:
		if !base.HasNamedBits() {
			return x, nil
		}
		set := asn1.NewSet[string]()
		for i := range x.BitLength {
			if x.At(i) == 0 {
				continue
			}
			name, ok := base.BitName(i)
			if !ok {
				name = strconv.Itoa(i)
			}
			set.Add(name)
		}
		return set, nil
	case asn1.ObjectIdentifier:
		if name, ok := base.OIDName(x); ok {
			return name, nil
		}
		return x.String(), nil
	}
	return x, nil
}
