// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"bytes"
	"fmt"
	"maps"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"time"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/ber"
	"codello.dev/asn1tree/spec"
	"codello.dev/asn1tree/tlv"
)

// New builds a value of s from the native value x. New accepts the values
// returned by [Value.Native] as well as the following alternatives:
//
//   - SEQUENCE and SET values accept map[string]any in addition to [Map]. A
//     missing or nil entry leaves an optional field absent. Fields equal to
//     their default value are omitted.
//   - SEQUENCE OF and SET OF values accept any slice.
//   - CHOICE values accept a map with a single entry naming the alternative.
//     Any other value is tried against the alternatives in order.
//   - INTEGER and ENUMERATED values accept all integer types, *big.Int and the
//     names of named values.
//   - BIT STRING values with named bits accept asn1.Set[string] and []string.
//     Unnamed bits may be given by their decimal index. []byte is accepted as
//     a BIT STRING without padding.
//   - OBJECT IDENTIFIER values accept asn1.ObjectIdentifier, dotted strings
//     and registered names.
//   - ANY values accept asn1.RawValue and complete encodings as []byte.
//
// The returned value is dirty. Its encoding is computed by [Dump].
func New(s *spec.Spec, x any, opts ...Option) (*Value, error) {
	return build(s, x, newOptions(opts), "", 1)
}

// build creates a value of s from x.
func build(s *spec.Spec, x any, o *options, path string, depth int) (*Value, error) {
	if o.tooDeep(depth) {
		return nil, &Error{Path: path, Err: ErrTooDeep}
	}
	base := s.Base()
	if h := base.Hook(); h != nil && h.FromNative != nil {
		var err error
		if x, err = h.FromNative(x); err != nil {
			return nil, wrap(path, err)
		}
	}
	v := &Value{spec: s, opts: o, path: path, depth: depth, alt: -1, state: StateExpanded, dirty: true, complete: true}
	var err error
	switch base.Kind() {
	case spec.KindSequence, spec.KindSet:
		err = v.buildFields(x)
	case spec.KindSequenceOf, spec.KindSetOf:
		err = v.buildElems(x)
	case spec.KindChoice:
		err = v.buildChoice(x)
	case spec.KindAny:
		err = v.buildAny(x)
	default:
		err = v.buildScalar(x)
	}
	if err != nil {
		return nil, wrap(path, err)
	}
	return v, nil
}

// SetNative replaces the content of v by a value built from x. The spec and
// the location of v are kept.
func (v *Value) SetNative(x any) error {
	if v == nil {
		return v.unsupported("SetNative")
	}
	nv, err := build(v.spec, x, v.opts, v.path, v.depth)
	if err != nil {
		return err
	}
	parent := v.parent
	*v = *nv
	v.parent = parent
	v.children(func(c *Value) { c.parent = v })
	v.touch()
	return nil
}

// SetField replaces the named field of a SEQUENCE or SET by x. A nil x removes
// an optional field. The spec of x must be compatible with the spec of the
// field, its tagging is adjusted to the field. x must not be part of another
// tree.
func (v *Value) SetField(name string, x *Value) error {
	c, err := v.container("SetField")
	if err != nil {
		return err
	}
	fields := c.spec.Fields()
	i := c.spec.FieldIndex(name)
	if i < 0 {
		return &Error{Path: c.path, Err: fmt.Errorf("%w: %s in %s", ErrUnknownField, name, c.spec.Name())}
	}
	if err := c.parseFields(len(fields)); err != nil {
		return err
	}
	f, old := fields[i], c.slots[i].val
	if x == nil {
		if !f.IsOptional() {
			return &MissingFieldError{Field: f.Name, Path: c.path}
		}
		c.slots[i] = slot{}
	} else {
		s, err := c.fieldSpec(i)
		if err != nil {
			return err
		}
		if err := x.adopt(s, joinPath(c.path, f.Name), c.depth+1, c.opts); err != nil {
			return err
		}
		c.slots[i] = slot{present: true, val: c.attach(x)}
	}
	if old != nil && old != x {
		old.parent = nil
	}
	c.touch()
	return nil
}

// Append adds x to the end of a SEQUENCE OF or SET OF. The spec of x must be
// compatible with the element spec. x must not be part of another tree.
func (v *Value) Append(x *Value) error {
	c, err := v.list("Append")
	if err != nil {
		return err
	}
	if x == nil {
		return &Error{Path: c.path, Err: fmt.Errorf("%w: nil element", ErrInvalidNative)}
	}
	if err := c.parseElems(-1); err != nil {
		return err
	}
	if err := x.adopt(c.spec.Elem(), indexPath(c.path, len(c.slots)), c.depth+1, c.opts); err != nil {
		return err
	}
	c.slots = append(c.slots, slot{present: true, val: c.attach(x)})
	c.touch()
	return nil
}

// adopt prepares x to be stored as a value of s at path.
func (x *Value) adopt(s *spec.Spec, path string, depth int, o *options) error {
	if x.spec != s {
		if !compatible(x.spec, s) {
			return &Error{Path: path, Err: fmt.Errorf("%w: cannot use %s as %s", ErrIncompatible, x.spec, s)}
		}
		if s.Base().Kind() == spec.KindAny && x.spec.Base().Kind() != spec.KindAny {
			s = s.Substitute(x.spec.Base())
		}
		x.spec = s
		x.touch()
	}
	return x.reparent(path, depth, o)
}

// compatible reports whether a value of spec a can be used as a value of spec
// b after adjusting its tagging.
func compatible(a, b *spec.Spec) bool {
	a, b = a.Base(), b.Base()
	if b.Kind() == spec.KindAny {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case spec.KindSequence, spec.KindSet, spec.KindChoice:
		fa, fb := a.Fields(), b.Fields()
		if len(fa) != len(fb) {
			return false
		}
		for i := range fa {
			if fa[i].Name != fb[i].Name || !compatible(fa[i].Spec, fb[i].Spec) {
				return false
			}
		}
	case spec.KindSequenceOf, spec.KindSetOf:
		return compatible(a.Elem(), b.Elem())
	}
	return true
}

// invalidNative returns an error for a native value x that cannot be
// converted into a value of s.
func invalidNative(x any, s *spec.Spec) error {
	return fmt.Errorf("%w: %T for %s", ErrInvalidNative, x, s.Name())
}

func (v *Value) buildFields(x any) error {
	var (
		get  func(string) (any, bool)
		keys []string
	)
	switch x := x.(type) {
	case Map:
		get, keys = x.Get, x.Keys()
	case map[string]any:
		get = func(k string) (any, bool) {
			y, ok := x[k]
			return y, ok
		}
		keys = slices.Sorted(maps.Keys(x))
	default:
		return invalidNative(x, v.spec)
	}
	for _, k := range keys {
		if v.spec.FieldIndex(k) < 0 {
			return &Error{Path: v.path, Err: fmt.Errorf("%w: %s in %s", ErrUnknownField, k, v.spec.Name())}
		}
	}
	fields := v.spec.Fields()
	v.slots = make([]slot, len(fields))
	v.next = len(fields)
	for i, f := range fields {
		fx, ok := get(f.Name)
		if !ok {
			if !f.IsOptional() {
				return &MissingFieldError{Field: f.Name, Path: v.path}
			}
			continue
		}
		s, err := v.fieldSpec(i)
		if err != nil {
			return err
		}
		if fx == nil && s.Base().Kind() != spec.KindNull {
			if !f.IsOptional() {
				return &MissingFieldError{Field: f.Name, Path: v.path}
			}
			continue
		}
		c, err := build(s, fx, v.opts, joinPath(v.path, f.Name), v.depth+1)
		if err != nil {
			return err
		}
		if f.Default != nil {
			b, err := c.appendEncoding(nil)
			if err != nil {
				return err
			}
			if isDefault(b, s, f.Default, v.opts) {
				continue
			}
		}
		v.slots[i] = slot{present: true, val: v.attach(c)}
	}
	return nil
}

// isDefault reports whether b is the encoding of the default value def of
// spec s.
func isDefault(b []byte, s *spec.Spec, def any, o *options) bool {
	d, err := build(s, def, o, "", 1)
	if err != nil {
		return false
	}
	db, err := d.appendEncoding(nil)
	return err == nil && bytes.Equal(b, db)
}

func (v *Value) buildElems(x any) error {
	var items []any
	switch x := x.(type) {
	case []any:
		items = x
	default:
		rv := reflect.ValueOf(x)
		if x == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return invalidNative(x, v.spec)
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}
	v.slots = make([]slot, len(items))
	for i, ix := range items {
		c, err := build(v.spec.Elem(), ix, v.opts, indexPath(v.path, i), v.depth+1)
		if err != nil {
			return err
		}
		v.slots[i] = slot{present: true, val: v.attach(c)}
	}
	return nil
}

func (v *Value) buildChoice(x any) error {
	alts := v.spec.Fields()
	if name, ax, ok := singleEntry(x); ok {
		if i := v.spec.FieldIndex(name); i >= 0 {
			c, err := build(alts[i].Spec, ax, v.opts, v.path, v.depth)
			if err != nil {
				return err
			}
			v.alt, v.altVal = i, v.attach(c)
			return nil
		}
	}
	for i, alt := range alts {
		c, err := build(alt.Spec, x, v.opts, v.path, v.depth)
		if err != nil {
			v.opts.tracef("%salternative %s rejected: %v", pathPrefix(v.path), alt.Name, err)
			continue
		}
		v.alt, v.altVal = i, v.attach(c)
		return nil
	}
	return &NoMatchingChoiceError{Choice: v.spec.Base(), Actual: fmt.Sprintf("native %T", x), Path: v.path}
}

// singleEntry returns the only entry of a map native.
func singleEntry(x any) (string, any, bool) {
	switch x := x.(type) {
	case Map:
		if len(x) == 1 {
			return x[0].Key, x[0].Value, true
		}
	case map[string]any:
		if len(x) == 1 {
			for k, y := range x {
				return k, y, true
			}
		}
	}
	return "", nil, false
}

func (v *Value) buildAny(x any) error {
	var b []byte
	switch x := x.(type) {
	case asn1.RawValue:
		b = x.FullBytes
		if b == nil {
			b = tlv.AppendElement(nil, x.Tag, x.Constructed, x.Bytes)
		}
	case []byte:
		b = x
	default:
		return invalidNative(x, v.spec)
	}
	e, err := tlv.ReadElement(b, 0, v.opts.mode, v.opts.maxDepth)
	if err != nil {
		return err
	}
	if e.End() != len(b) {
		return fmt.Errorf("%w: %d bytes after ANY value", ErrTrailingData, len(b)-e.End())
	}
	v.doc, v.elem = b, e
	return nil
}

func (v *Value) buildScalar(x any) error {
	base := v.spec.Base()
	if s := base.Contains(); s != nil {
		inner, err := build(s, x, v.opts, v.path, v.depth+1)
		if err != nil {
			return err
		}
		b, err := inner.appendEncoding(nil)
		if err != nil {
			return err
		}
		if base.Kind() == spec.KindBitString {
			v.scalar = asn1.BitString{Bytes: b, BitLength: 8 * len(b)}
		} else {
			v.scalar = b
		}
		v.inner = v.attach(inner)
	} else {
		s, err := scalarFromNative(base, x)
		if err != nil {
			return err
		}
		v.scalar = s
	}
	v.scalarOK = true
	c, err := encodeScalar(base, v.scalar)
	if err != nil {
		return err
	}
	v.content, v.contentOK = c, true
	return nil
}

// scalarFromNative converts x into the decoded representation of a scalar of
// spec s.
func scalarFromNative(s *spec.Spec, x any) (any, error) {
	switch s.Kind() {
	case spec.KindBoolean:
		if b, ok := x.(bool); ok {
			return b, nil
		}
	case spec.KindInteger, spec.KindEnumerated:
		if name, ok := x.(string); ok {
			n, ok := s.NamedValue(name)
			if !ok {
				return nil, fmt.Errorf("%w: unknown value %q for %s", ErrInvalidNative, name, s.Name())
			}
			return big.NewInt(n), nil
		}
		if i, ok := toBigInt(x); ok {
			return i, nil
		}
	case spec.KindBitString:
		switch x := x.(type) {
		case asn1.BitString:
			if !x.IsValid() {
				return nil, fmt.Errorf("%w: malformed BIT STRING", ErrInvalidNative)
			}
			return x, nil
		case []byte:
			return asn1.BitString{Bytes: x, BitLength: 8 * len(x)}, nil
		}
		if names, ok := toStrings(x); ok && s.HasNamedBits() {
			bits := make([]int, 0, len(names))
			for _, name := range names {
				i, ok := s.NamedBit(name)
				if !ok {
					n, err := strconv.Atoi(name)
					if err != nil || n < 0 {
						return nil, fmt.Errorf("%w: unknown bit %q for %s", ErrInvalidNative, name, s.Name())
					}
					i = n
				}
				bits = append(bits, i)
			}
			return ber.NamedBitString(bits), nil
		}
	case spec.KindOctetString:
		switch x := x.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
	case spec.KindNull:
		if x == nil {
			return nil, nil
		}
	case spec.KindObjectIdentifier:
		switch x := x.(type) {
		case asn1.ObjectIdentifier:
			if !x.IsValid() {
				return nil, fmt.Errorf("%w: invalid OBJECT IDENTIFIER %s", ErrInvalidNative, x)
			}
			return x, nil
		case string:
			oid, ok := s.NamedOID(x)
			if !ok {
				return nil, fmt.Errorf("%w: unknown OBJECT IDENTIFIER %q for %s", ErrInvalidNative, x, s.Name())
			}
			return oid, nil
		}
	case spec.KindUTCTime, spec.KindGeneralizedTime:
		if t, ok := x.(time.Time); ok {
			return t, nil
		}
	default:
		if str, ok := x.(string); ok && s.Kind().IsString() {
			return str, nil
		}
	}
	return nil, invalidNative(x, s)
}

// toBigInt converts integer natives to *big.Int.
func toBigInt(x any) (*big.Int, bool) {
	switch x := x.(type) {
	case *big.Int:
		if x == nil {
			return nil, false
		}
		return new(big.Int).Set(x), true
	case int:
		return big.NewInt(int64(x)), true
	case int8:
		return big.NewInt(int64(x)), true
	case int16:
		return big.NewInt(int64(x)), true
	case int32:
		return big.NewInt(int64(x)), true
	case int64:
		return big.NewInt(x), true
	case uint:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint8:
		return big.NewInt(int64(x)), true
	case uint16:
		return big.NewInt(int64(x)), true
	case uint32:
		return big.NewInt(int64(x)), true
	case uint64:
		return new(big.Int).SetUint64(x), true
	}
	return nil, false
}

// toStrings converts a collection of names to a slice.
func toStrings(x any) ([]string, bool) {
	switch x := x.(type) {
	case asn1.Set[string]:
		return slices.Sorted(maps.Keys(x)), true
	case []string:
		return x, true
	case []any:
		names := make([]string, len(x))
		for i, y := range x {
			s, ok := y.(string)
			if !ok {
				return nil, false
			}
			names[i] = s
		}
		return names, true
	}
	return nil, false
}
