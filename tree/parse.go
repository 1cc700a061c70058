// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"bytes"
	"errors"
	"fmt"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/ber"
	"codello.dev/asn1tree/spec"
	"codello.dev/asn1tree/tlv"
)

// start prepares v for reading its children.
func (v *Value) start() {
	if v.state != StateUnparsed {
		return
	}
	v.cursor = v.elem.ContentOffset()
	if k := v.kind(); k == spec.KindSequence || k == spec.KindSet {
		v.slots = make([]slot, len(v.spec.Fields()))
	}
	v.state = StateParsed
}

// tolerate decides whether err prevents further decoding. Non-canonical
// encodings are logged and ignored unless v is decoded in strict mode. The
// encoding of v is then no longer reused by [Dump]. All other errors are
// returned with the path of v.
func (v *Value) tolerate(err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNonCanonical) || v.opts.mode.Strict() {
		return wrap(v.path, err)
	}
	v.opts.warnf("%snon-canonical encoding: %v", pathPrefix(v.path), err)
	v.markNonCanonical()
	return nil
}

// checkHeader reports a definite-length header that does not use the shortest
// form.
func (v *Value) checkHeader(h tlv.Header) error {
	if h.Length == tlv.LengthIndefinite || len(h.Raw) == tlv.HeaderLen(h.Tag, h.Length) {
		return nil
	}
	return v.tolerate(nonCanonical("header %s is not minimal", h))
}

// checkAny reports an ANY value whose encoding differs from its DER form.
func (v *Value) checkAny() error {
	b, err := v.appendDER(nil, v.elem, v.depth)
	if err != nil {
		return wrap(v.path, err)
	}
	if !bytes.Equal(b, v.elem.Full) {
		return v.tolerate(nonCanonical("ANY value with tag %s is not DER", v.elem.Tag))
	}
	return nil
}

// nonCanonical returns an error describing a non-canonical encoding.
func nonCanonical(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNonCanonical, fmt.Sprintf(format, args...))
}

// parseFields matches the elements in the content of a SEQUENCE against its
// fields until the field at index upto has been matched. For SET values all
// fields are matched at once.
func (v *Value) parseFields(upto int) error {
	if v.complete {
		return nil
	}
	v.start()
	if v.kind() == spec.KindSet {
		return v.parseSet()
	}
	fields := v.spec.Fields()
	end := v.contentEnd()
	for v.next <= upto && v.next < len(fields) {
		f := fields[v.next]
		if !v.hasLook && v.cursor < end {
			e, err := tlv.ReadElement(v.doc[:end], v.cursor, v.opts.mode, v.opts.maxDepth)
			if err != nil {
				return wrap(v.path, err)
			}
			v.look, v.hasLook = e, true
		}
		switch {
		case v.hasLook && f.Spec.Matches(v.look.Tag, v.look.Constructed):
			v.slots[v.next] = slot{elem: v.look, present: true}
			v.cursor, v.hasLook = v.look.End(), false
		case f.IsOptional():
			v.opts.tracef("%sfield %s absent", pathPrefix(v.path), f.Name)
		case v.hasLook:
			return &TagMismatchError{Expected: f.Spec, Actual: v.look.Header, Path: joinPath(v.path, f.Name)}
		default:
			return &MissingFieldError{Field: f.Name, Path: v.path}
		}
		v.next++
	}
	if v.next == len(fields) {
		if v.hasLook || v.cursor < end {
			return &Error{Path: v.path, Err: fmt.Errorf("%w after last field of %s", ErrTrailingData, v.spec.Name())}
		}
		v.complete = true
	}
	return nil
}

// parseSet matches all elements in the content of a SET against its fields.
// Tagged fields take precedence over untagged ANY fields.
func (v *Value) parseSet() error {
	fields := v.spec.Fields()
	var prev asn1.Tag
	first := true
	for e, err := range tlv.Children(v.doc[:v.contentEnd()], v.cursor, v.opts.mode, v.opts.maxDepth) {
		if err != nil {
			return wrap(v.path, err)
		}
		i := v.matchSetField(e)
		if i < 0 {
			return &TagMismatchError{Expected: v.spec, Actual: e.Header, Path: v.path}
		}
		if !first && tagLess(e.Tag, prev) {
			if err := v.tolerate(nonCanonical("fields of %s not in tag order", v.spec.Name())); err != nil {
				return err
			}
		}
		v.slots[i] = slot{elem: e, present: true}
		prev, first = e.Tag, false
	}
	for i, f := range fields {
		if !v.slots[i].present && !f.IsOptional() {
			return &MissingFieldError{Field: f.Name, Path: v.path}
		}
	}
	v.next, v.cursor, v.complete = len(fields), v.contentEnd(), true
	return nil
}

// matchSetField returns the index of the first unmatched field of a SET that
// matches e or -1.
func (v *Value) matchSetField(e tlv.Element) int {
	open := -1
	for i, f := range v.spec.Fields() {
		if v.slots[i].present {
			continue
		}
		if _, tagged := f.Spec.Tag(); !tagged && f.Spec.Kind() == spec.KindAny {
			if open < 0 {
				open = i
			}
			continue
		}
		if f.Spec.Matches(e.Tag, e.Constructed) {
			return i
		}
	}
	return open
}

// tagLess reports whether a sorts before b in the canonical order of tags.
func tagLess(a, b asn1.Tag) bool {
	if a.Class != b.Class {
		return a.Class < b.Class
	}
	return a.Number < b.Number
}

// parseElems reads the elements of a SEQUENCE OF or SET OF until the element
// at index upto has been read. A negative upto reads all elements.
func (v *Value) parseElems(upto int) error {
	if v.complete {
		return nil
	}
	v.start()
	end := v.contentEnd()
	elem := v.spec.Elem()
	for (upto < 0 || len(v.slots) <= upto) && v.cursor < end {
		i := len(v.slots)
		e, err := tlv.ReadElement(v.doc[:end], v.cursor, v.opts.mode, v.opts.maxDepth)
		if err != nil {
			return wrap(indexPath(v.path, i), err)
		}
		if !elem.Matches(e.Tag, e.Constructed) {
			return &TagMismatchError{Expected: elem, Actual: e.Header, Path: indexPath(v.path, i)}
		}
		if v.kind() == spec.KindSetOf && i > 0 && bytes.Compare(v.slots[i-1].elem.Full, e.Full) > 0 {
			if err := v.tolerate(nonCanonical("elements of SET OF not sorted")); err != nil {
				return err
			}
		}
		v.slots = append(v.slots, slot{elem: e, present: true})
		v.cursor = e.End()
	}
	if v.cursor >= end {
		v.complete = true
	}
	return nil
}

// itemValue returns the value of the i-th element of a SEQUENCE OF or SET OF.
// The element must have been parsed.
func (v *Value) itemValue(i int) (*Value, error) {
	sl := &v.slots[i]
	if sl.val == nil {
		x, err := bind(v.doc, sl.elem, v.spec.Elem(), v.opts, indexPath(v.path, i), v.depth+1)
		if err != nil {
			return nil, err
		}
		sl.val = v.attach(x)
	}
	return sl.val, nil
}

// fieldValue returns the value of the i-th field of a SEQUENCE or SET.
func (v *Value) fieldValue(i int) (*Value, error) {
	if err := v.parseFields(i); err != nil {
		return nil, err
	}
	sl := &v.slots[i]
	if sl.val != nil {
		return sl.val, nil
	}
	f := v.spec.Fields()[i]
	if !sl.present && f.Default == nil {
		return nil, nil
	}
	p := joinPath(v.path, f.Name)
	s, err := v.fieldSpec(i)
	if err != nil {
		return nil, err
	}
	if !sl.present {
		d, err := build(s, f.Default, v.opts, p, v.depth+1)
		if err != nil {
			return nil, err
		}
		d.clean()
		sl.val = v.attach(d)
		return d, nil
	}
	if _, tagged := s.Tag(); tagged && !s.Matches(sl.elem.Tag, sl.elem.Constructed) {
		return nil, &TagMismatchError{Expected: s, Actual: sl.elem.Header, Path: p}
	}
	x, err := bind(v.doc, sl.elem, s, v.opts, p, v.depth+1)
	if err != nil {
		return nil, err
	}
	if f.Default != nil && isDefault(sl.elem.Full, s, f.Default, v.opts) {
		if err := x.tolerate(nonCanonical("default value is encoded")); err != nil {
			return nil, err
		}
	}
	sl.val = v.attach(x)
	return x, nil
}

// fieldSpec returns the spec of the i-th field of a SEQUENCE or SET, resolving
// its dispatch if present. If the registry has no entry for the object
// identifier the declared spec is used.
func (v *Value) fieldSpec(i int) (*spec.Spec, error) {
	f := v.spec.Fields()[i]
	if f.Dispatch == nil {
		return f.Spec, nil
	}
	oid, ok, err := v.dispatchOID(f.Dispatch)
	if err != nil || !ok {
		return f.Spec, err
	}
	r, ok := f.Dispatch.Registry.Lookup(oid)
	if !ok {
		v.opts.debugf("%sno entry for %s in %s, keeping %s", pathPrefix(joinPath(v.path, f.Name)), oid, f.Dispatch.Registry.Name(), f.Spec)
		return f.Spec, nil
	}
	if k := f.Spec.Kind(); k == spec.KindOctetString || k == spec.KindBitString {
		return f.Spec.Containing(r), nil
	}
	return f.Spec.Substitute(r), nil
}

// dispatchOID evaluates the path of d starting at v. The second return value
// is false if a field on the path is absent.
func (v *Value) dispatchOID(d *spec.Dispatch) (asn1.ObjectIdentifier, bool, error) {
	cur := v
	for _, name := range d.Path() {
		if cur == nil {
			return nil, false, nil
		}
		c, err := cur.container("dispatch")
		if err != nil {
			return nil, false, err
		}
		i := c.spec.FieldIndex(name)
		if i < 0 {
			return nil, false, &Error{Path: v.path, Err: fmt.Errorf("%w: %s in dispatch path %s", ErrUnknownField, name, d.By)}
		}
		if cur, err = c.fieldValue(i); err != nil {
			return nil, false, err
		}
	}
	if cur == nil {
		return nil, false, nil
	}
	x, err := cur.resolved().decoded()
	if err != nil {
		return nil, false, err
	}
	oid, ok := x.(asn1.ObjectIdentifier)
	if !ok {
		return nil, false, &Error{Path: v.path, Err: fmt.Errorf("%w: dispatch path %s does not name an OBJECT IDENTIFIER", ErrUnsupported, d.By)}
	}
	return oid, true, nil
}

// decoded returns the decoded content of a scalar value.
func (v *Value) decoded() (any, error) {
	if v.scalarOK {
		return v.scalar, nil
	}
	x, err := v.decodeScalar()
	if err != nil {
		return nil, err
	}
	v.scalar, v.scalarOK = x, true
	v.advance(StateExpanded)
	return x, nil
}

// decodeScalar decodes the content octets of v. Constructed string encodings
// are joined first.
func (v *Value) decodeScalar() (any, error) {
	base := v.spec.Base()
	k := base.Kind()
	e := v.elem
	if e.Constructed {
		if err := v.tolerate(nonCanonical("constructed encoding of %s", base.Name())); err != nil {
			return nil, err
		}
	}
	utag, _ := spec.UniversalTag(k)
	var (
		x   any
		c   []byte
		err error
	)
	switch {
	case k == spec.KindBoolean:
		x, err = ber.ParseBool(e.Tag, e.Content)
	case k == spec.KindInteger, k == spec.KindEnumerated:
		x, err = ber.ParseInteger(e.Tag, e.Content)
	case k == spec.KindNull:
		err = ber.ParseNull(e.Tag, e.Content)
	case k == spec.KindObjectIdentifier:
		x, err = ber.ParseObjectIdentifier(e.Tag, e.Content)
	case k == spec.KindBitString:
		x, err = ber.JoinBitString(v.doc, e, utag, v.opts.mode, v.opts.maxDepth)
	case k == spec.KindOctetString:
		x, err = ber.JoinSegments(v.doc, e, utag, v.opts.mode, v.opts.maxDepth)
	case k == spec.KindUTCTime, k == spec.KindGeneralizedTime:
		if c, err = ber.JoinSegments(v.doc, e, utag, v.opts.mode, v.opts.maxDepth); err == nil {
			x, err = ber.ParseTime(e.Tag, utag.Number, c)
		}
	case k.IsString():
		if c, err = ber.JoinSegments(v.doc, e, utag, v.opts.mode, v.opts.maxDepth); err == nil {
			x, err = ber.ParseString(e.Tag, utag.Number, c)
		}
	default:
		return nil, v.unsupported("decode")
	}
	if err = v.tolerate(err); err != nil {
		return nil, err
	}
	return x, nil
}
