// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"bytes"
	"fmt"
	"math/big"
	"slices"
	"time"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/ber"
	"codello.dev/asn1tree/spec"
	"codello.dev/asn1tree/tlv"
)

// Dump returns the DER encoding of v. If v has been loaded and neither v nor
// any of its descendants has been modified, Dump returns a copy of the input
// bytes. Otherwise modified parts are re-encoded while unmodified subtrees
// keep their original encoding if it is valid DER. Unmodified subtrees are
// decoded completely to verify this. Trees loaded in [tlv.BER] mode are
// re-encoded completely.
func Dump(v *Value) ([]byte, error) {
	if v == nil {
		return nil, v.unsupported("Dump")
	}
	if v.full != nil && !v.Dirty() {
		return slices.Clone(v.full), nil
	}
	return v.appendEncoding(nil)
}

// Bytes is a shorthand for [Dump].
func (v *Value) Bytes() ([]byte, error) {
	return Dump(v)
}

// appendEncoding appends the complete encoding of v to dst.
func (v *Value) appendEncoding(dst []byte) ([]byte, error) {
	if v.full != nil && v.opts.mode != tlv.BER && !v.Dirty() {
		if err := v.Expand(); err != nil {
			return dst, err
		}
		if !v.noncanon {
			return append(dst, v.full...), nil
		}
	}
	tags := v.spec.ExplicitTags()
	if len(tags) == 0 {
		return v.appendBase(dst)
	}
	b, err := v.appendBase(nil)
	if err != nil {
		return dst, err
	}
	for i := len(tags) - 1; i >= 0; i-- {
		b = tlv.AppendElement(nil, tags[i], true, b)
	}
	return append(dst, b...), nil
}

// appendBase appends the encoding of v without its explicit tags.
func (v *Value) appendBase(dst []byte) ([]byte, error) {
	base := v.spec.Base()
	switch base.Kind() {
	case spec.KindChoice:
		return v.altVal.appendEncoding(dst)
	case spec.KindAny:
		b, err := v.appendDER(dst, v.elem, v.depth)
		if err != nil {
			return dst, wrap(v.path, err)
		}
		return b, nil
	}
	content, err := v.appendContent(nil)
	if err != nil {
		return dst, err
	}
	tag, _ := base.Tag()
	return tlv.AppendElement(dst, tag, base.Constructed(), content), nil
}

// appendContent appends the content octets of v to dst.
func (v *Value) appendContent(dst []byte) ([]byte, error) {
	switch k := v.kind(); k {
	case spec.KindSequence, spec.KindSet:
		fields := v.spec.Fields()
		if err := v.parseFields(len(fields)); err != nil {
			return dst, err
		}
		var encs [][]byte
		for i, f := range fields {
			// Defaults of absent fields are encoded only after a modification.
			if sl := v.slots[i]; !sl.present && !sl.val.Dirty() {
				continue
			}
			c, err := v.fieldValue(i)
			if err != nil {
				return dst, err
			}
			b, err := c.appendEncoding(nil)
			if err != nil {
				return dst, err
			}
			if f.Default != nil && isDefault(b, c.spec, f.Default, v.opts) {
				continue
			}
			encs = append(encs, b)
		}
		if k == spec.KindSet && v.opts.setOrder == SetOrderSorted {
			slices.SortFunc(encs, bytes.Compare)
		}
		return slices.Concat(append([][]byte{dst}, encs...)...), nil
	case spec.KindSequenceOf, spec.KindSetOf:
		if err := v.parseElems(-1); err != nil {
			return dst, err
		}
		encs := make([][]byte, len(v.slots))
		for i := range v.slots {
			c, err := v.itemValue(i)
			if err != nil {
				return dst, err
			}
			if encs[i], err = c.appendEncoding(nil); err != nil {
				return dst, err
			}
		}
		if k == spec.KindSetOf {
			slices.SortFunc(encs, bytes.Compare)
		}
		return slices.Concat(append([][]byte{dst}, encs...)...), nil
	}
	if v.inner != nil && (v.inner.Dirty() || v.inner.noncanon) {
		if v.kind() == spec.KindBitString {
			dst = append(dst, 0)
		}
		return v.inner.appendEncoding(dst)
	}
	if v.contentOK {
		return append(dst, v.content...), nil
	}
	x, err := v.decoded()
	if err != nil {
		return dst, err
	}
	c, err := encodeScalar(v.spec.Base(), x)
	if err != nil {
		return dst, wrap(v.path, err)
	}
	return append(dst, c...), nil
}

// appendDER appends the DER form of the element e of an ANY value to dst.
// Lengths become definite and minimal and constructed encodings of UNIVERSAL
// string types are joined. The content of primitive encodings is kept.
func (v *Value) appendDER(dst []byte, e tlv.Element, depth int) ([]byte, error) {
	if v.opts.tooDeep(depth) {
		return dst, ErrTooDeep
	}
	if !e.Constructed {
		return tlv.AppendElement(dst, e.Tag, false, e.Content), nil
	}
	switch {
	case e.Tag == asn1.Universal(asn1.TagBitString):
		bs, err := ber.JoinBitString(v.doc, e, e.Tag, v.opts.mode, v.opts.maxDepth)
		if err != nil && !ber.IsNonCanonical(err) {
			return dst, err
		}
		c, err := ber.AppendBitString(nil, bs)
		if err != nil {
			return dst, err
		}
		return tlv.AppendElement(dst, e.Tag, false, c), nil
	case isStringTag(e.Tag):
		c, err := ber.JoinSegments(v.doc, e, e.Tag, v.opts.mode, v.opts.maxDepth)
		if err != nil {
			return dst, err
		}
		return tlv.AppendElement(dst, e.Tag, false, c), nil
	}
	var content []byte
	end := e.ContentOffset() + len(e.Content)
	for c, err := range tlv.Children(v.doc[:end], e.ContentOffset(), v.opts.mode, v.opts.maxDepth) {
		if err != nil {
			return dst, err
		}
		if content, err = v.appendDER(content, c, depth+1); err != nil {
			return dst, err
		}
	}
	return tlv.AppendElement(dst, e.Tag, true, content), nil
}

// isStringTag reports whether t is the UNIVERSAL tag of a string type.
func isStringTag(t asn1.Tag) bool {
	for k := spec.KindBoolean; k < spec.KindChoice; k++ {
		if u, ok := spec.UniversalTag(k); ok && u == t {
			return k.IsString()
		}
	}
	return false
}

// encodeScalar returns the DER content octets of the decoded scalar x of spec
// s.
func encodeScalar(s *spec.Spec, x any) ([]byte, error) {
	k := s.Kind()
	utag, _ := spec.UniversalTag(k)
	switch k {
	case spec.KindBoolean:
		return ber.AppendBool(nil, x.(bool)), nil
	case spec.KindInteger, spec.KindEnumerated:
		return ber.AppendInteger(nil, x.(*big.Int)), nil
	case spec.KindBitString:
		return ber.AppendBitString(nil, x.(asn1.BitString))
	case spec.KindOctetString:
		return x.([]byte), nil
	case spec.KindNull:
		return nil, nil
	case spec.KindObjectIdentifier:
		return ber.AppendObjectIdentifier(nil, x.(asn1.ObjectIdentifier))
	case spec.KindUTCTime, spec.KindGeneralizedTime:
		return ber.AppendTime(nil, utag.Number, x.(time.Time))
	}
	if k.IsString() {
		return ber.AppendString(nil, utag.Number, x.(string))
	}
	return nil, fmt.Errorf("%w: cannot encode %s", ErrUnsupported, s)
}
