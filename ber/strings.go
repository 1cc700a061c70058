// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"iter"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/tlv"
)

// Segments returns an iterator over the content octets of the primitive
// encodings making up a string value. If e uses the primitive encoding, its
// content is the only segment. If e is constructed, every nested encoding must
// carry the tag seg, which is the UNIVERSAL tag of the string type. Nested
// constructed encodings are flattened up to a depth of maxDepth (<= 0 means
// unlimited). There will be no further items after an item with a non-nil
// error.
//
// buf must be the buffer e was read from.
func Segments(buf []byte, e tlv.Element, seg asn1.Tag, mode tlv.Mode, maxDepth int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		segments(buf, e, seg, mode, maxDepth, 1, yield)
	}
}

// segments implements Segments. It returns false if iteration should stop.
func segments(buf []byte, e tlv.Element, seg asn1.Tag, mode tlv.Mode, maxDepth, depth int, yield func([]byte, error) bool) bool {
	if !e.Constructed {
		return yield(e.Content, nil)
	}
	if maxDepth > 0 && depth > maxDepth {
		yield(nil, &SyntaxError{e.Tag, tlv.ErrTooDeep})
		return false
	}
	end := e.ContentOffset() + len(e.Content)
	for child, err := range tlv.Children(buf[:end], e.ContentOffset(), mode, maxDepth) {
		if err != nil {
			yield(nil, err)
			return false
		}
		if child.Tag != seg {
			yield(nil, syntaxError(e.Tag, "non-matching encoding "+child.Tag.String()+" in constructed string"))
			return false
		}
		if !segments(buf, child, seg, mode, maxDepth, depth+1, yield) {
			return false
		}
	}
	return true
}

// JoinSegments concatenates all segments of a string value. The result aliases
// buf if e is primitive.
func JoinSegments(buf []byte, e tlv.Element, seg asn1.Tag, mode tlv.Mode, maxDepth int) ([]byte, error) {
	if !e.Constructed {
		return e.Content, nil
	}
	var b bytes.Buffer
	for s, err := range Segments(buf, e, seg, mode, maxDepth) {
		if err != nil {
			return nil, err
		}
		b.Write(s)
	}
	return b.Bytes(), nil
}

// JoinBitString decodes a BIT STRING value that may use the constructed
// encoding. Only the last segment may contain padding bits. Like
// [ParseBitString] it reports non-zero padding bits as a non-canonical
// encoding.
func JoinBitString(buf []byte, e tlv.Element, seg asn1.Tag, mode tlv.Mode, maxDepth int) (asn1.BitString, error) {
	if !e.Constructed {
		return ParseBitString(e.Tag, e.Content)
	}
	var (
		b       bytes.Buffer
		padding int
		first   = true
		nonCan  error
	)
	for s, err := range Segments(buf, e, seg, mode, maxDepth) {
		if err != nil {
			return asn1.BitString{}, err
		}
		if !first && padding != 0 {
			return asn1.BitString{}, syntaxError(e.Tag, "non-zero padding in constructed BIT STRING")
		}
		first = false
		bs, err := ParseBitString(seg, s)
		if IsNonCanonical(err) {
			nonCan = err
		} else if err != nil {
			return asn1.BitString{}, err
		}
		padding = len(bs.Bytes)*8 - bs.BitLength
		b.Write(bs.Bytes)
	}
	if first {
		return asn1.BitString{}, syntaxError(e.Tag, "empty constructed BIT STRING")
	}
	return asn1.BitString{Bytes: b.Bytes(), BitLength: b.Len()*8 - padding}, nonCan
}
