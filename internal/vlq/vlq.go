// Package vlq implements [Variable-length quantity] encoding as used in MIDI or
// BER. A VLQ is essentially a base-128 representation of an unsigned integer
// with the addition of the eighth bit to mark continuation of bytes. VLQ is
// identical to [LEB128] except in endianness.
//
// BER uses VLQs for high tag numbers and for the arcs of object identifiers.
// This package operates on byte slices since the tlv package parses in-memory
// buffers.
//
// [Variable-length quantity]: https://en.wikipedia.org/wiki/Variable-length_quantity
// [LEB128]: https://en.wikipedia.org/wiki/LEB128
package vlq

import (
	"errors"
	"math/bits"
	"unsafe"
)

var (
	// ErrNotMinimal indicates a VLQ starting with a 0x80 byte.
	ErrNotMinimal = errors.New("vlq is not minimally encoded")
	// ErrOverflow indicates a VLQ that does not fit into the target type.
	ErrOverflow = errors.New("vlq too large for target type")
	// ErrTruncated indicates that b ended before the final byte of the VLQ.
	ErrTruncated = errors.New("vlq is truncated")
)

// Decode parses an unsigned VLQ from the start of b and returns it together
// with the number of bytes consumed. The maximum allowed value is limited by
// the size of T.
//
// Decode ignores an arbitrary amount of leading zeros (encoded as 0x80 bytes)
// unless minimal is set, in which case [ErrNotMinimal] is returned. The
// returned count is valid for [ErrNotMinimal] so callers can tolerate it.
func Decode[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](b []byte, minimal bool) (ret T, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}
	numBits := 0
	for n < len(b) {
		c := b[n]
		n++
		if numBits == 0 {
			numBits = bits.Len8(c & 0x7f)
		} else {
			numBits += 7
		}
		if numBits > int(unsafe.Sizeof(ret)*8) {
			return 0, n, ErrOverflow
		}
		ret = ret<<7 | T(c&0x7f)
		if c&0x80 == 0 {
			if minimal && b[0] == 0x80 {
				return ret, n, ErrNotMinimal
			}
			return ret, n, nil
		}
	}
	return 0, n, ErrTruncated
}

// Length returns the number of bytes needed to encode n as a VLQ.
func Length[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](n T) int {
	if n == 0 {
		return 1
	}
	l := 0
	for i := n; i > 0; i >>= 7 {
		l++
	}
	return l
}

// Append encodes i as a minimal VLQ and appends it to dst.
func Append[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](dst []byte, i T) []byte {
	for j := Length(i) - 1; j >= 0; j-- {
		b := byte(i>>(j*7)) & 0x7f
		if j > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}
