package tlv

import (
	"math/bits"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/internal/vlq"
)

// HeaderLen returns the number of bytes of the minimal DER header for a TLV
// with the given tag and definite content length.
func HeaderLen(tag asn1.Tag, length int) int {
	n := 2
	if tag.Number >= 0x1f {
		n += vlq.Length(tag.Number)
	}
	if length >= 0x80 {
		n += (bits.Len(uint(length)) + 7) / 8
	}
	return n
}

// AppendHeader appends the minimal DER header for a TLV to dst. The tag number
// uses the high tag number form iff it is 31 or above. The length uses the
// short form for lengths below 128 and the minimal long form otherwise.
//
// AppendHeader panics if length is negative. Indefinite lengths are never
// produced.
func AppendHeader(dst []byte, tag asn1.Tag, constructed bool, length int) []byte {
	if length < 0 {
		panic("tlv: negative length")
	}
	b := byte(tag.Class) << 6
	if constructed {
		b |= 0x20
	}
	if tag.Number < 0x1f {
		dst = append(dst, b|byte(tag.Number))
	} else {
		dst = vlq.Append(append(dst, b|0x1f), tag.Number)
	}

	if length < 0x80 {
		return append(dst, byte(length))
	}
	numBytes := (bits.Len(uint(length)) + 7) / 8
	dst = append(dst, 0x80|byte(numBytes))
	for i := numBytes - 1; i >= 0; i-- {
		dst = append(dst, byte(length>>(i*8)))
	}
	return dst
}

// WriteHeader returns the minimal DER header for a TLV. See [AppendHeader].
func WriteHeader(tag asn1.Tag, constructed bool, length int) []byte {
	return AppendHeader(make([]byte, 0, HeaderLen(tag, length)), tag, constructed, length)
}

// AppendElement appends a complete TLV with the given content to dst.
func AppendElement(dst []byte, tag asn1.Tag, constructed bool, content []byte) []byte {
	return append(AppendHeader(dst, tag, constructed, len(content)), content...)
}
