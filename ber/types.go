// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"math/big"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/internal/vlq"
)

//region [UNIVERSAL 1] BOOLEAN

// ParseBool decodes the content octets of a BOOLEAN. The value false is encoded
// as 0x00. Any other single byte value corresponds to true, DER requires 0xFF.
func ParseBool(tag asn1.Tag, c []byte) (bool, error) {
	if len(c) != 1 {
		return false, syntaxError(tag, "invalid boolean")
	}
	if c[0] != 0x00 && c[0] != 0xFF {
		return true, nonCanonical(tag, "boolean byte is neither 0x00 nor 0xFF")
	}
	return c[0] != 0, nil
}

// AppendBool appends the DER encoding of b to dst.
func AppendBool(dst []byte, b bool) []byte {
	if b {
		return append(dst, 0xFF)
	}
	return append(dst, 0x00)
}

//endregion

//region [UNIVERSAL 2] INTEGER and [UNIVERSAL 10] ENUMERATED

var bigOne = big.NewInt(1)

// ParseInteger decodes the content octets of an INTEGER or ENUMERATED as a
// two's complement big-endian number. The size of the value is not limited.
func ParseInteger(tag asn1.Tag, c []byte) (*big.Int, error) {
	if len(c) == 0 {
		return nil, syntaxError(tag, "empty integer")
	}
	i := new(big.Int)
	if c[0]&0x80 == 0x80 {
		// negative integer, calculate 2s complement
		bs := make([]byte, len(c))
		for j := range c {
			bs[j] = ^c[j]
		}
		i.SetBytes(bs)
		i.Add(i, bigOne)
		i.Neg(i)
	} else {
		i.SetBytes(c)
	}
	if len(c) > 1 && ((c[0] == 0x00 && c[1]&0x80 == 0x00) || (c[0] == 0xFF && c[1]&0x80 == 0x80)) {
		return i, nonCanonical(tag, "integer not minimally-encoded")
	}
	return i, nil
}

// AppendInteger appends the minimal two's complement encoding of i to dst.
func AppendInteger(dst []byte, i *big.Int) []byte {
	switch i.Sign() {
	case 0:
		// Zero is written as a single 0 zero rather than no bytes.
		return append(dst, 0x00)
	case -1:
		// A negative number has to be converted to two's-complement
		// form. So we'll invert and subtract 1. If the
		// most-significant-bit isn't set then we'll need to pad the
		// beginning with 0xff in order to keep the number negative.
		nMinus1 := new(big.Int).Neg(i)
		nMinus1.Sub(nMinus1, bigOne)
		bs := nMinus1.Bytes()
		for j := range bs {
			bs[j] ^= 0xff
		}
		if len(bs) == 0 || bs[0]&0x80 == 0 {
			dst = append(dst, 0xFF)
		}
		return append(dst, bs...)
	default:
		bs := i.Bytes()
		if bs[0]&0x80 != 0 {
			// We'll have to pad this with 0x00 in order to stop it
			// looking like a negative number.
			dst = append(dst, 0x00)
		}
		return append(dst, bs...)
	}
}

//endregion

//region [UNIVERSAL 3] BIT STRING

// ParseBitString decodes the content octets of a primitive BIT STRING. The
// first content byte is the number of padding bits, which must not exceed 7
// and must be 0 for empty bit strings. Padding bits are returned as zero bits.
// Non-zero padding bits are reported as a non-canonical encoding.
func ParseBitString(tag asn1.Tag, c []byte) (asn1.BitString, error) {
	if len(c) == 0 {
		return asn1.BitString{}, syntaxError(tag, "zero length BIT STRING")
	}
	padding := c[0]
	if padding > 7 || len(c) == 1 && padding > 0 {
		return asn1.BitString{}, syntaxError(tag, "invalid padding bits in BIT STRING")
	}
	bs := asn1.BitString{
		Bytes:     c[1:],
		BitLength: (len(c)-1)*8 - int(padding),
	}
	mask := byte(1<<padding - 1)
	if len(bs.Bytes) > 0 && bs.Bytes[len(bs.Bytes)-1]&mask != 0 {
		// zero out padding bits
		b := append([]byte(nil), bs.Bytes...)
		b[len(b)-1] &^= mask
		bs.Bytes = b
		return bs, nonCanonical(tag, "non-zero padding bits in BIT STRING")
	}
	return bs, nil
}

// AppendBitString appends the DER encoding of bs to dst. Padding bits are
// encoded as zero bits.
func AppendBitString(dst []byte, bs asn1.BitString) ([]byte, error) {
	if !bs.IsValid() {
		return dst, errors.New("BitString is not valid")
	}
	padding := byte((8 - bs.BitLength%8) % 8)
	dst = append(dst, padding)
	if len(bs.Bytes) == 0 {
		return dst, nil
	}
	dst = append(dst, bs.Bytes[:len(bs.Bytes)-1]...)
	return append(dst, bs.Bytes[len(bs.Bytes)-1]&^byte(1<<padding-1)), nil
}

// NamedBitString returns the DER bit string with exactly the given bits set.
// Trailing zero bits are removed as required for named bit lists.
func NamedBitString(bits []int) asn1.BitString {
	n := 0
	for _, i := range bits {
		n = max(n, i+1)
	}
	bs := asn1.BitString{Bytes: make([]byte, (n+7)/8), BitLength: n}
	for _, i := range bits {
		bs.Bytes[i/8] |= 0x80 >> (i % 8)
	}
	return bs
}

//endregion

//region [UNIVERSAL 5] NULL

// ParseNull validates the content octets of a NULL.
func ParseNull(tag asn1.Tag, c []byte) error {
	if len(c) > 0 {
		return syntaxError(tag, "invalid NULL value")
	}
	return nil
}

//endregion

//region [UNIVERSAL 6] OBJECT IDENTIFIER

// ParseObjectIdentifier decodes the content octets of an OBJECT IDENTIFIER.
// The first two components of the OID are encoded into a single VLQ.
// Subsequent components use a variable-length base128 encoding.
func ParseObjectIdentifier(tag asn1.Tag, c []byte) (asn1.ObjectIdentifier, error) {
	if len(c) == 0 {
		return nil, syntaxError(tag, "zero length OBJECT IDENTIFIER")
	}

	// In the worst case, we get two elements from the first byte (which is
	// encoded differently) and then every varint is a single byte long.
	s := make(asn1.ObjectIdentifier, 1, len(c)+1)
	for i := 0; i < len(c); {
		v, n, err := vlq.Decode[uint](c[i:], true)
		if err != nil {
			return nil, &SyntaxError{tag, err}
		}
		i += n
		if len(s) == 1 {
			// The first varint is 40*value1 + value2:
			// According to this packing, value1 can take the values 0, 1 and 2 only.
			// When value1 = 0 or value1 = 1, then value2 is <= 39. When value1 = 2,
			// then there are no restrictions on value2.
			if v < 80 {
				s[0] = v / 40
				s = append(s, v%40)
			} else {
				s[0] = 2
				s = append(s, v-80)
			}
			continue
		}
		s = append(s, v)
	}
	return s, nil
}

// AppendObjectIdentifier appends the encoding of oid to dst.
func AppendObjectIdentifier(dst []byte, oid asn1.ObjectIdentifier) ([]byte, error) {
	if !oid.IsValid() {
		return dst, errors.New("invalid asn1.ObjectIdentifier")
	}
	dst = vlq.Append(dst, oid[0]*40+oid[1])
	for _, arc := range oid[2:] {
		dst = vlq.Append(dst, arc)
	}
	return dst, nil
}

//endregion

//region Character Strings

// ParseString decodes the joined content octets of a character string whose
// UNIVERSAL tag number is number. The characters are validated for the
// respective type. UniversalString is decoded as UTF-32, BMPString as UTF-16
// and TeletexString as ISO 8859-1.
func ParseString(tag asn1.Tag, number uint, c []byte) (string, error) {
	var s string
	switch number {
	case asn1.TagUniversalString:
		if len(c)%4 != 0 {
			return "", syntaxError(tag, "length of UniversalString is no multiple of 4")
		}
		var sb strings.Builder
		sb.Grow(len(c) / 4)
		for i := 0; i < len(c); i += 4 {
			r := rune(uint32(c[i])<<24 | uint32(c[i+1])<<16 | uint32(c[i+2])<<8 | uint32(c[i+3]))
			if !utf8.ValidRune(r) {
				return "", syntaxError(tag, "UniversalString contains invalid characters")
			}
			sb.WriteRune(r)
		}
		s = sb.String()
	case asn1.TagBMPString:
		if len(c)%2 != 0 {
			return "", syntaxError(tag, "odd-length BMP string")
		}
		u := make([]uint16, len(c)/2)
		for i := range u {
			u[i] = uint16(c[2*i])<<8 | uint16(c[2*i+1])
		}
		s = string(utf16.Decode(u))
	case asn1.TagTeletexString:
		rs := make([]rune, len(c))
		for i, b := range c {
			rs[i] = rune(b)
		}
		s = string(rs)
	default:
		s = string(c)
	}
	if !asn1.ValidString(number, s) {
		return "", syntaxError(tag, "string contains invalid characters")
	}
	return s, nil
}

// AppendString appends the encoding of s as a character string with the
// UNIVERSAL tag number to dst.
func AppendString(dst []byte, number uint, s string) ([]byte, error) {
	if !asn1.ValidString(number, s) {
		return dst, errors.New(asn1.Universal(number).String() + " contains invalid characters")
	}
	switch number {
	case asn1.TagUniversalString:
		for _, r := range s {
			dst = append(dst, byte(r>>24), byte(r>>16), byte(r>>8), byte(r))
		}
	case asn1.TagBMPString:
		for _, r := range s {
			dst = append(dst, byte(r>>8), byte(r))
		}
	case asn1.TagTeletexString:
		for _, r := range s {
			if r > 0xFF {
				return dst, errors.New("TeletexString contains invalid characters")
			}
			dst = append(dst, byte(r))
		}
	default:
		dst = append(dst, s...)
	}
	return dst, nil
}

//endregion

//region [UNIVERSAL 23] UTCTime and [UNIVERSAL 24] GeneralizedTime

// ParseTime decodes a UTCTime or GeneralizedTime depending on number. DER
// requires UTC times with seconds and without trailing zeros in fractions. Other
// valid forms are reported as non-canonical.
func ParseTime(tag asn1.Tag, number uint, c []byte) (time.Time, error) {
	var (
		t   time.Time
		err error
		f   func(time.Time) (string, bool)
	)
	if number == asn1.TagUTCTime {
		t, err = asn1.ParseUTCTime(string(c))
		f = asn1.FormatUTCTime
	} else {
		t, err = asn1.ParseGeneralizedTime(string(c))
		f = asn1.FormatGeneralizedTime
	}
	if err != nil {
		return t, &SyntaxError{tag, err}
	}
	if s, ok := f(t); !ok || s != string(c) {
		return t, nonCanonical(tag, "time is not in DER form")
	}
	return t, nil
}

// AppendTime appends the DER encoding of t as a UTCTime or GeneralizedTime
// depending on number.
func AppendTime(dst []byte, number uint, t time.Time) ([]byte, error) {
	var (
		s  string
		ok bool
	)
	if number == asn1.TagUTCTime {
		s, ok = asn1.FormatUTCTime(t)
	} else {
		s, ok = asn1.FormatGeneralizedTime(t)
	}
	if !ok {
		return dst, errors.New("cannot represent time as " + asn1.Universal(number).String())
	}
	return append(dst, s...), nil
}

//endregion
