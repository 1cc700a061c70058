package tlv

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/internal/vlq"
)

// ReadTagNumber decodes a high tag number form VLQ starting at buf[off]. It
// returns the tag number and the offset of the first byte after it. Tag numbers
// with leading zero bytes or exceeding [MaxTagNumber] are rejected with
// [ErrInvalidTag].
func ReadTagNumber(buf []byte, off int) (uint, int, error) {
	if off >= len(buf) {
		return 0, off, ErrTruncated
	}
	n, l, err := vlq.Decode[uint](buf[off:], true)
	switch {
	case errors.Is(err, vlq.ErrTruncated):
		return 0, off, ErrTruncated
	case errors.Is(err, vlq.ErrNotMinimal):
		return 0, off, fmt.Errorf("%w: tag number has leading zeros", ErrInvalidTag)
	case err != nil, n > MaxTagNumber:
		return 0, off, fmt.Errorf("%w: tag number too large", ErrInvalidTag)
	}
	return n, off + l, nil
}

// ReadHeader decodes the TLV header starting at buf[off] according to mode. It
// returns the header and the offset of the first content byte. ReadHeader does
// not verify that the content octets announced by the header are present in
// buf. Use [ReadElement] for that.
//
// All errors returned by ReadHeader are of type *[SyntaxError].
func ReadHeader(buf []byte, off int, mode Mode) (Header, int, error) {
	start := off
	var h Header
	if off >= len(buf) {
		return h, off, syntaxError(start, h, ErrTruncated)
	}
	b := buf[off]
	off++
	h.Tag.Class = asn1.Class(b >> 6)
	h.Constructed = b&0x20 != 0
	h.Tag.Number = uint(b & 0x1f)
	if h.Tag.Number == 0x1f {
		var err error
		h.Tag.Number, off, err = ReadTagNumber(buf, off)
		if err != nil {
			return h, start, syntaxError(start, h, err)
		}
		if h.Tag.Number < 0x1f && mode.Strict() {
			return h, start, syntaxError(start, h, fmt.Errorf("%w: high tag number form for tag %d", ErrNonCanonical, h.Tag.Number))
		}
	}

	if off >= len(buf) {
		return h, start, syntaxError(start, h, ErrTruncated)
	}
	b = buf[off]
	off++
	switch {
	case b < 0x80:
		h.Length = int(b)
	case b == 0x80:
		h.Length = LengthIndefinite
		if !h.Constructed {
			return h, start, syntaxError(start, h, fmt.Errorf("%w: indefinite length for primitive encoding", ErrInvalidLength))
		}
		if !mode.AllowsIndefinite() {
			return h, start, syntaxError(start, h, fmt.Errorf("%w in %s", ErrIndefiniteLength, mode))
		}
	case b == 0xff:
		return h, start, syntaxError(start, h, fmt.Errorf("%w: reserved length byte", ErrInvalidLength))
	default:
		n := int(b & 0x7f)
		if n > len(buf)-off {
			return h, start, syntaxError(start, h, fmt.Errorf("%w: %d length bytes exceed input", ErrInvalidLength, n))
		}
		if buf[off] == 0 && mode.Strict() {
			return h, start, syntaxError(start, h, fmt.Errorf("%w: length has leading zeros", ErrNonCanonical))
		}
		for _, c := range buf[off : off+n] {
			if h.Length > math.MaxInt>>8 {
				return h, start, syntaxError(start, h, fmt.Errorf("%w: length too large", ErrInvalidLength))
			}
			h.Length = h.Length<<8 | int(c)
		}
		off += n
		if h.Length < 0x80 && mode.Strict() {
			return h, start, syntaxError(start, h, fmt.Errorf("%w: long form for length %d", ErrNonCanonical, h.Length))
		}
	}
	h.Raw = buf[start:off]
	return h, off, nil
}

// ReadElement reads the complete TLV starting at buf[off]. For definite-length
// elements the content octets must be present within buf. For
// indefinite-length elements ReadElement scans iteratively for the matching
// end-of-contents marker. Nested indefinite-length encodings deeper than
// maxDepth are rejected with [ErrTooDeep]. A maxDepth <= 0 disables the
// limit.
//
// All errors returned by ReadElement are of type *[SyntaxError].
func ReadElement(buf []byte, off int, mode Mode, maxDepth int) (Element, error) {
	h, c, err := ReadHeader(buf, off, mode)
	if err != nil {
		return Element{}, err
	}
	if h.IsEndOfContents() {
		return Element{}, syntaxError(off, h, errUnexpectedEOC)
	}
	if h.Tag == (asn1.Tag{}) && !h.Constructed {
		return Element{}, syntaxError(off, h, errInvalidEOC)
	}
	if h.Length != LengthIndefinite {
		if h.Length > len(buf)-c {
			return Element{}, syntaxError(off, h, ErrTruncated)
		}
		end := c + h.Length
		return Element{Header: h, Offset: off, Content: buf[c:end], Full: buf[off:end]}, nil
	}

	depth := 1
	p := c
	for {
		if p >= len(buf) {
			return Element{}, syntaxError(p, h, ErrTruncated)
		}
		if buf[p] == 0 {
			if p+1 >= len(buf) {
				return Element{}, syntaxError(p, h, ErrTruncated)
			}
			if buf[p+1] != 0 {
				return Element{}, syntaxError(p, h, errInvalidEOC)
			}
			p += 2
			depth--
			if depth == 0 {
				return Element{Header: h, Offset: off, Content: buf[c : p-2], Full: buf[off:p]}, nil
			}
			continue
		}
		ch, cc, err := ReadHeader(buf, p, mode)
		if err != nil {
			return Element{}, err
		}
		if ch.Length == LengthIndefinite {
			depth++
			if maxDepth > 0 && depth > maxDepth {
				return Element{}, syntaxError(p, ch, ErrTooDeep)
			}
			p = cc
			continue
		}
		if ch.Length > len(buf)-cc {
			return Element{}, syntaxError(p, ch, ErrTruncated)
		}
		p = cc + ch.Length
	}
}

// Children returns an iterator over the consecutive elements in buf[off:]. The
// iteration stops after the first error. buf usually is the prefix of a
// document ending at the content end of a constructed element, and off its
// first content byte.
func Children(buf []byte, off int, mode Mode, maxDepth int) iter.Seq2[Element, error] {
	return func(yield func(Element, error) bool) {
		for off < len(buf) {
			e, err := ReadElement(buf, off, mode, maxDepth)
			if !yield(e, err) || err != nil {
				return
			}
			off = e.End()
		}
	}
}
