// Package tlv implements decoding and encoding of the tag-length-value (TLV)
// format used by the Basic Encoding Rules (BER) and the Distinguished Encoding
// Rules (DER) as specified in [Rec. ITU-T X.690].
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// The functions of this package operate on in-memory byte slices. They are
// pure: no function retains or modifies its input. Offsets passed to and
// returned from the functions are absolute offsets into the given buffer, so a
// caller can parse nested encodings by passing a prefix of a larger document
// (buf[:end]) without re-basing offsets.
//
// # Headers and Elements
//
// In BER each value is encoded using a tag-length-value format. The tag and
// length (we call them a header) are represented by the [Header] type. A
// [Header] together with the location of its content octets forms an
// [Element]. Constructed elements may use the indefinite-length form, in which
// case the content octets are terminated by an end-of-contents marker (two
// zero bytes). [ReadElement] determines the full extent of such elements.
//
// # Modes
//
// The [Mode] controls how strictly the encoding rules are enforced. [BER]
// accepts every valid BER encoding. [DER] rejects the indefinite-length form
// but tolerates other non-canonical forms such as non-minimal lengths.
// [StrictDER] rejects every form that DER does not permit with an error
// wrapping [ErrNonCanonical].
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package tlv

import (
	"strconv"

	"codello.dev/asn1tree"
)

// LengthIndefinite when used as a magic number for the length of a [Header]
// indicates that the data value is encoded using the constructed
// indefinite-length format.
const LengthIndefinite = -1

// MaxTagNumber is the largest tag number accepted by [ReadTagNumber]. Larger
// tag numbers are syntactically valid BER but do not occur in practice.
const MaxTagNumber = 1<<31 - 1

// Mode selects the encoding rules that are enforced while reading.
//
//go:generate stringer -type=Mode
type Mode uint8

const (
	// DER rejects indefinite lengths. Other non-canonical forms are tolerated.
	DER Mode = iota
	// BER accepts all valid BER encodings including indefinite lengths.
	BER
	// StrictDER rejects every encoding that is not valid DER.
	StrictDER
)

// AllowsIndefinite reports whether m permits the indefinite-length form.
func (m Mode) AllowsIndefinite() bool { return m == BER }

// Strict reports whether m rejects non-canonical encodings.
func (m Mode) Strict() bool { return m == StrictDER }

// Header represents a TLV header. The [Header.Length] may be [LengthIndefinite]
// if an indefinite-length encoding is used. It is invalid to use the
// indefinite-length encoding when [Header.Constructed] = false.
//
// Raw holds the header bytes exactly as they were read. It is nil for headers
// that have not been read from an input.
type Header struct {
	Tag         asn1.Tag
	Constructed bool
	Length      int
	Raw         []byte
}

// IsEndOfContents reports whether h is the end-of-contents marker.
func (h Header) IsEndOfContents() bool {
	return h.Tag == asn1.Tag{} && !h.Constructed && h.Length == 0
}

// String returns a string representation of h.
func (h Header) String() string {
	if h.IsEndOfContents() {
		return "EndOfContents"
	}
	s := h.Tag.String()
	if h.Constructed {
		s += "/c"
	} else {
		s += "/p"
	}
	if h.Length == LengthIndefinite {
		return s + ":indefinite"
	}
	return s + ":" + strconv.Itoa(h.Length)
}

// Element is a complete TLV within a buffer. Offset is the position of the
// first header byte. Content holds the content octets, excluding the
// end-of-contents marker of indefinite-length elements. Full holds the entire
// encoding, including header and end-of-contents marker.
type Element struct {
	Header
	Offset  int
	Content []byte
	Full    []byte
}

// End returns the offset of the first byte after e.
func (e Element) End() int {
	return e.Offset + len(e.Full)
}

// ContentOffset returns the offset of the first content byte of e.
func (e Element) ContentOffset() int {
	return e.Offset + len(e.Header.Raw)
}

// requireKeyedLiterals can be embedded in a struct to require keyed literals.
type requireKeyedLiterals struct{}

// nonComparable can be embedded in a struct to prevent comparability.
type nonComparable [0]func()
