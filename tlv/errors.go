package tlv

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrTruncated indicates that the input ends before a header or the
	// content octets it announces. Truncated input is never padded.
	ErrTruncated = errors.New("truncated input")

	// ErrInvalidLength indicates malformed length octets: a reserved form, a
	// length that does not fit into an int, more length bytes than the input
	// holds, or an indefinite length where it is not permitted.
	ErrInvalidLength = errors.New("invalid length")

	// ErrIndefiniteLength indicates an indefinite length in a mode that does not
	// allow it. It wraps [ErrInvalidLength].
	ErrIndefiniteLength = fmt.Errorf("%w: indefinite length not allowed", ErrInvalidLength)

	// ErrInvalidTag indicates malformed identifier octets.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrNonCanonical indicates a valid BER encoding that DER does not permit.
	// It is only reported in [StrictDER] mode.
	ErrNonCanonical = errors.New("non-canonical encoding")

	// ErrTooDeep indicates that nested indefinite-length encodings exceed the
	// configured depth limit.
	ErrTooDeep = errors.New("nesting too deep")

	errUnexpectedEOC = errors.New("unexpected end of contents")
	errInvalidEOC    = errors.New("invalid end of contents")
)

// SyntaxError represents an error in the TLV encoding. The error value contains
// the location of the error within the input as well as the [Header] of the
// element that was being read, as far as it could be decoded.
type SyntaxError struct {
	requireKeyedLiterals
	nonComparable

	Err error // underlying error

	// Offset is the location of the error. The location is usually the start of
	// the TLV header containing the error.
	Offset int

	// Header is the (possibly partial) header of the TLV containing the
	// malformed data.
	Header Header
}

func (e *SyntaxError) Unwrap() error { return e.Err }
func (e *SyntaxError) Error() string {
	b := []byte("tlv: syntax error")
	if e.Header.Tag.Number != 0 || e.Header.Tag.Class != 0 {
		b = append(b, " in "...)
		b = append(b, e.Header.Tag.String()...)
	}
	b = strconv.AppendInt(append(b, " at offset "...), int64(e.Offset), 10)
	if e.Err != nil {
		b = append(b, ": "...)
		b = append(b, e.Err.Error()...)
	}
	return string(b)
}

// syntaxError is a shorthand for constructing a *SyntaxError.
func syntaxError(off int, h Header, err error) error {
	return &SyntaxError{Err: err, Offset: off, Header: h}
}
