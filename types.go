// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
	"unsafe"
)

//region [UNIVERSAL 3] BIT STRING

// BitString implements the ASN.1 BIT STRING type. A bit string is padded up to
// the nearest byte in memory and the number of valid bits is recorded. Padding
// bits will be encoded and decoded as zero bits.
//
// See also section 22 of Rec. ITU-T X.680.
type BitString struct {
	Bytes     []byte // bits packed into bytes.
	BitLength int    // length in bits.
}

// IsValid reports whether there are enough bytes in s for the indicated
// BitLength.
func (s BitString) IsValid() bool {
	return s.BitLength >= 0 && len(s.Bytes) >= (s.BitLength+8-1)/8
}

// Len returns the number of bits in s.
func (s BitString) Len() int {
	return s.BitLength
}

// At returns the bit at the given index. If the index is out of range At panics.
func (s BitString) At(i int) int {
	if i < 0 || i >= s.BitLength {
		panic("index out of range")
	}
	x := i / 8
	y := 7 - uint(i%8)
	return int(s.Bytes[x]>>y) & 1
}

// String formats s into a readable binary representation. Bits are grouped
// into bytes. The last group may have fewer than 8 characters.
func (s BitString) String() string {
	var sb strings.Builder
	sb.Grow(s.BitLength + s.BitLength/8)
	for i := range s.BitLength {
		if i > 0 && i%8 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('0' + byte(s.At(i)))
	}
	return sb.String()
}

//endregion

//region [UNIVERSAL 6] OBJECT IDENTIFIER

// An ObjectIdentifier represents an ASN.1 OBJECT IDENTIFIER. The semantics of an object identifier are specified in [Rec. ITU-T X.660].
//
// See also section 32 of Rec. ITU-T X.680.
//
// [Rec. ITU-T X.660]: https://www.itu.int/rec/T-REC-X.660
type ObjectIdentifier []uint

// ParseObjectIdentifier parses the dot-separated notation of an object
// identifier such as "1.2.840.113549.1.1.1".
func ParseObjectIdentifier(s string) (ObjectIdentifier, error) {
	if s == "" {
		return nil, errors.New("empty object identifier")
	}
	oid := make(ObjectIdentifier, 0, strings.Count(s, ".")+1)
	for part := range strings.SplitSeq(s, ".") {
		n, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid object identifier %q: %w", s, err)
		}
		oid = append(oid, uint(n))
	}
	if !oid.IsValid() {
		return nil, fmt.Errorf("invalid object identifier %q", s)
	}
	return oid, nil
}

// IsValid reports whether oid can be encoded. The first arc must be 0, 1 or 2
// and the second arc must be below 40 unless the first arc is 2.
func (oid ObjectIdentifier) IsValid() bool {
	return len(oid) >= 2 && oid[0] <= 2 && (oid[0] == 2 || oid[1] < 40)
}

// Equal reports whether oid and other represent the same identifier.
func (oid ObjectIdentifier) Equal(other ObjectIdentifier) bool {
	return slices.Equal(oid, other)
}

// String returns the dot-separated notation of oid.
func (oid ObjectIdentifier) String() string {
	var s strings.Builder
	s.Grow(32)

	buf := make([]byte, 0, 19)
	for i, v := range oid {
		if i > 0 {
			s.WriteByte('.')
		}
		s.Write(strconv.AppendUint(buf, uint64(v), 10))
	}

	return s.String()
}

//endregion

//region [UNIVERSAL 17] SET

// Set represents a set of comparable values. Named bit strings convert into a
// Set of the names of the bits that are set.
type Set[T comparable] map[T]struct{}

// NewSet creates a new set with the specified elements.
func NewSet[T comparable](ts ...T) Set[T] {
	s := make(Set[T], len(ts))
	for _, v := range ts {
		s[v] = struct{}{}
	}
	return s
}

// Add adds value to the set.
func (s Set[T]) Add(value T) {
	s[value] = struct{}{}
}

// Remove removes value from the set, if it was present.
func (s Set[T]) Remove(value T) {
	delete(s, value)
}

// Contains indicates whether value is contained within the set.
func (s Set[T]) Contains(value T) bool {
	_, ok := s[value]
	return ok
}

//endregion

//region character strings

// ValidString reports whether s can be represented by the universal character
// string type identified by tag. Tags that do not identify a character string
// type report false.
func ValidString(tag uint, s string) bool {
	switch tag {
	case TagUTF8String, TagUniversalString, TagTeletexString, TagGeneralString, TagGraphicString:
		return utf8.ValidString(s)
	case TagNumericString:
		for i := 0; i < len(s); i++ {
			if !('0' <= s[i] && s[i] <= '9' || s[i] == ' ') {
				return false
			}
		}
		return true
	case TagPrintableString:
		for i := 0; i < len(s); i++ {
			if !isPrintable(s[i], true, true) {
				return false
			}
		}
		return true
	case TagIA5String:
		for i := 0; i < len(s); i++ {
			if s[i] >= utf8.RuneSelf {
				return false
			}
		}
		return true
	case TagVisibleString:
		for i := 0; i < len(s); i++ {
			if s[i] < ' ' || s[i] >= 0x7F {
				return false
			}
		}
		return true
	case TagBMPString:
		for _, r := range s {
			if r > 0xFFFF || (r >= 0xD800 && r < 0xE000) || r == utf8.RuneError {
				return false
			}
		}
		return true
	}
	return false
}

// isPrintable reports whether the given b is in the ASN.1 PrintableString set.
// If asterisk is allowAsterisk then '*' is also allowed, reflecting existing
// practice. If ampersand is allowAmpersand then '&' is allowed as well.
func isPrintable(b byte, asterisk, ampersand bool) bool {
	return 'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z' ||
		'0' <= b && b <= '9' ||
		'\'' <= b && b <= ')' ||
		'+' <= b && b <= '/' ||
		b == ' ' ||
		b == ':' ||
		b == '=' ||
		b == '?' ||
		// This is technically not allowed in a PrintableString.
		// However, x509 certificates with wildcard strings don't
		// always use the correct string type so we permit it.
		(asterisk && b == '*') ||
		// This is not technically allowed either. However, not
		// only is it relatively common, but there are also a
		// handful of CA certificates that contain it. At least
		// one of which will not expire until 2027.
		(ampersand && b == '&')
}

//endregion

//region [UNIVERSAL 23] UTCTime

// FormatUTCTime returns t in the format YYMMDDhhmmssZ. The time is converted
// to UTC. FormatUTCTime reports false if the year of t is not between 1950 and
// 2049.
func FormatUTCTime(t time.Time) (string, bool) {
	t = t.UTC()
	if t.Year() < 1950 || t.Year() >= 2050 {
		return "", false
	}
	b := strings.Builder{}
	b.Grow(13)
	b.WriteString(itoaN(t.Year()%100, 2))
	b.WriteString(itoaN(int(t.Month()), 2))
	b.WriteString(itoaN(t.Day(), 2))
	b.WriteString(itoaN(t.Hour(), 2))
	b.WriteString(itoaN(t.Minute(), 2))
	b.WriteString(itoaN(t.Second(), 2))
	b.WriteByte('Z')
	return b.String(), true
}

// ParseUTCTime parses the UTCTime string representation s. Both the DER form
// YYMMDDhhmmssZ and the BER forms without seconds or with a numeric time zone
// offset are accepted. Two-digit years below 50 are in the 21st century.
func ParseUTCTime(s string) (time.Time, error) {
	errInvalid := errors.New("invalid UTCTime")
	if len(s) < 11 || len(s) > 17 {
		return time.Time{}, errInvalid
	}
	year := atoiN[int](s, 2)
	month := atoiN[time.Month](s[2:], 2)
	day := atoiN[int](s[4:], 2)
	hour := atoiN[int](s[6:], 2)
	minute := atoiN[int](s[8:], 2)
	s = s[10:]
	second := atoiN[int](s, 2)
	if second >= 0 {
		s = s[2:]
	} else {
		second = 0
	}
	loc := parseLocation(s)
	if loc == nil {
		return time.Time{}, errInvalid
	}

	// UTCTime only encodes times prior to 2050. See https://tools.ietf.org/html/rfc5280#section-4.1.2.5.1
	if year < 0 || month < 0 || day < 0 || hour < 0 || minute < 0 {
		return time.Time{}, errInvalid
	} else if year <= 49 {
		year += 2000
	} else {
		year += 1900
	}
	ret := time.Date(year, month, day, hour, minute, second, 0, loc)
	if ret.Year() != year || ret.Month() != month || ret.Day() != day || ret.Hour() != hour || ret.Minute() != minute || ret.Second() != second {
		return time.Time{}, errInvalid
	}
	return ret, nil
}

//endregion

//region [UNIVERSAL 24] GeneralizedTime

// FormatGeneralizedTime returns t in the DER format YYYYMMDDhhmmss[.f]Z. The
// time is converted to UTC and trailing zeros of the fraction are omitted.
// FormatGeneralizedTime reports false if the year of t is not between 1 and
// 9999.
func FormatGeneralizedTime(t time.Time) (string, bool) {
	t = t.UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return "", false
	}
	b := strings.Builder{}
	b.Grow(25) // allocate enough space for nanosecond precision
	b.WriteString(itoaN(t.Year(), 4))
	b.WriteString(itoaN(int(t.Month()), 2))
	b.WriteString(itoaN(t.Day(), 2))
	b.WriteString(itoaN(t.Hour(), 2))
	b.WriteString(itoaN(t.Minute(), 2))
	b.WriteString(itoaN(t.Second(), 2))
	if t.Nanosecond() > 0 {
		s := strconv.FormatFloat(float64(t.Nanosecond())/float64(time.Second), 'f', -1, 64)
		b.WriteString(s[1:])
	}
	b.WriteByte('Z')
	return b.String(), true
}

// ParseGeneralizedTime parses the GeneralizedTime string representation s.
// Minutes, seconds and fractions are optional as permitted by BER. A missing
// time zone designator is interpreted as local time.
func ParseGeneralizedTime(s string) (time.Time, error) {
	errInvalid := errors.New("invalid GeneralizedTime")
	if len(s) < 10 {
		return time.Time{}, errInvalid
	}
	year := atoiN[int](s, 4)
	month := atoiN[time.Month](s[4:], 2)
	day := atoiN[int](s[6:], 2)
	hour := atoiN[time.Duration](s[8:], 2)
	if year < 0 || month < 0 || day < 0 || hour < 0 || 23 < hour {
		return time.Time{}, errInvalid
	}
	s = s[10:]
	dur := hour * time.Hour
	unit := time.Hour // unit for fractional time
	if len(s) >= 2 && '0' <= s[0] && s[0] <= '9' {
		minute := atoiN[time.Duration](s, 2)
		if minute < 0 || minute > 59 {
			return time.Time{}, errInvalid
		}
		dur += minute * time.Minute
		unit = time.Minute
		s = s[2:]
	}
	if len(s) >= 2 && '0' <= s[0] && s[0] <= '9' {
		second := atoiN[time.Duration](s, 2)
		if second < 0 || second > 59 {
			return time.Time{}, errInvalid
		}
		unit = time.Second
		dur += second * time.Second
		s = s[2:]
	}
	if len(s) > 0 && (s[0] == '.' || s[0] == ',') {
		i := 1
		for ; i < len(s); i++ {
			if s[i] < '0' || '9' < s[i] {
				break
			}
			unit /= 10
			dur += time.Duration(s[i]-'0') * unit
		}
		if i == 1 {
			return time.Time{}, errInvalid
		}
		s = s[i:]
	}
	var loc *time.Location
	if len(s) == 0 {
		loc = time.Local
	} else if loc = parseLocation(s); loc == nil {
		return time.Time{}, errInvalid
	}
	ret := time.Date(year, month, day, 0, 0, 0, 0, loc).Add(dur)
	if ret.Year() != year || ret.Month() != month || ret.Day() != day {
		return time.Time{}, errInvalid
	}
	return ret, nil
}

//endregion

// parseLocation parses a time zone designator: either "Z" or a numeric offset
// of the form +hhmm or -hhmm.
func parseLocation(s string) *time.Location {
	if len(s) == 1 && s[0] == 'Z' {
		return time.UTC
	}
	if len(s) != 5 {
		return nil
	}
	if s[0] != '+' && s[0] != '-' {
		return nil
	}
	mul := 44 - int(s[0])
	locHour := atoiN[int](s[1:], 2)
	locMinute := atoiN[int](s[3:], 2)
	if locHour < 0 || locMinute < 0 {
		return nil
	}
	return time.FixedZone("", mul*(locHour*3600+locMinute*60))
}

// atoiN parses exactly n decimal digits from the start of s. It returns -1 if
// s is too short or contains a non-digit.
func atoiN[T ~int | ~int64](s string, n int) (i T) {
	if len(s) < n {
		return -1
	}
	for j := 0; j < n; j++ {
		if s[j] < '0' || '9' < s[j] {
			return -1
		}
		i = i*10 + T(s[j]-'0')
	}
	return i
}

// itoaN returns the base 10 string representation of the absolute value of i,
// truncated or zero padded to exactly n digits.
func itoaN[T ~int](i T, n int) string {
	if i < 0 {
		i = -i
	}
	bs := make([]byte, n)
	for ; n > 0; n-- {
		bs[n-1] = '0' + byte(i%10)
		i /= 10
	}
	return unsafe.String(unsafe.SliceData(bs), len(bs))
}

//region RawValue

// A RawValue represents an un-decoded ASN.1 data value. The tree package uses
// RawValue for ANY values whose type cannot be resolved. FullBytes holds the
// complete encoding including the header, Bytes only the content octets.
type RawValue struct {
	Tag         Tag
	Constructed bool
	Bytes       []byte
	FullBytes   []byte
}

// String returns a string representation of rv. The byte contents of rv are
// only included if they are short enough.
func (rv RawValue) String() string {
	constructed := "primitive"
	if rv.Constructed {
		constructed = "constructed"
	}
	if len(rv.Bytes) > 24 {
		return fmt.Sprintf("RawValue{%s (%s) {%d bytes}}", rv.Tag.String(), constructed, len(rv.Bytes))
	}
	return fmt.Sprintf("RawValue{%s (%s) {% X}}", rv.Tag.String(), constructed, rv.Bytes)
}

//endregion
