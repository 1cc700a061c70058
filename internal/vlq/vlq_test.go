package vlq

import (
	"errors"
	"slices"
	"strconv"
	"testing"
)

//region Testing Helpers

// decodeTestCase represents a single decoding test case for type T.
type decodeTestCase[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64] struct {
	data    []byte // input
	n       int    // number of bytes belonging to the VLQ
	want    T      // expected output
	wantErr error  // expected error
}

// testDecode asserts that decoding a VLQ from tc.data produces the expected results.
func testDecode[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](t *testing.T, minimal bool, tc decodeTestCase[T]) {
	t.Helper()

	got, n, err := Decode[T](tc.data, minimal)
	if !errors.Is(err, tc.wantErr) {
		t.Fatalf("Decode(%# x) error = %v, wantErr %v", tc.data, err, tc.wantErr)
	}
	if err != nil {
		return
	}
	if got != tc.want {
		t.Errorf("Decode(%# x) got = %v, want %v", tc.data, got, tc.want)
	}
	if n != tc.n {
		t.Errorf("Decode(%# x) n = %d, want %d", tc.data, n, tc.n)
	}
}

// appendTestCase represents a single encoding test case for type T.
type appendTestCase[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64] struct {
	value T
	want  []byte
}

// testAppend asserts that appending tc.value produces the bytes in tc.want.
func testAppend[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](t *testing.T, tc appendTestCase[T]) {
	t.Helper()

	if l := Length(tc.value); l != len(tc.want) {
		t.Errorf("Length(%d) = %d, want %d", tc.value, l, len(tc.want))
	}
	prefix := []byte{0xAA}
	got := Append(prefix, tc.value)
	if !slices.Equal(got[1:], tc.want) || got[0] != 0xAA {
		t.Errorf("Append(%d) = %# x, want %# x", tc.value, got[1:], tc.want)
	}
}

//endregion

func TestDecode(t *testing.T) {
	tests := map[string]decodeTestCase[uint]{
		"SingleByte":  {[]byte{0x05}, 1, 5, nil},
		"MultiByte":   {[]byte{0x85, 0x01, 0x00}, 2, 641, nil},
		"LeadingZero": {[]byte{0x80, 0x85, 0x01}, 3, 641, nil},
		"Empty":       {nil, 0, 0, ErrTruncated},
		"Truncated":   {[]byte{0x81, 0x80}, 0, 0, ErrTruncated},
		"Overflow":    {[]byte{0x81, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, 0, 0, ErrOverflow}, // assumes uint size of 8 bytes (64 bit architecture)
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			testDecode(t, false, tc)
		})
	}
}

func TestDecode8(t *testing.T) {
	tests := map[string]decodeTestCase[uint8]{
		"SingleByte": {[]byte{0x05}, 1, 5, nil},
		"Overflow":   {[]byte{0x85, 0x01, 0x00}, 0, 0, ErrOverflow},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			testDecode(t, false, tc)
		})
	}
}

func TestDecodeMinimal(t *testing.T) {
	got, n, err := Decode[uint]([]byte{0x80, 0x85, 0x01}, true)
	if !errors.Is(err, ErrNotMinimal) {
		t.Fatalf("Decode() error = %v, want %v", err, ErrNotMinimal)
	}
	if got != 641 || n != 3 {
		t.Errorf("Decode() = %d, %d, want 641, 3", got, n)
	}
}

func TestAppend(t *testing.T) {
	tests := []appendTestCase[uint]{
		{0, []byte{0x00}},
		{25, []byte{25}},
		{641, []byte{0x85, 0x01}},
		{113549, []byte{0x86, 0xF7, 0x0D}},
	}
	for _, tc := range tests {
		t.Run(strconv.FormatUint(uint64(tc.value), 10), func(t *testing.T) {
			testAppend(t, tc)
		})
	}
}

func TestAppend8(t *testing.T) {
	tests := []appendTestCase[uint8]{
		{0, []byte{0x00}},
		{200, []byte{0x81, 0x48}},
	}
	for _, tc := range tests {
		t.Run(strconv.FormatUint(uint64(tc.value), 10), func(t *testing.T) {
			testAppend(t, tc)
		})
	}
}

func BenchmarkLength(b *testing.B) {
	for b.Loop() {
		Length(uint8(200))
	}
}
