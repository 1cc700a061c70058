package tlv

import (
	"testing"

	"codello.dev/asn1tree"
)

func BenchmarkReadElement(b *testing.B) {
	data := []byte{0x02, 0x01, 0x15}
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		if _, err := ReadElement(data, 0, DER, 0); err != nil {
			b.Fatalf("ReadElement() returned an unexpected error: %q", err)
		}
	}
}

func BenchmarkReadElementIndefinite(b *testing.B) {
	run := func(k int) func(*testing.B) {
		return func(b *testing.B) {
			data := make([]byte, 0, 4*k)
			for range k {
				data = append(data, 0x30, 0x80)
			}
			for range k {
				data = append(data, 0x00, 0x00)
			}
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				if _, err := ReadElement(data, 0, BER, 0); err != nil {
					b.Fatalf("ReadElement() returned an unexpected error: %q", err)
				}
			}
		}
	}

	b.Run("1", run(1))
	b.Run("3", run(3))
	b.Run("10", run(10))
	b.Run("20", run(20))
}

func BenchmarkAppendHeader(b *testing.B) {
	buf := make([]byte, 0, 16)
	tag := asn1.ContextSpecific(300)
	for b.Loop() {
		buf = AppendHeader(buf[:0], tag, true, 70000)
	}
}
