package tlv

import (
	"fmt"

	"codello.dev/asn1tree"
)

func ExampleHeader_String() {
	fmt.Println(Header{Tag: asn1.Universal(asn1.TagSequence), Constructed: true, Length: LengthIndefinite})
	fmt.Println(Header{Tag: asn1.ContextSpecific(3), Length: 5})
	fmt.Println(Header{})

	// Output:
	// [UNIVERSAL 16]/c:indefinite
	// [3]/p:5
	// EndOfContents
}

func ExampleReadElement() {
	data := []byte{0x30, 0x80, 0x02, 0x01, 0x15, 0x00, 0x00}
	e, err := ReadElement(data, 0, BER, 0)
	if err != nil {
		panic(err)
	}
	fmt.Println(e.Header)
	fmt.Printf("% X\n", e.Content)

	// Output:
	// [UNIVERSAL 16]/c:indefinite
	// 02 01 15
}
