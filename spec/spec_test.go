// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"fmt"
	"testing"

	"codello.dev/asn1tree"
)

func ExampleSpec_String() {
	version := Explicit(asn1.ContextSpecific(0), Integer().Named("Version"))
	fmt.Println(version)
	fmt.Println(Implicit(asn1.ContextSpecific(1), IA5String()))
	fmt.Println(SetOf(ObjectIdentifier()))

	// Output:
	// [0] EXPLICIT Version
	// [1] IMPLICIT IA5String
	// SET OF OBJECT IDENTIFIER
}

func TestSpec_Matches(t *testing.T) {
	choice := Choice("Time",
		Field{Name: "utc_time", Spec: UTCTime()},
		Field{Name: "general_time", Spec: GeneralizedTime()},
	)
	tests := map[string]struct {
		spec        *Spec
		tag         asn1.Tag
		constructed bool
		want        bool
	}{
		"Integer":                {Integer(), asn1.Universal(asn1.TagInteger), false, true},
		"IntegerConstructed":     {Integer(), asn1.Universal(asn1.TagInteger), true, false},
		"IntegerWrongTag":        {Integer(), asn1.Universal(asn1.TagBoolean), false, false},
		"Enumerated":             {Enumerated(), asn1.Universal(asn1.TagEnumerated), false, true},
		"NumericString":          {NumericString(), asn1.Universal(asn1.TagNumericString), true, true},
		"VisibleString":          {VisibleString(), asn1.Universal(asn1.TagVisibleString), false, true},
		"SequencePrimitive":      {Sequence("S"), asn1.Universal(asn1.TagSequence), false, false},
		"Sequence":               {Sequence("S"), asn1.Universal(asn1.TagSequence), true, true},
		"OctetStringConstructed": {OctetString(), asn1.Universal(asn1.TagOctetString), true, true},
		"Implicit":               {Implicit(asn1.ContextSpecific(2), Integer()), asn1.ContextSpecific(2), false, true},
		"ImplicitOriginalTag":    {Implicit(asn1.ContextSpecific(2), Integer()), asn1.Universal(asn1.TagInteger), false, false},
		"ImplicitSequence":       {Implicit(asn1.ContextSpecific(0), SetOf(Any())), asn1.ContextSpecific(0), true, true},
		"Explicit":               {Explicit(asn1.ContextSpecific(0), Integer()), asn1.ContextSpecific(0), true, true},
		"ExplicitPrimitive":      {Explicit(asn1.ContextSpecific(0), Integer()), asn1.ContextSpecific(0), false, false},
		"ChoiceFirst":            {choice, asn1.Universal(asn1.TagUTCTime), false, true},
		"ChoiceSecond":           {choice, asn1.Universal(asn1.TagGeneralizedTime), false, true},
		"ChoiceNone":             {choice, asn1.Universal(asn1.TagInteger), false, false},
		"Any":                    {Any(), asn1.Private(7), true, true},
		"ExplicitAny":            {Explicit(asn1.ContextSpecific(3), Any()), asn1.ContextSpecific(4), true, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.spec.Matches(tc.tag, tc.constructed); got != tc.want {
				t.Errorf("Matches(%v, %v) = %v, want %v", tc.tag, tc.constructed, got, tc.want)
			}
		})
	}
}

func TestSpec_Tag(t *testing.T) {
	if tag, ok := Integer().Tag(); !ok || tag != asn1.Universal(asn1.TagInteger) {
		t.Errorf("Integer().Tag() = %v, %v", tag, ok)
	}
	if _, ok := Any().Tag(); ok {
		t.Errorf("Any().Tag() reported a tag")
	}
	tagged := Implicit(asn1.Application(3), Explicit(asn1.ContextSpecific(1), Any()))
	if tag, ok := tagged.Tag(); !ok || tag != asn1.Application(3) {
		t.Errorf("Tag() = %v, %v, want %v", tag, ok, asn1.Application(3))
	}
	if tagged.Tagging() != TaggingExplicit || !tagged.Constructed() {
		t.Errorf("implicit tag replaced the explicit wrapper")
	}
}

func TestSpec_Base(t *testing.T) {
	inner := Implicit(asn1.ContextSpecific(5), Integer())
	s := Explicit(asn1.ContextSpecific(1), Explicit(asn1.ContextSpecific(2), inner))
	if s.Base() != inner {
		t.Errorf("Base() = %v, want %v", s.Base(), inner)
	}
	tags := s.ExplicitTags()
	if len(tags) != 2 || tags[0] != asn1.ContextSpecific(1) || tags[1] != asn1.ContextSpecific(2) {
		t.Errorf("ExplicitTags() = %v", tags)
	}
	if s.Kind() != KindInteger {
		t.Errorf("Kind() = %v, want %v", s.Kind(), KindInteger)
	}
}

func TestImplicit_Panics(t *testing.T) {
	tests := map[string]*Spec{
		"Any":    Any(),
		"Choice": Choice("C", Field{Name: "a", Spec: Integer()}),
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Implicit() did not panic")
				}
			}()
			Implicit(asn1.ContextSpecific(0), s)
		})
	}
}

func TestSequence_DuplicateField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Sequence() did not panic")
		}
	}()
	Sequence("S", Field{Name: "a", Spec: Integer()}, Field{Name: "a", Spec: Boolean()})
}

func TestSpec_Substitute(t *testing.T) {
	field := Explicit(asn1.ContextSpecific(0), Any())
	got := field.Substitute(Integer())
	if got.Kind() != KindInteger || got.Tagging() != TaggingExplicit {
		t.Fatalf("Substitute() = %v", got)
	}
	if tag, _ := got.Tag(); tag != asn1.ContextSpecific(0) {
		t.Errorf("Substitute().Tag() = %v", tag)
	}
	if Any().Substitute(Null()).Kind() != KindNull {
		t.Errorf("Substitute() on untagged spec did not replace it")
	}
}

func TestSpec_Names(t *testing.T) {
	version := Integer().WithValues(map[int64]string{0: "v1"})
	if name, ok := version.ValueName(0); !ok || name != "v1" {
		t.Errorf("ValueName(0) = %q, %v", name, ok)
	}
	if v, ok := Explicit(asn1.ContextSpecific(0), version).NamedValue("v1"); !ok || v != 0 {
		t.Errorf("NamedValue(v1) = %d, %v", v, ok)
	}

	usage := BitString().WithBits(map[int]string{0: "digital_signature", 5: "key_cert_sign"})
	if i, ok := usage.NamedBit("key_cert_sign"); !ok || i != 5 {
		t.Errorf("NamedBit() = %d, %v", i, ok)
	}
	if !usage.HasNamedBits() || BitString().HasNamedBits() {
		t.Errorf("HasNamedBits() mismatch")
	}

	oid := ObjectIdentifier().WithOIDNames(map[string]string{"1.2.840.113549.1.1.1": "rsa"})
	rsa := asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	if name, ok := oid.OIDName(rsa); !ok || name != "rsa" {
		t.Errorf("OIDName() = %q, %v", name, ok)
	}
	if got, ok := oid.NamedOID("rsa"); !ok || !got.Equal(rsa) {
		t.Errorf("NamedOID(rsa) = %v, %v", got, ok)
	}
	if got, ok := oid.NamedOID("2.5.4.3"); !ok || got.String() != "2.5.4.3" {
		t.Errorf("NamedOID(2.5.4.3) = %v, %v", got, ok)
	}
	if _, ok := oid.NamedOID("unknown"); ok {
		t.Errorf("NamedOID(unknown) succeeded")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry("test").
		Register(asn1.ObjectIdentifier{2, 5, 29, 19}, Sequence("BasicConstraints")).
		Register(asn1.ObjectIdentifier{2, 5, 29, 15}, BitString())
	if s, ok := r.Lookup(asn1.ObjectIdentifier{2, 5, 29, 15}); !ok || s.Kind() != KindBitString {
		t.Errorf("Lookup() = %v, %v", s, ok)
	}
	if _, ok := r.Lookup(asn1.ObjectIdentifier{2, 5, 29, 99}); ok {
		t.Errorf("Lookup() of an unknown OID succeeded")
	}
	var keys []string
	for k := range r.All() {
		keys = append(keys, k)
	}
	if len(keys) != 2 || keys[0] != "2.5.29.15" {
		t.Errorf("All() = %v", keys)
	}

	var nilRegistry *Registry
	if _, ok := nilRegistry.Lookup(asn1.ObjectIdentifier{1, 2}); ok {
		t.Errorf("Lookup() on a nil registry succeeded")
	}
}

func TestDispatch_Path(t *testing.T) {
	d := &Dispatch{By: "algorithm.algorithm"}
	if p := d.Path(); len(p) != 2 || p[0] != "algorithm" || p[1] != "algorithm" {
		t.Errorf("Path() = %v", p)
	}
}
