// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree_test

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/spec"
	"codello.dev/asn1tree/tlv"
	"codello.dev/asn1tree/tree"
)

func TestNew(t *testing.T) {
	tests := map[string]struct {
		spec *spec.Spec
		x    any
		want string
	}{
		"Defaults": {record, map[string]any{
			"version": "v1",
			"id":      5,
			"name":    "abc",
			"flag":    false,
			"tags":    []string{"x", "y"},
		}, minimalRecord},
		"Full": {record, tree.Map{
			{Key: "version", Value: "v2"},
			{Key: "id", Value: big.NewInt(5)},
			{Key: "name", Value: "abc"},
			{Key: "flag", Value: true},
			{Key: "note", Value: "hi"},
			{Key: "tags", Value: []any{"x", "y"}},
		}, fullRecord},
		"NilOptional":  {record, map[string]any{"id": int64(5), "name": "abc", "note": nil, "tags": []any{"x", "y"}}, minimalRecord},
		"Null":         {spec.Null(), nil, "05 00"},
		"EmptyOctets":  {spec.OctetString(), []byte{}, "04 00"},
		"EmptyList":    {spec.SequenceOf(spec.Integer()), []int{}, "30 00"},
		"OID":          {spec.ObjectIdentifier(), "1.2.840.113549", "06 06 2a 86 48 86 f7 0d"},
		"BitString":    {spec.BitString(), asn1.BitString{Bytes: []byte{0xb0}, BitLength: 4}, "03 02 04 b0"},
		"NamedBits":    {spec.BitString().WithBits(map[int]string{0: "a", 1: "b", 2: "c"}), []string{"a", "c"}, "03 02 05 a0"},
		"NoNamedBits":  {spec.BitString().WithBits(map[int]string{0: "a"}), asn1.NewSet[string](), "03 01 00"},
		"SetOfSorted":  {spec.SetOf(spec.Integer()), []int{3, 1, 2}, "31 09 02 01 01 02 01 02 02 01 03"},
		"Explicit":     {spec.Explicit(asn1.ContextSpecific(3), spec.Boolean()), true, "a3 03 01 01 ff"},
		"Implicit":     {spec.Implicit(asn1.Application(1), spec.SequenceOf(spec.Boolean())), []bool{false}, "61 03 01 01 00"},
		"AnyRaw":       {spec.Any(), asn1.RawValue{Tag: asn1.Universal(asn1.TagNull)}, "05 00"},
		"AnyBytes":     {spec.Any(), []byte{0x01, 0x01, 0xff}, "01 01 ff"},
		"Encapsulated": {spec.OctetString().Containing(spec.Boolean()), true, "04 03 01 01 ff"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := tree.New(tc.spec, tc.x)
			require.NoError(t, err)
			assert.True(t, v.Dirty())
			assert.Equal(t, tree.StateDirty, v.State())
			out, err := tree.Dump(v)
			require.NoError(t, err)
			assert.Equal(t, unhex(t, tc.want), out)

			// Natives of loaded values build the same encoding.
			l, err := tree.Load(out, tc.spec)
			require.NoError(t, err)
			x, err := l.Native()
			require.NoError(t, err)
			nv, err := tree.New(tc.spec, x)
			require.NoError(t, err)
			again, err := tree.Dump(nv)
			require.NoError(t, err)
			assert.Equal(t, out, again)
		})
	}
}

func TestNew_Choice(t *testing.T) {
	timeSpec := spec.Choice("Time",
		spec.Field{Name: "utc_time", Spec: spec.UTCTime()},
		spec.Field{Name: "general_time", Spec: spec.GeneralizedTime()},
	)
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := map[string]struct {
		x    any
		want string
	}{
		"FirstMatch": {ts, "17 0d 32 35 30 31 30 31 30 30 30 30 30 30 5a"},
		"Named":      {map[string]any{"general_time": ts}, "18 0f 32 30 32 35 30 31 30 31 30 30 30 30 30 30 5a"},
		"OutOfRange": {time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC), "18 0f 32 30 35 30 30 31 30 31 30 30 30 30 30 30 5a"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := tree.New(timeSpec, tc.x)
			require.NoError(t, err)
			out, err := tree.Dump(v)
			require.NoError(t, err)
			assert.Equal(t, unhex(t, tc.want), out)
		})
	}

	_, err := tree.New(timeSpec, 42)
	var nomatch *tree.NoMatchingChoiceError
	require.ErrorAs(t, err, &nomatch)
	assert.Equal(t, "native int", nomatch.Actual)
}

func TestNew_Errors(t *testing.T) {
	tests := map[string]struct {
		spec *spec.Spec
		x    any
		want error
	}{
		"MissingField":  {record, map[string]any{"id": 1, "tags": []string{}}, tree.ErrMissingField},
		"UnknownField":  {record, map[string]any{"id": 1, "name": "a", "tags": []string{}, "extra": 1}, tree.ErrUnknownField},
		"WrongType":     {spec.Boolean(), "true", tree.ErrInvalidNative},
		"UnknownValue":  {recordVersion, "v9", tree.ErrInvalidNative},
		"UnknownBit":    {spec.BitString().WithBits(map[int]string{0: "a"}), []string{"z"}, tree.ErrInvalidNative},
		"UnknownOID":    {spec.ObjectIdentifier(), "not an oid", tree.ErrInvalidNative},
		"NotAList":      {spec.SequenceOf(spec.Integer()), 5, tree.ErrInvalidNative},
		"AnyTrailing":   {spec.Any(), []byte{0x05, 0x00, 0x00}, tree.ErrTrailingData},
		"AnyTruncated":  {spec.Any(), []byte{0x04, 0x02, 0x00}, tree.ErrTruncated},
		"TooDeep":       {spec.SequenceOf(spec.SequenceOf(spec.Integer())), [][]int{{1}}, tree.ErrTooDeep},
		"NotAMap":       {record, []int{1}, tree.ErrInvalidNative},
		"ChoiceNoMatch": {spec.Choice("C", spec.Field{Name: "b", Spec: spec.Boolean()}), "x", tree.ErrNoMatchingChoice},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tree.New(tc.spec, tc.x, tree.WithMaxDepth(2))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNew_Hook(t *testing.T) {
	// Points are represented as two-element slices instead of maps.
	point := spec.Sequence("Point",
		spec.Field{Name: "x", Spec: spec.Integer()},
		spec.Field{Name: "y", Spec: spec.Integer()},
	).WithHook(spec.NativeHook{
		ToNative: func(x any) (any, error) {
			m := x.(tree.Map)
			px, _ := m.Get("x")
			py, _ := m.Get("y")
			return []int64{px.(*big.Int).Int64(), py.(*big.Int).Int64()}, nil
		},
		FromNative: func(x any) (any, error) {
			p := x.([]int64)
			return map[string]any{"x": p[0], "y": p[1]}, nil
		},
	})
	v, err := tree.New(point, []int64{1, 2})
	require.NoError(t, err)
	out, err := tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "30 06 02 01 01 02 01 02"), out)

	l, err := tree.Load(out, point)
	require.NoError(t, err)
	x, err := l.Native()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, x)
}

func TestValue_SetNative(t *testing.T) {
	v, err := tree.Load(unhex(t, fullRecord), record)
	require.NoError(t, err)
	before, err := v.Native()
	require.NoError(t, err)

	name, err := v.Field("name")
	require.NoError(t, err)
	require.NoError(t, name.SetNative("abcd"))
	assert.True(t, v.Dirty())
	assert.Equal(t, tree.StateDirty, v.State())
	id, err := v.Field("id")
	require.NoError(t, err)
	assert.False(t, id.Dirty())

	out, err := tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "30 1d a0 03 02 01 01 02 01 05 0c 04 61 62 63 64 01 01 ff 81 02 68 69 30 06 13 01 78 13 01 79"), out)

	after, err := v.Native()
	require.NoError(t, err)
	x, _ := after.(tree.Map).Get("name")
	assert.Equal(t, "abcd", x)
	x, _ = before.(tree.Map).Get("name")
	assert.Equal(t, "abc", x)

	require.ErrorIs(t, name.SetNative(5), tree.ErrInvalidNative)
}

func TestValue_SetNative_Default(t *testing.T) {
	v, err := tree.Load(unhex(t, fullRecord), record)
	require.NoError(t, err)
	version, err := v.Field("version")
	require.NoError(t, err)
	require.NoError(t, version.SetNative("v1"))

	out, err := tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "30 17 02 01 05 0c 03 61 62 63 01 01 ff 81 02 68 69 30 06 13 01 78 13 01 79"), out)
}

func TestValue_SetNative_AbsentDefault(t *testing.T) {
	v, err := tree.Load(unhex(t, minimalRecord), record)
	require.NoError(t, err)
	flag, err := v.Field("flag")
	require.NoError(t, err)
	require.NoError(t, flag.SetNative(true))
	assert.True(t, v.Dirty())

	out, err := tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "30 13 02 01 05 0c 03 61 62 63 01 01 ff 30 06 13 01 78 13 01 79"), out)

	require.NoError(t, flag.SetNative(false))
	out, err = tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, minimalRecord), out)
}

func TestValue_SetField(t *testing.T) {
	v, err := tree.Load(unhex(t, fullRecord), record)
	require.NoError(t, err)

	require.NoError(t, v.SetField("note", nil))
	out, err := tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "30 18 a0 03 02 01 01 02 01 05 0c 03 61 62 63 01 01 ff 30 06 13 01 78 13 01 79"), out)

	// The tag of the new value is adjusted to the field.
	note, err := tree.New(spec.IA5String(), "yo")
	require.NoError(t, err)
	require.NoError(t, v.SetField("note", note))
	assert.Equal(t, "note", note.Path())
	assert.Equal(t, asn1.ContextSpecific(1), note.Tag())
	out, err = tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "30 1c a0 03 02 01 01 02 01 05 0c 03 61 62 63 01 01 ff 81 02 79 6f 30 06 13 01 78 13 01 79"), out)

	err = v.SetField("id", nil)
	assert.ErrorIs(t, err, tree.ErrMissingField)
	flag, err := tree.New(spec.Boolean(), true)
	require.NoError(t, err)
	err = v.SetField("name", flag)
	assert.ErrorIs(t, err, tree.ErrIncompatible)
	err = v.SetField("unknown", flag)
	assert.ErrorIs(t, err, tree.ErrUnknownField)
}

func TestValue_Append(t *testing.T) {
	v, err := tree.Load(unhex(t, fullRecord), record)
	require.NoError(t, err)
	tags, err := v.Field("tags")
	require.NoError(t, err)
	z, err := tree.New(spec.PrintableString(), "z")
	require.NoError(t, err)
	require.NoError(t, tags.Append(z))
	assert.Equal(t, "tags[2]", z.Path())

	n, err := tags.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	out, err := tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "30 1f a0 03 02 01 01 02 01 05 0c 03 61 62 63 01 01 ff 81 02 68 69 30 09 13 01 78 13 01 79 13 01 7a"), out)

	err = tags.Append(nil)
	assert.ErrorIs(t, err, tree.ErrInvalidNative)
	err = v.Append(z)
	assert.ErrorIs(t, err, tree.ErrUnsupported)
}

func TestDump_SetOrder(t *testing.T) {
	// Fields are declared in descending tag order.
	pair := spec.Set("Pair",
		spec.Field{Name: "b", Spec: spec.Implicit(asn1.ContextSpecific(1), spec.Integer())},
		spec.Field{Name: "a", Spec: spec.Implicit(asn1.ContextSpecific(0), spec.Integer())},
	)
	x := map[string]any{"a": 1, "b": 2}
	tests := map[string]struct {
		order tree.SetOrder
		want  string
	}{
		"Declared": {tree.SetOrderDeclared, "31 06 81 01 02 80 01 01"},
		"Sorted":   {tree.SetOrderSorted, "31 06 80 01 01 81 01 02"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := tree.New(pair, x, tree.WithSetOrder(tc.order))
			require.NoError(t, err)
			out, err := tree.Dump(v)
			require.NoError(t, err)
			assert.Equal(t, unhex(t, tc.want), out)
		})
	}
}

// TestBEROracle checks the tree against encodings produced and consumed by an
// independent BER implementation.
func TestBEROracle(t *testing.T) {
	seq := ber.NewSequence("Record")
	version := ber.Encode(ber.ClassContext, ber.TypeConstructed, 0, nil, "version")
	version.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, 1, "v2"))
	seq.AppendChild(version)
	seq.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, 5, "id"))
	seq.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagUTF8String, "abc", "name"))
	// BOOLEAN TRUE is encoded as 0x01, which is valid BER but not DER.
	seq.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, true, "flag"))
	seq.AppendChild(ber.NewString(ber.ClassContext, ber.TypePrimitive, 1, "hi", "note"))
	tags := ber.NewSequence("tags")
	tags.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagPrintableString, "x", ""))
	tags.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagPrintableString, "y", ""))
	seq.AppendChild(tags)
	data := seq.Bytes()

	var buf bytes.Buffer
	v, err := tree.Load(data, record, tree.WithLoggerFactory(testLogger(&buf)))
	require.NoError(t, err)
	x, err := v.Native()
	require.NoError(t, err)
	flag, _ := x.(tree.Map).Get("flag")
	assert.Equal(t, true, flag)
	assert.Contains(t, buf.String(), "flag: non-canonical encoding")

	// The unmodified tree keeps the BER encoding.
	out, err := tree.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	nv, err := tree.New(record, x)
	require.NoError(t, err)
	out, err = tree.Dump(nv)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, fullRecord), out)

	p, err := ber.DecodePacketErr(out)
	require.NoError(t, err)
	require.Len(t, p.Children, 6)
	assert.Equal(t, int64(5), p.Children[1].Value)
	assert.Equal(t, "abc", p.Children[2].Value)
	assert.Equal(t, true, p.Children[3].Value)
	assert.Len(t, p.Children[5].Children, 2)
	assert.Equal(t, "y", p.Children[5].Children[1].Value)

	strict, err := tree.Load(data, record, tree.WithMode(tlv.StrictDER))
	require.NoError(t, err)
	f, err := strict.Field("flag")
	require.NoError(t, err)
	_, err = f.Native()
	require.ErrorIs(t, err, tree.ErrNonCanonical)
	var te *tree.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "flag", te.Path)
}

func TestDump_NonCanonical(t *testing.T) {
	numbers := spec.Sequence("Numbers",
		spec.Field{Name: "n", Spec: spec.Integer()},
		spec.Field{Name: "s", Spec: spec.SetOf(spec.Integer())},
	)
	tests := map[string]struct {
		spec  *spec.Spec
		data  string
		field string
		x     any
		want  string
	}{
		"Boolean": {record, "30 13 02 01 05 0c 03 61 62 63 01 01 01 30 06 13 01 78 13 01 79",
			"name", "abd", "30 13 02 01 05 0c 03 61 62 64 01 01 ff 30 06 13 01 78 13 01 79"},
		"Integer": {record, "30 11 02 02 00 05 0c 03 61 62 63 30 06 13 01 78 13 01 79",
			"name", "abd", "30 10 02 01 05 0c 03 61 62 64 30 06 13 01 78 13 01 79"},
		"LongLength": {record, "30 11 02 01 05 0c 81 03 61 62 63 30 06 13 01 78 13 01 79",
			"id", 6, "30 10 02 01 06 0c 03 61 62 63 30 06 13 01 78 13 01 79"},
		"NestedLongLength": {record, "30 11 02 01 05 0c 03 61 62 63 30 07 13 81 01 78 13 01 79",
			"id", 6, "30 10 02 01 06 0c 03 61 62 63 30 06 13 01 78 13 01 79"},
		"ConstructedString": {record, "30 14 02 01 05 2c 07 0c 01 61 0c 02 62 63 30 06 13 01 78 13 01 79",
			"id", 6, "30 10 02 01 06 0c 03 61 62 63 30 06 13 01 78 13 01 79"},
		"Default": {record, "30 13 02 01 05 0c 03 61 62 63 01 01 00 30 06 13 01 78 13 01 79",
			"name", "abd", "30 10 02 01 05 0c 03 61 62 64 30 06 13 01 78 13 01 79"},
		"SetOf": {numbers, "30 0e 02 01 01 31 09 02 01 03 02 01 01 02 01 02",
			"n", 2, "30 0e 02 01 02 31 09 02 01 01 02 01 02 02 01 03"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			data := unhex(t, tc.data)
			var buf bytes.Buffer
			v, err := tree.Load(data, tc.spec, tree.WithLoggerFactory(testLogger(&buf)))
			require.NoError(t, err)
			f, err := v.Field(tc.field)
			require.NoError(t, err)
			require.NoError(t, f.SetNative(tc.x))
			out, err := tree.Dump(v)
			require.NoError(t, err)
			assert.Equal(t, unhex(t, tc.want), out)
			assert.Contains(t, buf.String(), "non-canonical encoding")

			v, err = tree.Load(data, tc.spec, tree.WithMode(tlv.StrictDER))
			if err == nil {
				err = v.Expand()
			}
			assert.ErrorIs(t, err, tree.ErrNonCanonical)
		})
	}
}

func TestDump_Any(t *testing.T) {
	pair := spec.Sequence("Pair",
		spec.Field{Name: "a", Spec: spec.Integer()},
		spec.Field{Name: "b", Spec: spec.Any()},
	)
	tests := map[string]struct {
		mode tlv.Mode
		data string
		want string
	}{
		"Indefinite":        {tlv.BER, "30 80 02 01 01 30 80 02 01 02 00 00 00 00", "30 08 02 01 03 30 03 02 01 02"},
		"ConstructedString": {tlv.BER, "30 80 02 01 01 24 80 04 01 61 04 01 62 00 00 00 00", "30 07 02 01 03 04 02 61 62"},
		"LongLength":        {tlv.DER, "30 07 02 01 01 04 81 01 61", "30 06 02 01 03 04 01 61"},
		"Canonical":         {tlv.DER, "30 08 02 01 01 30 03 02 01 02", "30 08 02 01 03 30 03 02 01 02"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := tree.Load(unhex(t, tc.data), pair, tree.WithMode(tc.mode))
			require.NoError(t, err)
			a, err := v.Field("a")
			require.NoError(t, err)
			require.NoError(t, a.SetNative(3))
			out, err := tree.Dump(v)
			require.NoError(t, err)
			assert.Equal(t, unhex(t, tc.want), out)

			p, err := ber.DecodePacketErr(out)
			require.NoError(t, err)
			require.Len(t, p.Children, 2)
			assert.Equal(t, int64(3), p.Children[0].Value)
		})
	}
}

func TestLoad_Limits(t *testing.T) {
	data := unhex(t, minimalRecord)

	_, err := tree.Load(data, record, tree.WithMaxSize(10))
	assert.ErrorIs(t, err, tree.ErrTooLarge)

	_, err = tree.Load(data[:10], record)
	assert.ErrorIs(t, err, tree.ErrTruncated)

	_, err = tree.Load(append(bytes.Clone(data), 0x00), record)
	assert.ErrorIs(t, err, tree.ErrTrailingData)

	_, err = tree.Load(data, spec.Set("Other"))
	assert.ErrorIs(t, err, tree.ErrTagMismatch)

	v, err := tree.Load(data, record, tree.WithMaxDepth(2))
	require.NoError(t, err)
	tags, err := v.Field("tags")
	require.NoError(t, err)
	_, err = tags.At(0)
	assert.ErrorIs(t, err, tree.ErrTooDeep)

	v, err = tree.Load(unhex(t, "30 03 02 01 05"), record)
	require.NoError(t, err)
	_, err = v.Field("tags")
	var missing *tree.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "name", missing.Field)

	v, err = tree.Load(unhex(t, "30 12 02 01 05 0c 03 61 62 63 30 06 13 01 78 13 01 79 05 00"), record)
	require.NoError(t, err)
	err = v.Expand()
	assert.ErrorIs(t, err, tree.ErrTrailingData)
}

func TestLoad_StrictDefault(t *testing.T) {
	// flag is encoded although it has the default value.
	data := unhex(t, "30 13 02 01 05 0c 03 61 62 63 01 01 00 30 06 13 01 78 13 01 79")
	v, err := tree.Load(data, record)
	require.NoError(t, err)
	flag, err := v.Field("flag")
	require.NoError(t, err)
	x, err := flag.Native()
	require.NoError(t, err)
	assert.Equal(t, false, x)

	v, err = tree.Load(data, record, tree.WithMode(tlv.StrictDER))
	require.NoError(t, err)
	_, err = v.Field("flag")
	assert.ErrorIs(t, err, tree.ErrNonCanonical)
	var te *tree.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "flag", te.Path)
}

func TestValue_NativeCache(t *testing.T) {
	v, err := tree.Load(unhex(t, minimalRecord), record)
	require.NoError(t, err)
	first, err := v.Native()
	require.NoError(t, err)
	second, err := v.Native()
	require.NoError(t, err)
	if diff := cmp.Diff(first, second, bigIntComparer); diff != "" {
		t.Errorf("Native() changed without modification (-first +second):\n%s", diff)
	}

	tags, err := v.Field("tags")
	require.NoError(t, err)
	first0, err := tags.At(0)
	require.NoError(t, err)
	require.NoError(t, first0.SetNative("w"))
	x, err := v.Native()
	require.NoError(t, err)
	got, _ := x.(tree.Map).Get("tags")
	assert.Equal(t, []any{"w", "y"}, got)
}
