// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pkix declares the schemas of PKCS #10 certification requests and the
// X.509 types they use. Open types are resolved through the registries of this
// package. The OID name tables only cover the identifiers used by common
// certification requests.
package pkix

import (
	"fmt"
	"maps"
	"slices"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/spec"
	"codello.dev/asn1tree/tree"
)

// DirectoryString is the string type of most name attributes. Natives are
// encoded as PrintableString if possible and as UTF8String otherwise.
var DirectoryString = spec.Choice("DirectoryString",
	spec.Field{Name: "printable_string", Spec: spec.PrintableString()},
	spec.Field{Name: "utf8_string", Spec: spec.UTF8String()},
	spec.Field{Name: "teletex_string", Spec: spec.TeletexString()},
	spec.Field{Name: "universal_string", Spec: spec.UniversalString()},
	spec.Field{Name: "bmp_string", Spec: spec.BMPString()},
)

var (
	// NameAttributes maps name attribute types to the types of their values.
	NameAttributes = spec.NewRegistry("name attributes").
			Register(oid(2, 5, 4, 3), DirectoryString).
			Register(oid(2, 5, 4, 5), spec.PrintableString()).
			Register(oid(2, 5, 4, 6), spec.PrintableString()).
			Register(oid(2, 5, 4, 7), DirectoryString).
			Register(oid(2, 5, 4, 8), DirectoryString).
			Register(oid(2, 5, 4, 9), DirectoryString).
			Register(oid(2, 5, 4, 10), DirectoryString).
			Register(oid(2, 5, 4, 11), DirectoryString).
			Register(oid(2, 5, 4, 17), DirectoryString).
			Register(oid(1, 2, 840, 113549, 1, 9, 1), spec.IA5String())

	AttributeTypeAndValue = spec.Sequence("AttributeTypeAndValue",
		spec.Field{Name: "type", Spec: spec.ObjectIdentifier().WithOIDNames(nameAttributeNames)},
		spec.Field{Name: "value", Spec: spec.Any(), Dispatch: &spec.Dispatch{By: "type", Registry: NameAttributes}},
	)

	// RDNSequence is represented by a flat [tree.Map] from attribute types to
	// values. Multi-valued relative distinguished names are flattened, a Map
	// is encoded with one attribute per relative distinguished name. Values
	// can also be built from distinguished name strings.
	RDNSequence = spec.SequenceOf(spec.SetOf(AttributeTypeAndValue)).
			Named("RDNSequence").
			WithHook(spec.NativeHook{ToNative: flattenRDNs, FromNative: expandRDNs})

	Name = spec.Choice("Name",
		spec.Field{Name: "rdn_sequence", Spec: RDNSequence},
	)
)

// flattenRDNs converts the native of an RDNSequence into a single map.
func flattenRDNs(x any) (any, error) {
	rdns, ok := x.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T for RDNSequence", tree.ErrInvalidNative, x)
	}
	m := make(tree.Map, 0, len(rdns))
	for _, rdn := range rdns {
		for _, atv := range rdn.([]any) {
			atv := atv.(tree.Map)
			typ, _ := atv.Get("type")
			value, _ := atv.Get("value")
			m = append(m, tree.Pair{Key: typ.(string), Value: value})
		}
	}
	return m, nil
}

// expandRDNs is the inverse of flattenRDNs. Strings are parsed as
// distinguished names. Other values are passed through unchanged.
func expandRDNs(x any) (any, error) {
	var m tree.Map
	switch x := x.(type) {
	case tree.Map:
		m = x
	case string:
		var err error
		if m, err = ParseDistinguishedName(x); err != nil {
			return nil, err
		}
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(x)) {
			m = append(m, tree.Pair{Key: k, Value: x[k]})
		}
	default:
		return x, nil
	}
	rdns := make([]any, len(m))
	for i, p := range m {
		rdns[i] = []any{tree.Map{{Key: "type", Value: p.Key}, {Key: "value", Value: p.Value}}}
	}
	return rdns, nil
}

var (
	// ECParameters only supports named curves.
	ECParameters = spec.ObjectIdentifier().WithOIDNames(curveNames).Named("ECParameters")

	// AlgorithmParameters maps algorithms to the types of their parameters.
	// Algorithms without parameters are not registered.
	AlgorithmParameters = spec.NewRegistry("algorithm parameters").
			Register(oid(1, 2, 840, 113549, 1, 1, 1), spec.Null()).
			Register(oid(1, 2, 840, 113549, 1, 1, 11), spec.Null()).
			Register(oid(1, 2, 840, 113549, 1, 1, 12), spec.Null()).
			Register(oid(1, 2, 840, 113549, 1, 1, 13), spec.Null()).
			Register(oid(1, 2, 840, 10045, 2, 1), ECParameters)

	AlgorithmIdentifier = spec.Sequence("AlgorithmIdentifier",
		spec.Field{Name: "algorithm", Spec: spec.ObjectIdentifier().WithOIDNames(algorithmNames)},
		spec.Field{Name: "parameters", Spec: spec.Any(), Optional: true,
			Dispatch: &spec.Dispatch{By: "algorithm", Registry: AlgorithmParameters}},
	)

	RSAPublicKey = spec.Sequence("RSAPublicKey",
		spec.Field{Name: "modulus", Spec: spec.Integer()},
		spec.Field{Name: "public_exponent", Spec: spec.Integer()},
	)

	// PublicKeys maps public key algorithms to the types encapsulated in the
	// public key bits. Keys that are not DER encoded, like EC points, are not
	// registered.
	PublicKeys = spec.NewRegistry("public keys").
			Register(oid(1, 2, 840, 113549, 1, 1, 1), RSAPublicKey)

	SubjectPublicKeyInfo = spec.Sequence("SubjectPublicKeyInfo",
		spec.Field{Name: "algorithm", Spec: AlgorithmIdentifier},
		spec.Field{Name: "public_key", Spec: spec.BitString(),
			Dispatch: &spec.Dispatch{By: "algorithm.algorithm", Registry: PublicKeys}},
	)
)

// oid returns the object identifier with the given arcs.
func oid(arcs ...uint) asn1.ObjectIdentifier {
	return asn1.ObjectIdentifier(arcs)
}
