// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pkix

import (
	"codello.dev/asn1tree"
	"codello.dev/asn1tree/spec"
)

var (
	BasicConstraints = spec.Sequence("BasicConstraints",
		spec.Field{Name: "ca", Spec: spec.Boolean(), Default: false},
		spec.Field{Name: "path_len_constraint", Spec: spec.Integer(), Optional: true},
	)

	KeyUsage = spec.BitString().WithBits(map[int]string{
		0: "digital_signature",
		1: "non_repudiation",
		2: "key_encipherment",
		3: "data_encipherment",
		4: "key_agreement",
		5: "key_cert_sign",
		6: "crl_sign",
		7: "encipher_only",
		8: "decipher_only",
	}).Named("KeyUsage")

	ExtKeyUsageSyntax = spec.SequenceOf(spec.ObjectIdentifier().WithOIDNames(keyPurposeNames)).Named("ExtKeyUsageSyntax")

	KeyIdentifier = spec.OctetString().Named("KeyIdentifier")

	OtherName = spec.Sequence("OtherName",
		spec.Field{Name: "type_id", Spec: spec.ObjectIdentifier()},
		spec.Field{Name: "value", Spec: spec.Explicit(asn1.ContextSpecific(0), spec.Any())},
	)

	// GeneralName natives are the natives of the selected alternative. Values
	// must be built from a single-entry map naming the alternative because
	// several alternatives share the same native type.
	GeneralName = spec.Choice("GeneralName",
		spec.Field{Name: "other_name", Spec: spec.Implicit(asn1.ContextSpecific(0), OtherName)},
		spec.Field{Name: "rfc822_name", Spec: spec.Implicit(asn1.ContextSpecific(1), spec.IA5String())},
		spec.Field{Name: "dns_name", Spec: spec.Implicit(asn1.ContextSpecific(2), spec.IA5String())},
		spec.Field{Name: "directory_name", Spec: spec.Explicit(asn1.ContextSpecific(4), Name)},
		spec.Field{Name: "uniform_resource_identifier", Spec: spec.Implicit(asn1.ContextSpecific(6), spec.IA5String())},
		spec.Field{Name: "ip_address", Spec: spec.Implicit(asn1.ContextSpecific(7), spec.OctetString())},
		spec.Field{Name: "registered_id", Spec: spec.Implicit(asn1.ContextSpecific(8), spec.ObjectIdentifier())},
	)

	GeneralNames = spec.SequenceOf(GeneralName).Named("GeneralNames")

	AuthorityKeyIdentifier = spec.Sequence("AuthorityKeyIdentifier",
		spec.Field{Name: "key_identifier", Spec: spec.Implicit(asn1.ContextSpecific(0), KeyIdentifier), Optional: true},
		spec.Field{Name: "authority_cert_issuer", Spec: spec.Implicit(asn1.ContextSpecific(1), GeneralNames), Optional: true},
		spec.Field{Name: "authority_cert_serial_number", Spec: spec.Implicit(asn1.ContextSpecific(2), spec.Integer()), Optional: true},
	)

	// ExtensionValues maps extension identifiers to the types encapsulated in
	// their values.
	ExtensionValues = spec.NewRegistry("extensions").
			Register(oid(2, 5, 29, 14), KeyIdentifier).
			Register(oid(2, 5, 29, 15), KeyUsage).
			Register(oid(2, 5, 29, 17), GeneralNames).
			Register(oid(2, 5, 29, 19), BasicConstraints).
			Register(oid(2, 5, 29, 35), AuthorityKeyIdentifier).
			Register(oid(2, 5, 29, 37), ExtKeyUsageSyntax).
			Register(oid(1, 3, 6, 1, 4, 1, 311, 20, 2), spec.BMPString())

	Extension = spec.Sequence("Extension",
		spec.Field{Name: "extn_id", Spec: spec.ObjectIdentifier().WithOIDNames(extensionNames)},
		spec.Field{Name: "critical", Spec: spec.Boolean(), Default: false},
		spec.Field{Name: "extn_value", Spec: spec.OctetString(),
			Dispatch: &spec.Dispatch{By: "extn_id", Registry: ExtensionValues}},
	)

	Extensions = spec.SequenceOf(Extension).Named("Extensions")
)
