// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pkix

import (
	"codello.dev/asn1tree"
	"codello.dev/asn1tree/spec"
)

var (
	// AttributeValues maps attribute types of certification requests to the
	// types of their value sets.
	AttributeValues = spec.NewRegistry("attributes").
			Register(oid(1, 2, 840, 113549, 1, 9, 7), spec.SetOf(DirectoryString)).
			Register(oid(1, 2, 840, 113549, 1, 9, 14), spec.SetOf(Extensions)).
			Register(oid(1, 3, 6, 1, 4, 1, 311, 13, 2, 2), spec.SetOf(EnrollmentCSP)).
			Register(oid(1, 3, 6, 1, 4, 1, 311, 13, 2, 3), spec.SetOf(spec.IA5String())).
			Register(oid(1, 3, 6, 1, 4, 1, 311, 21, 20), spec.SetOf(ClientInformation))

	// ClientInformation describes the client that created a request. It is
	// sent by the Windows certificate enrollment tools.
	ClientInformation = spec.Sequence("ClientInformation",
		spec.Field{Name: "clientid", Spec: spec.Integer()},
		spec.Field{Name: "machinename", Spec: spec.UTF8String()},
		spec.Field{Name: "username", Spec: spec.UTF8String()},
		spec.Field{Name: "processname", Spec: spec.UTF8String()},
	)

	EnrollmentCSP = spec.Sequence("EnrollmentCSP",
		spec.Field{Name: "keyspec", Spec: spec.Integer()},
		spec.Field{Name: "cspname", Spec: spec.BMPString()},
		spec.Field{Name: "signature", Spec: spec.BitString()},
	)

	Attribute = spec.Sequence("Attribute",
		spec.Field{Name: "type", Spec: spec.ObjectIdentifier().WithOIDNames(attributeNames)},
		spec.Field{Name: "values", Spec: spec.SetOf(spec.Any()),
			Dispatch: &spec.Dispatch{By: "type", Registry: AttributeValues}},
	)

	CertificationRequestInfo = spec.Sequence("CertificationRequestInfo",
		spec.Field{Name: "version", Spec: spec.Integer().WithValues(map[int64]string{0: "v1"})},
		spec.Field{Name: "subject", Spec: Name},
		spec.Field{Name: "subject_public_key_info", Spec: SubjectPublicKeyInfo},
		spec.Field{Name: "attributes", Spec: spec.Implicit(asn1.ContextSpecific(0), spec.SetOf(Attribute))},
	)

	// CertificationRequest is a PKCS #10 certification request as defined in
	// RFC 2986.
	CertificationRequest = spec.Sequence("CertificationRequest",
		spec.Field{Name: "certification_request_info", Spec: CertificationRequestInfo},
		spec.Field{Name: "signature_algorithm", Spec: AlgorithmIdentifier},
		spec.Field{Name: "signature", Spec: spec.BitString()},
	)
)
