// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tree implements lazily decoded trees of ASN.1 values. A tree binds an
// encoding to a schema declared with package spec:
//
//	v, err := tree.Load(der, pkix.CertificationRequest)
//	if err != nil {
//		return err
//	}
//	subject, err := v.Field("certification_request_info")
//	...
//
// [Load] only reads the outermost header of its input. Fields and elements
// are located when they are first accessed and scalar content is decoded when
// its native representation is requested. All values of a tree reference the
// input buffer, no content is copied while navigating.
//
// Values obtained from [Value.Native] are plain Go values (see
// [Value.Native] for the mapping). [New] builds a tree from natives, the
// resulting values can be encoded with [Dump]. Loaded trees can be modified
// with [Value.SetField], [Value.SetNative] and [Value.Append]. [Dump] keeps
// the original encoding of all subtrees that were not modified.
//
// # Encoding rules
//
// By default Load accepts DER and tolerates encodings that are valid BER but
// not canonical DER, such as non-minimal integers or constructed strings.
// These are reported through the logger configured by [WithLoggerFactory].
// [WithMode] selects strict DER, which rejects them with [ErrNonCanonical],
// or BER, which additionally accepts the indefinite-length form. Dump always
// produces DER for re-encoded values.
//
// # Open types
//
// Fields declared with a [spec.Dispatch] are resolved through a registry keyed
// by an object identifier in a sibling field. If the registry has no entry
// for an identifier the value is kept as an [asn1.RawValue] (or as plain
// bytes for encapsulating strings). This is not an error.
package tree
