// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

// Field describes a named component of a SEQUENCE or SET or an alternative of
// a CHOICE.
//
// A field with a non-nil Default is implicitly optional. Default holds a native
// value as accepted when building values from native data. Optional and
// Default are ignored for CHOICE alternatives.
//
// If Dispatch is set, the concrete type of the field is selected at runtime
// based on the value of a sibling field. For OCTET STRING and BIT STRING fields
// the selected spec describes the encapsulated value. For all other fields the
// selected spec replaces Spec, keeping its tagging.
type Field struct {
	Name     string
	Spec     *Spec
	Optional bool
	Default  any
	Dispatch *Dispatch
}

// IsOptional reports whether f may be absent from an encoding.
func (f Field) IsOptional() bool {
	return f.Optional || f.Default != nil
}

// Sequence returns the spec of a SEQUENCE type with the given fields in wire
// order. Sequence panics if two fields have the same name.
func Sequence(name string, fields ...Field) *Spec {
	s := newSpec(KindSequence, name)
	s.fields = checkFields(name, fields)
	return s
}

// Set returns the spec of a SET type. Set panics if two fields have the same
// name.
func Set(name string, fields ...Field) *Spec {
	s := newSpec(KindSet, name)
	s.fields = checkFields(name, fields)
	return s
}

// Choice returns the spec of a CHOICE type. Alternatives are tried in the given
// order, the first alternative matching an encoding is selected. Choice panics
// if two alternatives have the same name or if an alternative is an untagged
// ANY.
func Choice(name string, alternatives ...Field) *Spec {
	s := newSpec(KindChoice, name)
	s.fields = checkFields(name, alternatives)
	for _, alt := range s.fields {
		if _, ok := alt.Spec.Tag(); !ok && alt.Spec.kind == KindAny {
			panic("spec: untagged ANY alternative " + alt.Name + " in " + name)
		}
	}
	return s
}

// checkFields validates the field names of a container spec.
func checkFields(name string, fields []Field) []Field {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Spec == nil {
			panic("spec: nil spec for field " + f.Name + " in " + name)
		}
		if _, ok := seen[f.Name]; ok {
			panic("spec: duplicate field " + f.Name + " in " + name)
		}
		seen[f.Name] = struct{}{}
	}
	return append([]Field(nil), fields...)
}
