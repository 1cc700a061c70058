// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"codello.dev/asn1tree"
)

// Registry maps object identifiers to specs. A Registry resolves open types
// whose shape depends on an object identifier in a sibling field. Registries
// must be fully populated before they are used concurrently.
type Registry struct {
	name  string
	specs map[string]*Spec
}

// NewRegistry creates an empty registry. The name is used in log messages.
func NewRegistry(name string) *Registry {
	return &Registry{name: name, specs: make(map[string]*Spec)}
}

// Name returns the name of r.
func (r *Registry) Name() string { return r.name }

// Register adds an entry for oid to r and returns r. Register panics if oid is
// invalid or already registered.
func (r *Registry) Register(oid asn1.ObjectIdentifier, s *Spec) *Registry {
	if !oid.IsValid() {
		panic("spec: invalid object identifier " + oid.String())
	}
	key := oid.String()
	if _, ok := r.specs[key]; ok {
		panic("spec: duplicate registration of " + key + " in " + r.name)
	}
	r.specs[key] = s
	return r
}

// Lookup returns the spec registered for oid.
func (r *Registry) Lookup(oid asn1.ObjectIdentifier) (*Spec, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.specs[oid.String()]
	return s, ok
}

// All returns an iterator over the entries of r in ascending order of their
// dotted representation.
func (r *Registry) All() iter.Seq2[string, *Spec] {
	return func(yield func(string, *Spec) bool) {
		for _, k := range slices.Sorted(maps.Keys(r.specs)) {
			if !yield(k, r.specs[k]) {
				return
			}
		}
	}
}

// Dispatch selects the type of a field through a registry lookup. By is the
// path of the field holding the object identifier, relative to the container
// holding the dispatched field. Path components are separated by dots and
// descend into nested SEQUENCE or SET values, so "algorithm.algorithm" names
// the algorithm field of the sibling field algorithm.
type Dispatch struct {
	By       string
	Registry *Registry
}

// Path returns the components of d.By.
func (d *Dispatch) Path() []string {
	return strings.Split(d.By, ".")
}
