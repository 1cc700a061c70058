// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"fmt"
	"iter"
	"strings"
)

// Pair is an entry of a [Map].
type Pair struct {
	Key   string
	Value any
}

// Map is an ordered mapping from names to native values. It is the native form
// of SEQUENCE and SET values, with one entry per field in declaration order.
type Map []Pair

// Get returns the value of the first entry with the given key.
func (m Map) Get(key string) (any, bool) {
	for _, p := range m {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// All returns an iterator over the entries of m in order.
func (m Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, p := range m {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Keys returns the keys of m in order.
func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, p := range m {
		keys[i] = p.Key
	}
	return keys
}

// String formats m like a Go map literal while preserving the order.
func (m Map) String() string {
	var b strings.Builder
	b.WriteString("map[")
	for i, p := range m {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.Key)
		b.WriteByte(':')
		fmt.Fprint(&b, p.Value)
	}
	b.WriteByte(']')
	return b.String()
}
