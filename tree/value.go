// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"fmt"
	"iter"
	"sync/atomic"

	"codello.dev/asn1tree"
	"codello.dev/asn1tree/spec"
	"codello.dev/asn1tree/tlv"
)

// State describes how far a [Value] has been decoded.
//
//go:generate stringer -type=State -trimprefix=State
type State uint8

const (
	// StateUnparsed values only know their encoding.
	StateUnparsed State = iota
	// StateParsed values have located some or all of their children.
	StateParsed
	// StateExpanded values have decoded their complete content.
	StateExpanded
	// StateDirty values or one of their descendants have been modified since
	// they were loaded.
	StateDirty
)

// revision is the source of modification stamps. Stamps are strictly
// increasing. A modification stamps the modified value and all of its
// ancestors, so a native value computed at stamp r is outdated if the stamp of
// its value is greater than r.
var revision atomic.Uint64

// slot holds the encoding and the materialized value of a field or element.
type slot struct {
	elem    tlv.Element
	present bool
	val     *Value
}

// Value is a node of a tree of ASN.1 values. A Value is bound to a [spec.Spec]
// and either backed by an encoding obtained from [Load] or built from native
// data by [New]. Loaded values decode their content lazily when it is
// accessed.
//
// Values are not safe for concurrent use. After [Value.Expand] and
// [Value.Native] have completed, a tree that is not modified can be read by
// multiple goroutines.
type Value struct {
	spec   *spec.Spec
	opts   *options
	parent *Value
	path   string
	depth  int

	doc  []byte      // input containing the encoding, nil for built values
	full []byte      // outermost encoding including explicit tags
	elem tlv.Element // encoding after removing explicit tags

	state    State
	expanded bool
	dirty    bool // v or a descendant has been modified
	rev      uint64
	noncanon bool // v or a descendant tolerated a non-canonical encoding

	// SEQUENCE, SET, SEQUENCE OF and SET OF
	slots    []slot
	next     int // index of the next field to match
	cursor   int // offset of the next unread element in doc
	look     tlv.Element
	hasLook  bool
	complete bool

	// CHOICE
	alt    int
	altVal *Value

	// scalars
	scalar    any
	scalarOK  bool
	content   []byte // content octets of built values
	contentOK bool
	inner     *Value // encapsulated value of OCTET STRING and BIT STRING

	native    any
	nativeRev uint64
	nativeOK  bool
}

// Load binds the DER or BER encoding b to s. Load only reads the outermost
// TLV, resolves explicit tags and selects CHOICE alternatives. The content of
// the value is decoded on demand. The returned value references b, which must
// not be modified while the tree is in use.
func Load(b []byte, s *spec.Spec, opts ...Option) (*Value, error) {
	return loadDocument(b, s, newOptions(opts), "", 1)
}

// loadDocument binds a complete document to s.
func loadDocument(b []byte, s *spec.Spec, o *options, path string, depth int) (*Value, error) {
	if o.maxSize > 0 && len(b) > o.maxSize {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %d bytes exceed the limit of %d bytes", ErrTooLarge, len(b), o.maxSize)}
	}
	e, err := tlv.ReadElement(b, 0, o.mode, o.maxDepth)
	if err != nil {
		return nil, wrap(path, err)
	}
	if e.End() != len(b) {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %d bytes after %s", ErrTrailingData, len(b)-e.End(), s)}
	}
	if _, tagged := s.Tag(); tagged && !s.Matches(e.Tag, e.Constructed) {
		return nil, &TagMismatchError{Expected: s, Actual: e.Header, Path: path}
	}
	return bind(b, e, s, o, path, depth)
}

// bind creates a value of s for the element e of doc. The caller must have
// verified that e matches s.
func bind(doc []byte, e tlv.Element, s *spec.Spec, o *options, path string, depth int) (*Value, error) {
	if o.tooDeep(depth) {
		return nil, &Error{Path: path, Err: ErrTooDeep}
	}
	v := &Value{spec: s, opts: o, path: path, depth: depth, doc: doc, full: e.Full, elem: e, alt: -1}
	headers := []tlv.Header{e.Header}
	for t := s; t.Tagging() == spec.TaggingExplicit; t = t.Inner() {
		end := v.contentEnd()
		inner, err := tlv.ReadElement(doc[:end], v.elem.ContentOffset(), o.mode, o.maxDepth)
		if err != nil {
			return nil, wrap(path, err)
		}
		if inner.End() != end {
			return nil, &Error{Path: path, Err: fmt.Errorf("%w in explicit tag of %s", ErrTrailingData, t)}
		}
		if !t.Inner().Matches(inner.Tag, inner.Constructed) {
			return nil, &TagMismatchError{Expected: t.Inner(), Actual: inner.Header, Path: path}
		}
		headers = append(headers, inner.Header)
		v.elem = inner
	}
	base := s.Base()
	if base.Kind() == spec.KindChoice {
		// The selected alternative checks the innermost header.
		headers = headers[:len(headers)-1]
	}
	for _, h := range headers {
		if err := v.checkHeader(h); err != nil {
			return nil, err
		}
	}
	if base.Kind() == spec.KindChoice {
		for i, alt := range base.Fields() {
			if !alt.Spec.Matches(v.elem.Tag, v.elem.Constructed) {
				continue
			}
			av, err := bind(doc, v.elem, alt.Spec, o, path, depth)
			if err != nil {
				return nil, err
			}
			o.tracef("%sselected alternative %s of %s", pathPrefix(path), alt.Name, base.Name())
			v.alt, v.altVal = i, v.attach(av)
			return v, nil
		}
		return nil, &NoMatchingChoiceError{Choice: base, Actual: v.elem.Header.String(), Path: path}
	}
	return v, nil
}

// contentEnd returns the offset of the end of the content octets of v.elem.
func (v *Value) contentEnd() int {
	return v.elem.ContentOffset() + len(v.elem.Content)
}

// kind returns the kind of v.
func (v *Value) kind() spec.Kind {
	return v.spec.Kind()
}

// resolved follows the selected alternatives of CHOICE values.
func (v *Value) resolved() *Value {
	for v.altVal != nil {
		v = v.altVal
	}
	return v
}

// advance moves v to state s unless v is already further along.
func (v *Value) advance(s State) {
	if v.state < s {
		v.state = s
	}
}

// touch marks v and its ancestors as modified.
func (v *Value) touch() {
	rev := revision.Add(1)
	for p := v; p != nil; p = p.parent {
		p.dirty, p.rev = true, rev
	}
}

// attach makes c a child of v.
func (v *Value) attach(c *Value) *Value {
	c.parent = v
	if c.noncanon {
		v.markNonCanonical()
	}
	return c
}

// markNonCanonical records that the encoding of v cannot be reused as DER.
func (v *Value) markNonCanonical() {
	for p := v; p != nil && !p.noncanon; p = p.parent {
		p.noncanon = true
	}
}

// children calls f for every materialized child of v.
func (v *Value) children(f func(c *Value)) {
	for i := range v.slots {
		if c := v.slots[i].val; c != nil {
			f(c)
		}
	}
	if v.altVal != nil {
		f(v.altVal)
	}
	if v.inner != nil {
		f(v.inner)
	}
}

// Spec returns the spec of v.
func (v *Value) Spec() *spec.Spec { return v.spec }

// Path returns the location of v in its tree. The root has an empty path.
func (v *Value) Path() string { return v.path }

// Present reports whether v is present. Absent optional fields are
// represented by a nil *Value.
func (v *Value) Present() bool { return v != nil }

// State returns the decoding state of v.
func (v *Value) State() State {
	if v.Dirty() {
		return StateDirty
	}
	return v.state
}

// Dirty reports whether v or any of its descendants has been modified or
// built from native data.
func (v *Value) Dirty() bool {
	return v != nil && v.dirty
}

// clean recursively resets the modification state of v.
func (v *Value) clean() {
	v.dirty, v.rev = false, 0
	v.children(func(c *Value) { c.clean() })
}

// reparent moves v to a new location in a tree.
func (v *Value) reparent(path string, depth int, o *options) error {
	if o.tooDeep(depth) {
		return &Error{Path: path, Err: ErrTooDeep}
	}
	v.path, v.depth, v.opts = path, depth, o
	for i := range v.slots {
		c := v.slots[i].val
		if c == nil {
			continue
		}
		p := indexPath(path, i)
		if k := v.kind(); k == spec.KindSequence || k == spec.KindSet {
			p = joinPath(path, v.spec.Fields()[i].Name)
		}
		if err := c.reparent(p, depth+1, o); err != nil {
			return err
		}
	}
	if v.altVal != nil {
		if err := v.altVal.reparent(path, depth, o); err != nil {
			return err
		}
	}
	if v.inner != nil {
		return v.inner.reparent(path, depth+1, o)
	}
	return nil
}

// Tag returns the outermost tag of the encoding of v.
func (v *Value) Tag() asn1.Tag {
	if tags := v.spec.ExplicitTags(); len(tags) > 0 {
		return tags[0]
	}
	if v.altVal != nil {
		return v.altVal.Tag()
	}
	if t, ok := v.spec.Tag(); ok {
		return t
	}
	return v.elem.Tag
}

// Chosen returns the name and the value of the selected alternative of a
// CHOICE value.
func (v *Value) Chosen() (string, *Value, error) {
	if v == nil || v.altVal == nil {
		return "", nil, v.unsupported("Chosen")
	}
	return v.spec.Fields()[v.alt].Name, v.altVal, nil
}

// unsupported returns an error for an operation that cannot be applied to v.
func (v *Value) unsupported(op string) error {
	if v == nil {
		return &Error{Err: fmt.Errorf("%w: %s on absent value", ErrUnsupported, op)}
	}
	return &Error{Path: v.path, Err: fmt.Errorf("%w: %s on %s", ErrUnsupported, op, v.spec)}
}

// container returns the SEQUENCE or SET value that v resolves to.
func (v *Value) container(op string) (*Value, error) {
	if v == nil {
		return nil, v.unsupported(op)
	}
	c := v.resolved()
	if k := c.kind(); k != spec.KindSequence && k != spec.KindSet {
		return nil, c.unsupported(op)
	}
	return c, nil
}

// list returns the SEQUENCE OF or SET OF value that v resolves to.
func (v *Value) list(op string) (*Value, error) {
	if v == nil {
		return nil, v.unsupported(op)
	}
	c := v.resolved()
	if k := c.kind(); k != spec.KindSequenceOf && k != spec.KindSetOf {
		return nil, c.unsupported(op)
	}
	return c, nil
}

// Field returns the value of the named field of a SEQUENCE or SET. If v is a
// CHOICE the field is looked up in the selected alternative. Field returns a
// nil value without error if an optional field is absent. Absent fields with
// a default value return the default.
//
// Field only parses the encoding up to the requested field.
func (v *Value) Field(name string) (*Value, error) {
	c, err := v.container("Field")
	if err != nil {
		return nil, err
	}
	i := c.spec.FieldIndex(name)
	if i < 0 {
		return nil, &Error{Path: c.path, Err: fmt.Errorf("%w: %s in %s", ErrUnknownField, name, c.spec.Name())}
	}
	return c.fieldValue(i)
}

// At returns the i-th element of a SEQUENCE OF or SET OF.
func (v *Value) At(i int) (*Value, error) {
	c, err := v.list("At")
	if err != nil {
		return nil, err
	}
	if i < 0 {
		return nil, &Error{Path: c.path, Err: fmt.Errorf("%w: %d", ErrOutOfRange, i)}
	}
	if err := c.parseElems(i); err != nil {
		return nil, err
	}
	if i >= len(c.slots) {
		return nil, &Error{Path: c.path, Err: fmt.Errorf("%w: %d with length %d", ErrOutOfRange, i, len(c.slots))}
	}
	return c.itemValue(i)
}

// Len returns the number of elements of a SEQUENCE OF or SET OF.
func (v *Value) Len() (int, error) {
	c, err := v.list("Len")
	if err != nil {
		return 0, err
	}
	if err := c.parseElems(-1); err != nil {
		return 0, err
	}
	return len(c.slots), nil
}

// Elements returns an iterator over the elements of a SEQUENCE OF or SET OF.
// Elements are parsed as the iteration proceeds. The iteration stops after the
// first error.
func (v *Value) Elements() iter.Seq2[*Value, error] {
	return func(yield func(*Value, error) bool) {
		c, err := v.list("Elements")
		if err != nil {
			yield(nil, err)
			return
		}
		for i := 0; ; i++ {
			if err := c.parseElems(i); err != nil {
				yield(nil, err)
				return
			}
			if i >= len(c.slots) {
				return
			}
			x, err := c.itemValue(i)
			if !yield(x, err) || err != nil {
				return
			}
		}
	}
}

// Parsed returns the value encapsulated in an OCTET STRING or BIT STRING whose
// spec has been declared with [spec.Spec.Containing] or selected through a
// dispatch.
func (v *Value) Parsed() (*Value, error) {
	if v == nil {
		return nil, v.unsupported("Parsed")
	}
	c := v.resolved()
	s := c.spec.Contains()
	if s == nil {
		return nil, c.unsupported("Parsed")
	}
	if c.inner != nil {
		return c.inner, nil
	}
	x, err := c.decoded()
	if err != nil {
		return nil, err
	}
	var b []byte
	switch x := x.(type) {
	case []byte:
		b = x
	case asn1.BitString:
		if x.BitLength%8 != 0 {
			return nil, &Error{Path: c.path, Err: fmt.Errorf("%w: encapsulating BIT STRING with %d bits", ErrUnsupported, x.BitLength)}
		}
		b = x.Bytes
	}
	inner, err := loadDocument(b, s, c.opts, c.path, c.depth+1)
	if err != nil {
		return nil, err
	}
	c.inner = c.attach(inner)
	return inner, nil
}

// Expand decodes the complete subtree of v. Errors in any part of the encoding
// are reported.
func (v *Value) Expand() error {
	if v == nil || v.expanded && !v.dirty {
		return nil
	}
	base := v.spec.Base()
	switch base.Kind() {
	case spec.KindChoice:
		if err := v.altVal.Expand(); err != nil {
			return err
		}
	case spec.KindAny:
		if err := v.checkAny(); err != nil {
			return err
		}
	case spec.KindSequence, spec.KindSet:
		n := len(base.Fields())
		if err := v.parseFields(n); err != nil {
			return err
		}
		for i := range n {
			c, err := v.fieldValue(i)
			if err != nil {
				return err
			}
			if err := c.Expand(); err != nil {
				return err
			}
		}
	case spec.KindSequenceOf, spec.KindSetOf:
		if err := v.parseElems(-1); err != nil {
			return err
		}
		for i := range v.slots {
			c, err := v.itemValue(i)
			if err != nil {
				return err
			}
			if err := c.Expand(); err != nil {
				return err
			}
		}
	default:
		if _, err := v.decoded(); err != nil {
			return err
		}
		if base.Contains() != nil {
			inner, err := v.Parsed()
			if err != nil {
				return err
			}
			if err := inner.Expand(); err != nil {
				return err
			}
		}
	}
	v.advance(StateExpanded)
	v.expanded = true
	return nil
}
