// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"github.com/pion/logging"

	"codello.dev/asn1tree/tlv"
)

// Default limits applied by [Load] and [New].
const (
	DefaultMaxDepth = 64
	DefaultMaxSize  = 16 << 20
)

// SetOrder selects how the fields of a SET are ordered when a SET value is
// encoded.
//
//go:generate stringer -type=SetOrder -trimprefix=SetOrder
type SetOrder uint8

const (
	// SetOrderDeclared encodes SET fields in the order of their declaration.
	SetOrderDeclared SetOrder = iota
	// SetOrderSorted encodes SET fields in ascending order of their encodings.
	SetOrderSorted
)

// options holds the configuration shared by all values of a tree.
type options struct {
	mode     tlv.Mode
	maxDepth int
	maxSize  int
	setOrder SetOrder
	log      logging.LeveledLogger
}

// Option is a function that modifies the configuration of a tree.
type Option func(*options)

// newOptions applies opts to the default configuration.
func newOptions(opts []Option) *options {
	o := &options{
		mode:     tlv.DER,
		maxDepth: DefaultMaxDepth,
		maxSize:  DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMode specifies the encoding rules accepted when parsing. The default is
// [tlv.DER].
func WithMode(mode tlv.Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithMaxDepth limits the nesting depth of values. Deeper inputs are rejected
// with [ErrTooDeep]. A value <= 0 disables the limit.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithMaxSize limits the size of inputs accepted by [Load]. Larger inputs are
// rejected with [ErrTooLarge]. A value <= 0 disables the limit.
func WithMaxSize(size int) Option {
	return func(o *options) {
		o.maxSize = size
	}
}

// WithSetOrder specifies the order of SET fields in re-encoded values.
func WithSetOrder(order SetOrder) Option {
	return func(o *options) {
		o.setOrder = order
	}
}

// WithLoggerFactory enables logging. If f is nil, logging is disabled.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(o *options) {
		o.log = nil
		if f != nil {
			o.log = f.NewLogger("asn1tree")
		}
	}
}

// tooDeep reports whether depth exceeds the configured limit.
func (o *options) tooDeep(depth int) bool {
	return o.maxDepth > 0 && depth > o.maxDepth
}

func (o *options) debugf(format string, args ...any) {
	if o.log != nil {
		o.log.Debugf(format, args...)
	}
}

func (o *options) warnf(format string, args ...any) {
	if o.log != nil {
		o.log.Warnf(format, args...)
	}
}

func (o *options) tracef(format string, args ...any) {
	if o.log != nil {
		o.log.Tracef(format, args...)
	}
}
