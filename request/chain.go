// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"reflect"
)

// ErrStop may be returned by a Filter to end the chain early without
// failing the request.
var ErrStop = errors.New("httpwire/request: stop filter chain")

// A Filter inspects and may modify an in-flight Request.
//
// Filters run in the pre-send chain (state StateTransfer, before any
// transmission) or the post-receive chain (state StateComplete, after
// the response has arrived). A filter may mutate the request, end the
// chain with ErrStop, fail the request by returning any other error,
// or, rarely, reset the request with SetState(StateNew), which also
// ends the chain.
type Filter interface {
	Filter(r *Request) error
}

// The FilterFunc type is an adapter to allow the use of ordinary
// functions as filters.
//
// Function values are not comparable, so a Chain cannot recognise a
// FilterFunc it already holds: adding the same FilterFunc twice adds it
// twice. Use a pointer type for filters that register themselves.
type FilterFunc func(r *Request) error

// Filter calls f(r).
func (f FilterFunc) Filter(r *Request) error {
	return f(r)
}

// A Chain is an ordered set of filters.
//
// Membership is keyed by filter identity, so adding a filter the chain
// already contains does nothing. This lets a component register itself
// every time it is used. The zero value is an empty chain.
type Chain struct {
	filters []Filter
	members map[Filter]struct{}
}

func identity(f Filter) bool {
	return reflect.TypeOf(f).Comparable()
}

// Add appends f to the chain unless the chain already contains it.
// It reports whether f was added.
func (c *Chain) Add(f Filter) bool {
	if f == nil {
		panic("httpwire/request: nil filter")
	}
	if identity(f) {
		if _, ok := c.members[f]; ok {
			return false
		}
		if c.members == nil {
			c.members = make(map[Filter]struct{})
		}
		c.members[f] = struct{}{}
	}
	c.filters = append(c.filters, f)
	return true
}

// Has reports whether the chain contains f.
func (c *Chain) Has(f Filter) bool {
	if f == nil || !identity(f) {
		return false
	}
	_, ok := c.members[f]
	return ok
}

// Remove removes f from the chain and reports whether it was present.
func (c *Chain) Remove(f Filter) bool {
	if !c.Has(f) {
		return false
	}
	delete(c.members, f)
	for i, g := range c.filters {
		if identity(g) && g == f {
			c.filters = append(c.filters[:i:i], c.filters[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Filters returns the filters in order.
func (c *Chain) Filters() []Filter {
	return append([]Filter(nil), c.filters...)
}

func (c *Chain) clone() Chain {
	d := Chain{filters: c.Filters()}
	if c.members != nil {
		d.members = make(map[Filter]struct{}, len(c.members))
		for f := range c.members {
			d.members[f] = struct{}{}
		}
	}
	return d
}

// Run runs the filters in order against r.
//
// Run stops at the first filter returning an error, which it returns,
// except that ErrStop ends the chain with a nil error. Run also stops,
// returning nil, as soon as a filter changes the state of r.
func (c *Chain) Run(r *Request) error {
	state := r.State()
	for _, f := range c.Filters() {
		if err := f.Filter(r); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		if r.State() != state {
			return nil
		}
	}
	return nil
}
