// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// A HandlerGroup is a group of event handler chains which can be
// installed in a Request.
//
// Dispatch is synchronous and in installation order. A panicking
// handler is not recovered: the panic propagates out of the Request
// method that fired the event.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds an event handler to the back of the event handler chain
// for a specific event type.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("httpwire/request: nil handler")
	}
	if evt < 0 || int(evt) >= numEvents {
		panic("httpwire/request: invalid event")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

// Append adds the handlers of other to the back of the matching chains
// of g, preserving their order.
func (g *HandlerGroup) Append(other *HandlerGroup) {
	if other == nil {
		return
	}
	for i, chain := range other.handlers {
		for _, h := range chain {
			g.PushBack(Event(i), h)
		}
	}
}

// Len returns the number of handlers installed for evt.
func (g *HandlerGroup) Len(evt Event) int {
	if g == nil || int(evt) >= len(g.handlers) {
		return 0
	}
	return len(g.handlers[evt])
}

// Clone returns a copy of g whose chains can be extended without
// affecting g. Cloning a nil group yields an empty group.
func (g *HandlerGroup) Clone() *HandlerGroup {
	c := &HandlerGroup{}
	if g == nil || g.handlers == nil {
		return c
	}
	c.handlers = make([][]Handler, numEvents)
	for i, chain := range g.handlers {
		c.handlers[i] = append([]Handler(nil), chain...)
	}
	return c
}

func (g *HandlerGroup) run(evt Event, n *Notice) {
	if g == nil {
		return
	}
	i := int(evt)
	if i < len(g.handlers) {
		run(g.handlers[i], evt, n)
	}
}

func run(chain []Handler, evt Event, n *Notice) {
	for _, h := range chain {
		h.Handle(evt, n)
	}
}

// A Handler handles the occurrence of an event during the life of a
// Request.
type Handler interface {
	Handle(Event, *Notice)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers. If f is a function with appropriate
// signature, then HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(Event, *Notice)

// Handle calls f(evt, n).
func (f HandlerFunc) Handle(evt Event, n *Notice) {
	f(evt, n)
}
