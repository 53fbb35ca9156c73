// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a HandlerGroup to extend a Request
// with custom functionality such as retry, caching, redirect-following
// or cookie persistence.
type Event int

const (
	// BeforeSend identifies the event that occurs at the start of each
	// attempt, after the request has entered StateTransfer but before
	// the pre-send filter chain runs.
	//
	// BeforeSend handlers may modify the request. A handler may also
	// inject a response with SetResponse, in which case nothing is
	// transmitted.
	BeforeSend Event = iota
	// HeaderReceived identifies the event that occurs once per raw
	// response header line, as the line arrives.
	//
	// When the line is the status line, the notice carries the freshly
	// allocated response, the pseudo-header name ":status" and the
	// status code as the value. Otherwise it carries the header name
	// and value exactly as merged into the response header.
	HeaderReceived
	// Sent identifies the event that occurs after the transport has
	// finished transmitting the request and receiving the response (or
	// failing to), before the response is processed.
	//
	// When Request fires Sent, the notice error is the raw transport
	// error, if any.
	Sent
	// BadResponse identifies the event that occurs when the response
	// classifier rejects the response. It always precedes an Exception
	// event carrying the same *PolicyFailure.
	//
	// A BadResponse handler may substitute a different response by
	// calling SetResponse on the request.
	BadResponse
	// Exception identifies the event that occurs before a
	// *TransportError or *PolicyFailure is returned to the caller.
	//
	// An Exception handler may call SetState(StateNew) on the request
	// to have Send make a fresh attempt, in which case the error does
	// not escape Send. A handler may also clear the request's Err field
	// to swallow the error.
	Exception
	// ResponseSet identifies the event that occurs when a response is
	// injected or queued with SetResponse.
	ResponseSet
	// Complete identifies the event that occurs when the transaction
	// is complete: the post-receive filter chain has run without
	// resetting the request, but the handle has not yet been released
	// and the response has not yet been classified.
	Complete
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeSend",
	"HeaderReceived",
	"Sent",
	"BadResponse",
	"Exception",
	"ResponseSet",
	"Complete",
}

// Events returns a slice containing all events which can occur during
// a Request's life, in the order in which they would typically occur.
func Events() []Event {
	return []Event{
		BeforeSend,
		HeaderReceived,
		Sent,
		BadResponse,
		Exception,
		ResponseSet,
		Complete,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}

// A Notice is the payload handed to event handlers.
type Notice struct {
	// Request is the request the event concerns. It is never nil.
	Request *Request
	// Response is the response the event concerns, if any.
	Response *Response
	// Err is the error the event concerns, if any.
	Err error
	// Name and Value hold the header line for HeaderReceived events.
	Name  string
	Value string
}
