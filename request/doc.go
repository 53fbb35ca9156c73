// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains Request, the transaction engine that sends one
HTTP request, and the extension points around it: event handlers,
filter chains, response classifiers and the handle contracts a
transport implements.

A Request is both the description of what to send and the state of
sending it. Create one and send it:

	r, err := request.New("GET", "https://example.com", nil,
		request.WithProvider(pool))
	...
	resp, err := r.Send()
	...

or build one from a literal HTTP message:

	r, err := request.Parse("GET /path HTTP/1.1\r\nHost: example.com:8080\r\n\r\n")

A Request is in one of three states: StateNew, StateTransfer or
StateComplete. Send runs an attempt: it broadcasts BeforeSend, runs the
pre-send filter chain (where BodyPolicy frames the body), borrows a
Handle from the HandleProvider and lets it perform the exchange, then
processes the result. Processing reconciles the request with what the
handle actually wrote, runs the post-receive filter chain, broadcasts
Complete, returns the handle and classifies the response.

Every party that sees the request may reset it with SetState(StateNew).
Send keeps making fresh attempts for as long as that happens, which is
all a retry plugin needs to do; see package retry.

Errors are reported with four types. A *RequestConstructionError means
nothing was sent. A *TransportError means the exchange failed. A
*PolicyFailure means a response arrived but the Classifier rejected it.
A *ProtocolInvariantError means a handle or handler broke the rules.
Transport errors and policy failures are broadcast as Exception events
before Send returns them, giving handlers the chance to retry or
swallow them.
*/
package request
