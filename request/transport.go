// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// A Handle performs exactly one HTTP exchange for a Request.
//
// Transfer writes the request described by r to the server and reads
// the response. As response header lines arrive, Transfer must feed
// each raw line, status line first, to r.ReceiveResponseHeader; this
// allocates r.Response(), whose Body is the sink Transfer must copy
// the response body into. Transfer returns a non-nil error if the
// exchange failed at any point.
//
// A handler may end the exchange early, for example by injecting a
// response with SetResponse while headers are arriving. The request
// then leaves StateTransfer and force-releases the handle at once.
// Transfer must check r.State() after feeding header lines and stop
// without touching r.Response() once the request has left
// StateTransfer.
//
// Trace returns the raw request header block (request line, headers and
// the terminating blank line) as it was actually written, or the empty
// string if nothing was written.
//
// A Handle is used by one Request at a time and is not safe for
// concurrent use.
type Handle interface {
	Transfer(r *Request) error
	Trace() string
}

// A HandleProvider lends handles to requests.
//
// Acquire returns a handle able to reach the request's URL. Release
// returns a handle when the request is done with it. If forceClose is
// true, the provider must not reuse the underlying connection.
type HandleProvider interface {
	Acquire(r *Request) (Handle, error)
	Release(h Handle, forceClose bool)
}
