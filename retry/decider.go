// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/httpwire/request"
	"github.com/gogama/httpwire/transient"
)

// A Decider decides if a fresh attempt should be made.
//
// A Decider is consulted by the Plugin in two places: from the
// post-receive filter chain, when a response has arrived, and from an
// Exception handler, when the attempt failed or its response was
// rejected. In the latter case r.Err holds the error.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, StatusCode, Methods and Before,
// and the built-in deciders TransientErr and Idempotent; or implement
// your Decider. Use DeciderFunc to convert an ordinary function into a
// Decider, and to compose deciders logically using DeciderFunc.And and
// DeciderFunc.Or.
type Decider interface {
	Decide(r *request.Request) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(r *request.Request) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 5

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It will allow up to DefaultTimes retries (i.e. up
// to 6 total attempts), and will retry in the case of a transient error
// (TransientErr) or if a response is received with one of the
// following status codes: 429 (Too Many Requests); 502 (Bad Gateway);
// 503 (Service Unavailable); or 504 (Gateway Timeout).
var DefaultDecider = Times(DefaultTimes).And(StatusCode(429, 502, 503, 504).Or(TransientErr))

// TransientErr is a decider that indicates a retry if the current
// error is transient according to transient.Categorize.
//
// TransientErr only looks at the error, so it will always return false
// when the attempt produced an accepted response.
var TransientErr DeciderFunc = transientErr

// Idempotent is a decider that indicates a retry if the request method
// is idempotent as defined by RFC 7231: GET, HEAD, PUT, DELETE, OPTIONS
// or TRACE. Compose it with TransientErr to avoid repeating a POST that
// may already have reached the server.
var Idempotent = Methods("GET", "HEAD", "PUT", "DELETE", "OPTIONS", "TRACE")

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current state of the request.
func (f DeciderFunc) Decide(r *request.Request) bool {
	return f(r)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(r *request.Request) bool {
		return f(r) && g(r)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(r *request.Request) bool {
		return f(r) || g(r)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the attempt index r.Attempt is
// less than n, and false otherwise.
func Times(n int) DeciderFunc {
	return func(r *request.Request) bool {
		return r.Attempt < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the first attempt started. The
// returned decider returns true while r.Duration() is less than d, and
// false afterward.
func Before(d time.Duration) DeciderFunc {
	return func(r *request.Request) bool {
		return r.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// response status code. If the current attempt has a response and its
// status code is contained in the list ss, the decider returns true.
// Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(r *request.Request) bool {
		code := r.StatusCode()
		for _, s := range ss2 {
			if code == s {
				return true
			}
		}
		return false
	}
}

// Methods constructs a retry decider which returns true if the request
// method is one of ms.
func Methods(ms ...string) DeciderFunc {
	set := make(map[string]bool, len(ms))
	for _, m := range ms {
		set[m] = true
	}
	return func(r *request.Request) bool {
		return set[r.Method]
	}
}

func transientErr(r *request.Request) bool {
	return transient.Is(r.Err)
}
