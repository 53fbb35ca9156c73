// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/httpwire/request"
)

// A Policy decides the timeout for the next attempt at a request,
// whether it is the first attempt or a retry.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next attempt.
	//
	// Parameter r is the request about to be attempted. During the
	// call, r.TimedOut reports whether the previous attempt timed out
	// and r.AttemptTimeouts counts the attempts that have.
	Timeout(r *request.Request) time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a fixed timeout
// of 5 seconds on each attempt.
var DefaultPolicy Policy = Fixed(5 * time.Second)

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value to set
// every attempt timeout.
func Fixed(d time.Duration) Policy {
	return policy([]time.Duration{d})
}

// Adaptive constructs a timeout policy that varies the next timeout
// value if the previous attempt timed out.
//
// Use Adaptive if the remote service often exhibits one-off slow
// response times that can be cured by quickly timing out and retrying,
// but a burst of slowness must not turn into a retry storm.
//
// Parameter usual is the timeout for an initial attempt and for any
// retry where the immediately preceding attempt did not time out.
//
// Parameter after contains timeout values the policy will return if
// the previous attempt timed out. If this was the first timeout of the
// request, after[0] is returned; if the second, after[1], and so on.
// If more attempts have timed out than after has elements, the last
// element of after is returned.
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// The policy p uses 200 milliseconds as the usual timeout, 1 second
// after the first timeout, and 10 seconds after any later one.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return policy(append(p, after...))
}

type policy []time.Duration

func (p policy) Timeout(r *request.Request) time.Duration {
	if !r.TimedOut() {
		return p[0]
	}

	i := r.AttemptTimeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}
