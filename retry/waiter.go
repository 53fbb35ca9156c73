// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gogama/httpwire/request"
)

// A Waiter specifies how long to wait before making a fresh attempt
// at a request.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
//
// The Plugin will not call the Waiter on a retry policy if the policy
// Decider returned false.
//
// This package provides the Waiter constructors NewFixedWaiter,
// NewExpWaiter and NewRetryAfterWaiter. In addition it provides a
// concrete instance suitable for many typical use cases, DefaultWaiter.
type Waiter interface {
	Wait(r *request.Request) time.Duration
}

// DefaultWaiter is the default retry wait policy. It uses a jittered
// exponential backoff formula with a base wait of 50 milliseconds and a
// maximum wait of 1 second.
var DefaultWaiter = NewExpWaiter(50*time.Millisecond, 1*time.Second, time.Now())

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Request) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing an exponential backoff
// formula with optional jitter.
//
// The formula implemented is the "Full Jitter" approach described in:
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// Parameters base and max control the exponential calculation of the
// ceiling:
//
//	ceil := min(base * 2**attempt, max)
//
// Base and max must be positive values, and max must be at least equal
// to base.
//
// Parameter jitter is used to generate a random number between 0 and
// ceil. To make a waiter that does not jitter and simply returns
// ceil on each attempt, pass nil for jitter. Otherwise you may specify
// either a random number generator seed value (as a time.Time, int, or
// int64) or a random number generator (as a rand.Source).
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("httpwire/retry: base must be positive")
	}
	if max < base {
		panic("httpwire/retry: max must be at least base")
	}
	return &jitterExpWaiter{
		base: base,
		max:  max,
		rand: jitterToRand(jitter),
	}
}

type jitterExpWaiter struct {
	base time.Duration
	max  time.Duration
	rand *rand.Rand
	lock sync.Mutex
}

func (w *jitterExpWaiter) Wait(r *request.Request) time.Duration {
	var exp int64 = 1<<63 - 1
	switch {
	case r.Attempt <= 0:
		exp = 1
	case r.Attempt < 63:
		exp = int64(1) << r.Attempt
	}

	ceil := int64(w.base) * exp
	if ceil/exp != int64(w.base) || int64(w.max) < ceil {
		ceil = int64(w.max)
	}

	duration := ceil
	if ceil > 0 && w.rand != nil {
		w.lock.Lock()
		defer w.lock.Unlock()
		duration = w.rand.Int63n(ceil)
	}

	return time.Duration(duration)
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("httpwire/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("httpwire/retry: invalid jitter type")
	}
	return rand.New(s)
}

// NewRetryAfterWaiter constructs a Waiter that honours the Retry-After
// header of the current response, if there is one, and otherwise
// defers to fallback.
//
// Retry-After may hold either a number of seconds or an HTTP date. The
// wait it implies is capped at max. Values that are unparseable or in
// the past are ignored.
func NewRetryAfterWaiter(fallback Waiter, max time.Duration) Waiter {
	if fallback == nil {
		panic("httpwire/retry: nil fallback")
	}
	return &retryAfterWaiter{fallback: fallback, max: max, now: time.Now}
}

type retryAfterWaiter struct {
	fallback Waiter
	max      time.Duration
	now      func() time.Time
}

func (w *retryAfterWaiter) Wait(r *request.Request) time.Duration {
	if d, ok := w.retryAfter(r.Response()); ok {
		if d > w.max {
			return w.max
		}
		return d
	}
	return w.fallback.Wait(r)
}

func (w *retryAfterWaiter) retryAfter(resp *request.Response) (time.Duration, bool) {
	if resp == nil || resp.Header == nil {
		return 0, false
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		if secs > int64(w.max/time.Second) {
			return w.max, true
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	d := t.Sub(w.now())
	if d < 0 {
		return 0, false
	}
	return d, true
}
