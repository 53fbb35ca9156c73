// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/httpwire/request"
)

// A Policy controls if and how retries are done for a request. After
// every attempt, a Policy decides whether a fresh attempt should be
// made and, if so, how long to wait first.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
//
// A Policy is composed of the Decider and Waiter interfaces. Use one of
// the built-in retry policies, DefaultPolicy or Never, or construct
// your policy using NewPolicy with existing Decider and Waiter
// implementations.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy is a general-purpose retry policy suitable for common
// use cases. It is a composition of DefaultDecider for retry decisions
// and DefaultWaiter, honouring Retry-After, for wait time calculations.
var DefaultPolicy Policy = policy{DefaultDecider, NewRetryAfterWaiter(DefaultWaiter, 30*time.Second)}

// Never is a policy that never retries.
var Never Policy = policy{Times(0), DefaultWaiter}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("httpwire/retry: nil decider")
	}
	if w == nil {
		panic("httpwire/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(r *request.Request) bool {
	return p.decider.Decide(r)
}

func (p policy) Wait(r *request.Request) time.Duration {
	return p.waiter.Wait(r)
}
