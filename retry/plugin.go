// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/httpwire/request"
	"github.com/gogama/httpwire/stream"
	"go.uber.org/zap"
)

// A Plugin retries requests according to a Policy.
//
// Installed on a request, the plugin consults the policy after every
// attempt: from the post-receive filter chain when a response arrived,
// and from an Exception handler when the attempt failed or its response
// was rejected. If the policy decides to retry, the plugin waits as
// long as the policy says and resets the request to
// request.StateNew, so that Send makes a fresh attempt.
//
// A Plugin has no per-request state, so one Plugin may be installed on
// any number of requests.
type Plugin struct {
	policy Policy
}

// NewPlugin constructs a Plugin. If p is nil, DefaultPolicy is used.
func NewPlugin(p Policy) *Plugin {
	if p == nil {
		p = DefaultPolicy
	}
	return &Plugin{policy: p}
}

// Policy returns the retry policy of the plugin.
func (p *Plugin) Policy() Policy {
	return p.policy
}

// Install wires the plugin into r. Installing the same plugin twice on
// one request has no further effect.
func (p *Plugin) Install(r *request.Request) {
	if r.ProcessChain().Has(p) {
		return
	}
	r.PrepareChain().Add(rewinder{})
	r.ProcessChain().Add(p)
	r.Handlers().PushBack(request.Exception, p)
}

// Filter implements request.Filter for the post-receive chain.
func (p *Plugin) Filter(r *request.Request) error {
	if p.retry(r) {
		r.SetState(request.StateNew)
	}
	return nil
}

// Handle implements request.Handler for the Exception event.
func (p *Plugin) Handle(evt request.Event, n *request.Notice) {
	if evt != request.Exception || n.Request == nil {
		return
	}
	if p.retry(n.Request) {
		n.Request.SetState(request.StateNew)
	}
}

func (p *Plugin) retry(r *request.Request) bool {
	ctx := r.Context()
	if ctx.Err() != nil || !p.policy.Decide(r) {
		return false
	}
	d := p.policy.Wait(r)
	r.Logger().Debug("retrying",
		zap.Int("attempt", r.Attempt),
		zap.Int("status", r.StatusCode()),
		zap.Duration("wait", d),
		zap.Error(r.Err))
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// rewinder makes the request body replayable: a body that cannot seek
// is cached as it is read, and every attempt after the first starts
// from the beginning.
type rewinder struct{}

func (rewinder) Filter(r *request.Request) error {
	if r.Body == nil {
		return nil
	}
	if !r.Body.Seekable() {
		r.Body = stream.Caching(r.Body)
		return nil
	}
	if r.Attempt > 0 {
		return stream.Rewind(r.Body)
	}
	return nil
}
