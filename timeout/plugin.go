// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"github.com/gogama/httpwire/request"
	"go.uber.org/zap"
)

// A Plugin sets the per-attempt timeout of a request from a Policy.
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

// Install wires the plugin into r. It sets r.Timeout before every
// attempt.
func (p *Plugin) Install(r *request.Request) {
	r.Handlers().PushBack(request.BeforeSend, p)
}

// Handle implements request.Handler.
func (p *Plugin) Handle(evt request.Event, n *request.Notice) {
	if evt != request.BeforeSend || n.Request == nil {
		return
	}
	r := n.Request
	r.Timeout = p.policy.Timeout(r)
	if r.TimedOut() {
		r.Logger().Debug("adapting timeout",
			zap.Int("attempt_timeouts", r.AttemptTimeouts),
			zap.Duration("timeout", r.Timeout))
	}
}
