// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"context"
	"errors"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/httpwire/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlugin(t *testing.T) {
	assert.Same(t, DefaultPolicy, NewPlugin(nil).Policy())
	assert.Same(t, Never, NewPlugin(Never).Policy())
}

func TestPlugin_Install(t *testing.T) {
	p := NewPlugin(Never)
	r := newRequest(t, "GET", nil)
	p.Install(r)
	p.Install(r)
	assert.Equal(t, 1, r.ProcessChain().Len())
	assert.Equal(t, 1, r.PrepareChain().Len())
	assert.Equal(t, 1, r.Handlers().Len(request.Exception))
	assert.True(t, r.ProcessChain().Has(p))

	NewPlugin(Never).Install(r)
	assert.Equal(t, 2, r.ProcessChain().Len())
	assert.Equal(t, 1, r.PrepareChain().Len(), "rewinder is shared")
}

func TestPlugin(t *testing.T) {
	immediately := NewFixedWaiter(0)
	testCases := []struct {
		name     string
		decider  Decider
		handles  []*scriptHandle
		status   int
		attempt  int
		transfer bool
	}{
		{
			name:    "success first time",
			decider: DefaultDecider,
			handles: []*scriptHandle{{status: 200}},
			status:  200,
		},
		{
			name:    "retryable status then success",
			decider: Times(3).And(StatusCode(503)),
			handles: []*scriptHandle{{status: 503}, {status: 503}, {status: 200}},
			status:  200,
			attempt: 2,
		},
		{
			name:    "retryable status exhausted",
			decider: Times(1).And(StatusCode(503)),
			handles: []*scriptHandle{{status: 503}, {status: 503}},
			status:  503,
			attempt: 1,
		},
		{
			name:    "transient error then success",
			decider: Times(3).And(TransientErr),
			handles: []*scriptHandle{{err: syscall.ECONNRESET}, {status: 204}},
			status:  204,
			attempt: 1,
		},
		{
			name:     "transient error exhausted",
			decider:  Times(1).And(TransientErr),
			handles:  []*scriptHandle{{err: syscall.ECONNREFUSED}, {err: syscall.ECONNREFUSED}},
			attempt:  1,
			transfer: true,
		},
		{
			name:     "non-transient error",
			decider:  Times(3).And(TransientErr),
			handles:  []*scriptHandle{{err: syscall.EHOSTUNREACH}},
			transfer: true,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			prov := &scriptProvider{handles: testCase.handles}
			r := newRequest(t, "GET", nil, request.WithProvider(prov))
			NewPlugin(NewPolicy(testCase.decider, immediately)).Install(r)

			resp, err := r.Send()

			assert.Equal(t, len(testCase.handles), prov.acquired)
			assert.Equal(t, testCase.attempt, r.Attempt)
			if testCase.transfer {
				var te *request.TransportError
				assert.ErrorAs(t, err, &te)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, testCase.status, resp.StatusCode)
			assert.Equal(t, testCase.attempt, resp.Info.Attempt)
		})
	}
}

func TestPlugin_Classifier(t *testing.T) {
	prov := &scriptProvider{handles: []*scriptHandle{{status: 500}, {status: 200}}}
	r := newRequest(t, "GET", nil,
		request.WithProvider(prov),
		request.WithClassifier(request.StatusClassifier(500)))
	d := DeciderFunc(func(r *request.Request) bool {
		var pf *request.PolicyFailure
		return r.Attempt == 0 && r.Err != nil && errors.As(r.Err, &pf)
	})
	NewPlugin(NewPolicy(d, NewFixedWaiter(0))).Install(r)

	resp, err := r.Send()

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, r.Attempt)
}

func TestPlugin_RewindsBody(t *testing.T) {
	first := &scriptHandle{status: 503}
	second := &scriptHandle{status: 200}
	prov := &scriptProvider{handles: []*scriptHandle{first, second}}
	body := io.MultiReader(strings.NewReader("pay"), strings.NewReader("load"))
	r := newRequest(t, "PUT", body, request.WithProvider(prov))
	NewPlugin(NewPolicy(Times(1).And(StatusCode(503)), NewFixedWaiter(0))).Install(r)

	resp, err := r.Send()

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "payload", first.sent)
	assert.Equal(t, "payload", second.sent)
	assert.True(t, r.Body.Seekable())
}

func TestPlugin_ContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	prov := &scriptProvider{handles: []*scriptHandle{{err: syscall.ECONNRESET}, {status: 200}}}
	r := newRequest(t, "GET", nil, request.WithProvider(prov), request.WithContext(ctx))
	NewPlugin(NewPolicy(TransientErr, NewFixedWaiter(time.Hour))).Install(r)

	start := time.Now()
	_, err := r.Send()

	assert.Less(t, time.Since(start), time.Minute)
	var te *request.TransportError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, 1, prov.acquired)
	assert.Equal(t, 0, r.Attempt)

	t.Run("already done", func(t *testing.T) {
		prov := &scriptProvider{handles: []*scriptHandle{{status: 503}}}
		r := newRequest(t, "GET", nil, request.WithProvider(prov), request.WithContext(ctx))
		NewPlugin(NewPolicy(StatusCode(503), NewFixedWaiter(0))).Install(r)
		resp, err := r.Send()
		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
	})
}
