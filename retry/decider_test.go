// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/httpwire/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDecider(t *testing.T) {
	t.Run("Retryable status codes", func(t *testing.T) {
		codes := []int{429, 502, 503, 504}
		for i, code := range codes {
			r := withResponse(t, code, nil)
			t.Run(fmt.Sprintf("codes[%d]=%d", i, code), func(t *testing.T) {
				for j := 0; j < DefaultTimes; j++ {
					r.Attempt = j
					assert.True(t, DefaultDecider(r), fmt.Sprintf("Expect true for attempt %d", j))
				}
				r.Attempt = DefaultTimes
				assert.False(t, DefaultDecider(r), fmt.Sprintf("Expect false for attempt %d", r.Attempt))
			})
		}
	})
	t.Run("Non-retryable status codes", func(t *testing.T) {
		codes := []int{200, 201, 204, 400, 401, 403, 404, 500}
		for i, code := range codes {
			r := withResponse(t, code, nil)
			t.Run(fmt.Sprintf("codes[%d]=%d", i, code), func(t *testing.T) {
				r.Attempt = 0
				assert.False(t, DefaultDecider(r), "Expect false for attempt 0")
				r.Attempt = 4
				assert.False(t, DefaultDecider(r), "Expect false for attempt 4")
			})
		}
	})
	t.Run("Transient errors", func(t *testing.T) {
		for i, te := range transientErrs {
			r := newRequest(t, "GET", nil)
			r.Err = te
			t.Run(fmt.Sprintf("transientErrs[%d]=%v", i, te), func(t *testing.T) {
				for j := 0; j < DefaultTimes; j++ {
					r.Attempt = j
					assert.True(t, DefaultDecider(r), fmt.Sprintf("Expect true for attempt %d", j))
				}
				r.Attempt = DefaultTimes
				assert.False(t, DefaultDecider(r), fmt.Sprintf("Expect false for attempt %d", r.Attempt))
			})
		}
	})
	t.Run("Non-transient errors", func(t *testing.T) {
		for i, nte := range nonTransientErrs {
			r := newRequest(t, "GET", nil)
			r.Err = nte
			t.Run(fmt.Sprintf("nonTransientErrs[%d]=%v", i, nte), func(t *testing.T) {
				r.Attempt = 0
				assert.False(t, DefaultDecider(r), "Expect false for attempt 0")
				r.Attempt = 4
				assert.False(t, DefaultDecider(r), "Expect false for attempt 4")
			})
		}
	})
}

func TestTransientErr(t *testing.T) {
	r := newRequest(t, "GET", nil)
	for i, te := range transientErrs {
		t.Run(fmt.Sprintf("transientErrs[%d]=%v", i, te), func(t *testing.T) {
			r.Err = te
			assert.True(t, transientErr(r))
			r.Err = &net.OpError{Op: "read", Net: "tcp", Err: te}
			assert.True(t, transientErr(r))
			r.Err = &request.TransportError{Message: "wrapped", Err: te}
			assert.True(t, transientErr(r))
		})
	}
	for j, nte := range nonTransientErrs {
		t.Run(fmt.Sprintf("nonTransientErrs[%d]=%v", j, nte), func(t *testing.T) {
			r.Err = nte
			assert.False(t, transientErr(r))
		})
	}
}

func TestDeciderAnd(t *testing.T) {
	true_ := DeciderFunc(func(_ *request.Request) bool { return true })
	false_ := DeciderFunc(func(_ *request.Request) bool { return false })
	r := &request.Request{}
	assert.True(t, true_.And(true_)(r))
	assert.False(t, true_.And(false_)(r))
	assert.False(t, false_.And(true_)(r))
	assert.False(t, false_.And(false_)(r))
}

func TestDeciderOr(t *testing.T) {
	true_ := DeciderFunc(func(_ *request.Request) bool { return true })
	false_ := DeciderFunc(func(_ *request.Request) bool { return false })
	r := &request.Request{}
	assert.True(t, true_.Or(true_)(r))
	assert.True(t, true_.Or(false_)(r))
	assert.True(t, false_.Or(true_)(r))
	assert.False(t, false_.Or(false_)(r))
}

func TestTimes(t *testing.T) {
	zero := Times(0)
	assert.False(t, zero(&request.Request{}))
	one := Times(1)
	assert.True(t, one(&request.Request{}))
	assert.False(t, one(&request.Request{Attempt: 1}))
	two := Times(2)
	assert.True(t, two(&request.Request{Attempt: 1}))
	assert.False(t, two(&request.Request{Attempt: 2}))
}

func TestBefore(t *testing.T) {
	before := Before(time.Minute)
	r := newRequest(t, "GET", nil, request.WithProvider(&scriptProvider{
		handles: []*scriptHandle{{status: 200}},
	}))
	assert.True(t, before(r), "not started")
	_, err := r.Send()
	require.NoError(t, err)
	assert.True(t, before(r))
	assert.False(t, Before(0)(r))
}

func TestStatusCode(t *testing.T) {
	empty := StatusCode()
	one := StatusCode(602)
	r := newRequest(t, "GET", nil)
	assert.False(t, empty(r))
	assert.False(t, one(r))
	r = withResponse(t, 602, nil)
	assert.False(t, empty(r))
	assert.True(t, one(r))
	two := StatusCode(509, 602)
	assert.True(t, two(r))
	assert.True(t, two(withResponse(t, 509, nil)))
	assert.False(t, two(withResponse(t, 508, nil)))
}

func TestMethods(t *testing.T) {
	testCases := []struct {
		method   string
		expected bool
	}{
		{"GET", true},
		{"HEAD", true},
		{"PUT", true},
		{"DELETE", true},
		{"OPTIONS", true},
		{"TRACE", true},
		{"POST", false},
		{"PATCH", false},
		{"CONNECT", false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.method, func(t *testing.T) {
			assert.Equal(t, testCase.expected, Idempotent(&request.Request{Method: testCase.method}))
		})
	}
	assert.False(t, Methods()(&request.Request{Method: "GET"}))
}

var (
	transientErrs = []error{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ETIMEDOUT,
	}
	nonTransientErrs = []error{
		nil,
		errors.New("ain't transient"),
		syscall.EHOSTUNREACH,
		syscall.ENETDOWN,
	}
)
