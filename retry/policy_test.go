// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"syscall"
	"testing"
	"time"

	"github.com/gogama/httpwire/request"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	t.Run("Decider", func(t *testing.T) {
		s := []int{429, 502, 503, 504}
		for i := 0; i < DefaultTimes; i++ {
			r := withResponse(t, s[i%len(s)], nil)
			r.Attempt = i
			assert.True(t, DefaultPolicy.Decide(r))
			assert.True(t, DefaultPolicy.Decide(&request.Request{
				Attempt: i,
				Err:     syscall.ECONNRESET,
			}))
		}
		assert.False(t, DefaultPolicy.Decide(&request.Request{
			Attempt: DefaultTimes,
			Err:     syscall.ETIMEDOUT,
		}))
	})
	t.Run("Waiter", func(t *testing.T) {
		m := []int{50, 100, 200, 400, 800, 1000}
		total := time.Duration(0)
		for i, max := range m {
			w := DefaultPolicy.Wait(&request.Request{Attempt: i})
			total += w
			assert.GreaterOrEqual(t, w, time.Duration(0))
			assert.LessOrEqual(t, w, time.Duration(max)*time.Millisecond)
		}
		assert.Greater(t, total, time.Duration(0))
	})
}

func TestNever(t *testing.T) {
	assert.False(t, Never.Decide(&request.Request{}))
	assert.False(t, Never.Decide(&request.Request{Err: syscall.ECONNRESET}))
}

func TestNewPolicy(t *testing.T) {
	p := &testPolicy{}
	t.Run("Bad Args", func(t *testing.T) {
		assert.PanicsWithValue(t, "httpwire/retry: nil decider", func() { NewPolicy(nil, p) })
		assert.PanicsWithValue(t, "httpwire/retry: nil waiter", func() { NewPolicy(p, nil) })
	})
	t.Run("Normal", func(t *testing.T) {
		P := NewPolicy(p, p)
		assert.True(t, P.Decide(&request.Request{}))
		assert.Equal(t, 1, p.d)
		assert.Equal(t, time.Second, P.Wait(&request.Request{}))
		assert.Equal(t, 1, p.w)
	})
}

type testPolicy struct {
	d int
	w int
}

func (p *testPolicy) Decide(_ *request.Request) bool {
	p.d++
	return true
}

func (p *testPolicy) Wait(_ *request.Request) time.Duration {
	p.w++
	return time.Second
}
