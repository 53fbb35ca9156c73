// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/gogama/httpwire/message"
	"github.com/gogama/httpwire/request"
	"github.com/stretchr/testify/require"
)

type scriptHandle struct {
	status int
	header []string
	body   string
	err    error
	sent   string
}

func (h *scriptHandle) Transfer(r *request.Request) error {
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return err
		}
		h.sent = string(b)
	}
	if h.err != nil {
		return h.err
	}
	r.ReceiveResponseHeader(fmt.Sprintf("HTTP/1.1 %d %s", h.status, http.StatusText(h.status)))
	for _, line := range h.header {
		r.ReceiveResponseHeader(line)
	}
	_, err := r.Response().Body.Write([]byte(h.body))
	return err
}

func (h *scriptHandle) Trace() string {
	return ""
}

type scriptProvider struct {
	handles  []*scriptHandle
	acquired int
}

func (p *scriptProvider) Acquire(_ *request.Request) (request.Handle, error) {
	h := p.handles[p.acquired]
	p.acquired++
	return h, nil
}

func (p *scriptProvider) Release(_ request.Handle, _ bool) {}

func newRequest(t *testing.T, method string, body interface{}, opts ...request.Option) *request.Request {
	r, err := request.New(method, "http://example.com/retry", body, opts...)
	require.NoError(t, err)
	return r
}

func withResponse(t *testing.T, code int, header *message.Header) *request.Request {
	r := newRequest(t, "GET", nil)
	r.SetResponse(request.NewResponse(code, header, ""), false)
	require.NotNil(t, r.Response())
	return r
}
