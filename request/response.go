// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gogama/httpwire/message"
	"github.com/gogama/httpwire/stream"
)

// A Response is the response received, or injected, for a Request.
type Response struct {
	Proto      string
	ProtoMajor int
	ProtoMinor int
	StatusCode int
	Reason     string

	// Header holds the response header lines in arrival order.
	Header *message.Header

	// Body is the sink the response body was written into. Read it
	// with stream.Bytes or stream.String, which rewind seekable sinks.
	Body stream.Stream

	// Info describes the exchange that produced the response.
	Info Info
}

// Info describes the exchange that produced a Response.
type Info struct {
	// Attempt is the zero-based attempt number that produced the
	// response.
	Attempt int
	// Total is the time from the start of the attempt until the
	// response was processed.
	Total time.Duration
	// BodySize is the number of body bytes written into the sink.
	BodySize int64
	// Trace is the raw request header block the handle wrote.
	Trace string
	// Injected is true if the response was supplied with SetResponse
	// rather than received over the wire.
	Injected bool
}

// NewResponse returns an HTTP/1.1 response with the given status code,
// header and body, suitable for injection with SetResponse.
func NewResponse(code int, header *message.Header, body string) *Response {
	if header == nil {
		header = message.NewHeader()
	}
	return &Response{
		Proto:      message.DefaultProto,
		ProtoMajor: 1,
		ProtoMinor: 1,
		StatusCode: code,
		Reason:     http.StatusText(code),
		Header:     header,
		Body:       stream.FromString(body),
	}
}

// IsSuccessful reports whether the status code is 2xx.
func (resp *Response) IsSuccessful() bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// IsRedirect reports whether the status code is 3xx.
func (resp *Response) IsRedirect() bool {
	return resp.StatusCode >= 300 && resp.StatusCode < 400
}

// IsError reports whether the status code is 4xx or 5xx.
func (resp *Response) IsError() bool {
	return resp.StatusCode >= 400
}

// StatusLine returns the response status line without line terminator.
func (resp *Response) StatusLine() string {
	proto := resp.Proto
	if proto == "" {
		proto = fmt.Sprintf("HTTP/%d.%d", resp.ProtoMajor, resp.ProtoMinor)
	}
	return fmt.Sprintf("%s %03d %s", proto, resp.StatusCode, resp.Reason)
}

// BodyString returns the whole response body as a string.
func (resp *Response) BodyString() (string, error) {
	if resp.Body == nil {
		return "", nil
	}
	return stream.String(resp.Body)
}

// DecodedBody returns a read-only stream that decodes the body
// according to the Content-Encoding header. The body is rewound first
// if it is seekable.
func (resp *Response) DecodedBody() (stream.Stream, error) {
	if resp.Body == nil {
		return stream.NewBuffer(), nil
	}
	if resp.Body.Seekable() {
		if err := stream.Rewind(resp.Body); err != nil {
			return nil, err
		}
	}
	return stream.Decode(resp.Body, resp.Header.Get("Content-Encoding"))
}

// CacheControl returns the parsed Cache-Control directives of the
// response.
func (resp *Response) CacheControl() *message.CacheControl {
	return resp.Header.CacheControl()
}
