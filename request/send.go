// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gogama/httpwire/message"
	"github.com/gogama/httpwire/stream"
	"github.com/gogama/httpwire/transient"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
)

// A State is the lifecycle state of a Request.
type State int

const (
	// StateNew means the request has not been sent, or has been reset
	// and will be sent afresh by the next call to Send.
	StateNew State = iota
	// StateTransfer means an attempt is underway.
	StateTransfer
	// StateComplete means the latest attempt ended with a response or
	// an error.
	StateComplete
)

var stateNames = [...]string{"new", "transfer", "complete"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

var errNoProvider = errors.New("no handle provider")

// Send transmits the request and returns the response.
//
// Send is a no-op unless the request is in StateNew: calling it again
// on a complete request returns the same response and error without
// transmitting anything. Otherwise Send makes an attempt and keeps
// making fresh attempts for as long as an event handler or filter
// resets the request to StateNew during the previous one.
//
// The returned error is nil, a *RequestConstructionError, a
// *TransportError, a *ProtocolInvariantError or a *PolicyFailure, unless
// an Exception handler replaced Err.
func (r *Request) Send() (*Response, error) {
	for r.state == StateNew {
		r.attempt()
	}
	return r.response, r.Err
}

func (r *Request) attempt() {
	now := time.Now()
	if r.started {
		r.Attempt++
	} else {
		r.started = true
		r.start = now
	}
	r.attemptAt = now
	r.end = time.Time{}
	r.Err = nil
	r.transferErr = nil
	r.state = StateTransfer
	r.logger.Debug("attempt starting",
		zap.Int("attempt", r.Attempt),
		zap.String("method", r.Method),
		zap.String("url", r.URL.Redacted()))

	r.emit(BeforeSend, Notice{})
	if r.state != StateTransfer {
		return
	}
	r.timedOut = false

	if r.Body != nil || len(r.Form) > 0 {
		r.prepare.Add(BodyPolicy)
	}
	if err := r.prepare.Run(r); err != nil {
		r.abort(err)
		return
	}
	if r.state != StateTransfer {
		return
	}
	if err := r.validate(); err != nil {
		r.abort(err)
		return
	}

	if q := r.queued; q != nil {
		r.queued = nil
		r.SetResponse(q, false)
		return
	}

	if r.provider == nil {
		r.abort(&RequestConstructionError{Op: "send", Err: errNoProvider})
		return
	}
	h, err := r.acquire()
	if err == nil {
		err = h.Transfer(r)
	}
	r.transferErr = err
	r.emit(Sent, Notice{Response: r.response, Err: err})
	if r.state == StateTransfer {
		r.SetState(StateComplete)
	}
}

// abort ends the attempt with a construction error without
// broadcasting it.
func (r *Request) abort(err error) {
	var rce *RequestConstructionError
	if !errors.As(err, &rce) {
		err = &RequestConstructionError{Op: "prepare", Err: err}
	}
	r.logger.Warn("request construction failed", zap.Error(err))
	r.release(true)
	r.Err = err
	r.state = StateComplete
	r.end = time.Now()
}

func (r *Request) acquire() (Handle, error) {
	if r.handle != nil {
		return r.handle, nil
	}
	h, err := r.provider.Acquire(r)
	if err != nil {
		return nil, err
	}
	r.handle = h
	return h, nil
}

func (r *Request) release(forceClose bool) {
	if r.handle == nil {
		return
	}
	h := r.handle
	r.handle = nil
	r.provider.Release(h, forceClose)
}

func (r *Request) trace() string {
	if r.handle == nil {
		return ""
	}
	return r.handle.Trace()
}

// SetState moves the request to state s.
//
// Moving to StateNew resets the request: any held handle is released
// for closing, and the response, response sink, queued response,
// processed mark and error are discarded. Headers, body, form and
// options are kept. The next Send transmits afresh.
//
// Moving to StateComplete processes the current response, unless it
// has already been processed, and returns the resulting error, which
// is also stored in Err.
func (r *Request) SetState(s State) error {
	switch s {
	case StateNew:
		r.reset()
	case StateTransfer:
		r.state = StateTransfer
	case StateComplete:
		prev := r.state
		r.state = StateComplete
		if r.processed && prev == StateComplete {
			return r.Err
		}
		err := r.processResponse()
		if r.state == StateComplete {
			r.Err = err
			r.end = time.Now()
		}
		return err
	default:
		panic("httpwire/request: invalid state " + s.String())
	}
	return nil
}

func (r *Request) reset() {
	r.logger.Debug("reset", zap.Stringer("from", r.state))
	r.release(true)
	r.state = StateNew
	r.response = nil
	r.queued = nil
	r.injected = false
	r.processed = false
	r.sinkConfig = nil
	r.sink = nil
	r.transferErr = nil
	r.Err = nil
}

func (r *Request) processResponse() error {
	tr := r.trace()
	switch {
	case r.injected:
		r.logger.Debug("adopting injected response", zap.Int("status", r.response.StatusCode))
	case r.transferErr != nil:
		var rce *RequestConstructionError
		if errors.As(r.transferErr, &rce) {
			r.abort(rce)
			r.processed = true
			return rce
		}
		err := newTransportError(r.transferErr, tr)
		if transient.Categorize(err) == transient.Timeout {
			r.AttemptTimeouts++
			r.timedOut = true
		}
		r.release(true)
		r.logger.Warn("transport failed", zap.Int("attempt", r.Attempt), zap.Error(err))
		return r.raise(err)
	case r.response == nil:
		r.release(true)
		err := &ProtocolInvariantError{Msg: "request complete without response or transport error"}
		r.logger.Error("no response", zap.Error(err))
		return err
	default:
		if err := r.reconcile(tr); err != nil {
			r.logger.Warn("unparseable request trace", zap.Error(err))
		}
	}

	resp := r.response
	resp.Info.Attempt = r.Attempt
	if !r.attemptAt.IsZero() {
		resp.Info.Total = time.Since(r.attemptAt)
	}
	resp.Info.Trace = tr
	resp.Info.Injected = r.injected

	if err := r.process.Run(r); err != nil {
		r.release(true)
		return r.raise(err)
	}
	if r.state != StateComplete || r.response != resp {
		return r.Err
	}

	r.processed = true
	r.emit(Complete, Notice{Response: resp})
	if r.state != StateComplete || r.response != resp {
		return r.Err
	}
	r.release(r.closeAfter(resp))
	r.logger.Debug("response processed",
		zap.Int("status", resp.StatusCode),
		zap.Int64("body_size", resp.Info.BodySize),
		zap.Duration("total", resp.Info.Total))

	c := r.classifier
	if c == nil {
		c = Permissive()
	}
	if err := c.Classify(r, resp); err != nil {
		pf := asPolicyFailure(err, resp)
		r.emit(BadResponse, Notice{Response: resp, Err: pf})
		if r.state != StateComplete || r.response != resp {
			return r.Err
		}
		return r.raise(pf)
	}
	return nil
}

// raise stores err and broadcasts it as an Exception. It returns the
// error that should escape: nil if a handler reset the request or
// cleared Err.
func (r *Request) raise(err error) error {
	r.Err = err
	r.emit(Exception, Notice{Response: r.response, Err: err})
	if r.state == StateNew {
		return nil
	}
	return r.Err
}

// closeAfter reports whether the connection behind the handle must not
// be reused after resp.
func (r *Request) closeAfter(resp *Response) bool {
	if !r.ProtoAtLeast(1, 1) {
		return true
	}
	if resp.ProtoMajor != 0 && (resp.ProtoMajor < 1 || resp.ProtoMajor == 1 && resp.ProtoMinor < 1) {
		return true
	}
	return httpguts.HeaderValuesContainsToken(r.Header.Values("Connection"), "close") ||
		httpguts.HeaderValuesContainsToken(resp.Header.Values("Connection"), "close")
}

// reconcile rewrites method, URL, protocol and headers to match the
// request header block the handle actually wrote.
func (r *Request) reconcile(trace string) error {
	if trace == "" {
		return nil
	}
	m, err := message.Parse(trace)
	if err != nil {
		return err
	}
	if m.Method != "" {
		r.Method = m.Method
		r.ProtoMajor, r.ProtoMinor = m.ProtoMajor, m.ProtoMinor
	}
	if hp := m.HostPort(); hp != "" && !strings.EqualFold(hp, r.URL.Host) {
		u := *r.URL
		u.Host = hp
		r.URL = &u
	}
	h := m.Header.Clone()
	h.Del("Host")
	r.Header = h
	return nil
}

// ReceiveResponseHeader accepts one raw response header line from the
// handle.
//
// A status line allocates a fresh response whose body is the response
// sink and broadcasts HeaderReceived with the pseudo-header name
// ":status". Any other line that splits into a valid name and value is
// merged into the current response header and broadcast. Other lines,
// and every line arriving after the request has left StateTransfer,
// are ignored.
func (r *Request) ReceiveResponseHeader(line string) {
	if r.state != StateTransfer {
		return
	}
	line = strings.TrimRight(line, "\r\n") + "\r\n"
	if sl, ok := message.ParseStatusLine(line); ok {
		r.response = &Response{
			Proto:      sl.Proto,
			ProtoMajor: sl.ProtoMajor,
			ProtoMinor: sl.ProtoMinor,
			StatusCode: sl.StatusCode,
			Reason:     sl.Reason,
			Header:     message.NewHeader(),
			Body:       r.responseSink(),
		}
		r.emit(HeaderReceived, Notice{
			Response: r.response,
			Name:     ":status",
			Value:    strconv.Itoa(sl.StatusCode),
		})
		return
	}
	if r.response == nil {
		return
	}
	name, value, ok := message.ParseHeaderLine(line)
	if !ok {
		return
	}
	r.response.Header.Add(name, value)
	r.emit(HeaderReceived, Notice{Response: r.response, Name: name, Value: value})
}

func (r *Request) responseSink() stream.Stream {
	if r.sink == nil {
		base := r.sinkConfig
		if base == nil {
			base = stream.NewBuffer()
		}
		r.sink = stream.Instrument(base, r.observeBody)
	}
	return r.sink
}

func (r *Request) observeBody(op stream.Op, n int64) {
	if op != stream.OpWrite {
		return
	}
	if r.response != nil {
		r.response.Info.BodySize += n
	}
	if r.Progress != nil {
		r.Progress(op, n)
	}
}

// SetResponse injects a response.
//
// If queued is false, resp becomes the request's response at once and
// the request moves to StateComplete, processing resp as if it had
// been received; nothing is transmitted. If queued is true, resp is
// held and adopted in place of a transmission at the next attempt.
//
// If a response sink has been configured with SetResponseBody, the
// body of resp is copied into it.
func (r *Request) SetResponse(resp *Response, queued bool) {
	if resp == nil {
		panic("httpwire/request: nil response")
	}
	if resp.Header == nil {
		resp.Header = message.NewHeader()
	}
	if queued {
		r.queued = resp
		r.emit(ResponseSet, Notice{Response: resp})
		return
	}
	if r.sinkConfig != nil && resp.Body != nil {
		if b, err := stream.Bytes(resp.Body); err == nil {
			sink := r.responseSink()
			if _, err = sink.Write(b); err == nil {
				resp.Body = sink
			}
		}
	}
	if r.state == StateTransfer && r.handle != nil {
		// The handle is mid-exchange with unread bytes on the wire.
		r.logger.Debug("response injected during transfer")
		r.release(true)
	}
	r.response = resp
	r.injected = true
	r.processed = false
	r.emit(ResponseSet, Notice{Response: resp})
	if r.response != resp {
		return
	}
	r.SetState(StateComplete)
}

func (r *Request) emit(evt Event, n Notice) {
	n.Request = r
	r.handlers.run(evt, &n)
}

// String returns a short description of the request for logging.
func (r *Request) String() string {
	return fmt.Sprintf("%s %s %s", r.Method, r.URL.Redacted(), r.Proto())
}
