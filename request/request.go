// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gogama/httpwire/message"
	"github.com/gogama/httpwire/stream"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
)

const badBodyTypeMsg = "invalid type (for body use nil, string, []byte, " +
	"url.Values, io.Reader or stream.Stream)"

// A Request is one HTTP request and the transaction that sends it.
//
// A Request moves through three states. It is created in StateNew.
// Send moves it to StateTransfer while an attempt is underway and to
// StateComplete when the attempt has produced a response or an error.
// Any party holding the request may move it back to StateNew with
// SetState, which discards the response and makes the next Send
// transmit afresh; Send itself loops for as long as a handler or filter
// does this, so a retry is just a reset.
//
// The exported fields describe what will be sent. Event handlers and
// filters may modify them between attempts. After a response has been
// received, Method, URL, protocol version and Header are rewritten to
// match what the handle actually sent.
//
// A Request is not safe for concurrent use.
type Request struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	Method string

	// URL specifies the URL to access. It is the single source of
	// truth for scheme, host, port and credentials: the Host header is
	// always derived from URL.Host when the request is written, and a
	// Host field in Header is ignored.
	URL *url.URL

	// Header contains the request header fields, in order and with
	// their original spelling.
	Header *message.Header

	// Body is the raw request body. It is nil for requests without a
	// body. When Form is non-empty, Body is replaced on each attempt.
	Body stream.Stream

	// Form holds structured form fields. A value starting with
	// FileMarker names a file to upload, which makes the request a
	// multipart upload.
	Form url.Values

	// ProtoMajor and ProtoMinor give the HTTP protocol version. New
	// sets them to 1.1.
	ProtoMajor int
	ProtoMinor int

	// Timeout, if positive, bounds each individual attempt.
	Timeout time.Duration

	// Progress, if set, is told about every chunk of response body
	// written into the response sink.
	Progress stream.Observer

	// ID uniquely identifies the request in logs.
	ID string

	// Attempt is the zero-based number of the current or most recent
	// attempt.
	Attempt int

	// AttemptTimeouts counts attempts that ended in a timeout.
	AttemptTimeouts int

	// Err is the error of the most recent attempt, if any. Exception
	// handlers may clear it to swallow the error.
	Err error

	ctx        context.Context
	state      State
	provider   HandleProvider
	classifier Classifier
	handlers   *HandlerGroup
	prepare    Chain
	process    Chain
	logger     *zap.Logger
	base       *zap.Logger

	handle      Handle
	response    *Response
	queued      *Response
	injected    bool
	processed   bool
	transferErr error
	sinkConfig  stream.Stream
	sink        stream.Stream
	multipart   bool
	started     bool
	timedOut    bool
	start       time.Time
	attemptAt   time.Time
	end         time.Time

	data context.Context
}

// An Option configures a Request.
type Option func(r *Request)

// WithContext sets the context which bounds every attempt and any wait
// between attempts.
func WithContext(ctx context.Context) Option {
	return func(r *Request) {
		if ctx == nil {
			panic("httpwire/request: nil context")
		}
		r.ctx = ctx
	}
}

// WithProvider sets the provider that lends handles to the request.
func WithProvider(p HandleProvider) Option {
	return func(r *Request) {
		r.provider = p
	}
}

// WithClassifier sets the classifier that decides whether responses are
// acceptable.
func WithClassifier(c Classifier) Option {
	return func(r *Request) {
		r.classifier = c
	}
}

// WithHandlers sets the event handlers that observe the request.
func WithHandlers(g *HandlerGroup) Option {
	return func(r *Request) {
		if g == nil {
			g = &HandlerGroup{}
		}
		r.handlers = g
	}
}

// WithLogger sets the logger. The request logs under the name "request"
// with its ID attached.
func WithLogger(l *zap.Logger) Option {
	return func(r *Request) {
		if l == nil {
			l = zap.NewNop()
		}
		r.base = l
		r.logger = l.Named("request").With(zap.String("id", r.ID))
	}
}

// WithIDHeader sends the request ID in the named header, for example
// "X-Request-Id", so servers can correlate retried attempts.
func WithIDHeader(name string) Option {
	return func(r *Request) {
		r.Header.Set(name, r.ID)
	}
}

// WithProto sets the protocol version.
func WithProto(major, minor int) Option {
	return func(r *Request) {
		r.ProtoMajor, r.ProtoMinor = major, minor
	}
}

// New returns a new HTTP/1.1 Request given a method, absolute URL, and
// optional body.
//
// Parameter body may be nil (no body), a string, a []byte, a
// url.Values (which sets Form rather than Body), an io.Reader, or a
// stream.Stream. See BodyStream for how readers are converted.
func New(method, rawURL string, body interface{}, opts ...Option) (*Request, error) {
	if method == "" {
		method = "GET"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &RequestConstructionError{Op: "parse url", Err: err}
	}
	r, err := newRequest(method, u)
	if err != nil {
		return nil, err
	}
	if form, ok := body.(url.Values); ok {
		r.Form = form
	} else if r.Body, err = BodyStream(body); err != nil {
		return nil, &RequestConstructionError{Op: "new", Err: err}
	}
	r.Apply(opts...)
	return r, nil
}

func newRequest(method string, u *url.URL) (*Request, error) {
	if !httpguts.ValidHostHeader(u.Host) || u.Host == "" {
		return nil, &RequestConstructionError{Op: "new", Err: fmt.Errorf("invalid host %q", u.Host)}
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	u.Host = strings.TrimSuffix(u.Host, ":")
	r := &Request{
		Method:     strings.ToUpper(method),
		URL:        u,
		Header:     message.NewHeader(),
		ProtoMajor: 1,
		ProtoMinor: 1,
		ID:         uuid.NewString(),
		handlers:   &HandlerGroup{},
	}
	WithLogger(nil)(r)
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse returns a new Request from a literal HTTP request message. The
// URL is built from the request target and Host header, and
// credentials in a Basic Authorization header become URL user info.
func Parse(text string, opts ...Option) (*Request, error) {
	m, err := message.Parse(text)
	if err != nil {
		return nil, &RequestConstructionError{Op: "parse", Err: err}
	}
	if m.Method == "" {
		return nil, &RequestConstructionError{Op: "parse", Err: errors.New("missing request line")}
	}
	r, err := newRequest(m.Method, m.URL())
	if err != nil {
		return nil, err
	}
	r.ProtoMajor, r.ProtoMinor = m.ProtoMajor, m.ProtoMinor
	r.Header = m.Header.Clone()
	r.Header.Del("Host")
	if m.Body != "" {
		r.Body = stream.FromString(m.Body)
	}
	r.Apply(opts...)
	return r, nil
}

// Apply applies options to r.
func (r *Request) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(r)
	}
}

func (r *Request) validate() error {
	if !httpguts.ValidHeaderFieldName(r.Method) {
		return &RequestConstructionError{Op: "validate", Err: fmt.Errorf("invalid method %q", r.Method)}
	}
	for _, f := range r.Header.Fields() {
		if !httpguts.ValidHeaderFieldName(f.Name) {
			return &RequestConstructionError{Op: "validate", Err: fmt.Errorf("invalid header name %q", f.Name)}
		}
		if !httpguts.ValidHeaderFieldValue(f.Value) {
			return &RequestConstructionError{Op: "validate", Err: fmt.Errorf("invalid value for header %q", f.Name)}
		}
	}
	return nil
}

// BodyStream converts a generic body parameter to a request body
// stream.
//
// The body parameter may be nil, or it may be a string, []byte,
// *os.File, io.Reader, or stream.Stream. The conversion logic is:
//
// • If body is nil, a nil stream and no error is returned.
//
// • If body is a string or []byte, a seekable in-memory stream over it
// is returned.
//
// • If body is a stream.Stream, it is returned as is.
//
// • If body is an *os.File, a seekable file stream is returned.
//
// • If body is an io.Reader, a forward-only stream is returned. Its
// size is known if the reader has a Len method (as *bytes.Reader,
// *strings.Reader and *bytes.Buffer do) and unknown otherwise.
//
// • If body is any other type, a nil stream and an error is returned.
func BodyStream(body interface{}) (stream.Stream, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return stream.FromString(x), nil
	case []byte:
		return stream.FromBytes(x), nil
	case stream.Stream:
		return x, nil
	case *os.File:
		return stream.FromFile(x, false), nil
	case interface {
		io.Reader
		Len() int
	}:
		return stream.FromReader(x, int64(x.Len())), nil
	case io.Reader:
		return stream.FromReader(x, -1), nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// Context returns the request's context. It is never nil; it defaults
// to the background context.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// State returns the current state.
func (r *Request) State() State {
	return r.state
}

// Response returns the response of the current or most recent attempt.
// It is nil before a status line has been received.
func (r *Request) Response() *Response {
	return r.response
}

// StatusCode returns the status code of Response, or 0 if there is no
// response.
func (r *Request) StatusCode() int {
	if r.response == nil {
		return 0
	}
	return r.response.StatusCode
}

// Processed reports whether the current response has been fully
// processed.
func (r *Request) Processed() bool {
	return r.processed
}

// Multipart reports whether the body policy decided to send Form as a
// multipart upload on the current attempt.
func (r *Request) Multipart() bool {
	return r.multipart
}

// Provider returns the handle provider, which may be nil.
func (r *Request) Provider() HandleProvider {
	return r.provider
}

// Classifier returns the classifier, which may be nil.
func (r *Request) Classifier() Classifier {
	return r.classifier
}

// Handlers returns the event handlers. It is never nil.
func (r *Request) Handlers() *HandlerGroup {
	return r.handlers
}

// Logger returns the request's logger.
func (r *Request) Logger() *zap.Logger {
	return r.logger
}

// PrepareChain returns the pre-send filter chain.
func (r *Request) PrepareChain() *Chain {
	return &r.prepare
}

// ProcessChain returns the post-receive filter chain.
func (r *Request) ProcessChain() *Chain {
	return &r.process
}

// Proto returns the protocol version as written on the request line,
// for example "HTTP/1.1".
func (r *Request) Proto() string {
	return fmt.Sprintf("HTTP/%d.%d", r.ProtoMajor, r.ProtoMinor)
}

// ProtoAtLeast reports whether the protocol version is at least
// major.minor.
func (r *Request) ProtoAtLeast(major, minor int) bool {
	return r.ProtoMajor > major ||
		r.ProtoMajor == major && r.ProtoMinor >= minor
}

// Started reports whether Send has begun the first attempt.
func (r *Request) Started() bool {
	return r.started
}

// Duration returns the time since the first attempt started, or, once
// the request is complete, the time the whole transaction took.
func (r *Request) Duration() time.Duration {
	if !r.started {
		return 0
	}
	if r.state == StateComplete && !r.end.IsZero() {
		return r.end.Sub(r.start)
	}
	return time.Since(r.start)
}

// TimedOut reports whether the most recent finished attempt ended in a
// timeout. During BeforeSend it describes the previous attempt.
func (r *Request) TimedOut() bool {
	return r.timedOut
}

// SetResponseBody sets the stream the response body is written into.
// The default is an in-memory buffer. The setting applies until the
// request is reset.
func (r *Request) SetResponseBody(s stream.Stream) error {
	if s != nil && !s.Writable() {
		return &RequestConstructionError{Op: "set response body", Err: stream.ErrNotWritable}
	}
	r.sinkConfig = s
	return nil
}

// AddCookie appends a cookie to the single Cookie header.
func (r *Request) AddCookie(name, value string) {
	s := name + "=" + value
	if c := r.Header.Get("Cookie"); c != "" {
		r.Header.Set("Cookie", c+"; "+s)
	} else {
		r.Header.Set("Cookie", s)
	}
}

// SetBasicAuth stores credentials in the URL. They are sent as a Basic
// Authorization header unless Header already has one.
func (r *Request) SetBasicAuth(username, password string) {
	r.URL.User = url.UserPassword(username, password)
}

// Clone returns an independent copy of r in StateNew, with a fresh ID.
// Header, Form, URL, the filter chains and the handler group are deep
// copied. Body, the handle provider, classifier and logger are shared;
// handlers in the group are shared by reference.
func (r *Request) Clone() *Request {
	c := &Request{
		Method:     r.Method,
		Header:     r.Header.Clone(),
		Body:       r.Body,
		ProtoMajor: r.ProtoMajor,
		ProtoMinor: r.ProtoMinor,
		Timeout:    r.Timeout,
		Progress:   r.Progress,
		ID:         uuid.NewString(),
		ctx:        r.ctx,
		provider:   r.provider,
		classifier: r.classifier,
		handlers:   r.handlers.Clone(),
		prepare:    r.prepare.clone(),
		process:    r.process.clone(),
		sinkConfig: r.sinkConfig,
		data:       r.data,
	}
	u := *r.URL
	c.URL = &u
	WithLogger(r.base)(c)
	if r.Form != nil {
		c.Form = make(url.Values, len(r.Form))
		for k, v := range r.Form {
			c.Form[k] = append([]string(nil), v...)
		}
	}
	return c
}

// SetValue allows event handlers and filters to store arbitrary data
// in the request.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same request.
func (r *Request) SetValue(key, value interface{}) {
	ctx := r.data
	if ctx == nil {
		ctx = context.Background()
	}

	r.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this request for key,
// or nil if there is no value associated with key.
func (r *Request) Value(key interface{}) interface{} {
	ctx := r.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
