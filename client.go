// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpwire

import (
	"net/url"

	"github.com/gogama/httpwire/request"
	"github.com/gogama/httpwire/retry"
	"github.com/gogama/httpwire/timeout"
	"github.com/gogama/httpwire/transport"
	"go.uber.org/zap"
)

// DefaultProvider is the handle provider used by a Client whose
// Provider is nil.
var DefaultProvider request.HandleProvider = &transport.Pool{}

// A Client sends requests with retry and timeout support. Its zero
// value is a valid configuration.
//
// The zero value client uses DefaultProvider to obtain connections,
// timeout.DefaultPolicy as the timeout policy, retry.DefaultPolicy as
// the retry policy, accepts every response, and has no event handlers.
//
// A Client does not drive requests itself. Do configures a request
// with the client's settings, installs the retry and timeout plugins,
// and calls request.Request.Send. Every setting the request already
// has takes precedence over the client's.
//
// Client is safe for concurrent use by multiple goroutines, provided
// each goroutine sends its own requests.
type Client struct {
	// Provider supplies the handles requests are transferred over.
	//
	// If Provider is nil, DefaultProvider is used.
	Provider request.HandleProvider
	// Classifier decides which responses are failures.
	//
	// If Classifier is nil, every response is accepted.
	Classifier request.Classifier
	// RetryPolicy decides when to retry failed attempts and how long
	// to sleep after a failed attempt before retrying.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual request
	// attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers are appended to the handlers of every request the
	// client sends.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *request.HandlerGroup
	// Logger, if set, replaces the logger of every request the client
	// sends.
	Logger *zap.Logger
}

type installedKey struct{}

// Do sends r and returns its response, following the timeout and retry
// policy set on the Client.
//
// The response and error are those of the final attempt, as determined
// by the retry policy. An error is a *request.RequestConstructionError,
// *request.TransportError, *request.ProtocolInvariantError or
// *request.PolicyFailure. A status code outside the 2XX range is only
// an error if the Classifier says so.
//
// Do never modifies a handler group passed to the request with
// request.WithHandlers: the request gets its own copy, extended with the
// plugin handlers and the client's Handlers.
//
// Calling Do again with the same request returns the same outcome
// without sending anything, unless the request was reset.
func (c *Client) Do(r *request.Request) (*request.Response, error) {
	c.install(r)
	return r.Send()
}

func (c *Client) install(r *request.Request) {
	if r.Value(installedKey{}) == c {
		return
	}
	r.SetValue(installedKey{}, c)

	if r.Provider() == nil {
		r.Apply(request.WithProvider(c.provider()))
	}
	if r.Classifier() == nil && c.Classifier != nil {
		r.Apply(request.WithClassifier(c.Classifier))
	}
	if c.Logger != nil {
		r.Apply(request.WithLogger(c.Logger))
	}
	// The request's group may be shared with other requests.
	r.Apply(request.WithHandlers(r.Handlers().Clone()))
	timeout.NewPlugin(c.TimeoutPolicy).Install(r)
	retry.NewPlugin(c.RetryPolicy).Install(r)
	r.Handlers().Append(c.Handlers)
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a request with custom headers, use request.New and
// Client.Do.
func (c *Client) Get(url string) (*request.Response, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
func (c *Client) Head(url string) (*request.Response, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyStream.
func (c *Client) Post(url, contentType string, body interface{}) (*request.Response, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values as the form. Values tagged with request.FileMarker are sent
// as file uploads.
func (c *Client) PostForm(url string, data url.Values) (*request.Response, error) {
	return PostForm(c, url, data)
}

// Put issues a PUT to the specified URL, using the same policies
// followed by Do.
func (c *Client) Put(url, contentType string, body interface{}) (*request.Response, error) {
	return Put(c, url, contentType, body)
}

// CloseIdleConnections invokes the same method on the client's
// provider. If the provider has no CloseIdleConnections method, this
// method does nothing.
func (c *Client) CloseIdleConnections() {
	if ic, ok := c.provider().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) provider() request.HandleProvider {
	if c.Provider == nil {
		return DefaultProvider
	}
	return c.Provider
}
