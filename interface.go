// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpwire

import (
	"net/url"

	"github.com/gogama/httpwire/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do sends a request and returns the final response (and error, if
// any). Client implements the Doer interface, and any other Doer
// implementation must behave substantially the same as Client.Do.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Doer interface {
	Do(r *request.Request) (*request.Response, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Any Doer can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(url string) (*request.Response, error)
}

// Header is the interface that wraps the basic Head method.
//
// Any Doer can be used to emulate a Header via the Head function.
type Header interface {
	Head(url string) (*request.Response, error)
}

// Poster is the interface that wraps the basic Post method.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyStream.
//
// Any Doer can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(url, contentType string, body interface{}) (*request.Response, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
//
// Any Doer can be used to emulate a FormPoster via the PostForm
// function.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do, Get, Head, Post,
// PostForm, and CloseIdleConnections methods.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Get uses the specified Doer to issue a GET to the specified URL,
// using the same policies as d.Do.
func Get(d Doer, url string) (*request.Response, error) {
	return send(d, "GET", url, "", nil)
}

// Head uses the specified Doer to issue a HEAD to the specified URL,
// using the same policies as d.Do.
func Head(d Doer, url string) (*request.Response, error) {
	return send(d, "HEAD", url, "", nil)
}

// Post uses the specified Doer to issue a POST to the specified URL,
// using the same policies as d.Do.
//
// To make a request with custom headers, use request.New and d.Do.
func Post(d Doer, url, contentType string, body interface{}) (*request.Response, error) {
	return send(d, "POST", url, contentType, body)
}

// Put uses the specified Doer to issue a PUT to the specified URL,
// using the same policies as d.Do.
func Put(d Doer, url, contentType string, body interface{}) (*request.Response, error) {
	return send(d, "PUT", url, contentType, body)
}

// PostForm uses the specified Doer to issue a POST to the specified URL
// with data as the form.
//
// The body encoding policy picks the encoding: URL-encoded unless a
// value is a file upload tagged with request.FileMarker, in which case
// multipart/form-data.
func PostForm(d Doer, url string, data url.Values) (*request.Response, error) {
	return send(d, "POST", url, "", data)
}

func send(d Doer, method, url, contentType string, body interface{}) (*request.Response, error) {
	r, err := request.New(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return d.Do(r)
}

// Inflate converts any non-nil Doer into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Doer needs to call a function that requires an
// Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("httpwire: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(r *request.Request) (*request.Response, error) {
	return i.doer.Do(r)
}

func (i inflated) Get(url string) (*request.Response, error) {
	return Get(i.doer, url)
}

func (i inflated) Head(url string) (*request.Response, error) {
	return Head(i.doer, url)
}

func (i inflated) Post(url, contentType string, body interface{}) (*request.Response, error) {
	return Post(i.doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Response, error) {
	return PostForm(i.doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
