// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"syscall"
)

// A RequestConstructionError reports a problem with the request itself
// that was detected before anything was transmitted: an invalid method,
// URL or header, an unreadable upload file, or a body that cannot be
// framed for the negotiated protocol.
//
// Construction errors are raised directly by Send. They are not
// broadcast as Exception events.
type RequestConstructionError struct {
	Op   string
	Path string
	Err  error
}

func (e *RequestConstructionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("httpwire/request: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("httpwire/request: %s: %v", e.Op, e.Err)
}

func (e *RequestConstructionError) Unwrap() error {
	return e.Err
}

// A TransportError reports that the handle failed to complete the
// exchange. The request may or may not have reached the server.
type TransportError struct {
	// Code is the native error number, if the failure carried one,
	// and zero otherwise.
	Code int
	// Message is the text of the underlying error.
	Message string
	// Dump is the handle's trace of what was written before the
	// failure. It may be empty.
	Dump string
	// Err is the underlying error.
	Err error
}

func newTransportError(err error, dump string) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	code := 0
	var errno syscall.Errno
	if errors.As(err, &errno) {
		code = int(errno)
	}
	return &TransportError{
		Code:    code,
		Message: err.Error(),
		Dump:    dump,
		Err:     err,
	}
}

func (e *TransportError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("httpwire/request: transport error [%d]: %s", e.Code, e.Message)
	}
	return "httpwire/request: transport error: " + e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// A ProtocolInvariantError reports that a request reached StateComplete
// with neither a response nor a transport error. It indicates a bug in
// a HandleProvider, Handle or event handler.
type ProtocolInvariantError struct {
	Msg string
}

func (e *ProtocolInvariantError) Error() string {
	return "httpwire/request: protocol invariant violated: " + e.Msg
}

// A PolicyFailure reports that a complete response was received but
// rejected by the request's Classifier.
type PolicyFailure struct {
	StatusCode int
	Err        error
}

func (e *PolicyFailure) Error() string {
	return fmt.Sprintf("httpwire/request: response rejected (status %d): %v", e.StatusCode, e.Err)
}

func (e *PolicyFailure) Unwrap() error {
	return e.Err
}

func asPolicyFailure(err error, resp *Response) *PolicyFailure {
	var pf *PolicyFailure
	if errors.As(err, &pf) {
		return pf
	}
	return &PolicyFailure{StatusCode: resp.StatusCode, Err: err}
}
