// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "fmt"

// A Classifier decides whether a complete response is acceptable.
//
// A non-nil error rejects the response. Unless it already is one, the
// error is wrapped in a *PolicyFailure before being broadcast and
// returned.
type Classifier interface {
	Classify(r *Request, resp *Response) error
}

// The ClassifierFunc type is an adapter to allow the use of ordinary
// functions as classifiers.
type ClassifierFunc func(r *Request, resp *Response) error

// Classify calls f(r, resp).
func (f ClassifierFunc) Classify(r *Request, resp *Response) error {
	return f(r, resp)
}

type permissive struct{}

func (permissive) Classify(_ *Request, _ *Response) error {
	return nil
}

// Permissive returns a Classifier that accepts every response. It is
// used when a request has no classifier.
func Permissive() Classifier {
	return permissive{}
}

type statusClassifier int

func (threshold statusClassifier) Classify(_ *Request, resp *Response) error {
	if resp.StatusCode >= int(threshold) {
		return &PolicyFailure{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d %s", resp.StatusCode, resp.Reason),
		}
	}
	return nil
}

// StatusClassifier returns a Classifier that rejects every response
// whose status code is threshold or greater. StatusClassifier(400) rejects
// client and server errors.
func StatusClassifier(threshold int) Classifier {
	return statusClassifier(threshold)
}
