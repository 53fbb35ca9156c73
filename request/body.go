// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gogama/httpwire/stream"
)

// FileMarker prefixes a Form value that names a file to upload.
const FileMarker = "@"

var errUnboundedBody = errors.New("body of unknown size requires chunked transfer, which HTTP/1.0 does not support")

type bodyPolicy struct{}

// BodyPolicy is the pre-send filter that decides how the body is
// framed. Send adds it to the pre-send chain of every request that has
// a Body or Form, so it runs on every attempt.
//
// When Form is non-empty, BodyPolicy checks every file field is
// readable. If there is at least one, the request is a multipart upload
// and the form is left for the handle to encode. Otherwise Body is
// replaced with the URL-encoded form and Content-Type is set to
// application/x-www-form-urlencoded.
//
// When only Body is set and the header has neither Content-Length nor
// Transfer-Encoding, BodyPolicy sets Content-Length if the body size
// is known, or Transfer-Encoding: chunked on HTTP/1.1. A body of
// unknown size on HTTP/1.0 fails the request before anything is sent.
//
// Either way, an HTTP/1.1 request with a body gets an
// Expect: 100-Continue header unless one is already present.
var BodyPolicy Filter = &bodyPolicy{}

func (*bodyPolicy) Filter(r *Request) error {
	switch {
	case len(r.Form) > 0:
		multipart, err := checkFiles(r.Form)
		if err != nil {
			return err
		}
		r.multipart = multipart
		if multipart {
			r.Header.Del("Content-Length")
			r.Header.Del("Transfer-Encoding")
		} else {
			r.Body = stream.FromString(r.Form.Encode())
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.Header.Del("Transfer-Encoding")
			r.Header.Set("Content-Length", strconv.Itoa(int(r.Body.Size())))
		}
	case r.Body != nil:
		r.multipart = false
		if !r.Header.Has("Content-Length") && !r.Header.Has("Transfer-Encoding") {
			if size := r.Body.Size(); size >= 0 {
				r.Header.Set("Content-Length", strconv.FormatInt(size, 10))
			} else if r.ProtoAtLeast(1, 1) {
				r.Header.Set("Transfer-Encoding", "chunked")
			} else {
				return &RequestConstructionError{Op: "frame body", Err: errUnboundedBody}
			}
		}
	default:
		return nil
	}
	if r.ProtoAtLeast(1, 1) && !r.Header.Has("Expect") {
		r.Header.Set("Expect", "100-Continue")
	}
	return nil
}

func checkFiles(form url.Values) (bool, error) {
	multipart := false
	for _, values := range form {
		for _, v := range values {
			if !strings.HasPrefix(v, FileMarker) {
				continue
			}
			if err := readable(strings.TrimPrefix(v, FileMarker)); err != nil {
				return false, err
			}
			multipart = true
		}
	}
	return multipart, nil
}

func readable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &RequestConstructionError{Op: "open form file", Path: path, Err: err}
	}
	return f.Close()
}

// AddFormField appends a plain form field.
func (r *Request) AddFormField(name, value string) {
	if r.Form == nil {
		r.Form = make(url.Values)
	}
	r.Form.Add(name, value)
}

// AddFormFile appends a file upload field. The path may be given with
// or without a leading FileMarker. AddFormFile fails at once, naming
// the path, if the file cannot be opened for reading.
func (r *Request) AddFormFile(name, path string) error {
	path = strings.TrimPrefix(path, FileMarker)
	if err := readable(path); err != nil {
		return err
	}
	r.AddFormField(name, FileMarker+path)
	return nil
}

// FormFiles returns the file upload fields of Form as a map from field
// name to file paths, without the FileMarker.
func (r *Request) FormFiles() map[string][]string {
	files := make(map[string][]string)
	for name, values := range r.Form {
		for _, v := range values {
			if strings.HasPrefix(v, FileMarker) {
				files[name] = append(files[name], strings.TrimPrefix(v, FileMarker))
			}
		}
	}
	return files
}
