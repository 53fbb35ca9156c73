// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bufio"
	"encoding/base64"
	"io"
	"strings"

	"github.com/gogama/httpwire/stream"
)

// RequestURI returns the request target written on the request line.
func (r *Request) RequestURI() string {
	if r.Method == "CONNECT" {
		return r.URL.Host
	}
	return r.URL.RequestURI()
}

// WriteHeader writes the request line, the Host header derived from
// URL, the remaining header fields in order, a Basic Authorization
// header if URL carries credentials and Header has none, and the blank
// line ending the header block.
func (r *Request) WriteHeader(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(r.Method)
	bw.WriteByte(' ')
	bw.WriteString(r.RequestURI())
	bw.WriteByte(' ')
	bw.WriteString(r.Proto())
	bw.WriteString("\r\n")
	if r.URL.Host != "" {
		bw.WriteString("Host: ")
		bw.WriteString(r.URL.Host)
		bw.WriteString("\r\n")
	}
	for _, f := range r.Header.Fields() {
		if strings.EqualFold(f.Name, "Host") {
			continue
		}
		bw.WriteString(f.Name)
		bw.WriteString(": ")
		bw.WriteString(f.Value)
		bw.WriteString("\r\n")
	}
	if u := r.URL.User; u != nil && !r.Header.Has("Authorization") {
		pass, _ := u.Password()
		bw.WriteString("Authorization: Basic ")
		bw.WriteString(basicAuth(u.Username(), pass))
		bw.WriteString("\r\n")
	}
	bw.WriteString("\r\n")
	return bw.Flush()
}

// WriteTo writes the request as a literal HTTP message: the header
// block followed by the raw body, unframed. Form data is written only
// once BodyPolicy has URL-encoded it into Body; multipart uploads are
// encoded by the handle and are not written.
func (r *Request) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := r.WriteHeader(cw); err != nil {
		return cw.n, err
	}
	if r.Body == nil || r.multipart {
		return cw.n, nil
	}
	b, err := stream.Bytes(r.Body)
	if err != nil {
		return cw.n, err
	}
	_, err = cw.Write(b)
	return cw.n, err
}

// WireString returns the request as a literal HTTP message. See
// WriteTo.
func (r *Request) WireString() string {
	var sb strings.Builder
	_, _ = r.WriteTo(&sb)
	return sb.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// basicAuth encodes credentials for a Basic Authorization header. The
// user name and password are joined with a colon and base64 encoded,
// not URL encoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}
