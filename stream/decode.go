// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// DecodingStream inflates a content-coded inner stream. See Decode.
type DecodingStream struct {
	Decorator
	encodings []string
	r         io.Reader
	pos       int64
	eof       bool
}

// Decode wraps inner so that reads return the bytes of inner with the
// content codings named in contentEncoding removed.
//
// Parameter contentEncoding is a Content-Encoding header value, listing
// codings in the order they were applied, for example "gzip" or
// "deflate, br". The codings gzip, x-gzip, deflate (zlib-wrapped or
// raw) and br are supported; identity and the empty string are no-ops.
// If no decoding is needed inner is returned unchanged.
//
// The decoded stream is read-only and forward-only, and its size is
// unknown. Decoders are created lazily on the first Read, so Decode
// never reads from inner.
func Decode(inner Stream, contentEncoding string) (Stream, error) {
	var encodings []string
	for _, e := range strings.Split(contentEncoding, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		switch e {
		case "", "identity":
			continue
		case "gzip", "x-gzip", "deflate", "br":
			encodings = append(encodings, e)
		default:
			return nil, fmt.Errorf("httpwire/stream: unsupported content coding %q", e)
		}
	}
	if len(encodings) == 0 {
		return inner, nil
	}
	return &DecodingStream{
		Decorator: Decorator{inner},
		encodings: encodings,
	}, nil
}

func (d *DecodingStream) init() error {
	var r io.Reader = d.Stream
	for i := len(d.encodings) - 1; i >= 0; i-- {
		var err error
		switch d.encodings[i] {
		case "gzip", "x-gzip":
			r, err = gzip.NewReader(r)
		case "deflate":
			r, err = newDeflateReader(r)
		case "br":
			r = brotli.NewReader(r)
		}
		if err != nil {
			return fmt.Errorf("httpwire/stream: %s decoder: %w", d.encodings[i], err)
		}
	}
	d.r = r
	return nil
}

func (d *DecodingStream) Read(p []byte) (int, error) {
	if d.eof {
		return 0, io.EOF
	}
	if d.r == nil {
		if err := d.init(); err != nil {
			return 0, err
		}
	}
	n, err := d.r.Read(p)
	d.pos += int64(n)
	if err == io.EOF {
		d.eof = true
	}
	return n, err
}

func (d *DecodingStream) Write(_ []byte) (int, error) { return 0, ErrNotWritable }

func (d *DecodingStream) Seek(_ int64, _ int) (int64, error) { return d.pos, ErrNotSeekable }

func (d *DecodingStream) Size() int64    { return -1 }
func (d *DecodingStream) Tell() int64    { return d.pos }
func (d *DecodingStream) Consumed() bool { return d.eof }
func (d *DecodingStream) Writable() bool { return false }
func (d *DecodingStream) Seekable() bool { return false }

// newDeflateReader accepts both zlib-wrapped (RFC 1950) and raw
// (RFC 1951) deflate data, since servers send either under the name
// "deflate".
func newDeflateReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	hdr, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(hdr) == 2 && hdr[0]&0x0f == 8 && (uint16(hdr[0])<<8|uint16(hdr[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}
