// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"errors"
	"io"
)

var (
	// ErrNotReadable is returned by Read on a stream that cannot be
	// read.
	ErrNotReadable = errors.New("httpwire/stream: stream is not readable")
	// ErrNotWritable is returned by Write on a stream that cannot be
	// written.
	ErrNotWritable = errors.New("httpwire/stream: stream is not writable")
	// ErrNotSeekable is returned by Seek on a stream that cannot be
	// repositioned.
	ErrNotSeekable = errors.New("httpwire/stream: stream is not seekable")
	// ErrSeekRange is returned by Seek when the target offset is outside
	// the range the stream can reach.
	ErrSeekRange = errors.New("httpwire/stream: seek offset out of range")
)

// Metadata keys understood by the streams in this package.
const (
	MetaType = "stream_type"
	MetaURI  = "uri"
)

// A Stream is a body of bytes with discoverable capabilities.
//
// Operations a stream does not support fail with ErrNotReadable,
// ErrNotWritable or ErrNotSeekable. Size returns -1 when the size of
// the stream cannot be known in advance, which is what drives chunked
// transfer encoding of request bodies.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// Size returns the total size of the stream in bytes, or -1 if it
	// is unknown.
	Size() int64
	// Tell returns the current position of the stream.
	Tell() int64
	// Consumed reports whether the stream position has reached the
	// end of the stream.
	Consumed() bool
	Readable() bool
	Writable() bool
	Seekable() bool
	// Metadata returns a metadata value for key, or nil if the stream
	// has no such value.
	Metadata(key string) interface{}
}

// Rewind seeks s back to the start. It returns ErrNotSeekable if s is
// not seekable.
func Rewind(s Stream) error {
	if !s.Seekable() {
		return ErrNotSeekable
	}
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Bytes returns the whole content of s.
//
// If s is seekable, Bytes reads from the start and restores the
// original position afterward. Otherwise it reads the remainder of s
// from the current position.
func Bytes(s Stream) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	if !s.Seekable() {
		return io.ReadAll(s)
	}
	pos := s.Tell()
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(s)
	if _, serr := s.Seek(pos, io.SeekStart); err == nil {
		err = serr
	}
	return b, err
}

// String is like Bytes but returns a string.
func String(s Stream) (string, error) {
	b, err := Bytes(s)
	return string(b), err
}
