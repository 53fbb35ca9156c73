// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"io"
	"os"
)

type readerStream struct {
	r        io.Reader
	size     int64
	pos      int64
	consumed bool
}

// FromReader returns a forward-only, read-only Stream over r.
//
// Parameter size is the number of bytes r will produce, or -1 if that
// is unknown. If r is an io.Closer, closing the stream closes r.
//
// Wrap the result with Caching to make it rewindable.
func FromReader(r io.Reader, size int64) Stream {
	if size < 0 {
		size = -1
	}
	return &readerStream{r: r, size: size}
}

func (s *readerStream) Read(p []byte) (int, error) {
	if s.consumed {
		return 0, io.EOF
	}
	n, err := s.r.Read(p)
	s.pos += int64(n)
	if err == io.EOF || (s.size >= 0 && s.pos >= s.size) {
		s.consumed = true
	}
	return n, err
}

func (s *readerStream) Write(_ []byte) (int, error) { return 0, ErrNotWritable }

func (s *readerStream) Seek(_ int64, _ int) (int64, error) { return s.pos, ErrNotSeekable }

func (s *readerStream) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *readerStream) Size() int64    { return s.size }
func (s *readerStream) Tell() int64    { return s.pos }
func (s *readerStream) Consumed() bool { return s.consumed }
func (s *readerStream) Readable() bool { return true }
func (s *readerStream) Writable() bool { return false }
func (s *readerStream) Seekable() bool { return false }

func (s *readerStream) Metadata(key string) interface{} {
	if key == MetaType {
		return "reader"
	}
	return nil
}

// A File is a Stream backed by an operating system file.
type File struct {
	f        *os.File
	writable bool
	pos      int64
}

// Open opens the named file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

// FromFile returns a Stream over an already open file, positioned at
// the file's current offset. The stream is writable if writable is
// true.
func FromFile(f *os.File, writable bool) *File {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		pos = 0
	}
	return &File{f: f, writable: writable, pos: pos}
}

// Create creates or truncates the named file for reading and writing.
func Create(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f, writable: true}, nil
}

func (f *File) Read(p []byte) (int, error) {
	n, err := f.f.Read(p)
	f.pos += int64(n)
	return n, err
}

func (f *File) Write(p []byte) (int, error) {
	if !f.writable {
		return 0, ErrNotWritable
	}
	n, err := f.f.Write(p)
	f.pos += int64(n)
	return n, err
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	abs, err := f.f.Seek(offset, whence)
	if err != nil {
		return f.pos, err
	}
	f.pos = abs
	return abs, nil
}

func (f *File) Close() error { return f.f.Close() }

func (f *File) Size() int64 {
	fi, err := f.f.Stat()
	if err != nil {
		return -1
	}
	return fi.Size()
}

func (f *File) Tell() int64 { return f.pos }

func (f *File) Consumed() bool {
	size := f.Size()
	return size >= 0 && f.pos >= size
}

func (f *File) Readable() bool { return true }
func (f *File) Writable() bool { return f.writable }
func (f *File) Seekable() bool { return true }

func (f *File) Metadata(key string) interface{} {
	switch key {
	case MetaType:
		return "file"
	case MetaURI:
		return f.f.Name()
	}
	return nil
}
