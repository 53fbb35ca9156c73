// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"io"
)

// A Buffer is an in-memory Stream. It is readable, writable and
// seekable, and its size is always known. Writes overwrite the bytes
// at the current position and extend the buffer as needed, in the
// manner of a file.
//
// The zero value is an empty buffer ready to use.
type Buffer struct {
	buf []byte
	pos int64
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// FromBytes returns a Buffer positioned at the start of b. The buffer
// takes ownership of b.
func FromBytes(b []byte) *Buffer {
	return &Buffer{buf: b}
}

// FromString returns a Buffer positioned at the start of s.
func FromString(s string) *Buffer {
	return &Buffer{buf: []byte(s)}
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.buf)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.buf)) {
		if end > int64(cap(b.buf)) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.buf)
			b.buf = grown
		} else {
			b.buf = b.buf[:end]
		}
	}
	copy(b.buf[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return b.pos, ErrSeekRange
	}
	if abs < 0 {
		return b.pos, ErrSeekRange
	}
	b.pos = abs
	return abs, nil
}

// Close releases the buffer contents.
func (b *Buffer) Close() error {
	b.buf = nil
	b.pos = 0
	return nil
}

func (b *Buffer) Size() int64    { return int64(len(b.buf)) }
func (b *Buffer) Tell() int64    { return b.pos }
func (b *Buffer) Consumed() bool { return b.pos >= int64(len(b.buf)) }
func (b *Buffer) Readable() bool { return true }
func (b *Buffer) Writable() bool { return true }
func (b *Buffer) Seekable() bool { return true }

func (b *Buffer) Metadata(key string) interface{} {
	if key == MetaType {
		return "memory"
	}
	return nil
}

// Truncate discards all buffered bytes and resets the position.
func (b *Buffer) Truncate() {
	b.buf = b.buf[:0]
	b.pos = 0
}

// String returns the whole buffered content regardless of position.
func (b *Buffer) String() string {
	return string(b.buf)
}
