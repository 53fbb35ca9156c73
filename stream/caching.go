// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"io"
)

// CachingStream backs a forward-only remote stream with a local
// seekable buffer. See Caching.
type CachingStream struct {
	Decorator
	local     *Buffer
	skip      int64
	remoteEOF bool
}

// Caching wraps remote so that every byte read from it is also kept in
// a local buffer.
//
// Reads are satisfied from the local buffer first, and only the
// remainder of the requested length is pulled from remote. The stream
// can therefore be rewound and re-read without touching remote again,
// provided the caller never seeks past the bytes it has already read:
// seeking beyond the buffered high-water mark fails with ErrSeekRange,
// as does seeking relative to the end.
//
// Writes go to the local buffer. Bytes written past the high-water
// mark replace the corresponding remote bytes, which are skipped when
// they are eventually pulled.
func Caching(remote Stream) *CachingStream {
	return &CachingStream{
		Decorator: Decorator{remote},
		local:     NewBuffer(),
	}
}

func (c *CachingStream) Read(p []byte) (int, error) {
	var n int
	if c.local.Tell() < c.local.Size() {
		n, _ = c.local.Read(p)
	}
	if n == len(p) || c.remoteEOF {
		if n == 0 && len(p) > 0 {
			return 0, io.EOF
		}
		return n, nil
	}

	m, err := c.pullRemote(p[n:])
	n += m
	if err == io.EOF {
		c.remoteEOF = true
		if n > 0 {
			err = nil
		}
	}
	return n, err
}

func (c *CachingStream) pullRemote(p []byte) (int, error) {
	for c.skip > 0 {
		scratch := p
		if int64(len(scratch)) > c.skip {
			scratch = scratch[:c.skip]
		}
		k, err := c.Stream.Read(scratch)
		c.skip -= int64(k)
		if err != nil {
			return 0, err
		}
	}
	m, err := c.Stream.Read(p)
	if m > 0 {
		if _, werr := c.local.Write(p[:m]); werr != nil {
			return 0, werr
		}
	}
	return m, err
}

func (c *CachingStream) Write(p []byte) (int, error) {
	before := c.local.Size()
	n, err := c.local.Write(p)
	if grown := c.local.Size() - before; grown > 0 && !c.remoteEOF {
		c.skip += grown
	}
	return n, err
}

// Seek repositions the stream within the bytes already buffered.
// Whence io.SeekEnd is not supported.
func (c *CachingStream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = c.local.Tell() + offset
	default:
		return c.local.Tell(), ErrSeekRange
	}
	if abs < 0 || abs > c.local.Size() {
		return c.local.Tell(), ErrSeekRange
	}
	return c.local.Seek(abs, io.SeekStart)
}

// Close closes the remote stream and releases the local buffer.
func (c *CachingStream) Close() error {
	_ = c.local.Close()
	return c.Stream.Close()
}

// Size returns the remote size if known. Otherwise, once the remote
// stream is exhausted, it returns the buffered size.
func (c *CachingStream) Size() int64 {
	if s := c.Stream.Size(); s >= 0 {
		return s
	}
	if c.remoteEOF {
		return c.local.Size()
	}
	return -1
}

func (c *CachingStream) Tell() int64 { return c.local.Tell() }

func (c *CachingStream) Consumed() bool {
	return c.local.Consumed() && (c.remoteEOF || c.Stream.Consumed())
}

func (c *CachingStream) Readable() bool { return true }
func (c *CachingStream) Writable() bool { return true }
func (c *CachingStream) Seekable() bool { return true }

// Buffered returns the high-water mark: the number of bytes held in
// the local buffer.
func (c *CachingStream) Buffered() int64 {
	return c.local.Size()
}
