// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"fmt"
	"io"
)

// LimitStream exposes a fixed window of an inner stream. See Limit.
type LimitStream struct {
	Decorator
	offset int64
	limit  int64
}

// Limit returns a stream exposing only the bytes of inner in the
// window [offset, offset+limit).
//
// Limit positions inner at offset, seeking if inner is seekable and
// otherwise discarding bytes until offset is reached. The returned
// stream is a fixed slice, not a repositionable view, so it is never
// seekable.
func Limit(inner Stream, offset, limit int64) (*LimitStream, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("httpwire/stream: invalid window [%d, %d+%d)", offset, offset, limit)
	}
	if pos := inner.Tell(); pos != offset {
		switch {
		case inner.Seekable():
			if _, err := inner.Seek(offset, io.SeekStart); err != nil {
				return nil, err
			}
		case pos < offset:
			if _, err := io.CopyN(io.Discard, inner, offset-pos); err != nil {
				return nil, err
			}
		default:
			return nil, ErrSeekRange
		}
	}
	return &LimitStream{
		Decorator: Decorator{inner},
		offset:    offset,
		limit:     limit,
	}, nil
}

func (l *LimitStream) Read(p []byte) (int, error) {
	remaining := l.offset + l.limit - l.Stream.Tell()
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	return l.Stream.Read(p)
}

// Seek always fails with ErrNotSeekable.
func (l *LimitStream) Seek(_ int64, _ int) (int64, error) {
	return l.Tell(), ErrNotSeekable
}

func (l *LimitStream) Seekable() bool { return false }

// Tell returns the position relative to the start of the window.
func (l *LimitStream) Tell() int64 {
	return l.Stream.Tell() - l.offset
}

// Size returns the window size, clipped to the inner stream size when
// that is known.
func (l *LimitStream) Size() int64 {
	size := l.Stream.Size()
	if size < 0 {
		return l.limit
	}
	end := l.offset + l.limit
	if size < end {
		end = size
	}
	if end < l.offset {
		return 0
	}
	return end - l.offset
}

func (l *LimitStream) Consumed() bool {
	return l.Stream.Tell() >= l.offset+l.limit || l.Stream.Consumed()
}
