// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stream

// A Decorator wraps exactly one inner Stream and forwards every method
// to it. Embed Decorator in a concrete decorator type and override only
// the methods whose behaviour changes.
type Decorator struct {
	Stream
}

// Unwrap returns the inner stream.
func (d Decorator) Unwrap() Stream {
	return d.Stream
}

type unwrapper interface {
	Unwrap() Stream
}

// Unwrap returns the stream wrapped by s, or nil if s is not a
// decorator.
func Unwrap(s Stream) Stream {
	if u, ok := s.(unwrapper); ok {
		return u.Unwrap()
	}
	return nil
}

// As walks the decorator chain starting at s and returns the first
// stream assignable to T. It is the way to reach capabilities that the
// Stream interface does not name, such as an underlying *File.
func As[T any](s Stream) (T, bool) {
	for s != nil {
		if t, ok := s.(T); ok {
			return t, true
		}
		s = Unwrap(s)
	}
	var zero T
	return zero, false
}
