// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package stream

// An Op identifies the kind of I/O an Observer is told about.
type Op int

const (
	// OpRead identifies bytes read from a stream.
	OpRead Op = iota
	// OpWrite identifies bytes written to a stream.
	OpWrite
)

// String returns "read" or "write".
func (op Op) String() string {
	if op == OpWrite {
		return "write"
	}
	return "read"
}

// An Observer is told how many bytes moved through an instrumented
// stream. It is called synchronously from Read or Write and only when
// the byte count is positive.
type Observer func(op Op, n int64)

// InstrumentedStream notifies observers of bytes moved. See Instrument.
type InstrumentedStream struct {
	Decorator
	observers []Observer
}

// Instrument wraps inner so that every successful Read and Write is
// reported to the observers, in order. Data flow is unchanged.
func Instrument(inner Stream, observers ...Observer) *InstrumentedStream {
	return &InstrumentedStream{
		Decorator: Decorator{inner},
		observers: observers,
	}
}

func (s *InstrumentedStream) Read(p []byte) (int, error) {
	n, err := s.Stream.Read(p)
	s.notify(OpRead, n)
	return n, err
}

func (s *InstrumentedStream) Write(p []byte) (int, error) {
	n, err := s.Stream.Write(p)
	s.notify(OpWrite, n)
	return n, err
}

func (s *InstrumentedStream) notify(op Op, n int) {
	if n <= 0 {
		return
	}
	for _, o := range s.observers {
		o(op, int64(n))
	}
}
