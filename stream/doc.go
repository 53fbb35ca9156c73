// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package stream defines Stream, the uniform body type used for request
and response bodies, together with a small set of composable decorators.

A Stream is an io.ReadWriteSeeker plus io.Closer that also reports its
capabilities (Readable, Writable, Seekable), its size when knowable,
its position, and whether it has been fully consumed. Base streams
are created with NewBuffer, FromBytes, FromString, FromReader, Open,
and Create.

A decorator wraps exactly one inner stream. Decorators embed Decorator,
which forwards every method to the inner stream, and override only the
behaviour they change. Capabilities a decorator does not know about
stay reachable through Unwrap and As:

	body := stream.Caching(stream.FromReader(conn, -1))
	...
	if f, ok := stream.As[*os.File](body); ok {
		...
	}

Four decorators are provided:

• Caching backs a forward-only stream with a seekable local buffer so
that already-read bytes can be re-read, for example when a request has
to be retried;

• Limit exposes a fixed window of an inner stream;

• Instrument reports bytes moved through the stream to observers; and

• Decode transparently inflates a Content-Encoding (gzip, deflate, br).
*/
package stream
