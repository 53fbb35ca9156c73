// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transport provides Pool, the default request.HandleProvider.
//
// A Pool hands out handles over plain TCP or TLS connections and keeps
// released connections idle for reuse. A handle speaks HTTP/1.x
// directly: it writes the request header block produced by
// request.Request.WriteHeader, frames the body with Content-Length or
// chunked transfer coding, honours "Expect: 100-continue", encodes
// multipart forms, and streams the response back into the request one
// header line at a time.
//
//	pool := &transport.Pool{Limiter: rate.NewLimiter(10, 1)}
//	r, _ := request.New("GET", "https://example.com/", nil, request.WithProvider(pool))
//	resp, err := r.Send()
package transport
