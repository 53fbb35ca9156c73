// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package message parses literal HTTP/1.x messages and provides the
// ordered, case-preserving Header type used for request and response
// headers.
//
// The parser is line oriented and tolerant. Parse turns a whole request
// message into its method, target, protocol, headers and body, while
// ParseStatusLine and ParseHeaderLine expose the line-level logic used
// to build responses incrementally as header lines arrive off the wire.
package message
