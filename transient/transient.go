// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"io"
	"syscall"
)

// A Category is the transience category of a particular error, as
// reported by function Categorize().
//
// The category Not means the error is not transient from the perspective
// of completing an HTTP exchange successfully, or in other words that a
// fresh attempt after encountering this error is very unlikely to
// succeed.
//
// All other categories indicate the error is transient: a fresh attempt
// has some prospect of success.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout. The server may be going
	// through a temporary period of slowness, or the client may succeed
	// on a future attempt waiting longer (increasing its timeout).
	//
	// Function Categorize() will return Timeout if the error or any of
	// its wrapped causes has a Timeout() function that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection, and
	// corresponds to the POSIX error code ECONNREFUSED.
	//
	// Connection refusal is often brief: it happens while the service
	// on the remote host is starting or restarting and not yet
	// listening on its port.
	ConnRefused
	// ConnReset indicates the remote host returned an RST packet on a
	// previously active TCP connection, and corresponds to the POSIX
	// error code ECONNRESET.
	ConnReset
	// ConnAborted indicates the local network stack aborted the
	// connection, and corresponds to the POSIX error code ECONNABORTED.
	ConnAborted
	// BrokenPipe indicates a write on a connection the remote host had
	// already closed, and corresponds to the POSIX error code EPIPE.
	//
	// This is the usual way a request fails when it is written to a
	// pooled keep-alive connection that the server has just timed out.
	BrokenPipe
	// Closed indicates the connection ended before a complete response
	// was read: the error or one of its causes is io.EOF or
	// io.ErrUnexpectedEOF. Like BrokenPipe, it is typical of a reused
	// connection closed by the server.
	Closed
)

var categoryNames = [...]string{
	"Not",
	"Timeout",
	"ConnRefused",
	"ConnReset",
	"ConnAborted",
	"BrokenPipe",
	"Closed",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Unknown"
	}
	return categoryNames[c]
}

var errnos = map[syscall.Errno]Category{
	syscall.ECONNREFUSED: ConnRefused,
	syscall.ECONNRESET:   ConnReset,
	syscall.ECONNABORTED: ConnAborted,
	syscall.EPIPE:        BrokenPipe,
}

// Categorize returns the transience category of the given error. All
// non-nil transient errors result in a transience category other than
// Not. A nil error, and an error that is not transient from the
// perspective of completing an HTTP exchange, both produce the return
// value Not.
//
// In assessing transience, Categorize looks at wrapped cause errors
// contained within err, not just err itself. However, Categorize never
// checks if an error has a Temporary() function that returns true, as
// the semantics of Temporary() aren't entirely clear.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if c, ok := errnos[errno]; ok {
			return c
		}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return Closed
	}

	return Not
}

// Is reports whether err is transient.
func Is(err error) bool {
	return Categorize(err) != Not
}

type hasTimeout interface {
	Timeout() bool
}
