// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http/httputil"
	"strconv"
	"strings"
	"time"

	"github.com/gogama/httpwire/message"
	"github.com/gogama/httpwire/request"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
)

// maxLineLength bounds a single status, header or trailer line.
const maxLineLength = 64 << 10

var aLongTimeAgo = time.Unix(1, 0)

// ErrLineTooLong is returned when the server sends a response line
// longer than the handle accepts.
var ErrLineTooLong = errors.New("httpwire/transport: response line too long")

// A MalformedResponseError is returned when the server's reply is not
// an HTTP/1.x response.
type MalformedResponseError struct {
	Line string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("httpwire/transport: malformed status line %q", e.Line)
}

// conn is a request.Handle over one connection.
type conn struct {
	pool      *Pool
	key       key
	nc        net.Conn
	br        *bufio.Reader
	bw        *bufio.Writer
	trace     string
	deadline  time.Time
	pending   string
	mustClose bool
	idleAt    time.Time
}

func newConn(p *Pool, k key, nc net.Conn) *conn {
	return &conn{
		pool: p,
		key:  k,
		nc:   nc,
		br:   bufio.NewReader(nc),
		bw:   bufio.NewWriter(nc),
	}
}

// Trace returns the request header block written by the latest
// Transfer.
func (c *conn) Trace() string {
	return c.trace
}

// Transfer writes r to the connection and reads the response, feeding
// raw header lines to r.ReceiveResponseHeader and body bytes into the
// response body.
func (c *conn) Transfer(r *request.Request) (err error) {
	c.trace = ""
	c.pending = ""
	ctx := r.Context()
	c.deadline = time.Time{}
	if r.Timeout > 0 {
		c.deadline = time.Now().Add(r.Timeout)
	}
	if d, ok := ctx.Deadline(); ok && (c.deadline.IsZero() || d.Before(c.deadline)) {
		c.deadline = d
	}
	if err = c.nc.SetDeadline(c.deadline); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.nc.SetDeadline(aLongTimeAgo)
	})
	defer func() {
		stop()
		if err != nil {
			c.mustClose = true
			if ctx.Err() != nil {
				err = fmt.Errorf("%w: %w", ctx.Err(), err)
			}
		}
	}()

	body, err := c.requestBody(r)
	if err != nil {
		return err
	}
	var head bytes.Buffer
	if err = r.WriteHeader(&head); err != nil {
		return err
	}
	c.trace = head.String()
	c.pool.logger().Debug("request header written",
		zap.String("id", r.ID),
		zap.String("host", c.key.addr),
		zap.Int("bytes", head.Len()))
	if _, err = c.bw.Write(head.Bytes()); err != nil {
		return err
	}

	send := body != nil
	if send && expectsContinue(r) {
		if err = c.bw.Flush(); err != nil {
			return err
		}
		if send, err = c.awaitContinue(); err != nil {
			return err
		}
	}
	if send {
		if err = c.writeBody(r, body); err != nil {
			return err
		}
	}
	if err = c.bw.Flush(); err != nil {
		return err
	}
	return c.readResponse(r)
}

// requestBody returns the bytes to send after the header block, or nil
// if there are none. A multipart form is encoded here and its framing
// headers set on r.
func (c *conn) requestBody(r *request.Request) (io.Reader, error) {
	if r.Multipart() {
		b, contentType, err := encodeMultipart(r)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", contentType)
		r.Header.Del("Transfer-Encoding")
		r.Header.Set("Content-Length", strconv.Itoa(b.Len()))
		return b, nil
	}
	if r.Body == nil {
		return nil, nil
	}
	return r.Body, nil
}

func expectsContinue(r *request.Request) bool {
	return httpguts.HeaderValuesContainsToken(r.Header.Values("Expect"), "100-continue")
}

// awaitContinue waits for the interim response to an Expect header. It
// reports whether the body should be sent: true after "100 Continue" or
// when the server stays silent, false when a final response arrived
// first. In the latter case the status line is kept for readResponse.
func (c *conn) awaitContinue() (bool, error) {
	wait := time.Now().Add(c.pool.expectTimeout())
	overall := !c.deadline.IsZero() && c.deadline.Before(wait)
	if !overall {
		if err := c.nc.SetReadDeadline(wait); err != nil {
			return false, err
		}
	}
	_, err := c.br.Peek(1)
	if !overall {
		if rerr := c.nc.SetReadDeadline(c.deadline); rerr != nil && err == nil {
			err = rerr
		}
	}
	var ne net.Error
	if err != nil && !overall && errors.As(err, &ne) && ne.Timeout() {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	line, err := c.readLine()
	if err != nil {
		return false, err
	}
	if sl, ok := message.ParseStatusLine(line); ok && sl.StatusCode == 100 {
		return true, c.skipHeaders()
	}
	c.pending = line
	c.mustClose = true
	return false, nil
}

func (c *conn) writeBody(r *request.Request, body io.Reader) error {
	chunked := httpguts.HeaderValuesContainsToken(r.Header.Values("Transfer-Encoding"), "chunked")
	if !chunked {
		_, err := io.Copy(c.bw, body)
		return err
	}
	cw := httputil.NewChunkedWriter(c.bw)
	if _, err := io.Copy(cw, body); err != nil {
		return err
	}
	if err := cw.Close(); err != nil {
		return err
	}
	_, err := c.bw.WriteString("\r\n")
	return err
}

func (c *conn) readResponse(r *request.Request) error {
	var line string
	for {
		var err error
		if line, err = c.nextLine(); err != nil {
			return err
		}
		sl, ok := message.ParseStatusLine(line)
		if !ok {
			return &MalformedResponseError{Line: strings.TrimRight(line, "\r\n")}
		}
		if sl.StatusCode >= 200 || sl.StatusCode == 101 {
			break
		}
		if err = c.skipHeaders(); err != nil {
			return err
		}
	}

	r.ReceiveResponseHeader(line)
	for r.State() == request.StateTransfer {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		r.ReceiveResponseHeader(line)
	}
	if r.State() != request.StateTransfer {
		// A handler ended the exchange; the rest of the response is
		// abandoned with the connection.
		c.mustClose = true
		return nil
	}

	resp := r.Response()
	if resp == nil {
		return &MalformedResponseError{Line: strings.TrimRight(line, "\r\n")}
	}
	if !hasBody(r.Method, resp.StatusCode) {
		if resp.StatusCode == 101 || r.Method == "CONNECT" {
			c.mustClose = true
		}
		return nil
	}
	if httpguts.HeaderValuesContainsToken(resp.Header.Values("Transfer-Encoding"), "chunked") {
		if _, err := io.Copy(resp.Body, httputil.NewChunkedReader(c.br)); err != nil {
			return err
		}
		return c.skipHeaders()
	}
	if cl := strings.TrimSpace(resp.Header.Get("Content-Length")); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("httpwire/transport: bad Content-Length %q", cl)
		}
		if _, err = io.CopyN(resp.Body, c.br, n); errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		} else if err != nil {
			return err
		}
		return nil
	}
	c.mustClose = true
	_, err := io.Copy(resp.Body, c.br)
	return err
}

func hasBody(method string, code int) bool {
	switch {
	case method == "HEAD":
		return false
	case method == "CONNECT" && code/100 == 2:
		return false
	case code/100 == 1, code == 204, code == 304:
		return false
	}
	return true
}

func (c *conn) nextLine() (string, error) {
	if c.pending != "" {
		line := c.pending
		c.pending = ""
		return line, nil
	}
	return c.readLine()
}

// skipHeaders discards header or trailer lines up to and including the
// blank line.
func (c *conn) skipHeaders() error {
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if line == "\r\n" || line == "\n" {
			return nil
		}
	}
}

func (c *conn) readLine() (string, error) {
	var b []byte
	for {
		frag, err := c.br.ReadSlice('\n')
		b = append(b, frag...)
		if len(b) > maxLineLength {
			return "", ErrLineTooLong
		}
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			if errors.Is(err, io.EOF) && len(b) > 0 {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
	}
}

func (c *conn) close() {
	_ = c.nc.Close()
}
