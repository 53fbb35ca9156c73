// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gogama/httpwire/request"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxIdlePerHost is the idle connection limit per host used
	// when Pool.MaxIdlePerHost is zero.
	DefaultMaxIdlePerHost = 2
	// DefaultIdleTimeout is the idle timeout used when
	// Pool.IdleTimeout is zero.
	DefaultIdleTimeout = 90 * time.Second
	// DefaultExpectTimeout is the time a handle waits for a
	// "100 Continue" interim response when Pool.ExpectTimeout is zero.
	DefaultExpectTimeout = 1 * time.Second
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("httpwire/transport: pool closed")

// A Pool is a request.HandleProvider backed by pooled HTTP/1.x
// connections. Each handle wraps one TCP or TLS connection, which goes
// back to the pool on release unless the release forces it closed.
//
// The zero value is ready to use. A Pool is safe for concurrent use by
// multiple goroutines, each driving its own request. Fields must not be
// changed once the Pool is in use.
type Pool struct {
	// Dialer dials TCP connections. If nil, a dialer with a 30 second
	// connect timeout and keep-alive is used.
	Dialer *net.Dialer

	// TLSConfig configures TLS for https targets. If nil, the default
	// configuration is used. ServerName is filled from the target host
	// when empty.
	TLSConfig *tls.Config

	// MaxIdlePerHost bounds the idle connections kept per host. Zero
	// means DefaultMaxIdlePerHost; a negative value disables pooling.
	MaxIdlePerHost int

	// IdleTimeout is how long an idle connection may wait for reuse.
	// Zero means DefaultIdleTimeout.
	IdleTimeout time.Duration

	// ExpectTimeout bounds the wait for a "100 Continue" interim
	// response before the body is sent anyway. Zero means
	// DefaultExpectTimeout.
	ExpectTimeout time.Duration

	// Limiter, if set, throttles the rate of handle acquisition.
	Limiter *rate.Limiter

	// Logger receives connection lifecycle logs. If nil, nothing is
	// logged.
	Logger *zap.Logger

	mu     sync.Mutex
	idle   map[string][]*conn
	closed bool
}

// Acquire returns a handle connected to the request's target, reusing
// an idle connection when one is available.
//
// The dial is bounded by the request context and, when positive, by
// r.Timeout.
func (p *Pool) Acquire(r *request.Request) (request.Handle, error) {
	ctx := r.Context()
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	k, err := keyOf(r)
	if err != nil {
		return nil, err
	}
	c, err := p.take(k)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	if c, err = p.dial(ctx, k); err != nil {
		return nil, err
	}
	return c, nil
}

// Release returns h to the pool, or closes it if forceClose is set, if
// the connection cannot be reused, or if the host already has enough
// idle connections. Handles that did not come from p are ignored.
func (p *Pool) Release(h request.Handle, forceClose bool) {
	c, ok := h.(*conn)
	if !ok || c.pool != p {
		return
	}
	if forceClose || c.mustClose {
		p.logger().Debug("closing connection",
			zap.String("host", c.key.addr),
			zap.Bool("forced", forceClose))
		c.close()
		return
	}
	p.mu.Lock()
	if p.closed || len(p.idle[c.key.String()]) >= p.maxIdle() {
		p.mu.Unlock()
		c.close()
		return
	}
	if p.idle == nil {
		p.idle = make(map[string][]*conn)
	}
	c.idleAt = time.Now()
	p.idle[c.key.String()] = append(p.idle[c.key.String()], c)
	p.mu.Unlock()
}

// CloseIdleConnections closes every idle connection. Connections held
// by requests are unaffected.
func (p *Pool) CloseIdleConnections() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()
	for _, cs := range idle {
		for _, c := range cs {
			c.close()
		}
	}
}

// Close closes the idle connections and makes further Acquire calls
// fail with ErrPoolClosed. Handles released afterward are closed.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.CloseIdleConnections()
}

// IdleLen returns the number of idle connections in the pool.
func (p *Pool) IdleLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, cs := range p.idle {
		n += len(cs)
	}
	return n
}

func (p *Pool) take(k key) (*conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	s := k.String()
	cs := p.idle[s]
	for len(cs) > 0 {
		c := cs[len(cs)-1]
		cs = cs[:len(cs)-1]
		if time.Since(c.idleAt) < p.idleTimeout() {
			p.idle[s] = cs
			p.logger().Debug("reusing connection", zap.String("host", k.addr))
			return c, nil
		}
		c.close()
	}
	delete(p.idle, s)
	return nil, nil
}

func (p *Pool) dial(ctx context.Context, k key) (*conn, error) {
	d := p.Dialer
	if d == nil {
		d = &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	}
	var nc net.Conn
	var err error
	if k.scheme == "https" {
		cfg := p.TLSConfig.Clone()
		if cfg == nil {
			cfg = &tls.Config{}
		}
		if cfg.ServerName == "" {
			cfg.ServerName = k.host
		}
		td := &tls.Dialer{NetDialer: d, Config: cfg}
		nc, err = td.DialContext(ctx, "tcp", k.addr)
	} else {
		nc, err = d.DialContext(ctx, "tcp", k.addr)
	}
	if err != nil {
		return nil, err
	}
	p.logger().Debug("dialed connection",
		zap.String("scheme", k.scheme),
		zap.String("host", k.addr),
		zap.Stringer("local", nc.LocalAddr()))
	return newConn(p, k, nc), nil
}

func (p *Pool) maxIdle() int {
	if p.MaxIdlePerHost == 0 {
		return DefaultMaxIdlePerHost
	}
	return p.MaxIdlePerHost
}

func (p *Pool) idleTimeout() time.Duration {
	if p.IdleTimeout <= 0 {
		return DefaultIdleTimeout
	}
	return p.IdleTimeout
}

func (p *Pool) expectTimeout() time.Duration {
	if p.ExpectTimeout <= 0 {
		return DefaultExpectTimeout
	}
	return p.ExpectTimeout
}

func (p *Pool) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger.Named("transport")
}

// A key identifies the connections interchangeable for a request.
type key struct {
	scheme string
	host   string
	addr   string
}

func (k key) String() string {
	return k.scheme + "://" + k.addr
}

func keyOf(r *request.Request) (key, error) {
	u := r.URL
	if u == nil {
		return key{}, errors.New("httpwire/transport: nil URL")
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	port := u.Port()
	switch {
	case scheme != "http" && scheme != "https":
		return key{}, fmt.Errorf("httpwire/transport: unsupported scheme %q", scheme)
	case port != "":
	case scheme == "https":
		port = "443"
	default:
		port = "80"
	}
	host := u.Hostname()
	return key{scheme: scheme, host: host, addr: net.JoinHostPort(host, port)}, nil
}
