// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gogama/httpwire"
	"github.com/gogama/httpwire/internal/config"
	"github.com/gogama/httpwire/request"
	"github.com/gogama/httpwire/retry"
	"github.com/gogama/httpwire/stream"
	"github.com/gogama/httpwire/timeout"
	"github.com/gogama/httpwire/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type sendFlags struct {
	https    bool
	include  bool
	quiet    bool
	output   string
	idHeader string
}

func newSendCmd(a *app) *cobra.Command {
	var f sendFlags
	cmd := &cobra.Command{
		Use:   "send [file]",
		Short: "Send a literal request and print the response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, inputArg(args), f)
		},
	}
	cmd.Flags().BoolVar(&f.https, "https", false, "send over TLS")
	cmd.Flags().BoolVarP(&f.include, "include", "i", false, "print the response status line and headers")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not print the summary line")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the response body to a file")
	cmd.Flags().StringVar(&f.idHeader, "id-header", "", "send the request ID in this header, e.g. X-Request-Id")
	defaults := config.NewDefaultConfig().Client
	cmd.Flags().Duration("timeout", defaults.Timeout, "per-attempt timeout (0 means no timeout)")
	cmd.Flags().Int("retries", defaults.Retries, "maximum number of retries")
	cmd.Flags().Int("fail-status", defaults.FailStatus, "treat responses at or above this status as failures")
	_ = a.v.BindPFlag("client.timeout", cmd.Flags().Lookup("timeout"))
	_ = a.v.BindPFlag("client.retries", cmd.Flags().Lookup("retries"))
	_ = a.v.BindPFlag("client.fail_status", cmd.Flags().Lookup("fail-status"))
	return cmd
}

func (a *app) send(cmd *cobra.Command, input string, f sendFlags) error {
	text, err := readInput(input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	opts := []request.Option{request.WithContext(cmd.Context())}
	if f.idHeader != "" {
		opts = append(opts, request.WithIDHeader(f.idHeader))
	}
	r, err := request.Parse(text, opts...)
	if err != nil {
		return err
	}
	if f.https {
		r.URL.Scheme = "https"
	}
	if f.output != "" {
		sink, err := stream.Create(f.output)
		if err != nil {
			return err
		}
		defer sink.Close()
		if err = r.SetResponseBody(sink); err != nil {
			return err
		}
	}

	cl := newClient(a.cfg, a.logger)
	defer cl.CloseIdleConnections()
	resp, err := cl.Do(r)
	if resp != nil {
		if perr := printResponse(cmd.OutOrStdout(), resp, f); perr != nil && err == nil {
			err = perr
		}
	}
	if !f.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), summary(r, resp))
	}
	return err
}

// newClient builds a client from the loaded configuration.
func newClient(cfg *config.Config, logger *zap.Logger) *httpwire.Client {
	pool := &transport.Pool{
		Dialer:         &net.Dialer{Timeout: cfg.Transport.DialTimeout, KeepAlive: 30 * time.Second},
		MaxIdlePerHost: cfg.Transport.MaxIdlePerHost,
		IdleTimeout:    cfg.Transport.IdleTimeout,
		ExpectTimeout:  cfg.Transport.ExpectTimeout,
		Logger:         logger,
	}
	if cfg.Transport.InsecureSkipVerify {
		pool.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.Transport.RateLimit > 0 {
		pool.Limiter = rate.NewLimiter(rate.Limit(cfg.Transport.RateLimit), cfg.Transport.RateBurst)
	}

	tp := timeout.Infinite
	if cfg.Client.Timeout > 0 {
		tp = timeout.Fixed(cfg.Client.Timeout)
	}
	decider := retry.Times(cfg.Client.Retries).And(retry.StatusCode(429, 502, 503, 504).Or(retry.TransientErr))
	waiter := retry.NewRetryAfterWaiter(retry.NewExpWaiter(cfg.Client.RetryBase, cfg.Client.RetryMax, time.Now()), cfg.Client.RetryMax)

	cl := &httpwire.Client{
		Provider:      pool,
		RetryPolicy:   retry.NewPolicy(decider, waiter),
		TimeoutPolicy: tp,
		Logger:        logger,
	}
	if cfg.Client.FailStatus > 0 {
		cl.Classifier = request.StatusClassifier(cfg.Client.FailStatus)
	}
	return cl
}

func printResponse(w io.Writer, resp *request.Response, f sendFlags) error {
	if f.include {
		if _, err := fmt.Fprintf(w, "%s %d %s\r\n", resp.Proto, resp.StatusCode, resp.Reason); err != nil {
			return err
		}
		if err := resp.Header.Write(w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return err
		}
	}
	if f.output != "" || resp.Body == nil {
		return nil
	}
	b, err := stream.Bytes(resp.Body)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func summary(r *request.Request, resp *request.Response) string {
	attempts := r.Attempt + 1
	if resp == nil {
		return fmt.Sprintf("failed after %d %s in %s", attempts, plural(attempts, "attempt"), r.Duration().Round(time.Millisecond))
	}
	return fmt.Sprintf("%d %s, %s in %s after %d %s",
		resp.StatusCode, resp.Reason,
		humanize.Bytes(uint64(resp.Info.BodySize)),
		r.Duration().Round(time.Millisecond),
		attempts, plural(attempts, "attempt"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
