// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpwire sends HTTP/1.x requests over raw connections, one
transaction at a time, with retry and timeout support layered on a
small request state machine.

Create a Client to begin making requests.

	client := &httpwire.Client{}
	resp, err := client.Get("https://www.example.com")
	...
	resp, err := client.Post("https://www.example.com/upload",
		"application/json", buf)
	...
	resp, err := client.PostForm("http://example.com/form",
		url.Values{"key": {"Value"}, "avatar": {"@/tmp/me.png"}})

Form values starting with request.FileMarker are uploaded as files, so
the last request above is sent as multipart/form-data.

For control over connections, use a custom transport.Pool (or any other
request.HandleProvider):

	client := &httpwire.Client{
		Provider: &transport.Pool{
			MaxIdlePerHost: 8,
			Limiter:        rate.NewLimiter(50, 10),
		},
	}

For control over the client's retry decisions and timing, create a
custom retry policy using components from package retry:

	retryWaiter := retry.NewExpWaiter(250*time.Millisecond, 5*time.Second, time.Now())
	retryPolicy := retry.NewPolicy(retry.DefaultDecider, retryWaiter)
	client := &httpwire.Client{
		RetryPolicy: retryPolicy,
	}

For control over the client's individual attempt timeouts, set a custom
timeout policy using package timeout:

	client := &httpwire.Client{
		TimeoutPolicy: timeout.Fixed(10*time.Second),
	}

To observe a request's life, add handlers for the events declared in
package request:

	handlers := &request.HandlerGroup{}
	handlers.PushBack(request.BeforeSend, request.HandlerFunc(
		func(_ request.Event, n *request.Notice) {
			log.Printf("Attempt %d to %s", n.Request.Attempt, n.Request.URL)
		}))
	client := &httpwire.Client{
		Handlers: handlers,
	}

Package httpwire also provides basic interfaces for each method of the
client (Doer, Getter, Header, Poster, FormPoster and IdleCloser), a
combined interface (Executor), and helper functions for working with a
Doer (Inflate, Get, Head, Post, Put and PostForm).
*/
package httpwire
