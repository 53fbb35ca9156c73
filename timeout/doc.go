// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines flexible policies for setting the timeout of
// each attempt at a request, including retries. A generic interface for
// timeout policies is provided, Policy, along with several useful
// policy generating functions and built-in policies. A Plugin applies a
// policy to a request.
package timeout
