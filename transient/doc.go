// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from an HTTP exchange as
// transient or non-transient. Package request uses it to count attempt
// timeouts, and package retry uses it to decide whether a failed
// attempt is worth repeating.
//
// Package transient depends only on the standard library, so it can be
// imported on its own to bucket error metrics.
package transient
