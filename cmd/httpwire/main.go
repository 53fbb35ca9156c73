// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httpwire sends literal HTTP/1.x request messages.
//
// Usage:
//
//	httpwire send [flags] [file]
//	httpwire parse [file]
//
// With no file, or with "-", the request is read from standard input.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
