// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"strconv"
	"strings"
	"time"
)

// CacheControl is the parsed form of a Cache-Control header value.
// Directive names are case-insensitive.
type CacheControl struct {
	names      []string
	directives map[string]string
}

// ParseCacheControl parses a Cache-Control header value. Directives
// are comma-separated; a directive may carry a token or quoted-string
// argument after "=". Malformed directives are skipped.
func ParseCacheControl(value string) *CacheControl {
	cc := &CacheControl{directives: make(map[string]string)}
	for _, part := range splitDirectives(value) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, arg := part, ""
		if i := strings.IndexByte(part, '='); i >= 0 {
			name = strings.TrimSpace(part[:i])
			arg = strings.TrimSpace(part[i+1:])
			if uq, err := strconv.Unquote(arg); err == nil && strings.HasPrefix(arg, `"`) {
				arg = uq
			}
		}
		if name == "" {
			continue
		}
		name = strings.ToLower(name)
		if _, dup := cc.directives[name]; !dup {
			cc.names = append(cc.names, name)
		}
		cc.directives[name] = arg
	}
	return cc
}

func splitDirectives(value string) []string {
	var parts []string
	quoted := false
	start := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '"':
			quoted = !quoted
		case '\\':
			if quoted {
				i++
			}
		case ',':
			if !quoted {
				parts = append(parts, value[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, value[start:])
}

// Has reports whether directive name is present.
func (cc *CacheControl) Has(name string) bool {
	_, ok := cc.directives[strings.ToLower(name)]
	return ok
}

// Get returns the argument of directive name and whether the directive
// is present.
func (cc *CacheControl) Get(name string) (string, bool) {
	v, ok := cc.directives[strings.ToLower(name)]
	return v, ok
}

// Len returns the number of distinct directives.
func (cc *CacheControl) Len() int {
	return len(cc.names)
}

// MaxAge returns the max-age directive as a duration.
func (cc *CacheControl) MaxAge() (time.Duration, bool) {
	return cc.seconds("max-age")
}

// SharedMaxAge returns the s-maxage directive as a duration.
func (cc *CacheControl) SharedMaxAge() (time.Duration, bool) {
	return cc.seconds("s-maxage")
}

func (cc *CacheControl) seconds(name string) (time.Duration, bool) {
	v, ok := cc.directives[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// NoCache reports whether the no-cache directive is present.
func (cc *CacheControl) NoCache() bool { return cc.Has("no-cache") }

// NoStore reports whether the no-store directive is present.
func (cc *CacheControl) NoStore() bool { return cc.Has("no-store") }

// String renders the directives in their original order.
func (cc *CacheControl) String() string {
	var b strings.Builder
	for i, name := range cc.names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		if arg := cc.directives[name]; arg != "" {
			b.WriteByte('=')
			if strings.ContainsAny(arg, " ,\";=") {
				arg = strconv.Quote(arg)
			}
			b.WriteString(arg)
		}
	}
	return b.String()
}
