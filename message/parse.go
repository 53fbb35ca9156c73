// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const (
	// DefaultProto is the protocol assumed when a message does not
	// name one.
	DefaultProto = "HTTP/1.1"
)

var errEmpty = errors.New("httpwire/message: empty message")

// methods is the allow-list of request-line methods recognised by
// Parse.
var methods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"OPTIONS": true,
	"TRACE":   true,
	"CONNECT": true,
}

// standard maps the lower-case form of well-known header names to
// their canonical spelling. Names outside this set keep their case.
var standard = map[string]string{}

func init() {
	for _, name := range []string{
		"Accept", "Accept-Charset", "Accept-Encoding", "Accept-Language",
		"Accept-Ranges", "Age", "Allow", "Authorization", "Cache-Control",
		"Connection", "Content-Disposition", "Content-Encoding",
		"Content-Language", "Content-Length", "Content-Location",
		"Content-MD5", "Content-Range", "Content-Type", "Cookie", "Date",
		"ETag", "Expect", "Expires", "From", "Host", "If-Match",
		"If-Modified-Since", "If-None-Match", "If-Range",
		"If-Unmodified-Since", "Keep-Alive", "Last-Modified", "Location",
		"Max-Forwards", "Pragma", "Proxy-Authenticate",
		"Proxy-Authorization", "Range", "Referer", "Retry-After", "Server",
		"Set-Cookie", "TE", "Trailer", "Transfer-Encoding", "Upgrade",
		"User-Agent", "Vary", "Via", "Warning", "WWW-Authenticate",
	} {
		standard[strings.ToLower(name)] = name
	}
}

// CanonicalName returns the canonical spelling of name if it is one of
// the well-known HTTP header names, and name unchanged otherwise.
func CanonicalName(name string) string {
	if c, ok := standard[strings.ToLower(name)]; ok {
		return c
	}
	return name
}

// A Message is the result of parsing a literal HTTP request message.
type Message struct {
	// Method, Target and Proto come from the request line. They are
	// empty when the message has no recognised request line, except
	// Proto, which defaults to DefaultProto.
	Method     string
	Target     string
	Proto      string
	ProtoMajor int
	ProtoMinor int

	// Path and Query split Target at the first "?".
	Path  string
	Query string

	// Scheme, Host and Port are derived from the Host header (or an
	// absolute-form Target). Port is empty unless present literally.
	// Scheme is "https" when Port is 443 and "http" otherwise.
	Scheme string
	Host   string
	Port   string

	// Username and Password are decoded from a Basic Authorization
	// header.
	Username string
	Password string

	Header *Header
	Body   string
}

// Parse parses a literal HTTP request message.
//
// Parse is line oriented and tolerant rather than a full grammar. Line
// endings may be CRLF, LF or CR. Headers are separated from the body
// by the first blank line; the body is returned verbatim. The first
// line is parsed as a request line only if its method is one of GET,
// HEAD, POST, PUT, PATCH, DELETE, OPTIONS, TRACE or CONNECT; otherwise
// it is treated as a header line. Header lines are split at the first
// colon and trimmed; well-known names are re-cased (see CanonicalName)
// and other names are kept verbatim. Lines that are not valid header
// lines are skipped.
func Parse(text string) (*Message, error) {
	text = strings.TrimLeft(text, " \t\r\n")
	if text == "" {
		return nil, errEmpty
	}

	head, body := splitHead(text)
	lines := strings.Split(head, "\n")

	m := &Message{
		Proto:      DefaultProto,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     NewHeader(),
		Body:       body,
	}

	if fields := strings.Fields(lines[0]); len(fields) > 0 && methods[strings.ToUpper(fields[0])] {
		m.Method = strings.ToUpper(fields[0])
		m.Target = "/"
		if len(fields) > 1 {
			m.Target = fields[1]
		}
		if len(fields) > 2 {
			major, minor, ok := http.ParseHTTPVersion(strings.ToUpper(fields[2]))
			if !ok {
				return nil, fmt.Errorf("httpwire/message: malformed protocol %q", fields[2])
			}
			m.Proto, m.ProtoMajor, m.ProtoMinor = strings.ToUpper(fields[2]), major, minor
		}
		lines = lines[1:]
	}

	for _, line := range lines {
		name, value, ok := ParseHeaderLine(line)
		if !ok {
			continue
		}
		m.Header.Add(CanonicalName(name), value)
	}

	if err := m.deriveTarget(); err != nil {
		return nil, err
	}
	if err := m.deriveHost(); err != nil {
		return nil, err
	}
	m.deriveAuth()
	return m, nil
}

// splitHead splits text at the first blank line. The head is returned
// with line endings normalised to "\n" and no trailing newline.
func splitHead(text string) (head, body string) {
	i := 0
	var lines []string
	for i < len(text) {
		j := strings.IndexAny(text[i:], "\r\n")
		if j < 0 {
			lines = append(lines, text[i:])
			i = len(text)
			break
		}
		line := text[i : i+j]
		i += j
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i += 2
		} else {
			i++
		}
		if line == "" {
			return strings.Join(lines, "\n"), text[i:]
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), ""
}

func (m *Message) deriveTarget() error {
	target := m.Target
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		u, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("httpwire/message: malformed target: %w", err)
		}
		if !m.Header.Has("Host") {
			m.Header.Add("Host", u.Host)
		}
		m.Scheme = u.Scheme
		target = u.RequestURI()
	}
	if i := strings.IndexByte(target, '?'); i >= 0 {
		m.Path, m.Query = target[:i], target[i+1:]
	} else {
		m.Path = target
	}
	return nil
}

func (m *Message) deriveHost() error {
	host := m.Header.Get("Host")
	if host == "" {
		if m.Scheme == "" {
			m.Scheme = "http"
		}
		return nil
	}
	if strings.LastIndex(host, ":") > strings.LastIndex(host, "]") {
		h, p, err := net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("httpwire/message: malformed host %q: %w", host, err)
		}
		if p != "" {
			if _, err := strconv.ParseUint(p, 10, 16); err != nil {
				return fmt.Errorf("httpwire/message: malformed port in host %q", host)
			}
		}
		m.Host, m.Port = h, p
	} else {
		m.Host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	switch {
	case m.Port == "443":
		m.Scheme = "https"
	case m.Scheme == "":
		m.Scheme = "http"
	}
	return nil
}

func (m *Message) deriveAuth() {
	auth := m.Header.Get("Authorization")
	const prefix = "Basic "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(auth[len(prefix):]))
	if err != nil {
		return
	}
	user, pass, _ := strings.Cut(string(raw), ":")
	m.Username, m.Password = user, pass
}

// HostPort returns Host joined with Port, if any, in the form used by
// url.URL.Host.
func (m *Message) HostPort() string {
	if m.Host == "" {
		return ""
	}
	if m.Port == "" {
		if strings.Contains(m.Host, ":") {
			return "[" + m.Host + "]"
		}
		return m.Host
	}
	return net.JoinHostPort(m.Host, m.Port)
}

// URL returns the absolute URL addressed by the message.
func (m *Message) URL() *url.URL {
	u := &url.URL{
		Scheme:   m.Scheme,
		Host:     m.HostPort(),
		RawQuery: m.Query,
	}
	if p, err := url.PathUnescape(m.Path); err == nil {
		u.Path = p
		if p != m.Path {
			u.RawPath = m.Path
		}
	} else {
		u.Path = m.Path
	}
	if m.Username != "" || m.Password != "" {
		u.User = url.UserPassword(m.Username, m.Password)
	}
	return u
}

// ParseHeaderLine splits a header line at its first colon and trims
// surrounding whitespace (including a trailing CR or LF) from the name
// and value. It reports false if the line has no colon or the name is
// not a valid header field name.
func ParseHeaderLine(line string) (name, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(line[:i])
	if !httpguts.ValidHeaderFieldName(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(line[i+1:]), true
}

// A StatusLine is a parsed response status line.
type StatusLine struct {
	Proto      string
	ProtoMajor int
	ProtoMinor int
	StatusCode int
	Reason     string
}

// ParseStatusLine parses a response status line of the form
// "HTTP/x.y CODE REASON". The reason phrase may be empty. Trailing CR
// and LF are ignored.
func ParseStatusLine(line string) (StatusLine, bool) {
	line = strings.TrimRight(line, "\r\n")
	proto, rest, _ := strings.Cut(line, " ")
	if !strings.HasPrefix(proto, "HTTP/") {
		return StatusLine{}, false
	}
	major, minor, ok := http.ParseHTTPVersion(proto)
	if !ok {
		return StatusLine{}, false
	}
	code, reason, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	if len(code) != 3 {
		return StatusLine{}, false
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 100 {
		return StatusLine{}, false
	}
	return StatusLine{
		Proto:      proto,
		ProtoMajor: major,
		ProtoMinor: minor,
		StatusCode: n,
		Reason:     strings.TrimSpace(reason),
	}, true
}
