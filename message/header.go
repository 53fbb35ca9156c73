// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"io"
	"net/http"
	"strings"
)

// A Field is a single header line.
type Field struct {
	Name  string
	Value string
}

// A Header is an ordered collection of header fields.
//
// Unlike http.Header, a Header keeps fields in insertion order and
// preserves the case of field names as given, so that a message can be
// reproduced byte for byte. Lookups are case-insensitive.
//
// A nil *Header is a valid empty header for all read operations.
type Header struct {
	fields []Field
	cc     *CacheControl
}

// NewHeader returns an empty Header.
func NewHeader() *Header {
	return &Header{}
}

// Get returns the first value associated with name, or "" if there is
// none.
func (h *Header) Get(name string) string {
	if h == nil {
		return ""
	}
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns all values associated with name, in order.
func (h *Header) Values(name string) []string {
	if h == nil {
		return nil
	}
	var vs []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			vs = append(vs, f.Value)
		}
	}
	return vs
}

// Has reports whether the header contains name.
func (h *Header) Has(name string) bool {
	if h == nil {
		return false
	}
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Add appends a field.
func (h *Header) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
	h.changed(name)
}

// Set replaces every field named name with a single field holding
// value. The field keeps the position of the first field it replaces,
// or is appended if there was none.
func (h *Header) Set(name, value string) {
	i := h.index(name)
	if i < 0 {
		h.Add(name, value)
		return
	}
	h.fields[i] = Field{Name: name, Value: value}
	h.removeAfter(i, name)
	h.changed(name)
}

// Del removes every field named name.
func (h *Header) Del(name string) {
	i := h.index(name)
	if i < 0 {
		return
	}
	h.fields = append(h.fields[:i], h.fields[i+1:]...)
	h.removeAfter(i-1, name)
	h.changed(name)
}

func (h *Header) index(name string) int {
	for i, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

func (h *Header) removeAfter(i int, name string) {
	kept := h.fields[:i+1]
	for _, f := range h.fields[i+1:] {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

func (h *Header) changed(name string) {
	if strings.EqualFold(name, "Cache-Control") {
		h.cc = nil
	}
}

// Len returns the number of fields.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.fields)
}

// Fields returns a copy of the fields in order.
func (h *Header) Fields() []Field {
	if h == nil || len(h.fields) == 0 {
		return nil
	}
	fs := make([]Field, len(h.fields))
	copy(fs, h.fields)
	return fs
}

// Clone returns a deep copy of h. Cloning a nil header yields an empty
// header.
func (h *Header) Clone() *Header {
	return &Header{fields: h.Fields()}
}

// Write writes h in wire format, one "Name: value\r\n" line per field.
func (h *Header) Write(w io.Writer) error {
	if h == nil {
		return nil
	}
	for _, f := range h.fields {
		if _, err := io.WriteString(w, f.Name+": "+f.Value+"\r\n"); err != nil {
			return err
		}
	}
	return nil
}

// HTTP converts h into a net/http header. Field names are
// canonicalised by http.Header.
func (h *Header) HTTP() http.Header {
	hh := make(http.Header, h.Len())
	if h != nil {
		for _, f := range h.fields {
			hh.Add(f.Name, f.Value)
		}
	}
	return hh
}

// CacheControl returns the parsed Cache-Control directives of h.
//
// The directives are parsed on first use and cached until the next
// change to a Cache-Control field through Set, Add or Del.
func (h *Header) CacheControl() *CacheControl {
	if h == nil {
		return ParseCacheControl("")
	}
	if h.cc == nil {
		h.cc = ParseCacheControl(strings.Join(h.Values("Cache-Control"), ", "))
	}
	return h.cc
}
