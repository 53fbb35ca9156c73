// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	t.Run("nil header reads", func(t *testing.T) {
		var h *Header
		assert.Equal(t, "", h.Get("Foo"))
		assert.Nil(t, h.Values("Foo"))
		assert.False(t, h.Has("Foo"))
		assert.Equal(t, 0, h.Len())
		assert.Empty(t, h.HTTP())
		assert.NoError(t, h.Write(&strings.Builder{}))
		assert.Equal(t, 0, h.Clone().Len())
		assert.False(t, h.CacheControl().NoCache())
	})
	t.Run("order and case preserved", func(t *testing.T) {
		h := NewHeader()
		h.Add("x-b", "1")
		h.Add("X-A", "2")
		h.Add("X-B", "3")
		assert.Equal(t, "1", h.Get("X-B"))
		assert.Equal(t, []string{"1", "3"}, h.Values("x-b"))
		var sb strings.Builder
		require.NoError(t, h.Write(&sb))
		assert.Equal(t, "x-b: 1\r\nX-A: 2\r\nX-B: 3\r\n", sb.String())
	})
	t.Run("Set replaces in place", func(t *testing.T) {
		h := NewHeader()
		h.Add("A", "1")
		h.Add("B", "2")
		h.Add("a", "3")
		h.Add("C", "4")
		h.Set("a", "9")
		assert.Equal(t, []Field{{"a", "9"}, {"B", "2"}, {"C", "4"}}, h.Fields())
		h.Set("D", "5")
		assert.Equal(t, []Field{{"a", "9"}, {"B", "2"}, {"C", "4"}, {"D", "5"}}, h.Fields())
	})
	t.Run("Del removes all", func(t *testing.T) {
		h := NewHeader()
		h.Add("A", "1")
		h.Add("B", "2")
		h.Add("a", "3")
		h.Del("A")
		assert.Equal(t, []Field{{"B", "2"}}, h.Fields())
		h.Del("missing")
		assert.Equal(t, 1, h.Len())
	})
	t.Run("Clone is independent", func(t *testing.T) {
		h := NewHeader()
		h.Add("A", "1")
		c := h.Clone()
		c.Set("A", "2")
		assert.Equal(t, "1", h.Get("A"))
		assert.Equal(t, "2", c.Get("A"))
	})
	t.Run("HTTP conversion", func(t *testing.T) {
		h := NewHeader()
		h.Add("x-foo", "1")
		h.Add("X-Foo", "2")
		assert.Equal(t, []string{"1", "2"}, h.HTTP()["X-Foo"])
	})
}

func TestHeader_CacheControl(t *testing.T) {
	h := NewHeader()
	h.Set("Cache-Control", "max-age=60, no-cache")
	cc := h.CacheControl()
	assert.Same(t, cc, h.CacheControl(), "directives are cached")
	age, ok := cc.MaxAge()
	assert.True(t, ok)
	assert.Equal(t, time.Minute, age)
	assert.True(t, cc.NoCache())

	h.Add("X-Other", "1")
	assert.Same(t, cc, h.CacheControl(), "unrelated change keeps cache")

	h.Set("cache-control", "no-store")
	cc2 := h.CacheControl()
	assert.NotSame(t, cc, cc2)
	assert.True(t, cc2.NoStore())
	assert.False(t, cc2.NoCache())

	h.Add("Cache-Control", "s-maxage=5")
	sm, ok := h.CacheControl().SharedMaxAge()
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, sm)

	h.Del("Cache-Control")
	assert.Equal(t, 0, h.CacheControl().Len())
}

func TestParseCacheControl(t *testing.T) {
	cc := ParseCacheControl(`Private="Set-Cookie, X-A", MAX-AGE=10, must-revalidate, =bad, max-age=x`)
	v, ok := cc.Get("private")
	assert.True(t, ok)
	assert.Equal(t, "Set-Cookie, X-A", v)
	assert.True(t, cc.Has("must-revalidate"))
	_, ok = cc.MaxAge()
	assert.False(t, ok, "last max-age wins and is malformed")
	assert.Equal(t, 3, cc.Len())
	assert.Equal(t, `private="Set-Cookie, X-A", max-age=x, must-revalidate`, cc.String())
	_, ok = ParseCacheControl("").Get("max-age")
	assert.False(t, ok)
}
