// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpwire

import (
	"net/url"
	"testing"

	"github.com/gogama/httpwire/request"
	"github.com/gogama/httpwire/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		expected := &request.Response{}
		m := newMockDoer(t)
		m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
			return r.Method == "GET" && r.URL.String() == "http://foo/" && r.Body == nil
		})).Return(expected, nil).Once()
		resp, err := Get(m, "http://foo/")
		assert.Same(t, expected, resp)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("error invalid URL", func(t *testing.T) {
		m := newMockDoer(t)
		resp, err := Get(m, ":::")
		assert.Nil(t, resp)
		var rce *request.RequestConstructionError
		assert.ErrorAs(t, err, &rce)
		m.AssertNotCalled(t, "Do", mock.Anything)
	})
}

func TestHead(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		expected := &request.Response{}
		m := newMockDoer(t)
		m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
			return r.Method == "HEAD" && r.URL.String() == "http://bar/"
		})).Return(expected, nil).Once()
		resp, err := Head(m, "http://bar/")
		assert.Same(t, expected, resp)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("error missing host", func(t *testing.T) {
		m := newMockDoer(t)
		resp, err := Head(m, "/relative")
		assert.Nil(t, resp)
		assert.Error(t, err)
		m.AssertNotCalled(t, "Do", mock.Anything)
	})
}

func TestPost(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		expected := &request.Response{}
		m := newMockDoer(t)
		m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
			body, err := stream.String(r.Body)
			return r.Method == "POST" && r.URL.String() == "http://baz/" &&
				r.Header.Get("Content-Type") == "ham" &&
				err == nil && body == "eggs"
		})).Return(expected, nil).Once()
		resp, err := Post(m, "http://baz/", "ham", "eggs")
		assert.Same(t, expected, resp)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("error invalid URL", func(t *testing.T) {
		m := newMockDoer(t)
		resp, err := Post(m, ":::", "text/plain", []byte{'a', 'b', 'c'})
		assert.Nil(t, resp)
		assert.Error(t, err)
		m.AssertNotCalled(t, "Do", mock.Anything)
	})
	t.Run("error invalid body", func(t *testing.T) {
		m := newMockDoer(t)
		resp, err := Post(m, "http://baz/", "text/plain", 123)
		assert.Nil(t, resp)
		assert.EqualError(t, err, "httpwire/request: new: invalid type (for body use nil, string, []byte, url.Values, io.Reader or stream.Stream)")
		m.AssertNotCalled(t, "Do", mock.Anything)
	})
}

func TestPut(t *testing.T) {
	expected := &request.Response{}
	m := newMockDoer(t)
	m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
		return r.Method == "PUT" && r.Header.Get("Content-Type") == "application/json"
	})).Return(expected, nil).Once()
	resp, err := Put(m, "http://widgets/1", "application/json", `{"id":1}`)
	assert.Same(t, expected, resp)
	assert.NoError(t, err)
	m.AssertExpectations(t)
}

func TestPostForm(t *testing.T) {
	expected := &request.Response{}
	m := newMockDoer(t)
	m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
		return r.Method == "POST" && r.URL.String() == "http://poster/boy" &&
			r.Form.Get("x") == "y" && r.Body == nil
	})).Return(expected, nil).Once()
	resp, err := PostForm(m, "http://poster/boy", url.Values{"x": {"y"}})
	assert.Same(t, expected, resp)
	assert.NoError(t, err)
	m.AssertExpectations(t)
}

func TestInflate(t *testing.T) {
	t.Run("Inflate", func(t *testing.T) {
		t.Run("nil doer", func(t *testing.T) {
			assert.PanicsWithValue(t, "httpwire: nil doer", func() {
				Inflate(nil)
			})
		})
		t.Run("already an Executor", func(t *testing.T) {
			cl := &Client{}
			x := Inflate(cl)
			assert.Same(t, cl, x)
		})
		t.Run("not yet an Executor", func(t *testing.T) {
			m := newMockDoer(t)
			x := Inflate(m)
			assert.NotSame(t, m, x)
		})
	})
	expected := &request.Response{}
	t.Run("Do", func(t *testing.T) {
		r, err := request.New("PUT", "http://www.randomcollections.com/widgets/1", "foo")
		require.NoError(t, err)
		m := newMockDoer(t)
		m.On("Do", r).Return(expected, nil).Once()
		x := Inflate(m)
		resp, err := x.Do(r)
		assert.Same(t, expected, resp)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("Get", func(t *testing.T) {
		m := newMockDoer(t)
		m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
			return r.Method == "GET" && r.URL.Host == "bar"
		})).Return(expected, nil).Once()
		resp, err := Inflate(m).Get("http://bar")
		assert.Same(t, expected, resp)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("Head", func(t *testing.T) {
		m := newMockDoer(t)
		m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
			return r.Method == "HEAD" && r.URL.Host == "baz"
		})).Return(expected, nil).Once()
		resp, err := Inflate(m).Head("http://baz")
		assert.Same(t, expected, resp)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("Post", func(t *testing.T) {
		m := newMockDoer(t)
		m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
			return r.Method == "POST" && r.URL.Host == "ham" &&
				r.Header.Get("Content-Type") == "eggs" &&
				r.Body == nil
		})).Return(expected, nil).Once()
		resp, err := Inflate(m).Post("http://ham", "eggs", nil)
		assert.Same(t, expected, resp)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("PostForm", func(t *testing.T) {
		m := newMockDoer(t)
		m.On("Do", mock.MatchedBy(func(r *request.Request) bool {
			return r.Method == "POST" && r.URL.Host == "form" && r.Form.Encode() == "x=y"
		})).Return(expected, nil).Once()
		resp, err := Inflate(m).PostForm("http://form", url.Values{"x": []string{"y"}})
		assert.Same(t, expected, resp)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("CloseIdleConnections", func(t *testing.T) {
		t.Run("Doer does not implement IdleCloser", func(t *testing.T) {
			m := newMockDoer(t)
			x := Inflate(m)
			x.CloseIdleConnections()
			m.AssertNotCalled(t, "CloseIdleConnections")
		})
		t.Run("Doer implements IdleCloser", func(t *testing.T) {
			m := newMockDoerWithCloseIdleConnections(t)
			m.On("CloseIdleConnections").Once()
			x := Inflate(m)
			x.CloseIdleConnections()
			m.AssertExpectations(t)
		})
	})
}

type mockDoer struct {
	mock.Mock
}

func newMockDoer(t *testing.T) *mockDoer {
	m := &mockDoer{}
	m.Test(t)
	return m
}

func (m *mockDoer) Do(r *request.Request) (*request.Response, error) {
	args := m.Called(r)
	resp := args.Get(0)
	err := args.Error(1)
	if resp == nil {
		return nil, err
	}
	return resp.(*request.Response), err
}

type mockDoerWithCloseIdleConnections struct {
	mockDoer
}

func newMockDoerWithCloseIdleConnections(t *testing.T) *mockDoerWithCloseIdleConnections {
	m := &mockDoerWithCloseIdleConnections{}
	m.Test(t)
	return m
}

func (m *mockDoerWithCloseIdleConnections) CloseIdleConnections() {
	m.Called()
}
