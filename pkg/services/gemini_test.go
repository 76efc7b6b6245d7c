package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// captured records the last request an upstream fake received.
type captured struct {
	mu     sync.Mutex
	method string
	url    *url.URL
	header http.Header
	body   []byte
}

func (c *captured) get() (string, *url.URL, http.Header, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method, c.url, c.header, string(c.body)
}

func upstream(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.mu.Lock()
		got.method, got.url, got.header, got.body = r.Method, r.URL, r.Header.Clone(), b
		got.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestGenerateContentSuccess(t *testing.T) {
	srv, got := upstream(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"Hai!"},{"text":"ignored"}]}}]}`)
	g := NewGeminiClient("secret", srv.URL+"/v1beta/models/m:generateContent", time.Second)

	text, err := g.GenerateContent(context.Background(), "Halo")
	require.NoError(t, err)
	require.Equal(t, "Hai!", text)

	method, u, header, body := got.get()
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "/v1beta/models/m:generateContent", u.Path)
	require.Equal(t, "secret", u.Query().Get("key"))
	require.Equal(t, "application/json", header.Get("Content-Type"))
	require.JSONEq(t, `{"contents":[{"parts":[{"text":"Halo"}]}]}`, body)
}

func TestGenerateContentMissingFieldsDefaultToEmpty(t *testing.T) {
	cases := []string{
		`{}`,
		`{"candidates":[]}`,
		`{"candidates":[{}]}`,
		`{"candidates":[{"content":{}}]}`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":42}]}}]}`,
		`{"candidates":"nope"}`,
	}
	for _, body := range cases {
		srv, _ := upstream(t, http.StatusOK, body)
		g := NewGeminiClient("k", srv.URL, time.Second)
		text, err := g.GenerateContent(context.Background(), "p")
		require.NoError(t, err, body)
		require.Equal(t, "", text, body)
	}
}

func TestGenerateContentErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		g := NewGeminiClient("  ", "http://127.0.0.1:1", time.Second)
		require.False(t, g.Configured())
		_, err := g.GenerateContent(context.Background(), "p")
		require.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("upstream status", func(t *testing.T) {
		srv, _ := upstream(t, http.StatusServiceUnavailable, `{"error":"overloaded"}`)
		g := NewGeminiClient("k", srv.URL, time.Second)
		_, err := g.GenerateContent(context.Background(), "p")
		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		require.Equal(t, http.StatusServiceUnavailable, ue.Status)
		require.Contains(t, ue.Body, "overloaded")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv, _ := upstream(t, http.StatusOK, `<html>`)
		g := NewGeminiClient("k", srv.URL, time.Second)
		_, err := g.GenerateContent(context.Background(), "p")
		require.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("invalid url", func(t *testing.T) {
		g := NewGeminiClient("k", "not a url", time.Second)
		_, err := g.GenerateContent(context.Background(), "p")
		require.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()
		g := NewGeminiClient("k", srv.URL, 20*time.Millisecond)
		_, err := g.GenerateContent(context.Background(), "p")
		require.Error(t, err)
	})
}
